package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
	"go.uber.org/zap"
)

// audioBackend serves both endpoints of the two-stage audio flow.
func audioBackend(t *testing.T, transcript string, rating string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio/transcriptions":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", r.FormValue("model"))
			json.NewEncoder(w).Encode(map[string]any{"text": transcript})
		case "/chat/completions":
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 1)
			assert.Contains(t, req.Messages[0].Content[0].Text, transcript)
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": rating}},
				},
			})
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
		}
	}))
}

func TestAudioAnalyzerRatesTranscript(t *testing.T) {
	srv := audioBackend(t, "hello world this is my product review",
		`{"clarity": 8, "noise": 6, "distortion": 9, "overall": 7, "issues": ["Background hum"]}`)
	defer srv.Close()

	analyzer := NewAudioAnalyzer(NewClient("test-key", srv.URL), "whisper-1", "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeAudio(context.Background(), []byte("pcm"))

	require.NotNil(t, score.Clarity)
	assert.Equal(t, 8.0, *score.Clarity)
	require.NotNil(t, score.Noise)
	assert.Equal(t, 6.0, *score.Noise)
	require.NotNil(t, score.Distortion)
	assert.Equal(t, 9.0, *score.Distortion)
	require.NotNil(t, score.Overall)
	assert.Equal(t, 7.0, *score.Overall)
	assert.Equal(t, []string{"Background hum"}, score.Issues)
}

func TestAudioAnalyzerMissingFieldsDefaultToFive(t *testing.T) {
	srv := audioBackend(t, "short clip", `{"clarity": 9}`)
	defer srv.Close()

	analyzer := NewAudioAnalyzer(NewClient("test-key", srv.URL), "whisper-1", "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeAudio(context.Background(), []byte("pcm"))

	require.NotNil(t, score.Clarity)
	assert.Equal(t, 9.0, *score.Clarity)
	require.NotNil(t, score.Overall)
	assert.Equal(t, 5.0, *score.Overall)
	assert.Equal(t, []string{}, score.Issues)
}

func TestAudioAnalyzerEmptyTranscriptIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path, "silent audio must not reach the rating stage")
		json.NewEncoder(w).Encode(map[string]any{"text": "   "})
	}))
	defer srv.Close()

	analyzer := NewAudioAnalyzer(NewClient("test-key", srv.URL), "whisper-1", "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeAudio(context.Background(), []byte("pcm"))

	assert.Equal(t, entity.SilentAudioScore(), score)
	assert.Nil(t, score.Overall)
}

func TestAudioAnalyzerTranscriptionFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "backend unavailable"},
		})
	}))
	defer srv.Close()

	analyzer := NewAudioAnalyzer(NewClient("test-key", srv.URL), "whisper-1", "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeAudio(context.Background(), []byte("pcm"))

	assert.Equal(t, entity.FailedAudioScore(), score)
}

func TestAudioAnalyzerRatingFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			json.NewEncoder(w).Encode(map[string]any{"text": "spoken words"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded"},
		})
	}))
	defer srv.Close()

	analyzer := NewAudioAnalyzer(NewClient("test-key", srv.URL), "whisper-1", "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeAudio(context.Background(), []byte("pcm"))

	assert.Equal(t, entity.FailedAudioScore(), score)
}
