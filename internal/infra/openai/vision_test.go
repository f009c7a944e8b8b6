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

// chatBackend serves /chat/completions returning content as the assistant
// message body.
func chatBackend(t *testing.T, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestVisionAnalyzerParsesScores(t *testing.T) {
	var captured chatRequest
	srv := chatBackend(t, `{"lighting": 8, "sharpness": 7.5, "framing": 9, "overall": 8, "issues": ["Slightly underexposed"]}`, &captured)
	defer srv.Close()

	analyzer := NewVisionAnalyzer(NewClient("test-key", srv.URL), "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeFrame(context.Background(), []byte("jpeg-bytes"))

	assert.Equal(t, 8.0, score.Lighting)
	assert.Equal(t, 7.5, score.Sharpness)
	assert.Equal(t, 9.0, score.Framing)
	assert.Equal(t, 8.0, score.Overall)
	assert.Equal(t, []string{"Slightly underexposed"}, score.Issues)

	require.Len(t, captured.Messages, 1)
	require.Len(t, captured.Messages[0].Content, 2)
	assert.Equal(t, "image_url", captured.Messages[0].Content[1].Type)
	assert.True(t, strings.HasPrefix(captured.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
	assert.Equal(t, "low", captured.Messages[0].Content[1].ImageURL.Detail)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestVisionAnalyzerCoercesStringNumbersAndDefaults(t *testing.T) {
	srv := chatBackend(t, `{"lighting": "7", "framing": "not a number", "issues": "oops"}`, nil)
	defer srv.Close()

	analyzer := NewVisionAnalyzer(NewClient("test-key", srv.URL), "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeFrame(context.Background(), []byte("jpeg-bytes"))

	assert.Equal(t, 7.0, score.Lighting)
	assert.Equal(t, 5.0, score.Sharpness)
	assert.Equal(t, 5.0, score.Framing)
	assert.Equal(t, 5.0, score.Overall)
	assert.Equal(t, []string{}, score.Issues)
}

func TestVisionAnalyzerDegradesOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	analyzer := NewVisionAnalyzer(NewClient("test-key", srv.URL), "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeFrame(context.Background(), []byte("jpeg-bytes"))

	assert.Equal(t, entity.NeutralFrameScore(), score)
}

func TestVisionAnalyzerDegradesOnMalformedJSON(t *testing.T) {
	srv := chatBackend(t, `I cannot analyze this image.`, nil)
	defer srv.Close()

	analyzer := NewVisionAnalyzer(NewClient("test-key", srv.URL), "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeFrame(context.Background(), []byte("jpeg-bytes"))

	assert.Equal(t, entity.NeutralFrameScore(), score)
}

func TestVisionAnalyzerDegradesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	analyzer := NewVisionAnalyzer(NewClient("test-key", srv.URL), "gpt-4o", zap.NewNop())
	score := analyzer.AnalyzeFrame(context.Background(), []byte("jpeg-bytes"))

	assert.Equal(t, entity.NeutralFrameScore(), score)
}
