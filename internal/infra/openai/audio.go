package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/metrics"
	"go.uber.org/zap"
)

const audioRatingPrompt = `Evaluate this UGC video audio quality from transcript: "%s". Rate clarity (1-10), background noise (1-10 where 10=clean), distortion (1-10 where 10=none). Return JSON only: {"clarity": number, "noise": number, "distortion": number, "overall": number, "issues": string[]}`

// AudioAnalyzer rates audio quality in two stages: transcription, then a
// text-quality rating of the transcript.
type AudioAnalyzer struct {
	client             *Client
	transcriptionModel string
	ratingModel        string
	logger             *zap.Logger
}

func NewAudioAnalyzer(client *Client, transcriptionModel string, ratingModel string, logger *zap.Logger) *AudioAnalyzer {
	return &AudioAnalyzer{
		client:             client,
		transcriptionModel: transcriptionModel,
		ratingModel:        ratingModel,
		logger:             logger,
	}
}

// AnalyzeAudio never fails: a silent track yields the no-audio score, any
// capability error yields the failed score. Both carry nil ratings.
func (a *AudioAnalyzer) AnalyzeAudio(ctx context.Context, pcm []byte) entity.AudioScore {
	transcript, err := a.client.Transcribe(ctx, a.transcriptionModel, pcm)
	if err != nil {
		a.logger.Warn("audio transcription degraded", zap.Error(err))
		metrics.DegradedInferenceTotal.WithLabelValues("audio").Inc()
		return entity.FailedAudioScore()
	}

	if strings.TrimSpace(transcript) == "" {
		return entity.SilentAudioScore()
	}

	content := []contentPart{
		{Type: "text", Text: fmt.Sprintf(audioRatingPrompt, transcript)},
	}
	raw, err := a.client.ChatJSON(ctx, a.ratingModel, content, 300)
	if err != nil {
		a.logger.Warn("audio rating degraded", zap.Error(err))
		metrics.DegradedInferenceTotal.WithLabelValues("audio").Inc()
		return entity.FailedAudioScore()
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		a.logger.Warn("audio rating returned malformed json", zap.Error(err))
		metrics.DegradedInferenceTotal.WithLabelValues("audio").Inc()
		return entity.FailedAudioScore()
	}

	clarity := numberOr(payload["clarity"], 5)
	noise := numberOr(payload["noise"], 5)
	distortion := numberOr(payload["distortion"], 5)
	overall := numberOr(payload["overall"], 5)

	return entity.AudioScore{
		Clarity:    &clarity,
		Noise:      &noise,
		Distortion: &distortion,
		Overall:    &overall,
		Issues:     stringList(payload["issues"]),
	}
}
