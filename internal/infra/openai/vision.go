package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/metrics"
	"go.uber.org/zap"
)

const visionPrompt = `Analyze this UGC video frame quality. Rate lighting (1-10), sharpness/focus (1-10), framing/composition (1-10). Identify specific issues. Return JSON only with this exact structure: {"lighting": number, "sharpness": number, "framing": number, "overall": number, "issues": string[]}`

// VisionAnalyzer scores frame quality via the vision-capable chat model.
type VisionAnalyzer struct {
	client *Client
	model  string
	logger *zap.Logger
}

func NewVisionAnalyzer(client *Client, model string, logger *zap.Logger) *VisionAnalyzer {
	return &VisionAnalyzer{client: client, model: model, logger: logger}
}

// AnalyzeFrame never fails: any capability or parse error degrades to the
// neutral fallback score so one bad frame cannot abort a job.
func (a *VisionAnalyzer) AnalyzeFrame(ctx context.Context, image []byte) entity.FrameScore {
	content := []contentPart{
		{Type: "text", Text: visionPrompt},
		{
			Type: "image_url",
			ImageURL: &imageURL{
				URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(image)),
				Detail: "low",
			},
		},
	}

	raw, err := a.client.ChatJSON(ctx, a.model, content, 500)
	if err != nil {
		a.logger.Warn("frame analysis degraded", zap.Error(err))
		metrics.DegradedInferenceTotal.WithLabelValues("frame").Inc()
		return entity.NeutralFrameScore()
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		a.logger.Warn("frame analysis returned malformed json", zap.Error(err))
		metrics.DegradedInferenceTotal.WithLabelValues("frame").Inc()
		return entity.NeutralFrameScore()
	}

	return entity.FrameScore{
		Lighting:  numberOr(payload["lighting"], 5),
		Sharpness: numberOr(payload["sharpness"], 5),
		Framing:   numberOr(payload["framing"], 5),
		Overall:   numberOr(payload["overall"], 5),
		Issues:    stringList(payload["issues"]),
	}
}

// numberOr coerces a decoded JSON value to float64, falling back when the
// field is absent or non-numeric.
func numberOr(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return fallback
}

// stringList coerces a decoded JSON value to a string slice, defaulting to
// empty when the field is not an array.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
