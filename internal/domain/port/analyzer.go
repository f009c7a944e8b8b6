package port

import (
	"context"

	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

// FrameAnalyzer rates the perceptual quality of one frame. Implementations
// never fail: any capability error degrades to the neutral fallback score.
type FrameAnalyzer interface {
	AnalyzeFrame(ctx context.Context, image []byte) entity.FrameScore
}

// AudioAnalyzer rates the quality of an extracted PCM audio track.
// Implementations never fail: silence and capability errors both degrade to
// a null score with an issue entry.
type AudioAnalyzer interface {
	AnalyzeAudio(ctx context.Context, pcm []byte) entity.AudioScore
}
