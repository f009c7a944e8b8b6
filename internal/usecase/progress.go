package usecase

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/port"
)

// Progress is the percentage of frames analyzed so far. Frame rows are the
// only progress signal; there is no separate counter to keep in sync.
func Progress(analyzedFrames, totalFrames int) int {
	if totalFrames <= 0 {
		return 0
	}
	return int(math.Round(float64(analyzedFrames) / float64(totalFrames) * 100))
}

// ProgressUseCase answers progress polls against the frame row count. Before
// the analysis row exists the total is unknown and progress reads as zero.
type ProgressUseCase struct {
	analyses port.AnalysisRepository
	frames   port.FrameRepository
}

func NewProgressUseCase(analyses port.AnalysisRepository, frames port.FrameRepository) *ProgressUseCase {
	return &ProgressUseCase{analyses: analyses, frames: frames}
}

func (uc *ProgressUseCase) VideoProgress(ctx context.Context, videoID uuid.UUID) (int, error) {
	analysis, err := uc.analyses.FindByVideoID(ctx, videoID)
	if err != nil {
		// No analysis row yet: extraction has not finished.
		return 0, nil
	}

	analyzed, err := uc.frames.CountByVideo(ctx, videoID)
	if err != nil {
		return 0, err
	}

	return Progress(analyzed, analysis.FrameCount), nil
}
