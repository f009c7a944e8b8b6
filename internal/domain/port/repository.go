package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

type VideoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error)
	// UpdateTerminal persists a terminal status. The write only lands while
	// the row is still in processing, so a job gets at most one terminal
	// state even across racing writers.
	UpdateTerminal(ctx context.Context, video *entity.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.Analysis) error
	UpdateScores(ctx context.Context, analysis *entity.Analysis) error
	FindByVideoID(ctx context.Context, videoID uuid.UUID) (*entity.Analysis, error)
}

type FrameRepository interface {
	Create(ctx context.Context, frame *entity.Frame) error
	CountByVideo(ctx context.Context, videoID uuid.UUID) (int, error)
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]entity.Frame, error)
}
