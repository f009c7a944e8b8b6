package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

type AnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

func (r *AnalysisRepository) Create(ctx context.Context, analysis *entity.Analysis) error {
	query := `
		INSERT INTO video_analysis (video_id, frame_count, duration_seconds, issues, created_at, updated_at)
		VALUES ($1, $2, $3, '{}'::jsonb, now(), now())`

	_, err := r.pool.Exec(ctx, query,
		analysis.VideoID, analysis.FrameCount, analysis.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) UpdateScores(ctx context.Context, analysis *entity.Analysis) error {
	issues, err := json.Marshal(analysis.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	query := `
		UPDATE video_analysis SET
			lighting_score=$2, sharpness_score=$3, framing_score=$4,
			audio_score=$5, final_score=$6, issues=$7, updated_at=now()
		WHERE video_id=$1`

	_, err = r.pool.Exec(ctx, query,
		analysis.VideoID,
		analysis.LightingScore, analysis.SharpnessScore, analysis.FramingScore,
		analysis.AudioScore, analysis.FinalScore, issues,
	)
	if err != nil {
		return fmt.Errorf("update analysis scores: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) FindByVideoID(ctx context.Context, videoID uuid.UUID) (*entity.Analysis, error) {
	query := `
		SELECT video_id, frame_count, duration_seconds,
			lighting_score, sharpness_score, framing_score, audio_score, final_score,
			issues, created_at, updated_at
		FROM video_analysis WHERE video_id=$1`

	analysis := &entity.Analysis{}
	var issues []byte
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&analysis.VideoID, &analysis.FrameCount, &analysis.DurationSeconds,
		&analysis.LightingScore, &analysis.SharpnessScore, &analysis.FramingScore,
		&analysis.AudioScore, &analysis.FinalScore,
		&issues, &analysis.CreatedAt, &analysis.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find analysis by video id: %w", err)
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &analysis.Issues); err != nil {
			return nil, fmt.Errorf("unmarshal issues: %w", err)
		}
	}
	return analysis, nil
}
