package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func (r *VideoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	query := `
		SELECT id, user_id, file_path, original_filename, status, error_message,
			processing_started_at, processing_completed_at, created_at, updated_at
		FROM videos WHERE id=$1`

	video := &entity.Video{}
	var status string
	var errMsg *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&video.ID, &video.UserID, &video.FilePath, &video.OriginalFilename,
		&status, &errMsg,
		&video.ProcessingStartedAt, &video.ProcessingCompletedAt,
		&video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	video.Status = entity.VideoStatus(status)
	if errMsg != nil {
		video.ErrorMessage = *errMsg
	}
	return video, nil
}

// UpdateTerminal writes a terminal status. The status='processing' predicate
// makes the write a no-op if another writer already finished the job.
func (r *VideoRepository) UpdateTerminal(ctx context.Context, video *entity.Video) error {
	query := `
		UPDATE videos SET
			status=$2, error_message=$3, processing_completed_at=$4, updated_at=$5
		WHERE id=$1 AND status='processing'`

	var errMsg *string
	if video.ErrorMessage != "" {
		errMsg = &video.ErrorMessage
	}

	_, err := r.pool.Exec(ctx, query,
		video.ID, string(video.Status), errMsg,
		video.ProcessingCompletedAt, video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update video terminal status: %w", err)
	}
	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}
