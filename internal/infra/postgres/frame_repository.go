package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

type FrameRepository struct {
	pool *pgxpool.Pool
}

func NewFrameRepository(pool *pgxpool.Pool) *FrameRepository {
	return &FrameRepository{pool: pool}
}

func (r *FrameRepository) Create(ctx context.Context, frame *entity.Frame) error {
	issues, err := json.Marshal(frame.Issues)
	if err != nil {
		return fmt.Errorf("marshal frame issues: %w", err)
	}

	query := `
		INSERT INTO video_frames (
			video_id, frame_number, frame_path,
			lighting, sharpness, framing, overall,
			issues, ts_seconds, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
		RETURNING id`

	err = r.pool.QueryRow(ctx, query,
		frame.VideoID, frame.FrameNumber, frame.FramePath,
		frame.Lighting, frame.Sharpness, frame.Framing, frame.Overall,
		issues, frame.TimestampSeconds,
	).Scan(&frame.ID)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}
	return nil
}

func (r *FrameRepository) CountByVideo(ctx context.Context, videoID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM video_frames WHERE video_id=$1`, videoID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return count, nil
}

func (r *FrameRepository) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]entity.Frame, error) {
	query := `
		SELECT id, video_id, frame_number, frame_path,
			lighting, sharpness, framing, overall,
			issues, ts_seconds, created_at
		FROM video_frames WHERE video_id=$1
		ORDER BY frame_number ASC`

	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var frames []entity.Frame
	for rows.Next() {
		var frame entity.Frame
		var issues []byte
		err := rows.Scan(
			&frame.ID, &frame.VideoID, &frame.FrameNumber, &frame.FramePath,
			&frame.Lighting, &frame.Sharpness, &frame.Framing, &frame.Overall,
			&issues, &frame.TimestampSeconds, &frame.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if len(issues) > 0 {
			if err := json.Unmarshal(issues, &frame.Issues); err != nil {
				return nil, fmt.Errorf("unmarshal frame issues: %w", err)
			}
		}
		frames = append(frames, frame)
	}
	return frames, rows.Err()
}
