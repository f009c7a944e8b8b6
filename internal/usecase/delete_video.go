package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/port"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/metrics"
	"go.uber.org/zap"
)

// DeleteVideoUseCase removes a video's storage artifacts (source object and
// uploaded frames) and its database rows. Frame and analysis rows go with
// the video row via cascading deletes.
type DeleteVideoUseCase struct {
	videos  port.VideoRepository
	storage port.VideoStorage
	dlq     port.DLQPublisher
	logger  *zap.Logger
}

func NewDeleteVideoUseCase(
	videos port.VideoRepository,
	storage port.VideoStorage,
	dlq port.DLQPublisher,
	logger *zap.Logger,
) *DeleteVideoUseCase {
	return &DeleteVideoUseCase{
		videos:  videos,
		storage: storage,
		dlq:     dlq,
		logger:  logger,
	}
}

func (uc *DeleteVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	var msg entity.VideoDeleteMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal delete message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	log := uc.logger.With(
		zap.String("video_id", msg.VideoID.String()),
		zap.String("user_id", msg.UserID),
	)

	prefix := fmt.Sprintf("%s/%s/", msg.UserID, msg.VideoID)

	videoKeys, err := uc.storage.ListVideos(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list video objects: %w", err)
	}
	if len(videoKeys) > 0 {
		if err := uc.storage.RemoveVideos(ctx, videoKeys); err != nil {
			return fmt.Errorf("remove video objects: %w", err)
		}
	}

	frameKeys, err := uc.storage.ListFrames(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list frame objects: %w", err)
	}
	if len(frameKeys) > 0 {
		if err := uc.storage.RemoveFrames(ctx, frameKeys); err != nil {
			return fmt.Errorf("remove frame objects: %w", err)
		}
	}

	if err := uc.videos.Delete(ctx, msg.VideoID); err != nil {
		return fmt.Errorf("delete video record: %w", err)
	}

	metrics.VideosDeletedTotal.Inc()
	log.Info("video deleted",
		zap.Int("video_objects", len(videoKeys)),
		zap.Int("frame_objects", len(frameKeys)),
	)
	return nil
}
