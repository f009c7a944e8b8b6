package port

import (
	"context"
	"io"
)

type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadFrame(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	ListVideos(ctx context.Context, prefix string) ([]string, error)
	ListFrames(ctx context.Context, prefix string) ([]string, error)
	RemoveVideos(ctx context.Context, objectKeys []string) error
	RemoveFrames(ctx context.Context, objectKeys []string) error
}
