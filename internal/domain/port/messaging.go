package port

import "context"

// StatusPublisher pushes terminal status messages to the video.status queue.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks unprocessable messages for operator inspection.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
