package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, videoID string, filename string, errorMsg string) error
}
