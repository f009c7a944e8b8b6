package entity

import (
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	VideoStatusPendingUpload VideoStatus = "pending_upload"
	VideoStatusProcessing    VideoStatus = "processing"
	VideoStatusCompleted     VideoStatus = "completed"
	VideoStatusFailed        VideoStatus = "failed"
	VideoStatusTimeout       VideoStatus = "timeout"
)

// TimeoutMessage is the error_message written on the timeout terminal state.
const TimeoutMessage = "Processing exceeded maximum time limit"

type Video struct {
	ID                    uuid.UUID
	UserID                string
	FilePath              string
	OriginalFilename      string
	Status                VideoStatus
	ErrorMessage          string
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (v *Video) IsTerminal() bool {
	switch v.Status {
	case VideoStatusCompleted, VideoStatusFailed, VideoStatusTimeout:
		return true
	}
	return false
}

func (v *Video) MarkCompleted() {
	now := time.Now().UTC()
	v.Status = VideoStatusCompleted
	v.ErrorMessage = ""
	v.UpdatedAt = now
	v.ProcessingCompletedAt = &now
}

func (v *Video) MarkFailed(errMsg string) {
	now := time.Now().UTC()
	v.Status = VideoStatusFailed
	v.ErrorMessage = errMsg
	v.UpdatedAt = now
	v.ProcessingCompletedAt = &now
}

func (v *Video) MarkTimeout() {
	now := time.Now().UTC()
	v.Status = VideoStatusTimeout
	v.ErrorMessage = TimeoutMessage
	v.UpdatedAt = now
	v.ProcessingCompletedAt = &now
}
