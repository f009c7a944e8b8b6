package entity

import "github.com/google/uuid"

// VideoAnalysisMessage is the inbound message from the video.analysis queue.
// The job-start collaborator flips the video to processing before publishing.
type VideoAnalysisMessage struct {
	VideoID   uuid.UUID `json:"video_id"`
	UserID    string    `json:"user_id"`
	FilePath  string    `json:"file_path"`
	UserEmail string    `json:"user_email,omitempty"`
}

// VideoDeleteMessage is the inbound message from the video.delete queue.
type VideoDeleteMessage struct {
	VideoID uuid.UUID `json:"video_id"`
	UserID  string    `json:"user_id"`
}

// VideoStatusMessage is the outbound message published to the video.status
// queue on every terminal transition.
type VideoStatusMessage struct {
	VideoID      uuid.UUID   `json:"video_id"`
	UserID       string      `json:"user_id"`
	Status       VideoStatus `json:"status"`
	FrameCount   int         `json:"frame_count,omitempty"`
	Duration     float64     `json:"duration_seconds,omitempty"`
	FinalScore   *float64    `json:"final_score,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
