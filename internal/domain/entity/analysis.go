package entity

import (
	"time"

	"github.com/google/uuid"
)

// IssueReport groups deduplicated issue strings by category. Within each
// category insertion order is preserved.
type IssueReport struct {
	Lighting  []string `json:"lighting"`
	Framing   []string `json:"framing"`
	Technical []string `json:"technical"`
	Audio     []string `json:"audio"`
}

// Analysis holds the aggregate result for one video. It is inserted with only
// FrameCount and DurationSeconds once extraction finishes, and updated with
// scores exactly once at aggregation time.
type Analysis struct {
	VideoID         uuid.UUID
	FrameCount      int
	DurationSeconds float64
	LightingScore   *float64
	SharpnessScore  *float64
	FramingScore    *float64
	AudioScore      *float64
	FinalScore      *float64
	Issues          IssueReport
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Frame is the per-frame quality record, appended in frame_number order while
// the video is processing. The row count against Analysis.FrameCount is the
// progress signal.
type Frame struct {
	ID               int64
	VideoID          uuid.UUID
	FrameNumber      int
	FramePath        string
	Lighting         float64
	Sharpness        float64
	Framing          float64
	Overall          float64
	Issues           []string
	TimestampSeconds float64
	CreatedAt        time.Time
}
