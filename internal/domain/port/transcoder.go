package port

import "context"

type MediaInfo struct {
	DurationSeconds float64
	Width           int
	Height          int
	HasAudio        bool
	Codec           string
}

type Transcoder interface {
	Probe(ctx context.Context, videoPath string) (*MediaInfo, error)
	// ExtractFrames rasterizes the video at the given rate and returns the
	// frame paths in frame-number order.
	ExtractFrames(ctx context.Context, videoPath string, outputDir string, fps float64) ([]string, error)
	// ExtractAudio writes the audio track as mono 16 kHz 16-bit PCM.
	ExtractAudio(ctx context.Context, videoPath string, outputPath string) error
}
