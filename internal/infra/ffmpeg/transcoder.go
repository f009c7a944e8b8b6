package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

// SamplingFPS picks the frame-extraction rate from the video duration:
// long videos are sampled at half a frame per second to bound inference
// cost, short ones at one frame per second.
func SamplingFPS(durationSeconds float64) float64 {
	if durationSeconds > 60 {
		return 0.5
	}
	return 1
}

type Transcoder struct {
	logger *zap.Logger
}

func NewTranscoder(logger *zap.Logger) *Transcoder {
	return &Transcoder{logger: logger}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (t *Transcoder) Probe(ctx context.Context, videoPath string) (*port.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, entity.NewStageError(entity.StageProbe, fmt.Errorf("ffprobe: %w", err))
	}

	var probed probeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, entity.NewStageError(entity.StageProbe, fmt.Errorf("parse ffprobe output: %w", err))
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return nil, entity.NewStageError(entity.StageProbe, fmt.Errorf("parse duration %q: %w", probed.Format.Duration, err))
	}

	info := &port.MediaInfo{DurationSeconds: duration}
	for _, s := range probed.Streams {
		switch s.CodecType {
		case "video":
			if info.Codec == "" {
				info.Codec = s.CodecName
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

func (t *Transcoder) ExtractFrames(ctx context.Context, videoPath string, outputDir string, fps float64) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, entity.NewStageError(entity.StageExtractFrames, fmt.Errorf("create output dir: %w", err))
	}

	framePattern := filepath.Join(outputDir, "frame_%04d.jpg")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-q:v", "2",
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, entity.NewStageError(entity.StageExtractFrames,
			fmt.Errorf("ffmpeg: %w, output: %s", err, string(output)))
	}

	frames, err := filepath.Glob(filepath.Join(outputDir, "frame_*.jpg"))
	if err != nil {
		return nil, entity.NewStageError(entity.StageExtractFrames, fmt.Errorf("glob frames: %w", err))
	}
	// Zero-padded names sort into frame-number order.
	sort.Strings(frames)

	t.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Float64("fps", fps),
	)

	return frames, nil
}

func (t *Transcoder) ExtractAudio(ctx context.Context, videoPath string, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return entity.NewStageError(entity.StageExtractAudio,
			fmt.Errorf("ffmpeg: %w, output: %s", err, string(output)))
	}
	return nil
}
