package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/port"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/ffmpeg"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AnalyzeVideoUseCase drives one video through the analysis pipeline:
// download, probe, frame extraction, per-frame scoring, audio scoring,
// aggregation, terminal status. Every run has a wall-clock deadline; the
// watchdog and the main sequence race for the single terminal write.
type AnalyzeVideoUseCase struct {
	videos        port.VideoRepository
	analyses      port.AnalysisRepository
	frames        port.FrameRepository
	storage       port.VideoStorage
	transcoder    port.Transcoder
	frameAnalyzer port.FrameAnalyzer
	audioAnalyzer port.AudioAnalyzer
	publisher     port.StatusPublisher
	dlq           port.DLQPublisher
	notifier      port.FailureNotifier
	logger        *zap.Logger
	cfg           AnalyzeVideoConfig
	issueRules    []IssueRule

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

type AnalyzeVideoConfig struct {
	TempDir       string
	MaxProcessing time.Duration
	// FrameDelay throttles inference calls between frames; zero disables it.
	FrameDelay time.Duration
}

func NewAnalyzeVideoUseCase(
	videos port.VideoRepository,
	analyses port.AnalysisRepository,
	frames port.FrameRepository,
	storage port.VideoStorage,
	transcoder port.Transcoder,
	frameAnalyzer port.FrameAnalyzer,
	audioAnalyzer port.AudioAnalyzer,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	return &AnalyzeVideoUseCase{
		videos:        videos,
		analyses:      analyses,
		frames:        frames,
		storage:       storage,
		transcoder:    transcoder,
		frameAnalyzer: frameAnalyzer,
		audioAnalyzer: audioAnalyzer,
		publisher:     publisher,
		dlq:           dlq,
		notifier:      notifier,
		logger:        logger,
		cfg:           cfg,
		issueRules:    DefaultIssueRules,
		inFlight:      make(map[uuid.UUID]struct{}),
	}
}

// Execute consumes one video.analysis message. A non-nil return means no
// terminal state was produced yet and the message should be redelivered.
func (uc *AnalyzeVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Execute")
	defer span.End()

	var msg entity.VideoAnalysisMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("video.id", msg.VideoID.String()),
		attribute.String("video.file_path", msg.FilePath),
	)

	log := uc.logger.With(
		zap.String("video_id", msg.VideoID.String()),
		zap.String("user_id", msg.UserID),
	)

	if !uc.acquire(msg.VideoID) {
		log.Warn("analysis already in flight, dropping duplicate message")
		return nil
	}
	defer uc.release(msg.VideoID)

	video, err := uc.videos.FindByID(ctx, msg.VideoID)
	if err != nil {
		log.Error("failed to load video record", zap.Error(err))
		return fmt.Errorf("load video: %w", err)
	}
	if video.Status != entity.VideoStatusProcessing {
		log.Warn("video not in processing state, dropping message",
			zap.String("status", string(video.Status)))
		return nil
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	totalTimer := time.Now()
	err = uc.run(ctx, video, msg, rawMsg, log)
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return err
}

// run arms the deadline watchdog, executes the pipeline, and funnels every
// terminal transition through a single-assignment guard so exactly one of
// completed, failed or timeout is persisted.
func (uc *AnalyzeVideoUseCase) run(
	ctx context.Context,
	video *entity.Video,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Terminal writes survive run cancellation.
	writeCtx := context.WithoutCancel(ctx)

	var terminal sync.Once
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-time.After(uc.cfg.MaxProcessing):
			terminal.Do(func() {
				log.Warn("deadline exceeded, preempting run")
				uc.finishTimeout(writeCtx, video, log)
			})
			cancel()
		case <-done:
		}
	}()

	result, analysis, err := uc.pipeline(runCtx, video, msg, log)
	if err != nil {
		if runCtx.Err() != nil {
			if ctx.Err() != nil {
				// Shutdown cancelled the run. No terminal state was
				// written, so the message must be redelivered.
				log.Warn("run interrupted by shutdown, requeueing", zap.Error(err))
				return fmt.Errorf("run interrupted: %w", ctx.Err())
			}
			// Deadline preemption; the watchdog owns the terminal write.
			log.Info("run abandoned after deadline preemption", zap.Error(err))
			return nil
		}
		terminal.Do(func() {
			uc.finishFailed(writeCtx, video, msg, rawMsg, err.Error(), log)
		})
		return nil
	}

	terminal.Do(func() {
		uc.finishCompleted(writeCtx, video, msg, rawMsg, analysis, result, log)
	})
	return nil
}

// pipeline performs steps download through aggregation inside the run's
// working area, which is released on every exit path.
func (uc *AnalyzeVideoUseCase) pipeline(
	ctx context.Context,
	video *entity.Video,
	msg entity.VideoAnalysisMessage,
	log *zap.Logger,
) (*AggregateResult, *entity.Analysis, error) {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, video.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download source video
	dlStart := time.Now()
	dlCtx, dlSpan := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "video.mp4")
	if err := uc.storage.DownloadVideo(dlCtx, msg.FilePath, videoPath); err != nil {
		dlSpan.End()
		return nil, nil, entity.NewStageError(entity.StageDownload, err)
	}
	dlSpan.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Probe container metadata
	info, err := uc.transcoder.Probe(ctx, videoPath)
	if err != nil {
		return nil, nil, err
	}
	fps := ffmpeg.SamplingFPS(info.DurationSeconds)
	log.Info("video probed",
		zap.Float64("duration_secs", info.DurationSeconds),
		zap.Bool("has_audio", info.HasAudio),
		zap.String("codec", info.Codec),
		zap.Float64("sampling_fps", fps),
	)

	// Extract frames
	exStart := time.Now()
	exCtx, exSpan := tracer.Start(ctx, "extract_frames")
	framesDir := filepath.Join(workDir, "frames")
	framePaths, err := uc.transcoder.ExtractFrames(exCtx, videoPath, framesDir, fps)
	exSpan.End()
	if err != nil {
		return nil, nil, err
	}
	metrics.StageDuration.WithLabelValues("extract_frames").Observe(time.Since(exStart).Seconds())

	// The analysis row with the frame count makes progress polling
	// meaningful from here on.
	analysis := &entity.Analysis{
		VideoID:         video.ID,
		FrameCount:      len(framePaths),
		DurationSeconds: info.DurationSeconds,
	}
	if err := uc.analyses.Create(ctx, analysis); err != nil {
		return nil, nil, fmt.Errorf("insert analysis: %w", err)
	}

	// Score, upload and persist each frame in frame-number order.
	scores, err := uc.analyzeFrames(ctx, video, msg, framePaths, fps, log)
	if err != nil {
		return nil, nil, err
	}

	// Audio is optional and failure here degrades instead of aborting.
	var audio *entity.AudioScore
	if info.HasAudio {
		audio = uc.analyzeAudio(ctx, videoPath, workDir, log)
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
	}

	result, err := Aggregate(scores, audio, uc.issueRules)
	if err != nil {
		return nil, nil, err
	}

	return result, analysis, nil
}

func (uc *AnalyzeVideoUseCase) analyzeFrames(
	ctx context.Context,
	video *entity.Video,
	msg entity.VideoAnalysisMessage,
	framePaths []string,
	fps float64,
	log *zap.Logger,
) ([]entity.FrameScore, error) {
	tracer := otel.Tracer("usecase")
	loopStart := time.Now()
	loopCtx, loopSpan := tracer.Start(ctx, "analyze_frames",
		trace.WithAttributes(attribute.Int("frame.count", len(framePaths))))
	defer loopSpan.End()

	scores := make([]entity.FrameScore, 0, len(framePaths))
	for i, framePath := range framePaths {
		if err := loopCtx.Err(); err != nil {
			return nil, err
		}

		frameNumber := i + 1
		image, err := os.ReadFile(framePath)
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", frameNumber, err)
		}

		score := uc.frameAnalyzer.AnalyzeFrame(loopCtx, image)

		objectKey := fmt.Sprintf("%s/%s/frame_%04d.jpg", msg.UserID, video.ID, frameNumber)
		if err := uc.storage.UploadFrame(loopCtx, objectKey, bytes.NewReader(image), int64(len(image))); err != nil {
			return nil, fmt.Errorf("upload frame %d: %w", frameNumber, err)
		}

		frame := &entity.Frame{
			VideoID:          video.ID,
			FrameNumber:      frameNumber,
			FramePath:        objectKey,
			Lighting:         score.Lighting,
			Sharpness:        score.Sharpness,
			Framing:          score.Framing,
			Overall:          score.Overall,
			Issues:           score.Issues,
			TimestampSeconds: float64(frameNumber-1) / fps,
		}
		if err := uc.frames.Create(loopCtx, frame); err != nil {
			return nil, fmt.Errorf("insert frame %d: %w", frameNumber, err)
		}

		scores = append(scores, score)
		metrics.FramesAnalyzedTotal.Inc()

		// Inference rate-limit throttle.
		if uc.cfg.FrameDelay > 0 {
			select {
			case <-time.After(uc.cfg.FrameDelay):
			case <-loopCtx.Done():
				return nil, loopCtx.Err()
			}
		}
	}

	metrics.StageDuration.WithLabelValues("analyze_frames").Observe(time.Since(loopStart).Seconds())
	log.Info("frames analyzed", zap.Int("count", len(scores)))
	return scores, nil
}

// analyzeAudio extracts and scores the audio track. Both extraction and
// analysis failures degrade to a null score with an issue entry.
func (uc *AnalyzeVideoUseCase) analyzeAudio(ctx context.Context, videoPath, workDir string, log *zap.Logger) *entity.AudioScore {
	tracer := otel.Tracer("usecase")
	auStart := time.Now()
	auCtx, auSpan := tracer.Start(ctx, "analyze_audio")
	defer auSpan.End()
	defer func() {
		metrics.StageDuration.WithLabelValues("analyze_audio").Observe(time.Since(auStart).Seconds())
	}()

	audioPath := filepath.Join(workDir, "audio.wav")
	if err := uc.transcoder.ExtractAudio(auCtx, videoPath, audioPath); err != nil {
		log.Warn("audio extraction failed, degrading to null audio score", zap.Error(err))
		return &entity.AudioScore{Issues: []string{"Audio extraction or analysis failed"}}
	}

	pcm, err := os.ReadFile(audioPath)
	if err != nil {
		log.Warn("audio read failed, degrading to null audio score", zap.Error(err))
		return &entity.AudioScore{Issues: []string{"Audio extraction or analysis failed"}}
	}

	score := uc.audioAnalyzer.AnalyzeAudio(auCtx, pcm)
	return &score
}

func (uc *AnalyzeVideoUseCase) finishCompleted(
	ctx context.Context,
	video *entity.Video,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	analysis *entity.Analysis,
	result *AggregateResult,
	log *zap.Logger,
) {
	analysis.LightingScore = &result.LightingScore
	analysis.SharpnessScore = &result.SharpnessScore
	analysis.FramingScore = &result.FramingScore
	analysis.AudioScore = result.AudioScore
	analysis.FinalScore = &result.FinalScore
	analysis.Issues = result.Issues

	// A job whose scores cannot be persisted failed like any other; it
	// gets the same DLQ entry and user notification.
	if err := uc.analyses.UpdateScores(ctx, analysis); err != nil {
		log.Error("failed to persist final scores", zap.Error(err))
		uc.finishFailed(ctx, video, msg, rawMsg, "persist analysis: "+err.Error(), log)
		return
	}
	video.MarkCompleted()

	if err := uc.videos.UpdateTerminal(ctx, video); err != nil {
		log.Error("failed to persist terminal status", zap.Error(err))
	}

	uc.publishStatus(ctx, video, analysis, log)
	metrics.JobsProcessedTotal.WithLabelValues(string(video.Status)).Inc()

	log.Info("video analysis finished",
		zap.String("status", string(video.Status)),
		zap.Int("frame_count", analysis.FrameCount),
		zap.Float64("final_score", result.FinalScore),
	)
}

func (uc *AnalyzeVideoUseCase) finishFailed(
	ctx context.Context,
	video *entity.Video,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) {
	video.MarkFailed(errMsg)
	if err := uc.videos.UpdateTerminal(ctx, video); err != nil {
		log.Error("failed to persist failed status", zap.Error(err))
	}

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)
	uc.publishStatus(ctx, video, nil, log)
	metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, video.ID.String(), video.OriginalFilename, errMsg)
	}

	log.Error("video analysis failed", zap.String("error_message", errMsg))
}

func (uc *AnalyzeVideoUseCase) finishTimeout(ctx context.Context, video *entity.Video, log *zap.Logger) {
	video.MarkTimeout()
	if err := uc.videos.UpdateTerminal(ctx, video); err != nil {
		log.Error("failed to persist timeout status", zap.Error(err))
	}

	uc.publishStatus(ctx, video, nil, log)
	metrics.JobsProcessedTotal.WithLabelValues("timeout").Inc()
}

func (uc *AnalyzeVideoUseCase) publishStatus(ctx context.Context, video *entity.Video, analysis *entity.Analysis, log *zap.Logger) {
	statusMsg := entity.VideoStatusMessage{
		VideoID:      video.ID,
		UserID:       video.UserID,
		Status:       video.Status,
		ErrorMessage: video.ErrorMessage,
	}
	if analysis != nil {
		statusMsg.FrameCount = analysis.FrameCount
		statusMsg.Duration = analysis.DurationSeconds
		statusMsg.FinalScore = analysis.FinalScore
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

func (uc *AnalyzeVideoUseCase) acquire(videoID uuid.UUID) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, running := uc.inFlight[videoID]; running {
		return false
	}
	uc.inFlight[videoID] = struct{}{}
	return true
}

func (uc *AnalyzeVideoUseCase) release(videoID uuid.UUID) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inFlight, videoID)
}
