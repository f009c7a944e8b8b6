package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/config"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/email"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/ffmpeg"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/metrics"
	miniostorage "github.com/ugcscore/ugc-analysis-service/internal/infra/minio"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/openai"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/postgres"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/rabbitmq"
	"github.com/ugcscore/ugc-analysis-service/internal/infra/tracing"
	"github.com/ugcscore/ugc-analysis-service/internal/usecase"
	"github.com/ugcscore/ugc-analysis-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting ugc-analysis-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Object storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:    cfg.MinIOEndpoint,
		AccessKey:   cfg.MinIOAccessKey,
		SecretKey:   cfg.MinIOSecretKey,
		UseSSL:      cfg.MinIOUseSSL,
		VideoBucket: cfg.MinIOVideoBucket,
		FrameBucket: cfg.MinIOFrameBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	videoRepo := postgres.NewVideoRepository(pool)
	analysisRepo := postgres.NewAnalysisRepository(pool)
	frameRepo := postgres.NewFrameRepository(pool)
	transcoder := ffmpeg.NewTranscoder(log)
	aiClient := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	frameAnalyzer := openai.NewVisionAnalyzer(aiClient, cfg.OpenAIVisionModel, log)
	audioAnalyzer := openai.NewAudioAnalyzer(aiClient, cfg.OpenAIAudioModel, cfg.OpenAIVisionModel, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Use cases
	analyzeUC := usecase.NewAnalyzeVideoUseCase(
		videoRepo, analysisRepo, frameRepo,
		storage, transcoder, frameAnalyzer, audioAnalyzer,
		statusPub, dlqPub, notifier,
		log,
		usecase.AnalyzeVideoConfig{
			TempDir:       cfg.TempDir,
			MaxProcessing: cfg.MaxProcessing,
			FrameDelay:    cfg.FrameDelay,
		},
	)
	deleteUC := usecase.NewDeleteVideoUseCase(videoRepo, storage, dlqPub, log)
	progressUC := usecase.NewProgressUseCase(analysisRepo, frameRepo)

	// Metrics server with an operator progress endpoint
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log, map[string]http.HandlerFunc{
		"/progress/": progressHandler(progressUC),
	})

	// Consumers
	analysisConsumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQAnalysisQueue,
		RoutingKey:  cfg.RabbitMQAnalysisQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, analyzeUC.Execute, log)
	fatalOnErr(err, "create analysis consumer")

	deleteConsumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQDeleteQueue,
		RoutingKey:  cfg.RabbitMQDeleteQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: 1,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, deleteUC.Execute, log)
	fatalOnErr(err, "create delete consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	go func() {
		if err := deleteConsumer.Start(ctx); err != nil {
			log.Error("delete consumer error", zap.Error(err))
		}
	}()

	log.Info("ugc-analysis-service started, consuming messages")

	if err := analysisConsumer.Start(ctx); err != nil {
		log.Error("analysis consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	analysisConsumer.Close()
	deleteConsumer.Close()
	log.Info("ugc-analysis-service stopped")
}

// progressHandler serves GET /progress/{videoId} as a plain percentage for
// operators; the public results API lives in the upstream service.
func progressHandler(uc *usecase.ProgressUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/progress/"))
		if err != nil {
			http.Error(w, "invalid video id", http.StatusBadRequest)
			return
		}
		progress, err := uc.VideoProgress(r.Context(), id)
		if err != nil {
			http.Error(w, "progress lookup failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strconv.Itoa(progress)))
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
