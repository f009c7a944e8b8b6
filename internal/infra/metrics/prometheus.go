package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ugc_analysis_jobs_total",
		Help: "Total number of analysis jobs finished, by terminal status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ugc_analysis_stage_duration_seconds",
		Help:    "Duration of the analysis pipeline stages",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ugc_analysis_frames_analyzed_total",
		Help: "Total number of frames scored across all jobs",
	})

	DegradedInferenceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ugc_analysis_degraded_inference_total",
		Help: "Inference calls that fell back to a degraded result, by kind",
	}, []string{"kind"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ugc_analysis_active_workers",
		Help: "Number of workers currently running an analysis pipeline",
	})

	VideosDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ugc_analysis_videos_deleted_total",
		Help: "Total number of videos deleted with their artifacts",
	})
)
