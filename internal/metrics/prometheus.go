package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "speech_eval_duration_seconds",
			Help:    "End-to-end evaluation pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speech_eval_stage_duration_seconds",
			Help:    "Per-stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)

	EvaluationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_eval_total",
			Help: "Total evaluation requests by outcome",
		},
		[]string{"status"},
	)

	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_eval_stage_failures_total",
			Help: "Stage failures that degraded the composed result",
		},
		[]string{"stage"},
	)

	JudgeRepairRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "speech_eval_judge_repair_retries_total",
			Help: "Judge responses that failed validation and triggered the repair retry",
		},
	)

	AudioDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "speech_eval_audio_duration_seconds",
			Help:    "Duration of accepted audio recordings in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "speech_eval_cache_hits_total",
			Help: "Evaluation results served from the dedup cache",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "speech_eval_cache_misses_total",
			Help: "Evaluation requests not found in the dedup cache",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		EvaluationDuration,
		StageDuration,
		EvaluationTotal,
		StageFailures,
		JudgeRepairRetries,
		AudioDurationSeconds,
		CacheHits,
		CacheMisses,
	)
}

// Handler exposes the Prometheus scrape endpoint as a Fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
