package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrailersGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktrailer_generations_total",
		Help: "Total number of trailer generations, by outcome",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booktrailer_stage_duration_seconds",
		Help:    "Duration of each trailer pipeline stage",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktrailer_llm_requests_total",
		Help: "Language model calls, by provider and outcome",
	}, []string{"provider", "outcome"})

	ImagesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktrailer_images_generated_total",
		Help: "Scene images produced, by source",
	}, []string{"source"})

	ImagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booktrailer_images_dropped_total",
		Help: "Scenes that yielded no image after the fallback provider",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booktrailer_active_workers",
		Help: "Number of workers currently generating a trailer",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktrailer_retry_total",
		Help: "Total number of message redeliveries",
	}, []string{"attempt"})

	LocalVideosSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booktrailer_local_videos_swept_total",
		Help: "Expired local video files removed by the janitor",
	})
)
