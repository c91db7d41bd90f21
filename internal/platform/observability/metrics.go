package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_pipeline_runs_total",
		Help: "Total pipeline runs by source and result",
	}, []string{"source", "result"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agenda_fetch_duration_seconds",
		Help:    "Duration of page rendering",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60},
	}, []string{"source"})

	RecordsExtracted = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agenda_records_extracted",
		Help: "Records extracted in the latest run",
	}, []string{"source"})

	ChangesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_changes_detected_total",
		Help: "Runs whose fingerprint differed from the stored one",
	}, []string{"source"})

	BlocksSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_blocks_sent_total",
		Help: "Message blocks delivered by source",
	}, []string{"source"})

	BlocksAbandoned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_blocks_abandoned_total",
		Help: "Message blocks abandoned after exhausting fallbacks",
	}, []string{"source"})

	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_rate_limit_waits_total",
		Help: "Times delivery slept on a server-supplied retry-after",
	})

	DeliveryFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_delivery_fallbacks_total",
		Help: "Degradation steps applied during delivery",
	}, []string{"step"})

	NightModeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_night_mode_transitions_total",
		Help: "Night mode state transitions",
	}, []string{"state"})
)
