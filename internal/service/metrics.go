package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики саг онбординга и оффбординга.
var (
	sagaRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sam_saga_runs_total",
			Help: "Количество выполненных саг по операции и итоговому статусу",
		},
		[]string{"operation", "status"},
	)

	sagaStepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sam_saga_step_failures_total",
			Help: "Количество неуспешных шагов саг",
		},
		[]string{"operation", "step", "outcome"},
	)

	sagaDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sam_saga_duration_seconds",
			Help:    "Длительность выполнения саги",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms … ~25s
		},
		[]string{"operation"},
	)
)
