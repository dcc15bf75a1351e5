package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_chat_turns_total",
			Help: "Total number of chat turns by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_chat_turn_duration_seconds",
			Help:    "Duration of handler execution in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"intent"},
	)

	UnauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_unauthorized_total",
			Help: "Total number of admin requests refused by the role gate",
		},
	)

	SideEffectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_side_effects_total",
			Help: "Total number of side effects processed by the relay",
		},
		[]string{"handler", "outcome"},
	)
)

// Outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
	OutcomeDenied   = "denied"
	OutcomeSkipped  = "skipped"
)
