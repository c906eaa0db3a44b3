// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Platform client metrics
	SimulationsSubmitted prometheus.Counter
	SubmissionsRejected  prometheus.Counter
	Reauthentications    prometheus.Counter
	SimulationDuration   prometheus.Histogram
	PollFailures         prometheus.Counter

	// Decision metrics
	DecisionsTotal *prometheus.CounterVec

	// Mining loop metrics
	IterationsTotal      prometheus.Counter
	DuplicatesSkipped    prometheus.Counter
	AlphasFound          prometheus.Counter
	RefinementsAttempted prometheus.Counter

	// Storage metrics
	StoreErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSimulation prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "alphaminer"
	}

	return &Metrics{
		SimulationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "brain",
			Name:      "simulations_submitted_total",
			Help:      "Total number of simulations submitted to the platform",
		}),
		SubmissionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "brain",
			Name:      "submissions_rejected_total",
			Help:      "Total number of expressions the platform refused at submission",
		}),
		Reauthentications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "brain",
			Name:      "reauthentications_total",
			Help:      "Total number of session re-authentications after a 401",
		}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "brain",
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock duration of one simulation from submit to verdict",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}),
		PollFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "brain",
			Name:      "poll_failures_total",
			Help:      "Total number of transient progress poll failures",
		}),

		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "verdicts_total",
			Help:      "Total number of decisions by verdict",
		}, []string{"verdict"}),

		IterationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "iterations_total",
			Help:      "Total number of mining loop iterations",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of candidates skipped as already tested",
		}),
		AlphasFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "alphas_found_total",
			Help:      "Total number of accepted or hopeful alphas persisted",
		}),
		RefinementsAttempted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "refinements_attempted_total",
			Help:      "Total number of recoverable failures routed back for refinement",
		}),

		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of storage errors by store",
		}, []string{"store"}),

		LastSuccessfulSimulation: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_simulation_timestamp",
			Help:      "Unix timestamp of the last completed simulation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
