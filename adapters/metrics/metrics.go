// Package metrics provides Prometheus metrics collection for Facturo.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for Facturo.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Document metrics
	InvoicesCreated  *prometheus.CounterVec
	EstimatesCreated prometheus.Counter
	Conversions      prometheus.Counter
	Transitions      *prometheus.CounterVec

	// Plan limit metrics
	LimitRejections *prometheus.CounterVec

	// Numbering metrics
	NumberConflicts prometheus.Counter

	// Recurring engine metrics
	RecurringFired  prometheus.Counter
	RecurringErrors prometheus.Counter

	// Email tracking metrics
	EmailEvents *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered on the default
// registry.
func New() *Collector {
	return collector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return collector(promauto.With(reg))
}

func collector(factory promauto.Factory) *Collector {
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "facturo",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "facturo",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		InvoicesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "invoices_created_total",
				Help:      "Total invoices created, by origin",
			},
			[]string{"source"}, // manual, conversion, recurring
		),
		EstimatesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "estimates_created_total",
				Help:      "Total estimates created",
			},
		),
		Conversions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "conversions_total",
				Help:      "Total estimate to invoice conversions",
			},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "document_transitions_total",
				Help:      "Total document status transitions",
			},
			[]string{"document", "status"},
		),

		LimitRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "limit_rejections_total",
				Help:      "Invoice creations rejected by the plan limit",
			},
			[]string{"plan"},
		),

		NumberConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "number_conflicts_total",
				Help:      "Document number collisions between concurrent creations",
			},
		),

		RecurringFired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "recurring_fired_total",
				Help:      "Invoices generated from recurring templates",
			},
		),
		RecurringErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "recurring_errors_total",
				Help:      "Recurring generation failures",
			},
		),

		EmailEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "email_events_total",
				Help:      "Email delivery events recorded",
			},
			[]string{"event"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "facturo",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "facturo",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}
