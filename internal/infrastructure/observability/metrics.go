package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Queue metrics
	QueueDepth      prometheus.Gauge
	RecordsEnqueued *prometheus.CounterVec

	// Submission metrics
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
	SubmissionRetries  prometheus.Counter
	RecordsAbandoned   *prometheus.CounterVec

	// Sync metrics
	DrainPassesTotal *prometheus.CounterVec
	DrainDuration    prometheus.Histogram
	ConnectivityUp   prometheus.Gauge

	// Wallet metrics
	WalletBalance *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Number of non-terminal records in the durable queue",
			},
		),
		RecordsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_enqueued_total",
				Help:      "Total records enqueued, by path (offline, failed_send)",
			},
			[]string{"path"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Total ledger submissions by outcome",
			},
			[]string{"outcome"},
		),
		SubmissionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submission_duration_seconds",
				Help:      "Submit and confirm duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		SubmissionRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submission_retries_total",
				Help:      "Total records rescheduled after a retryable failure",
			},
		),
		RecordsAbandoned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_abandoned_total",
				Help:      "Total records abandoned, by cause",
			},
			[]string{"cause"},
		),
		DrainPassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drain_passes_total",
				Help:      "Total drain passes by result (completed, offline, skipped)",
			},
			[]string{"result"},
		),
		DrainDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "drain_duration_seconds",
				Help:      "Drain pass duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		ConnectivityUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connectivity_up",
				Help:      "Last observed connectivity state (1=online, 0=offline)",
			},
		),
		WalletBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "wallet_balance",
				Help:      "Last known wallet balance",
			},
			[]string{"account"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.QueueDepth,
		m.RecordsEnqueued,
		m.SubmissionsTotal,
		m.SubmissionDuration,
		m.SubmissionRetries,
		m.RecordsAbandoned,
		m.DrainPassesTotal,
		m.DrainDuration,
		m.ConnectivityUp,
		m.WalletBalance,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
	)

	return m
}
