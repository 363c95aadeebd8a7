package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the back office
type Metrics struct {
	// Template store
	TemplateOperationsTotal *prometheus.CounterVec
	TemplateVersions        prometheus.Gauge

	// Rendering
	RendersTotal       *prometheus.CounterVec
	UnknownTokensTotal prometheus.Counter

	// E-mail history
	EmailsTotal  *prometheus.CounterVec
	EmailsStored *prometheus.GaugeVec

	// Directory
	Customers prometheus.Gauge

	// Authentication
	LoginsTotal *prometheus.CounterVec

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// System metrics
	UptimeSeconds prometheus.Gauge
	Goroutines    prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TemplateOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_template_operations_total",
				Help: "Total number of template store operations",
			},
			[]string{"operation", "result"},
		),
		TemplateVersions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_template_versions",
				Help: "Number of template versions in the store",
			},
		),

		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_renders_total",
				Help: "Total number of template renders",
			},
			[]string{"kind"},
		),
		UnknownTokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backoffice_unknown_tokens_total",
				Help: "Total number of unrecognized tokens seen in previews",
			},
		),

		EmailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_emails_total",
				Help: "Total number of e-mails composed or moved, by resulting status",
			},
			[]string{"status"},
		),
		EmailsStored: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "backoffice_emails_stored",
				Help: "Number of e-mails in the history, by status",
			},
			[]string{"status"},
		),

		Customers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_customers",
				Help: "Number of customers in the directory",
			},
		),

		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoffice_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_goroutines",
				Help: "Number of active goroutines",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.TemplateOperationsTotal,
		m.TemplateVersions,
		m.RendersTotal,
		m.UnknownTokensTotal,
		m.EmailsTotal,
		m.EmailsStored,
		m.Customers,
		m.LoginsTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.UptimeSeconds,
		m.Goroutines,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncTemplateOperation counts a template store operation. err decides the
// result label.
func IncTemplateOperation(operation string, err error) {
	m := Global()
	if m != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.TemplateOperationsTotal.WithLabelValues(operation, result).Inc()
	}
}

// IncRenders increments the render counter
func IncRenders(kind string) {
	m := Global()
	if m != nil {
		m.RendersTotal.WithLabelValues(kind).Inc()
	}
}

// AddUnknownTokens adds n unrecognized tokens
func AddUnknownTokens(n int) {
	m := Global()
	if m != nil && n > 0 {
		m.UnknownTokensTotal.Add(float64(n))
	}
}

// IncEmails increments the e-mail counter for status
func IncEmails(status string) {
	m := Global()
	if m != nil {
		m.EmailsTotal.WithLabelValues(status).Inc()
	}
}

// IncLogins increments the login counter
func IncLogins(result string) {
	m := Global()
	if m != nil {
		m.LoginsTotal.WithLabelValues(result).Inc()
	}
}
