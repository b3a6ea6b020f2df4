// Package metrics provides Prometheus metrics for the service.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request latency.
var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// Metrics holds all Prometheus metric collectors for the service.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	SchemeResolutions   *prometheus.CounterVec
	AuthorizationParsed *prometheus.CounterVec
	CookiesIssued       *prometheus.CounterVec
	ResponseBytes       prometheus.Counter
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpmsg_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "httpmsg_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "httpmsg_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		SchemeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpmsg_scheme_resolutions_total",
			Help: "Forwarded scheme resolutions by outcome and signal key.",
		}, []string{"outcome", "signal"}),

		AuthorizationParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpmsg_authorization_parsed_total",
			Help: "Authorization headers seen, by normalized type.",
		}, []string{"type"}),

		CookiesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpmsg_cookies_issued_total",
			Help: "Set-Cookie headers issued, by action.",
		}, []string{"action"}),

		ResponseBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "httpmsg_transmitted_body_bytes_total",
			Help: "Body bytes written by the response transmitter.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.SchemeResolutions,
		m.AuthorizationParsed,
		m.CookiesIssued,
		m.ResponseBytes,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
var knownPrefixes = []string{"/whoami", "/session", "/healthz", "/status", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}

// knownAuthTypes lists the allowed authorization type label values.
var knownAuthTypes = map[string]bool{
	"basic": true, "bearer": true, "digest": true, "negotiate": true,
}

// NormalizeAuthType returns a bounded label for an authorization type.
// An empty type means no usable header was sent.
func NormalizeAuthType(typ string) string {
	if typ == "" {
		return "absent"
	}
	if t := strings.ToLower(typ); knownAuthTypes[t] {
		return t
	}
	return "other"
}
