package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_records_total",
			Help: "Records processed by the redaction engine.",
		},
	)

	PIIRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_pii_records_total",
			Help: "Records flagged as containing PII.",
		},
	)

	MalformedPayloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_malformed_payloads_total",
			Help: "Rows whose JSON payload could not be parsed and were passed through.",
		},
	)

	MaskedFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_masked_fields_total",
			Help: "Fields masked, by PII kind.",
		},
		[]string{"kind"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
		[]string{"path", "status"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RecordsTotal,
		PIIRecordsTotal,
		MalformedPayloadsTotal,
		MaskedFieldsTotal,
		RequestDuration,
		RateLimitedTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
