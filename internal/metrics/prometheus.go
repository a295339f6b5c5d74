package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the ROT13 echo service
type Metrics struct {
	registry *prometheus.Registry

	// UDP datagram metrics
	DatagramsReceived prometheus.Counter
	RepliesSent       prometheus.Counter
	ReceiveErrors     prometheus.Counter
	SendErrors        prometheus.Counter
	BytesReceived     prometheus.Counter
	BytesSent         prometheus.Counter
	HandleDuration    prometheus.Histogram
	DatagramSize      prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics on a fresh registry that also carries
// the Go runtime and process collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DatagramsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "rot13_datagrams_received_total",
			Help: "Total number of UDP datagrams received",
		}),
		RepliesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "rot13_replies_sent_total",
			Help: "Total number of ROT13 replies sent back to senders",
		}),
		ReceiveErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "rot13_receive_errors_total",
			Help: "Total number of failed UDP receive calls",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "rot13_send_errors_total",
			Help: "Total number of failed UDP reply sends",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "rot13_bytes_received_total",
			Help: "Total payload bytes received",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "rot13_bytes_sent_total",
			Help: "Total payload bytes sent in replies",
		}),
		HandleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rot13_datagram_handle_duration_seconds",
			Help:    "Time from receive to reply for a single datagram",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}),
		DatagramSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rot13_datagram_size_bytes",
			Help:    "Size of received datagram payloads",
			Buckets: prometheus.ExponentialBuckets(16, 2, 8), // 16B to 2KB
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rot13_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rot13_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rot13_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// Registry returns the registry all metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics exposition handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordDatagramReceived records an incoming datagram of the given size
func (m *Metrics) RecordDatagramReceived(sizeBytes int) {
	m.DatagramsReceived.Inc()
	m.BytesReceived.Add(float64(sizeBytes))
	m.DatagramSize.Observe(float64(sizeBytes))
}

// RecordReplySent records a reply and the time it took to produce it
func (m *Metrics) RecordReplySent(sizeBytes int, durationSeconds float64) {
	m.RepliesSent.Inc()
	m.BytesSent.Add(float64(sizeBytes))
	m.HandleDuration.Observe(durationSeconds)
}

// RecordReceiveError increments the receive errors counter
func (m *Metrics) RecordReceiveError() {
	m.ReceiveErrors.Inc()
}

// RecordSendError increments the send errors counter
func (m *Metrics) RecordSendError() {
	m.SendErrors.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
