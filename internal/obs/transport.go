package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics groups collectors for outbound HTTP calls.
type ClientMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
}

// NewClientMetrics registers and returns outbound HTTP metrics collectors.
func NewClientMetrics(namespace string, reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &ClientMetrics{
		ReqTotal: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of requests sent to the ordering backend.",
		}, []string{"method", "path", "status"})),
		ReqDur: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_ms",
			Help:      "Ordering backend round trip latency in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"method", "path"})),
	}
}

// InstrumentedTransport records ClientMetrics for every round trip. Transport
// errors are counted with status "error".
type InstrumentedTransport struct {
	Base    http.RoundTripper
	Metrics *ClientMetrics
}

// RoundTrip implements http.RoundTripper.
func (t InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Metrics == nil {
		return base.RoundTrip(req)
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	path := req.URL.Path
	t.Metrics.ReqTotal.WithLabelValues(req.Method, path, status).Inc()
	t.Metrics.ReqDur.WithLabelValues(req.Method, path).Observe(DurationMillis(time.Since(start)))
	return resp, err
}
