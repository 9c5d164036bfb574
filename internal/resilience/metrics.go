package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker collectors, labelled by the breaker's target. They live on the
// default registry so every breaker in the process reports through /metrics.
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kiosk",
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"})
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kiosk",
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Count of breaker state transitions.",
	}, []string{"target", "from", "to"})
	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kiosk",
		Subsystem: "breaker",
		Name:      "opened_total",
		Help:      "Number of times a breaker opened.",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
}
