package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// MenuRefreshTotal counts menu refresh outcomes.
	MenuRefreshTotal *prometheus.CounterVec
	// OfferRefreshTotal counts offer catalog refresh outcomes.
	OfferRefreshTotal *prometheus.CounterVec
	// SubmissionTotal counts outbound submissions by kind (order, payment, selection) and result.
	SubmissionTotal *prometheus.CounterVec
	// SubmissionLatency records submission round trips in milliseconds.
	SubmissionLatency *prometheus.HistogramVec
	// OfferAppliedTotal counts quotes that carried a non-zero discount, by offer kind.
	OfferAppliedTotal *prometheus.CounterVec
	// MockPaymentTotal counts payments settled by the development backend.
	MockPaymentTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		MenuRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_refresh_total",
			Help:      "Count of menu refresh attempts by outcome.",
		}, []string{"result"})
		OfferRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offer_refresh_total",
			Help:      "Count of offer catalog refresh attempts by outcome.",
		}, []string{"result"})
		SubmissionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_total",
			Help:      "Count of outbound submissions by kind and outcome.",
		}, []string{"kind", "result"})
		SubmissionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_ms",
			Help:      "Latency for outbound submissions in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"kind"})
		OfferAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offer_applied_total",
			Help:      "Count of paid quotes that carried a discount, by offer kind.",
		}, []string{"kind"})
		MockPaymentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mock_payment_total",
			Help:      "Count of payments settled by the development backend.",
		}, []string{"result"})

		for _, c := range []**prometheus.CounterVec{&MenuRefreshTotal, &OfferRefreshTotal, &SubmissionTotal, &OfferAppliedTotal, &MockPaymentTotal} {
			*c = registerOrReuse(reg, *c)
		}
		SubmissionLatency = registerOrReuse(reg, SubmissionLatency)
	})
}
