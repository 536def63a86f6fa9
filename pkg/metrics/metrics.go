package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	CartOps          *prometheus.CounterVec
	CheckoutOutcomes *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopfront",
		Name:      "cart_operations_total",
		Help:      "Total number of cart mutations.",
	}, []string{"op"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopfront",
		Name:      "checkout_outcomes_total",
		Help:      "Total number of checkout attempts by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(cartOps, outcomes)
	return &Metrics{CartOps: cartOps, CheckoutOutcomes: outcomes}
}

// CountCartOp and CountCheckoutOutcome are nil-safe so wiring metrics stays
// optional in tests.
func (m *Metrics) CountCartOp(op string) {
	if m == nil {
		return
	}
	m.CartOps.WithLabelValues(op).Inc()
}

func (m *Metrics) CountCheckoutOutcome(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutOutcomes.WithLabelValues(outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
