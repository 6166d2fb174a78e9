package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RecalcPassTotal counts recalculation passes by trigger and outcome.
	RecalcPassTotal *prometheus.CounterVec
	// RecalcItemsUpdated counts inventory items whose final price was rewritten.
	RecalcItemsUpdated prometheus.Counter
	// RecalcPassDuration records the latency of full recalculation passes.
	RecalcPassDuration *prometheus.HistogramVec
	// ServiceChargeRecomputeTotal counts service-charge derivations by outcome.
	ServiceChargeRecomputeTotal *prometheus.CounterVec
	// MinimumStockPropagated counts bulk low-stock threshold pushes.
	MinimumStockPropagated prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers pricing-domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RecalcPassTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_recalc_pass_total",
			Help:      "Count of price recalculation passes by trigger and result.",
		}, []string{"trigger", "result"})
		RecalcItemsUpdated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_recalc_items_updated_total",
			Help:      "Total inventory items whose final price was rewritten.",
		})
		RecalcPassDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_recalc_pass_duration_ms",
			Help:      "Latency of full recalculation passes in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"trigger"})
		ServiceChargeRecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_service_charge_recompute_total",
			Help:      "Count of service-charge derivations by result.",
		}, []string{"result"})
		MinimumStockPropagated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_minimum_stock_propagated_total",
			Help:      "Count of bulk minimum-stock propagation passes.",
		})

		registerCounterVec(reg, &RecalcPassTotal)
		registerCounter(reg, &RecalcItemsUpdated)
		registerHistogramVec(reg, &RecalcPassDuration)
		registerCounterVec(reg, &ServiceChargeRecomputeTotal)
		registerCounter(reg, &MinimumStockPropagated)
	})
}
