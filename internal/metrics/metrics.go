package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	claimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_claims_total",
			Help: "Claim requests by outcome (success/ineligible/exhausted/error).",
		},
		[]string{"status"},
	)

	ineligibleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_claims_ineligible_total",
			Help: "Cooldown rejections by matched identity signal.",
		},
		[]string{"reason"},
	)

	allocationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coupon_allocation_seconds",
			Help:    "Allocation engine latency distribution in seconds.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	allocationRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_allocation_retries_total",
			Help: "Allocation attempts lost to a concurrent claimant and retried.",
		},
	)

	inconsistentAllocations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_inconsistent_allocations_total",
			Help: "Coupons marked assigned whose ledger write failed.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			claimsTotal, ineligibleTotal,
			allocationSeconds, allocationRetries,
			inconsistentAllocations,
		)
	})
}

func ClaimProcessed(status string) {
	claimsTotal.WithLabelValues(status).Inc()
}

func ClaimIneligible(reason string) {
	ineligibleTotal.WithLabelValues(reason).Inc()
}

func ObserveAllocation(d time.Duration) {
	allocationSeconds.Observe(d.Seconds())
}

func AllocationRetried() {
	allocationRetries.Inc()
}

func InconsistentAllocation() {
	inconsistentAllocations.Inc()
}
