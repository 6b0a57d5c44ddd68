package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics records the outcome of order pricing calculations.
type QuoteMetrics struct {
	duration         *prometheus.HistogramVec
	aborted          *prometheus.CounterVec
	skippedDiscounts prometheus.Counter
}

// NewQuoteMetrics registers the quote pipeline metrics on the provided
// registerer. A nil registerer yields a no-op collector.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_duration_seconds",
		Help:    "Duration of order pricing calculations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	aborted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_aborted_total",
		Help: "Pricing calculations aborted, labeled by error code.",
	}, []string{"code"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_discounts_skipped_total",
		Help: "Discount codes silently skipped during stacking.",
	})
	reg.MustRegister(duration, aborted, skipped)
	return &QuoteMetrics{
		duration:         duration,
		aborted:          aborted,
		skippedDiscounts: skipped,
	}
}

// ObserveDuration records how long a quote took for the given outcome.
func (q *QuoteMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncAborted increments the abort counter for the given error code.
func (q *QuoteMetrics) IncAborted(code string) {
	if q == nil || q.aborted == nil {
		return
	}
	q.aborted.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncSkippedDiscount counts a silently skipped discount code.
func (q *QuoteMetrics) IncSkippedDiscount() {
	if q == nil || q.skippedDiscounts == nil {
		return
	}
	q.skippedDiscounts.Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
