package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes for a cart document fetch.
const (
	LoadFound    = "found"
	LoadCreated  = "created"
	LoadFallback = "fallback"
)

// Save outcomes for a queued cart snapshot.
const (
	SaveSuccess    = "success"
	SaveFailure    = "failure"
	SaveSuperseded = "superseded"
	SaveSuppressed = "suppressed"
)

// CartMetrics records how cart documents are loaded and persisted.
type CartMetrics struct {
	loads        *prometheus.CounterVec
	saves        *prometheus.CounterVec
	saveDuration prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_loads_total",
		Help: "Cart document loads by outcome.",
	}, []string{"result"})
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_saves_total",
		Help: "Cart snapshot saves by outcome.",
	}, []string{"result"})
	saveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_save_duration_seconds",
		Help:    "Duration of cart document overwrites in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(loads, saves, saveDuration)
	return &CartMetrics{
		loads:        loads,
		saves:        saves,
		saveDuration: saveDuration,
	}
}

// IncLoad counts a cart load with the given outcome.
func (c *CartMetrics) IncLoad(result string) {
	if c == nil || c.loads == nil {
		return
	}
	c.loads.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncSave counts a cart save with the given outcome.
func (c *CartMetrics) IncSave(result string) {
	if c == nil || c.saves == nil {
		return
	}
	c.saves.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveSave records how long an overwrite took.
func (c *CartMetrics) ObserveSave(duration time.Duration) {
	if c == nil || c.saveDuration == nil {
		return
	}
	c.saveDuration.Observe(duration.Seconds())
}

func normalizeLabel(result string) string {
	if result == "" {
		return "unknown"
	}
	return result
}
