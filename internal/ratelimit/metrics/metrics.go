package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RejectionsTotal *prometheus.CounterVec
	FallbackTotal   prometheus.Counter
}

// New registers the metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg. Tests pass a fresh registry so
// repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "praman_ratelimit_rejections_total",
			Help: "Total requests rejected by the rate limiter, by operation.",
		}, []string{"operation"}),
		FallbackTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "praman_ratelimit_fallback_checks_total",
			Help: "Rate limit checks served by the in-memory fallback while the primary store circuit is open.",
		}),
	}
}

func (m *Metrics) IncrementRejections(operation string) {
	m.RejectionsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementFallback() {
	m.FallbackTotal.Inc()
}
