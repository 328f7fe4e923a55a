package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Initiated        prometheus.Counter
	Verified         prometheus.Counter
	Failed           *prometheus.CounterVec
	Resent           prometheus.Counter
	AttemptConflicts prometheus.Counter
	SweptExpired     prometheus.Counter
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
		Initiated: factory.NewCounter(prometheus.CounterOpts{
			Name: "praman_verifications_initiated_total",
			Help: "Verification sessions initiated (OTP sent).",
		}),
		Verified: factory.NewCounter(prometheus.CounterOpts{
			Name: "praman_verifications_verified_total",
			Help: "Verification sessions completed successfully.",
		}),
		Failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "praman_verifications_failed_total",
			Help: "Verification sessions that ended in failure, by reason.",
		}, []string{"reason"}),
		Resent: factory.NewCounter(prometheus.CounterOpts{
			Name: "praman_verification_otp_resent_total",
			Help: "OTP resend operations completed.",
		}),
		AttemptConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "praman_verification_attempt_conflicts_total",
			Help: "Optimistic-concurrency conflicts observed while counting OTP attempts.",
		}),
		SweptExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "praman_verification_swept_expired_total",
			Help: "Stale otp_sent records marked expired by the sweeper.",
		}),
	}
}
