// Package middleware enforces the verification quotas at the HTTP boundary.
// Checks run against the primary (Redis) limiter; when it is unreachable a
// circuit breaker degrades to an in-memory fallback rather than blocking or
// waving through traffic.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"praman/internal/platform/middleware"
	"praman/internal/ratelimit/metrics"
	"praman/internal/ratelimit/models"
	dErrors "praman/pkg/domain-errors"
	"praman/pkg/platform/httputil"
)

// errCircuitOpen reports a check skipped because the primary's circuit is
// open and no probe was due.
var errCircuitOpen = errors.New("rate limiter circuit open")

// RateLimiter is the check surface the middleware needs.
type RateLimiter interface {
	CheckOperation(ctx context.Context, op models.Operation, userID, ip string) (*models.RateLimitResult, error)
	CheckGlobal(ctx context.Context, ip string) (*models.RateLimitResult, error)
}

// Middleware wires quota checks into the router.
type Middleware struct {
	primary  RateLimiter
	fallback RateLimiter
	breaker  *circuitBreaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	disabled bool
}

// Option configures the middleware.
type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (test mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback sets the in-memory limiter used while the primary's circuit
// is open.
func WithFallback(fallback RateLimiter) Option {
	return func(m *Middleware) {
		m.fallback = fallback
	}
}

// New creates rate limit middleware over the primary limiter.
func New(primary RateLimiter, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Middleware {
	mw := &Middleware{
		primary: primary,
		breaker: newCircuitBreaker(),
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(mw)
	}
	if mw.disabled {
		logger.Info("rate limiting disabled")
	}
	return mw
}

// Limit returns middleware enforcing the operation's quota, keyed by the
// caller identity header with IP fallback.
func (m *Middleware) Limit(op models.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := middleware.GetClientIP(ctx)
			userID := middleware.GetUserID(ctx)

			result, err := m.check(ctx, func(l RateLimiter) (*models.RateLimitResult, error) {
				return l.CheckOperation(ctx, op, userID, ip)
			})
			if err != nil {
				// Both primary and fallback failed; allow rather than block
				// legitimate verification traffic.
				m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "operation", string(op))
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncrementRejections(string(op))
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Global returns middleware enforcing the cross-endpoint IP quota.
func (m *Middleware) Global() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := middleware.GetClientIP(ctx)

			result, err := m.check(ctx, func(l RateLimiter) (*models.RateLimitResult, error) {
				return l.CheckGlobal(ctx, ip)
			})
			if err != nil {
				m.logger.ErrorContext(ctx, "global throttle check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				m.metrics.IncrementRejections(string(models.OpGlobal))
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// check runs against the primary unless its circuit is open, falling back to
// the in-memory limiter on error.
func (m *Middleware) check(ctx context.Context, fn func(RateLimiter) (*models.RateLimitResult, error)) (*models.RateLimitResult, error) {
	primaryErr := errCircuitOpen
	if !m.breaker.IsOpen() || m.breaker.ShouldProbe() {
		result, err := fn(m.primary)
		if err == nil {
			m.breaker.RecordSuccess()
			return result, nil
		}
		primaryErr = err
		m.breaker.RecordFailure()
		m.logger.WarnContext(ctx, "primary rate limiter failed", "error", err)
	}

	if m.fallback == nil {
		// No fallback to degrade to; surface the failure so callers take
		// the fail-open path instead of hammering the tripped primary.
		return nil, primaryErr
	}
	m.metrics.IncrementFallback()
	return fn(m.fallback)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	err := dErrors.New(dErrors.CodeRateLimitExceeded,
		"Too many requests for this operation. Please try again later.").
		WithRetryAfter(result.RetryAfter)
	httputil.WriteError(w, err)
}
