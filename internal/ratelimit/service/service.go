// Package service applies the verification quotas to identities. The
// middleware resolves who is asking; this layer owns which bucket and limit
// apply.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"praman/internal/ratelimit/models"
	"praman/internal/ratelimit/store/bucket"
)

// Service checks verification operations against their sliding-window
// quotas.
type Service struct {
	buckets bucket.Store
	limits  map[models.Operation]models.Limit
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLimits overrides the default quotas (tests and staged rollouts).
func WithLimits(limits map[models.Operation]models.Limit) Option {
	return func(s *Service) {
		s.limits = limits
	}
}

// New creates a rate limit service over the given bucket store.
func New(buckets bucket.Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, fmt.Errorf("bucket store is required")
	}
	s := &Service{
		buckets: buckets,
		limits:  models.DefaultLimits(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckOperation applies the operation's quota keyed by user identity,
// falling back to the client IP when no identity header was present.
func (s *Service) CheckOperation(ctx context.Context, op models.Operation, userID, ip string) (*models.RateLimitResult, error) {
	limit, ok := s.limits[op]
	if !ok {
		return nil, fmt.Errorf("no limit configured for operation %q", op)
	}
	kind, identity := "user", userID
	if identity == "" {
		kind, identity = "ip", ip
	}
	return s.buckets.Allow(ctx, models.Key(op, kind, identity), limit.Max, limit.Window)
}

// CheckGlobal applies the cross-endpoint quota keyed by IP.
func (s *Service) CheckGlobal(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	limit, ok := s.limits[models.OpGlobal]
	if !ok {
		return nil, fmt.Errorf("no global limit configured")
	}
	return s.buckets.Allow(ctx, models.Key(models.OpGlobal, "ip", ip), limit.Max, limit.Window)
}
