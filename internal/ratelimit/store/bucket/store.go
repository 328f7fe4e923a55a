// Package bucket implements sliding-window rate limit counters. The
// in-memory store serves single-instance deployments and the circuit-breaker
// fallback; the Redis store shares windows across instances.
package bucket

import (
	"context"
	"time"

	"praman/internal/ratelimit/models"
)

// Store is the persistence interface for rate limit counters. Keys are
// simple strings; validation happens at the boundary.
type Store interface {
	// Allow checks if a request is allowed and increments the counter.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)

	// Reset clears the rate limit counter for a key.
	Reset(ctx context.Context, key string) error
}
