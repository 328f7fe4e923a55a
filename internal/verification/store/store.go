// Package store persists verification records. Implementations must honor
// optimistic concurrency: Update is conditional on the version the caller
// read and fails with sentinel.ErrConflict when a concurrent writer won.
package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"praman/internal/verification"
)

// Store is the persistence contract for verification records. Records are
// never hard-deleted here; retention is owned by an external compliance
// process reading ComplianceFlags.
type Store interface {
	// Create inserts a new record.
	Create(ctx context.Context, record *verification.Record) error

	// Update writes the record conditionally on record.Version matching the
	// stored row, then increments the version. Returns sentinel.ErrConflict
	// when the condition fails.
	Update(ctx context.Context, record *verification.Record) error

	// FindByID returns the record with the given ID, or sentinel.ErrNotFound.
	// Lookups that must survive a ref rotation go through here.
	FindByID(ctx context.Context, id uuid.UUID) (*verification.Record, error)

	// FindLatest returns the most recently created record for (userID, typ),
	// or sentinel.ErrNotFound.
	FindLatest(ctx context.Context, userID string, typ verification.Type) (*verification.Record, error)

	// FindByRefID returns the user's record bound to the given upstream
	// reference, or sentinel.ErrNotFound.
	FindByRefID(ctx context.Context, userID, refID string) (*verification.Record, error)

	// FindVerified returns the user's verified record for typ, or
	// sentinel.ErrNotFound.
	FindVerified(ctx context.Context, userID string, typ verification.Type) (*verification.Record, error)

	// ListStaleOTPSent returns up to limit otp_sent records whose OTP expired
	// before the cutoff. Used by the expiry sweeper.
	ListStaleOTPSent(ctx context.Context, cutoff time.Time, limit int) ([]*verification.Record, error)

	// Health reports store connectivity.
	Health(ctx context.Context) error
}
