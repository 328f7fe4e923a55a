package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"praman/internal/verification"
	"praman/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for development and tests. Writes are
// serialized under one mutex and the version check mirrors the Postgres
// conditional update, so concurrency semantics match production.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*verification.Record // keyed by record ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*verification.Record)}
}

// Create inserts a new record at version 1.
func (s *MemoryStore) Create(_ context.Context, record *verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Version = 1
	clone := cloneRecord(record)
	s.records[record.ID.String()] = clone
	return nil
}

// Update applies a conditional write keyed on the version the caller read.
func (s *MemoryStore) Update(_ context.Context, record *verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[record.ID.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != record.Version {
		return sentinel.ErrConflict
	}
	record.Version++
	s.records[record.ID.String()] = cloneRecord(record)
	return nil
}

// FindByID returns the record with the given ID.
func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id.String()]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(r), nil
}

// FindLatest returns the most recently created record for (userID, typ).
func (s *MemoryStore) FindLatest(_ context.Context, userID string, typ verification.Type) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.collect(func(r *verification.Record) bool {
		return r.UserID == userID && r.Type == typ
	})
	if len(matches) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return matches[0], nil
}

// FindByRefID returns the user's record bound to the given reference.
func (s *MemoryStore) FindByRefID(_ context.Context, userID, refID string) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.collect(func(r *verification.Record) bool {
		return r.UserID == userID && r.RefID == refID
	})
	if len(matches) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return matches[0], nil
}

// FindVerified returns the user's verified record for typ.
func (s *MemoryStore) FindVerified(_ context.Context, userID string, typ verification.Type) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.collect(func(r *verification.Record) bool {
		return r.UserID == userID && r.Type == typ && r.Status == verification.StatusVerified
	})
	if len(matches) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return matches[0], nil
}

// ListStaleOTPSent returns otp_sent records whose OTP expired before cutoff.
func (s *MemoryStore) ListStaleOTPSent(_ context.Context, cutoff time.Time, limit int) ([]*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.collect(func(r *verification.Record) bool {
		return r.Status == verification.StatusOTPSent &&
			r.OTPExpiresAt != nil && r.OTPExpiresAt.Before(cutoff)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Health always succeeds for the in-memory store.
func (s *MemoryStore) Health(context.Context) error { return nil }

// collect returns copies of matching records, newest first. Must be called
// with at least a read lock held.
func (s *MemoryStore) collect(match func(*verification.Record) bool) []*verification.Record {
	var out []*verification.Record
	for _, r := range s.records {
		if match(r) {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneRecord(r *verification.Record) *verification.Record {
	clone := *r
	clone.AuditLog = append([]verification.AuditEntry(nil), r.AuditLog...)
	clone.ComplianceFlags = append([]string(nil), r.ComplianceFlags...)
	if r.VerifiedData != nil {
		data := *r.VerifiedData
		clone.VerifiedData = &data
	}
	return &clone
}
