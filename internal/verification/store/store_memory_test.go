package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"praman/internal/verification"
	"praman/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newRecord(userID string) *verification.Record {
	record := verification.NewRecord(userID, verification.TypeAadhaar, "sandbox", s.now)
	record.RefID = "100200300"
	record.MaskedID = "XXXX XXXX 3712"
	return record
}

func (s *MemoryStoreSuite) TestCreateAndFindLatest() {
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, record))
	s.Equal(int64(1), record.Version)

	found, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)

	_, err = s.store.FindLatest(s.ctx, "user-2", verification.TypeAadhaar)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindLatest(s.ctx, "user-1", verification.TypePAN)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindLatestReturnsNewest() {
	older := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, older))

	newer := verification.NewRecord("user-1", verification.TypeAadhaar, "sandbox", s.now.Add(time.Hour))
	newer.RefID = "100200301"
	s.Require().NoError(s.store.Create(s.ctx, newer))

	found, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(newer.ID, found.ID)
}

func (s *MemoryStoreSuite) TestUpdateIncrementsVersion() {
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, record))

	record.Status = verification.StatusOTPSent
	s.Require().NoError(s.store.Update(s.ctx, record))
	s.Equal(int64(2), record.Version)

	found, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(verification.StatusOTPSent, found.Status)
	s.Equal(int64(2), found.Version)
}

func (s *MemoryStoreSuite) TestUpdateConflictOnStaleVersion() {
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, record))

	first, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	second, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)

	first.OTPAttempts = 1
	s.Require().NoError(s.store.Update(s.ctx, first))

	second.OTPAttempts = 1
	s.ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrConflict)

	// Only one increment survives.
	found, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(1, found.OTPAttempts)
}

func (s *MemoryStoreSuite) TestUpdateUnknownRecord() {
	record := s.newRecord("user-1")
	s.ErrorIs(s.store.Update(s.ctx, record), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindByRefID() {
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, record))

	found, err := s.store.FindByRefID(s.ctx, "user-1", "100200300")
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)

	_, err = s.store.FindByRefID(s.ctx, "user-1", "999")
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Another user's reference does not resolve.
	_, err = s.store.FindByRefID(s.ctx, "user-2", "100200300")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindByID() {
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, record))

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.RefID, found.RefID)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindVerified() {
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(s.ctx, record))

	_, err := s.store.FindVerified(s.ctx, "user-1", verification.TypeAadhaar)
	s.ErrorIs(err, sentinel.ErrNotFound)

	record.Status = verification.StatusVerified
	s.Require().NoError(s.store.Update(s.ctx, record))

	found, err := s.store.FindVerified(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(verification.StatusVerified, found.Status)
}

func (s *MemoryStoreSuite) TestListStaleOTPSent() {
	stale := s.newRecord("user-1")
	stale.Status = verification.StatusOTPSent
	expired := s.now.Add(-time.Minute)
	stale.OTPExpiresAt = &expired
	s.Require().NoError(s.store.Create(s.ctx, stale))

	fresh := verification.NewRecord("user-2", verification.TypeAadhaar, "sandbox", s.now)
	fresh.Status = verification.StatusOTPSent
	live := s.now.Add(time.Minute)
	fresh.OTPExpiresAt = &live
	s.Require().NoError(s.store.Create(s.ctx, fresh))

	got, err := s.store.ListStaleOTPSent(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(stale.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestReturnedRecordsAreCopies() {
	record := s.newRecord("user-1")
	record.AuditLog = []verification.AuditEntry{{Action: verification.ActionInitiated}}
	s.Require().NoError(s.store.Create(s.ctx, record))

	found, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	found.Status = verification.StatusFailed
	found.AuditLog[0].Action = "tampered"

	again, err := s.store.FindLatest(s.ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(verification.StatusPending, again.Status)
	s.Equal(verification.ActionInitiated, again.AuditLog[0].Action)
}
