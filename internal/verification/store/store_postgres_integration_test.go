//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"praman/internal/verification"
	"praman/internal/verification/store"
	"praman/pkg/platform/sentinel"
	"praman/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "verification_records"))
}

func (s *PostgresStoreSuite) newRecord(userID string) *verification.Record {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := verification.NewRecord(userID, verification.TypeAadhaar, "sandbox", now)
	record.Status = verification.StatusOTPSent
	record.RefID = "100200300"
	record.MaskedID = "XXXX XXXX 3712"
	sent := now
	expires := now.Add(10 * time.Minute)
	record.OTPSentAt = &sent
	record.OTPExpiresAt = &expires
	record.Consent = verification.Consent{Given: true, Timestamp: now, IP: "203.0.113.7"}
	record.AppendAudit(verification.ActionInitiated, userID, "203.0.113.7", now, nil)
	return record
}

func (s *PostgresStoreSuite) TestCreateAndRoundTrip() {
	ctx := context.Background()
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(ctx, record))

	found, err := s.store.FindLatest(ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)
	s.Equal(verification.StatusOTPSent, found.Status)
	s.Equal("XXXX XXXX 3712", found.MaskedID)
	s.Equal(int64(1), found.Version)
	s.True(found.Consent.Given)
	s.Require().Len(found.AuditLog, 1)
	s.Equal(verification.ActionInitiated, found.AuditLog[0].Action)
	s.Require().NotNil(found.OTPExpiresAt)
	s.WithinDuration(*record.OTPExpiresAt, *found.OTPExpiresAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestUpdatePersistsTransition() {
	ctx := context.Background()
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(ctx, record))

	now := time.Now().UTC()
	record.Status = verification.StatusVerified
	record.VerifiedAt = &now
	record.VerifiedData = &verification.VerifiedData{Name: "Test Holder", YearOfBirth: "1990"}
	record.AppendAudit(verification.ActionVerified, "user-1", "", now, nil)
	record.UpdatedAt = now
	s.Require().NoError(s.store.Update(ctx, record))
	s.Equal(int64(2), record.Version)

	found, err := s.store.FindVerified(ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Require().NotNil(found.VerifiedData)
	s.Equal("Test Holder", found.VerifiedData.Name)
	s.Len(found.AuditLog, 2)
}

func (s *PostgresStoreSuite) TestUpdateConflictOnStaleVersion() {
	ctx := context.Background()
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(ctx, record))

	stale, err := s.store.FindLatest(ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)

	record.OTPAttempts = 1
	s.Require().NoError(s.store.Update(ctx, record))

	stale.OTPAttempts = 1
	s.ErrorIs(s.store.Update(ctx, stale), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateMissingRecord() {
	record := s.newRecord("user-1")
	record.Version = 1
	s.ErrorIs(s.store.Update(context.Background(), record), sentinel.ErrNotFound)
}

// TestConcurrentAttemptIncrements verifies the version condition admits
// exactly one writer per version.
func (s *PostgresStoreSuite) TestConcurrentAttemptIncrements() {
	ctx := context.Background()
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(ctx, record))

	const goroutines = 20
	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.store.FindLatest(ctx, "user-1", verification.TypeAadhaar)
			if err != nil {
				return
			}
			r.OTPAttempts++
			switch err := s.store.Update(ctx, r); err {
			case nil:
				successes.Add(1)
			case sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(goroutines), successes.Load()+conflicts.Load())
	found, err := s.store.FindLatest(ctx, "user-1", verification.TypeAadhaar)
	s.Require().NoError(err)
	s.Equal(int(successes.Load()), found.OTPAttempts)
}

func (s *PostgresStoreSuite) TestListStaleOTPSent() {
	ctx := context.Background()

	stale := s.newRecord("user-1")
	past := time.Now().UTC().Add(-time.Minute)
	stale.OTPExpiresAt = &past
	s.Require().NoError(s.store.Create(ctx, stale))

	fresh := s.newRecord("user-2")
	s.Require().NoError(s.store.Create(ctx, fresh))

	got, err := s.store.ListStaleOTPSent(ctx, time.Now().UTC(), 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(stale.ID, got[0].ID)
}

func (s *PostgresStoreSuite) TestFindByID() {
	ctx := context.Background()
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(ctx, record))

	found, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.RefID, found.RefID)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindByRefIDScopedToUser() {
	ctx := context.Background()
	record := s.newRecord("user-1")
	s.Require().NoError(s.store.Create(ctx, record))

	_, err := s.store.FindByRefID(ctx, "user-2", record.RefID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
