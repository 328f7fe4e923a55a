package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praman/internal/platform/config"
	"praman/internal/provider"
	"praman/internal/provider/cashfree"
	"praman/internal/verification"
	"praman/internal/verification/metrics"
	"praman/internal/verification/store"
	dErrors "praman/pkg/domain-errors"
)

const testUser = "user-42"

// countingProvider wraps the sandbox so tests can assert whether a call
// reached the upstream at all.
type countingProvider struct {
	provider.OTPProvider
	mu          sync.Mutex
	verifyCalls int
}

func (p *countingProvider) VerifyOTP(ctx context.Context, refID, otp string) (*provider.Result, error) {
	p.mu.Lock()
	p.verifyCalls++
	p.mu.Unlock()
	return p.OTPProvider.VerifyOTP(ctx, refID, otp)
}

func (p *countingProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verifyCalls
}

type fixture struct {
	service  *Service
	store    *store.MemoryStore
	provider *countingProvider
	now      time.Time
	mu       sync.Mutex
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    store.NewMemoryStore(),
		provider: &countingProvider{OTPProvider: cashfree.NewSandbox()},
		now:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg := config.Config{
		OTPTTL:         config.DefaultOTPTTL,
		MaxOTPAttempts: config.DefaultMaxOTPAttempts,
		ResendCooldown: config.DefaultResendCooldown,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(f.store, f.provider, nil, metrics.NewWith(prometheus.NewRegistry()), logger, cfg, WithClock(func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}))
	require.NoError(t, err)
	f.service = svc
	return f
}

func testConsent() verification.Consent {
	return verification.Consent{Given: true, Timestamp: time.Now(), IP: "203.0.113.7"}
}

func TestInitiateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Initiate(ctx, "", cashfree.SandboxAadhaar, testConsent())
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))

	_, err = f.service.Initiate(ctx, testUser, "12345", testConsent())
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidAadhaar))

	_, err = f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, verification.Consent{})
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestInitiateHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)
	assert.NotEmpty(t, result.RefID)
	assert.Equal(t, "XXXX XXXX 3712", result.MaskedAadhaar)
	assert.Equal(t, cashfree.SandboxOTP, result.TestOTP)

	record, err := f.store.FindLatest(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusOTPSent, record.Status)
	assert.Equal(t, 0, record.OTPAttempts)
	assert.Equal(t, "XXXX XXXX 3712", record.MaskedID)
	require.NotNil(t, record.OTPExpiresAt)
	assert.Equal(t, f.now.Add(config.DefaultOTPTTL), *record.OTPExpiresAt)
	require.Len(t, record.AuditLog, 1)
	assert.Equal(t, verification.ActionInitiated, record.AuditLog[0].Action)
}

func TestVerifyOTPHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	result, err := f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	require.NoError(t, err)
	assert.Equal(t, string(verification.StatusVerified), result.Status)
	require.NotNil(t, result.VerifiedData)
	assert.Equal(t, "Test Holder", result.VerifiedData.Name)

	record, err := f.store.FindVerified(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	assert.Equal(t, 0, record.OTPAttempts)
	require.NotNil(t, record.VerifiedAt)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, "000111")
	assert.True(t, dErrors.Is(err, dErrors.CodeOTPInvalid))

	record, err := f.store.FindLatest(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusOTPSent, record.Status)
	assert.Equal(t, 1, record.OTPAttempts)

	// Correct OTP still succeeds within budget.
	result, err := f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	require.NoError(t, err)
	assert.Equal(t, string(verification.StatusVerified), result.Status)
}

func TestVerifyOTPExhaustsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, "000111")
		assert.True(t, dErrors.Is(err, dErrors.CodeOTPInvalid))
	}

	// Third wrong attempt exhausts the budget and fails the record.
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, "000111")
	assert.True(t, dErrors.Is(err, dErrors.CodeOTPAttemptsExceeded))

	record, err := f.store.FindLatest(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusFailed, record.Status)

	// A fourth attempt is rejected without reaching the provider, even with
	// the correct OTP.
	before := f.provider.calls()
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	assert.True(t, dErrors.Is(err, dErrors.CodeOTPAttemptsExceeded))
	assert.Equal(t, before, f.provider.calls())
}

func TestVerifyOTPExpiredBeatsCorrectOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	f.advance(config.DefaultOTPTTL + time.Second)

	before := f.provider.calls()
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	assert.True(t, dErrors.Is(err, dErrors.CodeOTPExpired))
	assert.Equal(t, before, f.provider.calls())

	record, err := f.store.FindLatest(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusExpired, record.Status)
}

func TestVerifyOTPUnknownRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.VerifyOTP(ctx, testUser, "999999", "111000")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestVerifyOTPAlreadyVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	require.NoError(t, err)

	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	assert.True(t, dErrors.Is(err, dErrors.CodeAlreadyVerified))

	_, err = f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	assert.True(t, dErrors.Is(err, dErrors.CodeAlreadyVerified))
}

func TestResendCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	_, err = f.service.Resend(ctx, testUser, initiated.RefID)
	require.True(t, dErrors.Is(err, dErrors.CodeResendCooldown))
	assert.Greater(t, dErrors.RetryAfterOf(err), 0)
	assert.LessOrEqual(t, dErrors.RetryAfterOf(err), int(config.DefaultResendCooldown.Seconds())+1)
}

func TestResendRotatesReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	// Spend an attempt so the reset is observable.
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, "000111")
	require.True(t, dErrors.Is(err, dErrors.CodeOTPInvalid))

	f.advance(config.DefaultResendCooldown + time.Second)

	resent, err := f.service.Resend(ctx, testUser, initiated.RefID)
	require.NoError(t, err)
	assert.NotEqual(t, initiated.RefID, resent.RefID)

	record, err := f.store.FindByRefID(ctx, testUser, resent.RefID)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusOTPSent, record.Status)
	assert.Equal(t, 0, record.OTPAttempts)

	// The old reference no longer resolves.
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	// The new one verifies.
	result, err := f.service.VerifyOTP(ctx, testUser, resent.RefID, cashfree.SandboxOTP)
	require.NoError(t, err)
	assert.Equal(t, string(verification.StatusVerified), result.Status)
}

// contendedStore loses the next conditional write to a simulated concurrent
// writer bumping the row version out of band.
type contendedStore struct {
	store.Store
	conflictNext bool
}

func (c *contendedStore) Update(ctx context.Context, record *verification.Record) error {
	if c.conflictNext {
		c.conflictNext = false
		if fresh, err := c.Store.FindByID(ctx, record.ID); err == nil {
			_ = c.Store.Update(ctx, fresh)
		}
	}
	return c.Store.Update(ctx, record)
}

func TestResendSurvivesConcurrentWrite(t *testing.T) {
	mem := store.NewMemoryStore()
	contended := &contendedStore{Store: mem}
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	cfg := config.Config{
		OTPTTL:         config.DefaultOTPTTL,
		MaxOTPAttempts: config.DefaultMaxOTPAttempts,
		ResendCooldown: config.DefaultResendCooldown,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(contended, cashfree.NewSandbox(), nil, metrics.NewWith(prometheus.NewRegistry()), logger, cfg,
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	initiated, err := svc.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	now = now.Add(config.DefaultResendCooldown + time.Second)

	// The resend rotates the ref before persisting; the lost write must be
	// reconciled by record ID, since the store still holds the old ref.
	contended.conflictNext = true
	resent, err := svc.Resend(ctx, testUser, initiated.RefID)
	require.NoError(t, err)
	assert.NotEqual(t, initiated.RefID, resent.RefID)

	record, err := mem.FindByRefID(ctx, testUser, resent.RefID)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusOTPSent, record.Status)
}

func TestResendWithoutSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Resend(ctx, testUser, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.service.Status(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, string(verification.StatusNotInitiated), status.Status)
	assert.False(t, status.Verified)
	assert.Equal(t, config.DefaultMaxOTPAttempts, status.AttemptsRemaining)

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)

	status, err = f.service.Status(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, string(verification.StatusOTPSent), status.Status)

	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	require.NoError(t, err)

	// Status is a pure read: asking twice changes nothing.
	for i := 0; i < 2; i++ {
		status, err = f.service.Status(ctx, testUser)
		require.NoError(t, err)
		assert.True(t, status.Verified)
		assert.NotNil(t, status.VerifiedAt)
	}
}

type staticSigner struct{ token string }

func (s staticSigner) Sign(string, string, string, time.Time) (string, error) {
	return s.token, nil
}

func TestBadge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	badge, err := f.service.Badge(ctx, testUser, staticSigner{token: "tok"})
	require.NoError(t, err)
	assert.False(t, badge.IsVerified)
	assert.Nil(t, badge.Badge)

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)
	_, err = f.service.VerifyOTP(ctx, testUser, initiated.RefID, cashfree.SandboxOTP)
	require.NoError(t, err)

	badge, err = f.service.Badge(ctx, testUser, staticSigner{token: "tok"})
	require.NoError(t, err)
	assert.True(t, badge.IsVerified)
	require.NotNil(t, badge.Badge)
	assert.Equal(t, "XXXX XXXX 3712", badge.Badge.MaskedID)
	assert.Equal(t, "tok", badge.Badge.Token)
}

func TestReinitiateAfterFailureResetsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiated, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _ = f.service.VerifyOTP(ctx, testUser, initiated.RefID, "000111")
	}
	record, err := f.store.FindLatest(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	require.Equal(t, verification.StatusFailed, record.Status)

	restarted, err := f.service.Initiate(ctx, testUser, cashfree.SandboxAadhaar, testConsent())
	require.NoError(t, err)
	assert.NotEqual(t, initiated.RefID, restarted.RefID)

	record, err = f.store.FindLatest(ctx, testUser, verification.TypeAadhaar)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusOTPSent, record.Status)
	assert.Equal(t, 0, record.OTPAttempts)
	assert.Empty(t, record.FailureReason)
}
