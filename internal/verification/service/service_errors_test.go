package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"praman/internal/platform/config"
	"praman/internal/provider"
	"praman/internal/provider/cashfree"
	providermocks "praman/internal/provider/mocks"
	"praman/internal/verification"
	"praman/internal/verification/metrics"
	storemocks "praman/internal/verification/store/mocks"
	dErrors "praman/pkg/domain-errors"
	"praman/pkg/platform/sentinel"
)

// Mock-backed tests cover failure paths the sandbox cannot produce: infra
// errors from the store and classified upstream failures, with exact call
// counts on both ports.

func newMockedService(t *testing.T, st *storemocks.MockStore, otp *providermocks.MockOTPProvider) *Service {
	t.Helper()
	cfg := config.Config{
		OTPTTL:         config.DefaultOTPTTL,
		MaxOTPAttempts: config.DefaultMaxOTPAttempts,
		ResendCooldown: config.DefaultResendCooldown,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(st, otp, nil, metrics.NewWith(prometheus.NewRegistry()), logger, cfg)
	require.NoError(t, err)
	return svc
}

func TestInitiateStoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := storemocks.NewMockStore(ctrl)
	otp := providermocks.NewMockOTPProvider(ctrl)
	svc := newMockedService(t, st, otp)

	st.EXPECT().
		FindVerified(gomock.Any(), testUser, verification.TypeAadhaar).
		Return(nil, errors.New("connection reset"))

	_, err := svc.Initiate(context.Background(), testUser, cashfree.SandboxAadhaar, testConsent())
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
}

func TestInitiateAuthFailureIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := storemocks.NewMockStore(ctrl)
	otp := providermocks.NewMockOTPProvider(ctrl)
	svc := newMockedService(t, st, otp)

	st.EXPECT().
		FindVerified(gomock.Any(), testUser, verification.TypeAadhaar).
		Return(nil, sentinel.ErrNotFound)
	// Credential failures are permanent: exactly one upstream call, and
	// nothing is persisted.
	otp.EXPECT().
		GenerateOTP(gomock.Any(), cashfree.SandboxAadhaar).
		Return(nil, provider.NewError(provider.ErrorAuthentication, provider.NameCashfree, "invalid client secret", nil)).
		Times(1)

	_, err := svc.Initiate(context.Background(), testUser, cashfree.SandboxAadhaar, testConsent())
	assert.True(t, dErrors.Is(err, dErrors.CodeAuthentication))
}

func TestVerifyTimeoutSpendsClaimedAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := storemocks.NewMockStore(ctrl)
	otp := providermocks.NewMockOTPProvider(ctrl)
	svc := newMockedService(t, st, otp)

	now := time.Now()
	expires := now.Add(config.DefaultOTPTTL)
	record := verification.NewRecord(testUser, verification.TypeAadhaar, "cashfree", now)
	record.Status = verification.StatusOTPSent
	record.RefID = "100200300"
	record.OTPSentAt = &now
	record.OTPExpiresAt = &expires
	record.Version = 1

	st.EXPECT().
		FindByRefID(gomock.Any(), testUser, "100200300").
		Return(record, nil)
	// The attempt is claimed before the upstream call.
	st.EXPECT().
		Update(gomock.Any(), gomock.AssignableToTypeOf(record)).
		DoAndReturn(func(_ context.Context, r *verification.Record) error {
			assert.Equal(t, 1, r.OTPAttempts)
			return nil
		})
	// Timeouts are retryable; the verify budget allows two calls.
	otp.EXPECT().
		VerifyOTP(gomock.Any(), "100200300", "123456").
		Return(nil, provider.NewError(provider.ErrorTimeout, provider.NameCashfree, "deadline exceeded", nil)).
		Times(2)

	_, err := svc.VerifyOTP(context.Background(), testUser, "100200300", "123456")
	assert.True(t, dErrors.Is(err, dErrors.CodeTimeout))
}
