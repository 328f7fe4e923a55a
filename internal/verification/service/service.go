// Package service orchestrates the OTP verification lifecycle: it validates
// input, checks record state, invokes the provider through the retry
// executor, applies the attempt policy, and persists transitions. Status only
// moves forward; every transition appends one audit entry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"praman/internal/audit"
	"praman/internal/platform/config"
	"praman/internal/provider"
	"praman/internal/retry"
	"praman/internal/verification"
	"praman/internal/verification/metrics"
	"praman/internal/verification/store"
	dErrors "praman/pkg/domain-errors"
	"praman/pkg/platform/sentinel"
)

// conflictRetries bounds how often a conditional write is retried after
// losing to a concurrent writer before giving up.
const conflictRetries = 3

const actorSystem = "system"

// Service runs the verification state machine.
type Service struct {
	store   store.Store
	otp     provider.OTPProvider
	audits  *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger

	otpTTL         time.Duration
	maxAttempts    int
	resendCooldown time.Duration

	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the verification service. All dependencies are injected once
// at startup; there is no lazy initialization to check per call.
func New(st store.Store, otp provider.OTPProvider, audits *audit.Publisher, m *metrics.Metrics, logger *slog.Logger, cfg config.Config, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if otp == nil {
		return nil, fmt.Errorf("otp provider is required")
	}
	s := &Service{
		store:          st,
		otp:            otp,
		audits:         audits,
		metrics:        m,
		logger:         logger,
		otpTTL:         cfg.OTPTTL,
		maxAttempts:    cfg.MaxOTPAttempts,
		resendCooldown: cfg.ResendCooldown,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// InitiateResult is returned to the caller after OTP generation.
type InitiateResult struct {
	RefID         string `json:"refId"`
	MaskedAadhaar string `json:"maskedAadhaar"`
	// TestOTP is present only in sandbox mode.
	TestOTP string `json:"testOtp,omitempty"`
}

// Initiate starts (or restarts) an Aadhaar verification for the user. The
// identifier must be 12 numeric digits and consent must be affirmed before
// any upstream call. An already verified user cannot re-initiate.
func (s *Service) Initiate(ctx context.Context, userID, aadhaarNumber string, consent verification.Consent) (*InitiateResult, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if !verification.IsValidAadhaarFormat(aadhaarNumber) {
		return nil, dErrors.New(dErrors.CodeInvalidAadhaar, "aadhaar number must be exactly 12 digits")
	}
	if !consent.Given {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "explicit consent is required before verification")
	}

	if _, err := s.store.FindVerified(ctx, userID, verification.TypeAadhaar); err == nil {
		return nil, dErrors.New(dErrors.CodeAlreadyVerified, "aadhaar is already verified for this user")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check verification state")
	}

	result, err := retry.Do(ctx, retry.GenerateOTP, func(ctx context.Context) (*provider.Result, error) {
		return s.otp.GenerateOTP(ctx, aadhaarNumber)
	})
	if err != nil {
		// No state is persisted on upstream failure; whatever record existed
		// before stays as it was.
		return nil, provider.ToDomain(err)
	}

	now := s.now()
	refID := verification.NormalizeRefID(result.RefID)
	masked := verification.MaskAadhaar(aadhaarNumber)

	record, err := s.store.FindLatest(ctx, userID, verification.TypeAadhaar)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		record = verification.NewRecord(userID, verification.TypeAadhaar, string(s.otp.Name()), now)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load verification record")
	}

	expires := now.Add(s.otpTTL)
	record.Status = verification.StatusOTPSent
	record.Provider = string(s.otp.Name())
	record.RefID = refID
	record.MaskedID = masked
	record.OTPSentAt = &now
	record.OTPExpiresAt = &expires
	record.OTPAttempts = 0
	record.Consent = consent
	record.VerifiedData = nil
	record.VerifiedAt = nil
	record.FailureReason = ""
	record.UpdatedAt = now
	record.AppendAudit(verification.ActionInitiated, userID, consent.IP, now, map[string]string{
		"refId":    refID,
		"maskedId": masked,
	})

	if record.Version == 0 {
		err = s.store.Create(ctx, record)
	} else {
		err = s.store.Update(ctx, record)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist verification record")
	}

	s.metrics.Initiated.Inc()
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionVerificationInitiated,
		Subject: masked,
		Outcome: "otp_sent",
		IP:      consent.IP,
	})

	return &InitiateResult{
		RefID:         refID,
		MaskedAadhaar: masked,
		TestOTP:       result.TestOTP,
	}, nil
}

// VerifyResult is returned to the caller after a successful verification.
type VerifyResult struct {
	Status        string                     `json:"status"`
	MaskedAadhaar string                     `json:"maskedAadhaar"`
	VerifiedData  *verification.VerifiedData `json:"verifiedData,omitempty"`
}

// VerifyOTP submits the user's OTP for the given reference. The attempt
// counter is incremented with a conditional write before the upstream call so
// two racing requests cannot share an attempt; a successful verification
// resets it.
func (s *Service) VerifyOTP(ctx context.Context, userID, refID, otp string) (*VerifyResult, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	refID = verification.NormalizeRefID(refID)
	if refID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "refId is required")
	}
	if !verification.IsValidOTPFormat(otp) {
		return nil, dErrors.New(dErrors.CodeOTPInvalid, "otp must be exactly 6 digits")
	}

	record, err := s.claimAttempt(ctx, userID, refID)
	if err != nil {
		return nil, err
	}

	result, callErr := retry.Do(ctx, retry.VerifyOTP, func(ctx context.Context) (*provider.Result, error) {
		return s.otp.VerifyOTP(ctx, refID, otp)
	})

	if callErr == nil && result.Success {
		if err := s.markVerified(ctx, record, result); err != nil {
			return nil, err
		}
		s.metrics.Verified.Inc()
		s.emit(ctx, audit.Event{
			UserID:  userID,
			Action:  audit.ActionVerificationCompleted,
			Subject: record.MaskedID,
			Outcome: string(verification.StatusVerified),
		})
		return &VerifyResult{
			Status:        string(verification.StatusVerified),
			MaskedAadhaar: record.MaskedID,
			VerifiedData:  record.VerifiedData,
		}, nil
	}

	// The attempt is already spent. Decide whether this failure exhausts the
	// budget before surfacing the cause.
	exhausted := record.OTPAttempts >= s.maxAttempts
	if exhausted {
		s.forceFailed(ctx, record, "otp attempts exhausted")
	}

	if callErr != nil {
		if exhausted {
			return nil, dErrors.New(dErrors.CodeOTPAttemptsExceeded, "maximum otp attempts exceeded")
		}
		return nil, provider.ToDomain(callErr)
	}

	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionOTPVerifyAttempt,
		Subject: record.MaskedID,
		Outcome: "otp_mismatch",
	})
	if exhausted {
		return nil, dErrors.New(dErrors.CodeOTPAttemptsExceeded, "maximum otp attempts exceeded")
	}
	return nil, dErrors.Newf(dErrors.CodeOTPInvalid, "incorrect otp, %d attempt(s) remaining", record.AttemptsRemaining(s.maxAttempts))
}

// claimAttempt loads the record for (userID, refID), enforces the state
// preconditions, and spends one attempt with a conditional write. Losing the
// write to a concurrent verify re-runs the preconditions against the fresh
// record, so the ceiling holds under races.
func (s *Service) claimAttempt(ctx context.Context, userID, refID string) (*verification.Record, error) {
	for i := 0; ; i++ {
		record, err := s.store.FindByRefID(ctx, userID, refID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification session found for this refId")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load verification record")
		}

		now := s.now()
		switch record.Status {
		case verification.StatusVerified:
			return nil, dErrors.New(dErrors.CodeAlreadyVerified, "aadhaar is already verified for this user")
		case verification.StatusOTPSent:
			// proceed
		case verification.StatusFailed:
			if record.OTPAttempts >= s.maxAttempts {
				return nil, dErrors.New(dErrors.CodeOTPAttemptsExceeded, "maximum otp attempts exceeded")
			}
			return nil, dErrors.New(dErrors.CodeNotFound, "verification session is no longer active")
		default:
			return nil, dErrors.New(dErrors.CodeNotFound, "verification session is no longer active")
		}

		if record.OTPExpired(now) {
			s.markExpired(ctx, record)
			return nil, dErrors.New(dErrors.CodeOTPExpired, "otp has expired, please request a new one")
		}
		if record.OTPAttempts >= s.maxAttempts {
			// Rejected before any upstream contact.
			s.forceFailed(ctx, record, "otp attempts exhausted")
			return nil, dErrors.New(dErrors.CodeOTPAttemptsExceeded, "maximum otp attempts exceeded")
		}

		record.OTPAttempts++
		record.UpdatedAt = now
		record.AppendAudit(verification.ActionOTPAttempt, userID, "", now, map[string]string{
			"attempt": fmt.Sprintf("%d", record.OTPAttempts),
		})

		err = s.store.Update(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist attempt")
		}
		s.metrics.AttemptConflicts.Inc()
		if i >= conflictRetries {
			return nil, dErrors.New(dErrors.CodeInternal, "verification record is contended, try again")
		}
	}
}

// markVerified transitions the claimed record to verified.
func (s *Service) markVerified(ctx context.Context, record *verification.Record, result *provider.Result) error {
	now := s.now()
	record.Status = verification.StatusVerified
	record.OTPAttempts = 0
	record.VerifiedAt = &now
	record.UpdatedAt = now
	if result.Data != nil {
		record.VerifiedData = &verification.VerifiedData{
			Name:        result.Data.Name,
			YearOfBirth: result.Data.YearOfBirth,
			Gender:      result.Data.Gender,
			Address:     result.Data.Address,
			CareOf:      result.Data.CareOf,
		}
	}
	record.AppendAudit(verification.ActionVerified, record.UserID, "", now, nil)

	if err := s.updateWithConflictRetry(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not persist verification result")
	}
	return nil
}

// forceFailed transitions a record to terminal failed. Best effort: the
// caller's error is already decided.
func (s *Service) forceFailed(ctx context.Context, record *verification.Record, reason string) {
	if record.Status.IsTerminal() {
		return
	}
	now := s.now()
	record.Status = verification.StatusFailed
	record.FailureReason = reason
	record.UpdatedAt = now
	record.AppendAudit(verification.ActionFailed, actorSystem, "", now, map[string]string{"reason": reason})

	if err := s.updateWithConflictRetry(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "could not mark record failed", "error", err, "record_id", record.ID)
		return
	}
	s.metrics.Failed.WithLabelValues(reason).Inc()
	s.emit(ctx, audit.Event{
		UserID:  record.UserID,
		Action:  audit.ActionVerificationFailed,
		Subject: record.MaskedID,
		Outcome: string(verification.StatusFailed),
		Reason:  reason,
	})
}

// markExpired lazily transitions a stale otp_sent record. Best effort.
func (s *Service) markExpired(ctx context.Context, record *verification.Record) {
	now := s.now()
	record.Status = verification.StatusExpired
	record.UpdatedAt = now
	record.AppendAudit(verification.ActionExpired, actorSystem, "", now, nil)

	if err := s.updateWithConflictRetry(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "could not mark record expired", "error", err, "record_id", record.ID)
		return
	}
	s.emit(ctx, audit.Event{
		UserID:  record.UserID,
		Action:  audit.ActionVerificationExpired,
		Subject: record.MaskedID,
		Outcome: string(verification.StatusExpired),
	})
}

// ResendResult is returned after a successful resend.
type ResendResult struct {
	RefID string `json:"refId"`
}

// Resend re-triggers OTP delivery for the user's active session, enforcing
// the cooldown window. The reference rotates; the previous one stops
// validating.
func (s *Service) Resend(ctx context.Context, userID, refID string) (*ResendResult, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	var record *verification.Record
	var err error
	if refID = verification.NormalizeRefID(refID); refID != "" {
		record, err = s.store.FindByRefID(ctx, userID, refID)
	} else {
		record, err = s.store.FindLatest(ctx, userID, verification.TypeAadhaar)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no verification session found to resend")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load verification record")
	}

	if record.Status == verification.StatusVerified {
		return nil, dErrors.New(dErrors.CodeAlreadyVerified, "aadhaar is already verified for this user")
	}
	if record.Status != verification.StatusOTPSent {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification session is no longer active")
	}

	now := s.now()
	if wait := record.ResendAvailableIn(now, s.resendCooldown); wait > 0 {
		retryAfter := int(wait.Seconds()) + 1
		return nil, dErrors.New(dErrors.CodeResendCooldown, "please wait before requesting another otp").
			WithRetryAfter(retryAfter)
	}

	result, err := retry.Do(ctx, retry.GenerateOTP, func(ctx context.Context) (*provider.Result, error) {
		return s.otp.ResendOTP(ctx, "", record.RefID)
	})
	if err != nil {
		return nil, provider.ToDomain(err)
	}

	newRef := verification.NormalizeRefID(result.RefID)
	if newRef == "" {
		newRef = record.RefID
	}
	expires := now.Add(s.otpTTL)
	record.RefID = newRef
	record.Status = verification.StatusOTPSent
	record.OTPSentAt = &now
	record.OTPExpiresAt = &expires
	record.OTPAttempts = 0
	record.UpdatedAt = now
	record.AppendAudit(verification.ActionOTPResent, userID, "", now, map[string]string{"refId": newRef})

	if err := s.updateWithConflictRetry(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist resend")
	}

	s.metrics.Resent.Inc()
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionOTPResent,
		Subject: record.MaskedID,
		Outcome: "otp_sent",
	})
	return &ResendResult{RefID: newRef}, nil
}

// StatusResult is the read model for GET /verification/status.
type StatusResult struct {
	Status            string     `json:"status"`
	Verified          bool       `json:"verified"`
	AttemptsRemaining int        `json:"attemptsRemaining"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty"`
}

// Status reports the user's current Aadhaar verification state. Pure read.
func (s *Service) Status(ctx context.Context, userID string) (*StatusResult, error) {
	record, err := s.store.FindLatest(ctx, userID, verification.TypeAadhaar)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &StatusResult{
			Status:            string(verification.StatusNotInitiated),
			AttemptsRemaining: s.maxAttempts,
		}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load verification record")
	}
	return &StatusResult{
		Status:            string(record.Status),
		Verified:          record.Status == verification.StatusVerified,
		AttemptsRemaining: record.AttemptsRemaining(s.maxAttempts),
		VerifiedAt:        record.VerifiedAt,
	}, nil
}

// BadgeResult is the minimal public display badge.
type BadgeResult struct {
	IsVerified bool         `json:"isVerified"`
	Badge      *BadgeDetail `json:"badge"`
}

// BadgeDetail is present only for verified users.
type BadgeDetail struct {
	Type       string     `json:"type"`
	MaskedID   string     `json:"maskedId"`
	VerifiedAt *time.Time `json:"verifiedAt"`
	Token      string     `json:"token,omitempty"`
}

// BadgeSigner abstracts the badge token issuer.
type BadgeSigner interface {
	Sign(userID, verificationType, maskedID string, verifiedAt time.Time) (string, error)
}

// Badge returns the public badge for a user, with a signed assertion when a
// signer is configured. Pure read.
func (s *Service) Badge(ctx context.Context, userID string, signer BadgeSigner) (*BadgeResult, error) {
	record, err := s.store.FindVerified(ctx, userID, verification.TypeAadhaar)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &BadgeResult{IsVerified: false, Badge: nil}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load verification record")
	}

	detail := &BadgeDetail{
		Type:       string(record.Type),
		MaskedID:   record.MaskedID,
		VerifiedAt: record.VerifiedAt,
	}
	if signer != nil && record.VerifiedAt != nil {
		token, err := signer.Sign(userID, string(record.Type), record.MaskedID, *record.VerifiedAt)
		if err != nil {
			s.logger.ErrorContext(ctx, "could not sign badge", "error", err, "user_id", userID)
		} else {
			detail.Token = token
		}
	}
	return &BadgeResult{IsVerified: true, Badge: detail}, nil
}

// updateWithConflictRetry re-reads and reapplies terminal transitions that
// lose a conditional write. Terminal states win over anything a concurrent
// writer did except another terminal state. The re-read is by record ID: the
// in-memory record may already carry a rotated ref the store has not seen.
func (s *Service) updateWithConflictRetry(ctx context.Context, record *verification.Record) error {
	var err error
	for i := 0; i <= conflictRetries; i++ {
		err = s.store.Update(ctx, record)
		if err == nil || !errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		fresh, ferr := s.store.FindByID(ctx, record.ID)
		if ferr != nil {
			return err
		}
		if fresh.Status.IsTerminal() {
			// A concurrent writer already finished this record.
			*record = *fresh
			return nil
		}
		record.Version = fresh.Version
	}
	return err
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	s.audits.Emit(ctx, event)
}
