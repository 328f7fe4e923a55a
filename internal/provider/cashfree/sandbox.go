package cashfree

import (
	"context"
	"fmt"
	"sync"
	"time"

	"praman/internal/provider"
)

// Fixed sandbox test data, matching the vendor's documented sandbox fixtures.
const (
	SandboxAadhaar = "655675523712"
	SandboxOTP     = "111000"
)

// Sandbox is a deterministic in-process stand-in for the vendor sandbox.
// It accepts only the fixed test Aadhaar number and the fixed test OTP, and
// tracks issued references so stale refs stop validating after a resend.
type Sandbox struct {
	mu       sync.Mutex
	sessions map[string]string // refID -> aadhaar number
	seq      int64
}

// NewSandbox constructs the in-process sandbox provider.
func NewSandbox() *Sandbox {
	return &Sandbox{sessions: make(map[string]string)}
}

// Name identifies the variant for persistence and logging.
func (s *Sandbox) Name() provider.Name { return provider.NameSandbox }

// GenerateOTP issues a fresh reference for the fixed test number.
func (s *Sandbox) GenerateOTP(_ context.Context, aadhaarNumber string) (*provider.Result, error) {
	if aadhaarNumber != SandboxAadhaar {
		return nil, provider.NewError(provider.ErrorBadInput, s.Name(), "aadhaar number not registered in sandbox", nil)
	}
	refID := s.issueRef(aadhaarNumber)
	return &provider.Result{
		Success: true,
		RefID:   refID,
		Status:  "SUCCESS",
		Message: "OTP sent to registered mobile",
		TestOTP: SandboxOTP,
	}, nil
}

// VerifyOTP accepts only the fixed test OTP against a live reference.
func (s *Sandbox) VerifyOTP(_ context.Context, refID, otp string) (*provider.Result, error) {
	s.mu.Lock()
	_, live := s.sessions[refID]
	s.mu.Unlock()
	if !live {
		return nil, provider.NewError(provider.ErrorNotFound, s.Name(), "unknown or stale ref_id", nil)
	}
	if otp != SandboxOTP {
		return &provider.Result{
			Success: false,
			RefID:   refID,
			Status:  "INVALID",
			Message: "OTP did not match",
		}, nil
	}
	return &provider.Result{
		Success: true,
		RefID:   refID,
		Status:  "VALID",
		Message: "Aadhaar verified",
		Data: &provider.KYCData{
			Name:        "Test Holder",
			YearOfBirth: "1990",
			Gender:      "M",
			Address:     "Test District, Test State",
		},
	}, nil
}

// ResendOTP rotates the reference; the previous one stops validating.
func (s *Sandbox) ResendOTP(_ context.Context, aadhaarNumber, refID string) (*provider.Result, error) {
	s.mu.Lock()
	number, live := s.sessions[refID]
	if live {
		delete(s.sessions, refID)
	}
	s.mu.Unlock()

	if !live {
		if aadhaarNumber != SandboxAadhaar {
			return nil, provider.NewError(provider.ErrorNotFound, s.Name(), "unknown ref_id", nil)
		}
		number = aadhaarNumber
	}
	newRef := s.issueRef(number)
	return &provider.Result{
		Success: true,
		RefID:   newRef,
		Status:  "SUCCESS",
		Message: "OTP resent to registered mobile",
		TestOTP: SandboxOTP,
	}, nil
}

// Health always succeeds; the sandbox is in-process.
func (s *Sandbox) Health(context.Context) error { return nil }

func (s *Sandbox) issueRef(aadhaarNumber string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	refID := fmt.Sprintf("%d%03d", time.Now().Unix(), s.seq%1000)
	s.sessions[refID] = aadhaarNumber
	return refID
}
