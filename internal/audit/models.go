// Package audit captures structured service-level audit events. This is the
// cross-cutting trail (who called what, from where); the per-record lifecycle
// trail lives on the verification record itself.
package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	IP        string    `json:"ip,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

// Actions recorded by the verification flows.
const (
	ActionVerificationInitiated = "verification.initiated"
	ActionOTPVerifyAttempt      = "verification.otp_attempt"
	ActionOTPResent             = "verification.otp_resent"
	ActionVerificationCompleted = "verification.completed"
	ActionVerificationFailed    = "verification.failed"
	ActionVerificationExpired   = "verification.expired"
)

// Store is the append-only persistence contract for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
