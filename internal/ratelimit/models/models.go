package models

import (
	"strings"
	"time"
)

// Operation categorizes verification endpoints for differentiated limits.
type Operation string

const (
	// OpOTPGenerate: OTP generation (3 per hour per user).
	OpOTPGenerate Operation = "otp_generate"
	// OpOTPResend: OTP resend (5 per hour per user).
	OpOTPResend Operation = "otp_resend"
	// OpOTPVerify: OTP verification (10 per 15 minutes per user).
	OpOTPVerify Operation = "otp_verify"
	// OpGlobal: all verification endpoints (100 per 15 minutes per IP).
	OpGlobal Operation = "global"
)

// IsValid checks if the operation is one of the supported enum values.
func (o Operation) IsValid() bool {
	switch o {
	case OpOTPGenerate, OpOTPResend, OpOTPVerify, OpGlobal:
		return true
	}
	return false
}

// Limit is one sliding-window quota.
type Limit struct {
	Max    int
	Window time.Duration
}

// DefaultLimits returns the verification quotas. Keys are operations; global
// is always keyed by IP, the rest by user identity falling back to IP.
func DefaultLimits() map[Operation]Limit {
	return map[Operation]Limit{
		OpOTPGenerate: {Max: 3, Window: time.Hour},
		OpOTPResend:   {Max: 5, Window: time.Hour},
		OpOTPVerify:   {Max: 10, Window: 15 * time.Minute},
		OpGlobal:      {Max: 100, Window: 15 * time.Minute},
	}
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers
// containing ':' could manipulate adjacent rate limit buckets.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds the bucket key for an operation and identity.
func Key(op Operation, kind, identity string) string {
	return "rl:" + string(op) + ":" + kind + ":" + SanitizeKeySegment(identity)
}
