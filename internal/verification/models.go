// Package verification holds the verification record domain model: the
// lifecycle states, consent capture, the append-only audit trail, and the
// masking rules ensuring raw identifiers never persist.
package verification

import (
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// Status is the lifecycle state of a verification record. Records only move
// forward: pending → otp_sent → {verified | failed | expired}. A resend keeps
// the record in otp_sent with counters reset.
type Status string

const (
	StatusPending     Status = "pending"
	StatusOTPSent     Status = "otp_sent"
	StatusOTPVerified Status = "otp_verified"
	StatusVerified    Status = "verified"
	StatusFailed      Status = "failed"
	StatusExpired     Status = "expired"

	// StatusNotInitiated is a read-side sentinel for users with no record.
	// It is never persisted.
	StatusNotInitiated Status = "not_initiated"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusExpired
}

// Type is the category of verification a record represents.
type Type string

const (
	TypeAadhaar        Type = "aadhaar"
	TypePAN            Type = "pan"
	TypeBankAccount    Type = "bank_account"
	TypeFaceMatch      Type = "face_match"
	TypeLiveness       Type = "liveness"
	TypeDrivingLicense Type = "driving_license"
	TypeFaceAadhaar    Type = "face_aadhaar"
)

// IsValid checks if the type is one of the supported enum values.
func (t Type) IsValid() bool {
	switch t {
	case TypeAadhaar, TypePAN, TypeBankAccount, TypeFaceMatch,
		TypeLiveness, TypeDrivingLicense, TypeFaceAadhaar:
		return true
	}
	return false
}

// Consent is the structured proof that the user authorized a verification.
// It must be affirmed before any upstream call is made.
type Consent struct {
	Given     bool      `json:"given"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Device    string    `json:"device,omitempty"`
	Text      string    `json:"text,omitempty"`
	Version   string    `json:"version,omitempty"`
}

// NewConsent captures an affirmed consent with requester metadata. The raw
// user agent is kept for audit; Device is a parsed summary for display.
func NewConsent(ip, rawUserAgent, text, version string, now time.Time) Consent {
	c := Consent{
		Given:     true,
		Timestamp: now,
		IP:        ip,
		UserAgent: rawUserAgent,
		Text:      text,
		Version:   version,
	}
	if rawUserAgent != "" {
		ua := useragent.New(rawUserAgent)
		name, ver := ua.Browser()
		c.Device = name + " " + ver + " / " + ua.OS()
	}
	return c
}

// AuditEntry is one line of the per-record append-only trail. Every status
// transition appends exactly one entry.
type AuditEntry struct {
	Action    string            `json:"action"`
	Actor     string            `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
	IP        string            `json:"ip,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Audit actions recorded on transitions.
const (
	ActionInitiated  = "initiated"
	ActionOTPResent  = "otp_resent"
	ActionOTPAttempt = "otp_attempt"
	ActionVerified   = "verified"
	ActionFailed     = "failed"
	ActionExpired    = "expired"
)

// VerifiedData is the masked/derived PII returned by the provider on
// success. The raw identifier is never part of it.
type VerifiedData struct {
	Name        string `json:"name,omitempty"`
	YearOfBirth string `json:"yearOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
	CareOf      string `json:"careOf,omitempty"`
}

// Record is one verification attempt of a given type for a given user.
// Version is the optimistic concurrency token: every write is conditional on
// the version it read, so concurrent attempt counting is exactly-once.
type Record struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"userId"`
	Type     Type      `json:"type"`
	Status   Status    `json:"status"`
	Provider string    `json:"provider"`

	RefID    string `json:"refId,omitempty"`
	MaskedID string `json:"maskedId,omitempty"`

	OTPSentAt    *time.Time `json:"otpSentAt,omitempty"`
	OTPExpiresAt *time.Time `json:"otpExpiresAt,omitempty"`
	OTPAttempts  int        `json:"otpAttempts"`

	Consent      Consent       `json:"consent"`
	VerifiedData *VerifiedData `json:"verifiedData,omitempty"`
	VerifiedAt   *time.Time    `json:"verifiedAt,omitempty"`

	FailureReason string `json:"failureReason,omitempty"`

	// ComplianceFlags are read by the external retention process; this
	// service never hard-deletes records.
	ComplianceFlags []string `json:"complianceFlags,omitempty"`

	AuditLog []AuditEntry `json:"auditLog"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord creates a pending record for a user and type.
func NewRecord(userID string, typ Type, provider string, now time.Time) *Record {
	return &Record{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Status:    StatusPending,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendAudit adds one trail entry. Callers append exactly one entry per
// transition.
func (r *Record) AppendAudit(action, actor, ip string, now time.Time, metadata map[string]string) {
	r.AuditLog = append(r.AuditLog, AuditEntry{
		Action:    action,
		Actor:     actor,
		Timestamp: now,
		IP:        ip,
		Metadata:  metadata,
	})
}

// OTPExpired reports whether the OTP window has elapsed. Records without an
// issued OTP are treated as expired.
func (r *Record) OTPExpired(now time.Time) bool {
	if r.OTPExpiresAt == nil {
		return true
	}
	return now.After(*r.OTPExpiresAt)
}

// ResendAvailableIn returns how long until a resend is permitted, zero when
// the cooldown has passed.
func (r *Record) ResendAvailableIn(now time.Time, cooldown time.Duration) time.Duration {
	if r.OTPSentAt == nil {
		return 0
	}
	remaining := r.OTPSentAt.Add(cooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AttemptsRemaining returns how many OTP attempts are left given the ceiling.
func (r *Record) AttemptsRemaining(max int) int {
	remaining := max - r.OTPAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
