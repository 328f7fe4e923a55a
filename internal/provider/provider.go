// Package provider defines the upstream KYC provider contract. Concrete
// adapters (Cashfree production, the deterministic sandbox) are a fixed set
// of variants constructed once at startup and injected into consumers; there
// is no runtime string dispatch and no initialization flag.
package provider

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks OTPProvider,PANProvider,BankProvider

import "context"

// Name identifies a concrete provider variant.
type Name string

const (
	NameCashfree Name = "cashfree"
	NameSandbox  Name = "sandbox"
)

// Result is the normalized success shape every adapter returns. Vendor
// response formats vary per endpoint; adapters flatten them here so the state
// machine never sees vendor-specific fields.
type Result struct {
	Success bool
	// RefID correlates an OTP generation call with its later verify/resend.
	RefID   string
	Status  string
	Message string
	// Data carries masked/derived PII on successful verification.
	Data *KYCData
	// TestOTP is set only by sandbox adapters so callers can complete the
	// flow without a registered mobile number.
	TestOTP string
}

// KYCData is the masked subset of PII a successful verification yields.
type KYCData struct {
	Name        string
	YearOfBirth string
	Gender      string
	Address     string
	CareOf      string
}

// OTPProvider services the Aadhaar OTP verification flow.
type OTPProvider interface {
	// Name identifies the variant for persistence and logging.
	Name() Name

	// GenerateOTP requests OTP delivery for a 12-digit Aadhaar number and
	// returns a correlation reference.
	GenerateOTP(ctx context.Context, aadhaarNumber string) (*Result, error)

	// VerifyOTP submits the 6-digit code for a previously issued reference.
	VerifyOTP(ctx context.Context, refID, otp string) (*Result, error)

	// ResendOTP re-triggers delivery for an existing reference. The returned
	// RefID may differ from the input; callers must adopt it.
	ResendOTP(ctx context.Context, aadhaarNumber, refID string) (*Result, error)

	// Health reports whether the provider endpoint is reachable.
	Health(ctx context.Context) error
}

// PANProvider verifies PAN numbers. Feature-flagged.
type PANProvider interface {
	VerifyPAN(ctx context.Context, pan, name string) (*Result, error)
}

// BankProvider verifies bank accounts. Feature-flagged.
type BankProvider interface {
	VerifyBankAccount(ctx context.Context, accountNumber, ifsc string) (*Result, error)
}
