package provider

import (
	"errors"
	"fmt"

	dErrors "praman/pkg/domain-errors"
)

// ErrorCategory is the normalized upstream failure taxonomy. The retry
// executor consults it; only retryable categories consume retry budget.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorNetwork indicates a connection-level failure before any response.
	ErrorNetwork ErrorCategory = "network"

	// ErrorOutage indicates the provider returned a 5xx.
	ErrorOutage ErrorCategory = "provider_outage"

	// ErrorRateLimited indicates the provider returned a 429.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorAuthentication indicates credential or permission issues (401/403).
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorNotFound indicates the referenced session/record doesn't exist.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorBadInput indicates the provider rejected the request (400).
	ErrorBadInput ErrorCategory = "bad_input"

	// ErrorInternal indicates an unexpected adapter-side failure.
	ErrorInternal ErrorCategory = "internal"
)

// Error wraps provider failures with normalized categorization.
type Error struct {
	Category   ErrorCategory
	Provider   Name
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// NewError creates a normalized provider error. Retryability follows from
// the category alone.
func NewError(category ErrorCategory, name Name, message string, underlying error) *Error {
	retryable := category == ErrorTimeout ||
		category == ErrorNetwork ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &Error{
		Category:   category,
		Provider:   name,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// CategoryOf extracts the error category from an error.
func CategoryOf(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// ToDomain translates a provider error into the coded domain error surfaced
// to callers after retries exhaust.
func ToDomain(err error) error {
	var pe *Error
	if !errors.As(err, &pe) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "verification provider call failed")
	}
	switch pe.Category {
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification provider timed out")
	case ErrorNetwork:
		return dErrors.Wrap(err, dErrors.CodeNetworkError, "could not reach verification provider")
	case ErrorOutage:
		return dErrors.Wrap(err, dErrors.CodeServiceUnavailable, "verification provider is unavailable")
	case ErrorRateLimited:
		return dErrors.Wrap(err, dErrors.CodeRateLimitExceeded, "verification provider is throttling requests")
	case ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeAuthentication, "verification provider rejected our credentials")
	case ErrorNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, "verification session not found upstream")
	case ErrorBadInput:
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, pe.Message)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "verification provider call failed")
	}
}
