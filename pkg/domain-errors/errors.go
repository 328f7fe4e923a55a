// Package domainerrors provides coded domain errors that services return and
// the HTTP layer translates into response envelopes. Infrastructure layers
// return pkg/platform/sentinel errors instead; services wrap those here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code surfaced to callers.
type Code string

const (
	// Validation and domain state codes.
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidAadhaar      Code = "INVALID_AADHAAR"
	CodeOTPInvalid          Code = "OTP_INVALID"
	CodeOTPExpired          Code = "OTP_EXPIRED"
	CodeOTPAttemptsExceeded Code = "OTP_ATTEMPTS_EXCEEDED"
	CodeAlreadyVerified     Code = "ALREADY_VERIFIED"
	CodeResendCooldown      Code = "RESEND_COOLDOWN"
	CodeNotInitiated        Code = "NOT_INITIATED"
	CodeFeatureDisabled     Code = "FEATURE_DISABLED"

	// Transport and upstream codes.
	CodeNotFound           Code = "NOT_FOUND"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeTimeout            Code = "TIMEOUT_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeAuthentication     Code = "AUTHENTICATION_ERROR"
	CodeMissingServiceAuth Code = "MISSING_SERVICE_AUTH"
	CodeInvalidServiceAuth Code = "INVALID_SERVICE_AUTH"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is a domain error with a stable code and a caller-safe message.
// The wrapped cause (if any) is for logs, never for responses.
type Error struct {
	Code    Code
	Message string
	// RetryAfter is the cooldown hint in seconds for throttled operations.
	// Zero means no hint.
	RetryAfter int
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithRetryAfter returns a copy of the error carrying a retry-after hint.
func (e *Error) WithRetryAfter(seconds int) *Error {
	clone := *e
	clone.RetryAfter = seconds
	return &clone
}

// Is reports whether err carries the given domain code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// RetryAfterOf extracts the retry-after hint from err, zero when absent.
func RetryAfterOf(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.RetryAfter
	}
	return 0
}

// MessageOf extracts the caller-safe message from err. Non-domain errors get
// a generic message so internal detail never leaks into responses.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "an internal error occurred"
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvalidAadhaar, CodeOTPInvalid:
		return http.StatusBadRequest
	case CodeOTPExpired, CodeOTPAttemptsExceeded, CodeAlreadyVerified, CodeNotInitiated:
		return http.StatusConflict
	case CodeResendCooldown, CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMissingServiceAuth, CodeInvalidServiceAuth, CodeAuthentication:
		return http.StatusUnauthorized
	case CodeFeatureDisabled:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable, CodeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
