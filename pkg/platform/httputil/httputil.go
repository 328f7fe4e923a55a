// Package httputil centralizes the JSON response envelope so every handler
// emits the same shape: {success:true, data:...} on success and
// {success:false, error, message, code?, retryAfter?} on failure.
package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	dErrors "praman/pkg/domain-errors"
)

// SuccessResponse is the envelope for successful responses.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failed responses.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope around data.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// WriteError translates a domain error into the error envelope. Non-domain
// errors surface as a generic internal error; detail belongs in logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Error:      string(code),
		Message:    dErrors.MessageOf(err),
		Code:       string(code),
		RetryAfter: dErrors.RetryAfterOf(err),
	}
	if resp.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
