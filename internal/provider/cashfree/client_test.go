package cashfree

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praman/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		BaseURL:      server.URL,
		ClientID:     "test-id",
		ClientSecret: "test-secret",
		Sandbox:      true,
	})
}

func TestGenerateOTPSendsCredentialHeaders(t *testing.T) {
	var gotID, gotSecret, gotContentType string
	var gotBody map[string]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("x-client-id")
		gotSecret = r.Header.Get("x-client-secret")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, otpGeneratePath, r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"ref_id":  123456,
			"status":  "SUCCESS",
			"message": "OTP sent",
		})
	})

	result, err := client.GenerateOTP(context.Background(), "655675523712")
	require.NoError(t, err)

	assert.Equal(t, "test-id", gotID)
	assert.Equal(t, "test-secret", gotSecret)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "655675523712", gotBody["aadhaar_number"])

	assert.True(t, result.Success)
	assert.Equal(t, "123456", result.RefID)
	assert.Equal(t, SandboxOTP, result.TestOTP)
}

func TestGenerateOTPNumericAndStringRefID(t *testing.T) {
	// The vendor returns ref_id as a number on some endpoints and a string
	// on others; both must normalize.
	for _, ref := range []any{789, "789"} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ref_id": ref, "status": "SUCCESS"})
		})
		result, err := client.GenerateOTP(context.Background(), "655675523712")
		require.NoError(t, err)
		assert.Equal(t, "789", result.RefID)
	}
}

func TestGenerateOTPSandboxConflictShim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "OTP already generated for this aadhaar"})
	})

	result, err := client.GenerateOTP(context.Background(), "655675523712")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RefID)
	assert.Equal(t, SandboxOTP, result.TestOTP)
}

func TestGenerateOTPConflictOutsideSandbox(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "OTP already generated"})
	}))
	t.Cleanup(server.Close)
	client := New(Config{BaseURL: server.URL, Sandbox: false})

	_, err := client.GenerateOTP(context.Background(), "655675523712")
	require.Error(t, err)
	assert.Equal(t, provider.ErrorBadInput, provider.CategoryOf(err))
	assert.False(t, provider.IsRetryable(err))
}

func TestVerifyOTPValid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, otpVerifyPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ref_id":        "123456",
			"status":        "VALID",
			"message":       "Aadhaar verified",
			"name":          "Test Holder",
			"year_of_birth": 1990,
			"gender":        "M",
			"address":       "Test District",
		})
	})

	result, err := client.VerifyOTP(context.Background(), "123456", "111000")
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Equal(t, "Test Holder", result.Data.Name)
	assert.Equal(t, "1990", result.Data.YearOfBirth)
}

func TestVerifyOTPInvalidStatusIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ref_id":  "123456",
			"status":  "INVALID",
			"message": "OTP did not match",
		})
	})

	result, err := client.VerifyOTP(context.Background(), "123456", "000111")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		category  provider.ErrorCategory
		retryable bool
	}{
		{"throttled", http.StatusTooManyRequests, provider.ErrorRateLimited, true},
		{"unauthorized", http.StatusUnauthorized, provider.ErrorAuthentication, false},
		{"forbidden", http.StatusForbidden, provider.ErrorAuthentication, false},
		{"not found", http.StatusNotFound, provider.ErrorNotFound, false},
		{"bad request", http.StatusBadRequest, provider.ErrorBadInput, false},
		{"server error", http.StatusInternalServerError, provider.ErrorOutage, true},
		{"bad gateway", http.StatusBadGateway, provider.ErrorOutage, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
			})
			_, err := client.VerifyOTP(context.Background(), "123456", "111000")
			require.Error(t, err)
			assert.Equal(t, tt.category, provider.CategoryOf(err))
			assert.Equal(t, tt.retryable, provider.IsRetryable(err))
		})
	}
}

func TestTimeoutClassifiedRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"ref_id": "1", "status": "SUCCESS"})
	}))
	t.Cleanup(server.Close)
	client := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})

	_, err := client.GenerateOTP(context.Background(), "655675523712")
	require.Error(t, err)
	assert.Equal(t, provider.ErrorTimeout, provider.CategoryOf(err))
	assert.True(t, provider.IsRetryable(err))
}

func TestConnectionRefusedClassifiedNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing listens anymore

	client := New(Config{BaseURL: server.URL})
	_, err := client.GenerateOTP(context.Background(), "655675523712")
	require.Error(t, err)
	assert.Equal(t, provider.ErrorNetwork, provider.CategoryOf(err))
	assert.True(t, provider.IsRetryable(err))
}

func TestResendOTPKeepsReferenceWhenVendorOmitsIt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123456", body["ref_id"])
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "SUCCESS", "message": "OTP resent"})
	})

	result, err := client.ResendOTP(context.Background(), "", "123456")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "123456", result.RefID)
}

func TestVerifyPAN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, panVerifyPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid":             true,
			"name_match_result": "MATCH",
			"registered_name":   "Test Holder",
		})
	})

	result, err := client.VerifyPAN(context.Background(), "ABCDE1234F", "Test Holder")
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Equal(t, "Test Holder", result.Data.Name)
}

func TestVerifyBankAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bankVerifyPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"account_status": "VALID",
			"name_at_bank":   "Test Holder",
		})
	})

	result, err := client.VerifyBankAccount(context.Background(), "0001112223", "HDFC0000001")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "VALID", result.Status)
}
