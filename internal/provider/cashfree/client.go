// Package cashfree adapts the Cashfree verification suite API to the
// internal provider contract. It owns vendor headers, the fixed request
// timeout, and the normalization of Cashfree's heterogeneous response shapes.
package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"praman/internal/provider"
)

var callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "praman_cashfree_call_duration_seconds",
	Help:    "Latency of Cashfree API calls by operation and outcome.",
	Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"operation", "outcome"})

const (
	otpGeneratePath = "/verification/offline-aadhaar/otp"
	otpVerifyPath   = "/verification/offline-aadhaar/verify"
	panVerifyPath   = "/verification/pan"
	bankVerifyPath  = "/verification/bank-account/sync"

	defaultTimeout = 30 * time.Second
)

// Config holds the adapter's credentials and mode.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Sandbox enables the compatibility shim for the sandbox's "OTP already
	// generated" conflict and exposes the fixed test OTP.
	Sandbox bool
	Timeout time.Duration
}

// Client calls the Cashfree verification API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New constructs a Cashfree client. The HTTP client carries the fixed
// per-request timeout; callers add no additional deadline of their own.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the variant for persistence and logging.
func (c *Client) Name() provider.Name { return provider.NameCashfree }

// otpResponse is the vendor shape for generate/resend calls.
type otpResponse struct {
	RefID   json.Number `json:"ref_id"`
	Status  string      `json:"status"`
	Message string      `json:"message"`
}

// verifyResponse is the vendor shape for OTP verification.
type verifyResponse struct {
	RefID       json.Number `json:"ref_id"`
	Status      string      `json:"status"`
	Message     string      `json:"message"`
	Name        string      `json:"name"`
	Gender      string      `json:"gender"`
	YearOfBirth json.Number `json:"year_of_birth"`
	Address     string      `json:"address"`
	CareOf      string      `json:"care_of"`
}

// GenerateOTP requests OTP delivery for an Aadhaar number.
func (c *Client) GenerateOTP(ctx context.Context, aadhaarNumber string) (*provider.Result, error) {
	body := map[string]string{"aadhaar_number": aadhaarNumber}

	var vendor otpResponse
	err := c.do(ctx, "generate_otp", otpGeneratePath, body, &vendor)
	if err != nil {
		if shim := c.sandboxConflictShim(err); shim != nil {
			return shim, nil
		}
		return nil, err
	}

	res := &provider.Result{
		Success: true,
		RefID:   vendor.RefID.String(),
		Status:  vendor.Status,
		Message: vendor.Message,
	}
	if c.cfg.Sandbox {
		res.TestOTP = SandboxOTP
	}
	return res, nil
}

// VerifyOTP submits the 6-digit code for a previously issued reference.
func (c *Client) VerifyOTP(ctx context.Context, refID, otp string) (*provider.Result, error) {
	body := map[string]string{"ref_id": refID, "otp": otp}

	var vendor verifyResponse
	if err := c.do(ctx, "verify_otp", otpVerifyPath, body, &vendor); err != nil {
		return nil, err
	}

	if !strings.EqualFold(vendor.Status, "VALID") {
		return &provider.Result{
			Success: false,
			RefID:   vendor.RefID.String(),
			Status:  vendor.Status,
			Message: vendor.Message,
		}, nil
	}

	return &provider.Result{
		Success: true,
		RefID:   vendor.RefID.String(),
		Status:  vendor.Status,
		Message: vendor.Message,
		Data: &provider.KYCData{
			Name:        vendor.Name,
			YearOfBirth: vendor.YearOfBirth.String(),
			Gender:      vendor.Gender,
			Address:     vendor.Address,
			CareOf:      vendor.CareOf,
		},
	}, nil
}

// ResendOTP reuses the generation endpoint with the existing reference, as
// the vendor prescribes. The returned ref may differ; callers adopt it.
func (c *Client) ResendOTP(ctx context.Context, aadhaarNumber, refID string) (*provider.Result, error) {
	body := map[string]string{"aadhaar_number": aadhaarNumber, "ref_id": refID}

	var vendor otpResponse
	err := c.do(ctx, "resend_otp", otpGeneratePath, body, &vendor)
	if err != nil {
		if shim := c.sandboxConflictShim(err); shim != nil {
			shim.RefID = refID // continue the existing session
			return shim, nil
		}
		return nil, err
	}

	res := &provider.Result{
		Success: true,
		RefID:   vendor.RefID.String(),
		Status:  vendor.Status,
		Message: vendor.Message,
	}
	if res.RefID == "" {
		res.RefID = refID
	}
	return res, nil
}

// panResponse is the vendor shape for PAN verification.
type panResponse struct {
	Valid          bool   `json:"valid"`
	Message        string `json:"message"`
	NameMatch      string `json:"name_match_result"`
	RegisteredName string `json:"registered_name"`
}

// VerifyPAN checks a PAN number against the registered holder name.
func (c *Client) VerifyPAN(ctx context.Context, pan, name string) (*provider.Result, error) {
	body := map[string]string{"pan": pan, "name": name}

	var vendor panResponse
	if err := c.do(ctx, "verify_pan", panVerifyPath, body, &vendor); err != nil {
		return nil, err
	}
	res := &provider.Result{
		Success: vendor.Valid,
		Status:  vendor.NameMatch,
		Message: vendor.Message,
	}
	if vendor.Valid {
		res.Data = &provider.KYCData{Name: vendor.RegisteredName}
	}
	return res, nil
}

// bankResponse is the vendor shape for penny-drop bank verification.
type bankResponse struct {
	AccountStatus string `json:"account_status"`
	Message       string `json:"message"`
	NameAtBank    string `json:"name_at_bank"`
}

// VerifyBankAccount runs a synchronous penny-drop check.
func (c *Client) VerifyBankAccount(ctx context.Context, accountNumber, ifsc string) (*provider.Result, error) {
	body := map[string]string{"bank_account": accountNumber, "ifsc": ifsc}

	var vendor bankResponse
	if err := c.do(ctx, "verify_bank", bankVerifyPath, body, &vendor); err != nil {
		return nil, err
	}
	res := &provider.Result{
		Success: strings.EqualFold(vendor.AccountStatus, "VALID"),
		Status:  vendor.AccountStatus,
		Message: vendor.Message,
	}
	if res.Success {
		res.Data = &provider.KYCData{Name: vendor.NameAtBank}
	}
	return res, nil
}

// Health probes the API with a HEAD request to the base URL.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return provider.NewError(provider.ErrorNetwork, c.Name(), "health probe failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return provider.NewError(provider.ErrorOutage, c.Name(), fmt.Sprintf("health probe got %d", resp.StatusCode), nil)
	}
	return nil
}

// do issues one vendor call and decodes the response, normalizing transport
// and status failures into provider errors.
func (c *Client) do(ctx context.Context, operation, path string, body any, out any) error {
	tracer := otel.Tracer("praman/internal/provider/cashfree")
	ctx, span := tracer.Start(ctx, "cashfree."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", string(c.Name())),
		attribute.Bool("sandbox", c.cfg.Sandbox),
	)

	start := time.Now()
	outcome := "success"
	defer func() {
		callDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		outcome = "error"
		return provider.NewError(provider.ErrorInternal, c.Name(), "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		outcome = "error"
		return provider.NewError(provider.ErrorInternal, c.Name(), "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.cfg.ClientID)
	req.Header.Set("x-client-secret", c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "error"
		perr := c.classifyTransport(err)
		span.SetStatus(codes.Error, perr.Error())
		return perr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		outcome = "error"
		return provider.NewError(provider.ErrorNetwork, c.Name(), "read response", err)
	}

	if resp.StatusCode >= 400 {
		outcome = "error"
		perr := c.classifyStatus(resp.StatusCode, raw)
		span.SetStatus(codes.Error, perr.Error())
		return perr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		outcome = "error"
		return provider.NewError(provider.ErrorInternal, c.Name(), "decode response", err)
	}
	return nil
}

func (c *Client) classifyTransport(err error) *provider.Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return provider.NewError(provider.ErrorTimeout, c.Name(), "request timed out", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return provider.NewError(provider.ErrorTimeout, c.Name(), "request timed out", err)
	default:
		return provider.NewError(provider.ErrorNetwork, c.Name(), "request failed", err)
	}
}

func (c *Client) classifyStatus(status int, raw []byte) *provider.Error {
	message := vendorMessage(raw)
	switch {
	case status == http.StatusTooManyRequests:
		return provider.NewError(provider.ErrorRateLimited, c.Name(), message, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return provider.NewError(provider.ErrorAuthentication, c.Name(), message, nil)
	case status == http.StatusNotFound:
		return provider.NewError(provider.ErrorNotFound, c.Name(), message, nil)
	case status == http.StatusConflict:
		// Sandbox idempotency quirk, see sandboxConflictShim.
		return provider.NewError(provider.ErrorBadInput, c.Name(), message, nil)
	case status >= 500:
		return provider.NewError(provider.ErrorOutage, c.Name(), message, nil)
	default:
		return provider.NewError(provider.ErrorBadInput, c.Name(), message, nil)
	}
}

// sandboxConflictShim converts the sandbox's "OTP already generated" conflict
// into a success with a synthesized continuation reference. The sandbox
// refuses a second generation for the same test number while a session is
// open; production never does this, so the shim is sandbox-only.
func (c *Client) sandboxConflictShim(err error) *provider.Result {
	if !c.cfg.Sandbox {
		return nil
	}
	var pe *provider.Error
	if !errors.As(err, &pe) {
		return nil
	}
	if !strings.Contains(strings.ToLower(pe.Message), "otp already generated") {
		return nil
	}
	res := &provider.Result{
		Success: true,
		RefID:   fmt.Sprintf("%d", time.Now().UnixNano()/1e6),
		Status:  "SUCCESS",
		Message: "OTP session continued",
		TestOTP: SandboxOTP,
	}
	return res
}

func vendorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return "upstream request rejected"
}
