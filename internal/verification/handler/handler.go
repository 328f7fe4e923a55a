// Package handler exposes the verification endpoints over chi. It is a thin
// translation layer: decode, delegate to the service, write the envelope.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"praman/internal/badge"
	"praman/internal/platform/config"
	"praman/internal/platform/middleware"
	"praman/internal/provider"
	ratelimitmw "praman/internal/ratelimit/middleware"
	ratelimitmodels "praman/internal/ratelimit/models"
	"praman/internal/retry"
	"praman/internal/verification"
	"praman/internal/verification/service"
	dErrors "praman/pkg/domain-errors"
	"praman/pkg/platform/httputil"
)

// Service defines the verification operations the handler delegates to.
type Service interface {
	Initiate(ctx context.Context, userID, aadhaarNumber string, consent verification.Consent) (*service.InitiateResult, error)
	VerifyOTP(ctx context.Context, userID, refID, otp string) (*service.VerifyResult, error)
	Resend(ctx context.Context, userID, refID string) (*service.ResendResult, error)
	Status(ctx context.Context, userID string) (*service.StatusResult, error)
	Badge(ctx context.Context, userID string, signer service.BadgeSigner) (*service.BadgeResult, error)
}

// Handler handles the verification endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	signer   *badge.Signer
	limits   *ratelimitmw.Middleware
	features config.Features

	// Feature-flagged providers; nil when their flag is off.
	pan  provider.PANProvider
	bank provider.BankProvider
}

// New creates a verification Handler.
func New(
	svc Service,
	signer *badge.Signer,
	limits *ratelimitmw.Middleware,
	features config.Features,
	pan provider.PANProvider,
	bank provider.BankProvider,
	logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  svc,
		signer:   signer,
		limits:   limits,
		features: features,
		pan:      pan,
		bank:     bank,
	}
}

// Register registers the verification routes with the chi router. The parent
// router owns the platform middleware chain; only per-operation rate limits
// are applied here.
func (h *Handler) Register(r chi.Router) {
	r.Route("/verification", func(r chi.Router) {
		r.With(h.limits.Limit(ratelimitmodels.OpOTPGenerate)).
			Post("/aadhaar/initiate", h.handleInitiate)
		r.With(h.limits.Limit(ratelimitmodels.OpOTPVerify)).
			Post("/aadhaar/verify", h.handleVerifyOTP)
		r.With(h.limits.Limit(ratelimitmodels.OpOTPResend)).
			Post("/aadhaar/resend", h.handleResend)

		r.Get("/status/{userID}", h.handleStatus)
		r.Get("/badge/{userID}", h.handleBadge)
		r.Get("/features", h.handleFeatures)

		r.With(h.limits.Limit(ratelimitmodels.OpOTPVerify)).
			Post("/pan/verify", h.featureGate(h.features.PAN, h.handleVerifyPAN))
		r.With(h.limits.Limit(ratelimitmodels.OpOTPVerify)).
			Post("/bank/verify", h.featureGate(h.features.Bank, h.handleVerifyBank))
		r.Post("/face/match", h.featureGate(h.features.FaceMatch, h.handleFaceMatch))
		r.Post("/face/liveness", h.featureGate(h.features.Liveness, h.handleFaceMatch))
	})
}

type initiateRequest struct {
	UserID        string `json:"userId"`
	AadhaarNumber string `json:"aadhaarNumber"`
	Consent       bool   `json:"consent"`
	// ConsentGiven is an accepted alias for consent used by older callers.
	ConsentGiven bool   `json:"consentGiven"`
	ConsentText  string `json:"consentText,omitempty"`
}

func (r initiateRequest) consented() bool {
	return r.Consent || r.ConsentGiven
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "initiate", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	userID := h.resolveUserID(ctx, req.UserID)

	consent := verification.Consent{}
	if req.consented() {
		consent = verification.NewConsent(
			middleware.GetClientIP(ctx),
			r.UserAgent(),
			req.ConsentText,
			"v1",
			time.Now(),
		)
	}

	result, err := h.service.Initiate(ctx, userID, req.AadhaarNumber, consent)
	if err != nil {
		h.logFailure(ctx, "initiate", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

type verifyRequest struct {
	UserID string `json:"userId"`
	RefID  string `json:"refId"`
	OTP    string `json:"otp"`
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "verify", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	userID := h.resolveUserID(ctx, req.UserID)

	result, err := h.service.VerifyOTP(ctx, userID, req.RefID, req.OTP)
	if err != nil {
		h.logFailure(ctx, "verify", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

type resendRequest struct {
	UserID string `json:"userId"`
	RefID  string `json:"refId,omitempty"`
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "resend", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	userID := h.resolveUserID(ctx, req.UserID)

	result, err := h.service.Resend(ctx, userID, req.RefID)
	if err != nil {
		h.logFailure(ctx, "resend", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user id is required"))
		return
	}

	result, err := h.service.Status(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "status", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) handleBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user id is required"))
		return
	}

	var signer service.BadgeSigner
	if h.signer != nil {
		signer = h.signer
	}
	result, err := h.service.Badge(ctx, userID, signer)
	if err != nil {
		h.logFailure(ctx, "badge", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, map[string]bool{
		"aadhaar":   true,
		"pan":       h.features.PAN,
		"bank":      h.features.Bank,
		"faceMatch": h.features.FaceMatch,
		"liveness":  h.features.Liveness,
	})
}

type panRequest struct {
	UserID string `json:"userId"`
	PAN    string `json:"pan"`
	Name   string `json:"name,omitempty"`
}

func (h *Handler) handleVerifyPAN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req panRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "pan", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.PAN == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "pan is required"))
		return
	}
	if h.pan == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeServiceUnavailable, "pan verification is not available"))
		return
	}

	result, err := retry.Do(ctx, retry.VerifyOTP, func(ctx context.Context) (*provider.Result, error) {
		return h.pan.VerifyPAN(ctx, req.PAN, req.Name)
	})
	if err != nil {
		h.logFailure(ctx, "pan", req.UserID, err)
		httputil.WriteError(w, provider.ToDomain(err))
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]any{
		"valid":  result.Success,
		"status": result.Status,
	})
}

type bankRequest struct {
	UserID        string `json:"userId"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
}

func (h *Handler) handleVerifyBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req bankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "bank", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.AccountNumber == "" || req.IFSC == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "accountNumber and ifsc are required"))
		return
	}
	if h.bank == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeServiceUnavailable, "bank verification is not available"))
		return
	}

	result, err := retry.Do(ctx, retry.VerifyOTP, func(ctx context.Context) (*provider.Result, error) {
		return h.bank.VerifyBankAccount(ctx, req.AccountNumber, req.IFSC)
	})
	if err != nil {
		h.logFailure(ctx, "bank", req.UserID, err)
		httputil.WriteError(w, provider.ToDomain(err))
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]any{
		"valid":  result.Success,
		"status": result.Status,
	})
}

// handleFaceMatch covers the face endpoints. The configured provider has no
// face capability yet, so an enabled flag still answers unavailable.
func (h *Handler) handleFaceMatch(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeServiceUnavailable, "face verification is not available"))
}

// featureGate rejects requests for flagged-off verification types with a
// stable FEATURE_DISABLED error.
func (h *Handler) featureGate(enabled bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			httputil.WriteError(w, dErrors.New(dErrors.CodeFeatureDisabled, "this verification type is not enabled"))
			return
		}
		next(w, r)
	}
}

// resolveUserID prefers the body's userId, falling back to the identity
// header attached by the metadata middleware.
func (h *Handler) resolveUserID(ctx context.Context, bodyUserID string) string {
	if bodyUserID != "" {
		return bodyUserID
	}
	return middleware.GetUserID(ctx)
}

func (h *Handler) warnDecode(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "invalid request body",
		"operation", op,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}

// logFailure logs at warn for expected domain outcomes and error otherwise.
func (h *Handler) logFailure(ctx context.Context, op, userID string, err error) {
	attrs := []any{
		"operation", op,
		"user_id", userID,
		"request_id", middleware.GetRequestID(ctx),
		"code", string(dErrors.CodeOf(err)),
		"error", err.Error(),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "verification operation failed", attrs...)
		return
	}
	h.logger.WarnContext(ctx, "verification operation rejected", attrs...)
}
