// Package httptransport assembles the public router: the platform middleware
// chain, the authenticated verification surface, and the unauthenticated
// health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"praman/internal/platform/metrics"
	"praman/internal/platform/middleware"
	ratelimitmw "praman/internal/ratelimit/middleware"
	dErrors "praman/pkg/domain-errors"
	"praman/pkg/platform/httputil"
)

// requestTimeout bounds a whole request. It leaves headroom over the 30s
// upstream budget so provider timeouts surface as domain errors, not as a
// severed connection.
const requestTimeout = 40 * time.Second

// HealthChecker reports readiness of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Registrar mounts a group of routes on the authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

// Config carries everything the router assembly needs.
type Config struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	ServiceSecret string
	RateLimits    *ratelimitmw.Middleware

	// Health dependencies by name; nil values are skipped.
	HealthChecks map[string]HealthChecker
}

// NewRouter builds the service router. Health and metrics sit outside the
// service auth gate; everything else requires the shared secret.
func NewRouter(cfg Config, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Metadata)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/health", handleHealth(cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireServiceAuth(cfg.ServiceSecret, cfg.Logger))
		r.Use(cfg.RateLimits.Global())
		for _, reg := range registrars {
			reg.Register(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	return r
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth pings each dependency with a short deadline. Any failure
// degrades the overall status and the response code.
func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Checks: map[string]string{}}
		code := http.StatusOK
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				status.Checks[name] = err.Error()
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}
