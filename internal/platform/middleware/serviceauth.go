package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "praman/pkg/domain-errors"
	"praman/pkg/platform/httputil"
)

// HeaderServiceAuth carries the shared secret for service-to-service calls.
const HeaderServiceAuth = "X-Service-Auth"

// RequireServiceAuth enforces the shared-secret header on verification
// routes. Missing and mismatched secrets get distinct codes so callers can
// tell a deployment gap from a credential rotation problem.
func RequireServiceAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(HeaderServiceAuth)
			if presented == "" {
				logger.WarnContext(r.Context(), "service auth header missing",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeMissingServiceAuth, "service authentication header is required"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				logger.WarnContext(r.Context(), "service auth secret mismatch",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidServiceAuth, "service authentication failed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
