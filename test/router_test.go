package test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	platformmetrics "praman/internal/platform/metrics"
	ratelimitmetrics "praman/internal/ratelimit/metrics"
	ratelimitmw "praman/internal/ratelimit/middleware"
	ratelimitservice "praman/internal/ratelimit/service"
	"praman/internal/ratelimit/store/bucket"
	httptransport "praman/internal/transport/http"
	"praman/pkg/testutil"
)

// newRouter assembles a bare router with no route registrars, which is
// enough to exercise the platform surface shared by every deployment.
func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter, err := ratelimitservice.New(bucket.NewMemoryStore(), logger)
	require.NoError(t, err)
	limits := ratelimitmw.New(limiter, ratelimitmetrics.NewWith(prometheus.NewRegistry()), logger, ratelimitmw.WithDisabled(true))

	return httptransport.NewRouter(httptransport.Config{
		Logger:        logger,
		Metrics:       platformmetrics.NewWith(prometheus.NewRegistry()),
		ServiceSecret: "smoke-secret",
		RateLimits:    limits,
	})
}

func TestRouterPlatformSurface(t *testing.T) {
	router := newRouter(t)

	t.Run("health is open", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatus(t, rec, http.StatusOK)
	})

	t.Run("metrics is open", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatus(t, rec, http.StatusOK)
	})

	t.Run("unknown route returns envelope", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/nope"))
		testutil.AssertStatusAndCode(t, rec, http.StatusNotFound, "NOT_FOUND")
	})
}
