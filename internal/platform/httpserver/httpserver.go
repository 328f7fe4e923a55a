package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server with timeouts sized for the verification API.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Upstream KYC calls run up to 30s; leave headroom before the
		// server cuts the response off.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
