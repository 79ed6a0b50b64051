package router

import (
	"net/http"

	"github.com/operas/contact-relay/internal/config"
	"github.com/operas/contact-relay/internal/handler"
	"github.com/operas/contact-relay/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, cfg config.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /contact", h.Contact)
	mux.HandleFunc("GET /health", h.Health)

	// Apply middleware stack
	var handler http.Handler = mux

	// CORS for actual requests, restricted to the site's origin
	handler = mw.CORS([]string{cfg.AllowedOrigin})(handler)

	// Preflight short-circuit, ahead of routing
	handler = mw.Preflight(handler)

	// Request logging
	handler = mw.Logger(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
