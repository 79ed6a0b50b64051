package middleware

import (
	"net/http"
)

// Preflight answers every OPTIONS request before routing, on any path, with
// an empty 200 and wildcard CORS headers.
//
// NOTE: this is wider than CORS below, which only admits the configured
// origins on actual responses. Both behaviors are kept as deployed.
func (m *Middleware) Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		w.WriteHeader(http.StatusOK)
	})
}

// CORS adds Access-Control-Allow-Origin to responses whose Origin is one of
// allowedOrigins. Other origins are still served, without CORS headers.
func (m *Middleware) CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			next.ServeHTTP(w, r)
		})
	}
}
