package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operas/contact-relay/internal/logger"
	"github.com/operas/contact-relay/internal/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("next"))
	})
}

func TestPreflight(t *testing.T) {
	t.Parallel()

	mw := middleware.New(logger.Nop())

	t.Run("options short-circuits", func(t *testing.T) {
		t.Parallel()

		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

		req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
		w := httptest.NewRecorder()
		mw.Preflight(next).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.Bytes())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("other methods pass through", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		w := httptest.NewRecorder()
		mw.Preflight(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "next", w.Body.String())
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	mw := middleware.New(logger.Nop())
	h := mw.CORS([]string{"https://operas.pt"})(okHandler())

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{name: "allowed origin", origin: "https://operas.pt", wantHeader: "https://operas.pt"},
		{name: "other origin", origin: "https://evil.example", wantHeader: ""},
		{name: "no origin", origin: "", wantHeader: ""},
		{name: "scheme mismatch", origin: "http://operas.pt", wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/contact", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusTeapot, w.Code, "request is served regardless of origin")
			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
		})
	}
}

func TestCORS_EmptyOriginNeverMatches(t *testing.T) {
	t.Parallel()

	mw := middleware.New(logger.Nop())
	h := mw.CORS([]string{""})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	mw := middleware.New(logger.Nop())

	var seen string
	h := mw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	mw := middleware.New(logger.NewWithWriter(&logs, "info", "json"))

	h := mw.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	w := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(w, req) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), "boom")
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	mw := middleware.New(logger.NewWithWriter(&logs, "info", "json"))
	h := mw.RequestID(mw.Logger(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := logs.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/health"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}
