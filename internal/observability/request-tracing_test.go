package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestRoutePattern(t *testing.T) {
	var seen string

	r := chi.NewRouter()
	r.Post("/siws/{op}", func(w http.ResponseWriter, req *http.Request) {
		seen = routePattern(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/siws/verify", nil))
	require.Equal(t, "/siws/{op}", seen)

	// outside of chi the raw path is used
	require.Equal(t, "/health", routePattern(httptest.NewRequest(http.MethodGet, "/health", nil)))
}

func TestRequestTracingRestoresUserAgent(t *testing.T) {
	var userAgent, hidden string

	h := RequestTracing()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		hidden = r.Header.Get(originalUserAgentHeader)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("User-Agent", "wallet/1.0")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "wallet/1.0", userAgent)
	require.Empty(t, hidden)
}
