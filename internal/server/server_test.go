package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/server"
)

// The prometheus middleware registers collectors in the process-wide default
// registry, so the server is constructed exactly once for this package.
func TestServer(t *testing.T) {
	s := server.New()
	s.RegisterRoutes()

	require.NotNil(t, s.E)
	require.NotNil(t, s.Engine())

	t.Run("health endpoint responds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "relay_")
	})

	t.Run("websocket route rejects plain requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)

		// Without an Upgrade handshake the accept fails before any relay
		// logic runs.
		assert.NotEqual(t, http.StatusNotFound, rec.Code)
	})
}
