package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/config"
	"github.com/cortex-platform/gateway/proxy"
)

func tableFor(routes ...config.ServiceRoute) *proxy.Table {
	return proxy.NewTable(config.RoutesConfig{Services: routes})
}

func TestHandleHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	unreachable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable.Close()

	t.Run("all backends healthy", func(t *testing.T) {
		table := tableFor(
			config.ServiceRoute{Name: "financial", Prefix: "/financial", BaseURL: healthy.URL},
			config.ServiceRoute{Name: "hr", Prefix: "/hr", BaseURL: healthy.URL},
		)
		handler := NewHealthHandler(table, time.Second, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Gateway)
		assert.Equal(t, "healthy", resp.Overall)
		assert.Equal(t, "healthy", resp.Services["/financial"].Status)
		assert.Equal(t, http.StatusOK, resp.Services["/financial"].StatusCode)
	})

	t.Run("one unhealthy backend degrades the aggregate", func(t *testing.T) {
		table := tableFor(
			config.ServiceRoute{Name: "financial", Prefix: "/financial", BaseURL: healthy.URL},
			config.ServiceRoute{Name: "hr", Prefix: "/hr", BaseURL: unhealthy.URL},
		)
		handler := NewHealthHandler(table, time.Second, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "degraded", resp.Overall)
		assert.Equal(t, "healthy", resp.Services["/financial"].Status)
		assert.Equal(t, "unhealthy", resp.Services["/hr"].Status)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Services["/hr"].StatusCode)
	})

	t.Run("unreachable backend is reported with its error", func(t *testing.T) {
		table := tableFor(
			config.ServiceRoute{Name: "legal", Prefix: "/legal", BaseURL: unreachable.URL},
		)
		handler := NewHealthHandler(table, time.Second, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "degraded", resp.Overall)
		assert.Equal(t, "unreachable", resp.Services["/legal"].Status)
		assert.NotEmpty(t, resp.Services["/legal"].Error)
	})

	t.Run("no backends means healthy", func(t *testing.T) {
		handler := NewHealthHandler(tableFor(), time.Second, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Overall)
		assert.Empty(t, resp.Services)
	})
}
