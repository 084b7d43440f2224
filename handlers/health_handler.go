package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/proxy"
	"github.com/cortex-platform/gateway/utils"
)

// ServiceHealth is one backend's probe result.
type ServiceHealth struct {
	Status     string `json:"status"` // healthy, unhealthy or unreachable
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HealthResponse is the aggregate health report: the gateway itself plus
// every configured backend. Overall is healthy only when all backends are.
type HealthResponse struct {
	Gateway  string                   `json:"gateway"`
	Services map[string]ServiceHealth `json:"services"`
	Overall  string                   `json:"overall"`
}

// HealthHandler probes the configured backends and reports reachability.
type HealthHandler struct {
	table        *proxy.Table
	probeClient  *http.Client
	probeTimeout time.Duration
	logger       *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(table *proxy.Table, probeTimeout time.Duration, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		table:        table,
		probeClient:  &http.Client{},
		probeTimeout: probeTimeout,
		logger:       logger,
	}
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]ServiceHealth)
	overall := "healthy"

	for _, route := range h.table.Services() {
		health := h.probe(r.Context(), route.BaseURL)
		services[route.Prefix] = health
		if health.Status != "healthy" {
			overall = "degraded"
		}
	}

	_ = utils.WriteOK(w, HealthResponse{
		Gateway:  "healthy",
		Services: services,
		Overall:  overall,
	})
}

// probe checks one backend's /health endpoint with a short timeout.
func (h *HealthHandler) probe(ctx context.Context, baseURL string) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return ServiceHealth{Status: "unreachable", Error: err.Error()}
	}

	resp, err := h.probeClient.Do(req)
	if err != nil {
		return ServiceHealth{Status: "unreachable", Error: err.Error()}
	}
	defer resp.Body.Close()

	status := "healthy"
	if resp.StatusCode != http.StatusOK {
		status = "unhealthy"
	}
	return ServiceHealth{Status: status, StatusCode: resp.StatusCode}
}
