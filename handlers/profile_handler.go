package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/middleware"
	"github.com/cortex-platform/gateway/proxy"
	"github.com/cortex-platform/gateway/utils"
)

// ProfileResponse is the authenticated caller's own identity.
type ProfileResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ProfileHandler handles GET /api/profile. It runs behind RequireAuth, so
// a missing identity here means the middleware chain is miswired.
func ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			_ = utils.WriteErrorCode(w, http.StatusUnauthorized, "token_missing", "Authentication required", "")
			return
		}

		_ = utils.WriteOK(w, ProfileResponse{
			UserID:      identity.UserID,
			Email:       identity.Email,
			Name:        identity.Name,
			Roles:       identity.Roles,
			Permissions: identity.Permissions,
		})
	}
}

// AdminServiceStatus is one backend's detailed status for the admin view.
type AdminServiceStatus struct {
	URL            string  `json:"url"`
	Status         string  `json:"status"`
	StatusCode     int     `json:"status_code,omitempty"`
	ResponseTimeMS float64 `json:"response_time_ms,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// AdminServicesResponse is the admin-only service status report.
type AdminServicesResponse struct {
	Admin     string                        `json:"admin"`
	Services  map[string]AdminServiceStatus `json:"services"`
	Timestamp string                        `json:"timestamp"`
}

// AdminServicesHandler handles GET /api/admin/services: a detailed,
// admin-gated view of every backend including probe latency.
func AdminServicesHandler(health *HealthHandler, table *proxy.Table, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			_ = utils.WriteErrorCode(w, http.StatusUnauthorized, "token_missing", "Authentication required", "")
			return
		}

		logger.Info("admin accessing service status", zap.String("email", identity.Email))

		services := make(map[string]AdminServiceStatus)
		for _, route := range table.Services() {
			start := time.Now()
			probed := health.probe(r.Context(), route.BaseURL)
			status := AdminServiceStatus{
				URL:        route.BaseURL,
				Status:     probed.Status,
				StatusCode: probed.StatusCode,
				Error:      probed.Error,
			}
			if probed.Status != "unreachable" {
				status.ResponseTimeMS = float64(time.Since(start).Microseconds()) / 1000.0
			}
			services[route.Prefix] = status
		}

		_ = utils.WriteOK(w, AdminServicesResponse{
			Admin:     identity.Email,
			Services:  services,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
