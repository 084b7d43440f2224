package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/app"
	"github.com/cortex-platform/gateway/handlers"
	"github.com/cortex-platform/gateway/utils"
)

// SetupRoutes configures the gateway's middleware chain and routes: the
// public surface (info, health, metrics), the authenticated example
// routes, and the catch-all proxy.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(recoverer(deps.Logger))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Gateway.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Cookie"},
		ExposedHeaders:   []string{"Set-Cookie", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Gateway-wide authentication: the gate exempts the public surface and
	// applies canary sampling to the rest.
	r.Use(deps.AuthMiddleware.Handler)

	r.Get("/", handlers.InfoHandler(deps.Table, app.Version))
	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Authenticated example routes; these enforce auth regardless of the
	// canary split.
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Get("/api/profile", handlers.ProfileHandler())
	})
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireRoles([]string{"admin"}, false))
		r.Get("/api/admin/services", handlers.AdminServicesHandler(deps.HealthHandler, deps.Table, deps.Logger))
	})

	// Catch-all proxy to the backend services
	relay := deps.Relay.Handler()
	for _, method := range []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodPatch,
	} {
		r.MethodFunc(method, "/*", relay)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Service not found")
	})

	return r
}

// recoverer converts panics at the outermost boundary into a generic 500
// envelope without leaking internal detail; the full context is logged.
func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
						zap.Stack("stack"))
					_ = utils.WriteInternalServerError(w, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
