package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/auth"
	"github.com/cortex-platform/gateway/config"
	"github.com/cortex-platform/gateway/handlers"
	"github.com/cortex-platform/gateway/metrics"
	"github.com/cortex-platform/gateway/middleware"
	"github.com/cortex-platform/gateway/proxy"
)

// Version is the gateway version reported by the root endpoint.
const Version = "1.0.0"

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection: everything is constructed once at
// startup and shared read-only by request handlers.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	Verifier       *auth.Verifier
	AuthMiddleware *middleware.AuthMiddleware

	Table         *proxy.Table
	Relay         *proxy.Relay
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if cfg.Auth.Enabled {
		publicKey, err := cfg.Auth.LoadPublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to load auth public key: %w", err)
		}
		deps.Verifier = auth.NewVerifier(auth.VerifierConfig{
			PublicKey: publicKey,
			Issuer:    cfg.Auth.Issuer,
			ClockSkew: cfg.Auth.ClockSkew,
		})
	}

	gate := middleware.NewGate(cfg.Gateway, cfg.Auth.Enabled, deps.Metrics)

	// Assign through an interface variable so a disabled verifier stays a
	// nil interface, not a typed nil pointer.
	var decoder middleware.TokenDecoder
	if deps.Verifier != nil {
		decoder = deps.Verifier
	}
	deps.AuthMiddleware = middleware.NewAuthMiddleware(decoder, gate, cfg.Auth.CookieName, deps.Metrics, logger)

	deps.Table = proxy.NewTable(cfg.Routes)
	deps.Relay = proxy.NewRelay(deps.Table, cfg.Routes, deps.Metrics, logger)
	deps.HealthHandler = handlers.NewHealthHandler(deps.Table, cfg.Routes.HealthProbeTimeout, logger)

	logger.Info("all dependencies initialized",
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("canary_enabled", cfg.Gateway.CanaryEnabled),
		zap.Int("canary_percentage", cfg.Gateway.CanaryAuthPercentage),
		zap.Int("routes", len(cfg.Routes.Services)))

	return deps, nil
}
