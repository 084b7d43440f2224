package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/auth"
	"github.com/cortex-platform/gateway/metrics"
	"github.com/cortex-platform/gateway/utils"
)

// TokenDecoder defines the interface for validating bearer tokens
type TokenDecoder interface {
	// Decode verifies a token and returns its claims
	Decode(token string) (*auth.Claims, error)
}

// AuthMiddleware orchestrates per-request authentication: it runs the gate,
// extracts the token from the configured cookie, validates it and attaches
// the resulting identity to the request context. Every outcome is recorded
// before responding.
type AuthMiddleware struct {
	decoder    TokenDecoder
	gate       *Gate
	cookieName string
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(decoder TokenDecoder, gate *Gate, cookieName string, m *metrics.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		decoder:    decoder,
		gate:       gate,
		cookieName: cookieName,
		metrics:    m,
		logger:     logger,
	}
}

// Handler is the gateway-wide middleware. Requests the gate classifies as
// public or canary-skipped pass through untouched, with no identity
// attached; everything else must carry a valid token or is short-circuited
// with a structured 401/500 before reaching the proxy.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.gate.Decide(r.URL.Path) == DecisionSkip {
			m.logger.Debug("skipping auth", zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
			return
		}

		identity, authErr := m.authenticate(r)
		if authErr != nil {
			m.writeAuthError(w, r, authErr)
			return
		}

		m.metrics.ActiveAuthenticatedRequests.Inc()
		defer m.metrics.ActiveAuthenticatedRequests.Dec()

		m.logger.Debug("authentication successful",
			zap.String("path", r.URL.Path),
			zap.String("email", identity.Email))

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireAuth enforces authentication on a specific route, independently of
// the canary gate. When the gateway middleware already attached an identity
// it is reused; otherwise the token is validated here, so canary-skipped
// requests still authenticate on routes that demand it.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity := IdentityFromContext(r.Context()); identity != nil {
			next.ServeHTTP(w, r)
			return
		}

		identity, authErr := m.authenticate(r)
		if authErr != nil {
			m.writeAuthError(w, r, authErr)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireRoles gates a route on roles, on top of RequireAuth. With
// requireAll false (the default posture) the caller needs any one of the
// roles; with true, all of them. Failing the check after successful
// authentication is an authorization error: 403, not 401.
func (m *AuthMiddleware) RequireRoles(roles []string, requireAll bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())

			var hasAccess bool
			if requireAll {
				hasAccess = identity.HasAllRoles(roles)
			} else {
				hasAccess = identity.HasAnyRole(roles)
			}

			if !hasAccess {
				m.logger.Warn("insufficient roles",
					zap.String("path", r.URL.Path),
					zap.Strings("required_roles", roles),
					zap.Bool("require_all", requireAll))
				_ = utils.WriteAuthError(w, auth.NewError(auth.CodeInsufficientPermissions,
					fmt.Sprintf("Required roles (%s of): %s", logicLabel(requireAll), strings.Join(roles, ", ")), nil))
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

// RequirePermissions gates a route on permissions, on top of RequireAuth.
// Default semantics are all-of (requireAll true); pass false for any-of.
// Wildcard resolution follows auth.Identity.HasPermission.
func (m *AuthMiddleware) RequirePermissions(permissions []string, requireAll bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())

			var hasAccess bool
			if requireAll {
				hasAccess = identity.HasAllPermissions(permissions)
			} else {
				hasAccess = identity.HasAnyPermission(permissions)
			}

			if !hasAccess {
				m.logger.Warn("insufficient permissions",
					zap.String("path", r.URL.Path),
					zap.Strings("required_permissions", permissions),
					zap.Bool("require_all", requireAll))
				_ = utils.WriteAuthError(w, auth.NewError(auth.CodeInsufficientPermissions,
					fmt.Sprintf("Required permissions (%s of): %s", logicLabel(requireAll), strings.Join(permissions, ", ")), nil))
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

// authenticate extracts and validates the token, recording the validation
// outcome and latency for every path through it.
func (m *AuthMiddleware) authenticate(r *http.Request) (*auth.Identity, *auth.Error) {
	start := time.Now()

	// No verifier is wired when authentication is globally disabled; routes
	// that still demand an identity cannot grant one.
	if m.decoder == nil {
		return nil, auth.NewError(auth.CodeAuthFailed, "authentication is disabled", nil)
	}

	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		m.metrics.ObserveValidation(string(auth.CodeTokenMissing), time.Since(start))
		return nil, auth.ErrTokenMissing
	}

	claims, err := m.decoder.Decode(cookie.Value)
	if err != nil {
		var authErr *auth.Error
		if !errors.As(err, &authErr) {
			authErr = auth.NewError(auth.CodeAuthFailed, "authentication failed", err)
		}
		m.metrics.ObserveValidation(string(authErr.Code), time.Since(start))
		return nil, authErr
	}

	m.metrics.ObserveValidation("success", time.Since(start))
	return auth.NewIdentity(claims), nil
}

func (m *AuthMiddleware) writeAuthError(w http.ResponseWriter, r *http.Request, authErr *auth.Error) {
	m.logger.Warn("authentication failed",
		zap.String("path", r.URL.Path),
		zap.String("code", string(authErr.Code)),
		zap.Error(authErr.Err))
	_ = utils.WriteAuthError(w, authErr)
}

func logicLabel(requireAll bool) string {
	if requireAll {
		return "all"
	}
	return "any"
}
