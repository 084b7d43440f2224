package middleware

import (
	"math/rand"

	"github.com/cortex-platform/gateway/config"
	"github.com/cortex-platform/gateway/metrics"
)

// Decision is the outcome of the authentication gate for one request.
type Decision int

const (
	// DecisionSkip means the request proceeds without authentication.
	DecisionSkip Decision = iota
	// DecisionAuthenticate means the request must present a valid token.
	DecisionAuthenticate
)

// Gate decides per request whether authentication is enforced. It keeps no
// state across requests: every canary draw is independent, so a single
// client may be routed inconsistently across consecutive requests while the
// rollout is partial.
type Gate struct {
	publicEndpoints map[string]struct{}
	publicPrefixes  []string
	authEnabled     bool
	canaryEnabled   bool
	canaryPercent   int
	metrics         *metrics.Metrics

	// draw returns a uniform integer in [1,100]; injectable for tests
	draw func() int
}

// NewGate builds a Gate from the gateway configuration.
func NewGate(cfg config.GatewayConfig, authEnabled bool, m *metrics.Metrics) *Gate {
	public := make(map[string]struct{}, len(cfg.PublicEndpoints))
	for _, p := range cfg.PublicEndpoints {
		public[p] = struct{}{}
	}

	return &Gate{
		publicEndpoints: public,
		publicPrefixes:  cfg.PublicPathPrefixes,
		authEnabled:     authEnabled,
		canaryEnabled:   cfg.CanaryEnabled,
		canaryPercent:   cfg.CanaryAuthPercentage,
		metrics:         m,
		draw:            func() int { return rand.Intn(100) + 1 },
	}
}

// IsPublic reports whether the path matches the public exact set or starts
// with a public prefix. Public paths bypass authentication unconditionally,
// regardless of canary settings.
func (g *Gate) IsPublic(path string) bool {
	if _, ok := g.publicEndpoints[path]; ok {
		return true
	}
	for _, prefix := range g.publicPrefixes {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// Decide evaluates the gate for a request path.
//
// Order: public check, then the global auth switch, then canary sampling.
// With the canary disabled all non-public traffic authenticates; with it
// enabled, one uniform draw in [1,100] authenticates iff it is at most the
// configured percentage. Every draw increments the canary counter labeled
// by outcome.
func (g *Gate) Decide(path string) Decision {
	if g.IsPublic(path) {
		return DecisionSkip
	}

	if !g.authEnabled {
		return DecisionSkip
	}

	if !g.canaryEnabled {
		return DecisionAuthenticate
	}

	shouldAuth := g.draw() <= g.canaryPercent
	g.metrics.RecordCanary(shouldAuth)

	if shouldAuth {
		return DecisionAuthenticate
	}
	return DecisionSkip
}
