package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/cortex-platform/gateway/config"
	"github.com/cortex-platform/gateway/metrics"
)

func newTestGate(cfg config.GatewayConfig, authEnabled bool) (*Gate, *metrics.Metrics) {
	m := metrics.New()
	return NewGate(cfg, authEnabled, m), m
}

func TestGateIsPublic(t *testing.T) {
	gate, _ := newTestGate(config.GatewayConfig{
		PublicEndpoints:    []string{"/health", "/metrics"},
		PublicPathPrefixes: []string{"/static", "/docs"},
	}, true)

	cases := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/metrics", true},
		{"/healthz", false},
		{"/static/app.js", true},
		{"/static", true},
		{"/docs/openapi.json", true},
		{"/api/profile", false},
		{"/", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, gate.IsPublic(tc.path))
		})
	}
}

func TestGateDecide(t *testing.T) {
	t.Run("public path skips even at full canary", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{
			PublicEndpoints:      []string{"/health"},
			CanaryEnabled:        true,
			CanaryAuthPercentage: 100,
		}, true)

		assert.Equal(t, DecisionSkip, gate.Decide("/health"))
	})

	t.Run("auth disabled skips everything", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{
			CanaryEnabled:        true,
			CanaryAuthPercentage: 100,
		}, false)

		assert.Equal(t, DecisionSkip, gate.Decide("/financial/invoices"))
	})

	t.Run("canary disabled authenticates all non-public traffic", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{CanaryEnabled: false}, true)

		assert.Equal(t, DecisionAuthenticate, gate.Decide("/financial/invoices"))
	})

	t.Run("zero percent never authenticates", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{
			CanaryEnabled:        true,
			CanaryAuthPercentage: 0,
		}, true)

		for i := 0; i < 200; i++ {
			assert.Equal(t, DecisionSkip, gate.Decide("/financial/invoices"))
		}
	})

	t.Run("hundred percent always authenticates", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{
			CanaryEnabled:        true,
			CanaryAuthPercentage: 100,
		}, true)

		for i := 0; i < 200; i++ {
			assert.Equal(t, DecisionAuthenticate, gate.Decide("/financial/invoices"))
		}
	})

	t.Run("draw at the percentage boundary authenticates", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{
			CanaryEnabled:        true,
			CanaryAuthPercentage: 30,
		}, true)

		gate.draw = func() int { return 30 }
		assert.Equal(t, DecisionAuthenticate, gate.Decide("/financial/invoices"))

		gate.draw = func() int { return 31 }
		assert.Equal(t, DecisionSkip, gate.Decide("/financial/invoices"))
	})

	t.Run("fifty percent stays near half over many draws", func(t *testing.T) {
		gate, _ := newTestGate(config.GatewayConfig{
			CanaryEnabled:        true,
			CanaryAuthPercentage: 50,
		}, true)

		const total = 10000
		authenticated := 0
		for i := 0; i < total; i++ {
			if gate.Decide("/financial/invoices") == DecisionAuthenticate {
				authenticated++
			}
		}

		assert.InDelta(t, total/2, authenticated, total*0.05)
	})

	t.Run("every draw increments the canary counter by outcome", func(t *testing.T) {
		gate, m := newTestGate(config.GatewayConfig{
			CanaryEnabled:        true,
			CanaryAuthPercentage: 50,
		}, true)

		gate.draw = func() int { return 10 }
		gate.Decide("/financial/invoices")
		gate.Decide("/financial/invoices")
		gate.draw = func() int { return 90 }
		gate.Decide("/financial/invoices")

		assert.Equal(t, 2.0, testutil.ToFloat64(m.CanaryRequestsTotal.WithLabelValues("true")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CanaryRequestsTotal.WithLabelValues("false")))
	})

	t.Run("public paths never touch the canary counter", func(t *testing.T) {
		gate, m := newTestGate(config.GatewayConfig{
			PublicEndpoints:      []string{"/health"},
			CanaryEnabled:        true,
			CanaryAuthPercentage: 50,
		}, true)

		for i := 0; i < 50; i++ {
			gate.Decide("/health")
		}

		assert.Equal(t, 0, testutil.CollectAndCount(m.CanaryRequestsTotal))
	})
}
