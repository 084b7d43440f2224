package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cortex-platform/gateway/config"
	"github.com/cortex-platform/gateway/metrics"
	"github.com/cortex-platform/gateway/utils"
)

// IsStreamPath reports whether a request path selects the streaming relay.
//
// The trigger is a bare substring match, so any path containing "stream"
// anywhere switches modes. That is fragile but kept for compatibility with
// existing clients; it lives in this one predicate so it can be replaced by
// an explicit per-route declaration without touching the relay.
func IsStreamPath(path string) bool {
	return strings.Contains(path, "stream")
}

// Relay forwards requests to resolved backends. Ordinary responses are
// buffered and re-emitted verbatim; streaming responses are relayed chunk
// by chunk as the backend produces them. A single upstream attempt is made
// per client request: retries are the caller's policy, not the relay's.
type Relay struct {
	table         *Table
	client        *http.Client
	timeout       time.Duration
	streamTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewRelay creates a Relay over the given routing table.
func NewRelay(table *Table, cfg config.RoutesConfig, m *metrics.Metrics, logger *zap.Logger) *Relay {
	return &Relay{
		table: table,
		// Timeouts are applied per request via context so a client
		// disconnect cancels the in-flight upstream read.
		client:        &http.Client{},
		timeout:       cfg.ProxyTimeout,
		streamTimeout: cfg.ProxyStreamTimeout,
		metrics:       m,
		logger:        logger,
	}
}

// Handler returns the catch-all proxy handler.
func (rl *Relay) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, ok := rl.table.Resolve(r.URL.Path)
		if !ok {
			_ = utils.WriteNotFound(w, "Service not found")
			return
		}

		start := time.Now()
		var status int
		if IsStreamPath(r.URL.Path) {
			status = rl.forwardStream(w, r, target)
		} else {
			status = rl.forwardBuffered(w, r, target)
		}
		rl.metrics.RecordProxy(target.Service, r.Method, status, time.Since(start))
	}
}

// forwardBuffered waits for the complete backend response and re-emits its
// status code, headers and body verbatim. Returns the status sent to the
// client.
func (rl *Relay) forwardBuffered(w http.ResponseWriter, r *http.Request, target Target) int {
	ctx, cancel := context.WithTimeout(r.Context(), rl.timeout)
	defer cancel()

	resp, err := rl.roundTrip(ctx, r, target)
	if err != nil {
		return rl.writeUpstreamError(w, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rl.writeUpstreamError(w, target, err)
	}

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		rl.logger.Warn("failed to write proxied response",
			zap.String("service", target.Service), zap.Error(err))
	}
	return resp.StatusCode
}

// forwardStream relays the backend response incrementally as an event
// stream. Each read from the upstream is written and flushed immediately,
// preserving chunk boundaries; nothing is re-chunked or batched. The
// upstream request shares the client's context, so a client disconnect
// cancels the in-flight backend read instead of draining it into a void.
func (rl *Relay) forwardStream(w http.ResponseWriter, r *http.Request, target Target) int {
	ctx, cancel := context.WithTimeout(r.Context(), rl.streamTimeout)
	defer cancel()

	resp, err := rl.roundTrip(ctx, r, target)
	if err != nil {
		return rl.writeUpstreamError(w, target, err)
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disable buffering in nginx if present
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(resp.StatusCode)

	flusher, canFlush := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				rl.logger.Debug("client went away mid-stream",
					zap.String("service", target.Service), zap.Error(writeErr))
				return resp.StatusCode
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				rl.logger.Warn("upstream stream interrupted",
					zap.String("service", target.Service), zap.Error(readErr))
			}
			return resp.StatusCode
		}
	}
}

// roundTrip builds and executes the upstream request: method, query and
// headers (minus Host) are copied; the body is forwarded for
// non-idempotent methods.
func (rl *Relay) roundTrip(ctx context.Context, r *http.Request, target Target) (*http.Response, error) {
	var body io.Reader
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body = r.Body
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target.BaseURL+target.Path, body)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = r.URL.RawQuery
	copyHeaders(req.Header, r.Header)
	req.Header.Del("Host")

	return rl.client.Do(req)
}

// writeUpstreamError maps a transport failure to its client-facing status:
// timeout 504, unreachable backend 503, anything else 500.
func (rl *Relay) writeUpstreamError(w http.ResponseWriter, target Target, err error) int {
	rl.logger.Error("proxy request failed",
		zap.String("service", target.Service),
		zap.String("target", target.BaseURL+target.Path),
		zap.Error(err))

	switch classifyUpstreamError(err) {
	case http.StatusGatewayTimeout:
		_ = utils.WriteGatewayTimeout(w, "Service timeout")
		return http.StatusGatewayTimeout
	case http.StatusServiceUnavailable:
		_ = utils.WriteServiceUnavailable(w, "Service unavailable")
		return http.StatusServiceUnavailable
	default:
		_ = utils.WriteInternalServerError(w, "Internal gateway error")
		return http.StatusInternalServerError
	}
}

// classifyUpstreamError distinguishes timeouts from unreachable backends.
func classifyUpstreamError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return http.StatusServiceUnavailable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return http.StatusServiceUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// copyHeaders copies all header values from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
