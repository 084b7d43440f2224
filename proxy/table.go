package proxy

import (
	"strings"

	"github.com/cortex-platform/gateway/config"
)

// Target is a resolved backend destination. Path is the path to forward:
// for preserve-prefix routes it is the original path, otherwise the matched
// prefix is stripped (an empty remainder becomes "/").
type Target struct {
	Service string
	BaseURL string
	Path    string
}

// Table is the static routing table. It is built once at startup and is
// read-only afterwards; lookups need no locking.
type Table struct {
	services         []config.ServiceRoute
	preservePrefixes []string
	presentationURL  string
}

// NewTable builds a Table from the routing configuration.
func NewTable(cfg config.RoutesConfig) *Table {
	return &Table{
		services:         cfg.Services,
		preservePrefixes: cfg.PreservePrefixes,
		presentationURL:  cfg.PresentationURL,
	}
}

// Resolve maps a request path to its backend target.
//
// Preserve-prefix routes (presentation service assets and APIs) are checked
// first and keep the full path. Service routes are then scanned in
// configuration order; the longest matching prefix wins, with earlier
// entries breaking ties.
func (t *Table) Resolve(path string) (Target, bool) {
	for _, prefix := range t.preservePrefixes {
		if strings.HasPrefix(path, prefix) {
			return Target{
				Service: "presentation",
				BaseURL: t.presentationURL,
				Path:    path,
			}, true
		}
	}

	best := -1
	for i, route := range t.services {
		if !strings.HasPrefix(path, route.Prefix) {
			continue
		}
		if best < 0 || len(route.Prefix) > len(t.services[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		return Target{}, false
	}

	route := t.services[best]
	remainder := strings.TrimPrefix(path, route.Prefix)
	if remainder == "" {
		remainder = "/"
	}

	return Target{
		Service: route.Name,
		BaseURL: route.BaseURL,
		Path:    remainder,
	}, true
}

// Services returns the configured service routes, for the health and info
// surfaces.
func (t *Table) Services() []config.ServiceRoute {
	return t.services
}
