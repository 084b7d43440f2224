package handlers

import (
	"net/http"

	"github.com/cortex-platform/gateway/proxy"
	"github.com/cortex-platform/gateway/utils"
)

// GatewayInfo is the root endpoint payload.
type GatewayInfo struct {
	Service  string   `json:"service"`
	Version  string   `json:"version"`
	Status   string   `json:"status"`
	Services []string `json:"services"`
}

// InfoHandler handles GET / with basic gateway metadata and the list of
// routed service prefixes.
func InfoHandler(table *proxy.Table, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes := table.Services()
		prefixes := make([]string, 0, len(routes))
		for _, route := range routes {
			prefixes = append(prefixes, route.Prefix)
		}

		_ = utils.WriteOK(w, GatewayInfo{
			Service:  "Cortex API Gateway",
			Version:  version,
			Status:   "operational",
			Services: prefixes,
		})
	}
}
