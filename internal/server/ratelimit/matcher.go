package ratelimit

import (
	"net/http"
	"strings"
)

// unlimitedPaths are health checks that are never rate limited.
var unlimitedPaths = map[string]bool{
	"/":       true,
	"/health": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/api/status/" matches "/api/status/{id}").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet && unlimitedPaths[path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	// Exact match wins over prefix match
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") || !strings.HasPrefix(path, config.Path) {
			continue
		}
		if best == nil || len(config.Path) > len(best.Path) {
			best = config
		}
	}
	return best
}
