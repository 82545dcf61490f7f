package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Analyze endpoint defaults: five free analyses per day per client.
const (
	DefaultAnalyzeLimit  = 5
	DefaultAnalyzeWindow = 24 * time.Hour
)

// DefaultConfig returns the default limiter configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: AnalyzeEndpointConfigs(DefaultAnalyzeLimit, DefaultAnalyzeWindow),
	}
}

// AnalyzeEndpointConfigs limits analysis submissions to limit per window. The
// full allowance is available immediately.
func AnalyzeEndpointConfigs(limit int, window time.Duration) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/analyze", Method: "POST", Limit: limit, Window: window, Burst: limit},
		// Status polling, results and reports fall under the default limit.
		// Health is unlimited, see MatchEndpoint.
	}
}

// IPSet builds a lookup set from a list of addresses, ignoring blanks.
func IPSet(ips []string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
