// Package ratelimit provides rate limiting functionality using token bucket algorithm.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket represents a token bucket rate limiter.
// It allows a certain number of requests (tokens) per time window,
// with tokens refilling at a steady rate.
type TokenBucket struct {
	capacity   int        // Maximum tokens (burst capacity)
	refillRate float64    // Tokens per second
	tokens     float64    // Current tokens available
	lastRefill time.Time  // Last time tokens were refilled
	mu         sync.Mutex // Mutex for thread safety
}

// newTokenBucket creates a new token bucket with the specified capacity and refill rate.
func newTokenBucket(capacity int, refillRate float64, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity), // Start with full bucket
		lastRefill: now,
	}
}

// refill adds the tokens accrued since the last refill. Caller holds mu.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	if elapsed > 0 {
		tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
		tb.lastRefill = now
	}
}

// take consumes a token if one is available and reports the bucket state.
func (tb *TokenBucket) take(now time.Time) (allowed bool, remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		allowed = true
	}

	remaining = int(tb.tokens)
	resetTime = now
	if tb.tokens < float64(tb.capacity) {
		tokensNeeded := float64(tb.capacity) - tb.tokens
		secondsUntilFull := tokensNeeded / tb.refillRate
		resetTime = now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	}
	return allowed, remaining, resetTime
}

// retryAfter is the wait until one token is available.
func (tb *TokenBucket) retryAfter(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	if tb.tokens >= 1.0 {
		return 0
	}
	return time.Duration((1.0 - tb.tokens) / tb.refillRate * float64(time.Second))
}

// full reports whether the bucket has refilled completely, at which point it
// is indistinguishable from a new one.
func (tb *TokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	return tb.tokens >= float64(tb.capacity)
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Window     time.Duration
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages rate limiting for multiple clients using token buckets.
type Limiter struct {
	buckets       map[string]*TokenBucket // Client ID -> bucket
	mu            sync.RWMutex
	config        *Config
	now           func() time.Time
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &Limiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		now:     time.Now,
	}

	// Start cleanup goroutine if enabled
	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	// Check if rate limiting is disabled
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	// Check whitelist
	if l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}

	// Check blacklist
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	// Find matching endpoint configuration
	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if endpointConfig == nil {
		// Use global default
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit, // Use limit as burst for default
		}
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 || endpointConfig.Window <= 0 {
		return true, Info{Allowed: true}
	}

	// One bucket per client and endpoint pattern so prefix-matched paths
	// share an allowance.
	bucketKey := clientID + ":" + endpointConfig.Method + ":" + endpointConfig.Path
	if endpointConfig.Path == "" {
		bucketKey = clientID + ":" + method + ":" + endpoint
	}
	now := l.now()
	bucket := l.getBucket(bucketKey, endpointConfig.Limit, endpointConfig.Window, endpointConfig.Burst, now)

	allowed, remaining, resetTime := bucket.take(now)

	var retryAfter time.Duration
	if !allowed {
		retryAfter = bucket.retryAfter(now)
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      endpointConfig.Limit,
		Window:     endpointConfig.Window,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// getBucket gets or creates a token bucket for the given key.
func (l *Limiter) getBucket(key string, limit int, window time.Duration, burst int, now time.Time) *TokenBucket {
	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()

	if exists {
		return bucket
	}

	// Refill rate = limit / window duration in seconds
	refillRate := float64(limit) / window.Seconds()
	capacity := burst
	if capacity <= 0 {
		capacity = limit
	}

	bucket = newTokenBucket(capacity, refillRate, now)

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if existing, exists := l.buckets[key]; exists {
		return existing
	}
	l.buckets[key] = bucket
	return bucket
}

// cleanup removes refilled buckets to prevent memory leaks.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets()
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets that have refilled completely. A partially
// drained bucket is kept however long it has been idle.
func (l *Limiter) cleanupBuckets() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, bucket := range l.buckets {
		if bucket.full(now) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
