// Package server provides the HTTP API for résumé analysis.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-scorer/internal/ingestion"
	"github.com/jonathan/resume-scorer/internal/jobs"
	"github.com/jonathan/resume-scorer/internal/logger"
	"github.com/jonathan/resume-scorer/internal/server/ratelimit"
)

// Server defaults
const (
	DefaultPort          = 8000
	DefaultAllowedOrigin = "http://localhost:3000"
	shutdownTimeout      = 30 * time.Second
)

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	runner        *jobs.Runner
	store         *jobs.Store
	fetcher       ingestion.PageFetcher
	printPDF      func(ctx context.Context, html string) ([]byte, error)
	rateLimiter   *ratelimit.Limiter
	allowedOrigin string
	maxUpload     int64
	log           *zap.Logger
}

// Config holds server configuration
type Config struct {
	Port          int
	AllowedOrigin string // "*" allows any origin
	// MaxUploadBytes caps the résumé upload. Defaults to ingestion.MaxFileBytes.
	MaxUploadBytes int64
	Runner         *jobs.Runner
	// Fetcher resolves job_description_url. Nil rejects URL submissions.
	Fetcher ingestion.PageFetcher
	// PDF converts a stored HTML report for /api/download. Nil disables downloads.
	PDF       func(ctx context.Context, html string) ([]byte, error)
	RateLimit *ratelimit.Config
	Logger    *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("server requires a job runner")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = DefaultAllowedOrigin
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = ingestion.MaxFileBytes
	}

	s := &Server{
		runner:        cfg.Runner,
		store:         cfg.Runner.Store(),
		fetcher:       cfg.Fetcher,
		printPDF:      cfg.PDF,
		rateLimiter:   ratelimit.NewLimiter(cfg.RateLimit),
		allowedOrigin: cfg.AllowedOrigin,
		maxUpload:     cfg.MaxUploadBytes,
		log:           logger.OrNop(cfg.Logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/status/{job_id}", s.handleStatus)
	mux.HandleFunc("GET /api/status/{job_id}/stream", s.handleStatusStream)
	mux.HandleFunc("GET /api/result/{job_id}", s.handleResult)
	mux.HandleFunc("GET /api/report/{job_id}", s.handleReport)
	mux.HandleFunc("GET /api/download/{job_id}", s.handleDownload)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.withLogging(s.withCORS(s.withRateLimit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: status streams stay open until the job finishes.
	}

	return s, nil
}

// Handler returns the server's root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, then waits for in-flight requests and
// queued analyses.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.runner.Shutdown(ctx); err != nil {
		return fmt.Errorf("job runner shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers for the allowed origin
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case s.allowedOrigin == "*":
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && origin == s.allowedOrigin:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.log.Warn("rate limit exceeded",
				zap.String(logger.FieldRemoteIP, clientID),
				zap.String("path", r.URL.Path),
				zap.Int("limit", info.Limit),
				zap.Time("reset", info.ResetTime),
			)
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int(logger.FieldStatus, rec.status),
			zap.String(logger.FieldRemoteIP, s.extractClientID(r)),
			zap.Duration(logger.FieldDuration, time.Since(start)),
		)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.jsonResponse(w, status, map[string]string{"detail": errorDetail(err)})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())))
	}
	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"status":  false,
		"message": rateLimitMessage(info),
	})
}

func rateLimitMessage(info ratelimit.Info) string {
	switch {
	case info.Limit <= 0:
		return "Rate limit exceeded."
	case info.Window == 24*time.Hour:
		return fmt.Sprintf("Rate limit exceeded: %d free uses/day per IP.", info.Limit)
	default:
		return fmt.Sprintf("Rate limit exceeded: %d requests per %s per IP.", info.Limit, info.Window)
	}
}
