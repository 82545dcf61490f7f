package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-scorer/internal/analysis"
	"github.com/jonathan/resume-scorer/internal/logger"
	"github.com/jonathan/resume-scorer/internal/types"
)

// Runner defaults
const (
	DefaultMaxConcurrent = 4
	DefaultJobTimeout    = 2 * time.Minute
)

// ErrShuttingDown is returned by Submit after Shutdown has been called.
var ErrShuttingDown = errors.New("job runner is shutting down")

var errInternal = errors.New("internal error")

// Analyzer runs one analysis. *analysis.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input, onProgress analysis.ProgressCallback) (*types.Report, error)
}

// RenderFunc renders a finished report as HTML.
type RenderFunc func(report *types.Report) (string, error)

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	MaxConcurrent int
	JobTimeout    time.Duration
	Logger        *zap.Logger
}

// Runner executes submitted analyses in the background. At most MaxConcurrent
// analyses run at once; the rest wait in the queued state.
type Runner struct {
	store    *Store
	analyzer Analyzer
	render   RenderFunc
	sem      *semaphore.Weighted
	timeout  time.Duration
	log      *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	janitor sync.WaitGroup
	stop    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a runner that records progress in store.
func NewRunner(store *Store, analyzer Analyzer, render RenderFunc, cfg RunnerConfig) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:    store,
		analyzer: analyzer,
		render:   render,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		timeout:  cfg.JobTimeout,
		log:      logger.OrNop(cfg.Logger),
		ctx:      ctx,
		cancel:   cancel,
		stop:     make(chan struct{}),
	}
}

// Store returns the job store.
func (r *Runner) Store() *Store {
	return r.store
}

// Submit registers a job for in and starts it in the background. in.JobID is
// assigned by the runner.
func (r *Runner) Submit(in analysis.Input) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Status{}, ErrShuttingDown
	}

	status := r.store.Create(in.Filename)
	in.JobID = status.JobID

	r.wg.Add(1)
	go r.run(in)

	r.log.Info("job queued",
		zap.String(logger.FieldJobID, status.JobID),
		zap.String(logger.FieldFilename, in.Filename),
	)
	return status, nil
}

func (r *Runner) run(in analysis.Input) {
	defer r.wg.Done()
	log := logger.WithJob(r.log, in.JobID)

	defer func() {
		if p := recover(); p != nil {
			log.Error("analysis panicked", zap.Any("panic", p))
			r.store.Fail(in.JobID, errInternal)
		}
	}()

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		r.store.Fail(in.JobID, ErrShuttingDown)
		return
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	report, err := r.analyzer.Analyze(ctx, in, func(ev analysis.ProgressEvent) {
		r.store.SetProgress(in.JobID, ev)
		log.Debug("job progress",
			zap.String(logger.FieldStatus, string(ev.Stage)),
			zap.Int("progress", ev.Progress),
		)
	})
	if err != nil {
		log.Warn("analysis failed", zap.Error(err))
		r.store.Fail(in.JobID, err)
		return
	}

	html := ""
	if r.render != nil {
		html, err = r.render(report)
		if err != nil {
			log.Warn("report rendering failed", zap.Error(err))
			r.store.Fail(in.JobID, err)
			return
		}
	}

	r.store.Complete(in.JobID, report, html)
	log.Info("job done",
		zap.Float64("score", report.Scores.Total),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	)
}

// StartJanitor evicts expired jobs every interval until Shutdown.
func (r *Runner) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	r.janitor.Add(1)
	go func() {
		defer r.janitor.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.store.EvictExpired(); n > 0 {
					r.log.Debug("evicted expired jobs", zap.Int("count", n))
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Shutdown stops accepting jobs and waits for submitted analyses to finish.
// When ctx expires first, running analyses are cancelled and ctx's error is
// returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.stop)
	}
	r.mu.Unlock()
	r.janitor.Wait()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
