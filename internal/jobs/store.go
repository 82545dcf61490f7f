// Package jobs tracks asynchronous analyses in memory for the lifetime of the process.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-scorer/internal/analysis"
	"github.com/jonathan/resume-scorer/internal/types"
)

// DefaultTTL is how long a finished job stays retrievable.
const DefaultTTL = 24 * time.Hour

// Status is a snapshot of a job's progress.
type Status struct {
	JobID     string         `json:"job_id"`
	Filename  string         `json:"filename"`
	State     analysis.Stage `json:"state"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Error     *string        `json:"error"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s.State == analysis.StageDone || s.State == analysis.StageError
}

type job struct {
	status  Status
	report  *types.Report
	html    string
	changed chan struct{} // closed and replaced on every update
}

// Store holds jobs keyed by ID. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*job
	ttl  time.Duration
	now  func() time.Time
}

// NewStore creates an empty store. A non-positive ttl uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		jobs: make(map[string]*job),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create registers a new queued job and returns its status.
func (s *Store) Create(filename string) Status {
	now := s.now()
	j := &job{
		status: Status{
			JobID:     uuid.NewString(),
			Filename:  filename,
			State:     analysis.StageQueued,
			Progress:  5,
			Message:   "Queued",
			CreatedAt: now,
			UpdatedAt: now,
		},
		changed: make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[j.status.JobID] = j
	s.mu.Unlock()
	return j.status
}

// SetProgress records a progress event. Finished jobs are not modified.
func (s *Store) SetProgress(id string, ev analysis.ProgressEvent) {
	s.update(id, func(j *job) {
		j.status.State = ev.Stage
		j.status.Progress = ev.Progress
		j.status.Message = ev.Message
	})
}

// Complete stores the report and its HTML rendering and marks the job done.
func (s *Store) Complete(id string, report *types.Report, html string) {
	s.update(id, func(j *job) {
		j.report = report
		j.html = html
		j.status.State = analysis.StageDone
		j.status.Progress = 100
		j.status.Message = "Done"
	})
}

// Fail marks the job as failed with err's message.
func (s *Store) Fail(id string, err error) {
	msg := err.Error()
	s.update(id, func(j *job) {
		j.status.State = analysis.StageError
		j.status.Progress = 100
		j.status.Message = "Failed"
		j.status.Error = &msg
	})
}

func (s *Store) update(id string, fn func(*job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.status.Terminal() {
		return
	}
	fn(j)
	j.status.UpdatedAt = s.now()
	close(j.changed)
	j.changed = make(chan struct{})
}

// Status returns the current status of a job.
func (s *Store) Status(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Status{}, false
	}
	return j.status, true
}

// Watch returns the current status and a channel that is closed on the next
// update of the job.
func (s *Store) Watch(id string) (Status, <-chan struct{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Status{}, nil, false
	}
	return j.status, j.changed, true
}

// Result returns the report of a finished job.
func (s *Store) Result(id string) (*types.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok || j.report == nil {
		return nil, false
	}
	return j.report, true
}

// ReportHTML returns the rendered HTML report of a finished job.
func (s *Store) ReportHTML(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok || j.report == nil {
		return "", false
	}
	return j.html, true
}

// EvictExpired removes finished jobs not updated within the TTL and returns
// how many were removed. Running jobs are never evicted.
func (s *Store) EvictExpired() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, j := range s.jobs {
		if j.status.Terminal() && j.status.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
