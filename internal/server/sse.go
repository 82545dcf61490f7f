package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-scorer/internal/analysis"
)

// Stream event names
const (
	eventStatus   = "status"
	eventComplete = "complete"
	eventError    = "error"
)

// sseRetryMillis is the reconnect delay suggested to EventSource clients.
const sseRetryMillis = 3000

var errStreamingUnsupported = errors.New("streaming not supported")

// eventStream writes the Server-Sent Events of one job's status stream.
// Events carry increasing ids so a reconnecting client can tell them apart.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

// newEventStream sends the stream headers and the retry hint.
func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillis); err != nil {
		return nil, err
	}
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher, nextID: 1}, nil
}

func (s *eventStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, data); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

// status sends the current job status.
func (s *eventStream) status(st StatusResponse) error {
	return s.send(eventStatus, st)
}

// complete sends the final event once the job reached a terminal state.
func (s *eventStream) complete(jobID string, state analysis.Stage) {
	_ = s.send(eventComplete, struct {
		JobID string         `json:"job_id"`
		State analysis.Stage `json:"state"`
	}{jobID, state})
}

// fail sends an error event; the stream ends after it.
func (s *eventStream) fail(detail string) {
	_ = s.send(eventError, map[string]string{"detail": detail})
}
