package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scorer/internal/analysis"
	"github.com/jonathan/resume-scorer/internal/fetch"
	"github.com/jonathan/resume-scorer/internal/jobs"
	"github.com/jonathan/resume-scorer/internal/rendering"
	"github.com/jonathan/resume-scorer/internal/server/ratelimit"
	"github.com/jonathan/resume-scorer/internal/types"
)

// stubAnalyzer records its inputs and returns a fixed report.
type stubAnalyzer struct {
	release chan struct{}
	inputs  chan analysis.Input
}

func newStubAnalyzer() *stubAnalyzer {
	return &stubAnalyzer{inputs: make(chan analysis.Input, 16)}
}

func (a *stubAnalyzer) Analyze(ctx context.Context, in analysis.Input, onProgress analysis.ProgressCallback) (*types.Report, error) {
	a.inputs <- in
	onProgress(analysis.ProgressEvent{Stage: analysis.StageParsing, Progress: 10, Message: "Parsing resume..."})
	if a.release != nil {
		select {
		case <-a.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &types.Report{
		JobID:       in.JobID,
		Filename:    in.Filename,
		Scores:      types.Scores{Total: 64},
		GeneratedAt: "2026-03-01T12:00:00Z",
	}, nil
}

type stubFetcher struct {
	page *fetch.Page
	err  error
}

func (f *stubFetcher) JobDescription(_ context.Context, _ string, _ bool) (*fetch.Page, error) {
	return f.page, f.err
}

func newTestServer(t *testing.T, analyzer jobs.Analyzer, mutate func(*Config)) *Server {
	t.Helper()
	runner := jobs.NewRunner(jobs.NewStore(0), analyzer, rendering.RenderHTML, jobs.RunnerConfig{})
	cfg := Config{Runner: runner, RateLimit: ratelimit.DefaultConfig()}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
		s.rateLimiter.Stop()
	})
	return s
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func submit(t *testing.T, s *Server, fields map[string]string) string {
	t.Helper()
	rec := serve(s, uploadRequest(t, "cv.pdf", []byte("%PDF-1.4"), fields))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	require.NotEmpty(t, resp.JobID)
	return resp.JobID
}

func waitForState(t *testing.T, s *Server, jobID string, want analysis.Stage) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, _ := s.store.Status(jobID)
		return st.State == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNew_RequiresRunner(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t, newStubAnalyzer(), nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"ATS Resume Optimizer"}`, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"), "health is not rate limited")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyze_CompletesJob(t *testing.T) {
	analyzer := newStubAnalyzer()
	s := newTestServer(t, analyzer, nil)

	jobID := submit(t, s, map[string]string{"job_description": "Go engineer"})

	in := <-analyzer.inputs
	assert.Equal(t, "cv.pdf", in.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), in.Data)
	assert.Equal(t, "Go engineer", in.JobDescription)

	waitForState(t, s, jobID, analysis.StageDone)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/status/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Status)
	assert.Equal(t, jobID, status.JobID)
	assert.Equal(t, analysis.StageDone, status.State)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, "Done", status.Message)
	assert.Nil(t, status.Error)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/result/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report types.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, jobID, report.JobID)
	assert.Equal(t, 64.0, report.Scores.Total)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/report/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Filename: cv.pdf")
}

func TestAnalyze_Validation(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantDetail string
	}{
		{
			name: "unsupported extension",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "cv.txt", []byte("plain"), nil)
			},
			wantDetail: "Only PDF or DOCX supported.",
		},
		{
			name: "missing resume",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", nil, map[string]string{"job_description": "x"})
			},
			wantDetail: "resume file is required",
		},
		{
			name: "not multipart",
			req: func(*testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"resume":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantDetail: "Invalid multipart form",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "cv.docx", bytes.Repeat([]byte("x"), 100), nil)
			},
			wantDetail: "File too large (max 10MB).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, newStubAnalyzer(), func(c *Config) { c.MaxUploadBytes = 64 })

			rec := serve(s, tt.req(t))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"detail":"`+tt.wantDetail+`"}`, rec.Body.String())
			assert.Zero(t, s.store.Len(), "no job is created")
		})
	}
}

func TestAnalyze_JobDescriptionURL(t *testing.T) {
	t.Run("fetched text is analyzed", func(t *testing.T) {
		analyzer := newStubAnalyzer()
		f := &stubFetcher{page: &fetch.Page{Text: "  Staff Engineer\n\nWe run Kubernetes.  ", Platform: fetch.PlatformLever}}
		s := newTestServer(t, analyzer, func(c *Config) { c.Fetcher = f })

		submit(t, s, map[string]string{"job_description_url": "https://jobs.lever.co/acme/1", "use_browser": "true"})
		in := <-analyzer.inputs
		assert.Equal(t, "Staff Engineer\n\nWe run Kubernetes.", in.JobDescription)
	})

	t.Run("pasted text wins", func(t *testing.T) {
		analyzer := newStubAnalyzer()
		f := &stubFetcher{err: errors.New("should not be called")}
		s := newTestServer(t, analyzer, func(c *Config) { c.Fetcher = f })

		submit(t, s, map[string]string{"job_description": "pasted", "job_description_url": "https://x"})
		assert.Equal(t, "pasted", (<-analyzer.inputs).JobDescription)
	})

	t.Run("fetch failure", func(t *testing.T) {
		f := &stubFetcher{err: &fetch.Error{URL: "https://x", Message: "HTTP 502", Retryable: true}}
		s := newTestServer(t, newStubAnalyzer(), func(c *Config) { c.Fetcher = f })

		rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), map[string]string{"job_description_url": "https://x"}))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("empty page", func(t *testing.T) {
		f := &stubFetcher{page: &fetch.Page{Text: " \n "}}
		s := newTestServer(t, newStubAnalyzer(), func(c *Config) { c.Fetcher = f })

		rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), map[string]string{"job_description_url": "https://x"}))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("no fetcher", func(t *testing.T) {
		s := newTestServer(t, newStubAnalyzer(), nil)

		rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), map[string]string{"job_description_url": "https://x"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNotFound(t *testing.T) {
	analyzer := newStubAnalyzer()
	analyzer.release = make(chan struct{})
	s := newTestServer(t, analyzer, nil)
	defer close(analyzer.release)

	jobID := submit(t, s, nil)
	waitForState(t, s, jobID, analysis.StageParsing)

	tests := []struct {
		path       string
		wantDetail string
	}{
		{"/api/status/unknown", "Job not found"},
		{"/api/status/unknown/stream", "Job not found"},
		{"/api/result/unknown", "Result not found"},
		{"/api/result/" + jobID, "Result not found"},
		{"/api/report/" + jobID, "Report not found"},
		{"/api/download/" + jobID, "Report not found"},
		{"/api/download/unknown", "Report not found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"detail":"`+tt.wantDetail+`"}`, rec.Body.String())
		})
	}
}

// fakePDF records the HTML it is asked to print.
type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) print(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 report"), nil
}

func TestDownload(t *testing.T) {
	t.Run("finished job is printed as an attachment", func(t *testing.T) {
		pdf := &fakePDF{}
		s := newTestServer(t, newStubAnalyzer(), func(c *Config) { c.PDF = pdf.print })
		jobID := submit(t, s, nil)
		waitForState(t, s, jobID, analysis.StageDone)

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/download/"+jobID, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="ATS_Report_`+jobID+`.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.7 report", rec.Body.String())
		assert.Contains(t, pdf.html, "Filename: cv.pdf", "the stored HTML report is printed")
	})

	t.Run("printer failure", func(t *testing.T) {
		pdf := &fakePDF{err: errors.New("chrome not found")}
		s := newTestServer(t, newStubAnalyzer(), func(c *Config) { c.PDF = pdf.print })
		jobID := submit(t, s, nil)
		waitForState(t, s, jobID, analysis.StageDone)

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/download/"+jobID, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})

	t.Run("no printer", func(t *testing.T) {
		s := newTestServer(t, newStubAnalyzer(), nil)
		jobID := submit(t, s, nil)
		waitForState(t, s, jobID, analysis.StageDone)

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/download/"+jobID, nil))
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestRateLimit_AnalyzeDaily(t *testing.T) {
	s := newTestServer(t, newStubAnalyzer(), nil)

	for i := 0; i < 5; i++ {
		rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), nil))
		require.Equal(t, http.StatusOK, rec.Code, "analysis %d", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"Rate limit exceeded: 5 free uses/day per IP."}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	s := newTestServer(t, newStubAnalyzer(), func(c *Config) {
		c.RateLimit = &ratelimit.Config{Enabled: false}
	})

	for i := 0; i < 8; i++ {
		rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    string
		origin     string
		wantHeader string
	}{
		{"default origin", "", "http://localhost:3000", "http://localhost:3000"},
		{"other origin", "", "https://evil.example", ""},
		{"configured origin", "https://ats.example", "https://ats.example", "https://ats.example"},
		{"wildcard", "*", "https://any.example", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, newStubAnalyzer(), func(c *Config) { c.AllowedOrigin = tt.allowed })

			req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(s, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestStatusStream(t *testing.T) {
	analyzer := newStubAnalyzer()
	analyzer.release = make(chan struct{})
	s := newTestServer(t, analyzer, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	jobID := submit(t, s, nil)
	waitForState(t, s, jobID, analysis.StageParsing)

	resp, err := http.Get(ts.URL + "/api/status/" + jobID + "/stream")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	close(analyzer.release)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	stream := string(body)
	assert.True(t, strings.HasPrefix(stream, "retry: 3000\n\nid: 1\nevent: status\n"))
	assert.Contains(t, stream, `"state":"parsing"`)
	assert.Contains(t, stream, `"state":"done"`)
	assert.True(t, strings.HasSuffix(stream, "event: complete\ndata: {\"job_id\":\""+jobID+"\",\"state\":\"done\"}\n\n"))
}

func TestShutdown_RejectsNewJobs(t *testing.T) {
	s := newTestServer(t, newStubAnalyzer(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	rec := serve(s, uploadRequest(t, "cv.pdf", []byte("x"), nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitMessage(t *testing.T) {
	tests := []struct {
		info ratelimit.Info
		want string
	}{
		{ratelimit.Info{Limit: 5, Window: 24 * time.Hour}, "Rate limit exceeded: 5 free uses/day per IP."},
		{ratelimit.Info{Limit: 100, Window: time.Minute}, "Rate limit exceeded: 100 requests per 1m0s per IP."},
		{ratelimit.Info{}, "Rate limit exceeded."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rateLimitMessage(tt.info))
	}
}
