package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-scorer/internal/analysis"
	"github.com/jonathan/resume-scorer/internal/ingestion"
	"github.com/jonathan/resume-scorer/internal/jobs"
	"github.com/jonathan/resume-scorer/internal/logger"
)

const (
	// multipartMemory is the part size kept in memory; larger parts spill to disk.
	multipartMemory = 1 << 20
	// multipartOverhead allows for form fields and boundaries around the file.
	multipartOverhead = 1 << 20
)

// allowedUploads are the résumé formats accepted over HTTP.
var allowedUploads = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// AnalyzeResponse is returned when an analysis is queued.
type AnalyzeResponse struct {
	Status bool   `json:"status"`
	JobID  string `json:"job_id"`
}

// StatusResponse represents the response for /api/status
type StatusResponse struct {
	Status   bool           `json:"status"`
	JobID    string         `json:"job_id"`
	State    analysis.Stage `json:"state"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
	Error    *string        `json:"error"`
}

func newStatusResponse(st jobs.Status) StatusResponse {
	return StatusResponse{
		Status:   true,
		JobID:    st.JobID,
		State:    st.State,
		Progress: st.Progress,
		Message:  st.Message,
		Error:    st.Error,
	}
}

// handleRoot returns service information
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "ATS Resume Optimizer",
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleAnalyze accepts a résumé upload and queues its analysis.
//
// Form fields: resume (file, required), job_description (text),
// job_description_url and use_browser (fetch the description from a posting).
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.errorResponse(w, errUploadTooLarge)
			return
		}
		s.errorResponse(w, errInvalidForm)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.errorResponse(w, errMissingResume)
		return
	}
	defer func() { _ = file.Close() }()

	if !allowedUploads[ingestion.Ext(header.Filename)] {
		s.errorResponse(w, errUnsupportedUpload)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if int64(len(data)) > s.maxUpload {
		s.errorResponse(w, errUploadTooLarge)
		return
	}

	jd := r.FormValue("job_description")
	if jdURL := strings.TrimSpace(r.FormValue("job_description_url")); jdURL != "" && strings.TrimSpace(jd) == "" {
		if s.fetcher == nil {
			s.errorResponse(w, errURLNotSupported)
			return
		}
		useBrowser, _ := strconv.ParseBool(r.FormValue("use_browser"))
		text, _, err := ingestion.FromURL(r.Context(), s.fetcher, jdURL, useBrowser, s.log)
		if err != nil {
			s.log.Warn("job description fetch failed", zap.String(logger.FieldURL, jdURL), zap.Error(err))
			s.errorResponse(w, err)
			return
		}
		jd = text
	}

	status, err := s.runner.Submit(analysis.Input{
		Filename:       header.Filename,
		Data:           data,
		JobDescription: jd,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, AnalyzeResponse{Status: true, JobID: status.JobID})
}

// handleStatus returns the progress of an analysis
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.Status(r.PathValue("job_id"))
	if !ok {
		s.errorResponse(w, errJobNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, newStatusResponse(st))
}

// handleStatusStream streams status changes via SSE until the job finishes
// or the client disconnects.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	st, changed, ok := s.store.Watch(jobID)
	if !ok {
		s.errorResponse(w, errJobNotFound)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	for {
		if err := stream.status(newStatusResponse(st)); err != nil {
			s.log.Debug("status stream closed", zap.String(logger.FieldJobID, jobID), zap.Error(err))
			return
		}
		if st.Terminal() {
			stream.complete(jobID, st.State)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-changed:
		}

		st, changed, ok = s.store.Watch(jobID)
		if !ok {
			stream.fail(errJobNotFound.Detail)
			return
		}
	}
}

// handleResult returns the JSON report of a finished analysis
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	report, ok := s.store.Result(r.PathValue("job_id"))
	if !ok {
		s.errorResponse(w, errResultNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleReport returns the HTML report of a finished analysis
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	html, ok := s.store.ReportHTML(r.PathValue("job_id"))
	if !ok || html == "" {
		s.errorResponse(w, errReportNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, html); err != nil {
		s.log.Debug("failed to write report", zap.Error(err))
	}
}

// handleDownload returns the report of a finished analysis as a PDF attachment
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	html, ok := s.store.ReportHTML(jobID)
	if !ok || html == "" {
		s.errorResponse(w, errReportNotFound)
		return
	}
	if s.printPDF == nil {
		s.errorResponse(w, errPDFNotSupported)
		return
	}

	pdf, err := s.printPDF(r.Context(), html)
	if err != nil {
		s.errorResponse(w, fmt.Errorf("failed to print report %s: %w", jobID, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ATS_Report_%s.pdf"`, jobID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		s.log.Debug("failed to write pdf", zap.Error(err))
	}
}
