package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-scorer/internal/ingestion"
	"github.com/jonathan/resume-scorer/internal/jobs"
)

// RequestError is a client error reported with its detail message.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	return e.Detail
}

var (
	errUnsupportedUpload = &RequestError{Status: http.StatusBadRequest, Detail: "Only PDF or DOCX supported."}
	errUploadTooLarge    = &RequestError{Status: http.StatusBadRequest, Detail: "File too large (max 10MB)."}
	errMissingResume     = &RequestError{Status: http.StatusBadRequest, Detail: "resume file is required"}
	errInvalidForm       = &RequestError{Status: http.StatusBadRequest, Detail: "Invalid multipart form"}
	errURLNotSupported   = &RequestError{Status: http.StatusBadRequest, Detail: "job_description_url is not supported by this server"}
	errJobNotFound       = &RequestError{Status: http.StatusNotFound, Detail: "Job not found"}
	errResultNotFound    = &RequestError{Status: http.StatusNotFound, Detail: "Result not found"}
	errReportNotFound    = &RequestError{Status: http.StatusNotFound, Detail: "Report not found"}
	errPDFNotSupported   = &RequestError{Status: http.StatusNotImplemented, Detail: "PDF download is not supported by this server"}
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var reqErr *RequestError
	var unsupported *ingestion.UnsupportedFormatError
	var maxBytes *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &reqErr):
		return reqErr.Status
	case errors.As(err, &unsupported), errors.As(err, &maxBytes), errors.Is(err, ingestion.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, ingestion.ErrEmptyContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ingestion.ErrHTTPRequestFailed):
		return http.StatusBadGateway
	case errors.Is(err, jobs.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorDetail is the message shown to clients. Internal failures are not
// described.
func errorDetail(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
