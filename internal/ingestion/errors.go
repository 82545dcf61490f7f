package ingestion

import (
	"errors"
	"fmt"
)

// MaxFileBytes is the largest résumé upload accepted.
const MaxFileBytes = 10 << 20

var (
	// ErrFileTooLarge is returned when a document exceeds MaxFileBytes
	ErrFileTooLarge = errors.New("file too large (max 10MB)")
	// ErrHTTPRequestFailed is returned when a job description URL cannot be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrEmptyContent is returned when a fetched page yields no text
	ErrEmptyContent = errors.New("no text content found")
)

// UnsupportedFormatError is returned for file extensions that cannot be read.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported file format: missing extension"
	}
	return fmt.Sprintf("unsupported file format %q", e.Ext)
}

// ExtractionError wraps a failure while reading a document of a supported format.
type ExtractionError struct {
	Filename string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Filename, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
