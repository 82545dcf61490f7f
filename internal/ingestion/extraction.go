package ingestion

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// SupportedExtensions lists the résumé formats ExtractResumeText can read.
var SupportedExtensions = []string{".pdf", ".docx", ".txt", ".md"}

var (
	xmlTags     = regexp.MustCompile(`<[^>]+>`)
	xmlNewlines = strings.NewReplacer("\r", "", "\n", "")
	docxBreaks  = strings.NewReplacer(
		"</w:p>", "\n",
		"<w:br/>", "\n",
		"<w:cr/>", "\n",
		"<w:tab/>", "\t",
	)
)

// Ext returns the lowercase extension of filename, including the dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsSupported reports whether filename has a readable résumé extension.
func IsSupported(filename string) bool {
	ext := Ext(filename)
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ExtractResumeText extracts cleaned plain text from an uploaded document.
// The format is chosen by the extension of filename.
func ExtractResumeText(filename string, data []byte) (string, error) {
	if len(data) > MaxFileBytes {
		return "", ErrFileTooLarge
	}

	var (
		text string
		err  error
	)
	switch ext := Ext(filename); ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDocx(data)
	case ".txt", ".md":
		text = decodeUTF8(data)
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
	if err != nil {
		return "", &ExtractionError{Filename: filepath.Base(filename), Cause: err}
	}
	return CleanText(text), nil
}

// ReadResumeFile reads path from disk and extracts its text.
func ReadResumeFile(path string) (string, error) {
	if !IsSupported(path) {
		return "", &UnsupportedFormatError{Ext: Ext(path)}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxFileBytes {
		return "", ErrFileTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return ExtractResumeText(path, data)
}

// ReadTextFile reads a plain-text file such as a saved job description.
func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return CleanText(decodeUTF8(data)), nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()

		docXML, err := io.ReadAll(io.LimitReader(rc, 4*MaxFileBytes))
		if err != nil {
			return "", err
		}
		text := xmlNewlines.Replace(string(docXML))
		text = docxBreaks.Replace(text)
		text = xmlTags.ReplaceAllString(text, "")
		return html.UnescapeString(text), nil
	}
	return "", fmt.Errorf("no word/document.xml in archive")
}

func decodeUTF8(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
