// Package formatting derives layout and contact heuristics from extracted résumé text.
package formatting

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-scorer/internal/types"
	"github.com/jonathan/resume-scorer/internal/vocab"
)

const (
	// ShortLineLength is the longest line counted as short.
	ShortLineLength = 25
	// MultiColumnRatio is the short-line ratio above which a PDF is flagged as multi-column.
	MultiColumnRatio = 0.45
)

var (
	emailPattern = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d \-()]{8,}\d`)
)

// Detect inspects raw résumé text. ext is the lower-cased file extension
// including the dot (".pdf"); the multi-column heuristic only applies to PDFs,
// where column layouts come out as many short lines.
func Detect(ext, rawText string, v *vocab.Vocabulary) types.FormattingFlags {
	t := strings.ToLower(rawText)

	var lines []string
	for _, ln := range strings.Split(rawText, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}

	ratio := 0.0
	if len(lines) > 0 {
		short := 0
		for _, ln := range lines {
			if utf8.RuneCountInString(ln) <= ShortLineLength {
				short++
			}
		}
		ratio = float64(short) / float64(len(lines))
	}

	detected := []string{}
	for _, s := range v.SectionHints() {
		if strings.Contains(t, s) {
			detected = append(detected, s)
		}
	}
	missing := []string{}
	for _, s := range v.CoreSections() {
		if !contains(detected, s) {
			missing = append(missing, s)
		}
	}

	return types.FormattingFlags{
		FileType: ext,
		ContactInfo: types.ContactInfo{
			EmailDetected:    emailPattern.MatchString(t),
			PhoneDetected:    phonePattern.MatchString(t),
			LinkedInDetected: strings.Contains(t, "linkedin.com"),
		},
		PossibleMultiColumnLayout: ext == ".pdf" && ratio > MultiColumnRatio,
		SectionPresence: types.SectionPresence{
			DetectedSections:    detected,
			MissingCoreSections: missing,
		},
		Readability: types.Readability{
			LineCount:      len(lines),
			ShortLineRatio: math.Round(ratio*1000) / 1000,
		},
	}
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
