// Package ingestion turns uploaded résumés and job descriptions into clean plain text.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// CleanText normalizes extracted text while preserving its line structure.
// NUL bytes become spaces, line endings become LF, runs of spaces collapse,
// and at most one blank line is kept between blocks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\x00", " ")
	content = lineEndings.Replace(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses inner whitespace and keeps up to the original indentation.
// Markdown headings lose their indentation.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t\f\v")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return innerSpace.ReplaceAllString(trimmed, " ")
	}

	indent := len(line) - len(trimmed)
	content := innerSpace.ReplaceAllString(trimmed, " ")
	if indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
