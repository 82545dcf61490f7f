// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-scorer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if gap := n - utf8.RuneCountInString(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(title, inner), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList appends up to limit items as bullets, summarising the rest.
func writeList(sb *strings.Builder, items []string, limit int) {
	if len(items) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		fmt.Fprintf(sb, "  • %s\n", items[i])
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

// PrintScores outputs the total score and its breakdown.
func (p *Printer) PrintScores(report *types.Report) {
	if report == nil {
		return
	}

	s := report.Scores
	var sb strings.Builder
	fmt.Fprintf(&sb, "File:        %s\n", report.Filename)
	fmt.Fprintf(&sb, "Total:       %.1f / 100\n\n", s.Total)
	fmt.Fprintf(&sb, "Keywords:    %.1f / 45\n", s.Breakdown.Keywords)
	fmt.Fprintf(&sb, "Formatting:  %.1f / 25\n", s.Breakdown.Formatting)
	fmt.Fprintf(&sb, "Content:     %.1f / 30", s.Breakdown.Content)

	p.printBox("COMPATIBILITY SCORE", sb.String())
}

// PrintKeywords outputs exact keyword coverage with present and missing terms.
func (p *Printer) PrintKeywords(ka *types.KeywordAnalysis) {
	if ka == nil {
		return
	}
	if len(ka.JDKeywords) == 0 {
		p.printBox("KEYWORD MATCH", "No job description keywords")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "JD keywords: %d   Coverage: %.2f%%\n\n", len(ka.JDKeywords), ka.Coverage)
	sb.WriteString("Present:\n")
	writeList(&sb, ka.Present, maxItemsToShow)
	sb.WriteString("\nMissing:\n")
	writeList(&sb, ka.Missing, maxItemsToShow)

	p.printBox("KEYWORD MATCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSemanticMatches outputs the highest-scoring semantic matches with evidence lines.
func (p *Printer) PrintSemanticMatches(ka *types.KeywordAnalysis) {
	if ka == nil || len(ka.SemanticMatches) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Semantic coverage: %.2f%%  (%d hits, %d misses)\n\n",
		ka.SemanticCoverage, len(ka.SemanticHits), len(ka.SemanticMisses))

	count := min(len(ka.SemanticMatches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := ka.SemanticMatches[i]
		fmt.Fprintf(&sb, "%-28s %.3f\n", truncate(m.Keyword, 28), m.Score)
		if m.BestLine != "" {
			fmt.Fprintf(&sb, "  ↳ %s\n", m.BestLine)
		}
	}
	if len(ka.SemanticMatches) > maxItemsToShow {
		fmt.Fprintf(&sb, "... and %d more matches", len(ka.SemanticMatches)-maxItemsToShow)
	}

	p.printBox("SEMANTIC MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFormatting outputs layout and content heuristics.
func (p *Printer) PrintFormatting(report *types.Report) {
	if report == nil {
		return
	}

	ff := report.FormattingFlags
	check := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "File type:   %s\n", ff.FileType)
	fmt.Fprintf(&sb, "Contact:     %s email  %s phone  %s linkedin\n",
		check(ff.ContactInfo.EmailDetected), check(ff.ContactInfo.PhoneDetected), check(ff.ContactInfo.LinkedInDetected))
	fmt.Fprintf(&sb, "Lines:       %d (short ratio %.2f)\n", ff.Readability.LineCount, ff.Readability.ShortLineRatio)
	if ff.PossibleMultiColumnLayout {
		sb.WriteString("Layout:      possible multi-column\n")
	}
	if len(ff.SectionPresence.MissingCoreSections) > 0 {
		fmt.Fprintf(&sb, "Missing:     %s\n", strings.Join(ff.SectionPresence.MissingCoreSections, ", "))
	}
	cs := report.ContentSignals
	fmt.Fprintf(&sb, "Bullets:     %d   Action verbs: %d   Numbers: %s",
		cs.BulletLines, cs.ActionVerbHits, check(cs.HasNumbers))

	p.printBox("FORMATTING & CONTENT", sb.String())
}

// PrintSuggestions outputs the suggestion list.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSuggestions(suggestions *types.Suggestions) {
	if suggestions == nil || len(suggestions.Items) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %s │\n", pad("✅ NO SUGGESTIONS", boxWidth-4))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, s := range suggestions.Items {
		fmt.Fprintf(&sb, "[%s] %s\n", s.Type, s.Title)
		if s.Detail != "" {
			fmt.Fprintf(&sb, "  %s\n", s.Detail)
		}
		if i < len(suggestions.Items)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SUGGESTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs every section of a report.
func (p *Printer) PrintReport(report *types.Report) {
	if report == nil {
		return
	}
	p.PrintScores(report)
	p.PrintKeywords(&report.KeywordAnalysis)
	p.PrintSemanticMatches(&report.KeywordAnalysis)
	p.PrintFormatting(report)
	p.PrintSuggestions(&report.Suggestions)
}
