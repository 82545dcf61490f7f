package scoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-scorer/internal/types"
)

// Suggestion list caps
const (
	maxMissingKeywords = 12
	maxSemanticMisses  = 10
)

// BuildSuggestions returns improvement items in fixed priority order:
// layout, core sections, bullets, quantification, exact keyword gaps, semantic gaps.
// At most one item is emitted per condition.
func BuildSuggestions(flags types.FormattingFlags, missingKeywords, semanticMisses []string, signals types.ContentSignals) types.Suggestions {
	items := []types.Suggestion{}

	if flags.PossibleMultiColumnLayout {
		items = append(items, types.Suggestion{
			Type:   types.SuggestionFormatting,
			Title:  "Avoid multi-column layout",
			Detail: "ATS systems can misread columns. Use a single-column layout with simple headings.",
		})
	}

	if missing := flags.SectionPresence.MissingCoreSections; len(missing) > 0 {
		items = append(items, types.Suggestion{
			Type:   types.SuggestionStructure,
			Title:  "Add core sections",
			Detail: fmt.Sprintf("Consider adding: %s with clear headings.", strings.Join(missing, ", ")),
		})
	}

	if signals.BulletLines < fewBulletsThreshold {
		items = append(items, types.Suggestion{
			Type:   types.SuggestionContent,
			Title:  "Add more bullet points with impact",
			Detail: "Use 3–6 bullets per role/project focusing on outcomes, tools, and measurable results.",
		})
	}

	if !signals.HasNumbers {
		items = append(items, types.Suggestion{
			Type:   types.SuggestionContent,
			Title:  "Quantify impact",
			Detail: "Add metrics: latency reduced, accuracy improved, cost reduced, users served, requests/day, etc.",
		})
	}

	if len(missingKeywords) > 0 {
		items = append(items, types.Suggestion{
			Type:   types.SuggestionKeywords,
			Title:  "Add missing keywords (exact matches)",
			Detail: "Try adding where true: " + strings.Join(head(missingKeywords, maxMissingKeywords), ", "),
		})
	}

	if len(semanticMisses) > 0 {
		items = append(items, types.Suggestion{
			Type:   types.SuggestionKeywords,
			Title:  "Add related skills/terms (semantic misses)",
			Detail: "These appear in JD but not in resume context: " + strings.Join(head(semanticMisses, maxSemanticMisses), ", "),
		})
	}

	return types.Suggestions{Items: items}
}

// ShortJobDescription is prepended when a job description was given but is too
// short to extract meaningful keywords from.
func ShortJobDescription() types.Suggestion {
	return types.Suggestion{
		Type:   types.SuggestionKeywords,
		Title:  "Job description too short",
		Detail: "Paste a full job description (at least 2–3 paragraphs) to get accurate keyword matching.",
	}
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
