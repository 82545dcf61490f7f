// Package types provides type definitions for the structured report produced by an analysis.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ExactMatch is the result of literal keyword matching against résumé text.
type ExactMatch struct {
	Present  []string `json:"present"`
	Missing  []string `json:"missing"`
	Coverage float64  `json:"coverage"` // 0-100, two decimals
}

// SemanticMatch is the best similarity found for one keyword.
type SemanticMatch struct {
	Keyword  string  `json:"keyword"`
	Score    float64 `json:"score"`     // 0.0-1.0
	BestLine string  `json:"best_line"` // empty when the winning source was a résumé term
}

// SemanticResult is the result of embedding-based keyword matching.
type SemanticResult struct {
	Matches  []SemanticMatch `json:"semantic_matches"`
	Hits     []string        `json:"semantic_hits"`
	Misses   []string        `json:"semantic_misses"`
	Coverage float64         `json:"semantic_coverage"`
}

// ScoreBreakdown holds the independently clamped sub-scores.
type ScoreBreakdown struct {
	Keywords   float64 `json:"keywords"`   // 0-45
	Formatting float64 `json:"formatting"` // 0-25
	Content    float64 `json:"content"`    // 0-30
}

// Scores is the composed score and its breakdown.
type Scores struct {
	Total     float64        `json:"total"` // 0-100
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// ContactInfo records which contact details were detected.
type ContactInfo struct {
	EmailDetected    bool `json:"email_detected"`
	PhoneDetected    bool `json:"phone_detected"`
	LinkedInDetected bool `json:"linkedin_detected"`
}

// SectionPresence records detected and missing résumé sections.
type SectionPresence struct {
	DetectedSections    []string `json:"detected_sections"`
	MissingCoreSections []string `json:"missing_core_sections"`
}

// Readability holds layout statistics of the extracted text.
type Readability struct {
	LineCount      int     `json:"line_count"`
	ShortLineRatio float64 `json:"short_line_ratio"`
}

// FormattingFlags describes layout heuristics over the raw résumé text.
type FormattingFlags struct {
	FileType                  string          `json:"file_type"`
	ContactInfo               ContactInfo     `json:"contact_info"`
	PossibleMultiColumnLayout bool            `json:"possible_multi_column_layout"`
	SectionPresence           SectionPresence `json:"section_presence"`
	Readability               Readability     `json:"readability"`
}

// ContentSignals are simple content-quality counts over the résumé text.
type ContentSignals struct {
	BulletLines    int  `json:"bullet_lines"`
	HasNumbers     bool `json:"has_numbers"`
	ActionVerbHits int  `json:"action_verb_hits"`
}

// Suggestion types
const (
	SuggestionFormatting = "formatting"
	SuggestionStructure  = "structure"
	SuggestionContent    = "content"
	SuggestionKeywords   = "keywords"
)

// Suggestion is one improvement item shown to the user.
type Suggestion struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Suggestions wraps the ordered suggestion list.
type Suggestions struct {
	Items []Suggestion `json:"items"`
}

// KeywordAnalysis combines exact and semantic keyword results for the report.
type KeywordAnalysis struct {
	Present          []string        `json:"present"`
	Missing          []string        `json:"missing"`
	Coverage         float64         `json:"coverage"`
	JDKeywords       []string        `json:"jd_keywords"`
	SemanticHits     []string        `json:"semantic_hits"`
	SemanticMisses   []string        `json:"semantic_misses"`
	SemanticCoverage float64         `json:"semantic_coverage"`
	SemanticMatches  []SemanticMatch `json:"semantic_matches"`
}

// Report is the payload handed to rendering, the JSON API and the CLI.
type Report struct {
	JobID                 string          `json:"job_id"`
	Filename              string          `json:"filename"`
	ResumeTextPreview     string          `json:"resume_text_preview"`
	JobDescriptionPreview *string         `json:"job_description_preview"`
	Scores                Scores          `json:"scores"`
	KeywordAnalysis       KeywordAnalysis `json:"keyword_analysis"`
	FormattingFlags       FormattingFlags `json:"formatting_flags"`
	ContentSignals        ContentSignals  `json:"content_signals"`
	Suggestions           Suggestions     `json:"suggestions"`
	GeneratedAt           string          `json:"generated_at"`
}
