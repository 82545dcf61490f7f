package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_FieldNames(t *testing.T) {
	jd := "Looking for AWS"
	report := Report{
		JobID:                 "job-1",
		Filename:              "cv.pdf",
		JobDescriptionPreview: &jd,
		Scores: Scores{
			Total:     71.5,
			Breakdown: ScoreBreakdown{Keywords: 30, Formatting: 22, Content: 19.5},
		},
		KeywordAnalysis: KeywordAnalysis{
			Present: []string{"aws"},
			SemanticMatches: []SemanticMatch{
				{Keyword: "aws", Score: 0.9, BestLine: "Deployed on AWS"},
			},
		},
		FormattingFlags: FormattingFlags{
			FileType:                  ".pdf",
			PossibleMultiColumnLayout: true,
			SectionPresence:           SectionPresence{MissingCoreSections: []string{"summary"}},
		},
		Suggestions: Suggestions{Items: []Suggestion{{Type: SuggestionStructure, Title: "t", Detail: "d"}}},
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)
	s := string(data)

	assert.Contains(t, s, `"job_description_preview":"Looking for AWS"`)
	assert.Contains(t, s, `"breakdown":{"keywords":30,"formatting":22,"content":19.5}`)
	assert.Contains(t, s, `"best_line":"Deployed on AWS"`)
	assert.Contains(t, s, `"possible_multi_column_layout":true`)
	assert.Contains(t, s, `"missing_core_sections":["summary"]`)
	assert.Contains(t, s, `"items":[{"type":"structure","title":"t","detail":"d"}]`)
}

func TestReport_NilJobDescriptionPreviewIsNull(t *testing.T) {
	data, err := json.Marshal(Report{JobID: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_description_preview":null`)
}
