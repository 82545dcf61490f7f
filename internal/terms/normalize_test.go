package terms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Collapse and lower", "  Python   Dev ", "python dev"},
		{"Tabs and newlines", "Machine\tLearning\n", "machine learning"},
		{"Non-breaking space", "Google\u00a0Cloud", "google cloud"},
		{"Symbols kept", "C++ / C#", "c++ / c#"},
		{"Decomposed accent", "Re\u0301sume\u0301", "r\u00e9sum\u00e9"},
		{"Empty string", "", ""},
		{"Whitespace only", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, result, Normalize(result), "should be idempotent")
		})
	}
}

func TestNormalize_IdempotentOutsideBMP(t *testing.T) {
	// a supplementary-plane letter followed by a combining mark
	inputs := []string{"\U00010043\u0301", "\U00010041\u0300x", "\U0001D400\u0301"}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "%+q", in)
		assert.Equal(t, strings.ToLower(once), once, "%+q", in)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "caf\u00e9 pos\n  rollout", Fold("Cafe\u0301 POS\n  Rollout"))
	assert.Equal(t, "", Fold(""))
}

func TestUniqueTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "Dedupes by normalized form keeping first",
			input:    []string{"AWS", "Docker", " aws ", "docker", "Kubernetes"},
			expected: []string{"aws", "docker", "kubernetes"},
		},
		{
			name:     "Skips blanks",
			input:    []string{"", "  ", "go"},
			expected: []string{"go"},
		},
		{
			name:     "Nil input",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UniqueTerms(tt.input))
		})
	}
}
