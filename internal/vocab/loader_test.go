package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsTables(t *testing.T) {
	ClearCache()

	v, err := Default()
	require.NoError(t, err)

	patterns := v.SkillPatterns()
	require.NotEmpty(t, patterns)
	assert.Equal(t, "aws", patterns[0], "patterns keep table order")
	assert.Contains(t, patterns, "kubernetes")
	assert.Contains(t, patterns, "postgresql")

	assert.Len(t, v.Categories(), 3)
	assert.Equal(t, []string{"summary", "skills", "experience", "education"}, v.CoreSections())
	assert.Contains(t, v.ActionVerbs(), "deployed")
}

func TestStopWords(t *testing.T) {
	v := MustDefault()

	assert.True(t, v.IsStopWord("experience"))
	assert.False(t, v.IsStopWord("python"))
	assert.True(t, v.AllStopWords("strong experience with"))
	assert.False(t, v.AllStopWords("strong python"))
	assert.True(t, v.AllStopWords(""))
}

func TestContainsJunk_WholeWords(t *testing.T) {
	v := MustDefault()

	assert.True(t, v.ContainsJunk("5 years of experience"))
	assert.True(t, v.ContainsJunk("great benefits"))
	assert.False(t, v.ContainsJunk("fetch api"), "etc must not match inside fetch")
}

func TestHasTechnicalMarker(t *testing.T) {
	v := MustDefault()

	tests := []struct {
		term string
		want bool
	}{
		{"c++", true},
		{"node.js", true},
		{"ci/cd pipelines", true},
		{"postgresql tuning", true},
		{"kubernetes", true},
		{"team lead", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, v.HasTechnicalMarker(tt.term))
		})
	}
}

func TestSectionHeadersAndBoilerplate(t *testing.T) {
	v := MustDefault()

	assert.True(t, v.IsSectionHeader("skills"))
	assert.True(t, v.IsSectionHeader("experience:"))
	assert.False(t, v.IsSectionHeader("skills in go"))
	assert.True(t, v.ContainsBoilerplate("this is a full time role"))
	assert.False(t, v.ContainsBoilerplate("built a full pipeline"))
}

func TestFromFile_ExtendsDefaults(t *testing.T) {
	content := `{
		"skill_patterns": [
			{"category": "database", "terms": ["cassandra"]},
			{"category": "languages", "terms": ["golang", "rust"]}
		],
		"stop_words": ["team"],
		"action_verbs": ["shipped"]
	}`
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v, err := FromFile(path)
	require.NoError(t, err)

	assert.Contains(t, v.SkillPatterns(), "cassandra")
	assert.Contains(t, v.SkillPatterns(), "rust")
	assert.Len(t, v.Categories(), 4)
	assert.True(t, v.IsStopWord("team"))
	assert.True(t, v.IsStopWord("and"), "defaults are kept")
	assert.Contains(t, v.ActionVerbs(), "shipped")
	assert.Contains(t, v.ActionVerbs(), "built")
}

func TestFromFile_LowerCasesOverrides(t *testing.T) {
	content := `{
		"skill_patterns": [{"category": "cloud", "terms": ["  OpenStack "]}],
		"stop_words": ["Team"],
		"junk_phrases": ["Fast Paced"],
		"technical_markers": ["SDK"],
		"section_headers": ["Publications"],
		"boilerplate": ["Relocation Package"],
		"action_verbs": ["Shipped", "shipped", " "]
	}`
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v, err := FromFile(path)
	require.NoError(t, err)

	tests := []struct {
		name string
		got  bool
	}{
		{"skill pattern", contains(v.SkillPatterns(), "openstack")},
		{"stop word", v.IsStopWord("team")},
		{"junk phrase", v.ContainsJunk("fast paced environment")},
		{"technical marker", v.HasTechnicalMarker("payments sdk")},
		{"section header", v.IsSectionHeader("publications:")},
		{"boilerplate", v.ContainsBoilerplate("generous relocation package")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.got)
		})
	}

	assert.Equal(t, 1, countOf(v.ActionVerbs(), "shipped"), "verbs are deduped after lower-casing")
	assert.NotContains(t, v.ActionVerbs(), "")
	assert.Equal(t, 1, v.CountActionVerbs("shipped the release twice; shipped again"))
}

func TestCountActionVerbs(t *testing.T) {
	v := MustDefault()

	tests := []struct {
		text string
		want int
	}{
		{"built and deployed the api", 2},
		{"built, built, built", 1},
		{"rebuilt the platform", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, v.CountActionVerbs(tt.text))
			assert.Equal(t, tt.want, v.CountActionVerbs(tt.text), "patterns are reused")
		})
	}
}

func contains(items []string, want string) bool {
	return countOf(items, want) > 0
}

func countOf(items []string, want string) int {
	var n int
	for _, it := range items {
		if it == want {
			n++
		}
	}
	return n
}

func TestFromFile_Errors(t *testing.T) {
	_, err := FromFile("/nonexistent/vocab.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read vocabulary file")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{ nope"), 0644))
	_, err = FromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse vocabulary file")
}

func TestFromFile_EmptyPathReturnsDefaults(t *testing.T) {
	v, err := FromFile("")
	require.NoError(t, err)
	assert.Equal(t, MustDefault().SkillPatterns(), v.SkillPatterns())
}
