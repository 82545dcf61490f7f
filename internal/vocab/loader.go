// Package vocab provides the curated word tables used by term extraction, line selection and scoring.
// Tables are stored as JSON files and embedded at compile time; an external file can extend them.
package vocab

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

//go:embed *.json
var tableFiles embed.FS

const (
	skillPatternsFile = "skill_patterns.json"
	lexiconFile       = "lexicon.json"
)

// Category groups curated skill patterns (cloud, data, database, ...).
type Category struct {
	Name  string   `json:"category"`
	Terms []string `json:"terms"`
}

// Lexicon holds the flat word lists. Field names match the JSON keys of lexicon.json
// and of override files passed to FromFile.
type Lexicon struct {
	StopWords        []string `json:"stop_words"`
	JunkPhrases      []string `json:"junk_phrases"`
	TechnicalMarkers []string `json:"technical_markers"`
	SectionHeaders   []string `json:"section_headers"`
	Boilerplate      []string `json:"boilerplate"`
	ActionVerbs      []string `json:"action_verbs"`
	SectionHints     []string `json:"section_hints"`
	CoreSections     []string `json:"core_sections"`
}

// Override is the shape of an external vocabulary file. Every list is appended to the
// embedded defaults; categories with a known name extend that category, others are added.
type Override struct {
	SkillPatterns []Category `json:"skill_patterns"`
	Lexicon
}

// Vocabulary is an immutable, ready-to-query view over the tables.
// It is safe for concurrent use.
type Vocabulary struct {
	categories []Category
	patterns   []string
	lex        Lexicon

	stopWords      map[string]struct{}
	sectionHeaders map[string]struct{}
	verbPatterns   []*regexp.Regexp
}

// cache stores parsed embedded tables to avoid repeated JSON parsing
var (
	cache   = make(map[string][]byte)
	cacheMu sync.RWMutex
)

// Default returns the vocabulary built from the embedded tables.
func Default() (*Vocabulary, error) {
	var cats []Category
	if err := decodeTable(skillPatternsFile, &cats); err != nil {
		return nil, err
	}
	var lex Lexicon
	if err := decodeTable(lexiconFile, &lex); err != nil {
		return nil, err
	}
	return build(cats, lex), nil
}

// MustDefault is Default for package initialisation and tests; it panics if the
// embedded tables are unreadable.
func MustDefault() *Vocabulary {
	v, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load vocabulary: %v", err))
	}
	return v
}

// FromFile loads the embedded defaults and extends them with the tables in path.
// An empty path returns the defaults.
func FromFile(path string) (*Vocabulary, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}
	var ov Override
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}
	return base.Extend(ov), nil
}

// Extend returns a new Vocabulary with the override lists appended.
func (v *Vocabulary) Extend(ov Override) *Vocabulary {
	cats := make([]Category, len(v.categories))
	for i, c := range v.categories {
		cats[i] = Category{Name: c.Name, Terms: append([]string(nil), c.Terms...)}
	}
	for _, oc := range ov.SkillPatterns {
		merged := false
		for i := range cats {
			if cats[i].Name == oc.Name {
				cats[i].Terms = append(cats[i].Terms, oc.Terms...)
				merged = true
				break
			}
		}
		if !merged {
			cats = append(cats, Category{Name: oc.Name, Terms: append([]string(nil), oc.Terms...)})
		}
	}

	lex := Lexicon{
		StopWords:        concat(v.lex.StopWords, ov.StopWords),
		JunkPhrases:      concat(v.lex.JunkPhrases, ov.JunkPhrases),
		TechnicalMarkers: concat(v.lex.TechnicalMarkers, ov.TechnicalMarkers),
		SectionHeaders:   concat(v.lex.SectionHeaders, ov.SectionHeaders),
		Boilerplate:      concat(v.lex.Boilerplate, ov.Boilerplate),
		ActionVerbs:      concat(v.lex.ActionVerbs, ov.ActionVerbs),
		SectionHints:     concat(v.lex.SectionHints, ov.SectionHints),
		CoreSections:     concat(v.lex.CoreSections, ov.CoreSections),
	}
	return build(cats, lex)
}

// build lower-cases and dedupes every table, since terms and lines are
// compared in lower case.
func build(cats []Category, lex Lexicon) *Vocabulary {
	lex = Lexicon{
		StopWords:        lowerAll(lex.StopWords),
		JunkPhrases:      lowerAll(lex.JunkPhrases),
		TechnicalMarkers: lowerAll(lex.TechnicalMarkers),
		SectionHeaders:   lowerAll(lex.SectionHeaders),
		Boilerplate:      lowerAll(lex.Boilerplate),
		ActionVerbs:      lowerAll(lex.ActionVerbs),
		SectionHints:     lowerAll(lex.SectionHints),
		CoreSections:     lowerAll(lex.CoreSections),
	}
	v := &Vocabulary{
		categories:     cats,
		lex:            lex,
		stopWords:      toSet(lex.StopWords),
		sectionHeaders: toSet(lex.SectionHeaders),
		verbPatterns:   make([]*regexp.Regexp, len(lex.ActionVerbs)),
	}
	for i, verb := range lex.ActionVerbs {
		v.verbPatterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(verb) + `\b`)
	}
	for _, c := range cats {
		v.patterns = append(v.patterns, lowerAll(c.Terms)...)
	}
	v.patterns = lowerAll(v.patterns)
	return v
}

// SkillPatterns returns the curated skill patterns in table order.
func (v *Vocabulary) SkillPatterns() []string { return v.patterns }

// Categories returns the skill pattern categories.
func (v *Vocabulary) Categories() []Category { return v.categories }

// ActionVerbs returns the action verbs counted as content signals.
func (v *Vocabulary) ActionVerbs() []string { return v.lex.ActionVerbs }

// CountActionVerbs returns how many distinct action verbs occur as whole words
// in the lower-cased text.
func (v *Vocabulary) CountActionVerbs(lowerText string) int {
	var n int
	for _, re := range v.verbPatterns {
		if re.MatchString(lowerText) {
			n++
		}
	}
	return n
}

// SectionHints returns the section names looked for in résumé text.
func (v *Vocabulary) SectionHints() []string { return v.lex.SectionHints }

// CoreSections returns the sections a résumé is expected to have.
func (v *Vocabulary) CoreSections() []string { return v.lex.CoreSections }

// TechnicalMarkers returns the substrings that mark a regex candidate as technical.
func (v *Vocabulary) TechnicalMarkers() []string { return v.lex.TechnicalMarkers }

// IsStopWord reports whether term is exactly a stop-word.
func (v *Vocabulary) IsStopWord(term string) bool {
	_, ok := v.stopWords[term]
	return ok
}

// AllStopWords reports whether every word of term is a stop-word.
// An empty term counts as all stop-words.
func (v *Vocabulary) AllStopWords(term string) bool {
	for _, w := range strings.Fields(term) {
		if !v.IsStopWord(w) {
			return false
		}
	}
	return true
}

// ContainsJunk reports whether term contains a junk phrase as whole words.
func (v *Vocabulary) ContainsJunk(term string) bool {
	padded := " " + term + " "
	for _, j := range v.lex.JunkPhrases {
		if strings.Contains(padded, " "+j+" ") {
			return true
		}
	}
	return false
}

// HasTechnicalMarker reports whether term contains any technical marker substring.
func (v *Vocabulary) HasTechnicalMarker(term string) bool {
	for _, m := range v.lex.TechnicalMarkers {
		if strings.Contains(term, m) {
			return true
		}
	}
	return false
}

// IsSectionHeader reports whether a lower-cased line is a bare section header,
// ignoring a trailing colon.
func (v *Vocabulary) IsSectionHeader(line string) bool {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":"))
	_, ok := v.sectionHeaders[line]
	return ok
}

// ContainsBoilerplate reports whether a lower-cased line contains a boilerplate phrase.
func (v *Vocabulary) ContainsBoilerplate(line string) bool {
	for _, b := range v.lex.Boilerplate {
		if strings.Contains(line, b) {
			return true
		}
	}
	return false
}

// decodeTable reads an embedded table, caching the raw bytes.
func decodeTable(filename string, out any) error {
	cacheMu.RLock()
	data, ok := cache[filename]
	cacheMu.RUnlock()

	if !ok {
		var err error
		data, err = tableFiles.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read vocabulary table %s: %w", filename, err)
		}
		cacheMu.Lock()
		cache[filename] = data
		cacheMu.Unlock()
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse vocabulary table %s: %w", filename, err)
	}
	return nil
}

// ClearCache clears the table cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string][]byte)
	cacheMu.Unlock()
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// lowerAll lower-cases and trims items, dropping blanks and repeats.
func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
