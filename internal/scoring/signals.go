// Package scoring composes the résumé score from keyword coverage, formatting flags
// and content signals, and derives improvement suggestions.
package scoring

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-scorer/internal/types"
	"github.com/jonathan/resume-scorer/internal/vocab"
)

var numberPattern = regexp.MustCompile(`\b\d+(\.\d+)?%?\b`)

// ContentSignals counts bullet lines, detects quantified content and counts the
// distinct action verbs used in the résumé.
func ContentSignals(resumeText string, v *vocab.Vocabulary) types.ContentSignals {
	var bullets int
	for _, ln := range strings.Split(resumeText, "\n") {
		s := strings.TrimSpace(ln)
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "•") || strings.HasPrefix(s, "*") {
			bullets++
		}
	}

	low := strings.ToLower(resumeText)
	return types.ContentSignals{
		BulletLines:    bullets,
		HasNumbers:     numberPattern.MatchString(low),
		ActionVerbHits: v.CountActionVerbs(low),
	}
}
