// Package matching classifies job-description keywords as present or absent in a
// résumé, literally (exact) and by embedding similarity (semantic).
package matching

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/resume-scorer/internal/terms"
	"github.com/jonathan/resume-scorer/internal/types"
)

// MatchExact checks each keyword against the résumé text. Multi-word keywords
// match as a substring; single words must be delimited by non-word characters,
// so "java" does not match inside "javascript" while "c++" matches in "C++, Go".
// Accents match whether composed or decomposed. Keywords that are blank after
// normalization are skipped.
func MatchExact(resumeText string, keywords []string) types.ExactMatch {
	rt := terms.Fold(resumeText)

	present := []string{}
	missing := []string{}
	for _, kw := range keywords {
		k := terms.Normalize(kw)
		if k == "" {
			continue
		}

		var hit bool
		if strings.Contains(k, " ") {
			hit = strings.Contains(rt, k)
		} else {
			hit = wordPattern(k).MatchString(rt)
		}

		if hit {
			present = append(present, k)
		} else {
			missing = append(missing, k)
		}
	}

	present = terms.UniqueTerms(present)
	missing = terms.UniqueTerms(missing)

	return types.ExactMatch{
		Present:  present,
		Missing:  missing,
		Coverage: percent(len(present), len(present)+len(missing)),
	}
}

// wordPattern matches k with no letter, digit or underscore directly before or after it.
func wordPattern(k string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(k) + `(?:$|[^\p{L}\p{N}_])`)
}

// percent returns 100*n/total rounded to two decimals, or 0 when total is 0.
func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(n) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
