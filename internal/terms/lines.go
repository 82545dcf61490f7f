package terms

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-scorer/internal/vocab"
)

// Evidence line limits.
const (
	MinLineLength    = 18
	MinLines         = 8
	MaxLines         = 180
	FallbackMaxLines = 260
)

var separatorPattern = regexp.MustCompile(`^[-•*_=~.|#]{3,}$`)

// SelectLines returns the résumé lines worth showing as match evidence. Lines are
// trimmed, whitespace-collapsed and stripped of a leading bullet marker. Separators,
// bare section headers, boilerplate and short lines without a technical token are
// dropped. When fewer than MinLines survive, the raw non-blank lines are used instead.
func SelectLines(text string, v *vocab.Vocabulary) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var raw, kept []string
	for _, ln := range strings.Split(text, "\n") {
		s := collapse(ln)
		if s == "" {
			continue
		}
		raw = append(raw, s)

		if separatorPattern.MatchString(s) {
			continue
		}
		s = stripBullet(s)
		if s == "" {
			continue
		}

		low := strings.ToLower(s)
		if utf8.RuneCountInString(s) < MinLineLength && !hasTechnicalToken(low, v) {
			continue
		}
		if v.IsSectionHeader(low) || v.ContainsBoilerplate(low) {
			continue
		}
		kept = append(kept, s)
	}

	if len(kept) < MinLines {
		return truncate(raw, FallbackMaxLines)
	}
	return truncate(kept, MaxLines)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripBullet removes one leading bullet marker and the space after it.
func stripBullet(s string) string {
	for _, marker := range []string{"-", "•", "*", "·"} {
		if strings.HasPrefix(s, marker) {
			return strings.TrimSpace(strings.TrimPrefix(s, marker))
		}
	}
	return s
}

// hasTechnicalToken reports whether a lower-cased line carries a curated skill
// pattern or a token such as "c++", "c#", "node.js" or "s3".
func hasTechnicalToken(low string, v *vocab.Vocabulary) bool {
	words := strings.FieldsFunc(low, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;:()[]{}\"'!?", r)
	})

	for i, w := range words {
		words[i] = strings.TrimRight(w, ".")
	}
	padded := " " + strings.Join(words, " ") + " "
	for _, p := range v.SkillPatterns() {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}

	for _, w := range words {
		if strings.ContainsAny(w, "+#.") && len(w) > 1 {
			return true
		}
		if hasDigitAndLetter(w) {
			return true
		}
	}
	return false
}

func hasDigitAndLetter(w string) bool {
	var digit, letter bool
	for _, r := range w {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		}
	}
	return digit && letter
}

func truncate(lines []string, limit int) []string {
	if lines == nil {
		return []string{}
	}
	if len(lines) > limit {
		return lines[:limit]
	}
	return lines
}
