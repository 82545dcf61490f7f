// Package terms derives comparable keyword terms and evidence lines from free text.
package terms

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a term: lower-cased, trimmed, internal whitespace runs
// collapsed to one space. Composed and decomposed Unicode spellings normalize to
// the same string. Blank input returns "". Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(Fold(s)), " ")
}

// Fold lower-cases s and composes it to NFC, keeping its whitespace. Text
// folded this way can be searched for normalized terms.
func Fold(s string) string {
	// composition can produce an upper-case letter, so lower again after NFC
	return strings.ToLower(norm.NFC.String(strings.ToLower(s)))
}

// UniqueTerms normalizes items and removes empties and duplicates, keeping the
// first occurrence of each term in its original position.
func UniqueTerms(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		t := Normalize(item)
		if t == "" {
			continue
		}
		if _, exists := seen[t]; exists {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}
