package nlp

import "strings"

// NounChunks groups tagged tokens into base noun phrases: an optional determiner,
// any run of adjectives, numbers or nouns, ending in a noun. A gerund directly after
// a noun continues the phrase ("machine learning"). Pronouns form single-token
// chunks. The result is in document order.
func NounChunks(tokens []Token) []string {
	var chunks []string
	var cur []Token

	flush := func() {
		end := len(cur)
		for end > 0 && !isNoun(cur[end-1].Tag) {
			end--
		}
		if end > 0 {
			words := make([]string, 0, end)
			for _, t := range cur[:end] {
				words = append(words, t.Text)
			}
			chunks = append(chunks, joinTokens(words))
		}
		cur = cur[:0]
	}

	lastIsNoun := func() bool {
		return len(cur) > 0 && isNoun(cur[len(cur)-1].Tag)
	}

	for _, tok := range tokens {
		switch {
		case tok.Tag == "PRP":
			flush()
			chunks = append(chunks, tok.Text)
		case tok.Tag == "DT" || tok.Tag == "PRP$":
			flush()
			cur = append(cur, tok)
		case tok.Tag == "VBG" && lastIsNoun():
			cur = append(cur, Token{Text: tok.Text, Tag: "NN"})
		case isNoun(tok.Tag):
			cur = append(cur, tok)
		case isModifier(tok.Tag):
			// An adjective after a noun starts a new phrase.
			if lastIsNoun() && tok.Tag != "CD" {
				flush()
			}
			cur = append(cur, tok)
		default:
			flush()
		}
	}
	flush()

	return chunks
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isModifier(tag string) bool {
	return strings.HasPrefix(tag, "JJ") || tag == "CD"
}

// joinTokens rebuilds a span from tokens, re-attaching pieces the tokenizer split
// off words such as "c++" or "ci/cd".
func joinTokens(words []string) string {
	var sb strings.Builder
	for i, w := range words {
		if i > 0 && !attachesLeft(w) && !attachesRight(words[i-1]) {
			sb.WriteByte(' ')
		}
		sb.WriteString(w)
	}
	return sb.String()
}

func attachesLeft(w string) bool {
	return strings.HasPrefix(w, "'") || w == "+" || w == "++" || w == "#"
}

func attachesRight(w string) bool {
	return strings.HasSuffix(w, "-") || strings.HasSuffix(w, "/")
}
