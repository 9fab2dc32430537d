package usecase

import (
	"strings"
	"unicode"
)

// Common function words excluded from lexical scoring so overlap reflects
// content terms rather than grammar.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {},
	"are": {}, "was": {}, "were": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "you": {}, "she": {},
	"they": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"what": {}, "where": {}, "when": {}, "why": {}, "how": {}, "who": {},
	"which": {},
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		out[token] = struct{}{}
	}
	return out
}

// tokenOverlap is |query ∩ message| / |query|, in [0, 1].
func tokenOverlap(query, message map[string]struct{}) float64 {
	if len(query) == 0 || len(message) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := message[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
