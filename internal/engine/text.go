package engine

import (
	"regexp"
	"strings"
)

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeText lowercases, strips punctuation, and collapses whitespace so
// every matcher scores the same canonical form.
func NormalizeText(value string) string {
	lowered := strings.ToLower(value)
	lowered = nonAlnumPattern.ReplaceAllString(lowered, " ")
	lowered = whitespacePattern.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(lowered)
}

// TokenSet returns the normalized tokens of length >= 3.
func TokenSet(value string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(NormalizeText(value)) {
		if len(token) >= 3 {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

// ScoreTextMatch scores a message against candidate phrases: +6 for full
// phrase containment, +1 per shared token of length >= 3.
func ScoreTextMatch(message string, candidates []string) int {
	normalizedMessage := NormalizeText(message)
	messageTokens := TokenSet(message)

	score := 0
	for _, phrase := range candidates {
		normalizedPhrase := NormalizeText(phrase)
		if normalizedPhrase == "" {
			continue
		}
		if strings.Contains(normalizedMessage, normalizedPhrase) {
			score += 6
		}
		for token := range TokenSet(phrase) {
			if _, ok := messageTokens[token]; ok {
				score++
			}
		}
	}
	return score
}

// ScoreConfidence derives a confidence from a match score, monotonic and
// clamped to [0, 0.99].
func ScoreConfidence(score int) float64 {
	raw := 0.35 + float64(score)*0.07
	if raw < 0 {
		return 0
	}
	if raw > 0.99 {
		return 0.99
	}
	return raw
}

// JaccardSimilarity compares two texts on their token sets.
func JaccardSimilarity(left, right string) float64 {
	a := TokenSet(left)
	b := TokenSet(right)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
