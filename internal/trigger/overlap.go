package trigger

import (
	"strings"
	"unicode"

	"github.com/rolemind/rolemind/internal/model"
)

// tokenize lowercases the message and splits it on anything that is not a
// letter or digit. CJK text often arrives without spaces, so matching also
// falls back to substring checks against the raw lowercased message.
func tokenize(message string) []string {
	lower := strings.ToLower(message)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func termMatches(term string, tokens []string, lowerMessage string) bool {
	if term == "" {
		return false
	}
	for _, tok := range tokens {
		if tok == term {
			return true
		}
	}
	return strings.Contains(lowerMessage, term)
}

// overlapFraction returns the fraction of terms that appear in the message,
// 0 when the term list is empty.
func overlapFraction(terms []string, tokens []string, lowerMessage string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if termMatches(strings.ToLower(strings.TrimSpace(term)), tokens, lowerMessage) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func topicalOverlap(e *model.MemoryEntry, tokens []string, lowerMessage string) float64 {
	return overlapFraction(e.AllTopics(), tokens, lowerMessage)
}

func emotionalOverlap(e *model.MemoryEntry, tokens []string, lowerMessage string) float64 {
	return overlapFraction(e.EmotionalContext, tokens, lowerMessage)
}
