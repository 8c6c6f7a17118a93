package trigger

import (
	"math"
	"strings"
)

const minExcerptChars = 100

// render packs selected candidates into the char budget. Constants are
// always emitted in full; non-constants are excerpted or dropped once the
// budget runs out.
func render(selected []candidate, charBudget int) *Result {
	result := &Result{Fragments: []Fragment{}}
	used := 0

	for _, c := range selected {
		content := c.entry.Content
		frag := Fragment{
			ID:       c.entry.ID,
			Type:     c.entry.Type,
			Content:  content,
			Score:    math.Round(c.score*100) / 100,
			Constant: c.entry.IsConstant,
		}

		if c.entry.IsConstant {
			result.Fragments = append(result.Fragments, frag)
			used += len(content)
			continue
		}

		if used+len(content) <= charBudget {
			result.Fragments = append(result.Fragments, frag)
			used += len(content)
			continue
		}
		if remaining := charBudget - used; remaining >= minExcerptChars {
			frag.Content = content[:remaining] + "..."
			frag.Excerpt = true
			result.Fragments = append(result.Fragments, frag)
			used = charBudget
		}
		// Budget full; keep scanning only for constants.
	}

	result.Count = len(result.Fragments)
	result.Prompt = buildPrompt(result.Fragments)
	return result
}

// buildPrompt joins fragments into a single block suitable for injection
// ahead of the user turn.
func buildPrompt(fragments []Fragment) string {
	if len(fragments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant memories:\n")
	for _, f := range fragments {
		b.WriteString("- [")
		b.WriteString(string(f.Type))
		b.WriteString("] ")
		b.WriteString(f.Content)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
