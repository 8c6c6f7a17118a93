package args

import (
	"regexp"
	"strings"
	"sync"
)

// Tolerant XML tag extraction. This is deliberately not a general XML
// parser: upstream models emit loosely structured fragments, so each
// recognized tag is pulled out case-insensitively with a non-greedy match
// and an absent tag resolves to its documented default.
//
// Recognized tags for memory writes: content, keywords, priority,
// is_constant, tags, source, emotional_context, related_topics.
// Trait updates recognize <trait name="...">value</trait> elements and
// goal updates recognize <goal id="..." status="...">description</goal>.

var (
	tagPatternMu sync.Mutex
	tagPatterns  = map[string]*regexp.Regexp{}
)

func tagPattern(name string) *regexp.Regexp {
	tagPatternMu.Lock()
	defer tagPatternMu.Unlock()
	if p, ok := tagPatterns[name]; ok {
		return p
	}
	p := regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(name) + `\s*>(.*?)</` + regexp.QuoteMeta(name) + `\s*>`)
	tagPatterns[name] = p
	return p
}

// extractTag returns the whitespace-trimmed inner text of the first
// <name>...</name> occurrence, matched case-insensitively.
func extractTag(s, name string) (string, bool) {
	m := tagPattern(name).FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// splitList splits a comma-separated list, accepting both ASCII and
// fullwidth commas, trimming and dropping empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "，", ",")
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseBoolTag treats a case-insensitive "true" as true, everything else
// as false.
func parseBoolTag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

var (
	traitPattern = regexp.MustCompile(`(?is)<trait\s+name\s*=\s*["']([^"']*)["']\s*>(.*?)</trait\s*>`)
	goalPattern  = regexp.MustCompile(`(?is)<goal\b([^>]*)>(.*?)</goal\s*>`)
	attrPattern  = regexp.MustCompile(`(\w+)\s*=\s*["']([^"']*)["']`)
)

// extractTraits pulls <trait name="...">value</trait> pairs out of an XML
// fragment.
func extractTraits(s string) map[string]string {
	matches := traitPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	traits := make(map[string]string, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		traits[name] = strings.TrimSpace(m[2])
	}
	if len(traits) == 0 {
		return nil
	}
	return traits
}

// goalElement is one parsed <goal> element.
type goalElement struct {
	ID          string
	Status      string
	Description string
}

// extractGoals pulls <goal id="..." status="...">description</goal>
// elements out of an XML fragment. id and status attributes are optional.
func extractGoals(s string) []goalElement {
	matches := goalPattern.FindAllStringSubmatch(s, -1)
	var goals []goalElement
	for _, m := range matches {
		g := goalElement{Description: strings.TrimSpace(m[2])}
		if g.Description == "" {
			continue
		}
		for _, attr := range attrPattern.FindAllStringSubmatch(m[1], -1) {
			switch strings.ToLower(attr[1]) {
			case "id":
				g.ID = strings.TrimSpace(attr[2])
			case "status":
				g.Status = strings.TrimSpace(attr[2])
			}
		}
		goals = append(goals, g)
	}
	return goals
}
