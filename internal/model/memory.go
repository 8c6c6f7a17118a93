// Package model defines the core memory data types.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// MemoryType distinguishes the two memory variants.
type MemoryType string

const (
	// Episodic memories record specific remembered events or exchanges.
	Episodic MemoryType = "episodic"
	// Semantic memories record general facts or preferences inferred over time.
	Semantic MemoryType = "semantic"
)

// ValidTypes are the allowed memory types.
var ValidTypes = map[MemoryType]bool{
	Episodic: true,
	Semantic: true,
}

// Default field values for a new entry.
const (
	DefaultPriority        = 60
	DefaultSource          = "conversation"
	DefaultRelevanceWeight = 0.5
	DefaultEmotionalWeight = 0.3
	DefaultTimeDecayFactor = 0.5
)

// MemoryEntry is a single stored memory belonging to one role.
type MemoryEntry struct {
	ID               string               `json:"id"`
	Role             string               `json:"role"`
	Type             MemoryType           `json:"type"`
	Content          string               `json:"content"`
	Keywords         []string             `json:"keywords,omitempty"`
	Tags             []string             `json:"tags,omitempty"`
	RelatedTopics    []string             `json:"related_topics,omitempty"`
	EmotionalContext []string             `json:"emotional_context,omitempty"`
	Priority         int                  `json:"priority"`
	IsConstant       bool                 `json:"is_constant"`
	RelevanceWeight  float64              `json:"relevance_weight"`
	EmotionalWeight  float64              `json:"emotional_weight"`
	TimeDecayFactor  float64              `json:"time_decay_factor"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	LastAccessed     time.Time            `json:"last_accessed"`
	AccessCount      int                  `json:"access_count"`
	Source           string               `json:"source"`
	Metadata         map[string]MetaValue `json:"metadata,omitempty"`
}

// Trait is a named character attribute for a role, updated in place.
type Trait struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalStatusActive is the default status for a new goal.
const GoalStatusActive = "active"

// Goal is a tracked objective for a role, updated in place.
type Goal struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClampPriority clamps p into [0, 100].
func ClampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ClampWeight clamps w into [0, 1].
func ClampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// NormalizeList trims, drops empties, and deduplicates while keeping order.
func NormalizeList(items []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// AllTopics returns the entry's keywords, tags, and related topics combined,
// lowercased, sorted, and deduplicated. Used for topical matching.
func (e *MemoryEntry) AllTopics() []string {
	terms := map[string]bool{}
	for _, set := range [][]string{e.Keywords, e.Tags, e.RelatedTopics} {
		for _, t := range set {
			terms[strings.ToLower(t)] = true
		}
	}
	out := make([]string, 0, len(terms))
	for t := range terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MetaKind identifies the scalar kind held by a MetaValue.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaNumber
	MetaBool
)

// MetaValue is one value in an entry's metadata bag. The bag holds a closed
// set of scalar kinds so the persisted format stays verifiable.
type MetaValue struct {
	kind MetaKind
	str  string
	num  float64
	b    bool
}

// StringValue wraps a string metadata value.
func StringValue(s string) MetaValue { return MetaValue{kind: MetaString, str: s} }

// NumberValue wraps a numeric metadata value.
func NumberValue(n float64) MetaValue { return MetaValue{kind: MetaNumber, num: n} }

// BoolValue wraps a boolean metadata value.
func BoolValue(b bool) MetaValue { return MetaValue{kind: MetaBool, b: b} }

// Kind returns the scalar kind of the value.
func (v MetaValue) Kind() MetaKind { return v.kind }

// String returns the string form of the value regardless of kind.
func (v MetaValue) String() string {
	switch v.kind {
	case MetaNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case MetaBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// Number returns the numeric value, or 0 for non-numeric kinds.
func (v MetaValue) Number() float64 { return v.num }

// Bool returns the boolean value, or false for non-boolean kinds.
func (v MetaValue) Bool() bool { return v.b }

// MarshalJSON encodes the value as its underlying scalar.
func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaNumber:
		return json.Marshal(v.num)
	case MetaBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes a scalar. Objects and arrays are rejected.
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mv, err := MetaFromAny(raw)
	if err != nil {
		return err
	}
	*v = mv
	return nil
}

// MetaFromAny converts a decoded JSON value into a MetaValue.
// Non-scalar values are rejected.
func MetaFromAny(raw interface{}) (MetaValue, error) {
	switch val := raw.(type) {
	case string:
		return StringValue(val), nil
	case float64:
		return NumberValue(val), nil
	case int:
		return NumberValue(float64(val)), nil
	case bool:
		return BoolValue(val), nil
	case nil:
		return StringValue(""), nil
	default:
		return MetaValue{}, fmt.Errorf("metadata value must be a string, number, or boolean, got %T", raw)
	}
}
