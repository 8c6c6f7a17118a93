package model

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestClampPriority(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{60, 60},
		{100, 100},
		{175, 100},
	}
	for _, c := range cases {
		if got := ClampPriority(c.in); got != c.want {
			t.Errorf("ClampPriority(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{" coffee ", "", "coffee", "morning habit", "  "})
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d: %v", len(got), got)
	}
	if got[0] != "coffee" || got[1] != "morning habit" {
		t.Errorf("unexpected list: %v", got)
	}
}

func TestAllTopics(t *testing.T) {
	e := &MemoryEntry{
		Keywords:      []string{"Coffee", "travel"},
		Tags:          []string{"coffee"},
		RelatedTopics: []string{"Mornings"},
	}
	topics := e.AllTopics()
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %v", topics)
	}
	// Lowercased and sorted
	want := []string{"coffee", "mornings", "travel"}
	for i, w := range want {
		if topics[i] != w {
			t.Errorf("topic %d: got %q, want %q", i, topics[i], w)
		}
	}
}

func TestMetaValueScalars(t *testing.T) {
	var v MetaValue
	if err := json.Unmarshal([]byte(`"v1"`), &v); err != nil {
		t.Fatalf("string: %v", err)
	}
	if v.Kind() != MetaString || v.String() != "v1" {
		t.Errorf("expected string v1, got %v", v)
	}

	if err := json.Unmarshal([]byte(`42`), &v); err != nil {
		t.Fatalf("number: %v", err)
	}
	if v.Kind() != MetaNumber || v.Number() != 42 {
		t.Errorf("expected number 42, got %v", v)
	}

	if err := json.Unmarshal([]byte(`true`), &v); err != nil {
		t.Fatalf("bool: %v", err)
	}
	if v.Kind() != MetaBool || !v.Bool() {
		t.Errorf("expected bool true, got %v", v)
	}
}

func TestMetaValueRejectsNonScalar(t *testing.T) {
	var v MetaValue
	if err := json.Unmarshal([]byte(`{"nested":1}`), &v); err == nil {
		t.Error("expected error for object value")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Error("expected error for array value")
	}
}
