package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rolemind/rolemind/internal/model"
)

const testRole = "5a9f1c1e-0b2d-4c5e-9a51-3f4b2c6a7d88"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), Options{})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addEntry(t *testing.T, s *SQLiteStore, role string, e *model.MemoryEntry) *model.MemoryEntry {
	t.Helper()
	stored, err := s.Add(context.Background(), role, e)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return stored
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored := addEntry(t, s, testRole, &model.MemoryEntry{
		Type:     model.Semantic,
		Content:  "the user prefers tea over coffee",
		Keywords: []string{"tea", "coffee"},
		Priority: 70,
	})
	if stored.ID == "" {
		t.Error("expected generated id")
	}
	if stored.AccessCount != 0 {
		t.Errorf("expected access_count 0, got %d", stored.AccessCount)
	}
	if stored.Source != model.DefaultSource {
		t.Errorf("expected default source, got %q", stored.Source)
	}

	got, err := s.Get(ctx, testRole, stored.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "the user prefers tea over coffee" {
		t.Errorf("unexpected content: %q", got.Content)
	}
	if len(got.Keywords) != 2 {
		t.Errorf("unexpected keywords: %v", got.Keywords)
	}
	// Administrative Get does not bump access bookkeeping
	if got.AccessCount != 0 {
		t.Errorf("expected access_count 0 after admin get, got %d", got.AccessCount)
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var verr *ValidationError
	_, err := s.Add(ctx, testRole, &model.MemoryEntry{Type: model.Semantic, Content: "   "})
	if !errors.As(err, &verr) || verr.Field != "content" {
		t.Errorf("expected content validation error, got %v", err)
	}

	_, err = s.Add(ctx, testRole, &model.MemoryEntry{Type: "procedural", Content: "x"})
	if !errors.As(err, &verr) || verr.Field != "type" {
		t.Errorf("expected type validation error, got %v", err)
	}

	_, err = s.Add(ctx, "", &model.MemoryEntry{Type: model.Semantic, Content: "x"})
	if !errors.As(err, &verr) || verr.Field != "role" {
		t.Errorf("expected role validation error, got %v", err)
	}
}

func TestAddClampsPriority(t *testing.T) {
	s := newTestStore(t)
	stored := addEntry(t, s, testRole, &model.MemoryEntry{
		Type: model.Semantic, Content: "x", Priority: 300,
	})
	if stored.Priority != 100 {
		t.Errorf("expected priority clamped to 100, got %d", stored.Priority)
	}
}

func TestReAddExistingIDMerges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := addEntry(t, s, testRole, &model.MemoryEntry{
		Type: model.Semantic, Content: "v1", Priority: 50,
	})
	s.Touch(ctx, testRole, []string{first.ID}, time.Now())

	second := addEntry(t, s, testRole, &model.MemoryEntry{
		ID: first.ID, Type: model.Semantic, Content: "v2", Priority: 80,
	})
	if second.ID != first.ID {
		t.Errorf("expected same id, got %q vs %q", second.ID, first.ID)
	}
	if second.Content != "v2" || second.Priority != 80 {
		t.Errorf("expected merged fields, got %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("expected CreatedAt preserved on re-add")
	}
	if second.AccessCount != 1 {
		t.Errorf("expected access count preserved, got %d", second.AccessCount)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) && !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Error("expected UpdatedAt bumped")
	}

	all, _ := s.List(ctx, testRole, ListParams{})
	if len(all) != 1 {
		t.Fatalf("expected 1 entry after re-add, got %d", len(all))
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Episodic, Content: "old"})

	content := "new content"
	pri := 250
	updated, err := s.Update(ctx, testRole, e.ID, Patch{Content: &content, Priority: &pri})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "new content" {
		t.Errorf("unexpected content: %q", updated.Content)
	}
	if updated.Priority != 100 {
		t.Errorf("expected clamped priority 100, got %d", updated.Priority)
	}

	var nf *NotFoundError
	_, err = s.Update(ctx, testRole, "no-such-id", Patch{Content: &content})
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestTouch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Semantic, Content: "x"})

	if err := s.Touch(ctx, testRole, []string{e.ID}, time.Now()); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ := s.Get(ctx, testRole, e.ID)
	if got.AccessCount != 1 {
		t.Errorf("expected access_count 1, got %d", got.AccessCount)
	}
	if got.LastAccessed.Before(e.LastAccessed) {
		t.Error("expected last_accessed advanced")
	}

	// A touch with an earlier timestamp still increments the count but
	// never moves last_accessed backwards.
	past := time.Now().Add(-time.Hour)
	if err := s.Touch(ctx, testRole, []string{e.ID}, past); err != nil {
		t.Fatalf("touch past: %v", err)
	}
	got2, _ := s.Get(ctx, testRole, e.ID)
	if got2.AccessCount != 2 {
		t.Errorf("expected access_count 2, got %d", got2.AccessCount)
	}
	if got2.LastAccessed.Before(got.LastAccessed) {
		t.Error("last_accessed must be monotonically non-decreasing")
	}
}

func TestRemoveConstantIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := addEntry(t, s, testRole, &model.MemoryEntry{
		Type: model.Semantic, Content: "core identity", IsConstant: true,
	})

	if err := s.Remove(ctx, testRole, e.ID, false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, testRole, e.ID); err != nil {
		t.Error("expected constant entry to survive unforced remove")
	}

	if err := s.Remove(ctx, testRole, e.ID, true); err != nil {
		t.Fatalf("forced remove: %v", err)
	}
	var nf *NotFoundError
	if _, err := s.Get(ctx, testRole, e.ID); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError after forced remove, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Episodic, Content: "a", Tags: []string{"travel"}})
	addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Semantic, Content: "b", IsConstant: true})
	addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Semantic, Content: "c"})

	episodic, _ := s.List(ctx, testRole, ListParams{Type: model.Episodic})
	if len(episodic) != 1 {
		t.Errorf("expected 1 episodic, got %d", len(episodic))
	}
	constants, _ := s.List(ctx, testRole, ListParams{ConstantsOnly: true})
	if len(constants) != 1 {
		t.Errorf("expected 1 constant, got %d", len(constants))
	}
	tagged, _ := s.List(ctx, testRole, ListParams{Tag: "travel"})
	if len(tagged) != 1 {
		t.Errorf("expected 1 tagged, got %d", len(tagged))
	}
}

func TestRolesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	otherRole := "1b7e0d3a-2c4f-4a6b-8e90-aa11bb22cc33"

	addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Semantic, Content: "mine"})
	addEntry(t, s, otherRole, &model.MemoryEntry{Type: model.Semantic, Content: "theirs"})

	mine, _ := s.List(ctx, testRole, ListParams{})
	if len(mine) != 1 || mine[0].Content != "mine" {
		t.Errorf("expected role isolation, got %v", mine)
	}

	roles, err := s.Roles(ctx)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("expected 2 roles, got %v", roles)
	}
}

func TestTraitsAndGoals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetTraits(ctx, testRole, map[string]string{"patience": "high"}); err != nil {
		t.Fatalf("set traits: %v", err)
	}
	if err := s.SetTraits(ctx, testRole, map[string]string{"patience": "low", "humor": "dry"}); err != nil {
		t.Fatalf("update traits: %v", err)
	}
	traits, _ := s.Traits(ctx, testRole)
	if len(traits) != 2 {
		t.Fatalf("expected 2 traits, got %d", len(traits))
	}
	// Sorted by name, updated in place
	if traits[0].Name != "humor" || traits[1].Value != "low" {
		t.Errorf("unexpected traits: %+v", traits)
	}

	goals := []model.Goal{{ID: "g1", Description: "earn trust"}}
	if err := s.SetGoals(ctx, testRole, goals); err != nil {
		t.Fatalf("set goals: %v", err)
	}
	if err := s.SetGoals(ctx, testRole, []model.Goal{{ID: "g1", Description: "earn trust", Status: "done"}}); err != nil {
		t.Fatalf("update goals: %v", err)
	}
	stored, _ := s.Goals(ctx, testRole)
	if len(stored) != 1 || stored[0].Status != "done" {
		t.Errorf("expected in-place goal update, got %+v", stored)
	}
	if stored[0].ID != "g1" {
		t.Errorf("unexpected goal id %q", stored[0].ID)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	addEntry(t, s, testRole, &model.MemoryEntry{Type: model.Semantic, Content: "fact", Priority: 80})
	s.SetTraits(ctx, testRole, map[string]string{"mood": "calm"})
	s.SetGoals(ctx, testRole, []model.Goal{{ID: "g1", Description: "help"}})

	exp, err := s.ExportRole(ctx, testRole)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exp.Entries) != 1 || len(exp.Traits) != 1 || len(exp.Goals) != 1 {
		t.Fatalf("unexpected export: %+v", exp)
	}

	target := "9c8b7a65-4321-4fed-bc0a-556677889900"
	n, err := s.ImportRole(ctx, target, exp)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 imported, got %d", n)
	}

	got, _ := s.List(ctx, target, ListParams{})
	if len(got) != 1 || got[0].Content != "fact" {
		t.Errorf("unexpected imported entries: %v", got)
	}

	// Importing again upserts by id, no duplicates
	s.ImportRole(ctx, target, exp)
	got, _ = s.List(ctx, target, ListParams{})
	if len(got) != 1 {
		t.Errorf("expected 1 entry after re-import, got %d", len(got))
	}
}

// Distinct roles may write concurrently: only one role's operations are
// serialized by the role lock, so id generation and the underlying SQLite
// writer must both hold up across roles.
func TestConcurrentRoleWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	roles := []string{
		"11111111-aaaa-4bbb-8ccc-000000000001",
		"22222222-aaaa-4bbb-8ccc-000000000002",
		"33333333-aaaa-4bbb-8ccc-000000000003",
		"44444444-aaaa-4bbb-8ccc-000000000004",
	}
	const perRole = 50

	var wg sync.WaitGroup
	for _, role := range roles {
		wg.Add(1)
		go func(role string) {
			defer wg.Done()
			for i := 0; i < perRole; i++ {
				_, err := s.Add(ctx, role, &model.MemoryEntry{
					Type:    model.Semantic,
					Content: fmt.Sprintf("entry %d", i),
				})
				if err != nil {
					t.Errorf("add for %s: %v", role, err)
					return
				}
			}
		}(role)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, role := range roles {
		entries, err := s.List(ctx, role, ListParams{})
		if err != nil {
			t.Fatalf("list %s: %v", role, err)
		}
		if len(entries) != perRole {
			t.Errorf("role %s: expected %d entries, got %d", role, perRole, len(entries))
		}
		for _, e := range entries {
			if seen[e.ID] {
				t.Errorf("duplicate id %s across concurrent adds", e.ID)
			}
			seen[e.ID] = true
		}
	}
}

func TestCorruptMetadataIsDropped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := addEntry(t, s, testRole, &model.MemoryEntry{
		Type: model.Semantic, Content: "x",
		Metadata: map[string]model.MetaValue{"k": model.StringValue("v")},
	})

	if _, err := s.db.ExecContext(ctx,
		`UPDATE memories SET metadata = ? WHERE role = ? AND id = ?`,
		`{not json`, testRole, e.ID); err != nil {
		t.Fatalf("corrupt metadata: %v", err)
	}

	got, err := s.Get(ctx, testRole, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Metadata != nil {
		t.Errorf("expected unreadable metadata dropped, got %v", got.Metadata)
	}
	if got.Content != "x" {
		t.Errorf("entry must stay readable, got %+v", got)
	}
}

func TestAutoCleanup(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), Options{AutoCleanupThreshold: 3})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for i, pri := range []int{10, 20, 30, 40, 50} {
		_, err := s.Add(ctx, testRole, &model.MemoryEntry{
			Type: model.Semantic, Content: "entry", Priority: pri,
		})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	all, _ := s.List(ctx, testRole, ListParams{})
	if len(all) > 3 {
		t.Errorf("expected auto cleanup to cap at 3, got %d", len(all))
	}
}
