package store

import (
	"context"
	"time"

	"github.com/rolemind/rolemind/internal/model"
)

// RoleExport is a JSON snapshot of one role's persisted state.
type RoleExport struct {
	Role       string              `json:"role"`
	ExportedAt time.Time           `json:"exported_at"`
	Entries    []model.MemoryEntry `json:"entries"`
	Traits     []model.Trait       `json:"traits,omitempty"`
	Goals      []model.Goal        `json:"goals,omitempty"`
}

// ExportRole snapshots a role's entries, traits, and goals.
func (s *SQLiteStore) ExportRole(ctx context.Context, role string) (*RoleExport, error) {
	entries, err := s.List(ctx, role, ListParams{})
	if err != nil {
		return nil, err
	}
	traits, err := s.Traits(ctx, role)
	if err != nil {
		return nil, err
	}
	goals, err := s.Goals(ctx, role)
	if err != nil {
		return nil, err
	}
	return &RoleExport{
		Role:       role,
		ExportedAt: time.Now().UTC(),
		Entries:    entries,
		Traits:     traits,
		Goals:      goals,
	}, nil
}

// ImportRole loads a snapshot into a role's store. Entries are upserted by
// id, so importing twice does not duplicate. Returns the number of entries
// imported.
func (s *SQLiteStore) ImportRole(ctx context.Context, role string, exp *RoleExport) (int, error) {
	imported := 0
	for i := range exp.Entries {
		e := exp.Entries[i]
		if _, err := s.Add(ctx, role, &e); err != nil {
			return imported, err
		}
		imported++
	}

	if len(exp.Traits) > 0 {
		traits := make(map[string]string, len(exp.Traits))
		for _, t := range exp.Traits {
			traits[t.Name] = t.Value
		}
		if err := s.SetTraits(ctx, role, traits); err != nil {
			return imported, err
		}
	}
	if len(exp.Goals) > 0 {
		if err := s.SetGoals(ctx, role, exp.Goals); err != nil {
			return imported, err
		}
	}
	return imported, nil
}
