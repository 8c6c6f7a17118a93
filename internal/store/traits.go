package store

import (
	"context"
	"strings"
	"time"

	"github.com/rolemind/rolemind/internal/model"
)

// Traits and goals are current character state, not history: they are
// keyed records mutated in place, with no decay and no eviction.

func (s *SQLiteStore) SetTraits(ctx context.Context, role string, traits map[string]string) error {
	if role == "" {
		return &ValidationError{Field: "role", Reason: "must not be empty"}
	}
	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC().Format(timeFormat)
	for name, value := range traits {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO traits (role, name, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (role, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			role, name, value, now)
		if err != nil {
			return storageErr("set trait", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Traits(ctx context.Context, role string) ([]model.Trait, error) {
	lock := s.roleLock(role)
	lock.RLock()
	defer lock.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, updated_at FROM traits WHERE role = ? ORDER BY name`, role)
	if err != nil {
		return nil, storageErr("list traits", err)
	}
	defer rows.Close()

	var traits []model.Trait
	for rows.Next() {
		var t model.Trait
		var updated string
		if err := rows.Scan(&t.Name, &t.Value, &updated); err != nil {
			return nil, storageErr("scan trait", err)
		}
		t.UpdatedAt, _ = time.Parse(timeFormat, updated)
		traits = append(traits, t)
	}
	return traits, rows.Err()
}

func (s *SQLiteStore) SetGoals(ctx context.Context, role string, goals []model.Goal) error {
	if role == "" {
		return &ValidationError{Field: "role", Reason: "must not be empty"}
	}
	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC().Format(timeFormat)
	for _, g := range goals {
		if strings.TrimSpace(g.ID) == "" || strings.TrimSpace(g.Description) == "" {
			continue
		}
		status := g.Status
		if status == "" {
			status = model.GoalStatusActive
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO goals (role, id, description, status, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (role, id) DO UPDATE SET description = excluded.description,
				status = excluded.status, updated_at = excluded.updated_at`,
			role, g.ID, g.Description, status, now)
		if err != nil {
			return storageErr("set goal", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Goals(ctx context.Context, role string) ([]model.Goal, error) {
	lock := s.roleLock(role)
	lock.RLock()
	defer lock.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, status, updated_at FROM goals WHERE role = ? ORDER BY id`, role)
	if err != nil {
		return nil, storageErr("list goals", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		var updated string
		if err := rows.Scan(&g.ID, &g.Description, &g.Status, &updated); err != nil {
			return nil, storageErr("scan goal", err)
		}
		g.UpdatedAt, _ = time.Parse(timeFormat, updated)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
