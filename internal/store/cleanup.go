package store

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Cleanup runs the eviction policy for a role: constant entries are never
// removed; non-constant entries with priority below the floor go first;
// if the total count still exceeds the cap, the least valuable remaining
// entries (lowest priority, then least recently accessed) are removed
// until the store is at or under the cap.
func (s *SQLiteStore) Cleanup(ctx context.Context, role string, p CleanupParams) (*CleanupReport, error) {
	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()
	return s.cleanupLocked(ctx, role, p)
}

// candidate carries the fields eviction ordering needs.
type candidate struct {
	id           string
	priority     int
	lastAccessed time.Time
}

// cleanupLocked applies the policy. The role lock must be held.
func (s *SQLiteStore) cleanupLocked(ctx context.Context, role string, p CleanupParams) (*CleanupReport, error) {
	report := &CleanupReport{
		Role:          role,
		PriorityFloor: p.PriorityFloor,
		MaxEntries:    p.MaxEntries,
		DryRun:        p.DryRun,
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, priority, last_accessed, is_constant FROM memories WHERE role = ?`, role)
	if err != nil {
		return nil, storageErr("load cleanup candidates", err)
	}

	var eligible []candidate
	total := 0
	for rows.Next() {
		var c candidate
		var accessed string
		var isConstant int
		if err := rows.Scan(&c.id, &c.priority, &accessed, &isConstant); err != nil {
			rows.Close()
			return nil, storageErr("scan cleanup candidate", err)
		}
		total++
		if isConstant != 0 {
			continue
		}
		c.lastAccessed, _ = time.Parse(timeFormat, accessed)
		eligible = append(eligible, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("load cleanup candidates", err)
	}

	var doomed []string

	// Pass 1: below the priority floor.
	if p.PriorityFloor > 0 {
		var kept []candidate
		for _, c := range eligible {
			if c.priority < p.PriorityFloor {
				doomed = append(doomed, c.id)
				report.RemovedBelowFloor++
			} else {
				kept = append(kept, c)
			}
		}
		eligible = kept
	}

	// Pass 2: over the cap, least valuable first.
	if p.MaxEntries > 0 {
		remaining := total - len(doomed)
		if remaining > p.MaxEntries {
			sort.Slice(eligible, func(i, j int) bool {
				if eligible[i].priority != eligible[j].priority {
					return eligible[i].priority < eligible[j].priority
				}
				if !eligible[i].lastAccessed.Equal(eligible[j].lastAccessed) {
					return eligible[i].lastAccessed.Before(eligible[j].lastAccessed)
				}
				return eligible[i].id < eligible[j].id
			})
			for _, c := range eligible {
				if remaining <= p.MaxEntries {
					break
				}
				doomed = append(doomed, c.id)
				report.RemovedOverCap++
				remaining--
			}
		}
	}

	report.Removed = len(doomed)
	report.Remaining = total - len(doomed)

	if !p.DryRun && len(doomed) > 0 {
		placeholders := strings.Repeat("?,", len(doomed))
		placeholders = placeholders[:len(placeholders)-1]
		sqlArgs := make([]interface{}, 0, len(doomed)+1)
		sqlArgs = append(sqlArgs, role)
		for _, id := range doomed {
			sqlArgs = append(sqlArgs, id)
		}
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM memories WHERE role = ? AND id IN (`+placeholders+`)`, sqlArgs...); err != nil {
			return nil, storageErr("delete evicted memories", err)
		}
	}

	s.log.Info().
		Str("role", role).
		Int("removed", report.Removed).
		Int("below_floor", report.RemovedBelowFloor).
		Int("over_cap", report.RemovedOverCap).
		Int("remaining", report.Remaining).
		Bool("dry_run", p.DryRun).
		Msg("cleanup")

	return report, nil
}
