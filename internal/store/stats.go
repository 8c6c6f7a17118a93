package store

import (
	"context"
	"database/sql"
	"time"
)

// Stats holds aggregate statistics for one role's store.
type Stats struct {
	Role          string     `json:"role"`
	Total         int        `json:"total"`
	Episodic      int        `json:"episodic"`
	Semantic      int        `json:"semantic"`
	Constant      int        `json:"constant"`
	Traits        int        `json:"traits"`
	Goals         int        `json:"goals"`
	AvgPriority   float64    `json:"avg_priority"`
	TotalAccesses int        `json:"total_accesses"`
	OldestCreated *time.Time `json:"oldest_created,omitempty"`
	NewestCreated *time.Time `json:"newest_created,omitempty"`
}

// Stats returns aggregate statistics for a role. Backs the
// get_memory_stats tool.
func (s *SQLiteStore) Stats(ctx context.Context, role string) (*Stats, error) {
	lock := s.roleLock(role)
	lock.RLock()
	defer lock.RUnlock()

	st := &Stats{Role: role}

	var avg sql.NullFloat64
	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN type = 'episodic' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type = 'semantic' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(is_constant), 0),
		       AVG(priority),
		       COALESCE(SUM(access_count), 0),
		       MIN(created_at),
		       MAX(created_at)
		FROM memories WHERE role = ?`, role).Scan(
		&st.Total, &st.Episodic, &st.Semantic, &st.Constant,
		&avg, &st.TotalAccesses, &oldest, &newest)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	if avg.Valid {
		st.AvgPriority = avg.Float64
	}
	if oldest.Valid {
		if t, err := time.Parse(timeFormat, oldest.String); err == nil {
			st.OldestCreated = &t
		}
	}
	if newest.Valid {
		if t, err := time.Parse(timeFormat, newest.String); err == nil {
			st.NewestCreated = &t
		}
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM traits WHERE role = ?`, role).Scan(&st.Traits); err != nil {
		return nil, storageErr("count traits", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM goals WHERE role = ?`, role).Scan(&st.Goals); err != nil {
		return nil, storageErr("count goals", err)
	}

	return st, nil
}
