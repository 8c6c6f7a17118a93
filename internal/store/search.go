package store

import (
	"context"
	"strings"

	"github.com/rolemind/rolemind/internal/model"
)

// Search finds entries whose content, keywords, or tags contain the query
// substring. Matching is case-insensitive; LOWER() only folds ASCII in
// SQLite, which matches the tolerant-substring contract for keyword text.
func (s *SQLiteStore) Search(ctx context.Context, role string, p SearchParams) ([]model.MemoryEntry, error) {
	lock := s.roleLock(role)
	lock.RLock()
	defer lock.RUnlock()

	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + strings.ToLower(p.Query) + "%"
	where := []string{
		"role = ?",
		`(LOWER(content) LIKE ? OR LOWER(IFNULL(keywords, '')) LIKE ? OR LOWER(IFNULL(tags, '')) LIKE ?)`,
	}
	sqlArgs := []interface{}{role, pattern, pattern, pattern}

	if p.Type != "" {
		where = append(where, "type = ?")
		sqlArgs = append(sqlArgs, string(p.Type))
	}

	query := selectColumns + ` FROM memories WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC LIMIT ?`
	sqlArgs = append(sqlArgs, limit)

	return s.queryEntries(ctx, query, sqlArgs...)
}
