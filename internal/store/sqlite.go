package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/rolemind/rolemind/internal/model"
)

// timeFormat is a fixed-width UTC encoding so lexicographic comparison in
// SQL matches chronological order at nanosecond precision.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Options configures a SQLiteStore.
type Options struct {
	// Logger receives store events. Defaults to a no-op logger.
	Logger *zerolog.Logger
	// AutoCleanupThreshold, when positive, runs the eviction policy after
	// any Add that leaves the role's store above this count.
	AutoCleanupThreshold int
	// CleanupPriorityFloor is the default floor for auto-triggered and
	// unparameterized cleanup passes.
	CleanupPriorityFloor int
}

// SQLiteStore implements Store using SQLite. One database holds every
// role's state; a per-role lock serializes all mutation for a role.
type SQLiteStore struct {
	db      *sql.DB
	log     zerolog.Logger
	opts    Options
	entropy *ulid.LockedMonotonicReader

	locksMu sync.Mutex
	locks   map[string]*sync.RWMutex
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("create db dir", err)
	}

	// busy_timeout makes concurrent writers for different roles queue on
	// SQLite's single writer lock instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open db", err)
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &SQLiteStore{
		db:      db,
		log:     logger,
		opts:    opts,
		entropy: &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)},
		locks:   map[string]*sync.RWMutex{},
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id                TEXT NOT NULL,
		role              TEXT NOT NULL,
		type              TEXT NOT NULL,
		content           TEXT NOT NULL,
		keywords          TEXT,
		tags              TEXT,
		related_topics    TEXT,
		emotional_context TEXT,
		priority          INTEGER NOT NULL DEFAULT 60,
		is_constant       INTEGER NOT NULL DEFAULT 0,
		relevance_weight  REAL NOT NULL DEFAULT 0.5,
		emotional_weight  REAL NOT NULL DEFAULT 0.3,
		time_decay_factor REAL NOT NULL DEFAULT 0.5,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		last_accessed     TEXT NOT NULL,
		access_count      INTEGER NOT NULL DEFAULT 0,
		source            TEXT NOT NULL DEFAULT 'conversation',
		metadata          TEXT,
		PRIMARY KEY (role, id)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_role_type ON memories(role, type);
	CREATE INDEX IF NOT EXISTS idx_memories_role_constant ON memories(role, is_constant);
	CREATE INDEX IF NOT EXISTS idx_memories_role_created ON memories(role, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_role_accessed ON memories(role, last_accessed);

	CREATE TABLE IF NOT EXISTS traits (
		role       TEXT NOT NULL,
		name       TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (role, name)
	);

	CREATE TABLE IF NOT EXISTS goals (
		role        TEXT NOT NULL,
		id          TEXT NOT NULL,
		description TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active',
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (role, id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// newID is safe for concurrent use: the per-role lock does not cover it
// when distinct roles add at once.
func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// roleLock returns the lock serializing one role's operations.
func (s *SQLiteStore) roleLock(role string) *sync.RWMutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[role]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[role] = l
	}
	return l
}

func (s *SQLiteStore) Add(ctx context.Context, role string, e *model.MemoryEntry) (*model.MemoryEntry, error) {
	if role == "" {
		return nil, &ValidationError{Field: "role", Reason: "must not be empty"}
	}
	if e == nil || strings.TrimSpace(e.Content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if !model.ValidTypes[e.Type] {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown memory type %q", e.Type)}
	}

	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()

	stored, err := s.addLocked(ctx, role, e)
	if err != nil {
		return nil, err
	}

	if s.opts.AutoCleanupThreshold > 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM memories WHERE role = ?`, role).Scan(&count); err == nil &&
			count > s.opts.AutoCleanupThreshold {
			report, cerr := s.cleanupLocked(ctx, role, CleanupParams{
				MaxEntries:    s.opts.AutoCleanupThreshold,
				PriorityFloor: s.opts.CleanupPriorityFloor,
			})
			if cerr != nil {
				s.log.Warn().Err(cerr).Str("role", role).Msg("auto cleanup failed")
			} else if report.Removed > 0 {
				s.log.Info().Str("role", role).Int("removed", report.Removed).
					Int("remaining", report.Remaining).Msg("auto cleanup")
			}
		}
	}

	return stored, nil
}

// addLocked performs the upsert. The role lock must be held.
func (s *SQLiteStore) addLocked(ctx context.Context, role string, e *model.MemoryEntry) (*model.MemoryEntry, error) {
	now := time.Now().UTC()

	entry := *e
	entry.Role = role
	entry.Content = strings.TrimSpace(entry.Content)
	entry.Keywords = model.NormalizeList(entry.Keywords)
	entry.Tags = model.NormalizeList(entry.Tags)
	entry.RelatedTopics = model.NormalizeList(entry.RelatedTopics)
	entry.EmotionalContext = model.NormalizeList(entry.EmotionalContext)
	entry.Priority = model.ClampPriority(entry.Priority)
	entry.RelevanceWeight = model.ClampWeight(entry.RelevanceWeight)
	entry.EmotionalWeight = model.ClampWeight(entry.EmotionalWeight)
	entry.TimeDecayFactor = model.ClampWeight(entry.TimeDecayFactor)
	if entry.Source == "" {
		entry.Source = model.DefaultSource
	}

	if entry.ID != "" {
		existing, err := s.getLocked(ctx, role, entry.ID)
		if err == nil {
			// Re-add with an existing id merges fields, preserving creation
			// time and access bookkeeping. No duplicate ids.
			entry.CreatedAt = existing.CreatedAt
			entry.LastAccessed = existing.LastAccessed
			entry.AccessCount = existing.AccessCount
			entry.UpdatedAt = now
			if err := s.writeEntry(ctx, &entry); err != nil {
				return nil, err
			}
			return &entry, nil
		}
		if _, ok := err.(*NotFoundError); !ok {
			return nil, err
		}
	} else {
		entry.ID = s.newID()
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.LastAccessed = now
	entry.AccessCount = 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, role, type, content, keywords, tags, related_topics,
			emotional_context, priority, is_constant, relevance_weight, emotional_weight,
			time_decay_factor, created_at, updated_at, last_accessed, access_count, source, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		entry.ID, role, string(entry.Type), entry.Content,
		listJSON(entry.Keywords), listJSON(entry.Tags), listJSON(entry.RelatedTopics),
		listJSON(entry.EmotionalContext), entry.Priority, boolInt(entry.IsConstant),
		entry.RelevanceWeight, entry.EmotionalWeight, entry.TimeDecayFactor,
		now.Format(timeFormat), now.Format(timeFormat), now.Format(timeFormat),
		entry.Source, metaJSON(entry.Metadata))
	if err != nil {
		return nil, storageErr("insert memory", err)
	}

	return &entry, nil
}

// writeEntry rewrites the full row for an entry.
func (s *SQLiteStore) writeEntry(ctx context.Context, e *model.MemoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET type = ?, content = ?, keywords = ?, tags = ?,
			related_topics = ?, emotional_context = ?, priority = ?, is_constant = ?,
			relevance_weight = ?, emotional_weight = ?, time_decay_factor = ?,
			updated_at = ?, source = ?, metadata = ?
		 WHERE role = ? AND id = ?`,
		string(e.Type), e.Content, listJSON(e.Keywords), listJSON(e.Tags),
		listJSON(e.RelatedTopics), listJSON(e.EmotionalContext), e.Priority,
		boolInt(e.IsConstant), e.RelevanceWeight, e.EmotionalWeight, e.TimeDecayFactor,
		e.UpdatedAt.Format(timeFormat), e.Source, metaJSON(e.Metadata),
		e.Role, e.ID)
	if err != nil {
		return storageErr("update memory", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, role, id string, patch Patch) (*model.MemoryEntry, error) {
	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.getLocked(ctx, role, id)
	if err != nil {
		return nil, err
	}

	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
		}
		entry.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Keywords != nil {
		entry.Keywords = model.NormalizeList(*patch.Keywords)
	}
	if patch.Tags != nil {
		entry.Tags = model.NormalizeList(*patch.Tags)
	}
	if patch.RelatedTopics != nil {
		entry.RelatedTopics = model.NormalizeList(*patch.RelatedTopics)
	}
	if patch.EmotionalContext != nil {
		entry.EmotionalContext = model.NormalizeList(*patch.EmotionalContext)
	}
	if patch.Priority != nil {
		entry.Priority = model.ClampPriority(*patch.Priority)
	}
	if patch.IsConstant != nil {
		entry.IsConstant = *patch.IsConstant
	}
	if patch.RelevanceWeight != nil {
		entry.RelevanceWeight = model.ClampWeight(*patch.RelevanceWeight)
	}
	if patch.EmotionalWeight != nil {
		entry.EmotionalWeight = model.ClampWeight(*patch.EmotionalWeight)
	}
	if patch.TimeDecayFactor != nil {
		entry.TimeDecayFactor = model.ClampWeight(*patch.TimeDecayFactor)
	}
	if patch.Source != nil {
		entry.Source = *patch.Source
	}
	if patch.Metadata != nil {
		if entry.Metadata == nil {
			entry.Metadata = map[string]model.MetaValue{}
		}
		for k, v := range patch.Metadata {
			entry.Metadata[k] = v
		}
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.writeEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SQLiteStore) Get(ctx context.Context, role, id string) (*model.MemoryEntry, error) {
	lock := s.roleLock(role)
	lock.RLock()
	defer lock.RUnlock()
	return s.getLocked(ctx, role, id)
}

func (s *SQLiteStore) getLocked(ctx context.Context, role, id string) (*model.MemoryEntry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM memories WHERE role = ? AND id = ?`, role, id)
	entry, err := s.scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Role: role, ID: id}
	}
	if err != nil {
		return nil, storageErr("get memory", err)
	}
	return entry, nil
}

func (s *SQLiteStore) Touch(ctx context.Context, role string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()

	ts := at.UTC().Format(timeFormat)
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	sqlArgs := make([]interface{}, 0, len(ids)+3)
	sqlArgs = append(sqlArgs, ts, ts, role)
	for _, id := range ids {
		sqlArgs = append(sqlArgs, id)
	}

	// LastAccessed is monotonically non-decreasing.
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1,
			last_accessed = CASE WHEN last_accessed < ? THEN ? ELSE last_accessed END
		 WHERE role = ? AND id IN (`+placeholders+`)`, sqlArgs...)
	if err != nil {
		return storageErr("touch memories", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, role string, p ListParams) ([]model.MemoryEntry, error) {
	lock := s.roleLock(role)
	lock.RLock()
	defer lock.RUnlock()

	where := []string{"role = ?"}
	sqlArgs := []interface{}{role}
	if p.Type != "" {
		where = append(where, "type = ?")
		sqlArgs = append(sqlArgs, string(p.Type))
	}
	if p.ConstantsOnly {
		where = append(where, "is_constant = 1")
	}
	if p.Tag != "" {
		where = append(where, "tags LIKE ?")
		sqlArgs = append(sqlArgs, `%"`+p.Tag+`"%`)
	}

	query := selectColumns + ` FROM memories WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if p.Limit > 0 {
		query += ` LIMIT ?`
		sqlArgs = append(sqlArgs, p.Limit)
	}

	return s.queryEntries(ctx, query, sqlArgs...)
}

func (s *SQLiteStore) Recent(ctx context.Context, role string, limit int) ([]model.MemoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.List(ctx, role, ListParams{Limit: limit})
}

func (s *SQLiteStore) Remove(ctx context.Context, role, id string, force bool) error {
	lock := s.roleLock(role)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.getLocked(ctx, role, id)
	if err != nil {
		return err
	}
	if entry.IsConstant && !force {
		// Constants are exempt from removal unless an administrative caller
		// forces it.
		s.log.Debug().Str("role", role).Str("id", id).Msg("skip remove of constant entry")
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE role = ? AND id = ?`, role, id); err != nil {
		return storageErr("remove memory", err)
	}
	return nil
}

func (s *SQLiteStore) Roles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role FROM memories
		UNION SELECT role FROM traits
		UNION SELECT role FROM goals
		ORDER BY role`)
	if err != nil {
		return nil, storageErr("list roles", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, storageErr("scan role", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT id, role, type, content, keywords, tags, related_topics,
	emotional_context, priority, is_constant, relevance_weight, emotional_weight,
	time_decay_factor, created_at, updated_at, last_accessed, access_count, source, metadata`

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, sqlArgs ...interface{}) ([]model.MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, sqlArgs...)
	if err != nil {
		return nil, storageErr("query memories", err)
	}
	defer rows.Close()

	var entries []model.MemoryEntry
	for rows.Next() {
		e, err := s.scanEntry(rows)
		if err != nil {
			return nil, storageErr("scan memory", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanEntry(row scanner) (*model.MemoryEntry, error) {
	var e model.MemoryEntry
	var typ, createdAt, updatedAt, lastAccessed string
	var keywords, tags, relatedTopics, emotional, metadata sql.NullString
	var isConstant int

	err := row.Scan(
		&e.ID, &e.Role, &typ, &e.Content, &keywords, &tags, &relatedTopics,
		&emotional, &e.Priority, &isConstant, &e.RelevanceWeight, &e.EmotionalWeight,
		&e.TimeDecayFactor, &createdAt, &updatedAt, &lastAccessed, &e.AccessCount,
		&e.Source, &metadata,
	)
	if err != nil {
		return nil, err
	}

	e.Type = model.MemoryType(typ)
	e.IsConstant = isConstant != 0
	e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	e.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	e.LastAccessed, _ = time.Parse(timeFormat, lastAccessed)
	e.Keywords = listFromJSON(keywords)
	e.Tags = listFromJSON(tags)
	e.RelatedTopics = listFromJSON(relatedTopics)
	e.EmotionalContext = listFromJSON(emotional)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
			// The entry is still usable without its metadata bag.
			s.log.Warn().Err(err).Str("role", e.Role).Str("id", e.ID).
				Msg("dropping unreadable metadata")
		}
	}

	return &e, nil
}

func listJSON(items []string) interface{} {
	if len(items) == 0 {
		return nil
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func listFromJSON(v sql.NullString) []string {
	if !v.Valid || v.String == "" {
		return nil
	}
	var items []string
	json.Unmarshal([]byte(v.String), &items)
	return items
}

func metaJSON(m map[string]model.MetaValue) interface{} {
	if len(m) == 0 {
		return nil
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
