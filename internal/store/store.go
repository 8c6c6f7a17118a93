// Package store provides durable per-role memory storage and all mutation
// of memory, trait, and goal records, plus the cleanup/eviction policy.
package store

import (
	"context"
	"time"

	"github.com/rolemind/rolemind/internal/model"
)

// ListParams holds filters for listing a role's memories.
type ListParams struct {
	Type          model.MemoryType // empty = both variants
	ConstantsOnly bool
	Tag           string
	Limit         int
}

// SearchParams holds parameters for searching a role's memories.
type SearchParams struct {
	Query string
	Type  model.MemoryType
	Limit int
}

// Patch holds partial updates for an existing entry. Nil pointers leave the
// corresponding field unchanged.
type Patch struct {
	Content          *string
	Keywords         *[]string
	Tags             *[]string
	RelatedTopics    *[]string
	EmotionalContext *[]string
	Priority         *int
	IsConstant       *bool
	RelevanceWeight  *float64
	EmotionalWeight  *float64
	TimeDecayFactor  *float64
	Source           *string
	Metadata         map[string]model.MetaValue
}

// CleanupParams configures one eviction pass. Zero values disable the
// corresponding criterion.
type CleanupParams struct {
	// MaxEntries caps the role's total entry count (constants included in
	// the count but never removed).
	MaxEntries int
	// PriorityFloor removes non-constant entries whose priority is below it.
	PriorityFloor int
	// DryRun reports what would be removed without removing anything.
	DryRun bool
}

// CleanupReport summarizes one eviction pass.
type CleanupReport struct {
	Role              string `json:"role"`
	Removed           int    `json:"removed"`
	RemovedBelowFloor int    `json:"removed_below_floor"`
	RemovedOverCap    int    `json:"removed_over_cap"`
	Remaining         int    `json:"remaining"`
	PriorityFloor     int    `json:"priority_floor"`
	MaxEntries        int    `json:"max_entries"`
	DryRun            bool   `json:"dry_run,omitempty"`
}

// Store defines the memory storage interface. All operations for one role
// are serialized; operations for different roles proceed concurrently.
type Store interface {
	// Add inserts a new entry or, when the id already exists for the role,
	// merges the fields into the existing entry without duplicating the id.
	Add(ctx context.Context, role string, e *model.MemoryEntry) (*model.MemoryEntry, error)

	// Update patches an existing entry and bumps UpdatedAt.
	Update(ctx context.Context, role, id string, patch Patch) (*model.MemoryEntry, error)

	// Get retrieves an entry by id without touching access bookkeeping.
	Get(ctx context.Context, role, id string) (*model.MemoryEntry, error)

	// Touch records that the given entries were surfaced: increments
	// AccessCount and advances LastAccessed (never backwards).
	Touch(ctx context.Context, role string, ids []string, at time.Time) error

	// List returns entries matching the filters, administrative path.
	List(ctx context.Context, role string, p ListParams) ([]model.MemoryEntry, error)

	// Search finds entries whose content, keywords, or tags match the query
	// substring, case-insensitively.
	Search(ctx context.Context, role string, p SearchParams) ([]model.MemoryEntry, error)

	// Recent returns the most recently created entries.
	Recent(ctx context.Context, role string, limit int) ([]model.MemoryEntry, error)

	// Remove hard-deletes an entry. Constant entries are a silent no-op
	// unless force is set.
	Remove(ctx context.Context, role, id string, force bool) error

	// Cleanup runs the eviction policy for a role.
	Cleanup(ctx context.Context, role string, p CleanupParams) (*CleanupReport, error)

	// Stats returns aggregate statistics for a role.
	Stats(ctx context.Context, role string) (*Stats, error)

	// SetTraits upserts named traits for a role.
	SetTraits(ctx context.Context, role string, traits map[string]string) error

	// Traits returns all traits for a role, sorted by name.
	Traits(ctx context.Context, role string) ([]model.Trait, error)

	// SetGoals upserts goals by id for a role.
	SetGoals(ctx context.Context, role string, goals []model.Goal) error

	// Goals returns all goals for a role, sorted by id.
	Goals(ctx context.Context, role string) ([]model.Goal, error)

	// ExportRole snapshots one role's entries, traits, and goals.
	ExportRole(ctx context.Context, role string) (*RoleExport, error)

	// ImportRole loads a snapshot into a role's store, upserting by id.
	ImportRole(ctx context.Context, role string, exp *RoleExport) (int, error)

	// Roles lists every role with stored state.
	Roles(ctx context.Context) ([]string, error)

	// Close closes the store.
	Close() error
}
