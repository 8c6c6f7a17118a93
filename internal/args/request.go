// Package args normalizes raw tool-invocation payloads into typed requests.
//
// Payloads arrive from an upstream model in several incompatible shapes:
// well-formed named parameters, parameters nested under a generic "args"
// envelope, or a single serialized-XML string. Normalization tries each
// shape in priority order and only fails once every strategy is exhausted.
package args

import (
	"github.com/goccy/go-json"

	"github.com/rolemind/rolemind/internal/model"
)

// ToolName identifies a recognized tool at the invocation boundary.
type ToolName string

const (
	ToolAddEpisodic  ToolName = "add_episodic_memory"
	ToolAddSemantic  ToolName = "add_semantic_memory"
	ToolUpdateTraits ToolName = "update_traits"
	ToolUpdateGoals  ToolName = "update_goals"
	ToolSearch       ToolName = "search_memories"
	ToolStats        ToolName = "get_memory_stats"
	ToolRecent       ToolName = "get_recent_memories"
	ToolCleanup      ToolName = "cleanup_memories"
)

// ToolNames lists every recognized tool.
var ToolNames = []ToolName{
	ToolAddEpisodic, ToolAddSemantic, ToolUpdateTraits, ToolUpdateGoals,
	ToolSearch, ToolStats, ToolRecent, ToolCleanup,
}

// ToolCall is a raw tool invocation consumed from the host agent loop.
// Partial marks an in-progress call whose arguments are still streaming.
type ToolCall struct {
	Name    ToolName               `json:"name"`
	Params  map[string]interface{} `json:"params"`
	Partial bool                   `json:"partial,omitempty"`
}

// ParseCall decodes a JSON-encoded tool call.
func ParseCall(data []byte) (*ToolCall, error) {
	var call ToolCall
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, &MalformedPayloadError{Reason: "tool call is not valid JSON", Err: err}
	}
	return &call, nil
}

// Request is one of the closed set of typed requests a payload can
// normalize into.
type Request interface {
	Tool() ToolName
}

// AddMemoryRequest is a validated memory-write request. Fields already
// satisfy the data-model invariants: priority clamped, content non-empty,
// lists deduplicated and trimmed.
type AddMemoryRequest struct {
	Type             model.MemoryType
	Content          string
	Keywords         []string
	Tags             []string
	RelatedTopics    []string
	EmotionalContext []string
	Priority         int
	IsConstant       bool
	Source           string
	// UserMessage is the companion natural-language acknowledgment to
	// surface to the end user. It is not stored as memory content.
	UserMessage string
}

func (r *AddMemoryRequest) Tool() ToolName {
	if r.Type == model.Episodic {
		return ToolAddEpisodic
	}
	return ToolAddSemantic
}

// UpdateTraitsRequest replaces or adds named character traits.
type UpdateTraitsRequest struct {
	Traits      map[string]string
	UserMessage string
}

func (r *UpdateTraitsRequest) Tool() ToolName { return ToolUpdateTraits }

// UpdateGoalsRequest upserts goals by id.
type UpdateGoalsRequest struct {
	Goals       []model.Goal
	UserMessage string
}

func (r *UpdateGoalsRequest) Tool() ToolName { return ToolUpdateGoals }

// SearchRequest is a memory-query request.
type SearchRequest struct {
	Query string
	Type  model.MemoryType // empty = both variants
	Limit int
}

func (r *SearchRequest) Tool() ToolName { return ToolSearch }

// StatsRequest asks for aggregate store statistics.
type StatsRequest struct{}

func (r *StatsRequest) Tool() ToolName { return ToolStats }

// RecentRequest asks for the most recently created memories.
type RecentRequest struct {
	Limit int
}

func (r *RecentRequest) Tool() ToolName { return ToolRecent }

// CleanupRequest asks the store to compact itself. Zero values mean
// "use the configured defaults".
type CleanupRequest struct {
	MaxEntries    int
	PriorityFloor int
}

func (r *CleanupRequest) Tool() ToolName { return ToolCleanup }

// Result is the outcome of normalizing a tool call. Pending signals an
// incomplete streamed call: not yet ready, not a validation failure.
type Result struct {
	Pending bool
	Request Request
}

func pending() *Result { return &Result{Pending: true} }

func done(req Request) *Result { return &Result{Request: req} }
