// Package tools is the boundary between the host agent loop and the memory
// subsystem. A Dispatcher is bound to one role for the life of a session and
// turns raw tool calls into store and trigger operations.
package tools

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rolemind/rolemind/internal/args"
	"github.com/rolemind/rolemind/internal/model"
	"github.com/rolemind/rolemind/internal/store"
	"github.com/rolemind/rolemind/internal/trigger"
)

// ToolResult is the uniform outcome returned to the agent loop.
type ToolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Pending bool   `json:"pending,omitempty"`
}

// Dispatcher executes tool calls against a single role's memory.
type Dispatcher struct {
	role   string
	store  store.Store
	engine *trigger.Engine
	log    zerolog.Logger
}

// NewDispatcher binds a dispatcher to one role. The engine may be nil when
// the host does not use prompt injection. A nil logger disables logging.
func NewDispatcher(role string, s store.Store, engine *trigger.Engine, logger *zerolog.Logger) *Dispatcher {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("role", role).Logger()
	}
	return &Dispatcher{role: role, store: s, engine: engine, log: log}
}

// Role returns the role this dispatcher is bound to.
func (d *Dispatcher) Role() string { return d.role }

func failure(err error) ToolResult {
	return ToolResult{Error: err.Error()}
}

func success(message string) ToolResult {
	return ToolResult{Success: true, Message: message}
}

// DispatchRaw decodes a JSON-encoded tool call and dispatches it.
func (d *Dispatcher) DispatchRaw(ctx context.Context, payload []byte) ToolResult {
	call, err := args.ParseCall(payload)
	if err != nil {
		return failure(err)
	}
	return d.Dispatch(ctx, call)
}

// Dispatch normalizes and executes one tool call. Pending (incomplete
// streamed) calls are acknowledged without touching the store. Errors are
// reported in the result, never panicked.
func (d *Dispatcher) Dispatch(ctx context.Context, call *args.ToolCall) ToolResult {
	res, err := args.Normalize(call)
	if err != nil {
		d.log.Debug().Err(err).Str("tool", string(call.Name)).Msg("tool call rejected")
		return failure(err)
	}
	if res.Pending {
		return ToolResult{Success: true, Pending: true, Message: "awaiting more data"}
	}

	switch req := res.Request.(type) {
	case *args.AddMemoryRequest:
		return d.addMemory(ctx, req)
	case *args.UpdateTraitsRequest:
		return d.updateTraits(ctx, req)
	case *args.UpdateGoalsRequest:
		return d.updateGoals(ctx, req)
	case *args.SearchRequest:
		return d.search(ctx, req)
	case *args.StatsRequest:
		return d.stats(ctx)
	case *args.RecentRequest:
		return d.recent(ctx, req)
	case *args.CleanupRequest:
		return d.cleanup(ctx, req)
	default:
		return failure(fmt.Errorf("unhandled request type %T", res.Request))
	}
}

func (d *Dispatcher) addMemory(ctx context.Context, req *args.AddMemoryRequest) ToolResult {
	entry := &model.MemoryEntry{
		Type:             req.Type,
		Content:          req.Content,
		Keywords:         req.Keywords,
		Tags:             req.Tags,
		RelatedTopics:    req.RelatedTopics,
		EmotionalContext: req.EmotionalContext,
		Priority:         req.Priority,
		IsConstant:       req.IsConstant,
		Source:           req.Source,
		RelevanceWeight:  model.DefaultRelevanceWeight,
		EmotionalWeight:  model.DefaultEmotionalWeight,
		TimeDecayFactor:  model.DefaultTimeDecayFactor,
	}
	stored, err := d.store.Add(ctx, d.role, entry)
	if err != nil {
		return failure(err)
	}
	msg := req.UserMessage
	if msg == "" {
		msg = fmt.Sprintf("memory saved (%s)", stored.ID)
	}
	return success(msg)
}

func (d *Dispatcher) updateTraits(ctx context.Context, req *args.UpdateTraitsRequest) ToolResult {
	if err := d.store.SetTraits(ctx, d.role, req.Traits); err != nil {
		return failure(err)
	}
	msg := req.UserMessage
	if msg == "" {
		msg = fmt.Sprintf("%d trait(s) updated", len(req.Traits))
	}
	return success(msg)
}

func (d *Dispatcher) updateGoals(ctx context.Context, req *args.UpdateGoalsRequest) ToolResult {
	if err := d.store.SetGoals(ctx, d.role, req.Goals); err != nil {
		return failure(err)
	}
	msg := req.UserMessage
	if msg == "" {
		msg = fmt.Sprintf("%d goal(s) updated", len(req.Goals))
	}
	return success(msg)
}

func (d *Dispatcher) search(ctx context.Context, req *args.SearchRequest) ToolResult {
	entries, err := d.store.Search(ctx, d.role, store.SearchParams{
		Query: req.Query,
		Type:  req.Type,
		Limit: req.Limit,
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(entries)
}

func (d *Dispatcher) stats(ctx context.Context) ToolResult {
	stats, err := d.store.Stats(ctx, d.role)
	if err != nil {
		return failure(err)
	}
	return jsonResult(stats)
}

func (d *Dispatcher) recent(ctx context.Context, req *args.RecentRequest) ToolResult {
	entries, err := d.store.Recent(ctx, d.role, req.Limit)
	if err != nil {
		return failure(err)
	}
	return jsonResult(entries)
}

func (d *Dispatcher) cleanup(ctx context.Context, req *args.CleanupRequest) ToolResult {
	report, err := d.store.Cleanup(ctx, d.role, store.CleanupParams{
		MaxEntries:    req.MaxEntries,
		PriorityFloor: req.PriorityFloor,
	})
	if err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("removed %d, %d remaining", report.Removed, report.Remaining))
}

// Inject runs a trigger pass for an incoming user message and returns the
// prompt block to prepend. Failures degrade to an empty injection so a
// storage hiccup never fails the conversational turn.
func (d *Dispatcher) Inject(ctx context.Context, message string) string {
	if d.engine == nil {
		return ""
	}
	result, err := d.engine.Trigger(ctx, d.role, message)
	if err != nil {
		d.log.Warn().Err(err).Msg("trigger pass failed, injecting nothing")
		return ""
	}
	return result.Prompt
}

func jsonResult(v interface{}) ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return failure(err)
	}
	return success(string(data))
}
