package trigger

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rolemind/rolemind/internal/model"
	"github.com/rolemind/rolemind/internal/store"
)

// Config tunes memory selection. It is built once per session and treated
// as read-only afterwards.
type Config struct {
	MinScore      float64       // non-constants scoring below this are dropped
	MaxEntries    int           // selection cap; constants are exempt
	DecayHalfLife time.Duration // elapsed time at which decay(d, 1) halves
	CharBudget    int           // max chars of rendered memory text
	Debug         bool          // log per-candidate scores
}

// DefaultConfig returns the tuning used when the host does not override it.
func DefaultConfig() Config {
	return Config{
		MinScore:      0.2,
		MaxEntries:    10,
		DecayHalfLife: 7 * 24 * time.Hour,
		CharBudget:    4000,
	}
}

// Fragment is one selected memory rendered for prompt injection.
type Fragment struct {
	ID       string           `json:"id"`
	Type     model.MemoryType `json:"type"`
	Content  string           `json:"content"`
	Score    float64          `json:"score"`
	Constant bool             `json:"constant,omitempty"`
	Excerpt  bool             `json:"excerpt,omitempty"`
}

// Result is the assembled injection for one user message.
type Result struct {
	Fragments []Fragment `json:"fragments"`
	Prompt    string     `json:"prompt"`
	Count     int        `json:"count"`
}

// Engine ranks stored memories against incoming messages.
type Engine struct {
	store store.Store
	cfg   Config
	log   zerolog.Logger
}

// NewEngine wires an engine to a store. A nil logger disables logging.
func NewEngine(s store.Store, cfg Config, logger *zerolog.Logger) *Engine {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	if cfg.DecayHalfLife <= 0 {
		cfg.DecayHalfLife = DefaultConfig().DecayHalfLife
	}
	if cfg.CharBudget <= 0 {
		cfg.CharBudget = DefaultConfig().CharBudget
	}
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &Engine{store: s, cfg: cfg, log: log}
}

// decay maps elapsed time to (0, 1]. A factor of 0 disables decay entirely;
// for factor > 0 the value is strictly decreasing in elapsed time and
// reaches 1/2 at halfLife/factor.
func decay(elapsed time.Duration, factor float64, halfLife time.Duration) float64 {
	if factor <= 0 {
		return 1
	}
	if elapsed < 0 {
		elapsed = 0
	}
	d := elapsed.Hours() / halfLife.Hours()
	return math.Exp(-math.Ln2 * factor * d)
}

type candidate struct {
	entry model.MemoryEntry
	score float64
}

// Trigger scores all of the role's memories against the message and returns
// the selected, rendered set. Selected entries have their access bookkeeping
// bumped; a cancelled context aborts before any bookkeeping is applied.
func (e *Engine) Trigger(ctx context.Context, role, message string) (*Result, error) {
	entries, err := e.store.List(ctx, role, store.ListParams{})
	if err != nil {
		return nil, err
	}

	tokens := tokenize(message)
	lowerMessage := strings.ToLower(message)
	now := time.Now()

	var candidates []candidate
	for i := range entries {
		entry := entries[i]
		topical := topicalOverlap(&entry, tokens, lowerMessage)
		emotional := emotionalOverlap(&entry, tokens, lowerMessage)
		if !entry.IsConstant && topical == 0 && emotional == 0 {
			continue
		}

		recency := decay(now.Sub(entry.LastAccessed), entry.TimeDecayFactor, e.cfg.DecayHalfLife)
		score := entry.RelevanceWeight*topical +
			entry.EmotionalWeight*emotional +
			float64(entry.Priority)/100*recency

		if e.cfg.Debug {
			e.log.Debug().
				Str("id", entry.ID).
				Float64("topical", topical).
				Float64("emotional", emotional).
				Float64("recency", recency).
				Float64("score", score).
				Msg("trigger candidate")
		}
		candidates = append(candidates, candidate{entry: entry, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].entry.Priority != candidates[j].entry.Priority {
			return candidates[i].entry.Priority > candidates[j].entry.Priority
		}
		return candidates[i].entry.UpdatedAt.After(candidates[j].entry.UpdatedAt)
	})

	// Constants are always injected; non-constants fill the remaining
	// slots in score order, subject to the minimum score.
	var selected []candidate
	nonConstants := 0
	for _, c := range candidates {
		if c.entry.IsConstant {
			selected = append(selected, c)
			continue
		}
		if c.score < e.cfg.MinScore {
			continue
		}
		if len(selected) >= e.cfg.MaxEntries {
			continue
		}
		selected = append(selected, c)
		nonConstants++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := render(selected, e.cfg.CharBudget)

	if len(result.Fragments) > 0 {
		ids := make([]string, 0, len(result.Fragments))
		for _, f := range result.Fragments {
			ids = append(ids, f.ID)
		}
		if err := e.store.Touch(ctx, role, ids, now); err != nil {
			return nil, err
		}
	}

	e.log.Debug().
		Str("role", role).
		Int("candidates", len(candidates)).
		Int("selected", result.Count).
		Int("non_constant", nonConstants).
		Msg("trigger pass complete")

	return result, nil
}
