package tools

import "github.com/rolemind/rolemind/internal/args"

// Spec describes one tool for the host to advertise to the model.
type Spec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Schema helpers for building JSON Schema definitions.

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func stringEnumProperty(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func booleanProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
	}
}

func arrayProperty(description string, itemType map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       itemType,
	}
}

func addMemoryProperties() map[string]interface{} {
	return map[string]interface{}{
		"content":           stringProperty("The memory content to store"),
		"keywords":          arrayProperty("Keywords that should trigger recall of this memory", stringProperty("")),
		"tags":              arrayProperty("Free-form organizational tags", stringProperty("")),
		"related_topics":    arrayProperty("Topics this memory is associated with", stringProperty("")),
		"emotional_context": arrayProperty("Emotional tone markers for this memory", stringProperty("")),
		"priority":          integerProperty("Importance from 0 to 100; defaults to 60"),
		"is_constant":       booleanProperty("Constant memories are always recalled and never evicted"),
		"source":            stringProperty("Where this memory came from; defaults to conversation"),
		"user_message":      stringProperty("Natural-language acknowledgment to show the user"),
	}
}

// Specs returns the schema definitions for every tool the dispatcher
// understands, keyed in a stable order.
func Specs() []Spec {
	return []Spec{
		{
			Name:        string(args.ToolAddEpisodic),
			Description: "Store a memory of a specific event or interaction",
			InputSchema: objectSchema(addMemoryProperties(), "content"),
		},
		{
			Name:        string(args.ToolAddSemantic),
			Description: "Store a lasting fact or preference about the user",
			InputSchema: objectSchema(addMemoryProperties(), "content"),
		},
		{
			Name:        string(args.ToolUpdateTraits),
			Description: "Add or update named character traits",
			InputSchema: objectSchema(map[string]interface{}{
				"traits": map[string]interface{}{
					"type":        "object",
					"description": "Trait name to value mapping",
				},
				"user_message": stringProperty("Natural-language acknowledgment to show the user"),
			}, "traits"),
		},
		{
			Name:        string(args.ToolUpdateGoals),
			Description: "Add or update goals by id",
			InputSchema: objectSchema(map[string]interface{}{
				"goals": arrayProperty("Goals to upsert", objectSchema(map[string]interface{}{
					"id":          stringProperty("Goal identifier; omit to create"),
					"description": stringProperty("What the goal is"),
					"status":      stringProperty("Goal status; defaults to active"),
				}, "description")),
				"user_message": stringProperty("Natural-language acknowledgment to show the user"),
			}, "goals"),
		},
		{
			Name:        string(args.ToolSearch),
			Description: "Search stored memories by text",
			InputSchema: objectSchema(map[string]interface{}{
				"query": stringProperty("Text to match against content and keywords"),
				"type":  stringEnumProperty("Restrict to one memory type", "episodic", "semantic"),
				"limit": integerProperty("Maximum results; defaults to 20"),
			}, "query"),
		},
		{
			Name:        string(args.ToolStats),
			Description: "Get aggregate statistics for stored memories",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        string(args.ToolRecent),
			Description: "Get the most recently created memories",
			InputSchema: objectSchema(map[string]interface{}{
				"limit": integerProperty("Maximum results; defaults to 10"),
			}),
		},
		{
			Name:        string(args.ToolCleanup),
			Description: "Compact stored memories by priority and recency",
			InputSchema: objectSchema(map[string]interface{}{
				"max_entries":    integerProperty("Keep at most this many entries"),
				"priority_floor": integerProperty("Remove non-constant entries below this priority"),
			}),
		},
	}
}
