package args

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rolemind/rolemind/internal/model"
)

// Normalize turns a raw tool call into a typed request.
//
// A partial call with empty params always yields a pending result. For the
// remaining shapes the extraction strategies run in priority order: direct
// named fields, the wrapped-object envelope under "args", then "args" as a
// serialized-XML string. Only after every strategy is exhausted does a
// missing required field become an error; a partial call yields a pending
// result instead.
func Normalize(call *ToolCall) (*Result, error) {
	if call == nil {
		return nil, &MalformedPayloadError{Reason: "nil tool call"}
	}
	if call.Partial && len(call.Params) == 0 {
		return pending(), nil
	}

	switch call.Name {
	case ToolAddEpisodic:
		return normalizeAdd(call, model.Episodic)
	case ToolAddSemantic:
		return normalizeAdd(call, model.Semantic)
	case ToolUpdateTraits:
		return normalizeTraits(call)
	case ToolUpdateGoals:
		return normalizeGoals(call)
	case ToolSearch:
		return normalizeSearch(call)
	case ToolStats:
		return done(&StatsRequest{}), nil
	case ToolRecent:
		return normalizeRecent(call)
	case ToolCleanup:
		return normalizeCleanup(call)
	default:
		return nil, &MalformedPayloadError{Reason: fmt.Sprintf("unrecognized tool %q", call.Name)}
	}
}

// envelope returns candidate parameter maps in priority order (direct
// fields first, then the wrapped-object envelope) plus the wrapped XML
// string when "args" is a plain string.
func envelope(params map[string]interface{}) (maps []map[string]interface{}, xmlStr string) {
	if params != nil {
		maps = append(maps, params)
	}
	switch a := params["args"].(type) {
	case map[string]interface{}:
		maps = append(maps, a)
	case string:
		xmlStr = a
	}
	return maps, xmlStr
}

// writeFields holds the raw extracted values of a memory-write payload
// before defaults and clamping are applied.
type writeFields struct {
	content          string
	keywords         []string
	tags             []string
	relatedTopics    []string
	emotionalContext []string
	priority         int
	prioritySet      bool
	isConstant       bool
	source           string
}

func normalizeAdd(call *ToolCall, typ model.MemoryType) (*Result, error) {
	maps, xmlStr := envelope(call.Params)

	var fields *writeFields
	userMessage := firstString(maps, "user_message")

	for _, m := range maps {
		f, err := writeFieldsFromMap(m)
		if err != nil {
			return nil, err
		}
		if f != nil {
			fields = f
			break
		}
	}
	if fields == nil && xmlStr != "" {
		f, err := writeFieldsFromXML(xmlStr)
		if err != nil {
			return nil, err
		}
		fields = f
	}

	if fields == nil {
		if call.Partial {
			return pending(), nil
		}
		return nil, &MissingFieldError{Fields: []string{"content"}}
	}

	priority := model.DefaultPriority
	if fields.prioritySet {
		priority = model.ClampPriority(fields.priority)
	}
	source := fields.source
	if source == "" {
		source = model.DefaultSource
	}

	return done(&AddMemoryRequest{
		Type:             typ,
		Content:          strings.TrimSpace(fields.content),
		Keywords:         model.NormalizeList(fields.keywords),
		Tags:             model.NormalizeList(fields.tags),
		RelatedTopics:    model.NormalizeList(fields.relatedTopics),
		EmotionalContext: model.NormalizeList(fields.emotionalContext),
		Priority:         priority,
		IsConstant:       fields.isConstant,
		Source:           source,
		UserMessage:      userMessage,
	}), nil
}

// writeFieldsFromMap extracts write fields from one parameter map. The map
// is applicable when it carries a non-empty content field, or an xml_memory
// string whose XML carries one; otherwise (nil, nil) lets the caller fall
// through to the next shape.
func writeFieldsFromMap(m map[string]interface{}) (*writeFields, error) {
	if c, ok := stringParam(m, "content"); ok && strings.TrimSpace(c) != "" {
		f := &writeFields{content: c}
		f.keywords = listParam(m, "keywords")
		f.tags = listParam(m, "tags")
		f.relatedTopics = listParam(m, "related_topics")
		f.emotionalContext = listParam(m, "emotional_context")
		if p, ok, err := intParam(m, "priority"); err != nil {
			return nil, err
		} else if ok {
			f.priority, f.prioritySet = p, true
		}
		f.isConstant = boolParam(m, "is_constant")
		f.source, _ = stringParam(m, "source")
		return f, nil
	}
	if x, ok := stringParam(m, "xml_memory"); ok && strings.TrimSpace(x) != "" {
		return writeFieldsFromXML(x)
	}
	return nil, nil
}

// writeFieldsFromXML extracts write fields from a serialized-XML fragment.
// The fragment is applicable only when a <content> tag is present; every
// other absent tag resolves to its default.
func writeFieldsFromXML(x string) (*writeFields, error) {
	content, ok := extractTag(x, "content")
	if !ok || content == "" {
		return nil, nil
	}
	f := &writeFields{content: content}
	if v, ok := extractTag(x, "keywords"); ok {
		f.keywords = splitList(v)
	}
	if v, ok := extractTag(x, "tags"); ok {
		f.tags = splitList(v)
	}
	if v, ok := extractTag(x, "related_topics"); ok {
		f.relatedTopics = splitList(v)
	}
	if v, ok := extractTag(x, "emotional_context"); ok {
		f.emotionalContext = splitList(v)
	}
	if v, ok := extractTag(x, "priority"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &OutOfRangeError{Field: "priority", Value: v}
		}
		f.priority, f.prioritySet = n, true
	}
	if v, ok := extractTag(x, "is_constant"); ok {
		f.isConstant = parseBoolTag(v)
	}
	if v, ok := extractTag(x, "source"); ok {
		f.source = v
	}
	return f, nil
}

func normalizeTraits(call *ToolCall) (*Result, error) {
	maps, xmlStr := envelope(call.Params)

	var traits map[string]string
	for _, m := range maps {
		if t := traitsFromMap(m); len(t) > 0 {
			traits = t
			break
		}
	}
	if traits == nil && xmlStr != "" {
		traits = extractTraits(xmlStr)
	}

	if len(traits) == 0 {
		if call.Partial {
			return pending(), nil
		}
		return nil, &MissingFieldError{Fields: []string{"traits"}}
	}

	return done(&UpdateTraitsRequest{
		Traits:      traits,
		UserMessage: firstString(maps, "user_message"),
	}), nil
}

func traitsFromMap(m map[string]interface{}) map[string]string {
	switch t := m["traits"].(type) {
	case map[string]interface{}:
		traits := make(map[string]string, len(t))
		for name, raw := range t {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			traits[name] = scalarString(raw)
		}
		if len(traits) > 0 {
			return traits
		}
	case string:
		return extractTraits(t)
	}
	if x, ok := stringParam(m, "xml_memory"); ok {
		return extractTraits(x)
	}
	return nil
}

func normalizeGoals(call *ToolCall) (*Result, error) {
	maps, xmlStr := envelope(call.Params)

	var goals []model.Goal
	for _, m := range maps {
		if g := goalsFromMap(m); len(g) > 0 {
			goals = g
			break
		}
	}
	if goals == nil && xmlStr != "" {
		goals = goalsFromElements(extractGoals(xmlStr))
	}

	if len(goals) == 0 {
		if call.Partial {
			return pending(), nil
		}
		return nil, &MissingFieldError{Fields: []string{"goals"}}
	}

	return done(&UpdateGoalsRequest{
		Goals:       goals,
		UserMessage: firstString(maps, "user_message"),
	}), nil
}

func goalsFromMap(m map[string]interface{}) []model.Goal {
	switch g := m["goals"].(type) {
	case map[string]interface{}:
		var goals []model.Goal
		for id, raw := range g {
			desc := scalarString(raw)
			if strings.TrimSpace(desc) == "" {
				continue
			}
			goals = append(goals, newGoal(id, desc, ""))
		}
		return goals
	case []interface{}:
		var goals []model.Goal
		for _, raw := range g {
			switch item := raw.(type) {
			case string:
				if strings.TrimSpace(item) != "" {
					goals = append(goals, newGoal("", item, ""))
				}
			case map[string]interface{}:
				id, _ := stringParam(item, "id")
				desc, _ := stringParam(item, "description")
				status, _ := stringParam(item, "status")
				if strings.TrimSpace(desc) != "" {
					goals = append(goals, newGoal(id, desc, status))
				}
			}
		}
		return goals
	case string:
		return goalsFromElements(extractGoals(g))
	}
	if x, ok := stringParam(m, "xml_memory"); ok {
		return goalsFromElements(extractGoals(x))
	}
	return nil
}

func goalsFromElements(elems []goalElement) []model.Goal {
	var goals []model.Goal
	for _, e := range elems {
		goals = append(goals, newGoal(e.ID, e.Description, e.Status))
	}
	return goals
}

func newGoal(id, description, status string) model.Goal {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = model.GoalStatusActive
	}
	return model.Goal{ID: id, Description: strings.TrimSpace(description), Status: status}
}

func normalizeSearch(call *ToolCall) (*Result, error) {
	maps, xmlStr := envelope(call.Params)

	req := &SearchRequest{}
	for _, m := range maps {
		if req.Query == "" {
			if q, ok := stringParam(m, "query"); ok && strings.TrimSpace(q) != "" {
				req.Query = strings.TrimSpace(q)
			} else if q, ok := stringParam(m, "keywords"); ok && strings.TrimSpace(q) != "" {
				req.Query = strings.TrimSpace(q)
			}
		}
		if req.Limit == 0 {
			if n, ok, err := intParam(m, "limit"); err != nil {
				return nil, err
			} else if ok {
				req.Limit = n
			}
		}
		if req.Type == "" {
			if t, err := typeParam(m); err != nil {
				return nil, err
			} else {
				req.Type = t
			}
		}
	}
	if req.Query == "" && xmlStr != "" {
		if q, ok := extractTag(xmlStr, "query"); ok {
			req.Query = q
		} else if q, ok := extractTag(xmlStr, "keywords"); ok {
			req.Query = q
		}
	}

	if req.Query == "" {
		if call.Partial {
			return pending(), nil
		}
		return nil, &MissingFieldError{Fields: []string{"query"}}
	}
	return done(req), nil
}

func normalizeRecent(call *ToolCall) (*Result, error) {
	maps, _ := envelope(call.Params)
	req := &RecentRequest{}
	for _, m := range maps {
		if n, ok, err := intParam(m, "limit"); err != nil {
			return nil, err
		} else if ok {
			req.Limit = n
			break
		}
	}
	return done(req), nil
}

func normalizeCleanup(call *ToolCall) (*Result, error) {
	maps, _ := envelope(call.Params)
	req := &CleanupRequest{}
	for _, m := range maps {
		if req.MaxEntries == 0 {
			if n, ok, err := intParam(m, "max_entries"); err != nil {
				return nil, err
			} else if ok {
				req.MaxEntries = n
			}
		}
		if req.PriorityFloor == 0 {
			if n, ok, err := intParam(m, "priority_floor"); err != nil {
				return nil, err
			} else if ok {
				req.PriorityFloor = model.ClampPriority(n)
			}
		}
	}
	return done(req), nil
}

// Parameter coercion helpers. JSON numbers decode as float64; several
// upstream shapes carry numbers and booleans as strings, so both forms
// are accepted.

func stringParam(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

func firstString(maps []map[string]interface{}, key string) string {
	for _, m := range maps {
		if v, ok := stringParam(m, key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intParam(m map[string]interface{}, key string) (int, bool, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return int(v), true, nil
	case int:
		return v, true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false, &OutOfRangeError{Field: key, Value: v}
		}
		return n, true, nil
	default:
		return 0, false, &OutOfRangeError{Field: key, Value: fmt.Sprintf("%v", v)}
	}
}

func boolParam(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return parseBoolTag(v)
	default:
		return false
	}
}

func listParam(m map[string]interface{}, key string) []string {
	switch v := m[key].(type) {
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitList(v)
	default:
		return nil
	}
}

func typeParam(m map[string]interface{}) (model.MemoryType, error) {
	for _, key := range []string{"type", "memory_type"} {
		if v, ok := stringParam(m, key); ok && strings.TrimSpace(v) != "" {
			t := model.MemoryType(strings.ToLower(strings.TrimSpace(v)))
			if !model.ValidTypes[t] {
				return "", &OutOfRangeError{Field: key, Value: v}
			}
			return t, nil
		}
	}
	return "", nil
}

func scalarString(raw interface{}) string {
	mv, err := model.MetaFromAny(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return mv.String()
}
