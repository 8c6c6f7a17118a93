package args

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rolemind/rolemind/internal/model"
)

const sampleXML = `<memory><content>用户喜欢喝咖啡</content><keywords>咖啡,早晨习惯</keywords><priority>75</priority><is_constant>true</is_constant></memory>`

func normalizeAddCall(t *testing.T, call *ToolCall) *AddMemoryRequest {
	t.Helper()
	res, err := Normalize(call)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Pending {
		t.Fatal("expected a completed request, got pending")
	}
	req, ok := res.Request.(*AddMemoryRequest)
	if !ok {
		t.Fatalf("expected AddMemoryRequest, got %T", res.Request)
	}
	return req
}

// The three accepted input shapes carrying equivalent data must produce an
// identical typed request.
func TestShapeInvariance(t *testing.T) {
	direct := &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{
		"content":     "用户喜欢喝咖啡",
		"keywords":    "咖啡,早晨习惯",
		"priority":    "75",
		"is_constant": "true",
	}}
	wrappedObject := &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{
		"args": map[string]interface{}{
			"content":     "用户喜欢喝咖啡",
			"keywords":    []interface{}{"咖啡", "早晨习惯"},
			"priority":    float64(75),
			"is_constant": true,
		},
	}}
	wrappedXML := &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{
		"args": sampleXML,
	}}

	want := normalizeAddCall(t, direct)
	for name, call := range map[string]*ToolCall{
		"wrapped object": wrappedObject,
		"wrapped xml":    wrappedXML,
	} {
		got := normalizeAddCall(t, call)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: request differs from direct shape:\ngot  %+v\nwant %+v", name, got, want)
		}
	}
}

func TestWrappedXMLScenario(t *testing.T) {
	call := &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{"args": sampleXML}}
	req := normalizeAddCall(t, call)

	if req.Type != model.Semantic {
		t.Errorf("expected semantic, got %s", req.Type)
	}
	if req.Content != "用户喜欢喝咖啡" {
		t.Errorf("unexpected content: %q", req.Content)
	}
	if len(req.Keywords) != 2 || req.Keywords[0] != "咖啡" || req.Keywords[1] != "早晨习惯" {
		t.Errorf("unexpected keywords: %v", req.Keywords)
	}
	if req.Priority != 75 {
		t.Errorf("expected priority 75, got %d", req.Priority)
	}
	if !req.IsConstant {
		t.Error("expected is_constant true")
	}
	if req.Source != model.DefaultSource {
		t.Errorf("expected default source, got %q", req.Source)
	}
}

func TestXMLMemoryAsDirectField(t *testing.T) {
	call := &ToolCall{Name: ToolAddEpisodic, Params: map[string]interface{}{
		"xml_memory":   sampleXML,
		"user_message": "I'll remember that.",
	}}
	req := normalizeAddCall(t, call)
	if req.Type != model.Episodic {
		t.Errorf("expected episodic, got %s", req.Type)
	}
	if req.Content != "用户喜欢喝咖啡" {
		t.Errorf("unexpected content: %q", req.Content)
	}
	if req.UserMessage != "I'll remember that." {
		t.Errorf("unexpected user message: %q", req.UserMessage)
	}
}

func TestPartialEmptyParamsIsPending(t *testing.T) {
	for _, name := range ToolNames {
		res, err := Normalize(&ToolCall{Name: name, Partial: true})
		if err != nil {
			t.Errorf("%s: expected pending, got error %v", name, err)
			continue
		}
		if !res.Pending {
			t.Errorf("%s: expected pending result", name)
		}
	}
}

func TestPartialMissingFieldsIsPending(t *testing.T) {
	res, err := Normalize(&ToolCall{
		Name:    ToolAddSemantic,
		Params:  map[string]interface{}{"user_message": "still streaming"},
		Partial: true,
	})
	if err != nil {
		t.Fatalf("expected pending, got %v", err)
	}
	if !res.Pending {
		t.Error("expected pending result")
	}
}

func TestMissingContentFails(t *testing.T) {
	_, err := Normalize(&ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{}})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if len(missing.Fields) != 1 || missing.Fields[0] != "content" {
		t.Errorf("expected missing content, got %v", missing.Fields)
	}
}

func TestNonNumericPriority(t *testing.T) {
	for _, params := range []map[string]interface{}{
		{"content": "x", "priority": "not-a-number"},
		{"args": `<memory><content>x</content><priority>high</priority></memory>`},
	} {
		_, err := Normalize(&ToolCall{Name: ToolAddSemantic, Params: params})
		var oor *OutOfRangeError
		if !errors.As(err, &oor) {
			t.Errorf("params %v: expected OutOfRangeError, got %v", params, err)
			continue
		}
		if oor.Field != "priority" {
			t.Errorf("expected field priority, got %q", oor.Field)
		}
	}
}

func TestPriorityClamped(t *testing.T) {
	req := normalizeAddCall(t, &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{
		"content": "x", "priority": float64(250),
	}})
	if req.Priority != 100 {
		t.Errorf("expected clamp to 100, got %d", req.Priority)
	}

	req = normalizeAddCall(t, &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{
		"content": "x", "priority": float64(-3),
	}})
	if req.Priority != 0 {
		t.Errorf("expected clamp to 0, got %d", req.Priority)
	}
}

func TestDefaultsApplied(t *testing.T) {
	req := normalizeAddCall(t, &ToolCall{Name: ToolAddSemantic, Params: map[string]interface{}{
		"content": "plain fact",
	}})
	if req.Priority != model.DefaultPriority {
		t.Errorf("expected default priority %d, got %d", model.DefaultPriority, req.Priority)
	}
	if req.IsConstant {
		t.Error("expected is_constant default false")
	}
	if req.Source != model.DefaultSource {
		t.Errorf("expected default source, got %q", req.Source)
	}
}

func TestListsDeduplicatedAndTrimmed(t *testing.T) {
	req := normalizeAddCall(t, &ToolCall{Name: ToolAddEpisodic, Params: map[string]interface{}{
		"content":  "we talked about the trip",
		"keywords": " trip , trip, travel ",
		"tags":     []interface{}{"plans", " plans "},
	}})
	if len(req.Keywords) != 2 {
		t.Errorf("expected deduplicated keywords, got %v", req.Keywords)
	}
	if len(req.Tags) != 1 || req.Tags[0] != "plans" {
		t.Errorf("expected deduplicated trimmed tags, got %v", req.Tags)
	}
}

func TestNormalizeTraits(t *testing.T) {
	res, err := Normalize(&ToolCall{Name: ToolUpdateTraits, Params: map[string]interface{}{
		"traits": map[string]interface{}{"patience": "high", "formality": float64(3)},
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	req := res.Request.(*UpdateTraitsRequest)
	if req.Traits["patience"] != "high" {
		t.Errorf("unexpected traits: %v", req.Traits)
	}
	if req.Traits["formality"] != "3" {
		t.Errorf("expected numeric trait stringified, got %q", req.Traits["formality"])
	}
}

func TestNormalizeTraitsFromXMLEnvelope(t *testing.T) {
	res, err := Normalize(&ToolCall{Name: ToolUpdateTraits, Params: map[string]interface{}{
		"args": `<traits><trait name="mood">cheerful</trait></traits>`,
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	req := res.Request.(*UpdateTraitsRequest)
	if req.Traits["mood"] != "cheerful" {
		t.Errorf("unexpected traits: %v", req.Traits)
	}
}

func TestNormalizeGoals(t *testing.T) {
	res, err := Normalize(&ToolCall{Name: ToolUpdateGoals, Params: map[string]interface{}{
		"goals": []interface{}{
			map[string]interface{}{"id": "g1", "description": "befriend the user", "status": "active"},
			"learn their schedule",
		},
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	req := res.Request.(*UpdateGoalsRequest)
	if len(req.Goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(req.Goals))
	}
	if req.Goals[0].ID != "g1" {
		t.Errorf("expected explicit id preserved, got %q", req.Goals[0].ID)
	}
	if req.Goals[1].ID == "" {
		t.Error("expected generated id for goal without one")
	}
	if req.Goals[1].Status != model.GoalStatusActive {
		t.Errorf("expected default status, got %q", req.Goals[1].Status)
	}
}

func TestNormalizeSearch(t *testing.T) {
	res, err := Normalize(&ToolCall{Name: ToolSearch, Params: map[string]interface{}{
		"query": "coffee", "limit": float64(5), "memory_type": "semantic",
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	req := res.Request.(*SearchRequest)
	if req.Query != "coffee" || req.Limit != 5 || req.Type != model.Semantic {
		t.Errorf("unexpected request: %+v", req)
	}

	_, err = Normalize(&ToolCall{Name: ToolSearch, Params: map[string]interface{}{}})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}

	_, err = Normalize(&ToolCall{Name: ToolSearch, Params: map[string]interface{}{
		"query": "coffee", "memory_type": "procedural",
	}})
	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError for unknown type, got %v", err)
	}
}

func TestUnrecognizedTool(t *testing.T) {
	_, err := Normalize(&ToolCall{Name: "delete_everything"})
	var malformed *MalformedPayloadError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedPayloadError, got %v", err)
	}
}

func TestParseCall(t *testing.T) {
	call, err := ParseCall([]byte(`{"name":"add_semantic_memory","params":{"content":"x"},"partial":false}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if call.Name != ToolAddSemantic {
		t.Errorf("unexpected name %q", call.Name)
	}

	_, err = ParseCall([]byte(`{not json`))
	var malformed *MalformedPayloadError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedPayloadError, got %v", err)
	}
}
