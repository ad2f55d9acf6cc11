package parse

import (
	"reflect"
	"testing"
)

func TestParse_CleanJSON(t *testing.T) {
	result := Parse(`{"a":1}`)
	if !result.OK() {
		t.Fatalf("expected success, got failure: %+v", result.Failure)
	}
	want := map[string]any{"a": float64(1)}
	if !reflect.DeepEqual(result.Value, want) {
		t.Errorf("expected %v, got %v", want, result.Value)
	}
}

func TestParse_FencedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "json-tagged fence", raw: "```json\n{\"a\":1}\n```"},
		{name: "untagged fence", raw: "```\n{\"a\":1}\n```"},
		{name: "fence with surrounding whitespace", raw: "  \n```json\n{\"a\":1}\n```  \n"},
		{name: "closing fence glued to content", raw: "```json\n{\"a\":1}```"},
	}

	want := map[string]any{"a": float64(1)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.raw)
			if !result.OK() {
				t.Fatalf("expected success, got failure: %+v", result.Failure)
			}
			if !reflect.DeepEqual(result.Value, want) {
				t.Errorf("expected %v, got %v", want, result.Value)
			}
		})
	}
}

// Fenced and unfenced renderings of the same JSON must parse identically.
func TestParse_FenceIdempotence(t *testing.T) {
	plain := Parse(`{"nested":{"x":[1,2,3]},"ok":true}`)
	fenced := Parse("```json\n{\"nested\":{\"x\":[1,2,3]},\"ok\":true}\n```")

	if !plain.OK() || !fenced.OK() {
		t.Fatalf("expected both to succeed: plain=%+v fenced=%+v", plain.Failure, fenced.Failure)
	}
	if !reflect.DeepEqual(plain.Value, fenced.Value) {
		t.Errorf("fenced parse diverged: %v vs %v", plain.Value, fenced.Value)
	}
}

func TestParse_ProseFailure(t *testing.T) {
	raw := "Sure! Here's your data: not json at all"
	result := Parse("  " + raw + "  ")

	if result.OK() {
		t.Fatalf("expected failure, got value %v", result.Value)
	}
	if result.Failure.RawText != raw {
		t.Errorf("expected raw_text to equal the trimmed input, got %q", result.Failure.RawText)
	}
	if result.Failure.Reason != FailureReason {
		t.Errorf("expected the standard reason, got %q", result.Failure.Reason)
	}
}

func TestParse_RepairsNearJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			name: "single quotes and bare keys",
			raw:  `{name: 'John', age: 30}`,
			want: map[string]any{"name": "John", "age": float64(30)},
		},
		{
			name: "trailing comma",
			raw:  `{"a": 1,}`,
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "truncated object",
			raw:  `{"a": 1, "b": 2`,
			want: map[string]any{"a": float64(1), "b": float64(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.raw)
			if !result.OK() {
				t.Fatalf("expected repair to succeed, got failure: %+v", result.Failure)
			}
			if !reflect.DeepEqual(result.Value, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, result.Value)
			}
		})
	}
}

func TestParse_ScalarsAndArrays(t *testing.T) {
	arrayResult := Parse(`[1, "two", null]`)
	if !arrayResult.OK() {
		t.Fatalf("expected array to parse, got %+v", arrayResult.Failure)
	}
	want := []any{float64(1), "two", nil}
	if !reflect.DeepEqual(arrayResult.Value, want) {
		t.Errorf("expected %v, got %v", want, arrayResult.Value)
	}

	nullResult := Parse("null")
	if !nullResult.OK() {
		t.Fatalf("expected null to parse, got %+v", nullResult.Failure)
	}
	if nullResult.Value != nil {
		t.Errorf("expected nil value for null, got %v", nullResult.Value)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "```json\n```", "```json"} {
		result := Parse(raw)
		if result.OK() {
			t.Errorf("Parse(%q): expected failure, got value %v", raw, result.Value)
		}
	}
}
