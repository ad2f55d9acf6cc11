// Package parse recovers structured values from raw model output. Models
// wrap JSON in code fences, add commentary, or emit near-valid JSON; the
// repair pipeline applies an explicit, ordered list of normalization steps
// and models irrecoverable failure as a value, never as a Go error.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// FailureReason is the standard reason attached to every parse failure.
const FailureReason = "model did not return valid structured data"

// Result is the outcome of parsing raw model output. Exactly one of Value or
// Failure is set. Results are terminal and never mutated after creation.
type Result struct {
	// Value is the recovered structured value: a JSON-compatible tree of
	// objects, arrays, strings, numbers, booleans and nulls.
	Value any

	// Failure carries the raw text when no structured value could be
	// recovered.
	Failure *Failure
}

// Failure describes an unparseable model answer. It is an expected, modeled
// outcome of the pipeline, not a pipeline error.
type Failure struct {
	RawText string `json:"raw_text"`
	Reason  string `json:"reason"`
}

// OK reports whether a structured value was recovered.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Parse applies the repair steps in order and returns the outcome:
//
//  1. Trim surrounding whitespace.
//  2. Strip an opening code fence, with or without a language tag.
//  3. Strip a closing code fence.
//  4. Re-trim.
//  5. Strict JSON parse.
//  6. If the text still looks structural, mechanical JSON repair and
//     re-parse.
//
// Any further heuristic must be added as a new ordered step with its own
// test case. Parse never panics or returns a Go error.
func Parse(rawText string) Result {
	cleaned := strings.TrimSpace(rawText)
	cleaned = stripOpeningFence(cleaned)
	cleaned = stripClosingFence(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err == nil {
		return Result{Value: value}
	}

	// Repair only applies to text that plausibly is JSON. Prose answers must
	// fail cleanly instead of being mangled into a string value.
	if looksStructural(cleaned) {
		if repaired, err := jsonrepair.JSONRepair(cleaned); err == nil {
			if err := json.Unmarshal([]byte(repaired), &value); err == nil {
				return Result{Value: value}
			}
		}
	}

	return Result{Failure: &Failure{RawText: cleaned, Reason: FailureReason}}
}

// stripOpeningFence removes a leading ``` line, optionally tagged (```json).
func stripOpeningFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	rest := text[len("```"):]
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		return rest[newline+1:]
	}
	// Fence with no body, e.g. "```json".
	return ""
}

// stripClosingFence removes a trailing ``` marker, whether it sits on its own
// line or is glued to the last content line.
func stripClosingFence(text string) string {
	trimmed := strings.TrimRight(text, " \t\n\r")
	if !strings.HasSuffix(trimmed, "```") {
		return text
	}
	return strings.TrimSuffix(trimmed, "```")
}

func looksStructural(text string) bool {
	return strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[")
}
