package ai

import (
	"github.com/fieldlens/fieldlens/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// CompletionRequest represents a single-prompt completion call. The prompt is
// fully compiled upstream; adapters only translate it to the vendor wire
// format, they never alter its content.
type CompletionRequest struct {
	Model  string `json:"model,omitempty"`  // Model name or identifier
	Prompt string `json:"prompt"`           // Fully compiled prompt text
	System string `json:"system,omitempty"` // Optional system instruction

	// JSONMode asks the vendor for a JSON-object response where supported
	// (OpenAI response_format, Gemini response_mime_type, GLM response_format).
	// Vendors without such a switch ignore it.
	JSONMode bool `json:"json_mode,omitempty"`

	// OutputSchema optionally constrains the response to a structured-output
	// schema for vendors that support one. Ignored elsewhere.
	OutputSchema *jsonschema.Schema `json:"output_schema,omitempty"`

	MaxTokens   int     `json:"max_tokens,omitempty"`  // Response token cap (vendor default when 0)
	Temperature float32 `json:"temperature,omitempty"` // Sampling temperature [0..2]
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage carries token accounting reported by the vendor.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// CompletionResponse represents the normalized response from a completion call.
type CompletionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}
