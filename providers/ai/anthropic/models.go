package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/fieldlens/fieldlens/providers/ai"
)

// defaultMaxTokens is used when the caller does not set a limit. The messages
// API rejects requests without max_tokens.
const defaultMaxTokens = 4096

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *messagesUsage `json:"usage"`
}

// streamEvent is the union of SSE payloads the messages API emits. The Type
// field discriminates; only the fields relevant to that type are populated.
type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// requestToMessages converts a generic completion request to the messages API
// wire format. The messages API has no JSON output switch, so JSONMode and
// OutputSchema shape only the prompt, never the wire request.
func requestToMessages(request ai.CompletionRequest) messagesRequest {
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return messagesRequest{
		Model:       request.Model,
		MaxTokens:   maxTokens,
		System:      request.System,
		Temperature: request.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: request.Prompt},
		},
	}
}

// responseToGeneric converts a messages API response to the generic format,
// concatenating all text content blocks.
func responseToGeneric(response messagesResponse) *ai.CompletionResponse {
	result := &ai.CompletionResponse{
		ID:           response.ID,
		Model:        response.Model,
		FinishReason: response.StopReason,
	}

	for _, block := range response.Content {
		if block.Type == "text" {
			result.Content += block.Text
		}
	}

	if response.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
			TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		}
	}

	return result
}

func unmarshalStreamEvent(payload string) (*streamEvent, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("failed to decode stream event: %w", err)
	}
	return &event, nil
}

// classifyStreamError maps a typed error event to an ErrorKind.
func classifyStreamError(errorType string) ai.ErrorKind {
	switch errorType {
	case "authentication_error", "permission_error":
		return ai.ErrAuth
	case "rate_limit_error":
		return ai.ErrRateLimited
	case "invalid_request_error":
		return ai.ErrInvalidRequest
	case "overloaded_error", "api_error":
		return ai.ErrUnavailable
	default:
		return ai.ErrUnknown
	}
}
