package openai

import (
	"encoding/json"
	"fmt"

	"github.com/fieldlens/fieldlens/internal/jsonschema"
	"github.com/fieldlens/fieldlens/providers/ai"
)

// Wire types for the /v1/chat/completions endpoint. Only the fields this
// adapter reads or writes are modeled.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
	Strict bool               `json:"strict,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         *bool           `json:"stream,omitempty"`
	StreamOptions  *streamOptions  `json:"stream_options,omitempty"`
}

type chatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   *chatUsage             `json:"usage"`
}

type chatCompletionStreamDelta struct {
	Content *string `json:"content"`
}

type chatCompletionStreamChoice struct {
	Delta        chatCompletionStreamDelta `json:"delta"`
	FinishReason *string                   `json:"finish_reason"`
}

type chatCompletionStreamChunk struct {
	ID      string                       `json:"id"`
	Choices []chatCompletionStreamChoice `json:"choices"`
	Usage   *chatUsage                   `json:"usage"`
}

// requestToChatCompletion converts a generic completion request to the OpenAI
// chat completions wire format. The compiled prompt becomes a single user
// message; an optional system instruction rides in front of it.
func requestToChatCompletion(request ai.CompletionRequest) chatCompletionRequest {
	var messages []chatMessage
	if request.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: request.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: request.Prompt})

	chatRequest := chatCompletionRequest{
		Model:       request.Model,
		Messages:    messages,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	}

	// Structured output takes precedence over the plain json_object switch.
	switch {
	case request.OutputSchema != nil:
		chatRequest.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "extraction",
				Schema: request.OutputSchema,
				Strict: true,
			},
		}
	case request.JSONMode:
		chatRequest.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	return chatRequest
}

// responseToGeneric converts an OpenAI response to the generic format.
func responseToGeneric(response chatCompletionResponse) *ai.CompletionResponse {
	result := &ai.CompletionResponse{
		ID:    response.ID,
		Model: response.Model,
	}

	if len(response.Choices) > 0 {
		result.Content = response.Choices[0].Message.Content
		result.FinishReason = response.Choices[0].FinishReason
	}

	if response.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}

	return result
}

// unmarshalStreamChunk decodes a single SSE payload into a streaming chunk.
func unmarshalStreamChunk(payload string) (*chatCompletionStreamChunk, error) {
	var chunk chatCompletionStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
	}
	return &chunk, nil
}
