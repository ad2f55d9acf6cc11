package glm

import (
	"encoding/json"
	"fmt"

	"github.com/fieldlens/fieldlens/providers/ai"
)

// Wire types for the GLM chat completions endpoint. The shape tracks the
// OpenAI chat protocol; fields the adapter never touches are omitted.

type glmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type glmResponseFormat struct {
	Type string `json:"type"`
}

type glmRequest struct {
	Model          string             `json:"model"`
	Messages       []glmMessage       `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float32            `json:"temperature,omitempty"`
	ResponseFormat *glmResponseFormat `json:"response_format,omitempty"`
	Stream         bool               `json:"stream,omitempty"`
}

type glmChoice struct {
	Index        int        `json:"index"`
	Message      glmMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type glmUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type glmResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []glmChoice `json:"choices"`
	Usage   *glmUsage   `json:"usage"`
}

type glmStreamDelta struct {
	Content *string `json:"content"`
}

type glmStreamChoice struct {
	Delta        glmStreamDelta `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}

type glmStreamChunk struct {
	ID      string            `json:"id"`
	Choices []glmStreamChoice `json:"choices"`
	Usage   *glmUsage         `json:"usage"`
}

// requestToGLM converts a generic completion request to the GLM wire format.
// GLM has no strict json_schema mode, so both JSONMode and a present
// OutputSchema collapse to json_object; the schema text rides in the prompt.
func requestToGLM(request ai.CompletionRequest) glmRequest {
	var messages []glmMessage
	if request.System != "" {
		messages = append(messages, glmMessage{Role: "system", Content: request.System})
	}
	messages = append(messages, glmMessage{Role: "user", Content: request.Prompt})

	glmReq := glmRequest{
		Model:       request.Model,
		Messages:    messages,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	}

	if request.JSONMode || request.OutputSchema != nil {
		glmReq.ResponseFormat = &glmResponseFormat{Type: "json_object"}
	}

	return glmReq
}

// responseToGeneric converts a GLM response to the generic format.
func responseToGeneric(response glmResponse) *ai.CompletionResponse {
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

func unmarshalStreamChunk(payload string) (*glmStreamChunk, error) {
	var chunk glmStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
	}
	return &chunk, nil
}
