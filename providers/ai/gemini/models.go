package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/fieldlens/fieldlens/internal/jsonschema"
	"github.com/fieldlens/fieldlens/providers/ai"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens  int                `json:"maxOutputTokens,omitempty"`
	Temperature      float32            `json:"temperature,omitempty"`
	ResponseMimeType string             `json:"responseMimeType,omitempty"`
	ResponseSchema   *jsonschema.Schema `json:"responseSchema,omitempty"`
}

type generateContentRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type generateContentResponse struct {
	ResponseID    string            `json:"responseId"`
	ModelVersion  string            `json:"modelVersion"`
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *usageMetadata    `json:"usageMetadata"`
}

// requestToGenerateContent converts a generic completion request to the
// Gemini wire format. JSON output is requested through the generation config:
// a schema pins the shape, bare JSON mode sets only the MIME type.
func requestToGenerateContent(request ai.CompletionRequest) generateContentRequest {
	geminiRequest := generateContentRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: request.Prompt}}},
		},
	}

	if request.System != "" {
		geminiRequest.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: request.System}}}
	}

	config := &generationConfig{
		MaxOutputTokens: request.MaxTokens,
		Temperature:     request.Temperature,
	}
	switch {
	case request.OutputSchema != nil:
		config.ResponseMimeType = "application/json"
		config.ResponseSchema = request.OutputSchema
	case request.JSONMode:
		config.ResponseMimeType = "application/json"
	}
	if *config != (generationConfig{}) {
		geminiRequest.GenerationConfig = config
	}

	return geminiRequest
}

// responseToGeneric converts a Gemini response to the generic format,
// concatenating the text parts of the first candidate.
func responseToGeneric(response generateContentResponse) *ai.CompletionResponse {
	result := &ai.CompletionResponse{
		ID:    response.ResponseID,
		Model: response.ModelVersion,
	}

	if len(response.Candidates) > 0 {
		candidate := response.Candidates[0]
		result.FinishReason = candidate.FinishReason
		for _, part := range candidate.Content.Parts {
			result.Content += part.Text
		}
	}

	if response.UsageMetadata != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     response.UsageMetadata.PromptTokenCount,
			CompletionTokens: response.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      response.UsageMetadata.TotalTokenCount,
		}
	}

	return result
}

// candidateText returns the concatenated text of the first candidate in a
// streaming chunk. Each chunk carries only the newly generated text.
func candidateText(response generateContentResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

func unmarshalStreamChunk(payload string) (*generateContentResponse, error) {
	var chunk generateContentResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
	}
	return &chunk, nil
}
