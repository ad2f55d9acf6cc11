package glm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldlens/fieldlens/internal/jsonschema"
	"github.com/fieldlens/fieldlens/providers/ai"
)

func newTestProvider(serverURL string) *GLMProvider {
	provider := New()
	provider.WithAPIKey("test-key").WithBaseURL(serverURL)
	return provider
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected Bearer auth header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(glmResponse{
			ID:    "glm-resp-1",
			Model: "glm-4-flash",
			Choices: []glmChoice{
				{Message: glmMessage{Role: "assistant", Content: `{"city":"Beijing"}`}, FinishReason: "stop"},
			},
			Usage: &glmUsage{PromptTokens: 8, CompletionTokens: 4, TotalTokens: 12},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	response, err := provider.Complete(context.Background(), ai.CompletionRequest{
		Model:  "glm-4-flash",
		Prompt: "extract the city",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != `{"city":"Beijing"}` {
		t.Errorf("unexpected content: %q", response.Content)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 12 {
		t.Errorf("expected usage with 12 total tokens, got %+v", response.Usage)
	}
}

func TestComplete_SchemaCollapsesToJSONObject(t *testing.T) {
	var capturedRequest glmRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&capturedRequest)
		_ = json.NewEncoder(w).Encode(glmResponse{
			Choices: []glmChoice{{Message: glmMessage{Content: "{}"}}},
		})
	}))
	defer server.Close()

	schema := jsonschema.Object(map[string]*jsonschema.Schema{
		"city": jsonschema.Of("string", ""),
	}, nil)

	provider := newTestProvider(server.URL)
	_, err := provider.Complete(context.Background(), ai.CompletionRequest{
		Model:        "glm-4",
		Prompt:       "extract",
		OutputSchema: schema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedRequest.ResponseFormat == nil || capturedRequest.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", capturedRequest.ResponseFormat)
	}
}

func TestComplete_MissingAPIKey(t *testing.T) {
	provider := New()
	provider.WithAPIKey("")

	_, err := provider.Complete(context.Background(), ai.CompletionRequest{Model: "glm-4", Prompt: "hi"})
	providerErr, ok := ai.AsProviderError(err)
	if !ok {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if providerErr.Kind != ai.ErrAuth {
		t.Errorf("expected auth error, got %q", providerErr.Kind)
	}
}

func TestComplete_RateLimitMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"1302","message":"rate limit"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Complete(context.Background(), ai.CompletionRequest{Model: "glm-4", Prompt: "hi"})
	providerErr, ok := ai.AsProviderError(err)
	if !ok {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if providerErr.Kind != ai.ErrRateLimited {
		t.Errorf("expected rate_limited, got %q", providerErr.Kind)
	}
	if providerErr.Provider != "glm" {
		t.Errorf("expected provider stamp glm, got %q", providerErr.Provider)
	}
}

func TestStreamCompletion_YieldsFragments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request glmRequest
		_ = json.NewDecoder(r.Body).Decode(&request)
		if !request.Stream {
			t.Error("expected stream=true in request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"content\":\"甲\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"乙\"}}]}\n\n" +
				"data: [DONE]\n\n"))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.StreamCompletion(context.Background(), ai.CompletionRequest{Model: "glm-4-flash", Prompt: "extract"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if text != "甲乙" {
		t.Errorf("expected concatenated fragments, got %q", text)
	}
}

func TestKnownModels(t *testing.T) {
	models := New().KnownModels()
	if len(models) != 4 {
		t.Fatalf("expected 4 models, got %d", len(models))
	}
}
