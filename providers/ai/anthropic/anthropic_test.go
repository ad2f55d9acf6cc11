package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldlens/fieldlens/providers/ai"
)

func newTestProvider(serverURL string) *AnthropicProvider {
	provider := New()
	provider.WithAPIKey("test-key").WithBaseURL(serverURL)
	return provider
}

func TestComplete_Success(t *testing.T) {
	var capturedRequest messagesRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected x-api-key header, got %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("expected anthropic-version header, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&capturedRequest)
		_ = json.NewEncoder(w).Encode(messagesResponse{
			ID:         "msg-1",
			Model:      "claude-3-haiku-20240307",
			Content:    []contentBlock{{Type: "text", Text: `{"age":`}, {Type: "text", Text: `42}`}},
			StopReason: "end_turn",
			Usage:      &messagesUsage{InputTokens: 9, OutputTokens: 3},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	response, err := provider.Complete(context.Background(), ai.CompletionRequest{
		Model:  "claude-3-haiku-20240307",
		Prompt: "extract the age",
		System: "You extract structured data.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedRequest.System != "You extract structured data." {
		t.Errorf("expected top-level system field, got %q", capturedRequest.System)
	}
	if capturedRequest.MaxTokens != defaultMaxTokens {
		t.Errorf("expected default max_tokens %d, got %d", defaultMaxTokens, capturedRequest.MaxTokens)
	}
	if response.Content != `{"age":42}` {
		t.Errorf("expected concatenated text blocks, got %q", response.Content)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 12 {
		t.Errorf("expected total tokens 12, got %+v", response.Usage)
	}
}

func TestComplete_MissingAPIKey(t *testing.T) {
	provider := New()
	provider.WithAPIKey("")

	_, err := provider.Complete(context.Background(), ai.CompletionRequest{Model: "claude-3-opus-20240229", Prompt: "hi"})
	providerErr, ok := ai.AsProviderError(err)
	if !ok {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if providerErr.Kind != ai.ErrAuth {
		t.Errorf("expected auth error, got %q", providerErr.Kind)
	}
}

func TestComplete_OverloadedMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"overloaded_error","message":"try later"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Complete(context.Background(), ai.CompletionRequest{Model: "claude-3-haiku-20240307", Prompt: "hi"})
	providerErr, ok := ai.AsProviderError(err)
	if !ok {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if providerErr.Kind != ai.ErrUnavailable {
		t.Errorf("expected provider_unavailable, got %q", providerErr.Kind)
	}
}

func TestStreamCompletion_TypedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: message_start\n" +
				"data: {\"type\":\"message_start\",\"message\":{\"id\":\"msg-1\"}}\n\n" +
				"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"{\\\"ok\\\":\"}}\n\n" +
				"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"true}\"}}\n\n" +
				"event: message_delta\n" +
				"data: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"}}\n\n" +
				"event: message_stop\n" +
				"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.StreamCompletion(context.Background(), ai.CompletionRequest{Model: "claude-3-haiku-20240307", Prompt: "extract"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if text != `{"ok":true}` {
		t.Errorf("expected reassembled text, got %q", text)
	}
}

func TestStreamCompletion_ErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n" +
				"event: error\n" +
				"data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"overloaded\"}}\n\n"))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.StreamCompletion(context.Background(), ai.CompletionRequest{Model: "claude-3-haiku-20240307", Prompt: "extract"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := stream.Collect()
	if text != "partial" {
		t.Errorf("expected partial text preserved, got %q", text)
	}
	providerErr, ok := ai.AsProviderError(err)
	if !ok {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if providerErr.Kind != ai.ErrUnavailable {
		t.Errorf("expected provider_unavailable from overloaded_error, got %q", providerErr.Kind)
	}
}

func TestClassifyStreamError(t *testing.T) {
	tests := []struct {
		errorType string
		wantKind  ai.ErrorKind
	}{
		{errorType: "authentication_error", wantKind: ai.ErrAuth},
		{errorType: "rate_limit_error", wantKind: ai.ErrRateLimited},
		{errorType: "invalid_request_error", wantKind: ai.ErrInvalidRequest},
		{errorType: "overloaded_error", wantKind: ai.ErrUnavailable},
		{errorType: "something_new", wantKind: ai.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			if got := classifyStreamError(tt.errorType); got != tt.wantKind {
				t.Errorf("expected %q, got %q", tt.wantKind, got)
			}
		})
	}
}
