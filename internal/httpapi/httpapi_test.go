package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fieldlens/fieldlens/core/extractor"
	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/core/usage"
	"github.com/fieldlens/fieldlens/internal/config"
	"github.com/fieldlens/fieldlens/providers/ai"
)

type stubProvider struct {
	content string
	usage   *ai.Usage
	err     error
}

func (s *stubProvider) Complete(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.CompletionResponse{Content: s.content, Usage: s.usage}, nil
}

func (s *stubProvider) KnownModels() []string                   { return []string{"stub-1"} }
func (s *stubProvider) WithAPIKey(string) ai.Provider           { return s }
func (s *stubProvider) WithBaseURL(string) ai.Provider          { return s }
func (s *stubProvider) WithHTTPClient(*http.Client) ai.Provider { return s }

type stubStreamProvider struct {
	stubProvider
	chunks []string
	midErr error
}

func (s *stubStreamProvider) WithAPIKey(string) ai.Provider { return s }

func (s *stubStreamProvider) StreamCompletion(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionStream, error) {
	return ai.NewCompletionStream(func(yield func(ai.Fragment, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(ai.Fragment{Chunk: chunk}, nil) {
				return
			}
		}
		if s.midErr != nil {
			yield(ai.Fragment{}, s.midErr)
		}
	}), nil
}

func testServer(provider ai.Provider) *Server {
	tracker := usage.NewTracker()
	ext := extractor.New(
		extractor.WithProviderFactory(model.VendorOpenAI, func() ai.Provider { return provider }),
		extractor.WithUsageTracker(tracker),
	)
	cfg := config.Config{
		Server:  config.ServerConfig{CORSOrigins: []string{"*"}, TimeoutSecs: 5},
		Extract: config.ExtractConfig{BatchConcurrency: 2, RetryAttempts: 1},
	}
	return NewServer(ext, cfg, tracker)
}

func requestBody(t *testing.T, payload any) *strings.Reader {
	t.Helper()
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return strings.NewReader(string(encoded))
}

func schemaPayload() map[string]any {
	return map[string]any{
		"text": "Invoice INV-42 for 99.50.",
		"mode": "schema",
		"schema_fields": []map[string]any{
			{"id": 1, "name": "invoice_number", "type": "string"},
			{"id": 2, "name": "amount", "type": "number"},
		},
		"model_id": "gpt-4o-mini",
		"provider": "openai",
		"api_key":  "sk-test",
	}
}

func TestHandleProviders(t *testing.T) {
	server := testServer(&stubProvider{content: "{}"})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/providers", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var response struct {
		Providers map[string][]string `json:"providers"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, vendor := range model.Vendors() {
		if _, ok := response.Providers[string(vendor)]; !ok {
			t.Errorf("expected catalogue entry for %q", vendor)
		}
	}
	if got := response.Providers["openai"]; len(got) != 1 || got[0] != "stub-1" {
		t.Errorf("expected stub catalogue, got %v", got)
	}
}

func TestHandleExtract_Success(t *testing.T) {
	server := testServer(&stubProvider{content: `{"invoice_number":"INV-42","amount":99.5}`})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract", requestBody(t, schemaPayload())))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", recorder.Code, recorder.Body.String())
	}

	var response extractResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !response.Success || response.ID == "" {
		t.Errorf("expected success with id, got %+v", response)
	}
	data, ok := response.Data.(map[string]any)
	if !ok || data["invoice_number"] != "INV-42" {
		t.Errorf("expected structured data, got %v", response.Data)
	}
}

func TestHandleExtract_ParseFailureIsStillOK(t *testing.T) {
	server := testServer(&stubProvider{content: "no structured data here"})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract", requestBody(t, schemaPayload())))

	if recorder.Code != http.StatusOK {
		t.Fatalf("a parse failure is a completed extraction, got %d", recorder.Code)
	}

	var response extractResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Data != nil {
		t.Errorf("expected no data, got %v", response.Data)
	}
	if response.ParseFailure == nil {
		t.Error("expected a parse_failure payload")
	}
	if response.RawLLMOutput != "no structured data here" {
		t.Errorf("expected raw output preserved, got %q", response.RawLLMOutput)
	}
}

func TestHandleExtract_SchemaValidationAdvisory(t *testing.T) {
	server := testServer(&stubProvider{content: `{"invoice_number":"INV-42","amount":"not a number"}`})
	payload := schemaPayload()
	payload["validate"] = true

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract", requestBody(t, payload)))

	if recorder.Code != http.StatusOK {
		t.Fatalf("validation is advisory, expected 200, got %d", recorder.Code)
	}
	var response extractResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.SchemaError == "" {
		t.Error("expected a schema_error for the type mismatch")
	}
	if response.Data == nil {
		t.Error("data must still be returned alongside the violation")
	}
}

func TestHandleExtract_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		kind       ai.ErrorKind
		wantStatus int
	}{
		{"auth", ai.ErrAuth, http.StatusUnauthorized},
		{"invalid request", ai.ErrInvalidRequest, http.StatusBadRequest},
		{"timeout", ai.ErrTimeout, http.StatusGatewayTimeout},
		{"unknown", ai.ErrUnknown, http.StatusInternalServerError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := testServer(&stubProvider{err: ai.NewProviderError("openai", test.kind, "nope")})
			recorder := httptest.NewRecorder()
			server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract", requestBody(t, schemaPayload())))

			if recorder.Code != test.wantStatus {
				t.Errorf("expected %d, got %d", test.wantStatus, recorder.Code)
			}
			var response map[string]any
			if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if response["kind"] != string(test.kind) {
				t.Errorf("expected kind %q, got %v", test.kind, response["kind"])
			}
		})
	}
}

func TestHandleExtract_MalformedBody(t *testing.T) {
	server := testServer(&stubProvider{content: "{}"})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract", strings.NewReader("{not json")))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", recorder.Code)
	}
}

func TestHandleExtractStream_ChunksThenEnd(t *testing.T) {
	server := testServer(&stubStreamProvider{chunks: []string{`{"a"`, `:1}`}})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract/stream", requestBody(t, schemaPayload())))

	body := recorder.Body.String()
	if ct := recorder.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", ct)
	}

	firstChunk := `data: {"chunk":"{\"a\""}`
	secondChunk := `data: {"chunk":":1}"}`
	if !strings.Contains(body, firstChunk) || !strings.Contains(body, secondChunk) {
		t.Errorf("expected chunk frames in body:\n%s", body)
	}
	if strings.Index(body, firstChunk) > strings.Index(body, secondChunk) {
		t.Error("chunk frames out of order")
	}
	if !strings.Contains(body, "event: end\ndata: {\"status\":\"complete\"}") {
		t.Errorf("expected end event, got:\n%s", body)
	}
}

func TestHandleExtractStream_OneShotFallbackEmitsSingleChunk(t *testing.T) {
	server := testServer(&stubProvider{content: `{"a":1}`})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract/stream", requestBody(t, schemaPayload())))

	body := recorder.Body.String()
	if !strings.Contains(body, `data: {"chunk":"{\"a\":1}"}`) {
		t.Errorf("expected the full output as one chunk, got:\n%s", body)
	}
	if !strings.Contains(body, "event: end") {
		t.Errorf("expected end event, got:\n%s", body)
	}
}

func TestHandleExtractStream_MidStreamFailureEmitsErrorEvent(t *testing.T) {
	server := testServer(&stubStreamProvider{
		chunks: []string{"partial prose"},
		midErr: ai.NewProviderError("openai", ai.ErrUnavailable, "connection reset"),
	})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract/stream", requestBody(t, schemaPayload())))

	body := recorder.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("expected error event, got:\n%s", body)
	}
	if strings.Contains(body, "event: end") {
		t.Errorf("a failed stream must not signal completion:\n%s", body)
	}
}

func TestHandleExtractBatch(t *testing.T) {
	server := testServer(&stubProvider{content: `{"amount":1}`})
	payload := schemaPayload()
	delete(payload, "text")
	payload["items"] = []map[string]string{
		{"id": "alpha", "text": "first invoice"},
		{"id": "beta", "text": "second invoice"},
	}

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract/batch", requestBody(t, payload)))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", recorder.Code, recorder.Body.String())
	}

	var response struct {
		Results []struct {
			ID      string `json:"id"`
			Success bool   `json:"success"`
		} `json:"results"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(response.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(response.Results))
	}
	if response.Results[0].ID != "alpha" || response.Results[1].ID != "beta" {
		t.Errorf("expected item order preserved, got %+v", response.Results)
	}
	for _, result := range response.Results {
		if !result.Success {
			t.Errorf("expected success for %q", result.ID)
		}
	}
}

func TestHandleUsage_AccumulatesAcrossRequests(t *testing.T) {
	server := testServer(&stubProvider{
		content: `{"amount":1}`,
		usage:   &ai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	})
	router := server.Router()

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract", requestBody(t, schemaPayload())))
		if recorder.Code != http.StatusOK {
			t.Fatalf("extract %d: got %d", i, recorder.Code)
		}
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/usage", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var summary usage.Summary
	if err := json.Unmarshal(recorder.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalTokens != 300 {
		t.Errorf("expected 300 tokens across requests, got %d", summary.TotalTokens)
	}
	if len(summary.Models) != 1 || summary.Models[0].Requests != 2 {
		t.Errorf("expected 2 tracked requests, got %+v", summary.Models)
	}
}

func TestHandleExtractBatch_RequiresItems(t *testing.T) {
	server := testServer(&stubProvider{content: "{}"})
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", "/api/extract/batch", requestBody(t, schemaPayload())))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without items, got %d", recorder.Code)
	}
}
