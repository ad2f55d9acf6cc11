package extractor

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/providers/ai"
)

// echoProvider answers each request with JSON derived from the prompt so the
// batch tests can tell items apart.
type echoProvider struct {
	fakeProvider
	mu         sync.Mutex
	inFlight   int
	maxInFlight int
	failFor    string
}

func (f *echoProvider) WithAPIKey(string) ai.Provider { return f }

func (f *echoProvider) Complete(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.failFor != "" && strings.Contains(request.Prompt, f.failFor) {
		return nil, ai.NewProviderError("openai", ai.ErrUnavailable, "boom")
	}

	for _, marker := range []string{"alpha", "beta", "gamma"} {
		if strings.Contains(request.Prompt, marker) {
			return &ai.CompletionResponse{Content: `{"item":"` + marker + `"}`}, nil
		}
	}
	return &ai.CompletionResponse{Content: `{}`}, nil
}

func TestBatch_PreservesItemOrder(t *testing.T) {
	provider := &echoProvider{}
	extractor := New(WithProviderFactory(model.VendorOpenAI, func() ai.Provider { return provider }))

	items := []BatchItem{
		{ID: "1", Text: "alpha text"},
		{ID: "2", Text: "beta text"},
		{ID: "3", Text: "gamma text"},
	}
	results := extractor.Batch(context.Background(), schemaRequest(), items, 2)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, wantItem := range []string{"alpha", "beta", "gamma"} {
		result := results[i]
		if result.ID != items[i].ID {
			t.Errorf("result %d: expected id %q, got %q", i, items[i].ID, result.ID)
		}
		if result.Outcome.State != StateCompleted {
			t.Fatalf("result %d: expected completed, got %q", i, result.Outcome.State)
		}
		value := result.Outcome.Result.Value.(map[string]any)
		if value["item"] != wantItem {
			t.Errorf("result %d: expected item %q, got %v", i, wantItem, value["item"])
		}
	}

	if provider.maxInFlight > 2 {
		t.Errorf("expected at most 2 concurrent calls, saw %d", provider.maxInFlight)
	}
}

func TestBatch_IsolatesPerItemFailures(t *testing.T) {
	provider := &echoProvider{failFor: "beta"}
	extractor := New(WithProviderFactory(model.VendorOpenAI, func() ai.Provider { return provider }))

	items := []BatchItem{
		{ID: "1", Text: "alpha text"},
		{ID: "2", Text: "beta text"},
		{ID: "3", Text: "gamma text"},
	}
	results := extractor.Batch(context.Background(), schemaRequest(), items, 0)

	if results[0].Outcome.State != StateCompleted {
		t.Errorf("item 1 should succeed, got %q", results[0].Outcome.State)
	}
	if results[1].Outcome.State != StateFailed {
		t.Errorf("item 2 should fail, got %q", results[1].Outcome.State)
	}
	if results[2].Outcome.State != StateCompleted {
		t.Errorf("item 3 should succeed despite item 2 failing, got %q", results[2].Outcome.State)
	}

	providerErr, ok := ai.AsProviderError(results[1].Outcome.Err)
	if !ok || providerErr.Kind != ai.ErrUnavailable {
		t.Errorf("expected provider_unavailable on item 2, got %v", results[1].Outcome.Err)
	}
}
