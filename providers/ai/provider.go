package ai

import (
	"context"
	"net/http"
)

// StreamProvider is an optional interface that providers implement to support
// streaming (SSE-based) responses. Callers detect streaming support via type
// assertion: provider.(StreamProvider). If the provider does not implement
// this interface, callers should fall back to the synchronous Complete method.
type StreamProvider interface {
	Provider
	// StreamCompletion sends a completion request and returns a
	// CompletionStream that yields incremental text fragments as they arrive
	// from the API. Pre-stream errors (auth, bad request, network) are
	// returned as a normal error. Mid-stream errors are yielded through the
	// iterator.
	StreamCompletion(ctx context.Context, request CompletionRequest) (*CompletionStream, error)
}

// Provider is the core interface every LLM vendor adapter must satisfy. It
// owns the full lifecycle of a single completion call: authentication header
// placement, payload construction, dispatch, and response normalization into
// the generic [CompletionResponse] shape. Failures are reported as
// [*ProviderError] values so callers never inspect vendor-specific status
// codes or error bodies.
type Provider interface {
	// Complete sends a completion request to the vendor and returns the
	// finished response. Returns an error if the vendor call fails, the
	// context is cancelled, or the response cannot be decoded.
	Complete(ctx context.Context, request CompletionRequest) (*CompletionResponse, error)

	// KnownModels returns the vendor's model catalogue, most capable first.
	// The list is informational; passing a model outside it is not rejected.
	KnownModels() []string

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHTTPClient sets the HTTP client used for outbound requests.
	WithHTTPClient(httpClient *http.Client) Provider
}
