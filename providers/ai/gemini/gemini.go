package gemini

import (
	"context"
	"net/http"
	"os"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

const (
	providerName   = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

var knownModels = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash", "gemini-1.5-pro"}

// GeminiProvider implements the [ai.Provider] interface for the Gemini API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Gemini provider initialized from environment variables.
// It reads GEMINI_API_KEY for authentication and GEMINI_API_BASE_URL for the
// endpoint base.
func New() *GeminiProvider {
	apiKey := os.Getenv("GEMINI_API_KEY")
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *GeminiProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *GeminiProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHTTPClient sets a custom HTTP client
func (p *GeminiProvider) WithHTTPClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// KnownModels returns the Gemini model catalogue.
func (p *GeminiProvider) KnownModels() []string {
	return knownModels
}

// generateURL builds the model-scoped endpoint URL. The model name is part of
// the path and the verb selects sync or streaming generation.
func (p *GeminiProvider) generateURL(model string, stream bool) string {
	if stream {
		return p.baseURL + "/models/" + model + ":streamGenerateContent?alt=sse"
	}
	return p.baseURL + "/models/" + model + ":generateContent"
}

// authHeaders returns the x-goog-api-key header used instead of Bearer auth.
func (p *GeminiProvider) authHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-goog-api-key", Value: p.apiKey},
	}
}

// Complete implements [ai.Provider] against the generateContent endpoint.
func (p *GeminiProvider) Complete(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionResponse, error) {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if p.apiKey == "" {
		return nil, ai.NewProviderError(providerName, ai.ErrAuth, "API key is not set")
	}

	httpResponse, resp, err := utils.DoPostSync[generateContentResponse](ctx, p.client, p.generateURL(request.Model, false), "", requestToGenerateContent(request), p.authHeaders()...)
	if err != nil {
		return nil, ai.MapTransportError(providerName, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ai.NewProviderError(providerName, ai.ErrUnknown, "no candidates in response: "+httpResponse.Status)
	}

	result := responseToGeneric(*resp)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.ID),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
		)
		if result.Usage != nil {
			span.AddEvent(observability.EventTokensReceived,
				observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens),
			)
		}
	}

	return result, nil
}
