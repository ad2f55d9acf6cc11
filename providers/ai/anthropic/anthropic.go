package anthropic

import (
	"context"
	"net/http"
	"os"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

const (
	providerName     = "anthropic"
	defaultBaseURL   = "https://api.anthropic.com"
	messagesEndpoint = "/v1/messages"
	apiVersion       = "2023-06-01"
)

var knownModels = []string{"claude-3-5-sonnet-20241022", "claude-3-opus-20240229", "claude-3-haiku-20240307"}

// AnthropicProvider implements the [ai.Provider] interface for the Anthropic
// messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an Anthropic provider initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL
// for the endpoint base.
func New() *AnthropicProvider {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHTTPClient sets a custom HTTP client
func (p *AnthropicProvider) WithHTTPClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// KnownModels returns the Anthropic model catalogue.
func (p *AnthropicProvider) KnownModels() []string {
	return knownModels
}

// authHeaders returns the vendor auth headers. The messages API does not use
// Bearer tokens, so the shared POST helpers get an empty apiKey and these
// headers instead.
func (p *AnthropicProvider) authHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: apiVersion},
	}
}

// Complete implements [ai.Provider] against the messages endpoint.
func (p *AnthropicProvider) Complete(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionResponse, error) {
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

	httpResponse, resp, err := utils.DoPostSync[messagesResponse](ctx, p.client, p.baseURL+messagesEndpoint, "", requestToMessages(request), p.authHeaders()...)
	if err != nil {
		return nil, ai.MapTransportError(providerName, err)
	}

	if resp == nil || len(resp.Content) == 0 {
		return nil, ai.NewProviderError(providerName, ai.ErrUnknown, "no content in response: "+httpResponse.Status)
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
