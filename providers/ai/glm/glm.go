package glm

import (
	"context"
	"net/http"
	"os"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

const (
	providerName            = "glm"
	defaultBaseURL          = "https://open.bigmodel.cn/api/paas/v4"
	chatCompletionsEndpoint = "/chat/completions"
)

var knownModels = []string{"glm-4-plus", "glm-4", "glm-4-air", "glm-4-flash"}

// GLMProvider implements the [ai.Provider] interface for ZhipuAI's GLM API.
type GLMProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a GLM provider initialized from environment variables.
// It reads GLM_API_KEY for authentication and GLM_API_BASE_URL for the
// endpoint base.
func New() *GLMProvider {
	apiKey := os.Getenv("GLM_API_KEY")
	baseURL := os.Getenv("GLM_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GLMProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *GLMProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *GLMProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHTTPClient sets a custom HTTP client
func (p *GLMProvider) WithHTTPClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// KnownModels returns the GLM model catalogue.
func (p *GLMProvider) KnownModels() []string {
	return knownModels
}

// Complete implements [ai.Provider] against the GLM chat completions endpoint.
func (p *GLMProvider) Complete(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionResponse, error) {
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

	httpResponse, resp, err := utils.DoPostSync[glmResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, requestToGLM(request))
	if err != nil {
		return nil, ai.MapTransportError(providerName, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, ai.NewProviderError(providerName, ai.ErrUnknown, "no choices in response: "+httpResponse.Status)
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
