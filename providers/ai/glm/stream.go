package glm

import (
	"context"
	"io"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

// StreamCompletion implements [ai.StreamProvider]. GLM follows the OpenAI SSE
// convention including the [DONE] sentinel, which the scanner turns into a
// clean end of stream. Frames that do not decode are skipped.
func (p *GLMProvider) StreamCompletion(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionStream, error) {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Bool("llm.streaming", true),
		)
	}

	if p.apiKey == "" {
		return nil, ai.NewProviderError(providerName, ai.ErrAuth, "API key is not set")
	}

	glmRequest := requestToGLM(request)
	glmRequest.Stream = true

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, glmRequest)
	if err != nil {
		return nil, ai.MapTransportError(providerName, err)
	}

	sseScanner := utils.NewSSEScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.Fragment, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		for {
			if ctx.Err() != nil {
				yield(ai.Fragment{}, ctx.Err())
				return
			}

			payload, sseErr := sseScanner.Next()
			if sseErr == io.EOF {
				return
			}
			if sseErr != nil {
				yield(ai.Fragment{}, ai.MapTransportError(providerName, sseErr))
				return
			}

			chunk, parseErr := unmarshalStreamChunk(payload)
			if parseErr != nil {
				continue
			}

			for _, choice := range chunk.Choices {
				if choice.Delta.Content != nil && *choice.Delta.Content != "" {
					if !yield(ai.Fragment{Chunk: *choice.Delta.Content}, nil) {
						return
					}
				}
			}
		}
	}

	return ai.NewCompletionStream(iteratorFunc), nil
}
