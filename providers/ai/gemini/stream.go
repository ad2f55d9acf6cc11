package gemini

import (
	"context"
	"io"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

// StreamCompletion implements [ai.StreamProvider] using streamGenerateContent
// with alt=sse. Each SSE frame is a full generateContent response whose first
// candidate carries only the newly generated text. There is no end sentinel;
// the server closes the stream when generation finishes. Frames that do not
// decode are skipped.
func (p *GeminiProvider) StreamCompletion(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionStream, error) {
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

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.generateURL(request.Model, true), "", requestToGenerateContent(request), p.authHeaders()...)
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

			if text := candidateText(*chunk); text != "" {
				if !yield(ai.Fragment{Chunk: text}, nil) {
					return
				}
			}
		}
	}

	return ai.NewCompletionStream(iteratorFunc), nil
}
