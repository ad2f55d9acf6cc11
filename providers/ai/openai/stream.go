package openai

import (
	"context"
	"io"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

// StreamCompletion implements [ai.StreamProvider] for the chat completions
// endpoint. It sends a streaming request with stream=true and returns a
// CompletionStream that yields text fragments as SSE events arrive.
//
// Pre-stream errors (auth, bad request, network) are returned as a normal
// error; mid-stream failures are yielded through the iterator. Frames that
// fail to decode are skipped rather than treated as fatal: a partial frame at
// a buffer boundary must not kill an otherwise healthy stream.
func (p *OpenAIProvider) StreamCompletion(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionStream, error) {
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

	chatRequest := requestToChatCompletion(request)
	chatRequest.Stream = utils.Ptr(true)
	chatRequest.StreamOptions = &streamOptions{IncludeUsage: true}

	// The response body stays open for SSE reading.
	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, chatRequest)
	if err != nil {
		return nil, ai.MapTransportError(providerName, err)
	}

	sseScanner := utils.NewSSEScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.Fragment, error) bool) {
		// Ensure the response body is closed when the iterator is done.
		defer utils.CloseWithLog(httpResponse.Body)

		for {
			// Respect context cancellation between SSE reads.
			if ctx.Err() != nil {
				yield(ai.Fragment{}, ctx.Err())
				return
			}

			payload, sseErr := sseScanner.Next()
			if sseErr == io.EOF {
				// Stream finished normally ([DONE] sentinel or connection close).
				return
			}
			if sseErr != nil {
				yield(ai.Fragment{}, ai.MapTransportError(providerName, sseErr))
				return
			}

			chunk, parseErr := unmarshalStreamChunk(payload)
			if parseErr != nil {
				// Undecodable frame: treat as incomplete and skip.
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
