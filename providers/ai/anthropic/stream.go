package anthropic

import (
	"context"
	"io"

	"github.com/fieldlens/fieldlens/internal/utils"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

// StreamCompletion implements [ai.StreamProvider] for the messages API.
//
// The stream carries typed events. Text arrives in content_block_delta events
// with a text_delta payload; message_stop ends the stream; error events are
// surfaced through the iterator with their vendor error type mapped onto the
// error taxonomy. Events of unknown type, and frames that fail to decode, are
// skipped so that protocol additions do not break existing consumers.
func (p *AnthropicProvider) StreamCompletion(ctx context.Context, request ai.CompletionRequest) (*ai.CompletionStream, error) {
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

	messagesReq := requestToMessages(request)
	messagesReq.Stream = true

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+messagesEndpoint, "", messagesReq, p.authHeaders()...)
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

			event, parseErr := unmarshalStreamEvent(payload)
			if parseErr != nil {
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					if !yield(ai.Fragment{Chunk: event.Delta.Text}, nil) {
						return
					}
				}
			case "message_stop":
				return
			case "error":
				message := "stream error"
				kind := ai.ErrUnknown
				if event.Error != nil {
					message = event.Error.Message
					kind = classifyStreamError(event.Error.Type)
				}
				yield(ai.Fragment{}, ai.NewProviderError(providerName, kind, message))
				return
			}
			// message_start, content_block_start, content_block_stop, ping
			// and message_delta carry no text and are skipped.
		}
	}

	return ai.NewCompletionStream(iteratorFunc), nil
}
