// Package anthropic implements the [ai.Provider] and [ai.StreamProvider]
// interfaces for Anthropic's messages API. Authentication uses the x-api-key
// header rather than a Bearer token, and the SSE stream carries typed events
// (message_start, content_block_delta, message_stop) instead of the OpenAI
// [DONE] sentinel.
package anthropic
