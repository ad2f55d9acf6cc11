// Package openai implements the [ai.Provider] and [ai.StreamProvider]
// interfaces for OpenAI's chat completions API, including JSON mode and
// json_schema structured output.
package openai
