// Package glm implements the [ai.Provider] and [ai.StreamProvider] interfaces
// for ZhipuAI's GLM chat completions API. The wire protocol is
// OpenAI-compatible, but structured output is limited to json_object mode, so
// schema directives must travel inside the prompt itself.
package glm
