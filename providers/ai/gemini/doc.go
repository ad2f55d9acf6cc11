// Package gemini implements the [ai.Provider] and [ai.StreamProvider]
// interfaces for Google's Gemini generateContent API. The model name is part
// of the URL path, authentication uses the x-goog-api-key header, and
// structured output is requested through responseMimeType and responseSchema
// in the generation config.
package gemini
