package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across provider adapters and the extraction pipeline.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM vendor (e.g., "openai", "gemini")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4o", "glm-4")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the vendor
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTokensTotal is the total number of tokens used
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Extraction Pipeline Attributes ---

const (
	// AttrExtractionID is the unique identifier assigned to a submitted request
	AttrExtractionID = "extraction.id"

	// AttrExtractionMode is the request mode ("few_shot", "schema", "clinical")
	AttrExtractionMode = "extraction.mode"

	// AttrExtractionState is the pipeline state at the time of the observation
	AttrExtractionState = "extraction.state"

	// AttrExtractionSourceLength is the length of the source text in characters
	AttrExtractionSourceLength = "extraction.source_length"

	// AttrExtractionRawLength is the accumulated raw output length in characters
	AttrExtractionRawLength = "extraction.raw_length"

	// AttrExtractionParseOK reports whether raw output parsed into structured data
	AttrExtractionParseOK = "extraction.parse_ok"

	// AttrExtractionErrorKind is the ProviderError kind for failed requests
	AttrExtractionErrorKind = "extraction.error_kind"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"
)

// --- Span Names ---

const (
	// SpanExtractionSubmit is the span name for one full pipeline run
	SpanExtractionSubmit = "extraction.submit"

	// SpanLLMRequest is the span name for LLM API requests
	SpanLLMRequest = "llm.request"
)

// --- Event Names ---

const (
	// EventLLMRequestStart marks the start of an LLM request
	EventLLMRequestStart = "llm.request.start"

	// EventLLMRequestEnd marks the end of an LLM request
	EventLLMRequestEnd = "llm.request.end"

	// EventTokensReceived marks when token usage is received from the LLM
	EventTokensReceived = "llm.tokens.received" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// EventFragmentReceived marks the arrival of a streamed output fragment
	EventFragmentReceived = "extraction.fragment.received"

	// EventStreamCancelled marks client-driven cancellation of an in-flight stream
	EventStreamCancelled = "extraction.stream.cancelled"
)

// --- Metric Names ---

const (
	// MetricExtractionCount is the counter for submitted extraction requests
	MetricExtractionCount = "fieldlens.extraction.count"

	// MetricExtractionDuration is the histogram for pipeline duration
	MetricExtractionDuration = "fieldlens.extraction.duration"

	// MetricExtractionParseFailures is the counter for unparseable model output
	MetricExtractionParseFailures = "fieldlens.extraction.parse_failures"
)
