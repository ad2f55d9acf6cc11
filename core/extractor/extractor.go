package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlens/fieldlens/core/assemble"
	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/core/parse"
	"github.com/fieldlens/fieldlens/core/prompt"
	"github.com/fieldlens/fieldlens/core/usage"
	"github.com/fieldlens/fieldlens/providers/ai"
	"github.com/fieldlens/fieldlens/providers/ai/anthropic"
	"github.com/fieldlens/fieldlens/providers/ai/gemini"
	"github.com/fieldlens/fieldlens/providers/ai/glm"
	"github.com/fieldlens/fieldlens/providers/ai/openai"
	"github.com/fieldlens/fieldlens/providers/observability"
)

// State is one step of the per-request pipeline state machine.
type State string

const (
	StateIdle      State = "idle"
	StateCompiling State = "compiling"
	StateInvoking  State = "invoking"
	StateStreaming State = "streaming"
	StateParsing   State = "parsing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Progress is one pipeline update delivered to the caller. During streaming,
// RawText is the monotonically growing accumulation.
type Progress struct {
	State   State
	RawText string
}

// ProgressFunc receives pipeline updates. It is called from the goroutine
// driving the request and must not block for long.
type ProgressFunc func(Progress)

// Outcome is the terminal result of one submission. State is Completed or
// Failed. A parse failure is a Completed outcome whose Result carries the
// failure: the pipeline succeeded mechanically even though the model's
// answer was unusable.
type Outcome struct {
	// ID uniquely identifies the submission.
	ID string

	State State

	// Result is set for Completed outcomes.
	Result *parse.Result

	// RawText is the full accumulated model output, kept for display even on
	// parse failure.
	RawText string

	// Usage is the vendor-reported token accounting, when available.
	// Streaming responses usually omit it.
	Usage *ai.Usage

	// Err is set for Failed outcomes and carries the provider error or the
	// cancellation cause.
	Err error
}

// ProviderFactory builds a fresh adapter. Submissions never share adapter
// instances because credentials are applied per request.
type ProviderFactory func() ai.Provider

// Extractor routes extraction requests through the pipeline. The registry of
// provider factories is fixed at construction; everything else is per-request
// state.
type Extractor struct {
	factories map[model.Vendor]ProviderFactory
	observer  observability.Provider
	tracker   *usage.Tracker
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProviderFactory overrides the factory for one vendor. Used by callers
// that need custom base URLs or HTTP clients, and by tests.
func WithProviderFactory(vendor model.Vendor, factory ProviderFactory) Option {
	return func(e *Extractor) {
		e.factories[vendor] = factory
	}
}

// WithObserver attaches an observability provider to all submissions.
func WithObserver(observer observability.Provider) Option {
	return func(e *Extractor) {
		e.observer = observer
	}
}

// WithUsageTracker accumulates token usage from every completed submission
// into the given tracker.
func WithUsageTracker(tracker *usage.Tracker) Option {
	return func(e *Extractor) {
		e.tracker = tracker
	}
}

// New creates an Extractor with the four built-in vendor adapters.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		factories: map[model.Vendor]ProviderFactory{
			model.VendorGemini:    func() ai.Provider { return gemini.New() },
			model.VendorOpenAI:    func() ai.Provider { return openai.New() },
			model.VendorAnthropic: func() ai.Provider { return anthropic.New() },
			model.VendorGLM:       func() ai.Provider { return glm.New() },
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KnownModels returns the model catalogue for one vendor, or nil for an
// unknown vendor.
func (e *Extractor) KnownModels(vendor model.Vendor) []string {
	factory, ok := e.factories[vendor]
	if !ok {
		return nil
	}
	return factory().KnownModels()
}

// Submit runs one extraction request through the full pipeline. The returned
// error is non-nil exactly when the outcome state is Failed; it is the same
// error carried in Outcome.Err. onProgress may be nil.
func (e *Extractor) Submit(ctx context.Context, request *model.ExtractionRequest, onProgress ProgressFunc) (*Outcome, error) {
	outcome := &Outcome{ID: uuid.NewString(), State: StateIdle}
	started := time.Now()

	ctx, span := e.startSpan(ctx, request, outcome.ID)
	defer func() {
		e.finishSpan(ctx, span, outcome, time.Since(started))
	}()

	progress := func(state State, rawText string) {
		if onProgress != nil {
			onProgress(Progress{State: state, RawText: rawText})
		}
	}

	// Compiling. Validation failures surface here, before any network call.
	progress(StateCompiling, "")
	compiled, err := prompt.Compile(request)
	if err != nil {
		return fail(outcome, err)
	}

	factory, ok := e.factories[request.Provider]
	if !ok {
		return fail(outcome, ai.InvalidRequestError("no adapter registered for provider "+string(request.Provider)))
	}
	provider := factory()
	if request.Credential != "" {
		provider = provider.WithAPIKey(request.Credential)
	}

	completionRequest := ai.CompletionRequest{
		Model:        request.ModelID,
		Prompt:       compiled.UserPrompt(request.SourceText),
		JSONMode:     compiled.JSONMode,
		OutputSchema: compiled.OutputSchema,
	}

	progress(StateInvoking, "")

	var runErr error
	if streamProvider, ok := provider.(ai.StreamProvider); ok {
		outcome, runErr = e.runStreaming(ctx, streamProvider, completionRequest, outcome, progress)
	} else {
		outcome, runErr = e.runOneShot(ctx, provider, completionRequest, outcome, progress)
	}

	if e.tracker != nil && outcome.State == StateCompleted {
		e.tracker.Record(request.Provider, request.ModelID, outcome.Usage)
	}
	return outcome, runErr
}

func (e *Extractor) runOneShot(ctx context.Context, provider ai.Provider, request ai.CompletionRequest, outcome *Outcome, progress func(State, string)) (*Outcome, error) {
	response, err := provider.Complete(ctx, request)
	if err != nil {
		return fail(outcome, err)
	}
	outcome.RawText = response.Content
	outcome.Usage = response.Usage
	return completeWithParse(outcome, progress)
}

func (e *Extractor) runStreaming(ctx context.Context, provider ai.StreamProvider, request ai.CompletionRequest, outcome *Outcome, progress func(State, string)) (*Outcome, error) {
	stream, err := provider.StreamCompletion(ctx, request)
	if err != nil {
		return fail(outcome, err)
	}

	assembler := assemble.New()
	var streamErr error
	for snapshot, err := range assembler.Consume(stream) {
		if err != nil {
			streamErr = err
			break
		}
		progress(StateStreaming, snapshot)
	}
	outcome.RawText = assembler.Text()

	if streamErr != nil {
		// Client-driven cancellation is terminal, never salvaged.
		if errors.Is(streamErr, context.Canceled) {
			if span := observability.SpanFromContext(ctx); span != nil {
				span.AddEvent(observability.EventStreamCancelled)
			}
			return fail(outcome, streamErr)
		}
		// A mid-stream provider error still gets a salvage parse: the model
		// may have emitted complete JSON before the error signal.
		if outcome.RawText != "" {
			if result := parse.Parse(outcome.RawText); result.OK() {
				progress(StateParsing, outcome.RawText)
				outcome.State = StateCompleted
				outcome.Result = &result
				return outcome, nil
			}
		}
		return fail(outcome, streamErr)
	}

	return completeWithParse(outcome, progress)
}

func completeWithParse(outcome *Outcome, progress func(State, string)) (*Outcome, error) {
	progress(StateParsing, outcome.RawText)
	result := parse.Parse(outcome.RawText)
	outcome.State = StateCompleted
	outcome.Result = &result
	return outcome, nil
}

func fail(outcome *Outcome, err error) (*Outcome, error) {
	outcome.State = StateFailed
	outcome.Err = err
	return outcome, err
}

func (e *Extractor) startSpan(ctx context.Context, request *model.ExtractionRequest, id string) (context.Context, observability.Span) {
	if e.observer == nil {
		return ctx, nil
	}
	ctx, span := e.observer.StartSpan(ctx, observability.SpanExtractionSubmit,
		observability.String(observability.AttrExtractionID, id),
		observability.String(observability.AttrExtractionMode, string(request.Mode)),
		observability.String(observability.AttrLLMProvider, string(request.Provider)),
		observability.String(observability.AttrLLMModel, request.ModelID),
		observability.Int(observability.AttrExtractionSourceLength, len(request.SourceText)),
	)
	return observability.ContextWithSpan(ctx, span), span
}

func (e *Extractor) finishSpan(ctx context.Context, span observability.Span, outcome *Outcome, elapsed time.Duration) {
	if e.observer == nil || span == nil {
		return
	}
	defer span.End()

	span.SetAttributes(
		observability.String(observability.AttrExtractionState, string(outcome.State)),
		observability.Int(observability.AttrExtractionRawLength, len(outcome.RawText)),
	)
	e.observer.Counter(observability.MetricExtractionCount).Add(ctx, 1,
		observability.String(observability.AttrExtractionState, string(outcome.State)))
	e.observer.Histogram(observability.MetricExtractionDuration).Record(ctx, elapsed.Seconds())

	switch outcome.State {
	case StateFailed:
		span.RecordError(outcome.Err)
		span.SetStatus(observability.StatusError, outcome.Err.Error())
		if providerErr, ok := ai.AsProviderError(outcome.Err); ok {
			span.SetAttributes(observability.String(observability.AttrExtractionErrorKind, string(providerErr.Kind)))
		}
	default:
		parseOK := outcome.Result != nil && outcome.Result.OK()
		span.SetAttributes(observability.Bool(observability.AttrExtractionParseOK, parseOK))
		if !parseOK {
			e.observer.Counter(observability.MetricExtractionParseFailures).Add(ctx, 1)
		}
		span.SetStatus(observability.StatusOK, "")
	}
}
