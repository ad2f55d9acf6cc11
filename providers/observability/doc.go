// Package observability defines the core interfaces and semantic conventions
// used for tracing, metrics, and structured logging throughout fieldlens.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. Callers propagate an
// active [Provider] and [Span] through a [context.Context] using
// [ContextWithObserver] and [ContextWithSpan]; they can be retrieved with
// [ObserverFromContext] and [SpanFromContext].
//
// The semconv.go file contains the standard attribute-key and span-name
// constants used when recording observations, ensuring consistency across
// provider adapters and the extraction pipeline. Credentials are never
// recorded as attributes.
package observability
