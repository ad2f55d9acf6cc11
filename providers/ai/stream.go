package ai

import (
	"iter"
	"strings"
)

// Fragment is one incremental piece of model output delivered during
// streaming. Fragments carry text only; stream failures travel through the
// iterator's error slot so a fragment and an error are never conflated.
type Fragment struct {
	Chunk string `json:"chunk"`
}

// CompletionStream wraps a streaming fragment iterator. It supports
// range-based iteration for progressive consumption and a convenience
// Collect() method for callers who want the concatenated text.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// underlying adapter may hold open resources (such as an HTTP response body)
// that are only released when the iterator completes or is abandoned via a
// loop break. Constructing a CompletionStream and never iterating it will
// leak those resources.
type CompletionStream struct {
	iterator iter.Seq2[Fragment, error]
}

// NewCompletionStream creates a CompletionStream from a raw fragment
// iterator. The iterator is expected to yield Fragment values (with nil
// error) in wire arrival order, and may yield a non-nil error exactly once to
// signal a mid-stream failure, after which it must stop.
func NewCompletionStream(iterator iter.Seq2[Fragment, error]) *CompletionStream {
	return &CompletionStream{iterator: iterator}
}

// NewSingleFragmentStream wraps a synchronous CompletionResponse as a
// one-fragment stream. This is the fallback when a vendor call was made
// synchronously: the entire content is delivered as a single fragment.
func NewSingleFragmentStream(response *CompletionResponse) *CompletionStream {
	iteratorFunc := func(yield func(Fragment, error) bool) {
		if response == nil || response.Content == "" {
			return
		}
		yield(Fragment{Chunk: response.Content}, nil)
	}
	return NewCompletionStream(iteratorFunc)
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for fragment, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(fragment.Chunk)
//	}
func (stream *CompletionStream) Iter() iter.Seq2[Fragment, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the concatenated text. On a
// mid-stream error it returns the partial text accumulated so far together
// with the error; the partial text may still be salvageable downstream.
func (stream *CompletionStream) Collect() (string, error) {
	var accumulated strings.Builder

	for fragment, err := range stream.iterator {
		if err != nil {
			return accumulated.String(), err
		}
		accumulated.WriteString(fragment.Chunk)
	}

	return accumulated.String(), nil
}
