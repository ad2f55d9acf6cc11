// Package assemble accumulates streamed completion fragments into the raw
// text handed to the output parser, exposing each intermediate snapshot for
// progressive display.
package assemble

import (
	"iter"
	"strings"

	"github.com/fieldlens/fieldlens/providers/ai"
)

// Assembler owns the append-only accumulation for one in-flight request.
// It is single-use and not safe for concurrent writers; the pipeline drives
// it from a single goroutine.
type Assembler struct {
	accumulation strings.Builder
	failed       bool
}

func New() *Assembler {
	return &Assembler{}
}

// Consume drains the stream, appending each fragment in arrival order and
// yielding the accumulation after every append. On a stream error it yields
// the partial accumulation together with the error and stops; the partial
// text stays available through Text because a truncated answer may still
// parse. The sequence terminates exactly once.
func (a *Assembler) Consume(stream *ai.CompletionStream) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for fragment, err := range stream.Iter() {
			if err != nil {
				a.failed = true
				yield(a.accumulation.String(), err)
				return
			}
			a.accumulation.WriteString(fragment.Chunk)
			if !yield(a.accumulation.String(), nil) {
				return
			}
		}
	}
}

// Text returns the accumulated raw text so far. After Consume finishes this
// is exactly the concatenation of all chunks in arrival order up to stream
// termination or the first error.
func (a *Assembler) Text() string {
	return a.accumulation.String()
}

// Failed reports whether the stream ended with an error fragment.
func (a *Assembler) Failed() bool {
	return a.failed
}
