package extractor

import (
	"context"
	"sync"

	"github.com/fieldlens/fieldlens/core/model"
)

// Session is a logical request slot allowing at most one extraction in
// flight. Submitting a new request cancels the previous one; progress
// callbacks from a superseded request are discarded so a late fragment can
// never touch a newer request's state.
type Session struct {
	extractor *Extractor

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
}

// NewSession creates a session slot backed by the given extractor.
func NewSession(extractor *Extractor) *Session {
	return &Session{extractor: extractor}
}

// Submit runs the request in this session's slot, cancelling any in-flight
// submission first. It blocks until the request reaches a terminal state.
func (s *Session) Submit(ctx context.Context, request *model.ExtractionRequest, onProgress ProgressFunc) (*Outcome, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	myGeneration := s.generation
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	// Progress updates are dropped once a newer submission owns the slot.
	guarded := func(p Progress) {
		if onProgress == nil {
			return
		}
		s.mu.Lock()
		current := s.generation == myGeneration
		s.mu.Unlock()
		if current {
			onProgress(p)
		}
	}

	outcome, err := s.extractor.Submit(ctx, request, guarded)

	s.mu.Lock()
	if s.generation == myGeneration {
		s.cancel = nil
	}
	s.mu.Unlock()

	return outcome, err
}

// Cancel aborts the in-flight submission, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
