package gateway

import (
	"context"
	"sync"
)

// Stub is an in-process DocumentAnalyzer and ChatResponder with canned
// answers, used by tests and by offline runs.
type Stub struct {
	Summary string
	Answer  string
	Err     error

	mu    sync.Mutex
	calls int
	// Block, when set, is received from before answering.
	Block chan struct{}
}

func (s *Stub) AnalyzeDocument(ctx context.Context, _ []byte, _ string) (string, error) {
	return s.answer(ctx, s.Summary)
}

func (s *Stub) Reply(ctx context.Context, _ string, _ string) (string, error) {
	return s.answer(ctx, s.Answer)
}

func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Stub) answer(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return text, nil
}
