package agenda

import (
	"context"
	"sync"
	"time"
)

// StubDismissedRepo is an in-memory dismissed set for tests.
type StubDismissedRepo struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewStubDismissedRepo() *StubDismissedRepo {
	return &StubDismissedRepo{ids: map[string]struct{}{}}
}

func (s *StubDismissedRepo) Add(_ context.Context, eventId string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[eventId] = struct{}{}
	return nil
}

func (s *StubDismissedRepo) All(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *StubDismissedRepo) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = map[string]struct{}{}
	return nil
}
