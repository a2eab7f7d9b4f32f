package settings

import (
	"context"
	"sync"
)

// StubRepository is an in-memory settings store for tests.
type StubRepository struct {
	mu       sync.Mutex
	settings Settings
	saved    bool
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) Load(_ context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return Default(), nil
	}
	return s.settings, nil
}

func (s *StubRepository) Save(_ context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.saved = true
	return nil
}
