package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps the state in process. It backs dry runs.
type MemoryStorage struct {
	mu     sync.Mutex
	state  *TrackState
	writes int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Name() string { return "memory" }

func (s *MemoryStorage) Write(_ context.Context, state TrackState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = &state
	s.writes++
	return nil
}

func (s *MemoryStorage) Load(_ context.Context) (*TrackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, nil
	}
	state := *s.state
	return &state, nil
}

// Writes returns how many times Write was called.
func (s *MemoryStorage) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemoryStorage) Close() error { return nil }
