package session

import (
	"context"
	"sort"
	"sync"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

// MemoryStore keeps encoded states in a map. Storing the JSON instead of the
// struct means every Load decodes a fresh copy.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[userID]
	return ok, nil
}

func (s *MemoryStore) Load(_ context.Context, userID string) (*coaching.SessionState, error) {
	s.mu.RLock()
	raw, ok := s.data[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	state, err := decodeState(raw)
	return state, wrap("load", userID, err)
}

func (s *MemoryStore) Save(_ context.Context, userID string, state *coaching.SessionState) error {
	raw, err := encodeForSave(userID, state)
	if err != nil {
		return wrap("save", userID, err)
	}
	s.mu.Lock()
	s.data[userID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[userID]; !ok {
		return wrap("delete", userID, ErrNotFound)
	}
	delete(s.data, userID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
