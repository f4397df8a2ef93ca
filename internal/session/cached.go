package session

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

// CachedStore puts an LRU of recently used states in front of another store.
// Cached values are private copies; callers always get a clone.
//
// gen is bumped around every write. A Load that missed the cache only fills
// it when no write happened while it was reading the inner store.
type CachedStore struct {
	inner coaching.Store
	cache *lru.Cache[string, *coaching.SessionState]

	mu  sync.Mutex
	gen uint64
}

// NewCachedStore wraps inner with a cache of size entries.
func NewCachedStore(inner coaching.Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, *coaching.SessionState](size)
	if err != nil {
		return nil, fmt.Errorf("create state cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (s *CachedStore) Exists(ctx context.Context, userID string) (bool, error) {
	if s.cache.Contains(userID) {
		return true, nil
	}
	return s.inner.Exists(ctx, userID)
}

func (s *CachedStore) Load(ctx context.Context, userID string) (*coaching.SessionState, error) {
	if st, ok := s.cache.Get(userID); ok {
		return st.Clone(), nil
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	st, err := s.inner.Load(ctx, userID)
	if err != nil || st == nil {
		return st, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.Add(userID, st.Clone())
	}
	s.mu.Unlock()
	return st, nil
}

// invalidate drops userID and marks a write in progress or just finished.
func (s *CachedStore) invalidate(userID string) {
	s.mu.Lock()
	s.gen++
	s.cache.Remove(userID)
	s.mu.Unlock()
}

func (s *CachedStore) Save(ctx context.Context, userID string, state *coaching.SessionState) error {
	s.invalidate(userID)
	defer s.invalidate(userID)
	return s.inner.Save(ctx, userID, state)
}

func (s *CachedStore) Delete(ctx context.Context, userID string) error {
	s.invalidate(userID)
	defer s.invalidate(userID)
	return s.inner.Delete(ctx, userID)
}

func (s *CachedStore) List(ctx context.Context) ([]string, error) {
	return s.inner.List(ctx)
}

// Len reports how many states are cached.
func (s *CachedStore) Len() int { return s.cache.Len() }
