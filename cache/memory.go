package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used in tests and when Redis is not
// configured. Keys expire lazily on the next Acquire.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]time.Time)}
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.keys[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	s.keys[key] = time.Now().Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}
