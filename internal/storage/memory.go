package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a mutex-guarded map. Values are copied on the
// way in and out so callers never share backing arrays with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = clone(value)
	return nil
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = clone(value)
	return true, nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}

	next, err := fn(clone(current))
	if err != nil {
		return err
	}
	s.records[key] = clone(next)
	return nil
}

// Close is a no-op; it exists to satisfy Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
