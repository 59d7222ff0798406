package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps encoded records in a map. Records are stored as JSON so
// callers observe the same copy semantics as the durable drivers.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string][]byte
	failWrite error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// FailWrites makes every subsequent Set and Delete fail with err. Pass nil to restore.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = err
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (err error) {
	start := time.Now()
	defer func() { observe("memory", "get", start, err) }()

	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := decode(data, dest); err != nil {
		return NewStoreError("memory", "get", key, err)
	}
	return nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	start := time.Now()
	data, err := encode(value)
	if err != nil {
		observe("memory", "set", start, err)
		return NewStoreError("memory", "set", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		observe("memory", "set", start, s.failWrite)
		return NewStoreError("memory", "set", key, s.failWrite)
	}
	s.data[key] = data
	observe("memory", "set", start, nil)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		observe("memory", "delete", start, s.failWrite)
		return NewStoreError("memory", "delete", key, s.failWrite)
	}
	delete(s.data, key)
	observe("memory", "delete", start, nil)
	return nil
}

// Raw returns the encoded record under key, for inspection in tests.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

func (s *MemoryStore) Close() error { return nil }
