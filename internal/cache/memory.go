package cache

import (
	"context"
	"sync"
)

// memoryStore implements Store with a mutex-guarded map. The mutex
// keeps lookup+increment atomic across concurrent sessions.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]*Entry),
	}
}

// Lookup implements Store.
func (s *memoryStore) Lookup(ctx context.Context, key string) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	entry.HitCount++

	copied := *entry
	return &copied, true, nil
}

// Put implements Store. An existing key is overwritten; the cache
// treats store as an idempotent upsert.
func (s *memoryStore) Put(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry
	return nil
}

// Clear implements Store, returning the prior size.
func (s *memoryStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]*Entry)
	return n, nil
}

// Entries implements Store.
func (s *memoryStore) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	return out, nil
}

// Len implements Store.
func (s *memoryStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Close implements Store.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
