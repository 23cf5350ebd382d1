package storage

import (
	"context"
	"sync"
)

// MemoryFetcher serves objects from a map. Used for local runs and tests.
type MemoryFetcher struct {
	mu      sync.RWMutex
	objects map[string][]byte
	calls   map[string]int
}

// NewMemoryFetcher creates an empty in-memory fetcher
func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{
		objects: make(map[string][]byte),
		calls:   make(map[string]int),
	}
}

// Put stores a copy of data under key
func (m *MemoryFetcher) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// Fetch returns a copy of the object or a not_found error
func (m *MemoryFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, TransientError(key, CodeUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[key]++
	data, ok := m.objects[key]
	if !ok {
		return nil, NotFoundError(key, nil)
	}
	return append([]byte(nil), data...), nil
}

// Calls returns how many times key was fetched
func (m *MemoryFetcher) Calls(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[key]
}
