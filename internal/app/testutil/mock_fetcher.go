package testutil

import (
	"context"
	"sync"

	"watchme-asr/internal/app/storage"
)

// ScriptedFetcher serves audio from memory and fails keys on demand
type ScriptedFetcher struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failures map[string][]error
	calls    map[string]int
}

// NewScriptedFetcher creates an empty fetcher
func NewScriptedFetcher() *ScriptedFetcher {
	return &ScriptedFetcher{
		objects:  make(map[string][]byte),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

// Put stores audio under key
func (f *ScriptedFetcher) Put(key string, data []byte) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return f
}

// FailWith makes the next fetches of key fail with errs in order; the last one repeats
func (f *ScriptedFetcher) FailWith(key string, errs ...error) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = errs
	return f
}

// Fetch implements storage.Fetcher
func (f *ScriptedFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.calls[key]
	f.calls[key] = n + 1
	if errs := f.failures[key]; len(errs) > 0 {
		if n < len(errs) {
			return nil, errs[n]
		}
		if _, ok := f.objects[key]; !ok {
			return nil, errs[len(errs)-1]
		}
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.NotFoundError(key, nil)
	}
	return data, nil
}

// Calls returns how often key was fetched
func (f *ScriptedFetcher) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// TotalCalls returns the number of fetches of any key
func (f *ScriptedFetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
