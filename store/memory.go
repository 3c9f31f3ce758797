package store

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

type counter struct {
	bucket string
	n      int64
}

// MemoryStore counts usage in a map guarded by a mutex.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]counter
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]counter)}
}

// Record adds one to the counter for key, restarting it when the bucket changed.
func (m *MemoryStore) Record(_ context.Context, key string, w Window) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counters[key]
	if c.bucket != w.BucketKey {
		c = counter{bucket: w.BucketKey}
	}
	c.n++
	m.counters[key] = c
	return c.n, nil
}

// Count returns the counter for key if it belongs to the bucket of w.
func (m *MemoryStore) Count(_ context.Context, key string, w Window) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[key]; ok && c.bucket == w.BucketKey {
		return c.n, nil
	}
	return 0, nil
}

// seed overwrites the counter for key. TieredStore uses it to backfill
// values read from its persistent layer.
func (m *MemoryStore) seed(key string, w Window, n int64) {
	m.mu.Lock()
	m.counters[key] = counter{bucket: w.BucketKey, n: n}
	m.mu.Unlock()
}

// Reset removes the counter for key.
func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.counters, key)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
