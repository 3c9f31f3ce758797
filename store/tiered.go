package store

import "context"

var _ Store = (*TieredStore)(nil)

// TieredStore answers reads from memory and writes every record through to a
// persistent store, which stays authoritative for the returned totals.
type TieredStore struct {
	cache   *MemoryStore
	backing Store
}

// NewTieredStore puts a fresh MemoryStore in front of backing.
func NewTieredStore(backing Store) *TieredStore {
	return &TieredStore{cache: NewMemoryStore(), backing: backing}
}

// Record writes through to the backing store and caches the returned total.
func (t *TieredStore) Record(ctx context.Context, key string, w Window) (int64, error) {
	n, err := t.backing.Record(ctx, key, w)
	if err != nil {
		return 0, err
	}
	t.cache.seed(key, w, n)
	return n, nil
}

// Count prefers the cached total and falls back to the backing store when
// the cache has nothing for the current bucket.
func (t *TieredStore) Count(ctx context.Context, key string, w Window) (int64, error) {
	if n, _ := t.cache.Count(ctx, key, w); n > 0 {
		return n, nil
	}
	n, err := t.backing.Count(ctx, key, w)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		t.cache.seed(key, w, n)
	}
	return n, nil
}

// Reset clears key in both layers.
func (t *TieredStore) Reset(ctx context.Context, key string) error {
	_ = t.cache.Reset(ctx, key)
	return t.backing.Reset(ctx, key)
}

// Close closes the backing store.
func (t *TieredStore) Close() error {
	return t.backing.Close()
}
