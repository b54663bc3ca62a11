package pagecache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore returns a store purging expired entries every cleanup interval.
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	body, ok := v.([]byte)
	return body, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (m *MemoryStore) Generation(_ context.Context, key string) (int64, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return 0, nil
	}
	gen, _ := v.(int64)
	return gen, nil
}

func (m *MemoryStore) Bump(_ context.Context, key string) (int64, error) {
	for {
		if gen, err := m.items.IncrementInt64(key, 1); err == nil {
			return gen, nil
		}
		if err := m.items.Add(key, int64(1), gocache.NoExpiration); err == nil {
			return 1, nil
		}
	}
}
