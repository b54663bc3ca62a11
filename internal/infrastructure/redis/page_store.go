// Package redis backs the page cache with a shared Redis instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/usampac/admin-web/internal/pagecache"
)

// PageStore implements pagecache.Store.
type PageStore struct {
	client goredis.UniversalClient
	prefix string
}

var _ pagecache.Store = (*PageStore)(nil)

// Connect parses url (redis://...) and verifies the server answers.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewPageStore namespaces every key under prefix.
func NewPageStore(client goredis.UniversalClient, prefix string) *PageStore {
	return &PageStore{client: client, prefix: prefix}
}

func (s *PageStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (s *PageStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *PageStore) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := s.client.Get(ctx, s.prefix+key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *PageStore) Bump(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, s.prefix+key).Result()
}
