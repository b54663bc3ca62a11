// Package pagecache stores rendered pages per (path, subject) and invalidates them by path.
package pagecache

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Store is the key/value backend behind a Cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Generation returns the counter at key, 0 when absent.
	Generation(ctx context.Context, key string) (int64, error)
	// Bump increments the counter at key and returns the new value.
	Bump(ctx context.Context, key string) (int64, error)
}

// Cache is safe for concurrent use. A nil Cache or a zero TTL disables caching.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger logrus.FieldLogger
}

// New returns a Cache over store keeping entries for ttl.
func New(store Store, ttl time.Duration, logger logrus.FieldLogger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{store: store, ttl: ttl, logger: logger}
}

// Enabled reports whether pages are cached at all.
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil && c.ttl > 0
}

// Slot is where one rendering of a page goes. It pins the path generation seen at lookup, so a
// page built from data read before an Invalidate is stored under the stale generation and never
// served. The zero Slot discards writes.
type Slot struct {
	path string
	key  string
}

// Get returns the cached body for path as seen by subject, and the slot a fresh rendering must
// be stored in. Look up before reading the page data.
func (c *Cache) Get(ctx context.Context, path, subject string) ([]byte, Slot, bool) {
	if !c.Enabled() {
		return nil, Slot{}, false
	}
	key, err := c.entryKey(ctx, path, subject)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("page cache generation lookup failed")
		return nil, Slot{}, false
	}
	slot := Slot{path: path, key: key}
	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("page cache read failed")
		return nil, slot, false
	}
	return body, slot, ok
}

// Set stores body in slot.
func (c *Cache) Set(ctx context.Context, slot Slot, body []byte) {
	if !c.Enabled() || slot.key == "" {
		return
	}
	if err := c.store.Set(ctx, slot.key, body, c.ttl); err != nil {
		c.logger.WithError(err).WithField("path", slot.path).Warn("page cache write failed")
	}
}

// Invalidate marks every cached rendering of path stale. Failures are logged only; the write
// that triggered the invalidation has already happened.
func (c *Cache) Invalidate(ctx context.Context, path string) {
	if !c.Enabled() {
		return
	}
	if _, err := c.store.Bump(ctx, generationKey(path)); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("page cache invalidation failed")
	}
}

func (c *Cache) entryKey(ctx context.Context, path, subject string) (string, error) {
	gen, err := c.store.Generation(ctx, generationKey(path))
	if err != nil {
		return "", err
	}
	return "page:" + path + ":" + strconv.FormatInt(gen, 10) + ":" + subject, nil
}

func generationKey(path string) string {
	return "page-gen:" + path
}
