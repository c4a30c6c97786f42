package memory

import (
	"context"
	"sync"

	"github.com/medhublabs/medhub/pkg/session"
)

// Cache is an in-memory implementation of the session.Cache interface.
// It survives nothing, which makes it the right default for tests and
// for deployments that do not want a startup hint at all.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New creates a new in-memory cache.
func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Read returns the payload under key, or session.ErrCacheMiss.
func (c *Cache) Read(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, ok := c.entries[key]
	if !ok {
		return "", session.ErrCacheMiss
	}
	return payload, nil
}

// Write stores the payload under key.
func (c *Cache) Write(ctx context.Context, key, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = payload
	return nil
}

// Delete removes the key. Absent keys are ignored.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}
