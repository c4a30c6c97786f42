package fs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/medhublabs/medhub/pkg/session"
)

// Cache is a filesystem implementation of the session.Cache
// interface. Each key maps to one file under the base directory.
type Cache struct {
	baseDir string
}

// Config options for the filesystem cache.
type Config struct {
	BaseDir string // Base directory for cache files
}

// New creates a new filesystem cache, creating the base directory if
// it does not exist.
func New(config Config) (*Cache, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Cache{baseDir: config.BaseDir}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.baseDir, url.PathEscape(key))
}

// Read returns the payload under key, or session.ErrCacheMiss.
// Unreadable files are reported as a miss, never as corruption.
func (c *Cache) Read(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		// an unreadable hint is the same as no hint
		return "", session.ErrCacheMiss
	}
	return string(data), nil
}

// Write stores the payload under key.
func (c *Cache) Write(ctx context.Context, key, payload string) error {
	if err := os.WriteFile(c.path(key), []byte(payload), 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Delete removes the key. Absent keys are ignored.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}
