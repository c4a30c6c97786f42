package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhublabs/medhub/pkg/session"
)

func TestFilesystemCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = cache.Read(ctx, "medhub:session")
	assert.ErrorIs(t, err, session.ErrCacheMiss)

	require.NoError(t, cache.Write(ctx, "medhub:session", "payload"))

	payload, err := cache.Read(ctx, "medhub:session")
	require.NoError(t, err)
	assert.Equal(t, "payload", payload)

	require.NoError(t, cache.Delete(ctx, "medhub:session"))
	_, err = cache.Read(ctx, "medhub:session")
	assert.ErrorIs(t, err, session.ErrCacheMiss)
}

func TestFilesystemCacheEscapesKeys(t *testing.T) {
	ctx := context.Background()
	cache, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	// A key with separators must not escape the base directory.
	require.NoError(t, cache.Write(ctx, "../outside/key", "payload"))
	payload, err := cache.Read(ctx, "../outside/key")
	require.NoError(t, err)
	assert.Equal(t, "payload", payload)
}

func TestFilesystemCacheRequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
