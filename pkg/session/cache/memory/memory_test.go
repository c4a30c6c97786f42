package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhublabs/medhub/pkg/session"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := New()

	_, err := cache.Read(ctx, "k")
	assert.ErrorIs(t, err, session.ErrCacheMiss)

	require.NoError(t, cache.Write(ctx, "k", "v"))

	payload, err := cache.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", payload)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Read(ctx, "k")
	assert.ErrorIs(t, err, session.ErrCacheMiss)
}
