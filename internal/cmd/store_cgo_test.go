//go:build cgo

package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearmcp/linear-mcp/internal/config"
	"github.com/linearmcp/linear-mcp/internal/core/store"
)

func TestClearCache(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close() // nolint:errcheck
	require.NoError(t, db.Migrate(ctx))

	for _, key := range cacheKeys {
		require.NoError(t, db.SetResource(ctx, key, []byte(`{}`), time.Hour))
	}

	require.NoError(t, clearCache(ctx, db, []string{"teams"}))

	_, ok, err := db.GetResource(ctx, "teams")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = db.GetResource(ctx, "organization")
	require.NoError(t, err)
	assert.True(t, ok)
}
