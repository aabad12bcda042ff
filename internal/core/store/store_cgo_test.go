//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linearmcp/linear-mcp/internal/config"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openMemoryStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestResourceCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	_, ok, err := store.GetResource(ctx, "teams")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetResource(ctx, "teams", []byte(`[{"id":"t1"}]`), time.Minute))

	payload, ok, err := store.GetResource(ctx, "teams")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"t1"}]`, string(payload))

	now = now.Add(time.Minute)
	_, ok, err = store.GetResource(ctx, "teams")
	require.NoError(t, err)
	require.False(t, ok, "entry must expire at exactly its ttl")

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)
}

func TestResourceCache_OverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	require.NoError(t, store.SetResource(ctx, "organization", []byte(`{"name":"a"}`), time.Hour))
	require.NoError(t, store.SetResource(ctx, "organization", []byte(`{"name":"b"}`), time.Hour))

	payload, ok, err := store.GetResource(ctx, "organization")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"name":"b"}`, string(payload))

	require.NoError(t, store.DeleteResource(ctx, "organization"))
	_, ok, err = store.GetResource(ctx, "organization")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResourceCache_ZeroTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	require.NoError(t, store.SetResource(ctx, "teams", []byte(`[]`), 0))
	_, ok, err := store.GetResource(ctx, "teams")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenLocalStore_ConfiguresSQLite(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{
		Driver: "libsql",
		Path:   "file:" + t.TempDir() + "/linear-mcp.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.Equal(t, 1, store.DB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	require.Contains(t, journalMode, "wal")

	var busyTimeout int
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	require.GreaterOrEqual(t, busyTimeout, 1000)
}

func TestMigrate_RecordsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	var version int
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	require.Equal(t, SchemaVersion, version)

	// A second run finds nothing pending.
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	require.Equal(t, SchemaVersion, version)
}
