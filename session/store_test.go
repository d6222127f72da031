package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := models.Session{IsConnected: true, Address: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"}
	require.NoError(t, s.Persist(ctx, want))

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestoreEmptyStorage(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, got.IsConnected)
	assert.Empty(t, got.Address)
}

func TestRestoreMissingAddressForcesDisconnected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// write a connected flag with no address directly, simulating a stale
	// or corrupted row from an earlier version
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session (key, value, updated_at) VALUES (?, ?, unixepoch())",
		keyConnected, "1")
	require.NoError(t, err)

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, got.IsConnected, "restore must never report connected without an address")
}

func TestPersistNormalizesConnectedWithoutAddress(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, models.Session{IsConnected: true}))

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, got.IsConnected)
}

func TestPersistOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, models.Session{IsConnected: true, Address: "0x1111111111111111111111111111111111111111"}))
	require.NoError(t, s.Persist(ctx, models.Session{}))

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, got.IsConnected)
	assert.Empty(t, got.Address)
}
