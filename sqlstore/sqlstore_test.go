package sqlstore

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heratchet/heratchet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func randSnapshot(t *testing.T, skipN int) ratchet.Snapshot {
	t.Helper()
	var snap ratchet.Snapshot
	_, err := rand.Read(snap.RK[:])
	require.NoError(t, err)
	_, err = rand.Read(snap.DHsPub[:])
	require.NoError(t, err)
	snap.HasCKS = true
	snap.Ns = 7
	snap.Nr = 3

	for i := 0; i < skipN; i++ {
		var e ratchet.SkippedKey
		_, err := rand.Read(e.HK[:])
		require.NoError(t, err)
		_, err = rand.Read(e.MK[:])
		require.NoError(t, err)
		e.Idx = uint32(i)
		snap.Skipped = append(snap.Skipped, e)
	}
	return snap
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id [32]byte
	_, err := rand.Read(id[:])
	require.NoError(t, err)

	snap := randSnapshot(t, 3)
	require.NoError(t, s.Save(ctx, id, snap))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, snap.RK, got.RK)
	assert.Equal(t, snap.DHsPub, got.DHsPub)
	assert.Equal(t, snap.Ns, got.Ns)
	assert.Equal(t, snap.Nr, got.Nr)
	require.Len(t, got.Skipped, len(snap.Skipped))
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	var id [32]byte
	_, err := s.Load(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveOverwritesSkippedKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id [32]byte
	_, err := rand.Read(id[:])
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, id, randSnapshot(t, 5)))
	require.NoError(t, s.Save(ctx, id, randSnapshot(t, 1)))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Skipped, 1)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id [32]byte
	_, err := rand.Read(id[:])
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, id, randSnapshot(t, 2)))
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPruneSkipped(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id [32]byte
	_, err := rand.Read(id[:])
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, id, randSnapshot(t, 10)))
	require.NoError(t, s.PruneSkipped(ctx, id, 4))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Skipped, 4)
}
