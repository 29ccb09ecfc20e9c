// Package store defines the persistence boundary a ratchet.Session is
// saved to and restored from, and provides a bounded in-memory default
// implementation (generalized from the teacher dr package's Store
// interface and memory type).
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/heratchet/heratchet"
)

// ErrNotFound is returned by Store.Load when no snapshot is recorded
// under the given session ID.
var ErrNotFound = errors.New("store: session not found")

// Store saves and loads ratchet session snapshots, keyed by an opaque
// session identifier (see ratchet.SessionID).
type Store interface {
	// Save persists snap under id, replacing any prior snapshot.
	Save(ctx context.Context, id [32]byte, snap ratchet.Snapshot) error
	// Load retrieves the snapshot saved under id, or ErrNotFound.
	Load(ctx context.Context, id [32]byte) (ratchet.Snapshot, error)
	// Delete removes any snapshot saved under id. Deleting a
	// nonexistent id is not an error.
	Delete(ctx context.Context, id [32]byte) error
}

// memory is a bounded in-memory Store, suitable for tests and for
// sessions that do not need to survive a process restart.
type memory struct {
	mu       sync.Mutex
	maxItems int
	snaps    map[[32]byte]ratchet.Snapshot
}

var _ Store = (*memory)(nil)

// NewMemory returns a Store that keeps up to maxItems snapshots in
// memory. Once full, Save for a new id fails rather than silently
// evicting another session's state.
func NewMemory(maxItems int) Store {
	return &memory{maxItems: maxItems, snaps: make(map[[32]byte]ratchet.Snapshot)}
}

func (m *memory) Save(_ context.Context, id [32]byte, snap ratchet.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.snaps[id]; !exists && len(m.snaps) >= m.maxItems {
		return errors.New("store: too many sessions held in memory")
	}
	m.snaps[id] = snap
	return nil
}

func (m *memory) Load(_ context.Context, id [32]byte) (ratchet.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[id]
	if !ok {
		return ratchet.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (m *memory) Delete(_ context.Context, id [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	return nil
}
