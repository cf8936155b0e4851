// Package worldserver hosts growing worlds for many profiles and exposes them
// over gRPC.
package worldserver

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/lilwins/internal/world"
)

// SnapshotStore persists one encoded snapshot per (profile, world).
//
// Implementations MUST be safe for concurrent use.
type SnapshotStore interface {
	// Save upserts the snapshot blob.
	Save(ctx context.Context, profile uuid.UUID, worldID string, data []byte) error
	// Load returns the blob or world.ErrSnapshotNotFound.
	Load(ctx context.Context, profile uuid.UUID, worldID string) ([]byte, error)
	// Delete removes the blob. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, profile uuid.UUID, worldID string) error
}

type storeKey struct {
	profile uuid.UUID
	world   string
}

// MemoryStore keeps snapshots in process memory. Used by the memory driver
// and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[storeKey][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[storeKey][]byte)}
}

// Save implements SnapshotStore.
func (s *MemoryStore) Save(_ context.Context, profile uuid.UUID, worldID string, data []byte) error {
	cp := append([]byte(nil), data...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[storeKey{profile, worldID}] = cp
	return nil
}

// Load implements SnapshotStore.
func (s *MemoryStore) Load(_ context.Context, profile uuid.UUID, worldID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[storeKey{profile, worldID}]
	if !ok {
		return nil, world.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete implements SnapshotStore.
func (s *MemoryStore) Delete(_ context.Context, profile uuid.UUID, worldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, storeKey{profile, worldID})
	return nil
}
