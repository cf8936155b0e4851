package worldserver_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/scripting"
	"github.com/cory-johannsen/lilwins/internal/world"
	"github.com/cory-johannsen/lilwins/internal/worldserver"
)

const (
	contentDir = "../../content/worlds"
	scriptDir  = "../../content/scripts"
)

func loadThemes(t *testing.T) []*world.Theme {
	t.Helper()
	themes, err := world.LoadThemesFromDir(contentDir)
	require.NoError(t, err)
	return themes
}

func newManager(t *testing.T, store worldserver.SnapshotStore, seed uint64) *worldserver.Manager {
	t.Helper()
	mgr, err := worldserver.NewManager(loadThemes(t), store, nil, zaptest.NewLogger(t), worldserver.Options{Seed: seed, Strict: true})
	require.NoError(t, err)
	return mgr
}

func newScriptedManager(t *testing.T, store worldserver.SnapshotStore) *worldserver.Manager {
	t.Helper()
	logger := zaptest.NewLogger(t)
	themes := loadThemes(t)
	scripts := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(1), logger), logger)
	t.Cleanup(scripts.Close)
	n, err := worldserver.LoadWorldScripts(scripts, themes, scriptDir, logger)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	mgr, err := worldserver.NewManager(themes, store, scripts, zaptest.NewLogger(t), worldserver.Options{Seed: 5, Strict: true})
	require.NoError(t, err)
	return mgr
}

// countingStore wraps a MemoryStore and counts calls.
type countingStore struct {
	*worldserver.MemoryStore
	saves atomic.Int64
	loads atomic.Int64
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: worldserver.NewMemoryStore()}
}

func (s *countingStore) Save(ctx context.Context, profile uuid.UUID, worldID string, data []byte) error {
	s.saves.Add(1)
	return s.MemoryStore.Save(ctx, profile, worldID, data)
}

func (s *countingStore) Load(ctx context.Context, profile uuid.UUID, worldID string) ([]byte, error) {
	s.loads.Add(1)
	return s.MemoryStore.Load(ctx, profile, worldID)
}

var errBroken = errors.New("store offline")

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Save(context.Context, uuid.UUID, string, []byte) error { return errBroken }
func (brokenStore) Load(context.Context, uuid.UUID, string) ([]byte, error) {
	return nil, errBroken
}
func (brokenStore) Delete(context.Context, uuid.UUID, string) error { return errBroken }

// gatedStore parks the first Save until release is closed.
type gatedStore struct {
	*worldserver.MemoryStore
	parked  atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: worldserver.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Save(ctx context.Context, profile uuid.UUID, worldID string, data []byte) error {
	if s.parked.CompareAndSwap(false, true) {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Save(ctx, profile, worldID, data)
}
