package worldserver_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/scripting"
	"github.com/cory-johannsen/lilwins/internal/world"
	"github.com/cory-johannsen/lilwins/internal/worldserver"
)

func TestNewManager_Rejects(t *testing.T) {
	themes := loadThemes(t)
	logger := zaptest.NewLogger(t)

	_, err := worldserver.NewManager(themes, nil, nil, logger, worldserver.Options{})
	assert.Error(t, err)
	_, err = worldserver.NewManager(nil, worldserver.NewMemoryStore(), nil, logger, worldserver.Options{})
	assert.Error(t, err)
	_, err = worldserver.NewManager([]*world.Theme{themes[0], themes[0]}, worldserver.NewMemoryStore(), nil, logger, worldserver.Options{})
	assert.ErrorContains(t, err, "duplicate world ID")
}

func TestManager_Worlds(t *testing.T) {
	mgr := newScriptedManager(t, worldserver.NewMemoryStore())
	worlds := mgr.Worlds()
	require.Len(t, worlds, 5)
	ids := make([]string, len(worlds))
	for i, w := range worlds {
		ids[i] = w.ID
		assert.Equal(t, w.ID == "dungeon", w.Scripted, "world %s", w.ID)
	}
	assert.Equal(t, []string{"city", "dungeon", "graveyard", "kingdom", "neighborhood"}, ids)
	assert.Equal(t, "square", worlds[0].Topology)
	assert.Equal(t, 8, worlds[0].Radius)
}

func TestManager_UnknownWorld(t *testing.T) {
	mgr := newManager(t, worldserver.NewMemoryStore(), 1)
	ctx := context.Background()
	_, err := mgr.Grow(ctx, uuid.New(), "atlantis", "")
	assert.ErrorIs(t, err, worldserver.ErrUnknownWorld)
	_, err = mgr.Stats(ctx, uuid.New(), "atlantis")
	assert.ErrorIs(t, err, worldserver.ErrUnknownWorld)
	assert.ErrorIs(t, mgr.Reset(ctx, uuid.New(), "atlantis"), worldserver.ErrUnknownWorld)
	assert.Zero(t, mgr.Loaded())
}

func TestManager_GrowPersists(t *testing.T) {
	store := newCountingStore()
	mgr := newManager(t, store, 1)
	ctx := context.Background()
	profile := uuid.New()

	for i := 0; i < 3; i++ {
		res, err := mgr.Grow(ctx, profile, "kingdom", "read")
		require.NoError(t, err)
		require.NotNil(t, res)
	}
	assert.EqualValues(t, 3, store.saves.Load())
	assert.EqualValues(t, 1, store.loads.Load(), "snapshot is loaded once")

	data, err := store.MemoryStore.Load(ctx, profile, "kingdom")
	require.NoError(t, err)
	snap, err := world.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "kingdom", snap.World)
	require.Len(t, snap.Cells, 3)
	assert.Equal(t, "read", snap.Cells[0].HabitTag)
}

func TestManager_RestoresFromStore(t *testing.T) {
	store := worldserver.NewMemoryStore()
	ctx := context.Background()
	profile := uuid.New()

	first := newManager(t, store, 3)
	for i := 0; i < 12; i++ {
		_, err := first.Grow(ctx, profile, "city", "")
		require.NoError(t, err)
	}
	want, err := first.Cells(ctx, profile, "city")
	require.NoError(t, err)

	second := newManager(t, store, 99)
	got, err := second.Cells(ctx, profile, "city")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	st, err := second.Stats(ctx, profile, "city")
	require.NoError(t, err)
	assert.Equal(t, 12, st.Cells)
}

func TestManager_ProfilesAreIndependent(t *testing.T) {
	mgr := newManager(t, worldserver.NewMemoryStore(), 1)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, err := mgr.Grow(ctx, a, "graveyard", "")
	require.NoError(t, err)
	_, err = mgr.Grow(ctx, a, "graveyard", "")
	require.NoError(t, err)

	sa, err := mgr.Stats(ctx, a, "graveyard")
	require.NoError(t, err)
	sb, err := mgr.Stats(ctx, b, "graveyard")
	require.NoError(t, err)
	sk, err := mgr.Stats(ctx, a, "kingdom")
	require.NoError(t, err)
	assert.Equal(t, 2, sa.Cells)
	assert.Zero(t, sb.Cells)
	assert.Zero(t, sk.Cells)
	assert.Equal(t, 3, mgr.Loaded())
}

func TestManager_Reset(t *testing.T) {
	store := worldserver.NewMemoryStore()
	mgr := newManager(t, store, 1)
	ctx := context.Background()
	profile := uuid.New()

	_, err := mgr.Grow(ctx, profile, "kingdom", "")
	require.NoError(t, err)
	require.NoError(t, mgr.Reset(ctx, profile, "kingdom"))

	st, err := mgr.Stats(ctx, profile, "kingdom")
	require.NoError(t, err)
	assert.Zero(t, st.Cells)
	_, err = store.Load(ctx, profile, "kingdom")
	assert.ErrorIs(t, err, world.ErrSnapshotNotFound)

	// Reset of a world never opened still clears its snapshot.
	require.NoError(t, store.Save(ctx, profile, "city", []byte(`{"cells":[],"cursor":0}`)))
	require.NoError(t, mgr.Reset(ctx, profile, "city"))
	_, err = store.Load(ctx, profile, "city")
	assert.ErrorIs(t, err, world.ErrSnapshotNotFound)
}

func TestManager_SaveWritesCurrentState(t *testing.T) {
	store := newCountingStore()
	mgr := newManager(t, store, 1)
	profile := uuid.New()
	require.NoError(t, mgr.Save(context.Background(), profile, "neighborhood"))
	assert.EqualValues(t, 1, store.saves.Load())

	data, err := store.MemoryStore.Load(context.Background(), profile, "neighborhood")
	require.NoError(t, err)
	assert.JSONEq(t, `{"world":"neighborhood","cells":[],"cursor":0}`, string(data))
}

func TestManager_CompletionIsNotSaved(t *testing.T) {
	store := newCountingStore()
	mgr := newManager(t, store, 1)
	ctx := context.Background()
	profile := uuid.New()

	var completed bool
	for i := 0; i < 1000 && !completed; i++ {
		res, err := mgr.Grow(ctx, profile, "neighborhood", "")
		require.NoError(t, err)
		require.NotNil(t, res)
		completed = res.Kind == world.KindComplete
	}
	require.True(t, completed)
	st, err := mgr.Stats(ctx, profile, "neighborhood")
	require.NoError(t, err)
	assert.EqualValues(t, st.Cells, store.saves.Load())
}

func TestManager_FullWorldReturnsNil(t *testing.T) {
	store := newCountingStore()
	mgr := newManager(t, store, 2)
	ctx := context.Background()
	profile := uuid.New()

	var full bool
	for i := 0; i < 1000 && !full; i++ {
		res, err := mgr.Grow(ctx, profile, "dungeon", "")
		require.NoError(t, err)
		full = res == nil
	}
	require.True(t, full)
	st, err := mgr.Stats(ctx, profile, "dungeon")
	require.NoError(t, err)
	assert.Equal(t, 127, st.Cells)
	assert.EqualValues(t, 127, store.saves.Load())
}

func TestManager_CorruptSnapshotStartsEmpty(t *testing.T) {
	store := worldserver.NewMemoryStore()
	ctx := context.Background()
	profile := uuid.New()
	require.NoError(t, store.Save(ctx, profile, "kingdom", []byte(`{"cells": [`)))

	core, logs := observer.New(zap.WarnLevel)
	mgr, err := worldserver.NewManager(loadThemes(t), store, nil, zap.New(core), worldserver.Options{Seed: 1})
	require.NoError(t, err)
	st, err := mgr.Stats(ctx, profile, "kingdom")
	require.NoError(t, err)
	assert.Zero(t, st.Cells)
	assert.Equal(t, 1, logs.FilterMessage("corrupt saved world, starting empty").Len())
}

func TestManager_StoreFailure(t *testing.T) {
	mgr := newManager(t, brokenStore{}, 1)
	_, err := mgr.Grow(context.Background(), uuid.New(), "kingdom", "")
	assert.ErrorIs(t, err, errBroken)
	assert.Zero(t, mgr.Loaded(), "failed load leaves no engine behind")
}

func TestManager_ScriptedDungeonZones(t *testing.T) {
	mgr := newScriptedManager(t, worldserver.NewMemoryStore())
	ctx := context.Background()
	profile := uuid.New()
	for i := 0; i < 200; i++ {
		res, err := mgr.Grow(ctx, profile, "dungeon", "")
		require.NoError(t, err)
		if res == nil {
			break
		}
	}
	cells, err := mgr.Cells(ctx, profile, "dungeon")
	require.NoError(t, err)
	require.Len(t, cells, 127)

	crypt := map[string]bool{"sarcophagus": true, "altar": true, "bones": true, "skeleton": true}
	corridor := map[string]bool{
		"corridor_end": true, "corridor_straight": true, "corridor_bend": true,
		"corridor_fork": true, "corridor_cross": true, "corridor_hub": true,
	}
	var crypts int
	for _, c := range cells {
		x, y := c.Coord.X, c.Coord.Y
		d := max(abs(x), abs(y), abs(x+y))
		onAxis := x == 0 || y == 0 || x+y == 0
		switch {
		case d == 0:
			assert.Equal(t, "stairs_down", c.Structure)
		case onAxis:
			assert.True(t, corridor[c.Tile], "axis cell %v should be corridor, got %s", c.Coord, c.Tile)
		case d <= 2:
			crypts++
			assert.True(t, crypt[c.Structure], "crypt cell %v got %q", c.Coord, c.Structure)
		}
	}
	assert.Equal(t, 6, crypts)
}

func TestManager_ConcurrentGrow(t *testing.T) {
	mgr := newManager(t, worldserver.NewMemoryStore(), 4)
	ctx := context.Background()
	profile := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Grow(ctx, profile, "kingdom", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := mgr.Stats(ctx, profile, "kingdom")
	require.NoError(t, err)
	assert.Equal(t, 40, st.Cells)
	assert.Equal(t, 1, mgr.Loaded())
}

func TestManager_GrowSavesInPlacementOrder(t *testing.T) {
	store := newGatedStore()
	mgr := newManager(t, store, 1)
	ctx := context.Background()
	profile := uuid.New()

	var wg sync.WaitGroup
	grow := func() {
		defer wg.Done()
		_, err := mgr.Grow(ctx, profile, "kingdom", "")
		assert.NoError(t, err)
	}
	wg.Add(2)
	go grow()
	<-store.entered
	go grow()
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	live, err := mgr.Stats(ctx, profile, "kingdom")
	require.NoError(t, err)
	reopened := newManager(t, store, 1)
	saved, err := reopened.Stats(ctx, profile, "kingdom")
	require.NoError(t, err)
	assert.Equal(t, 2, live.Cells)
	assert.Equal(t, live.Cells, saved.Cells, "stored snapshot matches the live world")
}

func TestManager_ResetWaitsForPendingSave(t *testing.T) {
	store := newGatedStore()
	mgr := newManager(t, store, 1)
	ctx := context.Background()
	profile := uuid.New()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := mgr.Grow(ctx, profile, "kingdom", "")
		assert.NoError(t, err)
	}()
	<-store.entered
	go func() {
		defer wg.Done()
		assert.NoError(t, mgr.Reset(ctx, profile, "kingdom"))
	}()
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	st, err := mgr.Stats(ctx, profile, "kingdom")
	require.NoError(t, err)
	assert.Zero(t, st.Cells)
	_, err = store.Load(ctx, profile, "kingdom")
	assert.ErrorIs(t, err, world.ErrSnapshotNotFound)
}

func TestManager_SeedVariesByProfile(t *testing.T) {
	ctx := context.Background()
	a := uuid.MustParse("0b8f6f7e-3c1a-4d2e-9a55-2f0d1c6e8a11")
	b := uuid.MustParse("d4e2a9c0-71b5-4f3e-8c22-6a9e0f1b3d44")
	grow := func(profile uuid.UUID) []world.Cell {
		mgr := newManager(t, worldserver.NewMemoryStore(), 7)
		for i := 0; i < 30; i++ {
			_, err := mgr.Grow(ctx, profile, "kingdom", "")
			require.NoError(t, err)
		}
		cells, err := mgr.Cells(ctx, profile, "kingdom")
		require.NoError(t, err)
		return cells
	}
	assert.Equal(t, grow(a), grow(a), "one profile regrows identically")
	assert.NotEqual(t, grow(a), grow(b), "profiles sharing a seed grow different worlds")
}

// Property: the same seed grows the same world.
func TestPropertyManager_SeedIsReproducible(t *testing.T) {
	themes := loadThemes(t)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64Range(1, 1<<40).Draw(rt, "seed")
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		worldID := rapid.SampledFrom([]string{"kingdom", "city", "graveyard", "neighborhood", "dungeon"}).Draw(rt, "world")
		profile := uuid.New()

		grow := func() []world.Cell {
			mgr, err := worldserver.NewManager(themes, worldserver.NewMemoryStore(), nil, zap.NewNop(), worldserver.Options{Seed: seed})
			if err != nil {
				rt.Fatal(err)
			}
			for i := 0; i < steps; i++ {
				if _, err := mgr.Grow(context.Background(), profile, worldID, ""); err != nil {
					rt.Fatal(err)
				}
			}
			cells, err := mgr.Cells(context.Background(), profile, worldID)
			if err != nil {
				rt.Fatal(err)
			}
			return cells
		}
		a, b := grow(), grow()
		if len(a) != len(b) {
			rt.Fatalf("lengths differ: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				rt.Fatalf("cell %d differs: %+v vs %+v", i, a[i], b[i])
			}
		}
	})
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := worldserver.NewMemoryStore()
	ctx := context.Background()
	profile := uuid.New()
	blob := []byte(`{"cells":[],"cursor":0}`)
	require.NoError(t, store.Save(ctx, profile, "kingdom", blob))
	blob[0] = 'X'

	got, err := store.Load(ctx, profile, "kingdom")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), got[0])
	assert.NoError(t, store.Delete(ctx, profile, "missing"))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}


func TestLoadWorldScripts_MissingDirIsSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	scripts := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(1), logger), logger)
	defer scripts.Close()

	n, err := worldserver.LoadWorldScripts(scripts, loadThemes(t), t.TempDir(), logger)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, scripts.Loaded("dungeon"))
	assert.Equal(t, 1, logs.FilterMessage("world script dir not found, skipping").Len())
}
