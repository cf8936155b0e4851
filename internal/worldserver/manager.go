package worldserver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/grid"
	"github.com/cory-johannsen/lilwins/internal/scripting"
	"github.com/cory-johannsen/lilwins/internal/world"
)

// ErrUnknownWorld is returned for a world id with no loaded theme.
var ErrUnknownWorld = errors.New("unknown world")

// Options tunes the engines a Manager builds.
type Options struct {
	// Seed makes every engine draw from its own seeded source when non-zero.
	// Each (profile, world) mixes its identity into Seed, so worlds differ from
	// one another yet regrow identically. Zero uses crypto randomness.
	Seed uint64
	// Strict turns engine invariant violations into panics.
	Strict bool
}

// WorldInfo describes one available world.
type WorldInfo struct {
	ID       string
	Name     string
	Topology string
	Radius   int
	Scripted bool
}

type engineKey struct {
	profile uuid.UUID
	world   string
}

// slot pairs a resident engine with the lock that orders its mutations
// against their writes to the store.
type slot struct {
	mu sync.Mutex
	e  *world.Engine
}

// Manager owns one engine per (profile, world). Engines are created on first
// use and restored from the store exactly once.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	engines map[engineKey]*slot

	themes  map[string]*world.Theme
	store   SnapshotStore
	scripts *scripting.Manager
	opts    Options
	logger  *zap.Logger
}

// NewManager creates a Manager serving themes.
//
// Precondition: themes must be non-empty with unique ids; store and logger
// must be non-nil. scripts may be nil, in which case every world uses its
// distance bands.
// Postcondition: Returns a Manager with no engines loaded or a non-nil error.
func NewManager(themes []*world.Theme, store SnapshotStore, scripts *scripting.Manager, logger *zap.Logger, opts Options) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("worldserver: store must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("worldserver: logger must not be nil")
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("worldserver: no worlds configured")
	}
	byID := make(map[string]*world.Theme, len(themes))
	for _, th := range themes {
		if _, dup := byID[th.ID]; dup {
			return nil, fmt.Errorf("worldserver: duplicate world ID %q", th.ID)
		}
		byID[th.ID] = th
	}
	return &Manager{
		engines: make(map[engineKey]*slot),
		themes:  byID,
		store:   store,
		scripts: scripts,
		opts:    opts,
		logger:  logger.Named("worldserver"),
	}, nil
}

// Worlds lists the available worlds ordered by id.
func (m *Manager) Worlds() []WorldInfo {
	out := make([]WorldInfo, 0, len(m.themes))
	for _, th := range m.themes {
		out = append(out, WorldInfo{
			ID:       th.ID,
			Name:     th.Name,
			Topology: th.Grid.Topology,
			Radius:   th.Grid.Radius,
			Scripted: m.scripts != nil && m.scripts.Loaded(th.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Grow places one cell in profile's world and persists the result.
//
// Postcondition: A nil result means the world is full; nothing is saved then.
// Concurrent calls for one world reach the store in placement order.
func (m *Manager) Grow(ctx context.Context, profile uuid.UUID, worldID, habit string) (*world.PlacementResult, error) {
	sl, err := m.slot(ctx, profile, worldID)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	res, err := sl.e.Grow(habit)
	if err != nil {
		return nil, fmt.Errorf("growing %s/%s: %w", profile, worldID, err)
	}
	if res == nil || res.Kind == world.KindComplete {
		return res, nil
	}
	if err := m.persist(ctx, profile, sl.e); err != nil {
		return res, err
	}
	return res, nil
}

// Save persists profile's world as it stands.
func (m *Manager) Save(ctx context.Context, profile uuid.UUID, worldID string) error {
	sl, err := m.slot(ctx, profile, worldID)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return m.persist(ctx, profile, sl.e)
}

// Stats summarizes profile's world.
func (m *Manager) Stats(ctx context.Context, profile uuid.UUID, worldID string) (world.Stats, error) {
	sl, err := m.slot(ctx, profile, worldID)
	if err != nil {
		return world.Stats{}, err
	}
	return sl.e.Stats(), nil
}

// Cells returns every cell of profile's world in insertion order.
func (m *Manager) Cells(ctx context.Context, profile uuid.UUID, worldID string) ([]world.Cell, error) {
	sl, err := m.slot(ctx, profile, worldID)
	if err != nil {
		return nil, err
	}
	return sl.e.Cells(), nil
}

// Reset clears profile's world and deletes its snapshot.
//
// Postcondition: No Grow that started before Reset can write its snapshot
// after the delete.
func (m *Manager) Reset(ctx context.Context, profile uuid.UUID, worldID string) error {
	sl, err := m.slot(ctx, profile, worldID)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if err := m.store.Delete(ctx, profile, worldID); err != nil {
		return fmt.Errorf("deleting snapshot %s/%s: %w", profile, worldID, err)
	}
	sl.e.Reset()
	return nil
}

// Loaded reports how many engines are resident.
func (m *Manager) Loaded() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

func (m *Manager) persist(ctx context.Context, profile uuid.UUID, e *world.Engine) error {
	data, err := e.Save()
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", profile, e.ID(), err)
	}
	if err := m.store.Save(ctx, profile, e.ID(), data); err != nil {
		return fmt.Errorf("saving %s/%s: %w", profile, e.ID(), err)
	}
	return nil
}

// slot returns the resident slot for (profile, worldID), building and
// restoring its engine on first use.
func (m *Manager) slot(ctx context.Context, profile uuid.UUID, worldID string) (*slot, error) {
	key := engineKey{profile, worldID}
	m.mu.RLock()
	sl, ok := m.engines[key]
	m.mu.RUnlock()
	if ok {
		return sl, nil
	}

	theme, ok := m.themes[worldID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorld, worldID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sl, ok := m.engines[key]; ok {
		return sl, nil
	}

	logger := m.logger.With(zap.String("profile", profile.String()))
	e, err := world.NewEngine(theme, m.source(key), logger, m.engineOptions(theme)...)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", worldID, err)
	}
	data, err := m.store.Load(ctx, profile, worldID)
	switch {
	case errors.Is(err, world.ErrSnapshotNotFound):
		e.Load(nil)
	case err != nil:
		return nil, fmt.Errorf("loading snapshot %s/%s: %w", profile, worldID, err)
	default:
		e.Load(data)
	}
	sl = &slot{e: e}
	m.engines[key] = sl
	return sl, nil
}

func (m *Manager) source(key engineKey) dice.Source {
	if m.opts.Seed != 0 {
		return dice.NewSeededSource(engineSeed(m.opts.Seed, key))
	}
	return dice.NewCryptoSource()
}

// engineSeed derives the seed of one (profile, world) from the base seed.
func engineSeed(base uint64, key engineKey) uint64 {
	id := uuid.NewSHA1(key.profile, []byte(key.world))
	return base ^ binary.BigEndian.Uint64(id[:8])
}

func (m *Manager) engineOptions(theme *world.Theme) []world.Option {
	opts := []world.Option{world.WithStrict(m.opts.Strict)}
	if m.scripts == nil || theme.Script == nil {
		return opts
	}
	hook := m.scripts.ZoneHook(theme.ID)
	if hook == nil {
		return opts
	}
	return append(opts, world.WithZoneClassifier(world.HookClassifier{
		Hook: func(c grid.Coord, distance int) (string, bool) {
			return hook(c.X, c.Y, distance)
		},
		Fallback: world.BandClassifier{Bands: theme.Bands, Outer: theme.OuterZone},
	}))
}

// LoadWorldScripts loads the Lua zone classifier of every scripted theme from
// root/<script dir>. A theme whose directory is missing is skipped with a
// warning and falls back to its distance bands.
//
// Precondition: scripts and logger must be non-nil.
// Postcondition: Returns the number of worlds loaded or the first Lua load error.
func LoadWorldScripts(scripts *scripting.Manager, themes []*world.Theme, root string, logger *zap.Logger) (int, error) {
	var loaded int
	for _, th := range themes {
		if th.Script == nil {
			continue
		}
		dir := filepath.Join(root, th.Script.Dir)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Warn("world script dir not found, skipping",
				zap.String("world", th.ID), zap.String("dir", dir))
			continue
		}
		limit := th.Script.InstructionLimit
		if limit <= 0 {
			limit = scripting.DefaultInstructionLimit
		}
		if err := scripts.LoadWorld(th.ID, dir, limit); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
