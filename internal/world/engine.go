package world

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/grid"
)

// Result kinds.
const (
	KindTile      = "tile"
	KindStructure = "structure"
	KindComplete  = "complete"
)

// PlacementResult describes what a Grow call placed.
type PlacementResult struct {
	Kind     string
	Category string
	Name     string
	// Coord is the placed coordinate; zero for KindComplete.
	Coord grid.Coord
	// X and Z are the world-space position of Coord.
	X float64
	Z float64
}

// Stats summarizes a world.
type Stats struct {
	Structures int
	Buildings  int
	Roads      int
	Cells      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict makes placement into an occupied coordinate panic instead of
// logging and returning the existing cell. Tests enable it.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithZoneClassifier replaces the theme's distance bands.
func WithZoneClassifier(z ZoneClassifier) Option {
	return func(e *Engine) { e.zones = z }
}

// Engine grows one world. All exported methods are safe for concurrent use;
// a mutex serializes them so exactly one placement is in flight at a time.
type Engine struct {
	mu sync.Mutex

	theme      *Theme
	topology   grid.Topology
	projection grid.Projection
	catalog    *Catalog
	zones      ZoneClassifier
	roads      *RoadResolver
	policy     policy
	noise      map[string]*noiseField
	roller     *dice.Roller
	logger     *zap.Logger
	strict     bool

	store  *Store
	cursor int
}

// NewEngine builds an empty world for theme.
//
// Precondition: theme must have passed Validate; src and logger must be non-nil.
// Postcondition: Returns an Engine with an empty store or a non-nil error.
func NewEngine(theme *Theme, src dice.Source, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	topo, err := grid.TopologyByName(theme.Grid.Topology)
	if err != nil {
		return nil, err
	}
	proj, err := grid.ProjectionByName(theme.Grid.Projection, theme.Grid.Scale)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalog(theme.Tiles, theme.Structures)
	if err != nil {
		return nil, fmt.Errorf("world %q: %w", theme.ID, err)
	}

	logger = logger.Named("world").With(zap.String("world", theme.ID))
	e := &Engine{
		theme:      theme,
		topology:   topo,
		projection: proj,
		catalog:    catalog,
		zones:      BandClassifier{Bands: theme.Bands, Outer: theme.OuterZone},
		roller:     dice.NewLoggedRoller(src, logger),
		logger:     logger,
		store:      NewStore(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.noise = make(map[string]*noiseField)
	for name, z := range theme.Zones {
		if z.Cover != nil && z.Cover.Noise != nil {
			e.noise[name] = newNoiseField(*z.Cover.Noise)
		}
	}
	if theme.Roads != nil {
		e.roads = NewRoadResolver(topo, catalog, theme.Roads.Variants)
	}

	switch theme.Policy {
	case PolicyRoads:
		e.policy = newRoadPolicy(e, *theme.Roads)
	default:
		var f Frontier
		if theme.Frontier.Strategy == FrontierAdjacency {
			f = &AdjacencyFrontier{Topology: topo, Radius: theme.Grid.Radius, Closest: theme.Frontier.Closest}
		} else {
			f = NewSpiralFrontier(topo, theme.Grid.Radius)
		}
		e.policy = &zonePolicy{frontier: f}
	}
	return e, nil
}

// ID returns the theme identifier.
func (e *Engine) ID() string {
	return e.theme.ID
}

// Theme returns the engine's theme.
func (e *Engine) Theme() *Theme {
	return e.theme
}

// Topology returns the engine's grid topology.
func (e *Engine) Topology() grid.Topology {
	return e.topology
}

// Grow places one cell for a qualifying completion event.
//
// Template entries are consumed first. After that the theme's exhaustion mode
// either reports completion or hands over to the placement policy.
//
// Postcondition: Returns (nil, nil) when the world has no room left; in that
// case no state changed. Otherwise exactly one new cell exists, unless the
// result kind is KindComplete.
func (e *Engine) Grow(habit string) (*PlacementResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tpl := e.theme.Template; tpl != nil {
		for e.cursor < len(tpl.Entries) {
			entry := tpl.Entries[e.cursor]
			e.cursor++
			if e.store.Occupied(entry.Coord) {
				e.logger.Warn("template entry already occupied, skipping",
					zap.Int("entry", e.cursor-1),
					zap.Stringer("coord", entry.Coord),
				)
				continue
			}
			cell := e.commit(Cell{
				Coord:       entry.Coord,
				Tile:        entry.Tile,
				Structure:   entry.Structure,
				Orientation: entry.Rotation,
				Habit:       habit,
			})
			return e.result(cell), nil
		}
		if tpl.Exhaustion == ExhaustComplete {
			return &PlacementResult{Kind: KindComplete, Name: e.theme.Labels.Complete}, nil
		}
	}

	cell, ok := e.policy.propose(e)
	if !ok {
		e.logger.Info("world full", zap.Int("cells", e.store.Len()))
		return nil, nil
	}
	cell.Habit = habit
	cell = e.commit(cell)
	return e.result(cell), nil
}

// commit sanitizes cell, shapes connective tiles, stores the cell and patches
// connective neighbours.
func (e *Engine) commit(cell Cell) Cell {
	cell = e.sanitize(cell)
	if existing, ok := e.store.Get(cell.Coord); ok {
		if e.strict {
			panic(fmt.Sprintf("world %s: placement into occupied coordinate %v", e.theme.ID, cell.Coord))
		}
		e.logger.Error("placement into occupied coordinate ignored",
			zap.Stringer("coord", cell.Coord),
			zap.String("existing_tile", existing.Tile),
		)
		return existing
	}

	connective := e.roads != nil && e.catalog.IsConnective(cell.Tile)
	if connective {
		tile, orientation, isolated := e.roads.Shape(e.store, cell.Coord)
		cell.Tile = tile
		if !isolated {
			cell.Orientation = orientation
		}
	}
	if err := e.store.Put(cell); err != nil {
		e.logger.Error("storing cell", zap.Error(err))
		return cell
	}
	if connective {
		for _, p := range e.roads.Propagate(e.store, cell.Coord) {
			if err := e.store.Patch(p.Coord, p.Tile, p.Orientation); err != nil {
				e.logger.Error("patching connective neighbour", zap.Error(err))
			}
		}
	}
	e.logger.Debug("cell placed",
		zap.Stringer("coord", cell.Coord),
		zap.String("tile", cell.Tile),
		zap.String("structure", cell.Structure),
	)
	return cell
}

// sanitize replaces unknown tiles with the default tile and drops unknown
// structures so evolving catalogs never break placement.
func (e *Engine) sanitize(cell Cell) Cell {
	if _, ok := e.catalog.Tile(cell.Tile); !ok {
		e.logger.Warn("unknown tile, using default",
			zap.String("tile", cell.Tile),
			zap.String("default", e.theme.DefaultTile),
			zap.Stringer("coord", cell.Coord),
		)
		cell.Tile = e.theme.DefaultTile
	}
	if cell.HasStructure() {
		if _, ok := e.catalog.Structure(cell.Structure); !ok {
			e.logger.Warn("unknown structure dropped",
				zap.String("structure", cell.Structure),
				zap.Stringer("coord", cell.Coord),
			)
			cell.Structure = ""
		}
	}
	return cell
}

func (e *Engine) result(cell Cell) *PlacementResult {
	x, z := e.projection.ToWorld(cell.Coord)
	res := &PlacementResult{Coord: cell.Coord, X: x, Z: z}
	switch {
	case cell.HasStructure():
		def, _ := e.catalog.Structure(cell.Structure)
		res.Kind = KindStructure
		res.Category = def.Category
		res.Name = def.Name
	case e.catalog.IsConnective(cell.Tile):
		res.Kind = KindTile
		res.Category = CategoryRoad
		res.Name = e.theme.Labels.Road
	default:
		res.Kind = KindTile
		res.Category = CategoryTile
		res.Name = e.theme.Labels.Bare
	}
	return res
}

// Tag attaches a habit label to the cell at c after creation.
//
// Postcondition: Returns ErrVacant when c holds no cell.
func (e *Engine) Tag(c grid.Coord, habit string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Tag(c, habit)
}

// Cell returns the cell at c, if any.
func (e *Engine) Cell(c grid.Coord) (Cell, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(c)
}

// Cells returns every cell in insertion order.
func (e *Engine) Cells() []Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// Cursor returns the template playback position.
func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Stats counts cells, structures, buildings and connective tiles.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{Cells: e.store.Len()}
	for _, c := range e.store.All() {
		if c.HasStructure() {
			s.Structures++
			if def, ok := e.catalog.Structure(c.Structure); ok && def.Category == CategoryBuilding {
				s.Buildings++
			}
		}
		if e.catalog.IsConnective(c.Tile) {
			s.Roads++
		}
	}
	return s
}

// Reset clears the whole world and rewinds the template.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Reset()
	e.cursor = 0
	e.logger.Info("world reset")
}
