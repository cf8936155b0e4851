package world

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/lilwins/internal/grid"
)

// Placement policies.
const (
	PolicyZones = "zones"
	PolicyRoads = "roads"
)

// Frontier strategies for the zone policy.
const (
	FrontierSpiral    = "spiral"
	FrontierAdjacency = "adjacency"
)

// Exhaustion selects what Grow does after the template is consumed.
type Exhaustion string

const (
	// ExhaustRandom falls back to the zone policy.
	ExhaustRandom Exhaustion = "random"
	// ExhaustComplete reports the world as complete.
	ExhaustComplete Exhaustion = "complete"
)

// GridSpec selects coordinate system, layout and extent.
type GridSpec struct {
	Topology   string
	Projection string
	Scale      float64
	Radius     int
}

// FrontierSpec configures the zone policy's frontier.
type FrontierSpec struct {
	Strategy string
	// Closest bounds the random pick for the adjacency strategy.
	Closest int
}

// Anchor is the fixed content of the origin cell in settlement worlds.
type Anchor struct {
	Tile      string
	Structure string
}

// TemplateEntry is one pre-authored placement.
type TemplateEntry struct {
	Coord     grid.Coord
	Tile      string
	Structure string
	Rotation  float64
}

// Template is an ordered list of placements consumed before procedural growth.
type Template struct {
	Entries    []TemplateEntry
	Exhaustion Exhaustion
}

// RoadSpec configures the road-network policy and connective tile variants.
type RoadSpec struct {
	Variants map[Variant]string
	// Warmup is the cell count below which every growth lays road.
	Warmup int
	// Every lays road whenever the cell count is a multiple of it.
	Every int
	// RoadCandidates bounds the pick among the closest road spots.
	RoadCandidates int
	// LotCandidates bounds the pick among the closest lot spots.
	LotCandidates int
}

// Labels name bare placements in results.
type Labels struct {
	Bare     string
	Road     string
	Complete string
}

// ScriptSpec points at a Lua zone classifier.
type ScriptSpec struct {
	Dir              string
	InstructionLimit int
}

// Theme is the full configuration of one world kind. Each world is the same
// engine parameterized by a Theme.
type Theme struct {
	ID          string
	Name        string
	Grid        GridSpec
	Policy      string
	Frontier    FrontierSpec
	Tiles       []TileDef
	Structures  []StructureDef
	DefaultTile string
	Bands       []Band
	OuterZone   string
	Zones       map[string]ZoneContent
	Anchor      *Anchor
	Template    *Template
	Roads       *RoadSpec
	Script      *ScriptSpec
	Labels      Labels
}

// Validate checks the structural invariants of a theme. Content identifiers
// in tables and templates are not checked here: unknown ids degrade to bare
// tiles at runtime. See UnknownReferences.
//
// Postcondition: Returns nil if the theme is usable by NewEngine.
func (t *Theme) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("world ID must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("world %q: name must not be empty", t.ID)
	}
	topo, err := grid.TopologyByName(t.Grid.Topology)
	if err != nil {
		return fmt.Errorf("world %q: %w", t.ID, err)
	}
	if _, err := grid.ProjectionByName(t.Grid.Projection, t.Grid.Scale); err != nil {
		return fmt.Errorf("world %q: %w", t.ID, err)
	}
	if t.Grid.Radius < 0 {
		return fmt.Errorf("world %q: radius must be >= 0, got %d", t.ID, t.Grid.Radius)
	}
	catalog, err := NewCatalog(t.Tiles, t.Structures)
	if err != nil {
		return fmt.Errorf("world %q: %w", t.ID, err)
	}
	if _, ok := catalog.Tile(t.DefaultTile); !ok {
		return fmt.Errorf("world %q: default_tile %q not found in tiles", t.ID, t.DefaultTile)
	}

	prev := -1
	for _, b := range t.Bands {
		if b.Zone == "" {
			return fmt.Errorf("world %q: band zone must not be empty", t.ID)
		}
		if b.MaxDistance <= prev {
			return fmt.Errorf("world %q: band %q max_distance must increase, got %d after %d", t.ID, b.Zone, b.MaxDistance, prev)
		}
		prev = b.MaxDistance
		if _, ok := t.Zones[b.Zone]; !ok {
			return fmt.Errorf("world %q: band zone %q has no zone content", t.ID, b.Zone)
		}
	}
	if _, ok := t.Zones[t.OuterZone]; !ok {
		return fmt.Errorf("world %q: outer_zone %q has no zone content", t.ID, t.OuterZone)
	}
	for name, z := range t.Zones {
		if z.Tile == "" {
			return fmt.Errorf("world %q: zone %q: tile must not be empty", t.ID, name)
		}
		for _, e := range z.Table {
			if e.Weight <= 0 {
				return fmt.Errorf("world %q: zone %q: weight for %q must be > 0", t.ID, name, e.ID)
			}
		}
		if c := z.Cover; c != nil {
			if c.Chance < 0 || c.Chance > 1 {
				return fmt.Errorf("world %q: zone %q: ground_cover chance must be in [0,1], got %v", t.ID, name, c.Chance)
			}
			if len(c.Tiles) == 0 {
				return fmt.Errorf("world %q: zone %q: ground_cover needs at least one tile", t.ID, name)
			}
			for _, e := range c.Tiles {
				if e.ID == "" || e.Weight <= 0 {
					return fmt.Errorf("world %q: zone %q: ground_cover entries need an id and weight > 0", t.ID, name)
				}
			}
		}
	}

	switch t.Policy {
	case PolicyZones:
		switch t.Frontier.Strategy {
		case FrontierSpiral, FrontierAdjacency:
		default:
			return fmt.Errorf("world %q: frontier strategy must be one of [spiral, adjacency], got %q", t.ID, t.Frontier.Strategy)
		}
	case PolicyRoads:
		if t.Roads == nil {
			return fmt.Errorf("world %q: roads policy requires a roads section", t.ID)
		}
		if t.Roads.Every < 1 {
			return fmt.Errorf("world %q: roads.every must be >= 1, got %d", t.ID, t.Roads.Every)
		}
		if t.Roads.Warmup < 0 {
			return fmt.Errorf("world %q: roads.warmup must be >= 0, got %d", t.ID, t.Roads.Warmup)
		}
	default:
		return fmt.Errorf("world %q: policy must be one of [zones, roads], got %q", t.ID, t.Policy)
	}

	if t.Roads != nil {
		for _, v := range RequiredVariants(topo.Degree()) {
			id, ok := t.Roads.Variants[v]
			if !ok {
				return fmt.Errorf("world %q: roads.variants missing %q", t.ID, v)
			}
			if !catalog.IsConnective(id) {
				return fmt.Errorf("world %q: roads variant %q tile %q must be a connective tile", t.ID, v, id)
			}
		}
	}

	if tpl := t.Template; tpl != nil {
		switch tpl.Exhaustion {
		case ExhaustRandom, ExhaustComplete:
		default:
			return fmt.Errorf("world %q: template exhaustion must be one of [random, complete], got %q", t.ID, tpl.Exhaustion)
		}
		seen := make(map[grid.Coord]bool, len(tpl.Entries))
		for i, e := range tpl.Entries {
			if !topo.InBounds(e.Coord, t.Grid.Radius) {
				return fmt.Errorf("world %q: template entry %d at %v is outside radius %d", t.ID, i, e.Coord, t.Grid.Radius)
			}
			if seen[e.Coord] {
				return fmt.Errorf("world %q: template entry %d repeats coordinate %v", t.ID, i, e.Coord)
			}
			seen[e.Coord] = true
		}
	}

	if t.Script != nil && t.Script.Dir == "" {
		return fmt.Errorf("world %q: script dir must not be empty", t.ID)
	}
	return nil
}

// UnknownReferences lists content identifiers referenced by zones, the anchor
// or the template that are missing from the catalog, sorted and deduplicated.
//
// Precondition: t.Validate() returned nil.
func (t *Theme) UnknownReferences() []string {
	catalog, err := NewCatalog(t.Tiles, t.Structures)
	if err != nil {
		return nil
	}
	missing := make(map[string]bool)
	tile := func(id string) {
		if _, ok := catalog.Tile(id); id != "" && !ok {
			missing["tile:"+id] = true
		}
	}
	structure := func(id string) {
		if _, ok := catalog.Structure(id); id != "" && !ok {
			missing["structure:"+id] = true
		}
	}
	for _, z := range t.Zones {
		tile(z.Tile)
		for _, e := range z.Table {
			structure(e.ID)
		}
		if z.Cover != nil {
			for _, e := range z.Cover.Tiles {
				tile(e.ID)
			}
		}
	}
	if t.Anchor != nil {
		tile(t.Anchor.Tile)
		structure(t.Anchor.Structure)
	}
	if t.Template != nil {
		for _, e := range t.Template.Entries {
			tile(e.Tile)
			structure(e.Structure)
		}
	}
	out := make([]string, 0, len(missing))
	for k := range missing {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
