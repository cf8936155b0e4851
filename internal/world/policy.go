package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/grid"
)

// policy proposes the next cell to place. A false return means the world has
// no room left. Proposals are always for unoccupied coordinates.
type policy interface {
	propose(e *Engine) (Cell, bool)
}

// zonePolicy places a frontier coordinate with content drawn from its zone.
type zonePolicy struct {
	frontier Frontier
}

func (p *zonePolicy) propose(e *Engine) (Cell, bool) {
	c, ok := p.frontier.Next(e.store, e.roller)
	if !ok {
		return Cell{}, false
	}
	return e.fill(c), true
}

// roadPolicy grows a road network outward from the origin and fills the lots
// alongside it. Road turns happen while the world is small and then on a
// fixed cadence; other turns build on a road-adjacent lot.
type roadPolicy struct {
	spec     RoadSpec
	frontier *AdjacencyFrontier
	// fallback seeds a new network when no road-adjacent spot exists.
	fallback *SpiralFrontier
}

func newRoadPolicy(e *Engine, spec RoadSpec) *roadPolicy {
	return &roadPolicy{
		spec: spec,
		frontier: &AdjacencyFrontier{
			Topology: e.topology,
			Radius:   e.theme.Grid.Radius,
			Seed:     func(c Cell) bool { return e.catalog.IsConnective(c.Tile) },
		},
		fallback: NewSpiralFrontier(e.topology, e.theme.Grid.Radius),
	}
}

func (p *roadPolicy) propose(e *Engine) (Cell, bool) {
	n := e.store.Len()
	if n == 0 {
		return e.road(grid.Origin), true
	}
	spots := p.frontier.Candidates(e.store)
	if len(spots) == 0 {
		// No connective cell borders free space, e.g. a restored world holding
		// only lots. Start a road at the innermost free coordinate instead.
		c, ok := p.fallback.Next(e.store, e.roller)
		if !ok {
			return Cell{}, false
		}
		return e.road(c), true
	}

	if n < p.spec.Warmup || n%p.spec.Every == 0 {
		c, _ := pickClosest(spots, p.spec.RoadCandidates, e.roller, "road_spot")
		return e.road(c), true
	}

	lots := spots[:0:0]
	for _, c := range spots {
		if _, content := e.zoneContent(c); len(content.Table) > 0 {
			lots = append(lots, c)
		}
	}
	if c, ok := pickClosest(lots, p.spec.LotCandidates, e.roller, "lot_spot"); ok {
		return e.fill(c), true
	}

	c := spots[e.roller.Intn("road_spot_any", len(spots))]
	return e.road(c), true
}

// road returns an unshaped connective cell at c. The resolver fixes its tile
// when it is committed; the random orientation survives only if it is isolated.
func (e *Engine) road(c grid.Coord) Cell {
	return Cell{
		Coord:       c,
		Tile:        e.theme.Roads.Variants[VariantIsolated],
		Orientation: e.randomOrientation("road_orientation"),
	}
}

// zoneContent classifies c and returns its zone with the content rules,
// falling back to a bare default tile when the zone is unknown.
func (e *Engine) zoneContent(c grid.Coord) (string, ZoneContent) {
	zone := e.zones.Zone(c, e.topology.Distance(c))
	content, ok := e.theme.Zones[zone]
	if !ok {
		e.logger.Warn("unknown zone",
			zap.String("zone", zone),
			zap.Stringer("coord", c),
		)
		return zone, ZoneContent{Tile: e.theme.DefaultTile}
	}
	return zone, content
}

// fill draws the tile and structure for a coordinate from its zone.
func (e *Engine) fill(c grid.Coord) Cell {
	dist := e.topology.Distance(c)
	if dist == 0 && e.theme.Anchor != nil {
		return Cell{Coord: c, Tile: e.theme.Anchor.Tile, Structure: e.theme.Anchor.Structure}
	}

	zone, content := e.zoneContent(c)
	cell := Cell{
		Coord:     c,
		Tile:      content.Tile,
		Structure: content.Table.Draw(e.roller, "zone:"+zone),
	}
	if cell.HasStructure() {
		cell.Orientation = e.randomOrientation("structure_orientation")
	}

	if cover := content.Cover; cover != nil && (!cover.BareOnly || !cell.HasStructure()) {
		x, z := e.projection.ToWorld(c)
		if e.roller.Chance("ground_cover:"+zone, coverChance(cover, e.noise[zone], x, z)) {
			cell.Tile = cover.Tiles.Draw(e.roller, fmt.Sprintf("ground_cover_tile:%s", zone))
		}
	}
	return cell
}

// randomOrientation returns a rotation aligned to one of the cell's sides.
func (e *Engine) randomOrientation(label string) float64 {
	deg := e.topology.Degree()
	return float64(e.roller.Intn(label, deg)) * 360 / float64(deg)
}
