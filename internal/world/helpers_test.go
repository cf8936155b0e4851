package world_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/grid"
	"github.com/cory-johannsen/lilwins/internal/world"
)

const contentDir = "../../content/worlds"

// tb is the subset of testing.TB that *rapid.T also satisfies.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// hexTheme is a small spiral world with banded zones and a church anchor.
func hexTheme(radius int) *world.Theme {
	return &world.Theme{
		ID:       "hamlet",
		Name:     "Hamlet",
		Grid:     world.GridSpec{Topology: "hex", Projection: "hex", Scale: 1, Radius: radius},
		Policy:   world.PolicyZones,
		Frontier: world.FrontierSpec{Strategy: world.FrontierSpiral},
		Tiles: []world.TileDef{
			{ID: "grass", Name: "Grass"},
			{ID: "water", Name: "Water"},
		},
		Structures: []world.StructureDef{
			{ID: "church", Name: "Church", Category: world.CategoryBuilding},
			{ID: "house", Name: "House", Category: world.CategoryBuilding},
			{ID: "tree", Name: "Tree", Category: "nature"},
		},
		DefaultTile: "grass",
		Bands:       []world.Band{{Zone: "center", MaxDistance: 0}, {Zone: "inner", MaxDistance: 1}},
		OuterZone:   "outer",
		Zones: map[string]world.ZoneContent{
			"center": {Tile: "grass", Table: world.Table{{ID: "church", Weight: 1}}},
			"inner":  {Tile: "grass", Table: world.Table{{ID: "house", Weight: 1}}},
			"outer":  {Tile: "grass", Table: world.Table{{ID: "tree", Weight: 1}, {Weight: 1}}},
		},
		Anchor: &world.Anchor{Tile: "grass", Structure: "church"},
		Labels: world.Labels{Bare: "Land", Road: "Road", Complete: "Hamlet Complete!"},
	}
}

// squareRoadTheme is a square world whose template lays the given road cells.
func squareRoadTheme(roads ...grid.Coord) *world.Theme {
	t := &world.Theme{
		ID:       "town",
		Name:     "Town",
		Grid:     world.GridSpec{Topology: "square", Projection: "square", Scale: 1, Radius: 3},
		Policy:   world.PolicyZones,
		Frontier: world.FrontierSpec{Strategy: world.FrontierSpiral},
		Tiles: []world.TileDef{
			{ID: "lot"},
			{ID: "road_isolated", Connective: true},
			{ID: "road_dead_end", Connective: true},
			{ID: "road_straight", Connective: true},
			{ID: "road_corner", Connective: true},
			{ID: "road_tee", Connective: true},
			{ID: "road_cross", Connective: true},
		},
		Structures:  []world.StructureDef{{ID: "shop", Name: "Shop", Category: world.CategoryBuilding}},
		DefaultTile: "lot",
		OuterZone:   "all",
		Zones: map[string]world.ZoneContent{
			"all": {Tile: "lot", Table: world.Table{{ID: "shop", Weight: 1}}},
		},
		Roads: &world.RoadSpec{Variants: map[world.Variant]string{
			world.VariantIsolated: "road_isolated",
			world.VariantDeadEnd:  "road_dead_end",
			world.VariantStraight: "road_straight",
			world.VariantCorner:   "road_corner",
			world.VariantTee:      "road_tee",
			world.VariantCross:    "road_cross",
		}},
		Labels: world.Labels{Bare: "Lot", Road: "Road", Complete: "Town Complete!"},
	}
	if len(roads) > 0 {
		tpl := &world.Template{Exhaustion: world.ExhaustComplete}
		for _, c := range roads {
			tpl.Entries = append(tpl.Entries, world.TemplateEntry{Coord: c, Tile: "road_isolated"})
		}
		t.Template = tpl
	}
	return t
}

func newEngine(t tb, theme *world.Theme, seed uint64, opts ...world.Option) *world.Engine {
	t.Helper()
	opts = append([]world.Option{world.WithStrict(true)}, opts...)
	e, err := world.NewEngine(theme, dice.NewSeededSource(seed), zap.NewNop(), opts...)
	require.NoError(t, err)
	return e
}

func newLoggedEngine(t *testing.T, theme *world.Theme, seed uint64) *world.Engine {
	t.Helper()
	e, err := world.NewEngine(theme, dice.NewSeededSource(seed), zaptest.NewLogger(t), world.WithStrict(true))
	require.NoError(t, err)
	return e
}

func loadContentTheme(t tb, id string) *world.Theme {
	t.Helper()
	theme, err := world.LoadThemeFromFile(contentDir + "/" + id + ".yaml")
	require.NoError(t, err)
	return theme
}

func cellMap(cells []world.Cell) map[grid.Coord]world.Cell {
	m := make(map[grid.Coord]world.Cell, len(cells))
	for _, c := range cells {
		m[c.Coord] = c
	}
	return m
}
