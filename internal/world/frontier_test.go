package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/grid"
	"github.com/cory-johannsen/lilwins/internal/world"
)

func TestSpiralFrontier_EmptyStoreStartsAtOrigin(t *testing.T) {
	f := world.NewSpiralFrontier(grid.Hex{}, 2)
	c, ok := f.Next(world.NewStore(), nil)
	require.True(t, ok)
	assert.Equal(t, grid.Origin, c)
}

func TestSpiralFrontier_SkipsOccupied(t *testing.T) {
	s := world.NewStore()
	for _, c := range []grid.Coord{grid.Origin, {X: 0, Y: -1}, {X: 1, Y: 0}} {
		require.NoError(t, s.Put(world.Cell{Coord: c, Tile: "grass"}))
	}
	f := world.NewSpiralFrontier(grid.Hex{}, 1)
	c, ok := f.Next(s, nil)
	require.True(t, ok)
	assert.Equal(t, grid.Coord{X: 1, Y: -1}, c)
}

func TestSpiralFrontier_Full(t *testing.T) {
	s := world.NewStore()
	for _, c := range grid.Spiral(grid.Square{}, 1) {
		require.NoError(t, s.Put(world.Cell{Coord: c, Tile: "lot"}))
	}
	_, ok := world.NewSpiralFrontier(grid.Square{}, 1).Next(s, nil)
	assert.False(t, ok)
}

func TestAdjacencyFrontier_CandidatesSortedAndDeduped(t *testing.T) {
	s := world.NewStore()
	require.NoError(t, s.Put(world.Cell{Coord: grid.Coord{X: 2, Y: 0}, Tile: "a"}))
	require.NoError(t, s.Put(world.Cell{Coord: grid.Coord{X: 1, Y: 0}, Tile: "a"}))

	f := &world.AdjacencyFrontier{Topology: grid.Square{}, Radius: 2}
	got := f.Candidates(s)
	assert.Equal(t, []grid.Coord{
		{X: 0, Y: 0},
		{X: 1, Y: -1}, {X: 1, Y: 1},
		{X: 2, Y: -1}, {X: 2, Y: 1},
	}, got, "out-of-bounds (3,0) is excluded and shared neighbours appear once")
}

func TestAdjacencyFrontier_SeedFilter(t *testing.T) {
	s := world.NewStore()
	require.NoError(t, s.Put(world.Cell{Coord: grid.Origin, Tile: "road"}))
	require.NoError(t, s.Put(world.Cell{Coord: grid.Coord{X: 3, Y: 3}, Tile: "lot"}))

	f := &world.AdjacencyFrontier{
		Topology: grid.Square{},
		Radius:   4,
		Seed:     func(c world.Cell) bool { return c.Tile == "road" },
	}
	assert.ElementsMatch(t, grid.Square{}.Neighbors(grid.Origin), f.Candidates(s))
}

func TestAdjacencyFrontier_NextPicksAmongClosest(t *testing.T) {
	s := world.NewStore()
	require.NoError(t, s.Put(world.Cell{Coord: grid.Origin, Tile: "a"}))
	f := &world.AdjacencyFrontier{Topology: grid.Hex{}, Radius: 3, Closest: 2}
	r := dice.NewLoggedRoller(dice.NewSeededSource(5), zap.NewNop())
	allowed := f.Candidates(s)[:2]
	for i := 0; i < 50; i++ {
		c, ok := f.Next(s, r)
		require.True(t, ok)
		assert.Contains(t, allowed, c)
	}
}
