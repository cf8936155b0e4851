package world_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/lilwins/internal/grid"
	"github.com/cory-johannsen/lilwins/internal/world"
)

func TestLoadThemesFromDir_ShippedWorlds(t *testing.T) {
	themes, err := world.LoadThemesFromDir(contentDir)
	require.NoError(t, err)

	ids := make(map[string]*world.Theme)
	for _, th := range themes {
		ids[th.ID] = th
		assert.Empty(t, th.UnknownReferences(), "world %s references unknown content", th.ID)
	}
	for _, id := range []string{"kingdom", "city", "graveyard", "neighborhood", "dungeon"} {
		assert.Contains(t, ids, id)
	}

	assert.Equal(t, "Neighborhood Complete!", ids["neighborhood"].Labels.Complete)
	assert.Equal(t, world.ExhaustComplete, ids["neighborhood"].Template.Exhaustion)
	assert.Equal(t, world.ExhaustRandom, ids["graveyard"].Template.Exhaustion)
	assert.Equal(t, world.PolicyRoads, ids["city"].Policy)
	assert.Equal(t, "square", ids["graveyard"].Grid.Projection)
	require.NotNil(t, ids["dungeon"].Script)
	assert.Equal(t, "dungeon", ids["dungeon"].Script.Dir)
}

func TestLoadThemeFromBytes_Defaults(t *testing.T) {
	theme, err := world.LoadThemeFromBytes([]byte(`
world:
  id: meadow
  name: Meadow
  grid: { topology: hex, radius: 2 }
  default_tile: grass
  tiles:
    - { id: grass }
  outer_zone: all
  zones:
    all:
      tile: grass
      table:
        - { weight: 1 }
  template:
    entries:
      - { at: [1, -1], tile: grass }
`))
	require.NoError(t, err)
	assert.Equal(t, "hex", theme.Grid.Projection)
	assert.Equal(t, 1.0, theme.Grid.Scale)
	assert.Equal(t, world.PolicyZones, theme.Policy)
	assert.Equal(t, world.FrontierSpiral, theme.Frontier.Strategy)
	assert.Equal(t, world.Labels{Bare: "Land", Road: "Road", Complete: "Meadow Complete!"}, theme.Labels)
	assert.Equal(t, world.ExhaustRandom, theme.Template.Exhaustion)
	assert.Equal(t, grid.Coord{X: 1, Y: -1}, theme.Template.Entries[0].Coord)
	assert.Equal(t, "grass", theme.Tiles[0].ID)
}

func TestLoadThemeFromBytes_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown topology": `
world:
  id: bad
  name: Bad
  grid: { topology: triangle, radius: 1 }
  default_tile: grass
  tiles: [{ id: grass }]
  outer_zone: all
  zones: { all: { tile: grass } }
`,
		"missing outer zone": `
world:
  id: bad
  name: Bad
  grid: { topology: hex, radius: 1 }
  default_tile: grass
  tiles: [{ id: grass }]
  outer_zone: nowhere
  zones: { all: { tile: grass } }
`,
		"template outside radius": `
world:
  id: bad
  name: Bad
  grid: { topology: hex, radius: 1 }
  default_tile: grass
  tiles: [{ id: grass }]
  outer_zone: all
  zones: { all: { tile: grass } }
  template:
    entries: [{ at: [3, 0], tile: grass }]
`,
		"roads without variants": `
world:
  id: bad
  name: Bad
  grid: { topology: square, radius: 1 }
  policy: roads
  default_tile: grass
  tiles: [{ id: grass }]
  outer_zone: all
  zones: { all: { tile: grass } }
  roads: { every: 2 }
`,
		"zero weight": `
world:
  id: bad
  name: Bad
  grid: { topology: hex, radius: 1 }
  default_tile: grass
  tiles: [{ id: grass }]
  outer_zone: all
  zones: { all: { tile: grass, table: [{ weight: 0 }] } }
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := world.LoadThemeFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadThemesFromDir_DuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`
world:
  id: twin
  name: Twin
  grid: { topology: square, radius: 1 }
  default_tile: grass
  tiles: [{ id: grass }]
  outer_zone: all
  zones: { all: { tile: grass } }
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), doc, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), doc, 0o600))
	_, err := world.LoadThemesFromDir(dir)
	assert.ErrorContains(t, err, "duplicate world ID")
}

func TestLoadThemesFromDir_Empty(t *testing.T) {
	_, err := world.LoadThemesFromDir(t.TempDir())
	assert.Error(t, err)
}
