package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dungeonScripts = "../../content/scripts/dungeon"

func TestZoneHook_DungeonScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadWorld("dungeon", dungeonScripts, 10000))
	require.True(t, mgr.Loaded("dungeon"))
	hook := mgr.ZoneHook("dungeon")
	require.NotNil(t, hook)

	cases := []struct {
		x, y, dist int
		zone       string
		ok         bool
	}{
		{0, 0, 0, "entrance", true},
		{3, 0, 3, "corridor", true},
		{0, -4, 4, "corridor", true},
		{2, -2, 2, "corridor", true},
		{1, 1, 2, "crypt", true},
		{2, 3, 5, "cavern", true},
		{1, 2, 3, "", false},
		{-3, 1, 3, "", false},
	}
	for _, tc := range cases {
		zone, ok := hook(tc.x, tc.y, tc.dist)
		assert.Equal(t, tc.ok, ok, "(%d,%d)", tc.x, tc.y)
		assert.Equal(t, tc.zone, zone, "(%d,%d)", tc.x, tc.y)
	}
}

func TestZoneHook_NilWithoutVM(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Nil(t, mgr.ZoneHook("kingdom"))
}

func TestZoneHook_DeclinesNonString(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "zones.lua", `
		function zone_for(x, y, d)
			if d == 1 then return 7 end
			if d == 2 then return "" end
			error("boom")
		end
	`)
	require.NoError(t, mgr.LoadWorld("odd", dir, 0))
	hook := mgr.ZoneHook("odd")
	require.NotNil(t, hook)
	for d := 1; d <= 3; d++ {
		_, ok := hook(0, 0, d)
		assert.False(t, ok, "distance %d", d)
	}
}
