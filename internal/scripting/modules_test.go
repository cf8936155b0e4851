package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/lilwins/internal/scripting"
)

func runScript(t testing.TB, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	require.NoError(t, mgr.LoadWorld("modtest", dir, 0))
	ret, err := mgr.CallHook("modtest", hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)
	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	for msg, level := range map[string]zapcore.Level{
		"d": zap.DebugLevel,
		"i": zap.InfoLevel,
		"w": zap.WarnLevel,
		"e": zap.ErrorLevel,
	} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, level, entries[0].Level)
		assert.Equal(t, "modtest", entries[0].ContextMap()["script"])
	}
}

func TestEngineDice_IntnInRange(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function draw()
			for i = 1, 100 do
				local v = engine.dice.intn(6)
				if v < 0 or v >= 6 then return false end
			end
			return true
		end
	`, "draw")
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineDice_IntnRejectsNonPositive(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret := runScript(t, mgr, `function draw() return engine.dice.intn(0) end`, "draw")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("Lua runtime error").Len())
}

func TestProperty_DiceChanceExtremes(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "chance.lua", `function roll(p) return engine.dice.chance(p) end`)
	require.NoError(t, mgr.LoadWorld("chance", dir, 0))
	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.SampledFrom([]float64{0, 1}).Draw(rt, "p")
		ret, err := mgr.CallHook("chance", "roll", lua.LNumber(p))
		if err != nil {
			rt.Fatal(err)
		}
		if want := lua.LBool(p == 1); ret != want {
			rt.Fatalf("chance(%v) = %v, want %v", p, ret, want)
		}
	})
}
