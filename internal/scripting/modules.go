package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L for the VM
// identified by key.
//
//   - engine.log.debug/info/warn/error(msg) write to the Manager's logger.
//   - engine.dice.intn(n) draws uniformly from [0, n).
//   - engine.dice.chance(p) reports whether a draw fell below p.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, key string) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	logger := m.logger.With(zap.String("script", key))
	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	} {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	diceTbl := L.NewTable()
	L.SetField(diceTbl, "intn", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "n must be > 0")
			return 0
		}
		L.Push(lua.LNumber(m.roller.Intn("lua:"+key, n)))
		return 1
	}))
	L.SetField(diceTbl, "chance", L.NewFunction(func(L *lua.LState) int {
		p := float64(L.CheckNumber(1))
		L.Push(lua.LBool(m.roller.Chance("lua:"+key, p)))
		return 1
	}))
	L.SetField(engine, "dice", diceTbl)
}
