package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/dice"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no world VM is found.
const globalKey = "__global__"

// ZoneHookName is the Lua global consulted by ZoneHook.
const ZoneHookName = "zone_for"

// vm is one sandboxed LState. An LState is single-threaded, so mu serializes
// every execution on it.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.L.Close()
}

// Manager owns one sandboxed LState per world and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same world VM are
// serialized; different worlds run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger.Named("scripting"),
	}
}

// LoadWorld creates a sandboxed VM for worldID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order. A
// previously loaded VM for worldID is replaced.
//
// Precondition: worldID must be non-empty; scriptDir must be a readable directory.
// Postcondition: World VM is registered; returns error on Lua load failure.
func (m *Manager) LoadWorld(worldID, scriptDir string, instLimit int) error {
	if worldID == "" {
		return fmt.Errorf("scripting: world id must not be empty")
	}
	return m.loadInto(worldID, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used as a CallHook fallback from any world.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalKey, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)
	for _, path := range luaFiles {
		err := withBudget(L, instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	if old != nil {
		old.close()
	}

	m.logger.Info("scripts loaded",
		zap.String("key", key),
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Loaded reports whether worldID has its own VM.
func (m *Manager) Loaded(worldID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[worldID]
	return ok
}

// CallHook calls the named Lua global function in worldID's VM. If the world
// has no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(worldID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[worldID]
	if !ok {
		v = m.vms[globalKey]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("no VM for world",
			zap.String("world", worldID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := withBudget(v.L, v.limit, func() error {
		return v.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		m.logger.Warn("Lua runtime error",
			zap.String("world", worldID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// ZoneHook adapts the world's zone_for(x, y, distance) Lua function into a
// classifier hook. The hook declines (ok == false) when the script returns
// anything other than a non-empty string, which lets callers fall back to
// distance bands.
//
// Postcondition: Returns nil when worldID has no VM of its own.
func (m *Manager) ZoneHook(worldID string) func(x, y, distance int) (string, bool) {
	if !m.Loaded(worldID) {
		return nil
	}
	return func(x, y, distance int) (string, bool) {
		ret, _ := m.CallHook(worldID, ZoneHookName, lua.LNumber(x), lua.LNumber(y), lua.LNumber(distance))
		s, ok := ret.(lua.LString)
		if !ok || s == "" {
			return "", false
		}
		return string(s), true
	}
}

// Close releases every VM. Subsequent CallHook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}
