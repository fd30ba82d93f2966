package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/dice"
)

// Engine hosts the reaction scripts: Lua files that define one global
// function per reaction name. A reaction receives a snapshot of the acting
// combatant and returns true when it handled the situation (suppressing the
// default flee).
//
// Engine is safe for concurrent use; the single LState is serialized through
// a mutex. Each invocation gets a fresh instruction budget.
type Engine struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// Injected after construction. nil = no-op in engine.* functions.
	Broadcast func(roomID, msg string)
	Send      func(uid, msg string)
}

// NewEngine creates an Engine with an empty sandbox.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0 (0 uses
// DefaultInstructionLimit).
func NewEngine(roller *dice.Roller, logger *zap.Logger, instLimit int) *Engine {
	e := &Engine{
		instLimit: instLimit,
		roller:    roller,
		logger:    logger,
	}
	e.state = NewSandboxedState(instLimit)
	e.registerModules(e.state)
	return e
}

// Close releases the underlying Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
}

// LoadDir executes every *.lua file in dir in lexicographic order, defining
// the reaction functions they declare.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns an error on the first Lua load failure; previously
// loaded definitions remain in place.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(luaFiles)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return fmt.Errorf("scripting: engine is closed")
	}
	e.armBudget()
	for _, path := range luaFiles {
		if err := e.state.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	return nil
}

// LoadString executes a single chunk of Lua source, primarily for tests.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return fmt.Errorf("scripting: engine is closed")
	}
	e.armBudget()
	if err := e.state.DoString(src); err != nil {
		return fmt.Errorf("scripting: loading chunk: %w", err)
	}
	return nil
}

// RunReaction calls the Lua global function name with a snapshot of actor.
// An undefined reaction is (false, nil): not handled, not an error. A Lua
// runtime error or an exhausted instruction budget is returned to the caller,
// which treats it as unhandled.
//
// Postcondition: Returns (true, nil) only when the script ran and returned a
// truthy value.
func (e *Engine) RunReaction(name string, actor combatant.Combatant) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return false, fmt.Errorf("scripting: engine is closed")
	}
	L := e.state

	fn := L.GetGlobal(name)
	if fn == lua.LNil {
		return false, nil
	}

	// Fresh opcode budget per invocation.
	e.armBudget()

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.actorTable(L, actor)); err != nil {
		return false, fmt.Errorf("scripting: reaction %q: %w", name, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// armBudget installs a fresh instruction-count context on the state, so one
// exhausted or finished execution never poisons the next.
//
// Precondition: e.mu must be held; e.state must be non-nil.
func (e *Engine) armBudget() {
	limit := e.instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, _ := newCountingContext(limit) //nolint:govet // cancel fires automatically at the limit
	e.state.SetContext(ctx)
}

// actorTable builds the Lua snapshot of a combatant passed to reactions.
func (e *Engine) actorTable(L *lua.LState, actor combatant.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(actor.ID()))
	L.SetField(t, "name", lua.LString(actor.Name()))
	L.SetField(t, "hp", lua.LNumber(actor.Health()))
	L.SetField(t, "max_hp", lua.LNumber(actor.MaxHealth()))
	L.SetField(t, "health_percent", lua.LNumber(combatant.HealthPercent(actor)))
	L.SetField(t, "room", lua.LString(actor.RoomID()))
	L.SetField(t, "is_player", lua.LBool(actor.IsPlayer()))
	return t
}

// registerModules defines the engine.* table: dice rolls and message
// delivery into the world.
func (e *Engine) registerModules(L *lua.LState) {
	engine := L.NewTable()

	L.SetField(engine, "roll", L.NewFunction(func(ls *lua.LState) int {
		expr := ls.CheckString(1)
		result, err := e.roller.RollExpr(expr)
		if err != nil {
			e.logger.Warn("scripting: bad dice expression", zap.String("expr", expr), zap.Error(err))
			ls.Push(lua.LNumber(0))
			return 1
		}
		ls.Push(lua.LNumber(result.Total()))
		return 1
	}))

	L.SetField(engine, "broadcast", L.NewFunction(func(ls *lua.LState) int {
		roomID := ls.CheckString(1)
		msg := ls.CheckString(2)
		if e.Broadcast != nil {
			e.Broadcast(roomID, msg)
		}
		return 0
	}))

	L.SetField(engine, "send", L.NewFunction(func(ls *lua.LState) int {
		uid := ls.CheckString(1)
		msg := ls.CheckString(2)
		if e.Send != nil {
			e.Send(uid, msg)
		}
		return 0
	}))

	L.SetGlobal("engine", engine)
}
