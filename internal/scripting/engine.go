package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for gameplay formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// core helpers first, formulas may use them
	for _, sub := range []string{"core", "combat"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// ContactContext holds pre-packed data for one damaging contact.
type ContactContext struct {
	SourceType  string
	TargetType  string
	BaseDamage  int
	Pierce      bool
	OverlapX    float64
	OverlapY    float64
	TargetHP    int
	TargetMaxHP int
}

// ContactResult is returned by calc_contact_damage.
type ContactResult struct {
	Damage  int
	Consume bool // source is spent (projectile hit)
}

// FallbackContact is the formula used when the script is missing or fails:
// base damage, and non-piercing sources are spent on hit.
func FallbackContact(ctx ContactContext) ContactResult {
	return ContactResult{Damage: max(ctx.BaseDamage, 0), Consume: !ctx.Pierce}
}

// CalcContactDamage calls the Lua calc_contact_damage function.
func (e *Engine) CalcContactDamage(ctx ContactContext) ContactResult {
	fn := e.vm.GetGlobal("calc_contact_damage")
	if fn == lua.LNil {
		e.log.Error("lua function calc_contact_damage not found")
		return FallbackContact(ctx)
	}

	t := e.vm.NewTable()
	src := e.vm.NewTable()
	src.RawSetString("type", lua.LString(ctx.SourceType))
	src.RawSetString("damage", lua.LNumber(ctx.BaseDamage))
	src.RawSetString("pierce", lua.LBool(ctx.Pierce))
	t.RawSetString("source", src)

	tgt := e.vm.NewTable()
	tgt.RawSetString("type", lua.LString(ctx.TargetType))
	tgt.RawSetString("hp", lua.LNumber(ctx.TargetHP))
	tgt.RawSetString("max_hp", lua.LNumber(ctx.TargetMaxHP))
	t.RawSetString("target", tgt)

	t.RawSetString("overlap_x", lua.LNumber(ctx.OverlapX))
	t.RawSetString("overlap_y", lua.LNumber(ctx.OverlapY))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_contact_damage error", zap.Error(err))
		return FallbackContact(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_contact_damage returned non-table")
		return FallbackContact(ctx)
	}
	return ContactResult{
		Damage:  max(lInt(rt, "damage"), 0),
		Consume: rt.RawGetString("consume") == lua.LTrue,
	}
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func (e *Engine) Close() {
	e.vm.Close()
}
