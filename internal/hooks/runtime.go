// Package hooks runs the user's optional Lua script over generated SQL.
package hooks

import (
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/mpataki/tada/internal/models"
	"go.uber.org/zap"
)

// Runtime holds a sandboxed Lua state with the user's hook script loaded.
type Runtime struct {
	state  *lua.LState
	logger *zap.Logger
}

// Load reads the script at path. A missing file returns (nil, nil): hooks are
// simply disabled.
func Load(path string, logger *zap.Logger) (*Runtime, error) {
	script, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hook script: %w", err)
	}
	return LoadString(string(script), logger)
}

// LoadString compiles script into a fresh sandbox. The script must define
// rewrite(sql, kind, label).
func LoadString(script string, logger *zap.Logger) (*Runtime, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	r := &Runtime{state: L, logger: logger}
	r.openSafeLibs()
	L.SetGlobal("log", L.NewFunction(r.luaLog))

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load hook script: %w", err)
	}

	if L.GetGlobal("rewrite").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("hook script must define a 'rewrite' function")
	}

	return r, nil
}

func (r *Runtime) openSafeLibs() {
	L := r.state

	lua.OpenBase(L)
	for _, name := range []string{"loadfile", "dofile", "load", "loadstring", "print", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}

// Rewrite calls rewrite(sql, kind, label). Returning nil keeps sql as is;
// any other non-string result is an error.
func (r *Runtime) Rewrite(sql string, task models.Task) (string, error) {
	L := r.state

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("rewrite"),
		NRet:    1,
		Protect: true,
	}, lua.LString(sql), lua.LString(string(task.Kind)), lua.LString(task.Label))
	if err != nil {
		return "", fmt.Errorf("rewrite failed for %s: %w", task.ID, err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return sql, nil
	case lua.LString:
		return string(v), nil
	default:
		return "", fmt.Errorf("rewrite returned %s, want string", ret.Type())
	}
}

func (r *Runtime) luaLog(L *lua.LState) int {
	message := L.CheckString(1)
	r.logger.Info("hook", zap.String("message", message))
	return 0
}

func (r *Runtime) Close() {
	if r != nil && r.state != nil {
		r.state.Close()
	}
}
