package lua

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// blockedGlobals load code from disk or strings at runtime.
var blockedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"module",
}

// requirable are the modules require may return.
var requirable = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// installSandbox removes loaders, restricts require and routes print
// to the logger.
func installSandbox(L *lua.LState, logger *zap.Logger) {
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !requirable[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(L.GetGlobal(name))
		return 1
	}))

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info("lua print", zap.String("message", strings.Join(parts, "\t")))
		return 0
	}))
}
