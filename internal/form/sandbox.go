package form

import (
	"context"
	"errors"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/flarebyte/shiftlog/internal/record"
)

const (
	sandboxTimeoutViolation     = "sandbox timeout"
	sandboxInstructionViolation = "sandbox instruction limit"

	defaultTimeoutMs        = 200
	defaultInstructionLimit = 100000
)

// Sandbox bounds predicate execution.
type Sandbox struct {
	TimeoutMs        int
	InstructionLimit int
}

func (s Sandbox) withDefaults() Sandbox {
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = defaultTimeoutMs
	}
	if s.InstructionLimit <= 0 {
		s.InstructionLimit = defaultInstructionLimit
	}
	return s
}

// newSandboxState opens only base, string, table and math.
func newSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// instructionLimitWouldTrip is a static cost estimate; gopher-lua has no
// instruction counter.
func instructionLimitWouldTrip(code string, limit int) bool {
	cost := len(code) * 10
	lower := strings.ToLower(code)
	if strings.Contains(lower, "while ") || strings.Contains(lower, "repeat") || strings.Contains(lower, "goto ") {
		cost += 1000000
	}
	return cost > limit
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline") || strings.Contains(msg, "context canceled")
}

// run evaluates code with globals set and returns its first result.
func (s Sandbox) run(ctx context.Context, globals map[string]any, code string) (lua.LValue, string, error) {
	cfg := s.withDefaults()
	if instructionLimitWouldTrip(code, cfg.InstructionLimit) {
		return lua.LNil, sandboxInstructionViolation, nil
	}
	L := newSandboxState()
	defer L.Close()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	defer cancel()
	L.SetContext(ctx)

	for k, v := range globals {
		L.SetGlobal(k, toLValue(L, v))
	}
	fields, _ := L.GetGlobal("fields").(*lua.LTable)
	L.SetGlobal("filled", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v := lua.LValue(lua.LNil)
		if fields != nil {
			v = fields.RawGetString(name)
		}
		ok := v != lua.LNil && strings.TrimSpace(lua.LVAsString(v)) != ""
		L.Push(lua.LBool(ok))
		return 1
	}))

	fn, err := L.LoadString(code)
	if err != nil {
		return lua.LNil, "", err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(err) {
			return lua.LNil, sandboxTimeoutViolation, nil
		}
		return lua.LNil, "", err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, "", nil
}

func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(float64(x))
	case int64:
		return lua.LNumber(float64(x))
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LString(record.FormatValue(x))
	}
}
