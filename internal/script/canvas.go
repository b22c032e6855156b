package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/heliocanvas/internal/scene"
)

func (e *Engine) installCanvas() {
	mod := e.L.SetFuncs(e.L.NewTable(), map[string]lua.LGFunction{
		"create":    e.luaCreate,
		"delete":    e.luaDelete,
		"duplicate": e.luaDuplicate,
		"set":       e.luaSet,
		"get":       e.luaGet,
		"move":      e.luaMove,
		"group":     e.luaGroup,
		"undo":      e.luaUndo,
		"redo":      e.luaRedo,
		"can_undo":  e.luaCanUndo,
		"can_redo":  e.luaCanRedo,
		"objects":   e.luaObjects,
		"history":   e.luaHistory,
	})
	e.L.SetGlobal("canvas", mod)
}

// canvas.create(kind [, props]) -> id
func (e *Engine) luaCreate(L *lua.LState) int {
	kind := scene.Kind(L.CheckString(1))
	props := make(map[scene.Property]any)
	if t := L.OptTable(2, nil); t != nil {
		t.ForEach(func(k, v lua.LValue) {
			props[scene.Property(k.String())] = toGo(v)
		})
	}
	obj, err := e.editor.Create(L.Context(), kind, props)
	if err != nil {
		L.RaiseError("canvas.create: %v", err)
	}
	L.Push(lua.LString(obj.ID().String()))
	return 1
}

// canvas.delete(ref)
func (e *Engine) luaDelete(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	if err := e.editor.Delete(L.Context(), obj.ID()); err != nil {
		L.RaiseError("canvas.delete: %v", err)
	}
	return 0
}

// canvas.duplicate(ref) -> id
func (e *Engine) luaDuplicate(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	dup, err := e.editor.Duplicate(L.Context(), obj.ID())
	if err != nil {
		L.RaiseError("canvas.duplicate: %v", err)
	}
	L.Push(lua.LString(dup.ID().String()))
	return 1
}

// canvas.set(ref, property, value)
func (e *Engine) luaSet(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	prop := scene.Property(L.CheckString(2))
	value := toGo(L.CheckAny(3))
	if err := e.editor.Update(L.Context(), obj.ID(), prop, value); err != nil {
		L.RaiseError("canvas.set: %v", err)
	}
	return 0
}

// canvas.get(ref, property) -> value
func (e *Engine) luaGet(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	prop := scene.Property(L.CheckString(2))
	v, ok := obj.Get(prop)
	if !ok {
		L.RaiseError("canvas.get: %s has no %q", obj.Kind(), prop)
	}
	L.Push(toLua(L, v))
	return 1
}

// canvas.move(ref, position)
func (e *Engine) luaMove(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	to, err := toVector(toGo(L.CheckAny(2)))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	if err := e.editor.Move(L.Context(), obj.ID(), to); err != nil {
		L.RaiseError("canvas.move: %v", err)
	}
	return 0
}

// canvas.group(name, fn) runs fn as one undo step.
func (e *Engine) luaGroup(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	err := e.editor.Group(L.Context(), name, func(_ context.Context) error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
	if err != nil {
		L.RaiseError("canvas.group %q: %v", name, err)
	}
	return 0
}

func (e *Engine) luaUndo(L *lua.LState) int {
	if err := e.editor.Undo(L.Context()); err != nil {
		L.RaiseError("canvas.undo: %v", err)
	}
	return 0
}

func (e *Engine) luaRedo(L *lua.LState) int {
	if err := e.editor.Redo(L.Context()); err != nil {
		L.RaiseError("canvas.redo: %v", err)
	}
	return 0
}

func (e *Engine) luaCanUndo(L *lua.LState) int {
	L.Push(lua.LBool(e.editor.History().CanUndo()))
	return 1
}

func (e *Engine) luaCanRedo(L *lua.LState) int {
	L.Push(lua.LBool(e.editor.History().CanRedo()))
	return 1
}

// canvas.objects() -> {{id=, kind=, name=}, ...}
func (e *Engine) luaObjects(L *lua.LState) int {
	list := L.NewTable()
	for _, obj := range e.editor.Scene().Objects() {
		t := L.NewTable()
		t.RawSetString("id", lua.LString(obj.ID().String()))
		t.RawSetString("kind", lua.LString(obj.Kind()))
		t.RawSetString("name", lua.LString(obj.Name()))
		list.Append(t)
	}
	L.Push(list)
	return 1
}

// canvas.history() -> {description, ...}, oldest first
func (e *Engine) luaHistory(L *lua.LState) int {
	list := L.NewTable()
	for _, info := range e.editor.History().UndoInfo() {
		list.Append(lua.LString(info.Description))
	}
	L.Push(list)
	return 1
}

func (e *Engine) checkObject(L *lua.LState, n int) scene.Object {
	obj, err := e.editor.Lookup(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return obj
}

// toGo converts a Lua value for scene.Object.Set. Numbers become float64
// and tables become []any or map[string]any.
func toGo(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGo(v.RawGetInt(i)))
			}
			return arr
		}
		m := make(map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			m[k.String()] = toGo(val)
		})
		return m
	default:
		return nil
	}
}

// toVector accepts {x=, y=, z=} or {x, y, z}.
func toVector(v any) (scene.Vector3, error) {
	var xyz [3]float64
	switch t := v.(type) {
	case []any:
		if len(t) != 3 {
			return scene.Vector3{}, fmt.Errorf("position needs 3 components, got %d", len(t))
		}
		for i, c := range t {
			f, ok := c.(float64)
			if !ok {
				return scene.Vector3{}, fmt.Errorf("position component %d is %T", i+1, c)
			}
			xyz[i] = f
		}
	case map[string]any:
		for i, k := range []string{"x", "y", "z"} {
			f, ok := t[k].(float64)
			if !ok {
				return scene.Vector3{}, fmt.Errorf("position.%s is %T", k, t[k])
			}
			xyz[i] = f
		}
	default:
		return scene.Vector3{}, fmt.Errorf("position must be a table, got %T", v)
	}
	return scene.Vec(xyz[0], xyz[1], xyz[2]), nil
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case scene.Vector3:
		t := L.NewTable()
		t.RawSetString("x", lua.LNumber(x.X))
		t.RawSetString("y", lua.LNumber(x.Y))
		t.RawSetString("z", lua.LNumber(x.Z))
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
