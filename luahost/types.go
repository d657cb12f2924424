package luahost

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	chiphost "github.com/user-none/go-chip-host"
)

const (
	chipTypeName = "chiphost.chip"
	viewTypeName = "chiphost.view"
)

// registerTypes installs the chip and view metatables on the host's
// interpreter. Called once from New.
func (h *Host) registerTypes() {
	L := h.state

	chipMT := L.NewTypeMetatable(chipTypeName)
	L.SetField(chipMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"outputs":  chipOutputs,
		"channels": chipChannels,
		"generate": chipGenerate,
		"save":     chipSave,
		"load":     chipLoad,
		"write":    chipWrite,
	}))

	viewMT := L.NewTypeMetatable(viewTypeName)
	L.SetField(viewMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"shape":   viewShape,
		"get":     viewGet,
		"set":     viewSet,
		"bytelen": viewByteLen,
		"release": viewRelease,
	}))
}

// checkChip extracts the bound chip from the Lua argument at n.
func checkChip(L *lua.LState, n int) *boundChip {
	ud := L.CheckUserData(n)
	if bc, ok := ud.Value.(*boundChip); ok {
		return bc
	}
	L.ArgError(n, "chip expected")
	return nil
}

// CheckView extracts a *chiphost.FrameView from the Lua argument at n,
// raising a Lua argument error if it is anything else. Exported so
// embedders can accept views in their own registered functions.
func CheckView(L *lua.LState, n int) *chiphost.FrameView {
	ud := L.CheckUserData(n)
	if v, ok := ud.Value.(*chiphost.FrameView); ok {
		return v
	}
	L.ArgError(n, "view expected")
	return nil
}

// checkLiveView is CheckView plus a release guard, so a stale handle
// raises a Lua error instead of a Go panic.
func checkLiveView(L *lua.LState, n int) *chiphost.FrameView {
	v := CheckView(L, n)
	if v.Released() {
		L.ArgError(n, "view used after release")
	}
	return v
}

// pushView wraps a view in userdata and pushes it. The view's reference
// is handed to the userdata; on failure the view is released so storage
// cannot leak.
func pushView(L *lua.LState, v *chiphost.FrameView) error {
	mt := L.GetTypeMetatable(viewTypeName)
	if mt == lua.LNil {
		v.Release()
		return fmt.Errorf("%w: view type not registered on this interpreter", chiphost.ErrHostBuffer)
	}
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, mt)
	L.Push(ud)
	return nil
}

func chipOutputs(L *lua.LState) int {
	bc := checkChip(L, 1)
	L.Push(lua.LNumber(bc.chip.Outputs()))
	return 1
}

func chipChannels(L *lua.LState) int {
	bc := checkChip(L, 1)
	L.Push(lua.LNumber(bc.gen.Channels()))
	return 1
}

// chipGenerate runs the chip for n sample periods and returns a view.
// It executes with the host's execution lock held by the running script;
// the generator drops that lock for the loop.
func chipGenerate(L *lua.LState) int {
	bc := checkChip(L, 1)
	n := L.CheckInt(2)

	v, err := bc.gen.Generate(n)
	if err != nil {
		L.RaiseError("%s: %v", bc.name, err)
		return 0
	}
	if err := pushView(L, v); err != nil {
		L.RaiseError("%s: %v", bc.name, err)
		return 0
	}
	return 1
}

// chipSave returns the chip's opaque state as a Lua string, which is
// immutable by construction on the Lua side.
func chipSave(L *lua.LState) int {
	bc := checkChip(L, 1)
	state, err := chiphost.SaveState(bc.chip)
	if err != nil {
		L.RaiseError("%s: save: %v", bc.name, err)
		return 0
	}
	L.Push(lua.LString(state))
	return 1
}

func chipLoad(L *lua.LState) int {
	bc := checkChip(L, 1)
	state := []byte(L.CheckString(2))
	if err := chiphost.LoadState(bc.chip, state); err != nil {
		L.RaiseError("%s: load: %v", bc.name, err)
	}
	return 0
}

// chipWrite latches a register write when the chip supports a data port.
func chipWrite(L *lua.LState) int {
	bc := checkChip(L, 1)
	value := L.CheckInt(2)
	if value < 0 || value > 0xFF {
		L.ArgError(2, "register value outside 0-255")
	}
	w, ok := bc.chip.(chiphost.RegisterWriter)
	if !ok {
		L.RaiseError("%s: chip has no register port", bc.name)
		return 0
	}
	w.Write(byte(value))
	return 0
}

func viewShape(L *lua.LState) int {
	v := checkLiveView(L, 1)
	samples, channels := v.Shape()
	L.Push(lua.LNumber(samples))
	L.Push(lua.LNumber(channels))
	return 2
}

func viewGet(L *lua.LState) int {
	v := checkLiveView(L, 1)
	s := L.CheckInt(2)
	c := L.CheckInt(3)
	samples, channels := v.Shape()
	if s < 0 || s >= samples {
		L.ArgError(2, "sample index out of range")
	}
	if c < 0 || c >= channels {
		L.ArgError(3, "channel index out of range")
	}
	L.Push(lua.LNumber(v.At(s, c)))
	return 1
}

func viewSet(L *lua.LState) int {
	v := checkLiveView(L, 1)
	s := L.CheckInt(2)
	c := L.CheckInt(3)
	value := L.CheckInt(4)
	samples, channels := v.Shape()
	if s < 0 || s >= samples {
		L.ArgError(2, "sample index out of range")
	}
	if c < 0 || c >= channels {
		L.ArgError(3, "channel index out of range")
	}
	v.Set(s, c, int32(value))
	return 0
}

func viewByteLen(L *lua.LState) int {
	v := checkLiveView(L, 1)
	L.Push(lua.LNumber(v.ByteLen()))
	return 1
}

// viewRelease drops the script's handle early instead of waiting for
// collection. Further method calls on the handle raise Lua errors.
func viewRelease(L *lua.LState) int {
	v := CheckView(L, 1)
	v.Release()
	return 0
}
