// Package luahost embeds a Lua interpreter as the host environment for
// chiphost. A Host owns one interpreter plus the shared execution lock
// that serializes every host-level operation; generators bound to the
// host release that lock for the duration of their chip loop, so
// scripts and Go-side host calls can overlap with sample generation.
//
// Chips appear to scripts as global userdata with generate/save/load
// methods; generated views are userdata over the Go-owned storage, with
// no copying. All indices on the Lua side are zero-based, matching the
// Go API.
package luahost

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	chiphost "github.com/user-none/go-chip-host"
)

// Host owns a Lua interpreter, its chip registry and the shared
// execution lock. Methods are safe for concurrent use from multiple
// goroutines, but each bound chip is still single-writer: two goroutines
// must not generate from the same chip at once.
type Host struct {
	// mu is the shared execution lock. Every host operation holds it;
	// Generator drops it while the chip loop runs.
	mu sync.Mutex

	// runMu serializes whole scripts. The interpreter cannot interleave
	// two scripts even at points where mu is released.
	runMu sync.Mutex

	state *lua.LState
	chips map[string]*boundChip
}

// boundChip ties one chip, its generator and its script-visible name.
type boundChip struct {
	name string
	chip chiphost.Chip
	gen  *chiphost.Generator[chiphost.Chip]
}

// New creates a host with an empty chip registry.
func New() *Host {
	h := &Host{
		state: lua.NewState(),
		chips: make(map[string]*boundChip),
	}
	h.registerTypes()
	return h
}

// Close shuts down the interpreter. Outstanding views stay valid; their
// storage is owned by chiphost, not the interpreter.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}

// Bind exposes chip to scripts as a global userdata named name, with
// the given exposed channel count. The chip's generator uses the host's
// execution lock.
func (h *Host) Bind(name string, chip chiphost.Chip, channels int) error {
	gen, err := chiphost.NewGenerator[chiphost.Chip](chip, channels)
	if err != nil {
		return err
	}
	gen.SetHostLock(&h.mu)

	h.mu.Lock()
	defer h.mu.Unlock()

	bc := &boundChip{name: name, chip: chip, gen: gen}
	h.chips[name] = bc

	ud := h.state.NewUserData()
	ud.Value = bc
	h.state.SetMetatable(ud, h.state.GetTypeMetatable(chipTypeName))
	h.state.SetGlobal(name, ud)
	return nil
}

// RegisterFunc exposes a Go function to scripts as a global.
func (h *Host) RegisterFunc(name string, fn lua.LGFunction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.SetGlobal(name, h.state.NewFunction(fn))
}

// Run executes Lua source under the shared execution lock. One script
// runs at a time; the execution lock itself is dropped inside
// chip:generate so unrelated host work can proceed there.
func (h *Host) Run(script string) error {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.DoString(script)
}

// RunFile is Run for a script file on disk.
func (h *Host) RunFile(path string) error {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.DoFile(path)
}

// lookup returns the bound chip for name. Callers hold h.mu.
func (h *Host) lookup(name string) (*boundChip, error) {
	bc := h.chips[name]
	if bc == nil {
		return nil, fmt.Errorf("%w: no chip bound as %q", chiphost.ErrInvalidArgument, name)
	}
	return bc, nil
}

// GenerateSamples drives the named chip for samples sample periods from
// the Go side. The execution lock is dropped while the chip runs.
func (h *Host) GenerateSamples(name string, samples int) (*chiphost.FrameView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bc, err := h.lookup(name)
	if err != nil {
		return nil, err
	}
	return bc.gen.Generate(samples)
}

// SaveState returns the named chip's opaque state blob.
func (h *Host) SaveState(name string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bc, err := h.lookup(name)
	if err != nil {
		return nil, err
	}
	return chiphost.SaveState(bc.chip)
}

// LoadState restores the named chip from an opaque state blob.
func (h *Host) LoadState(name string, state []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	bc, err := h.lookup(name)
	if err != nil {
		return err
	}
	return chiphost.LoadState(bc.chip, state)
}
