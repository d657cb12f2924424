package chiphost

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// viewOwner is the shared ownership token for one sampleBuffer. Every
// FrameView handle over the buffer holds one reference; the buffer is
// freed exactly once, when the count drops to zero.
type viewOwner struct {
	buf  *sampleBuffer
	refs atomic.Int64
}

func (o *viewOwner) retain() {
	o.refs.Add(1)
}

func (o *viewOwner) release() {
	if o.refs.Add(-1) == 0 {
		o.buf.free()
	}
}

// FrameView is a zero-copy, shaped, strided view over generated samples.
// Element (s, c) lives at byte offset s*RowStride() + c*ElemStride() of
// the backing storage, row-major. Views are read/write and reference the
// storage for their entire lifetime; the storage is freed exactly once,
// after the last handle over it (including slices) is released or
// collected.
//
// Calling Release is optional: an unreleased view is cleaned up by its
// finalizer when the garbage collector drops the last reference.
// Releasing deterministically is still preferable for large buffers.
type FrameView struct {
	owner    *viewOwner
	off      int // element offset of row 0 within the storage
	samples  int
	channels int
	released atomic.Bool
}

// exportView publishes buf as a host-consumable view. This is the single
// seam where ownership transfers: after export the buffer is never
// written by this package again.
func exportView(buf *sampleBuffer) *FrameView {
	return newHandle(&viewOwner{buf: buf}, 0, buf.samples, buf.channels)
}

// newHandle creates one refcounted view handle with its finalizer attached.
func newHandle(owner *viewOwner, off, samples, channels int) *FrameView {
	owner.retain()
	v := &FrameView{owner: owner, off: off, samples: samples, channels: channels}
	runtime.SetFinalizer(v, (*FrameView).finalize)
	return v
}

func (v *FrameView) finalize() {
	if v.released.CompareAndSwap(false, true) {
		v.owner.release()
	}
}

// Release drops this handle's reference to the backing storage. Release
// is idempotent per handle; any other use of a released handle panics.
func (v *FrameView) Release() {
	if v.released.CompareAndSwap(false, true) {
		runtime.SetFinalizer(v, nil)
		v.owner.release()
	}
}

// Released reports whether this handle has been released.
func (v *FrameView) Released() bool {
	return v.released.Load()
}

func (v *FrameView) check() {
	if v.released.Load() {
		panic("chiphost: view used after release")
	}
}

// Shape returns (sampleCount, channelCount).
func (v *FrameView) Shape() (samples, channels int) {
	v.check()
	return v.samples, v.channels
}

// RowStride returns the byte distance between consecutive sample rows.
func (v *FrameView) RowStride() int {
	v.check()
	return v.owner.buf.rowStride()
}

// ElemStride returns the byte distance between channels within a row.
func (v *FrameView) ElemStride() int {
	v.check()
	return elemSize
}

// ByteLen returns the total size of the viewed region in bytes.
func (v *FrameView) ByteLen() int {
	v.check()
	return v.samples * v.channels * elemSize
}

func (v *FrameView) bounds(s, c int) {
	if s < 0 || s >= v.samples || c < 0 || c >= v.channels {
		panic(fmt.Sprintf("chiphost: view index (%d, %d) out of range (%d, %d)", s, c, v.samples, v.channels))
	}
}

// At returns the sample at row s, channel c.
func (v *FrameView) At(s, c int) int32 {
	v.check()
	v.bounds(s, c)
	return v.owner.buf.storage()[v.off+s*v.channels+c]
}

// Set writes the sample at row s, channel c.
func (v *FrameView) Set(s, c int, value int32) {
	v.check()
	v.bounds(s, c)
	v.owner.buf.storage()[v.off+s*v.channels+c] = value
}

// Row returns the channel values for sample s, aliasing the backing
// storage. The slice must not be used after the last handle over the
// storage is released.
func (v *FrameView) Row(s int) []int32 {
	v.check()
	v.bounds(s, 0)
	start := v.off + s*v.channels
	return v.owner.buf.storage()[start : start+v.channels]
}

// Data returns the whole viewed region as one row-major slice, aliasing
// the backing storage. For a zero-sample view the result is empty but
// still backed by valid memory.
func (v *FrameView) Data() []int32 {
	v.check()
	return v.owner.buf.storage()[v.off : v.off+v.samples*v.channels]
}

// Slice returns a new handle over sample rows [from, to). The handle
// shares ownership of the backing storage with v, so the storage stays
// alive until both are released.
func (v *FrameView) Slice(from, to int) *FrameView {
	v.check()
	if from < 0 || to < from || to > v.samples {
		panic(fmt.Sprintf("chiphost: view slice [%d:%d] out of range %d", from, to, v.samples))
	}
	return newHandle(v.owner, v.off+from*v.channels, to-from, v.channels)
}
