package chiphost

import "sync/atomic"

// elemSize is the byte width of one sample element (int32).
const elemSize = 4

// Lifetime counters for buffer storage. Tests use these to prove every
// allocated buffer is freed exactly once after its views are gone.
var (
	bufAllocs atomic.Uint64
	bufFrees  atomic.Uint64
)

// emptyStorage backs zero-sample buffers so a zero-length view always
// references valid memory and never forms a nil pointer.
var emptyStorage [1]int32

// sampleBuffer owns one contiguous row-major block of int32 samples with
// shape samples x channels. Element (s, c) lives at index s*channels + c.
type sampleBuffer struct {
	data     []int32
	samples  int
	channels int
}

// newSampleBuffer allocates storage for samples x channels int32 values.
// A zero-sample buffer carries no allocation of its own and reads from
// the shared one-element sentinel.
func newSampleBuffer(samples, channels int) *sampleBuffer {
	b := &sampleBuffer{samples: samples, channels: channels}
	if samples > 0 {
		b.data = make([]int32, samples*channels)
	}
	bufAllocs.Add(1)
	return b
}

// storage returns the backing slice. Never nil.
func (b *sampleBuffer) storage() []int32 {
	if b.samples == 0 {
		return emptyStorage[:]
	}
	return b.data
}

// rowStride returns the byte distance between consecutive sample rows.
func (b *sampleBuffer) rowStride() int {
	return b.channels * elemSize
}

// free drops the backing storage. Called exactly once, by the ownership
// token when the last view handle over the buffer goes away.
func (b *sampleBuffer) free() {
	b.data = nil
	bufFrees.Add(1)
}

// bufferStats reports lifetime allocation and free counts.
func bufferStats() (allocs, frees uint64) {
	return bufAllocs.Load(), bufFrees.Load()
}
