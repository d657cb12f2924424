package chiphost

import (
	"fmt"
	"sync"
)

// MaxGenerateSamples caps a single generation request (512 MiB of stereo
// int32 output). Requests above it fail with ErrAllocation before any
// storage is allocated or the chip is touched.
const MaxGenerateSamples = 1 << 26

// Generator drives one chip's generation loop and exports the results as
// zero-copy views. It is instantiated per chip family; the type parameter
// keeps the per-frame call devirtualized in the hot loop.
//
// A Generator, like its chip, must not be used from two goroutines at
// once. The host lock does not protect the chip; it protects the host
// environment's own shared structures.
type Generator[C Chip] struct {
	chip     C
	width    int
	channels int
	hostLock sync.Locker
}

// NewGenerator validates that channels fits within the chip's native
// output width and returns a generator exposing exactly that channel
// prefix.
func NewGenerator[C Chip](chip C, channels int) (*Generator[C], error) {
	width := chip.Outputs()
	if channels < 1 || channels > width {
		return nil, fmt.Errorf("%w: channel count %d outside native width %d", ErrInvalidArgument, channels, width)
	}
	return &Generator[C]{chip: chip, width: width, channels: channels}, nil
}

// SetHostLock installs the host's shared execution lock. When set, the
// lock is released for the full duration of the generation loop and
// re-acquired before the view is constructed, so no host-visible object
// is touched while it is unlocked. The caller must hold the lock when
// invoking Generate.
func (g *Generator[C]) SetHostLock(l sync.Locker) {
	g.hostLock = l
}

// Chip returns the chip driven by this generator.
func (g *Generator[C]) Chip() C {
	return g.chip
}

// Channels returns the exposed channel count.
func (g *Generator[C]) Channels() int {
	return g.channels
}

// Generate runs the chip for samples sample periods and returns the
// output as a (samples, channels) view. Each row is the fixed-position
// prefix of the chip's native output frame, never a downmix. Frames are
// produced strictly in temporal order, so consecutive calls extend the
// audio stream without gaps or overlap: Generate(100) then Generate(50)
// advances the chip exactly as one Generate(150) would.
//
// Generate runs to completion; callers wanting interruptible generation
// chunk their requests.
func (g *Generator[C]) Generate(samples int) (*FrameView, error) {
	if samples < 0 {
		return nil, fmt.Errorf("%w: negative sample count %d", ErrInvalidArgument, samples)
	}
	if samples > MaxGenerateSamples {
		return nil, fmt.Errorf("%w: sample count %d exceeds limit %d", ErrAllocation, samples, MaxGenerateSamples)
	}

	buf := newSampleBuffer(samples, g.channels)

	if samples > 0 {
		// The chip loop is the one CPU-bound stretch in this layer.
		// Dropping the host lock here lets unrelated host-level work
		// proceed while samples are computed.
		if g.hostLock != nil {
			g.hostLock.Unlock()
		}

		frame := make([]int32, g.width)
		dst := buf.data
		for i := 0; i < samples; i++ {
			g.chip.GenerateFrame(frame)
			copy(dst[i*g.channels:(i+1)*g.channels], frame[:g.channels])
		}

		if g.hostLock != nil {
			g.hostLock.Lock()
		}
	}

	return exportView(buf), nil
}
