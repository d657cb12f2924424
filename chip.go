// Package chiphost marshals audio produced by external sound-chip
// emulation cores into zero-copy sample views consumable by a host
// environment, and moves opaque chip state blobs in and out of those
// cores. The chips themselves live in separate modules (the go-chip-*
// family); this package only defines the capability it drives and the
// ownership rules around what it hands back.
package chiphost

// Chip is a single emulated sound-generation unit. One GenerateFrame
// call advances the chip's internal state by exactly one sample period
// and produces one value per native output channel. Chips are assumed
// deterministic: the same state and call sequence yields the same output.
//
// A chip is not safe for concurrent use. One chip, one caller at a time.
type Chip interface {
	// Outputs returns the native output channel count. Fixed per instance.
	Outputs() int

	// GenerateFrame fills frame[:Outputs()] with the next sample frame.
	GenerateFrame(frame []int32)

	// SerializeSize returns the exact byte size of the chip's state blob.
	// Fixed per chip type.
	SerializeSize() int

	// Serialize writes the chip's complete internal state into data.
	Serialize(data []byte) error

	// Deserialize restores the chip's complete internal state from data.
	Deserialize(data []byte) error
}

// RegisterWriter is implemented by chips that accept register writes
// through a single latch/data port.
type RegisterWriter interface {
	Write(value byte)
}
