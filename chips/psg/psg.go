// Package psg adapts the external SN76489 core (go-chip-sn76489) into a
// chiphost.Chip. The core is cycle-driven and fills an internal sample
// buffer; this glue runs it one sample period at a time and carries the
// fractional chip cycles between periods so long runs stay exactly on
// the requested sample rate.
package psg

import (
	"encoding/binary"
	"errors"

	"github.com/user-none/go-chip-sn76489"
)

// Outputs is the native output channel count. The SN76489 is mono.
const Outputs = 1

// coreBufferSize is the core's internal sample buffer. It is drained
// every sample period, so it only needs room for rounding slack.
const coreBufferSize = 16

// adapterSerializeSize covers the glue's own state appended after the
// core blob: cycle accumulator (8) + held sample (4).
const adapterSerializeSize = 12

// SerializeSize is the total state blob size for this chip type.
const SerializeSize = sn76489.SerializeSize + adapterSerializeSize

// PSG drives an SN76489 core at a fixed master clock and produces one
// mono int32 frame per sample period.
type PSG struct {
	core       *sn76489.SN76489
	clockHz    int
	sampleRate int

	// cycleAcc carries clock cycles not yet consumed by a sample period,
	// scaled by sampleRate to stay integral.
	cycleAcc int

	// last holds the most recent core sample, repeated when a period's
	// cycle budget rounds down to zero fresh samples.
	last int32
}

// New creates a PSG glue chip running at clockHz, producing samples at
// sampleRate.
func New(clockHz, sampleRate int) *PSG {
	core := sn76489.New(clockHz, sampleRate, coreBufferSize, sn76489.Sega)
	return &PSG{
		core:       core,
		clockHz:    clockHz,
		sampleRate: sampleRate,
	}
}

// Outputs returns the native output channel count.
func (p *PSG) Outputs() int {
	return Outputs
}

// Write latches a register write through the PSG's single data port.
func (p *PSG) Write(value byte) {
	p.core.Write(value)
}

// SetGain scales the core's output level.
func (p *PSG) SetGain(gain float64) {
	p.core.SetGain(float32(gain))
}

// GenerateFrame advances the core by one sample period and writes the
// mono sample into frame[0].
func (p *PSG) GenerateFrame(frame []int32) {
	p.cycleAcc += p.clockHz
	cycles := p.cycleAcc / p.sampleRate
	p.cycleAcc -= cycles * p.sampleRate

	p.core.ResetBuffer()
	p.core.Run(cycles)
	if buf, count := p.core.GetBuffer(); count > 0 {
		p.last = int32(buf[count-1])
	}
	frame[0] = p.last
}

// SerializeSize returns the total state blob size.
func (p *PSG) SerializeSize() int {
	return SerializeSize
}

// Serialize writes the core state followed by the glue state.
func (p *PSG) Serialize(data []byte) error {
	if len(data) < SerializeSize {
		return errors.New("psg: serialize buffer too small")
	}
	if err := p.core.Serialize(data); err != nil {
		return err
	}
	off := sn76489.SerializeSize
	binary.LittleEndian.PutUint64(data[off:], uint64(p.cycleAcc))
	off += 8
	binary.LittleEndian.PutUint32(data[off:], uint32(p.last))
	return nil
}

// Deserialize restores the core state followed by the glue state.
func (p *PSG) Deserialize(data []byte) error {
	if len(data) < SerializeSize {
		return errors.New("psg: state too short")
	}
	if err := p.core.Deserialize(data); err != nil {
		return err
	}
	off := sn76489.SerializeSize
	p.cycleAcc = int(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	p.last = int32(binary.LittleEndian.Uint32(data[off:]))
	return nil
}
