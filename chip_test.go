package chiphost

import (
	"encoding/binary"
	"errors"
	"testing"
)

// rampChip is a deterministic test chip. Channel c of the n-th generated
// frame carries n*outputs + c, so every element of a generated view is
// predictable from the chip's phase counter alone.
type rampChip struct {
	outputs int
	phase   uint32
}

func newRampChip(outputs int) *rampChip {
	return &rampChip{outputs: outputs}
}

func (c *rampChip) Outputs() int {
	return c.outputs
}

func (c *rampChip) GenerateFrame(frame []int32) {
	for ch := 0; ch < c.outputs; ch++ {
		frame[ch] = int32(c.phase)*int32(c.outputs) + int32(ch)
	}
	c.phase++
}

func (c *rampChip) SerializeSize() int {
	return 4
}

func (c *rampChip) Serialize(data []byte) error {
	if len(data) < 4 {
		return errors.New("ramp: serialize buffer too small")
	}
	binary.LittleEndian.PutUint32(data, c.phase)
	return nil
}

func (c *rampChip) Deserialize(data []byte) error {
	if len(data) < 4 {
		return errors.New("ramp: state too short")
	}
	c.phase = binary.LittleEndian.Uint32(data)
	return nil
}

// mustGenerator builds a generator or fails the test.
func mustGenerator(t *testing.T, chip *rampChip, channels int) *Generator[*rampChip] {
	t.Helper()
	g, err := NewGenerator(chip, channels)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	return g
}

// mustGenerate generates samples or fails the test.
func mustGenerate(t *testing.T, g *Generator[*rampChip], samples int) *FrameView {
	t.Helper()
	v, err := g.Generate(samples)
	if err != nil {
		t.Fatalf("Generate(%d) failed: %v", samples, err)
	}
	return v
}
