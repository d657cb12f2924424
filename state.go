package chiphost

import "fmt"

// SaveState serializes chip's complete internal state (registers,
// oscillator phases, envelope phases, internal counters) into a fresh
// opaque blob. The layout is chip-type-specific and unversioned; the
// blob is only meaningful to LoadState on the same chip type. Chip
// serialization failures are returned verbatim.
func SaveState(chip Chip) ([]byte, error) {
	data := make([]byte, chip.SerializeSize())
	if err := chip.Serialize(data); err != nil {
		return nil, err
	}
	return data, nil
}

// LoadState restores chip from a blob produced by SaveState on the same
// chip type, making its subsequent output bit-identical to the instance
// that produced the blob. A blob of the wrong size fails with
// ErrDeserialization before the chip is touched. Feeding a same-size
// blob from a different chip type is undefined.
func LoadState(chip Chip, state []byte) error {
	if want := chip.SerializeSize(); len(state) != want {
		return fmt.Errorf("%w: state is %d bytes, chip type wants %d", ErrDeserialization, len(state), want)
	}
	if err := chip.Deserialize(state); err != nil {
		return fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return nil
}
