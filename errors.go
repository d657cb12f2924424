package chiphost

import "errors"

// Error kinds returned by this package. Call sites wrap them with
// context; classify with errors.Is.
var (
	// ErrInvalidArgument reports a caller contract violation, such as a
	// negative sample count or a channel count beyond the chip's native
	// output width.
	ErrInvalidArgument = errors.New("chiphost: invalid argument")

	// ErrAllocation reports that a sample buffer cannot be allocated,
	// including requests above MaxGenerateSamples.
	ErrAllocation = errors.New("chiphost: allocation failure")

	// ErrHostBuffer reports a failure constructing the host-facing view
	// object at the host-runtime boundary.
	ErrHostBuffer = errors.New("chiphost: host buffer construction failed")

	// ErrDeserialization reports a malformed, truncated or wrong-size
	// state blob.
	ErrDeserialization = errors.New("chiphost: state deserialization failed")
)
