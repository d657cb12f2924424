package chiphost

import (
	"errors"
	"sync"
	"testing"
)

func TestGenerate_Shape(t *testing.T) {
	for _, samples := range []int{0, 1, 7, 100} {
		g := mustGenerator(t, newRampChip(2), 2)
		v := mustGenerate(t, g, samples)

		s, c := v.Shape()
		if s != samples || c != 2 {
			t.Errorf("Generate(%d): shape (%d, %d), expected (%d, 2)", samples, s, c, samples)
		}
		v.Release()
	}
}

func TestGenerate_ZeroSamplesValidView(t *testing.T) {
	g := mustGenerator(t, newRampChip(2), 2)
	v := mustGenerate(t, g, 0)
	defer v.Release()

	if s, _ := v.Shape(); s != 0 {
		t.Errorf("expected zero rows, got %d", s)
	}
	if v.ByteLen() != 0 {
		t.Errorf("expected byte length 0, got %d", v.ByteLen())
	}
	// The zero-length region must still be backed by valid memory.
	if v.Data() == nil {
		t.Error("Data() returned nil for zero-sample view")
	}
	if len(v.Data()) != 0 {
		t.Errorf("expected empty data, got length %d", len(v.Data()))
	}
}

func TestGenerate_ZeroSamplesDoesNotAdvanceChip(t *testing.T) {
	chip := newRampChip(1)
	g := mustGenerator(t, chip, 1)

	v := mustGenerate(t, g, 0)
	v.Release()

	v = mustGenerate(t, g, 1)
	defer v.Release()
	if v.At(0, 0) != 0 {
		t.Errorf("chip advanced by zero-sample request: first sample %d, expected 0", v.At(0, 0))
	}
}

func TestGenerate_Values(t *testing.T) {
	g := mustGenerator(t, newRampChip(2), 2)
	v := mustGenerate(t, g, 4)
	defer v.Release()

	for s := 0; s < 4; s++ {
		for c := 0; c < 2; c++ {
			expected := int32(s*2 + c)
			if got := v.At(s, c); got != expected {
				t.Errorf("element (%d, %d): expected %d, got %d", s, c, expected, got)
			}
		}
	}
}

func TestGenerate_Continuity(t *testing.T) {
	// Generating 100 then 50 samples must produce the same stream as
	// generating 150 at once on an identically constructed chip.
	gChunked := mustGenerator(t, newRampChip(2), 2)
	v1 := mustGenerate(t, gChunked, 100)
	defer v1.Release()
	v2 := mustGenerate(t, gChunked, 50)
	defer v2.Release()

	gWhole := mustGenerator(t, newRampChip(2), 2)
	ref := mustGenerate(t, gWhole, 150)
	defer ref.Release()

	for s := 0; s < 100; s++ {
		for c := 0; c < 2; c++ {
			if v1.At(s, c) != ref.At(s, c) {
				t.Fatalf("first chunk diverges at (%d, %d): %d vs %d", s, c, v1.At(s, c), ref.At(s, c))
			}
		}
	}
	for s := 0; s < 50; s++ {
		for c := 0; c < 2; c++ {
			if v2.At(s, c) != ref.At(100+s, c) {
				t.Fatalf("second chunk diverges at (%d, %d): %d vs %d", s, c, v2.At(s, c), ref.At(100+s, c))
			}
		}
	}
}

func TestGenerate_ChannelPrefix(t *testing.T) {
	// A chip with native width 4 exposed as 2 channels: rows carry the
	// first two native outputs, in order.
	g := mustGenerator(t, newRampChip(4), 2)
	v := mustGenerate(t, g, 3)
	defer v.Release()

	for s := 0; s < 3; s++ {
		for c := 0; c < 2; c++ {
			expected := int32(s*4 + c)
			if got := v.At(s, c); got != expected {
				t.Errorf("element (%d, %d): expected %d, got %d", s, c, expected, got)
			}
		}
	}
}

func TestGenerate_ChannelCountExceedsWidth(t *testing.T) {
	allocsBefore, _ := bufferStats()

	_, err := NewGenerator(newRampChip(2), 3)
	if err == nil {
		t.Fatal("NewGenerator should reject channel count above native width")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	allocsAfter, _ := bufferStats()
	if allocsAfter != allocsBefore {
		t.Error("rejected generator performed a buffer allocation")
	}
}

func TestGenerate_ZeroChannels(t *testing.T) {
	if _, err := NewGenerator(newRampChip(2), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero channels, got %v", err)
	}
}

func TestGenerate_NegativeSamples(t *testing.T) {
	chip := newRampChip(2)
	g := mustGenerator(t, chip, 2)
	allocsBefore, _ := bufferStats()

	_, err := g.Generate(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	allocsAfter, _ := bufferStats()
	if allocsAfter != allocsBefore {
		t.Error("rejected request performed a buffer allocation")
	}
	if chip.phase != 0 {
		t.Error("rejected request advanced the chip")
	}
}

func TestGenerate_SampleCap(t *testing.T) {
	chip := newRampChip(2)
	g := mustGenerator(t, chip, 2)
	allocsBefore, _ := bufferStats()

	_, err := g.Generate(MaxGenerateSamples + 1)
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}

	allocsAfter, _ := bufferStats()
	if allocsAfter != allocsBefore {
		t.Error("rejected request performed a buffer allocation")
	}
	if chip.phase != 0 {
		t.Error("rejected request advanced the chip")
	}
}

func TestGenerate_ConcreteScenario(t *testing.T) {
	// Native width 2, channel count 2, 4 samples: shape (4, 2),
	// 32 bytes total, row stride 8, element stride 4.
	g := mustGenerator(t, newRampChip(2), 2)
	v := mustGenerate(t, g, 4)
	defer v.Release()

	if s, c := v.Shape(); s != 4 || c != 2 {
		t.Errorf("shape: expected (4, 2), got (%d, %d)", s, c)
	}
	if v.ByteLen() != 32 {
		t.Errorf("byte length: expected 32, got %d", v.ByteLen())
	}
	if v.RowStride() != 8 {
		t.Errorf("row stride: expected 8, got %d", v.RowStride())
	}
	if v.ElemStride() != 4 {
		t.Errorf("element stride: expected 4, got %d", v.ElemStride())
	}
}

// sequenceLock records lock transitions so tests can verify the host
// lock is dropped for the loop and re-acquired before export.
type sequenceLock struct {
	mu     sync.Mutex
	events []string
}

func (l *sequenceLock) Lock() {
	l.mu.Lock()
	l.events = append(l.events, "lock")
	l.mu.Unlock()
}

func (l *sequenceLock) Unlock() {
	l.mu.Lock()
	l.events = append(l.events, "unlock")
	l.mu.Unlock()
}

func TestGenerate_HostLockRelease(t *testing.T) {
	g := mustGenerator(t, newRampChip(1), 1)
	lock := &sequenceLock{}
	g.SetHostLock(lock)

	v := mustGenerate(t, g, 10)
	v.Release()

	if len(lock.events) != 2 || lock.events[0] != "unlock" || lock.events[1] != "lock" {
		t.Errorf("expected [unlock lock], got %v", lock.events)
	}
}

func TestGenerate_HostLockSkippedForZeroSamples(t *testing.T) {
	g := mustGenerator(t, newRampChip(1), 1)
	lock := &sequenceLock{}
	g.SetHostLock(lock)

	v := mustGenerate(t, g, 0)
	v.Release()

	if len(lock.events) != 0 {
		t.Errorf("zero-sample request touched the host lock: %v", lock.events)
	}
}
