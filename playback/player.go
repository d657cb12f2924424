// Package playback plays generated sample views through the system
// audio device. The generation side queues FrameViews; oto pulls int16
// stereo PCM from a ring buffer in its own pull model.
package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	chiphost "github.com/user-none/go-chip-host"
)

// ringBufferCapacity is ~167ms at 48kHz stereo 16-bit (~32KB).
const ringBufferCapacity = 32768

// Player manages audio playback via oto. Views are converted to int16
// stereo PCM: mono chips are duplicated to both ears, wider chips
// contribute their first two channels (the same prefix policy the
// generator applies to native frames).
type Player struct {
	player  *oto.Player
	ring    *RingBuffer
	scratch []byte
}

// oto context singleton. The first NewPlayer call fixes the sample rate
// for the process.
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-readyChan
	})
	return otoCtx, otoInitErr
}

// NewPlayer creates and starts audio playback at the given sample rate.
func NewPlayer(sampleRate int, volume float64) (*Player, error) {
	ctx, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	rb := NewRingBuffer(ringBufferCapacity)
	player := ctx.NewPlayer(rb)
	player.SetVolume(volume)
	player.Play()

	return &Player{
		player:  player,
		ring:    rb,
		scratch: make([]byte, 0, 4096),
	}, nil
}

// QueueView converts a view to PCM and queues it for playback. The view
// is only read; the caller keeps ownership and releases it.
func (p *Player) QueueView(v *chiphost.FrameView) {
	p.scratch = appendViewPCM(p.scratch[:0], v)
	if len(p.scratch) > 0 {
		p.ring.Write(p.scratch)
	}
}

// appendViewPCM appends a view's samples as little-endian int16 stereo
// PCM. Mono is duplicated to L/R; extra channels beyond the first two
// are dropped.
func appendViewPCM(dst []byte, v *chiphost.FrameView) []byte {
	samples, channels := v.Shape()
	for s := 0; s < samples; s++ {
		row := v.Row(s)
		l := int16(clampInt32(row[0], -32768, 32767))
		r := l
		if channels > 1 {
			r = int16(clampInt32(row[1], -32768, 32767))
		}
		dst = append(dst, byte(l), byte(l>>8), byte(r), byte(r>>8))
	}
	return dst
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Buffered returns the total bytes of audio currently queued (ring
// buffer + oto's internal buffer).
func (p *Player) Buffered() int {
	return p.ring.Buffered() + p.player.BufferedSize()
}

// Drain blocks until all queued audio has been handed to the device.
func (p *Player) Drain() {
	for p.Buffered() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (p *Player) SetVolume(vol float64) {
	p.player.SetVolume(vol)
}

// Close cleans up audio resources.
func (p *Player) Close() {
	if p.ring != nil {
		p.ring.Close()
	}
	if p.player != nil {
		p.player.Close()
	}
}
