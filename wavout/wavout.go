// Package wavout writes generated sample views to RIFF WAV files as
// 16-bit PCM.
package wavout

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	chiphost "github.com/user-none/go-chip-host"
)

// Write encodes the view to path as 16-bit PCM at the given sample
// rate, one WAV channel per view channel. Samples outside the int16
// range are clamped. The view is only read; the caller keeps ownership.
func Write(path string, v *chiphost.FrameView, sampleRate int) error {
	samples, channels := v.Shape()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, samples*channels),
		SourceBitDepth: 16,
	}
	for s := 0; s < samples; s++ {
		row := v.Row(s)
		for c := 0; c < channels; c++ {
			buf.Data[s*channels+c] = int(clamp16(row[c]))
		}
	}

	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// clamp16 clamps v to the int16 PCM range.
func clamp16(v int32) int32 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}
	return v
}
