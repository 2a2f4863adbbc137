// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// maxEmptyReads bounds how many times ReadAll tolerates a source returning
// no samples and no error before giving up.
const maxEmptyReads = 100

// Buffer is an immutable block of interleaved float32 frames at a known
// sample rate. It is shared by pointer and must not be modified once built.
type Buffer struct {
	samples    []float32
	channels   int
	sampleRate int
}

// NewBuffer wraps samples without copying them. The caller hands over
// ownership: samples must not be written to afterwards.
func NewBuffer(samples []float32, channels, sampleRate int) (*Buffer, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if len(samples)%channels != 0 {
		return nil, ErrPartialFrame
	}

	return &Buffer{
		samples:    samples,
		channels:   channels,
		sampleRate: sampleRate,
	}, nil
}

func (b *Buffer) Channels() int   { return b.channels }
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Frames returns the number of frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil {
		return 0
	}
	return len(b.samples) / b.channels
}

// Duration returns the playback length at the buffer's own sample rate.
func (b *Buffer) Duration() time.Duration {
	if b == nil {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.sampleRate) * float64(time.Second))
}

// Samples exposes the interleaved data. It is read-only.
func (b *Buffer) Samples() []float32 { return b.samples }

// At returns the sample of channel c in frame i.
func (b *Buffer) At(i, c int) float32 {
	return b.samples[i*b.channels+c]
}

// mapped returns the value of output channel c out of outChannels for
// frame i. Mono is spread to every channel, anything to mono is averaged.
func (b *Buffer) mapped(i, c, outChannels int) float32 {
	base := i * b.channels

	switch {
	case outChannels == b.channels:
		return b.samples[base+c]
	case b.channels == 1:
		return b.samples[base]
	case outChannels == 1:
		sum := float32(0)
		for ch := range b.channels {
			sum += b.samples[base+ch]
		}
		return sum / float32(b.channels)
	default:
		return b.samples[base+c%b.channels]
	}
}

// ReadAll drains src into a Buffer. The source is not closed.
func ReadAll(src Source) (*Buffer, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	size := max(src.BufSize(), 4096)
	size -= size % channels
	buf := make([]float32, size)
	samples := make([]float32, 0, size*4)

	empty := 0
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			empty = 0
			samples = append(samples, buf[:n]...)
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
		}
	}

	// drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%channels]

	return NewBuffer(samples, channels, src.SampleRate())
}
