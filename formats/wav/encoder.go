// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// Encoder writes interleaved float32 frames as integer PCM WAV.
// Samples outside [-1, 1] are clipped.
type Encoder struct {
	enc      *wav.Encoder
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int
	closed   bool
}

// NewEncoder prepares a WAV stream on w. The header is finished by Close,
// which seeks back to patch the chunk sizes; w itself is not closed.
func NewEncoder(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Encoder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidSampleRate, sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidChannels, channels)
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitDepth)
	}

	return &Encoder{
		enc:      wav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM),
		channels: channels,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends whole interleaved frames.
func (e *Encoder) Write(samples []float32) error {
	if e.closed {
		return ErrEncoderClosed
	}
	if len(samples)%e.channels != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", audio.ErrPartialFrame, len(samples), e.channels)
	}

	if cap(e.buf.Data) < len(samples) {
		e.buf.Data = make([]int, len(samples))
	}
	e.buf.Data = e.buf.Data[:len(samples)]

	offset := 0
	if e.bitDepth == 8 {
		offset = 128
	}
	for i, s := range samples {
		e.buf.Data[i] = utils.Float32ToInt(s, e.bitDepth) + offset
	}

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("writing wav frames: %w", err)
	}
	e.frames += len(samples) / e.channels

	return nil
}

// Frames reports how many frames have been written.
func (e *Encoder) Frames() int { return e.frames }

// Close finalizes the header. Closing twice is a no-op.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	// the header and data chunk are only emitted on the first Write
	if e.frames == 0 {
		e.buf.Data = e.buf.Data[:0]
		if err := e.enc.Write(e.buf); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}

	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav header: %w", err)
	}
	return nil
}

// Encode writes buf as a complete WAV stream.
func Encode(w io.WriteSeeker, buf *audio.Buffer, bitDepth int) error {
	if buf == nil {
		return ErrNilBuffer
	}

	enc, err := NewEncoder(w, buf.SampleRate(), buf.Channels(), bitDepth)
	if err != nil {
		return err
	}
	if err := enc.Write(buf.Samples()); err != nil {
		return err
	}
	return enc.Close()
}
