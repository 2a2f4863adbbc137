// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds signal generators shared by the package tests.
// It does not import audio so that audio's own tests can use it.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// Waveform returns the value of channel ch at frame i.
type Waveform func(i, ch int) float32

// Sine is a full scale sine of freq Hz at sampleRate.
func Sine(sampleRate int, freq float64) Waveform {
	return func(i, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
	}
}

// Constant returns v everywhere.
func Constant(v float32) Waveform {
	return func(int, int) float32 { return v }
}

// Ramp encodes the frame index so tests can tell which frame was read.
// Channel ch of frame i is i/scale + ch/1000.
func Ramp(scale float32) Waveform {
	return func(i, ch int) float32 {
		return float32(i)/scale + float32(ch)/1000
	}
}

// Samples renders frames interleaved frames of w.
func Samples(frames, channels int, w Waveform) []float32 {
	out := make([]float32, frames*channels)
	for i := range frames {
		for ch := range channels {
			out[i*channels+ch] = w(i, ch)
		}
	}
	return out
}

// MockSource streams a Waveform through the Source method set.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	generated  int
	waveform   Waveform

	// FailAfter makes ReadSamples return Err once that many frames were
	// produced. Zero disables it.
	FailAfter int
	Err       error
	closed    bool
}

func NewMockSource(sampleRate, channels, frames int, w Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   w,
	}
}

func NewSineSource(sampleRate, channels, frames int, freq float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, Sine(sampleRate, freq))
}

func NewConstantSource(sampleRate, channels, frames int, v float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, Constant(v))
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Closed() bool    { return m.closed }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.FailAfter > 0 && m.generated >= m.FailAfter {
		if m.Err == nil {
			return 0, errors.New("mock source failure")
		}
		return 0, m.Err
	}
	if m.generated >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.generated)
	if m.FailAfter > 0 {
		n = min(n, m.FailAfter-m.generated)
	}

	for f := range n {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += n

	if m.generated >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}
