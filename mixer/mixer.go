// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/deck"
	"github.com/ik5/audmix/utils"
)

// DefaultMaxBlock is the number of frames scratch space is sized for when
// no other value is given.
const DefaultMaxBlock = 4096

// Mixer blends two decks through a crossfader into one output stream.
type Mixer struct {
	sampleRate int
	channels   int

	a, b      *deck.Deck
	crossfade atomic.Uint64 // float64 bits

	interp    audio.Interpolation
	smoothing bool

	// owned by RenderBlock
	scratchA []float32
	scratchB []float32
}

type Option func(*Mixer)

// WithInterpolation sets how both decks read between source frames.
func WithInterpolation(i audio.Interpolation) Option {
	return func(m *Mixer) { m.interp = i }
}

// WithSmoothing turns on gain ramping in both decks.
func WithSmoothing(on bool) Option {
	return func(m *Mixer) { m.smoothing = on }
}

// New creates a mixer for the given output format with two empty decks.
// maxBlock is the largest block the audio backend is expected to ask for;
// RenderBlock only allocates when a larger one shows up.
func New(sampleRate, channels, maxBlock int, opts ...Option) (*Mixer, error) {
	if sampleRate <= 0 {
		return nil, audio.ErrInvalidSampleRate
	}
	if channels <= 0 {
		return nil, audio.ErrInvalidChannels
	}
	if maxBlock <= 0 {
		maxBlock = DefaultMaxBlock
	}

	m := &Mixer{
		sampleRate: sampleRate,
		channels:   channels,
		scratchA:   make([]float32, maxBlock*channels),
		scratchB:   make([]float32, maxBlock*channels),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.a = deck.New(sampleRate, deck.WithName("A"), deck.WithInterpolation(m.interp))
	m.b = deck.New(sampleRate, deck.WithName("B"), deck.WithInterpolation(m.interp))
	m.a.SetSmoothing(m.smoothing)
	m.b.SetSmoothing(m.smoothing)

	return m, nil
}

func (m *Mixer) SampleRate() int { return m.sampleRate }
func (m *Mixer) Channels() int   { return m.channels }

func (m *Mixer) A() *deck.Deck { return m.a }
func (m *Mixer) B() *deck.Deck { return m.b }

// Deck returns deck "A" or "B" (case-insensitive), nil otherwise.
func (m *Mixer) Deck(id string) *deck.Deck {
	switch id {
	case "A", "a":
		return m.a
	case "B", "b":
		return m.b
	}
	return nil
}

// SetCrossfade sets the fader position, clamped to [0, 1]: 0 is deck A
// only, 1 is deck B only.
func (m *Mixer) SetCrossfade(x float64) {
	m.crossfade.Store(math.Float64bits(utils.Clamp(x, 0, 1)))
}

func (m *Mixer) Crossfade() float64 {
	return math.Float64frombits(m.crossfade.Load())
}

// RenderBlock fills out with the next len(out)/Channels() frames: deck A at
// gain 1-x plus deck B at gain x, hard clipped to [-1, 1]. It must be called
// from a single goroutine, normally the audio callback.
func (m *Mixer) RenderBlock(out []float32) error {
	if len(out)%m.channels != 0 {
		return fmt.Errorf("render block of %d samples: %w", len(out), audio.ErrInvalidDstSize)
	}

	if len(out) > len(m.scratchA) {
		m.scratchA = make([]float32, len(out))
		m.scratchB = make([]float32, len(out))
	}

	x := m.Crossfade()
	a := m.scratchA[:len(out)]
	b := m.scratchB[:len(out)]

	m.a.Advance(a, m.channels, 1-x)
	m.b.Advance(b, m.channels, x)

	for i := range out {
		out[i] = utils.ClipSample(a[i] + b[i])
	}

	return nil
}
