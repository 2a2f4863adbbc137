// SPDX-License-Identifier: EPL-2.0

package deck

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// State of a deck's transport.
type State int32

const (
	Empty State = iota
	Stopped
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MaxTempo is the largest tempo offset in percent. A setting of p plays at
// 2^(p/100), so the range covers half to double speed.
const MaxTempo = 100

// Deck is one playback lane.
//
// Control methods may be called from any goroutine. Advance belongs to the
// audio callback and must only be called from one goroutine at a time. The
// two sides share nothing but atomics, so Advance never waits on a control
// call.
type Deck struct {
	name       string
	sampleRate int
	interp     audio.Interpolation

	track     atomic.Pointer[Track]
	volume    atomic.Uint64 // float64 bits
	rate      atomic.Uint64 // float64 bits
	state     atomic.Int32
	loop      atomic.Bool
	smoothing atomic.Bool
	// cue is bumped whenever the cursor must go back to 0.
	cue      atomic.Uint64
	position atomic.Uint64 // seconds, float64 bits

	// owned by Advance
	current  *Track
	cursor   float64
	seenCue  uint64
	lastGain float64
}

type Option func(*Deck)

// WithInterpolation selects how fractional cursor positions are read.
func WithInterpolation(i audio.Interpolation) Option {
	return func(d *Deck) { d.interp = i }
}

// WithName labels the deck, e.g. "A".
func WithName(name string) Option {
	return func(d *Deck) { d.name = name }
}

// New returns an empty deck rendering at the output sample rate.
func New(sampleRate int, opts ...Option) *Deck {
	d := &Deck{sampleRate: sampleRate}
	d.volume.Store(math.Float64bits(1))
	d.rate.Store(math.Float64bits(1))

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Deck) Name() string    { return d.name }
func (d *Deck) SampleRate() int { return d.sampleRate }

// Load replaces the track, puts the tempo back to 0% and stops the deck.
// The cursor returns to 0 when the audio callback picks the track up.
func (d *Deck) Load(t *Track) {
	if t == nil || t.Buffer == nil {
		d.state.Store(int32(Empty))
		d.track.Store(nil)
		d.cue.Add(1)
		d.position.Store(0)
		return
	}

	d.state.Store(int32(Stopped))
	d.rate.Store(math.Float64bits(1))
	d.track.Store(t)
	d.cue.Add(1)
	d.position.Store(0)
}

// LoadBuffer is Load for a fresh Track around buf.
func (d *Deck) LoadBuffer(buf *audio.Buffer, bpm float64, label string) *Track {
	t := NewTrack(buf, bpm, label)
	d.Load(t)
	return t
}

// Install swaps old for t only if old is still the current track, so a
// result computed from a track that has since been replaced is dropped.
// Tempo goes back to 0%, the cursor to 0, and the deck keeps playing if it
// was playing.
func (d *Deck) Install(old, t *Track) bool {
	if !d.track.CompareAndSwap(old, t) {
		return false
	}

	d.rate.Store(math.Float64bits(1))
	d.cue.Add(1)
	d.position.Store(0)
	if State(d.state.Load()) != Playing {
		d.state.Store(int32(Stopped))
	}

	return true
}

// Track returns the current track, nil when empty.
func (d *Deck) Track() *Track { return d.track.Load() }

// SetVolume clamps v to [0, 1].
func (d *Deck) SetVolume(v float64) {
	d.volume.Store(math.Float64bits(utils.Clamp(v, 0, 1)))
}

func (d *Deck) Volume() float64 {
	return math.Float64frombits(d.volume.Load())
}

// SetTempo sets the playback speed offset in percent, clamped to
// [-MaxTempo, MaxTempo].
func (d *Deck) SetTempo(percent float64) {
	percent = utils.Clamp(percent, -MaxTempo, MaxTempo)
	d.rate.Store(math.Float64bits(math.Exp2(percent / 100)))
}

// Tempo returns the offset in percent.
func (d *Deck) Tempo() float64 {
	return 100 * math.Log2(d.Rate())
}

// Rate is the playback speed multiplier.
func (d *Deck) Rate() float64 {
	return math.Float64frombits(d.rate.Load())
}

// SetLoop makes the deck wrap to the start at the end of the track instead
// of stopping.
func (d *Deck) SetLoop(on bool) { d.loop.Store(on) }
func (d *Deck) Loop() bool      { return d.loop.Load() }

// SetSmoothing ramps gain changes across one block instead of stepping.
func (d *Deck) SetSmoothing(on bool) { d.smoothing.Store(on) }

func (d *Deck) State() State { return State(d.state.Load()) }

// Play starts or resumes playback.
func (d *Deck) Play() error {
	for {
		s := State(d.state.Load())
		switch s {
		case Empty:
			return ErrNoTrack
		case Playing:
			return nil
		}
		if d.state.CompareAndSwap(int32(s), int32(Playing)) {
			return nil
		}
	}
}

// Pause keeps the cursor where it is. It does nothing unless playing.
func (d *Deck) Pause() {
	d.state.CompareAndSwap(int32(Playing), int32(Paused))
}

// Stop halts playback and rewinds to the start. It does nothing when the
// deck is already stopped or empty.
func (d *Deck) Stop() {
	for {
		s := State(d.state.Load())
		if s != Playing && s != Paused {
			return
		}
		if d.state.CompareAndSwap(int32(s), int32(Stopped)) {
			d.cue.Add(1)
			d.position.Store(0)
			return
		}
	}
}

// TogglePlay pauses a playing deck and plays anything else.
func (d *Deck) TogglePlay() (State, error) {
	if d.state.CompareAndSwap(int32(Playing), int32(Paused)) {
		return Paused, nil
	}
	if err := d.Play(); err != nil {
		return d.State(), err
	}
	return Playing, nil
}

// Position is how far into the track the deck is. It reads 0 when the deck
// is stopped or empty.
func (d *Deck) Position() time.Duration {
	return time.Duration(d.Seconds() * float64(time.Second))
}

func (d *Deck) Seconds() float64 {
	switch d.State() {
	case Playing, Paused:
		return math.Float64frombits(d.position.Load())
	default:
		return 0
	}
}

// Duration of the current track, 0 when empty.
func (d *Deck) Duration() time.Duration {
	t := d.track.Load()
	if t == nil {
		return 0
	}
	return t.Buffer.Duration()
}

func (d *Deck) rewind() {
	d.cursor = 0
	d.position.Store(0)
}

// Advance renders the next len(dst)/channels frames of this deck into dst,
// scaled by gain times the deck volume. Parameters are read once at the
// start of the block. When the deck is not playing dst is zeroed. At the end
// of the track the rest of dst is zeroed and the deck stops, or wraps to the
// start when looping.
//
// It returns the number of frames taken from the track. Advance does not
// allocate or block.
func (d *Deck) Advance(dst []float32, channels int, gain float64) int {
	t := d.track.Load()
	if t != d.current {
		d.current = t
		d.rewind()
	}
	if c := d.cue.Load(); c != d.seenCue {
		d.seenCue = c
		d.rewind()
	}

	if t == nil || d.State() != Playing || channels <= 0 {
		clear(dst)
		d.lastGain = 0
		return 0
	}

	buf := t.Buffer
	total := float64(buf.Frames())
	step := d.Rate() * float64(buf.SampleRate()) / float64(d.sampleRate)
	loop := d.loop.Load() && total > 0
	frames := len(dst) / channels

	written := 0
	for written < frames {
		n, err := audio.Block(buf, d.cursor, step, d.interp, dst[written*channels:frames*channels], channels)
		if err != nil {
			clear(dst)
			return 0
		}

		written += n
		d.cursor += float64(n) * step
		if d.cursor < total {
			break
		}

		if !loop {
			clear(dst[written*channels:])
			d.endOfTrack(t)
			d.applyGain(dst[:written*channels], channels, gain)
			return written
		}
		d.cursor = math.Mod(d.cursor, total)
	}

	d.applyGain(dst[:written*channels], channels, gain)
	d.position.Store(math.Float64bits(d.cursor / float64(buf.SampleRate())))

	return written
}

// endOfTrack rewinds after t ran out and stops the deck, unless another
// track was loaded while t was rendering.
func (d *Deck) endOfTrack(t *Track) {
	d.rewind()
	if d.track.Load() == t {
		d.state.CompareAndSwap(int32(Playing), int32(Stopped))
	}
}

func (d *Deck) applyGain(dst []float32, channels int, gain float64) {
	g := gain * d.Volume()
	from := d.lastGain
	d.lastGain = g

	frames := len(dst) / channels
	if !d.smoothing.Load() || from == g || frames == 0 {
		scale := float32(g)
		for i := range dst {
			dst[i] *= scale
		}
		return
	}

	delta := (g - from) / float64(frames)
	for f := range frames {
		scale := float32(from + delta*float64(f+1))
		for c := range channels {
			dst[f*channels+c] *= scale
		}
	}
}
