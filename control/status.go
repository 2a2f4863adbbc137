// SPDX-License-Identifier: EPL-2.0

package control

import (
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/engine"
)

// DefaultWaveformWindow is the span of audio shown around the playhead.
const DefaultWaveformWindow = 5 * time.Second

type DeckStatus struct {
	ID       DeckID  `json:"id"`
	State    string  `json:"state"`
	TrackID  string  `json:"track_id,omitempty"`
	Label    string  `json:"label,omitempty"`
	BPM      float64 `json:"bpm,omitempty"`
	Synced   bool    `json:"synced"`
	Volume   float64 `json:"volume"`
	Tempo    float64 `json:"tempo"`
	Loop     bool    `json:"loop"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

// Status is a point-in-time snapshot. Fields of different decks are read
// independently and may be a block apart.
type Status struct {
	Decks      []DeckStatus  `json:"decks"`
	Crossfade  float64       `json:"crossfade"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Engine     *engine.Stats `json:"engine,omitempty"`
}

func (c *Controller) DeckStatus(id DeckID) (DeckStatus, error) {
	d, err := c.deck(id)
	if err != nil {
		return DeckStatus{}, err
	}

	st := DeckStatus{
		ID:       id,
		State:    d.State().String(),
		Volume:   d.Volume(),
		Tempo:    d.Tempo(),
		Loop:     d.Loop(),
		Position: d.Seconds(),
		Duration: d.Duration().Seconds(),
	}
	if t := d.Track(); t != nil {
		st.TrackID = t.ID.String()
		st.Label = t.Label
		st.BPM = t.BPM
		st.Synced = t.Synced
	}

	return st, nil
}

func (c *Controller) Status() Status {
	st := Status{
		Decks:      make([]DeckStatus, 0, len(Decks)),
		Crossfade:  c.mixer.Crossfade(),
		SampleRate: c.mixer.SampleRate(),
		Channels:   c.mixer.Channels(),
	}
	for _, id := range Decks {
		ds, _ := c.DeckStatus(id)
		st.Decks = append(st.Decks, ds)
	}
	if c.engine != nil {
		stats := c.engine.Stats()
		st.Engine = &stats
	}

	return st
}

// DeckPosition is the light-weight playhead report pushed to live views.
type DeckPosition struct {
	ID       DeckID  `json:"id"`
	State    string  `json:"state"`
	Position float64 `json:"position"`
}

func (c *Controller) Positions() []DeckPosition {
	out := make([]DeckPosition, 0, len(Decks))
	for _, id := range Decks {
		d, _ := c.deck(id)
		out = append(out, DeckPosition{ID: id, State: d.State().String(), Position: d.Seconds()})
	}
	return out
}

// Waveform is a min/max envelope of the audio around a deck's playhead.
// Start and End are in seconds of the current track buffer.
type Waveform struct {
	ID       DeckID    `json:"id"`
	Position float64   `json:"position"`
	Start    float64   `json:"start"`
	End      float64   `json:"end"`
	Min      []float32 `json:"min"`
	Max      []float32 `json:"max"`
}

// Waveform returns bins min/max pairs covering window centered on the
// playhead. A window of zero or less means DefaultWaveformWindow. An empty
// deck yields an empty waveform.
func (c *Controller) Waveform(id DeckID, window time.Duration, bins int) (Waveform, error) {
	d, err := c.deck(id)
	if err != nil {
		return Waveform{}, err
	}
	if window <= 0 {
		window = DefaultWaveformWindow
	}

	w := Waveform{ID: id, Position: d.Seconds()}

	t := d.Track()
	if t == nil || bins <= 0 {
		return w, nil
	}

	rate := float64(t.Buffer.SampleRate())
	center := int(w.Position * rate)
	half := int(window.Seconds() * rate / 2)

	from := max(center-half, 0)
	to := min(center+half, t.Buffer.Frames())

	w.Start = float64(from) / rate
	w.End = float64(to) / rate
	w.Min, w.Max = audio.Envelope(t.Buffer, from, to, bins)

	return w, nil
}

// Overview returns bins peak magnitudes spanning the whole track on the
// deck, or nil for an empty deck.
func (c *Controller) Overview(id DeckID, bins int) ([]float32, error) {
	d, err := c.deck(id)
	if err != nil {
		return nil, err
	}

	t := d.Track()
	if t == nil {
		return nil, nil
	}
	return audio.Peaks(t.Buffer, bins), nil
}
