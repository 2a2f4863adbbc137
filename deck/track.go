// SPDX-License-Identifier: EPL-2.0

package deck

import (
	"math"

	"github.com/google/uuid"

	"github.com/ik5/audmix/audio"
)

// Track is a loaded buffer plus the metadata shown to the operator.
// A Track is never modified after it has been handed to a Deck.
type Track struct {
	ID uuid.UUID

	// Buffer is what the deck plays.
	Buffer *audio.Buffer
	// Source is the buffer as originally loaded. Tempo sync always
	// resamples from it so repeated syncs do not compound.
	Source *audio.Buffer

	Label string
	// BPM is the estimated tempo of Source, 0 when unknown.
	BPM float64
	// Synced is set on tracks produced by tempo sync.
	Synced bool
}

// NewTrack wraps buf as a freshly loaded track.
func NewTrack(buf *audio.Buffer, bpm float64, label string) *Track {
	if !(bpm > 0) || math.IsInf(bpm, 1) {
		bpm = 0
	}

	return &Track{
		ID:     uuid.New(),
		Buffer: buf,
		Source: buf,
		Label:  label,
		BPM:    bpm,
	}
}

// WithBuffer returns a copy of t playing buf, keeping the identity, label
// and BPM label.
func (t *Track) WithBuffer(buf *audio.Buffer) *Track {
	cp := *t
	cp.Buffer = buf
	cp.Synced = true
	return &cp
}
