// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"

	"github.com/ik5/audmix/audio"
)

// Sync ratios bpmA/bpmB are limited to the span of the tempo control,
// half to double speed.
const (
	MinSyncRatio = 0.5
	MaxSyncRatio = 2.0
)

// SyncBToA matches deck B's tempo to deck A's by resampling B's track at
// step bpmA/bpmB. The new buffer keeps B's sample rate so it plays faster or
// slower, with pitch following. B restarts from the top, at 0% tempo, and
// keeps playing if it was.
//
// Both decks need a track (ErrMissingTrack) and a BPM (ErrMissingBPM);
// nothing changes when either is missing, or when bpmA/bpmB falls outside
// [MinSyncRatio, MaxSyncRatio] (ErrBPMOutOfRange). The resample runs on the
// calling goroutine. If B is reloaded meanwhile the result is dropped and
// ErrSuperseded returned.
func (m *Mixer) SyncBToA() (float64, error) {
	ta, tb := m.a.Track(), m.b.Track()
	if ta == nil || tb == nil {
		return 0, ErrMissingTrack
	}
	if ta.BPM <= 0 || tb.BPM <= 0 {
		return 0, ErrMissingBPM
	}

	ratio := ta.BPM / tb.BPM
	if !(ratio >= MinSyncRatio && ratio <= MaxSyncRatio) {
		return 0, fmt.Errorf("%w: %g/%g = %g, want [%g, %g]",
			ErrBPMOutOfRange, ta.BPM, tb.BPM, ratio, MinSyncRatio, MaxSyncRatio)
	}

	buf, err := audio.Stretch(tb.Source, ratio, m.interp)
	if err != nil {
		return 0, fmt.Errorf("resampling deck B by %.4f: %w", ratio, err)
	}

	if !m.b.Install(tb, tb.WithBuffer(buf)) {
		return 0, ErrSuperseded
	}

	return ratio, nil
}
