// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	ErrMissingTrack = errors.New("both decks need a loaded track")
	ErrMissingBPM   = errors.New("both decks need a known BPM")
	// ErrBPMOutOfRange means the two BPMs are too far apart to match by
	// resampling, see MinSyncRatio and MaxSyncRatio.
	ErrBPMOutOfRange = errors.New("BPM ratio out of sync range")
	// ErrSuperseded means a newer load replaced the track a result was
	// computed from, so the result was discarded.
	ErrSuperseded = errors.New("superseded by a later load")
)
