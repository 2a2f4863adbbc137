// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrInvalidChannels   = errors.New("channel count must be positive")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrPartialFrame      = errors.New("sample count must be multiple of channels")

	// ErrInvalidStep is returned for a zero, negative or non-finite step.
	// Reverse or frozen playback is not supported.
	ErrInvalidStep     = errors.New("step must be a positive finite number")
	ErrInvalidPosition = errors.New("position must be a non-negative finite number")
	// ErrTooLong is returned when a resampled buffer would exceed
	// MaxSamples.
	ErrTooLong = errors.New("resampled buffer too long")
)
