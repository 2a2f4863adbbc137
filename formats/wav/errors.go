// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	// ErrUnsupportedFormat is returned for compressed and floating point
	// WAV files. Only integer PCM is decoded.
	ErrUnsupportedFormat   = errors.New("unsupported WAV audio format")
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
	ErrEncoderClosed       = errors.New("WAV encoder already closed")
	ErrNilBuffer           = errors.New("nil audio buffer")
)
