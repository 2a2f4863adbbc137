// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrDevice wraps failures of the audio backend to open or start.
	ErrDevice = errors.New("audio device error")
	// ErrRenderFault marks a block the renderer failed to produce.
	ErrRenderFault = errors.New("render fault")

	ErrNotOpen     = errors.New("engine is not open")
	ErrAlreadyOpen = errors.New("engine is already open")
	ErrClosed      = errors.New("engine is closed")
	ErrNotRunning  = errors.New("stream is not running")
)
