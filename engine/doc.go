// SPDX-License-Identifier: EPL-2.0

// Package engine runs the realtime side of the mixer.
//
// An Engine connects a Renderer (normally *mixer.Mixer) to a Backend, the
// thing that owns the output stream and calls back for audio. The engine
// guards the callback: if rendering returns an error or panics, the block
// is replaced with silence, the fault is counted and a reporter goroutine
// logs it. The stream itself keeps going.
//
//	e := engine.New(backend, mix, logger)
//	if err := e.Open(44100, 2, 512); err != nil {
//	    // errors.Is(err, engine.ErrDevice)
//	}
//	_ = e.Start()
//	defer e.Close()
//
// Offline and Loopback are backends without hardware. Hardware backends
// live in the output packages.
package engine
