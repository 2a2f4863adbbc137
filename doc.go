// SPDX-License-Identifier: EPL-2.0

// Package audmix is a two-deck DJ mixing engine.
//
// Two decks each hold a decoded track in memory and play it at a tempo
// offset. A crossfader blends them into one output stream, and deck B can
// be resampled so its BPM matches deck A. Everything happens in the audio
// callback with no locks on the realtime path.
//
// The pieces live in subpackages:
//
//   - audio: buffers, decoder registry, block resampling and rate conversion
//   - formats: WAV, AIFF, MP3 and Ogg Vorbis decoders, and a WAV encoder
//   - deck, mixer: the playback lanes and the crossfading mix
//   - engine: the callback-driven stream lifecycle and fault isolation
//   - output: PortAudio, oto and headless backends for the engine
//   - control: the command surface, including background file loads
//   - server: an HTTP and WebSocket front end for control
//   - config: YAML and environment settings
//
// A minimal live setup:
//
//	m, _ := mixer.New(44100, 2, 512)
//	backend, _ := output.New(output.Auto, logger)
//	e := engine.New(backend, m, logger)
//	ctl := control.New(m, control.WithEngine(e))
//	defer ctl.Close()
//
//	_ = e.Open(44100, 2, 512)
//	_ = e.Start()
//	_ = ctl.LoadFile(ctx, control.A, "a.mp3", 124)
//	_, _ = ctl.PlayPause(control.A)
//
// This package adds Mixdown, which bounces the mixer to a WAV file
// without a sound card.
package audmix
