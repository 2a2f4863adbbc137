// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample level building blocks of the mixer.
//
// # Sources and Buffers
//
// Decoders produce a Source, a stream of interleaved float32 samples in
// [-1, 1]. ReadAll drains a Source into a Buffer, an immutable in-memory
// track that can be shared between goroutines by pointer:
//
//	src, _ := wav.Decoder{}.Decode(f)
//	buf, err := audio.ReadAll(src)
//
// # Step Resampling
//
// Block reads a Buffer at an arbitrary fractional position and step,
// writing one output frame per step:
//
//	out[i] = buf[floor(pos + i*step)]
//
// The step combines playback tempo with the ratio between the buffer's rate
// and the output rate. Block is allocation free and is what decks call from
// the audio callback. Linear interpolation is available as an option.
//
// Stretch renders a whole Buffer at a fixed step, which is how tempo sync
// produces a new track:
//
//	faster, _ := audio.Stretch(buf, 1.2, audio.Nearest)
//	// faster.Frames() == audio.StretchedLen(buf.Frames(), 1.2)
//
// # Rate Conversion
//
// ConvertRate resamples a Buffer to a new sample rate with cubic
// interpolation, low-pass filtering first when downsampling.
//
// # Format Registry
//
// The registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register(wav.Decoder{}, "wav", "wave")
//	decoder, ok := registry.Lookup("track.WAV")
package audio
