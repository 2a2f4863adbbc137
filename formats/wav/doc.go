// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes integer PCM WAV files on top of
// github.com/go-audio/wav.
//
// The Decoder accepts 8, 16, 24 and 32-bit PCM with any channel count and
// sample rate and yields float32 samples in [-1, 1). Inputs that cannot
// seek are buffered in memory first, since the chunk walker needs to seek.
//
//	src, err := wav.Decoder{}.Decode(file)
//	buf, err := audio.ReadAll(src)
//
// The Encoder goes the other way. Mixdowns stream blocks into it:
//
//	enc, err := wav.NewEncoder(file, 44100, 2, 16)
//	for ... {
//	    err = enc.Write(block)
//	}
//	err = enc.Close()
//
// Close patches the RIFF and data chunk sizes, so the writer must be
// seekable. Encode is a shortcut for a whole audio.Buffer.
package wav
