// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so mono files come out with both
// channels equal. The sample rate is the file's own.
package mp3
