// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis.
//
// The library already produces interleaved float32, so samples are decoded
// directly into the caller's slice.
package vorbis
