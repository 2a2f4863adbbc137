// SPDX-License-Identifier: EPL-2.0

// Package deck implements a single playback lane of the mixer.
//
// A Deck holds a Track, a fractional read cursor, a tempo, a volume and a
// transport state:
//
//	empty -> stopped -> playing <-> paused -> stopped -> playing
//
// Every control method is safe to call while the audio callback is running
// Advance. Scalar parameters are atomics and take effect at the next block.
// A new track is published through an atomic pointer; the callback notices
// the new pointer at the start of its next block and rewinds its cursor, so
// it never reads one track with a cursor meant for another. Old buffers are
// left to the garbage collector once the callback has moved past them.
//
// Tempo is continuous: SetTempo(p) plays at 2^(p/100) times the normal
// speed from the next block on, shifting pitch with it.
package deck
