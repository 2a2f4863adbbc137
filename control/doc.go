// SPDX-License-Identifier: EPL-2.0

// Package control is the command surface of the mixer: loading tracks,
// transport, volume, tempo, crossfade and BPM sync.
//
// A Controller owns one Mixer and, optionally, the Engine playing it. Every
// method is safe to call from any goroutine. Commands only write atomics
// on the decks, so they never wait on the audio callback. Loading a file
// does the slow work (decode, rate conversion) on the caller's goroutine,
// or on a worker with LoadFileAsync, then hands the finished buffer over
// in one step.
//
// Loads for the same deck are last-writer-wins: when two overlap, the
// earlier one returns ErrSuperseded and its buffer is never installed.
package control
