// SPDX-License-Identifier: EPL-2.0

// Package mixer combines two decks into one output stream.
//
// RenderBlock is called once per audio callback. It advances deck A with
// gain 1-x and deck B with gain x, where x is the crossfader position, sums
// the two and hard clips the result to [-1, 1]. Scratch blocks are sized up
// front so the common path does not allocate.
//
// SyncBToA is the one-shot tempo match: it resamples deck B's track by the
// ratio of the two decks' BPM values and hands the result to deck B. It is
// meant for the control side, never the callback.
package mixer
