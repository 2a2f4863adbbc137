// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files through
// github.com/go-audio/aiff.
//
// Samples of 8, 16, 24 and 32 bits are scaled to float32 in [-1, 1).
// The go-audio decoder needs to seek, so readers that cannot are buffered
// in memory first.
package aiff
