// SPDX-License-Identifier: EPL-2.0

package audio

import "math"

// Peaks splits buf into n equal spans and returns the largest absolute
// sample of each, across all channels. It is meant for waveform overviews.
func Peaks(buf *Buffer, n int) []float32 {
	frames := buf.Frames()
	if n <= 0 || frames == 0 {
		return nil
	}
	n = min(n, frames)

	peaks := make([]float32, n)
	for i := range peaks {
		start := i * frames / n
		end := (i + 1) * frames / n

		var peak float64
		for _, s := range buf.samples[start*buf.channels : end*buf.channels] {
			peak = math.Max(peak, math.Abs(float64(s)))
		}
		peaks[i] = float32(peak)
	}

	return peaks
}

// Envelope splits frames [from, to) of buf into n equal spans and returns
// the lowest and highest sample of each, across all channels. The range is
// clamped to the buffer.
func Envelope(buf *Buffer, from, to, n int) (lo, hi []float32) {
	from = max(from, 0)
	to = min(to, buf.Frames())
	frames := to - from
	if n <= 0 || frames <= 0 {
		return nil, nil
	}
	n = min(n, frames)

	lo = make([]float32, n)
	hi = make([]float32, n)
	for i := range n {
		start := from + i*frames/n
		end := from + (i+1)*frames/n

		span := buf.samples[start*buf.channels : end*buf.channels]
		lo[i], hi[i] = span[0], span[0]
		for _, s := range span[1:] {
			lo[i] = min(lo[i], s)
			hi[i] = max(hi[i], s)
		}
	}

	return lo, hi
}
