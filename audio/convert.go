// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"

	"github.com/ik5/audmix/utils"
)

// lowPassAlpha is the coefficient of the one-pole filter applied before
// downsampling: y[n] = a*x[n] + (1-a)*y[n-1].
const lowPassAlpha = 0.5

// ConvertRate returns buf resampled to rate using cubic interpolation.
// When rate is lower than the buffer's, a simple low-pass filter runs first
// to reduce aliasing. A buffer already at rate is returned as is.
func ConvertRate(buf *Buffer, rate int) (*Buffer, error) {
	if rate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if buf.sampleRate == rate || buf.Frames() == 0 {
		return NewBuffer(buf.samples, buf.channels, rate)
	}

	ch := buf.channels
	src := buf.samples
	ratio := float64(buf.sampleRate) / float64(rate)

	outFrames := StretchedLen(buf.Frames(), ratio)
	if outFrames > MaxSamples/ch {
		return nil, fmt.Errorf("%w: %d frames x %d channels", ErrTooLong, outFrames, ch)
	}

	if ratio > 1 {
		filtered := make([]float32, len(src))
		copy(filtered[:ch], src[:ch])
		for i := ch; i < len(src); i++ {
			filtered[i] = lowPassAlpha*src[i] + (1-lowPassAlpha)*filtered[i-ch]
		}
		src = filtered
	}

	inFrames := len(src) / ch
	out := make([]float32, outFrames*ch)

	at := func(i, c int) float32 {
		i = min(max(i, 0), inFrames-1)
		return src[i*ch+c]
	}

	for i := range outFrames {
		p := float64(i) * ratio
		idx := int(p)
		frac := float32(p - float64(idx))

		for c := range ch {
			out[i*ch+c] = utils.CubicInterpolate(
				at(idx-1, c), at(idx, c), at(idx+1, c), at(idx+2, c), frac,
			)
		}
	}

	return NewBuffer(out, ch, rate)
}
