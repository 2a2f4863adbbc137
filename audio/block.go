// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"
	"strings"

	"github.com/ik5/audmix/utils"
)

// Interpolation selects how fractional source positions are read.
type Interpolation int

const (
	// Nearest truncates the position to the frame below it.
	Nearest Interpolation = iota
	// Linear blends the two frames around the position.
	Linear
)

func (i Interpolation) String() string {
	switch i {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// ParseInterpolation accepts "nearest" or "linear" in any case.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest", "":
		return Nearest, nil
	case "linear":
		return Linear, nil
	}
	return Nearest, fmt.Errorf("unknown interpolation %q", s)
}

// Block fills dst with frames read from buf starting at the fractional frame
// pos and advancing step source frames per output frame. Output frame i is
// taken from pos+i*step, computed directly so rounding error does not build
// up over a block. dst holds interleaved frames of the given channel count;
// source channels are mapped onto it (mono duplicated, mixed down to mono by
// averaging, otherwise channel c reads source channel c modulo the source
// count).
//
// It returns the number of frames written. A short count means the end of
// buf was reached; the rest of dst is left untouched. Block does not
// allocate.
func Block(buf *Buffer, pos, step float64, interp Interpolation, dst []float32, channels int) (int, error) {
	if channels <= 0 {
		return 0, ErrInvalidChannels
	}
	if len(dst)%channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !(step > 0) || math.IsInf(step, 1) {
		return 0, ErrInvalidStep
	}
	if !(pos >= 0) || math.IsInf(pos, 1) {
		return 0, ErrInvalidPosition
	}

	total := buf.Frames()
	want := len(dst) / channels

	for i := range want {
		p := pos + float64(i)*step
		idx := int(p)
		if p >= float64(total) || idx >= total {
			return i, nil
		}

		out := dst[i*channels : (i+1)*channels]
		if interp == Linear && idx+1 < total {
			frac := float32(p - float64(idx))
			for c := range out {
				out[c] = utils.Lerp(buf.mapped(idx, c, channels), buf.mapped(idx+1, c, channels), frac)
			}
			continue
		}

		for c := range out {
			out[c] = buf.mapped(idx, c, channels)
		}
	}

	return want, nil
}

// MaxSamples caps the interleaved length of a buffer built by Stretch or
// ConvertRate, about 8 GiB of float32.
const MaxSamples = math.MaxInt32

// StretchedLen returns how many output frames reading frames source frames
// at step produces: ceil(frames/step), with quotients that land within
// floating point noise of a whole number rounded to it. Results past
// math.MaxInt saturate.
func StretchedLen(frames int, step float64) int {
	if frames <= 0 || !(step > 0) || math.IsInf(step, 1) {
		return 0
	}

	x := float64(frames) / step
	if x >= math.MaxInt {
		return math.MaxInt
	}
	r := math.Round(x)
	if math.Abs(x-r) < 1e-9*math.Max(1, x) {
		return int(r)
	}
	return int(math.Ceil(x))
}

// Stretch renders a new buffer by reading buf at step source frames per
// output frame. A step above 1 shortens the audio and raises its pitch.
// The result keeps buf's channel count and sample rate.
func Stretch(buf *Buffer, step float64, interp Interpolation) (*Buffer, error) {
	if !(step > 0) || math.IsInf(step, 1) {
		return nil, ErrInvalidStep
	}

	frames := StretchedLen(buf.Frames(), step)
	if frames > MaxSamples/buf.channels {
		return nil, fmt.Errorf("%w: %d frames x %d channels", ErrTooLong, frames, buf.channels)
	}
	out := make([]float32, frames*buf.channels)

	n, err := Block(buf, 0, step, interp, out, buf.channels)
	if err != nil {
		return nil, err
	}

	// guard the last frame against pos+i*step rounding onto the end
	if n < frames {
		last := buf.Frames() - 1
		for i := n; i < frames; i++ {
			copy(out[i*buf.channels:(i+1)*buf.channels], buf.samples[last*buf.channels:])
		}
	}

	return NewBuffer(out, buf.channels, buf.sampleRate)
}
