// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	x = ClipSample(x)

	// 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Int16ToFloat32 scales a 16-bit PCM sample to [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// ClipSample hard-clips a float sample to the [-1, 1] output range.
func ClipSample(x float32) float32 {
	if x > 1 {
		return 1
	} else if x < -1 {
		return -1
	}
	return x
}

// Clamp limits v to [lo, hi]. NaN is mapped to lo.
func Clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PCMScale is the magnitude of full scale for signed integer PCM of the
// given bit depth. Unknown depths are treated as 16-bit.
func PCMScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

// IntToFloat32 scales a signed integer PCM sample to [-1, 1).
func IntToFloat32(v, bitDepth int) float32 {
	return float32(v) / PCMScale(bitDepth)
}

// Float32ToInt clips x and scales it to signed integer PCM of the given
// bit depth, mirroring Float32ToInt16 for other widths.
func Float32ToInt(x float32, bitDepth int) int {
	if bitDepth == 16 {
		return int(Float32ToInt16(x))
	}
	x = ClipSample(x)
	return int(float64(x) * float64(PCMScale(bitDepth)-1))
}
