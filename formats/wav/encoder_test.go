// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audmix/audio"
)

func createTemp(t *testing.T) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	return f
}

func TestEncoder_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{8, 16, 24, 32} {
		t.Run(fmt.Sprintf("%d bit", bits), func(t *testing.T) {
			t.Parallel()

			f := createTemp(t)
			enc, err := NewEncoder(f, 48000, 2, bits)
			if err != nil {
				t.Fatalf("NewEncoder() error = %v", err)
			}

			in := []float32{0, 0, 0.5, -0.5, 0.25, -0.25}
			// written across two calls
			if err := enc.Write(in[:2]); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := enc.Write(in[2:]); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if enc.Frames() != 3 {
				t.Errorf("Frames() = %d, want 3", enc.Frames())
			}
			if err := enc.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			if _, err := f.Seek(0, 0); err != nil {
				t.Fatal(err)
			}
			src, err := Decoder{}.Decode(f)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			buf, err := audio.ReadAll(src)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}

			if buf.SampleRate() != 48000 || buf.Channels() != 2 || buf.Frames() != 3 {
				t.Fatalf("decoded %d Hz x %d, %d frames; want 48000 x 2, 3",
					buf.SampleRate(), buf.Channels(), buf.Frames())
			}

			tol := 2.0 / float64(int(1)<<(bits-1))
			for i, want := range in {
				got := buf.Samples()[i]
				if math.Abs(float64(got-want)) > tol {
					t.Errorf("sample %d = %v, want %v (±%g)", i, got, want, tol)
				}
			}
		})
	}
}

func TestEncoder_Clips(t *testing.T) {
	t.Parallel()

	f := createTemp(t)
	if err := Encode(f, mustBuffer(t, []float32{3, -3}, 1), 16); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	src, err := Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	buf, err := audio.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if got := buf.Samples(); got[0] > 1 || got[0] < 0.999 || got[1] < -1 || got[1] > -0.999 {
		t.Errorf("clipped samples = %v, want ~[1 -1]", got)
	}
}

func TestEncoder_Errors(t *testing.T) {
	t.Parallel()

	f := createTemp(t)

	if _, err := NewEncoder(f, 0, 2, 16); !errors.Is(err, audio.ErrInvalidSampleRate) {
		t.Errorf("zero rate error = %v, want ErrInvalidSampleRate", err)
	}
	if _, err := NewEncoder(f, 44100, 0, 16); !errors.Is(err, audio.ErrInvalidChannels) {
		t.Errorf("zero channels error = %v, want ErrInvalidChannels", err)
	}
	if _, err := NewEncoder(f, 44100, 2, 12); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("12 bit error = %v, want ErrUnsupportedBitDepth", err)
	}
	if err := Encode(f, nil, 16); !errors.Is(err, ErrNilBuffer) {
		t.Errorf("Encode(nil) error = %v, want ErrNilBuffer", err)
	}

	enc, err := NewEncoder(f, 44100, 2, 16)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.Write(make([]float32, 3)); !errors.Is(err, audio.ErrPartialFrame) {
		t.Errorf("odd sample count error = %v, want ErrPartialFrame", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if err := enc.Write(make([]float32, 2)); !errors.Is(err, ErrEncoderClosed) {
		t.Errorf("Write after Close error = %v, want ErrEncoderClosed", err)
	}
}

func TestEncoder_EmptyStreamHasHeader(t *testing.T) {
	t.Parallel()

	f := createTemp(t)
	enc, err := NewEncoder(f, 44100, 2, 16)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 44 {
		t.Errorf("empty WAV is %d bytes, want a 44 byte header", info.Size())
	}
}

func mustBuffer(t *testing.T, samples []float32, channels int) *audio.Buffer {
	t.Helper()

	buf, err := audio.NewBuffer(samples, channels, 8000)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	return buf
}
