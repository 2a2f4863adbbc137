// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/audmix/audio"
)

// mockOggVorbisReader behaves like oggvorbis.Reader: Read fills whole
// frames and returns the number of values written.
type mockOggVorbisReader struct {
	sampleRate int
	channels   int
	samples    []float32
	offset     int
	maxFrames  int
	err        error
}

func (m *mockOggVorbisReader) SampleRate() int { return m.sampleRate }
func (m *mockOggVorbisReader) Channels() int   { return m.channels }

func (m *mockOggVorbisReader) Read(buf []float32) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	frames := len(buf) / m.channels
	if m.maxFrames > 0 {
		frames = min(frames, m.maxFrames)
	}
	n := copy(buf[:frames*m.channels], m.samples[m.offset:])
	m.offset += n

	return n, nil
}

func newSource(m *mockOggVorbisReader) *source {
	return &source{dec: m, sampleRate: m.sampleRate, channels: m.channels, bufSize: 4096}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not Ogg Vorbis data")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); err == nil {
			t.Errorf("Decode(%q) error = nil, want error", data)
		}
	}
}

// Read reports values, so a stereo read of four frames is eight samples
// and nothing past them is touched.
func TestSource_ReadSamples_CountsValues(t *testing.T) {
	t.Parallel()

	in := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	src := newSource(&mockOggVorbisReader{sampleRate: 8000, channels: 2, samples: in})

	dst := make([]float32, 12)
	for i := range dst {
		dst[i] = -9
	}

	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != len(in) {
		t.Fatalf("ReadSamples() n = %d, want %d", n, len(in))
	}
	for i, want := range in {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
	for i := len(in); i < len(dst); i++ {
		if dst[i] != -9 {
			t.Errorf("dst[%d] = %v, written past the decoded data", i, dst[i])
		}
	}
}

func TestSource_ReadSamples_WholeFrames(t *testing.T) {
	t.Parallel()

	src := newSource(&mockOggVorbisReader{sampleRate: 8000, channels: 3, samples: make([]float32, 30)})

	n, err := src.ReadSamples(make([]float32, 10))
	if err != nil || n != 9 {
		t.Errorf("ReadSamples(10) on 3 channels = (%d, %v), want (9, nil)", n, err)
	}

	n, err = src.ReadSamples(make([]float32, 2))
	if err != nil || n != 0 {
		t.Errorf("ReadSamples() smaller than a frame = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSource_ReadAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
	}{
		{name: "mono", channels: 1},
		{name: "stereo", channels: 2},
		{name: "5.1", channels: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := make([]float32, 1000*tt.channels)
			for i := range in {
				in[i] = float32(i%tt.channels) / 10
			}
			src := newSource(&mockOggVorbisReader{
				sampleRate: 48000, channels: tt.channels, samples: in, maxFrames: 333,
			})

			buf, err := audio.ReadAll(src)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if buf.Frames() != 1000 || buf.Channels() != tt.channels {
				t.Fatalf("got %d frames x %d, want 1000 x %d", buf.Frames(), buf.Channels(), tt.channels)
			}
			for c := range tt.channels {
				if got, want := buf.At(999, c), float32(c)/10; got != want {
					t.Errorf("last frame channel %d = %v, want %v", c, got, want)
				}
			}
		})
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	src := newSource(&mockOggVorbisReader{sampleRate: 8000, channels: 2, err: io.ErrUnexpectedEOF})

	if _, err := src.ReadSamples(make([]float32, 8)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want wrapped ErrUnexpectedEOF", err)
	}
}

func TestSource_EOF(t *testing.T) {
	t.Parallel()

	src := newSource(&mockOggVorbisReader{sampleRate: 8000, channels: 1})

	n, err := src.ReadSamples(make([]float32, 8))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() on empty stream = (%d, %v), want (0, EOF)", n, err)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	in := make([]float32, 1<<16)
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		src := newSource(&mockOggVorbisReader{sampleRate: 44100, channels: 2, samples: in})
		for {
			if _, err := src.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
