// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audmix/audio"
)

// createAIFFFile builds a FORM/AIFF stream with a COMM and an SSND chunk
// holding 16-bit big-endian samples.
func createAIFFFile(sampleRate, channels int, samples []int16) []byte {
	comm := new(bytes.Buffer)
	binary.Write(comm, binary.BigEndian, int16(channels))
	binary.Write(comm, binary.BigEndian, uint32(len(samples)/channels))
	binary.Write(comm, binary.BigEndian, int16(16))
	comm.Write(extended(sampleRate))

	ssnd := new(bytes.Buffer)
	binary.Write(ssnd, binary.BigEndian, uint32(0)) // offset
	binary.Write(ssnd, binary.BigEndian, uint32(0)) // block size
	binary.Write(ssnd, binary.BigEndian, samples)

	body := new(bytes.Buffer)
	body.WriteString("AIFF")
	body.WriteString("COMM")
	binary.Write(body, binary.BigEndian, uint32(comm.Len()))
	body.Write(comm.Bytes())
	body.WriteString("SSND")
	binary.Write(body, binary.BigEndian, uint32(ssnd.Len()))
	body.Write(ssnd.Bytes())

	out := new(bytes.Buffer)
	out.WriteString("FORM")
	binary.Write(out, binary.BigEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

// extended encodes a positive integer rate as an 80-bit IEEE 754 extended.
func extended(rate int) []byte {
	exp := bits.Len(uint(rate)) - 1
	b := make([]byte, 10)
	binary.BigEndian.PutUint16(b, uint16(16383+exp))
	binary.BigEndian.PutUint64(b[2:], uint64(rate)<<(63-exp))
	return b
}

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	data := createAIFFFile(44100, 2, []int16{0, 0, 16384, -16384, 8192, -8192})

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 44100 || src.Channels() != 2 {
		t.Fatalf("format = %d Hz x %d, want 44100 Hz x 2", src.SampleRate(), src.Channels())
	}

	buf, err := audio.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := []float32{0, 0, 0.5, -0.5, 0.25, -0.25}
	if buf.Frames() != 3 {
		t.Fatalf("Frames() = %d, want 3", buf.Frames())
	}
	for i, w := range want {
		if got := buf.Samples()[i]; got != w {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	data := createAIFFFile(8000, 1, []int16{1, 2, 3, 4})

	src, err := Decoder{}.Decode(struct{ io.Reader }{bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", src.SampleRate())
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not AIFF data")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); !errors.Is(err, ErrNotAiffFile) {
			t.Errorf("Decode(%q) error = %v, want ErrNotAiffFile", data, err)
		}
	}
}

// mockAiffReader simulates the aiff.Decoder for testing
type mockAiffReader struct {
	samples []int
	offset  int
	err     error
}

func (m *mockAiffReader) Format() *goaudio.Format {
	return &goaudio.Format{SampleRate: 44100, NumChannels: 1}
}

func (m *mockAiffReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestSource_BitDepthNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		depth  int
		sample int
	}{
		{depth: 8, sample: -64},
		{depth: 16, sample: -16384},
		{depth: 24, sample: -4194304},
		{depth: 32, sample: -1073741824},
	}

	for _, tt := range tests {
		s := &source{dec: &mockAiffReader{samples: []int{tt.sample}}, channels: 1, bitDepth: tt.depth}

		dst := make([]float32, 1)
		if _, err := s.ReadSamples(dst); err != nil {
			t.Fatalf("%d bit: ReadSamples() error = %v", tt.depth, err)
		}
		if dst[0] != -0.5 {
			t.Errorf("%d bit: sample = %v, want -0.5", tt.depth, dst[0])
		}
	}
}

func TestSource_ReadSamples_ShortReadIsEOF(t *testing.T) {
	t.Parallel()

	s := &source{dec: &mockAiffReader{samples: []int{1, 2, 3}}, channels: 1, bitDepth: 16}

	n, err := s.ReadSamples(make([]float32, 8))
	if n != 3 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() = (%d, %v), want (3, EOF)", n, err)
	}

	n, err = s.ReadSamples(make([]float32, 8))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after end = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	s := &source{dec: &mockAiffReader{err: io.ErrUnexpectedEOF}, channels: 1, bitDepth: 16}

	if _, err := s.ReadSamples(make([]float32, 4)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want wrapped ErrUnexpectedEOF", err)
	}
}

func TestSource_BufSize(t *testing.T) {
	t.Parallel()

	s := &source{dec: &mockAiffReader{samples: make([]int, 10000)}, channels: 1, bitDepth: 16}
	if s.BufSize() != 4096 {
		t.Errorf("BufSize() before reading = %d, want 4096", s.BufSize())
	}

	s.ReadSamples(make([]float32, 100))
	if s.BufSize() != 100 {
		t.Errorf("BufSize() = %d, want 100", s.BufSize())
	}

	// smaller reads reuse the buffer
	s.ReadSamples(make([]float32, 10))
	if s.BufSize() != 100 {
		t.Errorf("BufSize() after smaller read = %d, want 100", s.BufSize())
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int, 1<<16)
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		s := &source{dec: &mockAiffReader{samples: samples}, channels: 2, bitDepth: 16}
		for {
			if _, err := s.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
