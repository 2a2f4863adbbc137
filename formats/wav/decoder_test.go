// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audmix/audio"
)

// createWAVFile builds a canonical 44-byte header WAV around samples packed
// little-endian at the given width. 8-bit samples are written unsigned.
func createWAVFile(format uint16, sampleRate, channels, bitsPerSample int, samples []int) []byte {
	buf := new(bytes.Buffer)

	width := bitsPerSample / 8
	numChannels := uint16(channels)
	byteRate := uint32(sampleRate * channels * width)
	blockAlign := uint16(channels * width)
	dataSize := uint32(len(samples) * width)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, format)
	binary.Write(buf, binary.LittleEndian, numChannels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)

	for _, s := range samples {
		switch width {
		case 1:
			buf.WriteByte(byte(s + 128))
		case 2:
			binary.Write(buf, binary.LittleEndian, int16(s))
		case 3:
			v := uint32(int32(s))
			buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
		case 4:
			binary.Write(buf, binary.LittleEndian, int32(s))
		}
	}

	return buf.Bytes()
}

func decodeAll(t *testing.T, data []byte) *audio.Buffer {
	t.Helper()

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	buf, err := audio.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return buf
}

func TestDecoder_BitDepths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bits    int
		samples []int
	}{
		{bits: 8, samples: []int{0, 64, -64, -128}},
		{bits: 16, samples: []int{0, 16384, -16384, -32768}},
		{bits: 24, samples: []int{0, 4194304, -4194304, -8388608}},
		{bits: 32, samples: []int{0, 1073741824, -1073741824, math.MinInt32}},
	}
	want := []float32{0, 0.5, -0.5, -1}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d bit", tt.bits), func(t *testing.T) {
			t.Parallel()

			buf := decodeAll(t, createWAVFile(formatPCM, 8000, 1, tt.bits, tt.samples))

			if buf.SampleRate() != 8000 || buf.Channels() != 1 {
				t.Fatalf("format = %d Hz x %d, want 8000 Hz x 1", buf.SampleRate(), buf.Channels())
			}
			if buf.Frames() != len(want) {
				t.Fatalf("Frames() = %d, want %d", buf.Frames(), len(want))
			}
			for i, w := range want {
				if got := buf.At(i, 0); math.Abs(float64(got-w)) > 1e-6 {
					t.Errorf("sample %d = %v, want %v", i, got, w)
				}
			}
		})
	}
}

func TestDecoder_Stereo(t *testing.T) {
	t.Parallel()

	buf := decodeAll(t, createWAVFile(formatPCM, 44100, 2, 16, []int{100, -100, 200, -200, 300, -300}))

	if buf.Channels() != 2 || buf.Frames() != 3 {
		t.Fatalf("got %d channels, %d frames; want 2, 3", buf.Channels(), buf.Frames())
	}
	if buf.At(2, 0) <= 0 || buf.At(2, 1) >= 0 {
		t.Errorf("frame 2 = (%v, %v), want (+, -)", buf.At(2, 0), buf.At(2, 1))
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	data := createWAVFile(formatPCM, 22050, 1, 16, []int{1, 2, 3, 4, 5})

	// hide Seek from the decoder
	r := struct{ io.Reader }{bytes.NewReader(data)}

	src, err := Decoder{}.Decode(r)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf, err := audio.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if buf.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", buf.Frames())
	}
}

func TestDecoder_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "garbage", data: []byte("definitely not a riff stream, just text"), want: ErrNotWavFile},
		{name: "empty", data: nil, want: ErrNotWavFile},
		{name: "float", data: createWAVFile(3, 8000, 1, 32, []int{0, 1}), want: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

type mockPCMReader struct {
	data   []int
	offset int
	err    error
}

func (m *mockPCMReader) Format() *goaudio.Format {
	return &goaudio.Format{NumChannels: 1, SampleRate: 8000}
}

func (m *mockPCMReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.data[m.offset:])
	m.offset += n
	return n, nil
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	s := &source{
		dec:        &mockPCMReader{data: []int{16384, -16384, 8192}},
		sampleRate: 8000,
		channels:   1,
		bitDepth:   16,
	}

	dst := make([]float32, 2)
	n, err := s.ReadSamples(dst)
	if err != nil || n != 2 {
		t.Fatalf("first ReadSamples() = (%d, %v), want (2, nil)", n, err)
	}
	if dst[0] != 0.5 || dst[1] != -0.5 {
		t.Errorf("dst = %v, want [0.5 -0.5]", dst)
	}

	n, err = s.ReadSamples(dst)
	if err != nil || n != 1 || dst[0] != 0.25 {
		t.Fatalf("second ReadSamples() = (%d, %v) %v, want (1, nil) 0.25", n, err, dst[0])
	}

	n, err = s.ReadSamples(dst)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() at end = (%d, %v), want (0, EOF)", n, err)
	}

	if n, err := s.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSource_ReadSamplesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	s := &source{dec: &mockPCMReader{err: boom}, channels: 1, bitDepth: 16}

	if _, err := s.ReadSamples(make([]float32, 8)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want wrapped %v", err, boom)
	}
}

func TestSource_BufSizeGrows(t *testing.T) {
	t.Parallel()

	s := &source{dec: &mockPCMReader{data: make([]int, 10000)}, channels: 1, bitDepth: 16}
	if s.BufSize() != 4096 {
		t.Errorf("initial BufSize() = %d, want 4096", s.BufSize())
	}

	if _, err := s.ReadSamples(make([]float32, 8192)); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if s.BufSize() != 8192 {
		t.Errorf("BufSize() = %d, want 8192", s.BufSize())
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int, 44100*2)
	for i := range samples {
		samples[i] = (i * 37) % 32768
	}
	data := createWAVFile(formatPCM, 44100, 2, 16, samples)
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		src, err := Decoder{}.Decode(bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := src.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
