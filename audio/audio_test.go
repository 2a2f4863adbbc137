// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
)

type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.NewConstantSource(44100, 2, 100, 0), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &mockDecoder{name: "wav"}
	oggDecoder := &mockDecoder{name: "ogg"}

	registry.Register(wavDecoder, "wav", "wave")
	registry.Register(oggDecoder, ".OGG")

	tests := []struct {
		format string
		want   Decoder
		wantOK bool
	}{
		{format: "wav", want: wavDecoder, wantOK: true},
		{format: "WAVE", want: wavDecoder, wantOK: true},
		{format: "ogg", want: oggDecoder, wantOK: true},
		{format: ".ogg", want: oggDecoder, wantOK: true},
		{format: "flac", want: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			got, ok := registry.Get(tt.format)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.format, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Get(%q) returned a different decoder", tt.format)
			}
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	d := &mockDecoder{name: "mp3"}
	registry.Register(d, "mp3")

	if got, ok := registry.Lookup("/music/Set 01/Track.MP3"); !ok || got != d {
		t.Errorf("Lookup() = (%v, %v), want mp3 decoder", got, ok)
	}
	if _, ok := registry.Lookup("notes.txt"); ok {
		t.Error("Lookup(notes.txt) should fail")
	}
	if _, ok := registry.Lookup("noextension"); ok {
		t.Error("Lookup(noextension) should fail")
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&mockDecoder{}, "wav", "aiff", "mp3")

	if got, want := registry.Formats(), []string{"aiff", "mp3", "wav"}; !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	formats := []string{"wav", "mp3", "ogg", "aiff"}

	var wg sync.WaitGroup
	for _, f := range formats {
		wg.Go(func() {
			for range 100 {
				registry.Register(&mockDecoder{name: f}, f)
				_, _ = registry.Get(f)
			}
		})
	}
	wg.Wait()

	if len(registry.Formats()) != len(formats) {
		t.Errorf("Formats() = %v", registry.Formats())
	}
}
