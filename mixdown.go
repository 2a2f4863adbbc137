// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ik5/audmix/deck"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/mixer"
)

// ErrUnbounded is returned when a mixdown has no duration and a looping
// deck would keep it running forever.
var ErrUnbounded = errors.New("mixdown needs a duration while a deck loops")

const defaultBlockSize = 1024

type MixdownOptions struct {
	// Duration of the output. Zero renders until no deck is playing.
	Duration time.Duration
	// BitDepth of the WAV samples: 8, 16, 24 or 32. Zero means 16.
	BitDepth  int
	BlockSize int
	Logger    *slog.Logger
}

// Mixdown renders m through an offline engine into a WAV file written to w
// and returns the number of frames written. Decks play from wherever they
// are; start them before calling. Render faults abort the mixdown.
func Mixdown(ctx context.Context, m *mixer.Mixer, w io.WriteSeeker, opts MixdownOptions) (int, error) {
	if opts.BitDepth == 0 {
		opts.BitDepth = 16
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = defaultBlockSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limit := -1
	if opts.Duration > 0 {
		limit = int(opts.Duration.Seconds() * float64(m.SampleRate()))
	} else if looping(m.A()) || looping(m.B()) {
		return 0, ErrUnbounded
	}

	enc, err := wav.NewEncoder(w, m.SampleRate(), m.Channels(), opts.BitDepth)
	if err != nil {
		return 0, err
	}

	backend := engine.NewOffline()
	e := engine.New(backend, m, opts.Logger)
	defer e.Close()

	if err := e.Open(m.SampleRate(), m.Channels(), opts.BlockSize); err != nil {
		return 0, err
	}
	if err := e.Start(); err != nil {
		return 0, err
	}

	block := make([]float32, opts.BlockSize*m.Channels())
	for limit != 0 {
		if err := ctx.Err(); err != nil {
			return enc.Frames(), err
		}
		if limit < 0 && !playing(m) {
			break
		}

		out := block
		if limit > 0 && limit < opts.BlockSize {
			out = block[:limit*m.Channels()]
		}

		if err := backend.Pull(out); err != nil {
			return enc.Frames(), fmt.Errorf("rendering mixdown: %w", err)
		}
		if faults := e.Stats().Faults; faults > 0 {
			return enc.Frames(), fmt.Errorf("%w: %d blocks failed during mixdown", engine.ErrRenderFault, faults)
		}
		if err := enc.Write(out); err != nil {
			return enc.Frames(), err
		}

		if limit > 0 {
			limit -= len(out) / m.Channels()
		}
	}

	if err := enc.Close(); err != nil {
		return enc.Frames(), err
	}

	opts.Logger.Info("mixdown written",
		"frames", enc.Frames(),
		"sample_rate", m.SampleRate(),
		"bit_depth", opts.BitDepth,
	)

	return enc.Frames(), nil
}

func playing(m *mixer.Mixer) bool {
	return m.A().State() == deck.Playing || m.B().State() == deck.Playing
}

func looping(d *deck.Deck) bool {
	return d.Loop() && d.State() == deck.Playing
}
