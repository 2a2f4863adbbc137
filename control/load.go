// SPDX-License-Identifier: EPL-2.0

package control

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/deck"
)

// LoadTrack installs already decoded interleaved PCM on a deck. pcm is
// copied. Audio at another sample rate is converted to the mixer's rate.
// The deck ends up stopped at the start with 0% tempo.
func (c *Controller) LoadTrack(id DeckID, pcm []float32, channels, sampleRate int, bpm float64, label string) error {
	if _, err := c.deck(id); err != nil {
		return err
	}
	if c.isClosed() {
		return ErrClosed
	}

	buf, err := audio.NewBuffer(slices.Clone(pcm), channels, sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	gen, _, done := c.begin(context.Background(), id)
	defer done()

	buf, err = c.conform(buf)
	if err != nil {
		return err
	}

	t := deck.NewTrack(buf, bpm, label)
	if err := c.commit(id, gen, t); err != nil {
		return err
	}

	c.logLoaded(id, t)
	return nil
}

// LoadFile decodes path with the decoder registered for its extension and
// installs it on the deck. On any error the deck keeps what it had.
// Missing or unreadable files fail with ErrIOFailed, unknown or corrupt
// audio with ErrDecodeFailed.
func (c *Controller) LoadFile(ctx context.Context, id DeckID, path string, bpm float64) error {
	if _, err := c.deck(id); err != nil {
		return err
	}
	if c.isClosed() {
		return ErrClosed
	}

	gen, ctx, done := c.begin(ctx, id)
	defer done()

	return c.loadFile(ctx, id, path, bpm, gen)
}

// LoadFileAsync runs LoadFile on a worker goroutine. The returned channel
// yields the result once and is then closed. Starting another load for the
// same deck cancels this one, which then reports ErrSuperseded.
func (c *Controller) LoadFileAsync(ctx context.Context, id DeckID, path string, bpm float64) <-chan error {
	result := make(chan error, 1)

	if _, err := c.deck(id); err != nil {
		result <- err
		close(result)
		return result
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		result <- ErrClosed
		close(result)
		return result
	}

	gen, ctx, done := c.begin(ctx, id)
	c.wg.Go(func() {
		defer close(result)
		defer done()
		result <- c.loadFile(ctx, id, path, bpm, gen)
	})

	return result
}

func (c *Controller) loadFile(ctx context.Context, id DeckID, path string, bpm float64, gen uint64) error {
	t, err := c.decodeFile(ctx, path, bpm)
	if err != nil {
		if c.superseded(id, gen) {
			return ErrSuperseded
		}
		c.logger.Warn("loading track failed", "deck", id, "path", path, "error", err)
		return err
	}

	if err := c.commit(id, gen, t); err != nil {
		return err
	}

	c.logLoaded(id, t)
	return nil
}

func (c *Controller) decodeFile(ctx context.Context, path string, bpm float64) (*deck.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailed, err)
	}
	defer f.Close()

	dec, ok := c.registry.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %q files", ErrDecodeFailed, filepath.Ext(path))
	}

	src, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}
	defer src.Close()

	buf, err := audio.ReadAll(ctxSource{Source: src, ctx: ctx})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}

	buf, err = c.conform(buf)
	if err != nil {
		return nil, err
	}

	return deck.NewTrack(buf, bpm, filepath.Base(path)), nil
}

// conform converts buf to the mixer's sample rate.
func (c *Controller) conform(buf *audio.Buffer) (*audio.Buffer, error) {
	if buf.SampleRate() == c.mixer.SampleRate() {
		return buf, nil
	}

	out, err := audio.ConvertRate(buf, c.mixer.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("%w: converting %d Hz to %d Hz: %w",
			ErrDecodeFailed, buf.SampleRate(), c.mixer.SampleRate(), err)
	}
	return out, nil
}

// begin registers a new load for the deck, cancelling the one before it.
// The returned context is also cancelled by Close.
func (c *Controller) begin(parent context.Context, id DeckID) (uint64, context.Context, func()) {
	l := &c.lanes[id.index()]
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.gen++

	ctx, cancel := context.WithCancel(parent)
	unhook := context.AfterFunc(c.ctx, cancel)
	l.cancel = cancel

	return l.gen, ctx, func() {
		unhook()
		cancel()
	}
}

// commit installs t unless a newer load for the deck has started.
func (c *Controller) commit(id DeckID, gen uint64, t *deck.Track) error {
	l := &c.lanes[id.index()]
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != gen {
		return ErrSuperseded
	}
	l.cancel = nil

	d, err := c.deck(id)
	if err != nil {
		return err
	}
	d.Load(t)

	return nil
}

func (c *Controller) superseded(id DeckID, gen uint64) bool {
	l := &c.lanes[id.index()]
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.gen != gen
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) logLoaded(id DeckID, t *deck.Track) {
	c.logger.Info("track loaded",
		"deck", id,
		"track_id", t.ID,
		"label", t.Label,
		"bpm", t.BPM,
		"frames", t.Buffer.Frames(),
		"channels", t.Buffer.Channels(),
		"duration", t.Buffer.Duration(),
	)
}

// ctxSource stops a drain once ctx is done.
type ctxSource struct {
	audio.Source
	ctx context.Context
}

func (s ctxSource) ReadSamples(dst []float32) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	return s.Source.ReadSamples(dst)
}
