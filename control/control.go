// SPDX-License-Identifier: EPL-2.0

package control

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/deck"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/formats"
	"github.com/ik5/audmix/mixer"
)

// DeckID names one of the two decks.
type DeckID string

const (
	A DeckID = "A"
	B DeckID = "B"
)

// Decks lists both ids in display order.
var Decks = []DeckID{A, B}

// ParseDeckID accepts "a", "A", "b" or "B".
func ParseDeckID(s string) (DeckID, error) {
	switch id := DeckID(strings.ToUpper(strings.TrimSpace(s))); id {
	case A, B:
		return id, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDeck, s)
	}
}

func (id DeckID) index() int {
	if id == B {
		return 1
	}
	return 0
}

// lane tracks the loads in flight for one deck.
type lane struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

type Controller struct {
	mixer    *mixer.Mixer
	engine   *engine.Engine
	registry *audio.Registry
	logger   *slog.Logger

	lanes [2]lane

	// mu orders worker starts against Close
	mu     sync.Mutex
	closed bool
	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Controller)

// WithEngine lets the controller report engine stats and close the engine
// on Close.
func WithEngine(e *engine.Engine) Option {
	return func(c *Controller) { c.engine = e }
}

// WithRegistry replaces the default decoder registry used by LoadFile.
func WithRegistry(r *audio.Registry) Option {
	return func(c *Controller) { c.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a controller around m.
func New(m *mixer.Mixer, opts ...Option) *Controller {
	c := &Controller{mixer: m}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = formats.NewRegistry()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.ctx, c.stop = context.WithCancel(context.Background())

	return c
}

func (c *Controller) Mixer() *mixer.Mixer { return c.mixer }

func (c *Controller) deck(id DeckID) (*deck.Deck, error) {
	switch id {
	case A:
		return c.mixer.A(), nil
	case B:
		return c.mixer.B(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeck, string(id))
	}
}

// PlayPause toggles between playing and paused and returns the new state.
// A stopped deck starts playing.
func (c *Controller) PlayPause(id DeckID) (deck.State, error) {
	d, err := c.deck(id)
	if err != nil {
		return 0, err
	}

	state, err := d.TogglePlay()
	if err != nil {
		return state, fmt.Errorf("deck %s: %w", id, err)
	}

	c.logger.Debug("transport", "deck", id, "state", state)
	return state, nil
}

// Stop stops the deck and cues it back to the start.
func (c *Controller) Stop(id DeckID) error {
	d, err := c.deck(id)
	if err != nil {
		return err
	}

	d.Stop()
	c.logger.Debug("transport", "deck", id, "state", d.State())
	return nil
}

func (c *Controller) StopAll() {
	for _, id := range Decks {
		_ = c.Stop(id)
	}
}

// SetVolume sets the deck gain, clamped to [0, 1].
func (c *Controller) SetVolume(id DeckID, v float64) error {
	d, err := c.deck(id)
	if err != nil {
		return err
	}
	d.SetVolume(v)
	return nil
}

// SetTempo sets the deck tempo in percent, clamped to [-100, 100].
func (c *Controller) SetTempo(id DeckID, percent float64) error {
	d, err := c.deck(id)
	if err != nil {
		return err
	}
	d.SetTempo(percent)
	return nil
}

func (c *Controller) SetLoop(id DeckID, on bool) error {
	d, err := c.deck(id)
	if err != nil {
		return err
	}
	d.SetLoop(on)
	return nil
}

// SetCrossfade moves the crossfader, clamped to [0, 1]. 0 is deck A only.
func (c *Controller) SetCrossfade(x float64) {
	c.mixer.SetCrossfade(x)
}

// SyncBPM resamples deck B to deck A's tempo and returns the ratio used.
// A load on deck B that is still running is superseded by the sync.
func (c *Controller) SyncBPM() (float64, error) {
	l := &c.lanes[B.index()]
	l.mu.Lock()
	defer l.mu.Unlock()

	ratio, err := c.mixer.SyncBToA()
	if err != nil {
		return 0, fmt.Errorf("syncing deck B to A: %w", err)
	}

	// pending loads for B started before the sync lose
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	c.logger.Info("synced deck B to deck A", "ratio", ratio)
	return ratio, nil
}

// Position is the deck playhead in seconds.
func (c *Controller) Position(id DeckID) (float64, error) {
	d, err := c.deck(id)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

// Close cancels loads in flight, waits for their workers and closes the
// engine if one was given.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()

	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			return fmt.Errorf("closing engine: %w", err)
		}
	}
	return nil
}
