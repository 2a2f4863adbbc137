// SPDX-License-Identifier: EPL-2.0

// Package oto plays the engine through github.com/hajimehoshi/oto/v2.
//
// oto pulls audio through an io.Reader on its own goroutine. The reader here
// renders one engine block per Read and encodes it as 32-bit float
// little-endian PCM.
//
// oto allows a single context per process, so the first Open fixes the
// output format; later Opens must ask for the same one.
//
// Importing the package registers the "oto" backend with output.
package oto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/hajimehoshi/oto/v2"

	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/output"
)

func init() {
	output.Register(output.Oto, func(logger *slog.Logger) (engine.Backend, error) {
		return New(logger), nil
	})
}

const bytesPerSample = 4

var ErrFormatMismatch = errors.New("oto context already open with another format")

var (
	ctxOnce sync.Once
	ctx     *oto.Context
	ctxCfg  engine.StreamConfig
	ctxErr  error
)

func sharedContext(cfg engine.StreamConfig) (*oto.Context, error) {
	ctxOnce.Do(func() {
		var ready chan struct{}
		ctx, ready, ctxErr = oto.NewContext(cfg.SampleRate, cfg.Channels, oto.FormatFloat32LE)
		if ctxErr == nil {
			<-ready
			ctxCfg = cfg
		}
	})

	if ctxErr != nil {
		return nil, ctxErr
	}
	if ctxCfg.SampleRate != cfg.SampleRate || ctxCfg.Channels != cfg.Channels {
		return nil, fmt.Errorf("%w: have %d Hz x %d, want %d Hz x %d", ErrFormatMismatch,
			ctxCfg.SampleRate, ctxCfg.Channels, cfg.SampleRate, cfg.Channels)
	}
	return ctx, nil
}

// Backend is an oto player fed by the engine callback.
type Backend struct {
	logger *slog.Logger

	mu     sync.Mutex
	player oto.Player
}

func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

func (b *Backend) Name() string { return output.Oto }

func (b *Backend) Open(cfg engine.StreamConfig, cb engine.Callback) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player != nil {
		return engine.ErrAlreadyOpen
	}

	c, err := sharedContext(cfg)
	if err != nil {
		return fmt.Errorf("creating oto context: %w", err)
	}

	b.player = c.NewPlayer(newReader(cfg, cb))

	b.logger.Info("oto player opened",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"block_size", cfg.BlockSize,
	)

	return nil
}

func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil {
		return engine.ErrNotOpen
	}

	b.player.Play()
	return b.player.Err()
}

// Stop pauses the player and drops what it had buffered.
func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil {
		return nil
	}

	b.player.Pause()
	b.player.Reset()
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil {
		return nil
	}

	err := b.player.Close()
	b.player = nil
	return err
}

// reader renders engine blocks on demand. Read is only called from oto's
// player goroutine.
type reader struct {
	cb       engine.Callback
	channels int
	block    []float32
}

func newReader(cfg engine.StreamConfig, cb engine.Callback) *reader {
	return &reader{
		cb:       cb,
		channels: cfg.Channels,
		block:    make([]float32, cfg.BlockSize*cfg.Channels),
	}
}

// Read fills p with whole frames, at most one block per call.
func (r *reader) Read(p []byte) (int, error) {
	frameBytes := r.channels * bytesPerSample

	frames := min(len(p)/frameBytes, len(r.block)/r.channels)
	if frames == 0 {
		return 0, nil
	}

	out := r.block[:frames*r.channels]
	r.cb(out)

	for i, s := range out {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(s))
	}

	return len(out) * bytesPerSample, nil
}
