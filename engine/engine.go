// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// StreamConfig describes the output stream a backend should open.
type StreamConfig struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
	// BlockSize is the number of frames per callback the backend should aim
	// for. Backends may deliver other sizes.
	BlockSize int `json:"block_size"`
}

func (c StreamConfig) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive, got %d", c.BlockSize)
	}
	return nil
}

// Callback fills out with interleaved float32 frames. Backends call it from
// their realtime context.
type Callback func(out []float32)

// Backend is an output stream.
type Backend interface {
	// Open prepares a stream; cb is invoked for every block once started.
	Open(cfg StreamConfig, cb Callback) error
	// Start begins invoking the callback.
	Start() error
	// Stop halts the stream. No callback runs after Stop returns.
	Stop() error
	// Close releases the device. The backend is not reused afterwards.
	Close() error
	// Name returns the backend name (e.g., "portaudio", "offline").
	Name() string
}

// Renderer produces the audio for one block.
type Renderer interface {
	RenderBlock(out []float32) error
}

type state int32

const (
	stateIdle state = iota
	stateOpen
	stateRunning
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateOpen:
		return "open"
	case stateRunning:
		return "running"
	default:
		return "closed"
	}
}

// faultQueue bounds how many render faults wait for the reporter. Faults
// beyond that are still counted, just not logged.
const faultQueue = 64

type fault struct {
	block uint64
	err   error
	panic any
}

// Engine drives a Renderer from a Backend's callback and owns the stream
// lifecycle: Open, Start, Stop, Close.
type Engine struct {
	backend  Backend
	renderer Renderer
	logger   *slog.Logger

	mu    sync.Mutex
	state state
	cfg   StreamConfig

	blocks  atomic.Uint64
	frames  atomic.Uint64
	faults  atomic.Uint64
	dropped atomic.Uint64

	faultCh chan fault
	quit    chan struct{}
	wg      sync.WaitGroup
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	Backend    string `json:"backend"`
	State      string `json:"state"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BlockSize  int    `json:"block_size"`
	Blocks     uint64 `json:"blocks"`
	Frames     uint64 `json:"frames"`
	Faults     uint64 `json:"faults"`
	// Unreported counts faults that were not logged because the reporter
	// was behind.
	Unreported uint64 `json:"unreported"`
}

// New creates an engine. A nil logger means slog.Default().
func New(backend Backend, renderer Renderer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		backend:  backend,
		renderer: renderer,
		logger:   logger.With("backend", backend.Name()),
		faultCh:  make(chan fault, faultQueue),
		quit:     make(chan struct{}),
	}
}

// Open opens the backend stream. On failure the engine is closed and the
// error wraps ErrDevice.
func (e *Engine) Open(sampleRate, channels, blockSize int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateClosed:
		return ErrClosed
	case stateOpen, stateRunning:
		return ErrAlreadyOpen
	}

	cfg := StreamConfig{SampleRate: sampleRate, Channels: channels, BlockSize: blockSize}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid stream config: %w", err)
	}

	e.cfg = cfg
	e.wg.Go(e.report)

	if err := e.backend.Open(cfg, e.callback); err != nil {
		_ = e.shutdownLocked()
		return fmt.Errorf("%w: opening %s stream: %w", ErrDevice, e.backend.Name(), err)
	}

	e.state = stateOpen

	e.logger.Info("audio stream opened",
		"sample_rate", sampleRate,
		"channels", channels,
		"block_size", blockSize,
	)

	return nil
}

// Start begins playback. A backend failure closes the engine and wraps
// ErrDevice.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateRunning:
		return nil
	case stateIdle:
		return ErrNotOpen
	case stateClosed:
		return ErrClosed
	}

	if err := e.backend.Start(); err != nil {
		_ = e.shutdownLocked()
		return fmt.Errorf("%w: starting %s stream: %w", ErrDevice, e.backend.Name(), err)
	}

	e.state = stateRunning
	e.logger.Info("audio stream started")

	return nil
}

// Stop pauses the stream. It can be started again.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateRunning {
		return nil
	}

	if err := e.backend.Stop(); err != nil {
		return fmt.Errorf("stopping %s stream: %w", e.backend.Name(), err)
	}

	e.state = stateOpen
	e.logger.Info("audio stream stopped")

	return nil
}

// Close stops the stream and releases the backend. It is safe to call more
// than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateClosed {
		return nil
	}

	return e.shutdownLocked()
}

func (e *Engine) shutdownLocked() error {
	var err error

	if e.state == stateRunning {
		if stopErr := e.backend.Stop(); stopErr != nil {
			err = fmt.Errorf("stopping %s stream: %w", e.backend.Name(), stopErr)
		}
	}
	if closeErr := e.backend.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing %s stream: %w", e.backend.Name(), closeErr)
	}

	wasOpen := e.state != stateIdle
	e.state = stateClosed

	close(e.quit)
	e.wg.Wait()

	if wasOpen {
		e.logger.Info("audio stream closed",
			"blocks", e.blocks.Load(),
			"faults", e.faults.Load(),
		)
	}

	return err
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	st, cfg := e.state, e.cfg
	e.mu.Unlock()

	return Stats{
		Backend:    e.backend.Name(),
		State:      st.String(),
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		BlockSize:  cfg.BlockSize,
		Blocks:     e.blocks.Load(),
		Frames:     e.frames.Load(),
		Faults:     e.faults.Load(),
		Unreported: e.dropped.Load(),
	}
}

// callback runs on the backend's realtime context. A failing or panicking
// renderer yields a silent block; the fault is counted and handed to the
// reporter without blocking.
func (e *Engine) callback(out []float32) {
	block := e.blocks.Add(1)

	defer func() {
		if r := recover(); r != nil {
			clear(out)
			e.fault(fault{block: block, panic: r})
		}
	}()

	if err := e.renderer.RenderBlock(out); err != nil {
		clear(out)
		e.fault(fault{block: block, err: err})
		return
	}

	if ch := e.cfg.Channels; ch > 0 {
		e.frames.Add(uint64(len(out) / ch))
	}
}

func (e *Engine) fault(f fault) {
	e.faults.Add(1)

	select {
	case e.faultCh <- f:
	default:
		e.dropped.Add(1)
	}
}

func (e *Engine) report() {
	for {
		select {
		case f := <-e.faultCh:
			e.logFault(f)
		case <-e.quit:
			for {
				select {
				case f := <-e.faultCh:
					e.logFault(f)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) logFault(f fault) {
	err := f.err
	if f.panic != nil {
		err = fmt.Errorf("panic: %v", f.panic)
	}

	e.logger.Error("render fault, block replaced with silence",
		"block", f.block,
		"error", fmt.Errorf("%w: %w", ErrRenderFault, err),
	)
}
