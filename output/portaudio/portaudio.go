// SPDX-License-Identifier: EPL-2.0

// Package portaudio plays the engine through the default PortAudio output
// device. PortAudio calls back on its own realtime thread with interleaved
// float32 buffers, which go straight to the engine callback.
//
// Importing the package registers the "portaudio" backend with output.
package portaudio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/output"
)

func init() {
	output.Register(output.PortAudio, func(logger *slog.Logger) (engine.Backend, error) {
		return New(logger), nil
	})
}

// Backend is a PortAudio output stream.
type Backend struct {
	logger *slog.Logger

	mu          sync.Mutex
	stream      *portaudio.Stream
	initialized bool
}

func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

func (b *Backend) Name() string { return output.PortAudio }

// Open initializes PortAudio and opens the default output device.
func (b *Backend) Open(cfg engine.StreamConfig, cb engine.Callback) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream != nil {
		return engine.ErrAlreadyOpen
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	b.initialized = true

	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.BlockSize,
		func(out []float32) { cb(out) })
	if err != nil {
		return fmt.Errorf("opening default output stream: %w", err)
	}
	b.stream = stream

	info := stream.Info()
	if info != nil {
		b.logger.Info("portaudio stream opened",
			"sample_rate", info.SampleRate,
			"output_latency_ms", info.OutputLatency.Milliseconds(),
		)
	}

	return nil
}

func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return engine.ErrNotOpen
	}
	return b.stream.Start()
}

// Stop waits for pending buffers to play out.
func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return nil
	}
	return b.stream.Stop()
}

// Close releases the stream and terminates PortAudio.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.stream != nil {
		err = b.stream.Close()
		b.stream = nil
	}
	if b.initialized {
		b.initialized = false
		if termErr := portaudio.Terminate(); termErr != nil && err == nil {
			err = termErr
		}
	}

	return err
}
