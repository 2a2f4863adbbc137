// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"time"
)

// Loopback is a headless backend. It calls the callback on its own
// goroutine, one block per block period, and passes every rendered block to
// Sink. The block slice is reused, so Sink must copy what it keeps.
type Loopback struct {
	// Sink receives each rendered block, nil to discard.
	Sink func([]float32)
	// Unpaced renders blocks back to back instead of in real time.
	Unpaced bool

	mu      sync.Mutex
	cfg     StreamConfig
	cb      Callback
	done    chan struct{}
	stopped chan struct{}
}

func NewLoopback(sink func([]float32)) *Loopback {
	return &Loopback{Sink: sink}
}

func (l *Loopback) Name() string { return "loopback" }

func (l *Loopback) Open(cfg StreamConfig, cb Callback) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cfg = cfg
	l.cb = cb
	return nil
}

func (l *Loopback) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cb == nil {
		return ErrNotOpen
	}
	if l.done != nil {
		return nil
	}

	l.done = make(chan struct{})
	l.stopped = make(chan struct{})
	go l.run(l.cfg, l.cb, l.done, l.stopped)

	return nil
}

func (l *Loopback) run(cfg StreamConfig, cb Callback, done, stopped chan struct{}) {
	defer close(stopped)

	buf := make([]float32, cfg.BlockSize*cfg.Channels)
	update := func() {
		cb(buf)
		if l.Sink != nil {
			l.Sink(buf)
		}
	}

	if l.Unpaced {
		for {
			select {
			case <-done:
				return
			default:
				update()
			}
		}
	}

	period := time.Duration(cfg.BlockSize) * time.Second / time.Duration(cfg.SampleRate)
	ticker := time.NewTicker(max(period, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			update()
		}
	}
}

// Stop waits for the running block to finish.
func (l *Loopback) Stop() error {
	l.mu.Lock()
	done, stopped := l.done, l.stopped
	l.done, l.stopped = nil, nil
	l.mu.Unlock()

	if done == nil {
		return nil
	}

	close(done)
	<-stopped
	return nil
}

func (l *Loopback) Close() error {
	if err := l.Stop(); err != nil {
		return err
	}

	l.mu.Lock()
	l.cb = nil
	l.mu.Unlock()
	return nil
}
