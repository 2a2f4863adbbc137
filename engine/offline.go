// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
)

// Offline is a backend without a device: the caller drives the callback
// with Pull. It renders as fast as the caller asks, which suits tests and
// bouncing a mix to a file.
type Offline struct {
	mu      sync.Mutex
	cfg     StreamConfig
	cb      Callback
	running bool
	closed  bool
}

func NewOffline() *Offline { return &Offline{} }

func (o *Offline) Name() string { return "offline" }

func (o *Offline) Open(cfg StreamConfig, cb Callback) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	o.cfg = cfg
	o.cb = cb
	return nil
}

func (o *Offline) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.cb == nil {
		return ErrNotOpen
	}

	o.running = true
	return nil
}

func (o *Offline) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.running = false
	return nil
}

func (o *Offline) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.running = false
	o.closed = true
	o.cb = nil
	return nil
}

// Config returns the stream the engine opened.
func (o *Offline) Config() StreamConfig {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.cfg
}

// Pull runs one callback into dst. Calls must not overlap.
func (o *Offline) Pull(dst []float32) error {
	o.mu.Lock()
	cb, running := o.cb, o.running
	o.mu.Unlock()

	if !running {
		return ErrNotRunning
	}

	cb(dst)
	return nil
}
