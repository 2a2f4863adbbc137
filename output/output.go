// SPDX-License-Identifier: EPL-2.0

// Package output selects the backend the engine plays through.
//
// Hardware backends live in sub-packages and register themselves when
// imported, so a program only links the audio libraries it asks for:
//
//	import (
//	    _ "github.com/ik5/audmix/output/oto"
//	    _ "github.com/ik5/audmix/output/portaudio"
//	)
//
//	backend, err := output.New("auto", logger)
//
// The headless "loopback" and "offline" backends are always available.
package output

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ik5/audmix/engine"
)

const (
	// Auto picks the first registered hardware backend in Preferred order,
	// falling back to Loopback.
	Auto      = "auto"
	PortAudio = "portaudio"
	Oto       = "oto"
	Loopback  = "loopback"
	Offline   = "offline"
)

// Preferred is the order Auto tries hardware backends in.
var Preferred = []string{PortAudio, Oto}

// Factory builds a backend.
type Factory func(logger *slog.Logger) (engine.Backend, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		Loopback: func(*slog.Logger) (engine.Backend, error) { return engine.NewLoopback(nil), nil },
		Offline:  func(*slog.Logger) (engine.Backend, error) { return engine.NewOffline(), nil },
	}
)

// Register makes a backend available under name. It is meant to be called
// from an init function and panics on duplicates.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, dup := factories[name]; dup {
		panic("output: Register called twice for backend " + name)
	}
	factories[name] = f
}

// Available lists the registered backend names, sorted.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// New creates the named backend. A nil logger means slog.Default().
func New(name string, logger *slog.Logger) (engine.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if name == Auto || name == "" {
		name = detect()
	}

	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported backend %q (available: %v)", name, Available())
	}

	logger.Info("creating audio backend", "backend", name)

	b, err := f(logger)
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", name, err)
	}

	return b, nil
}

func detect() string {
	mu.RLock()
	defer mu.RUnlock()

	for _, name := range Preferred {
		if _, ok := factories[name]; ok {
			return name
		}
	}
	return Loopback
}
