// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/ik5/audmix/control"
)

// DefaultPositionInterval is how often /ws/position pushes playheads.
const DefaultPositionInterval = 50 * time.Millisecond

// Server exposes a Controller over HTTP and WebSocket.
type Server struct {
	app      *fiber.App
	ctl      *control.Controller
	logger   *slog.Logger
	interval time.Duration

	// ctx outlives requests; background loads and feeds hang off it.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closing bool
	feeds   sync.WaitGroup
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithPositionInterval sets the /ws/position push period.
func WithPositionInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

func New(ctl *control.Controller, opts ...Option) *Server {
	s := &Server{
		ctl:      ctl,
		interval: DefaultPositionInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	app := fiber.New(fiber.Config{
		AppName:               "audmix",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/crossfade", s.handleCrossfade)
	api.Post("/sync", s.handleSync)
	api.Post("/stop", s.handleStopAll)

	decks := api.Group("/decks/:deck")
	decks.Post("/load", s.handleLoad)
	decks.Post("/play", s.handlePlay)
	decks.Post("/stop", s.handleStop)
	decks.Post("/volume", s.handleVolume)
	decks.Post("/tempo", s.handleTempo)
	decks.Post("/loop", s.handleLoop)
	decks.Get("/position", s.handlePosition)
	decks.Get("/waveform", s.handleWaveform)
	decks.Get("/overview", s.handleOverview)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/position", websocket.New(s.handlePositionWS))

	s.app = app
	return s
}

// App returns the underlying fiber app, mostly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("control api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("control api listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown stops the position feeds and then the listener, waiting at most
// until ctx is done for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	s.feeds.Wait()
	return s.app.ShutdownWithContext(ctx)
}

// handlePositionWS pushes both decks' playheads every interval until the
// peer goes away or the server shuts down. Incoming messages are discarded.
func (s *Server) handlePositionWS(c *websocket.Conn) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.feeds.Add(1)
	s.mu.Unlock()
	defer s.feeds.Done()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("position feed opened", "remote", c.RemoteAddr().String())
	defer s.logger.Debug("position feed closed", "remote", c.RemoteAddr().String())

	for {
		if err := c.WriteJSON(s.ctl.Positions()); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-s.ctx.Done():
			_ = c.Close()
			<-gone
			return
		}
	}
}
