// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ik5/audmix/control"
)

// MaxWaveformBins caps the bins query parameter.
const MaxWaveformBins = 4096

const defaultWaveformBins = 256

type LoadRequest struct {
	Path string  `json:"path"`
	BPM  float64 `json:"bpm"`
	// Async returns 202 at once and loads in the background.
	Async bool `json:"async"`
}

type valueRequest struct {
	Value *float64 `json:"value"`
}

type tempoRequest struct {
	Percent *float64 `json:"percent"`
}

type loopRequest struct {
	Enabled *bool `json:"enabled"`
}

func deckParam(c *fiber.Ctx) (control.DeckID, error) {
	return control.ParseDeckID(c.Params("deck"))
}

func parse(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctl.Status())
}

func (s *Server) handleLoad(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	var req LoadRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.Path == "" {
		return fmt.Errorf("%w: path is required", errBadRequest)
	}
	if req.BPM < 0 {
		return fmt.Errorf("%w: bpm must not be negative", errBadRequest)
	}

	if req.Async {
		// the request context dies with the response
		s.ctl.LoadFileAsync(s.ctx, id, req.Path, req.BPM)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": id, "status": "loading"})
	}

	if err := s.ctl.LoadFile(c.UserContext(), id, req.Path, req.BPM); err != nil {
		return err
	}

	st, err := s.ctl.DeckStatus(id)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) handlePlay(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	state, err := s.ctl.PlayPause(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "state": state.String()})
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}
	if err := s.ctl.Stop(id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStopAll(c *fiber.Ctx) error {
	s.ctl.StopAll()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleVolume(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	var req valueRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.Value == nil {
		return fmt.Errorf("%w: value is required", errBadRequest)
	}

	if err := s.ctl.SetVolume(id, *req.Value); err != nil {
		return err
	}
	return s.sendDeck(c, id)
}

func (s *Server) handleTempo(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	var req tempoRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.Percent == nil {
		return fmt.Errorf("%w: percent is required", errBadRequest)
	}

	if err := s.ctl.SetTempo(id, *req.Percent); err != nil {
		return err
	}
	return s.sendDeck(c, id)
}

func (s *Server) handleLoop(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	var req loopRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.Enabled == nil {
		return fmt.Errorf("%w: enabled is required", errBadRequest)
	}

	if err := s.ctl.SetLoop(id, *req.Enabled); err != nil {
		return err
	}
	return s.sendDeck(c, id)
}

func (s *Server) handleCrossfade(c *fiber.Ctx) error {
	var req valueRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.Value == nil {
		return fmt.Errorf("%w: value is required", errBadRequest)
	}

	s.ctl.SetCrossfade(*req.Value)
	return c.JSON(fiber.Map{"crossfade": s.ctl.Mixer().Crossfade()})
}

func (s *Server) handleSync(c *fiber.Ctx) error {
	ratio, err := s.ctl.SyncBPM()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ratio": ratio})
}

func (s *Server) handlePosition(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	pos, err := s.ctl.Position(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "position": pos})
}

// handleWaveform takes window in seconds and a bin count.
func (s *Server) handleWaveform(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	window := c.QueryFloat("window", control.DefaultWaveformWindow.Seconds())
	bins := c.QueryInt("bins", defaultWaveformBins)
	if window <= 0 || window > 3600 {
		return fmt.Errorf("%w: window must be within (0, 3600] seconds", errBadRequest)
	}
	if bins <= 0 || bins > MaxWaveformBins {
		return fmt.Errorf("%w: bins must be within [1, %d]", errBadRequest, MaxWaveformBins)
	}

	w, err := s.ctl.Waveform(id, time.Duration(window*float64(time.Second)), bins)
	if err != nil {
		return err
	}
	return c.JSON(w)
}

// handleOverview returns peak magnitudes across the whole track.
func (s *Server) handleOverview(c *fiber.Ctx) error {
	id, err := deckParam(c)
	if err != nil {
		return err
	}

	bins := c.QueryInt("bins", defaultWaveformBins)
	if bins <= 0 || bins > MaxWaveformBins {
		return fmt.Errorf("%w: bins must be within [1, %d]", errBadRequest, MaxWaveformBins)
	}

	peaks, err := s.ctl.Overview(id, bins)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "peaks": peaks})
}

func (s *Server) sendDeck(c *fiber.Ctx, id control.DeckID) error {
	st, err := s.ctl.DeckStatus(id)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// handleError turns handler errors into a JSON body with a matching status.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	var fe *fiber.Error
	msg := err.Error()
	if errors.As(err, &fe) {
		msg = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}
