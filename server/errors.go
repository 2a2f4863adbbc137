// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"io/fs"

	"github.com/gofiber/fiber/v2"

	"github.com/ik5/audmix/control"
	"github.com/ik5/audmix/deck"
	"github.com/ik5/audmix/mixer"
)

var errBadRequest = errors.New("bad request")

// statusOf maps an error to an HTTP status code.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, errBadRequest), errors.Is(err, control.ErrUnknownDeck):
		return fiber.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return fiber.StatusNotFound
	case errors.Is(err, mixer.ErrMissingTrack),
		errors.Is(err, mixer.ErrMissingBPM),
		errors.Is(err, mixer.ErrBPMOutOfRange),
		errors.Is(err, deck.ErrNoTrack),
		errors.Is(err, control.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, control.ErrDecodeFailed):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, control.ErrClosed):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
