// SPDX-License-Identifier: EPL-2.0

package control

import (
	"errors"

	"github.com/ik5/audmix/mixer"
)

var (
	ErrDecodeFailed = errors.New("decode failed")
	ErrIOFailed     = errors.New("i/o failed")
	ErrUnknownDeck  = errors.New("unknown deck")
	ErrClosed       = errors.New("controller closed")

	// ErrSuperseded is returned by a load whose result was discarded
	// because a later load or sync for the same deck won.
	ErrSuperseded = mixer.ErrSuperseded
)
