// SPDX-License-Identifier: EPL-2.0

// Package server serves the mixer's control surface as a JSON API with
// fiber, plus a WebSocket feed of deck playheads.
//
//	GET  /api/status
//	POST /api/crossfade               {"value": 0.5}
//	POST /api/sync
//	POST /api/stop
//	POST /api/decks/:deck/load        {"path": "...", "bpm": 128, "async": false}
//	POST /api/decks/:deck/play
//	POST /api/decks/:deck/stop
//	POST /api/decks/:deck/volume      {"value": 0.8}
//	POST /api/decks/:deck/tempo       {"percent": 4}
//	POST /api/decks/:deck/loop        {"enabled": true}
//	GET  /api/decks/:deck/position
//	GET  /api/decks/:deck/waveform?window=5&bins=256
//	GET  /api/decks/:deck/overview?bins=256
//	GET  /ws/position
//
// Failures answer {"error": "..."} with 400 for bad input or an unknown
// deck, 404 for a missing file, 409 when a deck lacks the track or BPM an
// operation needs, 422 for undecodable audio and 500 otherwise.
package server
