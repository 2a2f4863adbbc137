// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/output"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Audio  Audio  `yaml:"audio" json:"audio"`
	Decks  Decks  `yaml:"decks" json:"decks"`
	Render Render `yaml:"render" json:"render"`
	Server Server `yaml:"server" json:"server"`
	Log    Log    `yaml:"log" json:"log"`
}

// Audio describes the output stream and the resampler.
type Audio struct {
	// Backend is one of auto, portaudio, oto, loopback or offline.
	Backend    string `yaml:"backend" json:"backend"`
	SampleRate int    `yaml:"sample_rate" json:"sample_rate"`
	Channels   int    `yaml:"channels" json:"channels"`
	// BlockSize is the number of frames per callback.
	BlockSize int `yaml:"block_size" json:"block_size"`
	// Interpolation is nearest or linear.
	Interpolation string `yaml:"interpolation" json:"interpolation"`
	// Smoothing ramps gain changes across a block.
	Smoothing bool `yaml:"smoothing" json:"smoothing"`
}

// Decks holds the state both decks start in.
type Decks struct {
	Volume    float64 `yaml:"volume" json:"volume"`
	Crossfade float64 `yaml:"crossfade" json:"crossfade"`
	Loop      bool    `yaml:"loop" json:"loop"`
}

// Render configures offline mixdowns.
type Render struct {
	BitDepth int `yaml:"bit_depth" json:"bit_depth"`
}

type Server struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	// PositionInterval is how often the websocket feed pushes playheads.
	PositionInterval time.Duration `yaml:"position_interval" json:"position_interval"`
}

type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" json:"level"`
	// Format is text or json.
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in settings: CD rate stereo on the best
// available backend, API on localhost:8080.
func Default() Config {
	return Config{
		Audio: Audio{
			Backend:       output.Auto,
			SampleRate:    44100,
			Channels:      2,
			BlockSize:     512,
			Interpolation: audio.Linear.String(),
		},
		Decks: Decks{
			Volume:    1,
			Crossfade: 0.5,
		},
		Render: Render{BitDepth: 16},
		Server: Server{
			Enabled:          true,
			Addr:             "127.0.0.1:8080",
			PositionInterval: 50 * time.Millisecond,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Audio.Backend = envStr("AUDMIX_BACKEND", c.Audio.Backend)
	c.Audio.SampleRate = envInt("AUDMIX_SAMPLE_RATE", c.Audio.SampleRate)
	c.Audio.Channels = envInt("AUDMIX_CHANNELS", c.Audio.Channels)
	c.Audio.BlockSize = envInt("AUDMIX_BLOCK_SIZE", c.Audio.BlockSize)
	c.Audio.Interpolation = envStr("AUDMIX_INTERPOLATION", c.Audio.Interpolation)
	c.Audio.Smoothing = envBool("AUDMIX_SMOOTHING", c.Audio.Smoothing)

	c.Decks.Volume = envFloat("AUDMIX_VOLUME", c.Decks.Volume)
	c.Decks.Crossfade = envFloat("AUDMIX_CROSSFADE", c.Decks.Crossfade)
	c.Decks.Loop = envBool("AUDMIX_LOOP", c.Decks.Loop)

	c.Render.BitDepth = envInt("AUDMIX_BIT_DEPTH", c.Render.BitDepth)

	c.Server.Enabled = envBool("AUDMIX_SERVER", c.Server.Enabled)
	c.Server.Addr = envStr("AUDMIX_ADDR", c.Server.Addr)
	c.Server.PositionInterval = envDuration("AUDMIX_POSITION_INTERVAL", c.Server.PositionInterval)

	c.Log.Level = envStr("AUDMIX_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envStr("AUDMIX_LOG_FORMAT", c.Log.Format)
}

var backends = []string{output.Auto, output.PortAudio, output.Oto, output.Loopback, output.Offline}

// Validate checks that the configuration is usable. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !slices.Contains(backends, c.Audio.Backend) {
		bad("audio.backend must be one of %v, got %q", backends, c.Audio.Backend)
	}
	if c.Audio.SampleRate <= 0 {
		bad("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels <= 0 {
		bad("audio.channels must be positive, got %d", c.Audio.Channels)
	}
	if c.Audio.BlockSize <= 0 {
		bad("audio.block_size must be positive, got %d", c.Audio.BlockSize)
	}
	if _, err := audio.ParseInterpolation(c.Audio.Interpolation); err != nil {
		bad("audio.interpolation: %v", err)
	}
	if c.Decks.Volume < 0 || c.Decks.Volume > 1 {
		bad("decks.volume must be within [0, 1], got %v", c.Decks.Volume)
	}
	if c.Decks.Crossfade < 0 || c.Decks.Crossfade > 1 {
		bad("decks.crossfade must be within [0, 1], got %v", c.Decks.Crossfade)
	}
	switch c.Render.BitDepth {
	case 8, 16, 24, 32:
	default:
		bad("render.bit_depth must be 8, 16, 24 or 32, got %d", c.Render.BitDepth)
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		bad("server.addr is required when the server is enabled")
	}
	if c.Server.PositionInterval <= 0 {
		bad("server.position_interval must be positive, got %v", c.Server.PositionInterval)
	}
	if _, err := c.Log.level(); err != nil {
		bad("log.level: %v", err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		bad("log.format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// ParsedInterpolation returns the audio.interpolation value as an audio.Interpolation.
// It assumes Validate has passed.
func (a Audio) ParsedInterpolation() audio.Interpolation {
	i, _ := audio.ParseInterpolation(a.Interpolation)
	return i
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(l.Level))
	return lvl, err
}

// NewLogger builds the slog logger described by l, writing to w.
func (l Log) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log.format %q", ErrInvalid, l.Format)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
