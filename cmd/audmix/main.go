// SPDX-License-Identifier: EPL-2.0

// Command audmix runs the two-deck mixer.
//
//	audmix play   [-config file] [-a path] [-b path] [-bpm-a n] [-bpm-b n] [-autoplay]
//	audmix render [-config file] -a path [-b path] -o out.wav [-seconds n]
//	              [-bpm-a n] [-bpm-b n] [-crossfade x] [-tempo-a p] [-tempo-b p] [-sync]
//
// play opens the configured audio backend and serves the control API until
// interrupted. render bounces the mix to a WAV file without a sound card.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/control"
	"github.com/ik5/audmix/deck"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/output"
	"github.com/ik5/audmix/server"

	_ "github.com/ik5/audmix/output/oto"
	_ "github.com/ik5/audmix/output/portaudio"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "play":
		err = play(ctx, args[1:], stderr)
	case "render":
		err = render(ctx, args[1:], stderr)
	case "-h", "-help", "--help", "help":
		usage(stderr)
		return 0
	default:
		fmt.Fprintf(stderr, "audmix: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "audmix: %v\n", err)
		return 1
	}
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: audmix <play|render> [flags]")
	fmt.Fprintln(w, "run 'audmix <command> -h' for the flags of a command")
}

// deckFlags are shared by both commands.
type deckFlags struct {
	configPath string
	pathA      string
	pathB      string
	bpmA       float64
	bpmB       float64
}

func (d *deckFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.configPath, "config", "", "YAML config file")
	fs.StringVar(&d.pathA, "a", "", "track for deck A")
	fs.StringVar(&d.pathB, "b", "", "track for deck B")
	fs.Float64Var(&d.bpmA, "bpm-a", 0, "BPM of the deck A track")
	fs.Float64Var(&d.bpmB, "bpm-b", 0, "BPM of the deck B track")
}

// setup loads the config and builds the logger and mixer it describes.
func setup(path string, stderr io.Writer) (config.Config, *slog.Logger, *mixer.Mixer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	m, err := mixer.New(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.BlockSize,
		mixer.WithInterpolation(cfg.Audio.ParsedInterpolation()),
		mixer.WithSmoothing(cfg.Audio.Smoothing),
	)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("creating mixer: %w", err)
	}

	for _, d := range []*deck.Deck{m.A(), m.B()} {
		d.SetVolume(cfg.Decks.Volume)
		d.SetLoop(cfg.Decks.Loop)
	}
	m.SetCrossfade(cfg.Decks.Crossfade)

	return cfg, logger, m, nil
}

// loadDecks loads both decks concurrently and returns the first failure.
func loadDecks(ctx context.Context, ctl *control.Controller, f deckFlags) error {
	var pending []<-chan error
	if f.pathA != "" {
		pending = append(pending, ctl.LoadFileAsync(ctx, control.A, f.pathA, f.bpmA))
	}
	if f.pathB != "" {
		pending = append(pending, ctl.LoadFileAsync(ctx, control.B, f.pathB, f.bpmB))
	}

	var errs []error
	for _, ch := range pending {
		errs = append(errs, <-ch)
	}
	return errors.Join(errs...)
}

func play(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		f        deckFlags
		autoplay bool
	)
	f.register(fs)
	fs.BoolVar(&autoplay, "autoplay", false, "start the loaded decks right away")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, m, err := setup(f.configPath, stderr)
	if err != nil {
		return err
	}

	backend, err := output.New(cfg.Audio.Backend, logger)
	if err != nil {
		return err
	}

	e := engine.New(backend, m, logger)
	ctl := control.New(m, control.WithEngine(e), control.WithLogger(logger))
	defer ctl.Close()

	if err := e.Open(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.BlockSize); err != nil {
		return err
	}
	if err := e.Start(); err != nil {
		return err
	}

	if err := loadDecks(ctx, ctl, f); err != nil {
		return err
	}
	if autoplay {
		for _, id := range control.Decks {
			if st, _ := ctl.DeckStatus(id); st.State == "stopped" {
				_, _ = ctl.PlayPause(id)
			}
		}
	}

	var srv *server.Server
	serveErr := make(chan error, 1)
	if cfg.Server.Enabled {
		srv = server.New(ctl,
			server.WithLogger(logger),
			server.WithPositionInterval(cfg.Server.PositionInterval),
		)
		go func() { serveErr <- srv.Listen(cfg.Server.Addr) }()
	}

	logger.Info("audmix running", "backend", backend.Name())

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("control api: %w", err)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("control api shutdown", "error", err)
		}
	}

	return nil
}

func render(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		f         deckFlags
		out       string
		seconds   float64
		crossfade float64
		tempoA    float64
		tempoB    float64
		sync      bool
	)
	f.register(fs)
	fs.StringVar(&out, "o", "", "output WAV file")
	fs.Float64Var(&seconds, "seconds", 0, "length of the mix; 0 renders until the decks stop")
	fs.Float64Var(&crossfade, "crossfade", -1, "crossfader position in [0, 1]; default from config")
	fs.Float64Var(&tempoA, "tempo-a", 0, "deck A tempo in percent")
	fs.Float64Var(&tempoB, "tempo-b", 0, "deck B tempo in percent")
	fs.BoolVar(&sync, "sync", false, "resample deck B to deck A's BPM")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if f.pathA == "" || out == "" {
		fmt.Fprintln(stderr, "render needs -a and -o")
		fs.Usage()
		return errUsage
	}

	cfg, logger, m, err := setup(f.configPath, stderr)
	if err != nil {
		return err
	}

	ctl := control.New(m, control.WithLogger(logger))
	defer ctl.Close()

	if err := loadDecks(ctx, ctl, f); err != nil {
		return err
	}

	if sync {
		if _, err := ctl.SyncBPM(); err != nil {
			return err
		}
	}
	if crossfade >= 0 {
		ctl.SetCrossfade(crossfade)
	}
	_ = ctl.SetTempo(control.A, tempoA)
	_ = ctl.SetTempo(control.B, tempoB)

	for _, id := range control.Decks {
		if st, _ := ctl.DeckStatus(id); st.State == "stopped" {
			if _, err := ctl.PlayPause(id); err != nil {
				return err
			}
		}
	}

	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()

	frames, err := audmix.Mixdown(ctx, m, file, audmix.MixdownOptions{
		Duration:  time.Duration(seconds * float64(time.Second)),
		BitDepth:  cfg.Render.BitDepth,
		BlockSize: cfg.Audio.BlockSize,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Info("rendered", "path", out, "seconds", float64(frames)/float64(m.SampleRate()))
	return file.Close()
}
