// Command zenview compiles demo shader graphs and renders them in a window.
//
// Usage:
//
//	zenview -demo sdf -print -params params.toml
//
// Uniforms exposed by a demo are set from the params file, which is reloaded
// when written. See -list for the available demos.
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
	"strings"

	"github.com/muesli/termenv"
	"github.com/soypat/zengl/glrender"
	"github.com/soypat/zengl/zenaux"
)

func main() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	} else if err != nil {
		fmt.Fprintln(os.Stderr, "zenview:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := parseConfig(args, os.Stderr)
	if err != nil {
		return err
	}
	level, _ := cfg.level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	glrender.SetLogger(log)
	if cfg.List {
		for _, name := range demoNames() {
			fmt.Fprintf(stdout, "%-10s %s\n", name, demos[name].desc)
		}
		return nil
	}

	d, err := newDemo(cfg.Demo)
	if err != nil {
		return err
	}
	if names := d.params.names(); len(names) > 0 {
		log.Info("demo params", slog.String("demo", cfg.Demo), slog.String("names", strings.Join(names, ",")))
	}
	if cfg.Print {
		formatter := formatterFor(termenv.EnvColorProfile())
		for _, job := range d.jobs {
			err = printSources(stdout, job, formatter, cfg.Style)
			if err != nil {
				return err
			}
		}
	}
	if cfg.NoUI {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	var updates <-chan []paramUpdate
	if cfg.Params != "" {
		updates, err = watchParams(ctx, cfg.Params, log)
		if err != nil {
			return fmt.Errorf("watching params: %w", err)
		}
	}
	return zenaux.UI(zenaux.UIConfig{
		Context:   ctx,
		Title:     "zenview: " + cfg.Demo,
		Width:     cfg.Width,
		Height:    cfg.Height,
		FPS:       cfg.FPS,
		Resizable: true,
		Time:      d.time,
		OnFrame: func(frame uint64, seconds float64) {
			select {
			case ups := <-updates:
				n := d.params.apply(ups, log)
				log.Info("params applied", slog.Int("count", n), slog.Uint64("frame", frame))
			default:
			}
		},
		SnapshotPath: cfg.Snapshot,
		Logger:       log,
	}, d.jobs...)
}
