package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type config struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	FPS    int    `toml:"fps"`
	Demo   string `toml:"demo"`
	// Log is the minimum level logged: debug, info, warn or error.
	Log string `toml:"log"`
	// Params is a TOML file of uniform values, reloaded on change.
	Params string `toml:"params"`
	// Style is the chroma style used to highlight printed sources.
	Style    string `toml:"style"`
	Print    bool   `toml:"print"`
	NoUI     bool   `toml:"noui"`
	Snapshot string `toml:"snapshot"`
	List     bool   `toml:"-"`
}

func defaultConfig() config {
	return config{
		Width:  800,
		Height: 600,
		FPS:    60,
		Demo:   "sdf",
		Log:    "info",
		Style:  "monokai",
	}
}

// parseConfig reads flags from args. Values in a -config file replace the
// defaults and flags given explicitly replace both.
func parseConfig(args []string, output io.Writer) (config, error) {
	var (
		flags      config
		configPath string
	)
	fs := flag.NewFlagSet("zenview", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&configPath, "config", "", "TOML configuration file")
	fs.IntVar(&flags.Width, "width", 0, "window width")
	fs.IntVar(&flags.Height, "height", 0, "window height")
	fs.IntVar(&flags.FPS, "fps", 0, "frame rate limit, 0 for no limit")
	fs.StringVar(&flags.Demo, "demo", "", "demo to run, see -list")
	fs.StringVar(&flags.Log, "log", "", "log level: debug, info, warn or error")
	fs.StringVar(&flags.Params, "params", "", "TOML file of uniform values watched for changes")
	fs.StringVar(&flags.Style, "style", "", "highlighting style of printed GLSL")
	fs.BoolVar(&flags.Print, "print", false, "print the generated GLSL")
	fs.BoolVar(&flags.NoUI, "noui", false, "do not open a window")
	fs.StringVar(&flags.Snapshot, "snapshot", "", "save the last frame as PNG to this file on exit")
	fs.BoolVar(&flags.List, "list", false, "list demos and exit")
	err := fs.Parse(args)
	if err != nil {
		return config{}, err
	} else if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %q", fs.Args())
	}

	cfg := defaultConfig()
	if configPath != "" {
		err = loadConfig(configPath, &cfg)
		if err != nil {
			return config{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = flags.Width
		case "height":
			cfg.Height = flags.Height
		case "fps":
			cfg.FPS = flags.FPS
		case "demo":
			cfg.Demo = flags.Demo
		case "log":
			cfg.Log = flags.Log
		case "params":
			cfg.Params = flags.Params
		case "style":
			cfg.Style = flags.Style
		case "print":
			cfg.Print = flags.Print
		case "noui":
			cfg.NoUI = flags.NoUI
		case "snapshot":
			cfg.Snapshot = flags.Snapshot
		case "list":
			cfg.List = flags.List
		}
	})
	return cfg, cfg.validate()
}

func loadConfig(path string, cfg *config) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = toml.NewDecoder(fp).DisallowUnknownFields().Decode(cfg)
	if err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (cfg config) validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	} else if cfg.FPS < 0 {
		return fmt.Errorf("invalid fps %d", cfg.FPS)
	}
	_, err := cfg.level()
	return err
}

func (cfg config) level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(cfg.Log))
	if err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
