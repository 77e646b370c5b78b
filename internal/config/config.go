// Package config loads the engine's TOML configuration with layered
// defaults, an optional file, and POSHTOOLS_* environment overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gitlab.com/tozd/go/errors"
)

// Duration is a time.Duration that decodes from TOML strings like
// "2s" or "250ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Errorf("parsing duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full engine configuration.
type Config struct {
	Log    Log    `toml:"log"`
	Engine Engine `toml:"engine"`
	Remote Remote `toml:"remote"`
	Output Output `toml:"output"`
}

// Log configures the root logger.
type Log struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `toml:"level"`

	// Format selects the sink encoding: auto, console, or json. Auto
	// picks console on a terminal and json otherwise.
	Format string `toml:"format"`
}

// Engine configures the analysis worker pool.
type Engine struct {
	// Workers is the pool's goroutine count.
	Workers int `toml:"workers"`

	// Queue is the pool's pending-pass capacity.
	Queue int `toml:"queue"`
}

// Remote configures the out-of-process parser peer.
type Remote struct {
	// Enabled turns the richer out-of-process diagnostics on.
	Enabled bool `toml:"enabled"`

	// Command launches the peer. Empty re-executes this binary with
	// the parser-server subcommand.
	Command string `toml:"command"`

	// Timeout bounds one deep-parse round trip.
	Timeout Duration `toml:"timeout"`

	// MaxRestarts caps peer respawn attempts.
	MaxRestarts int `toml:"max_restarts"`
}

// Output configures the CLI's terminal output.
type Output struct {
	// Color is auto, always, or never.
	Color string `toml:"color"`
}

// Default returns the configuration used when no file or override says
// otherwise.
func Default() Config {
	return Config{
		Log:    Log{Level: "info", Format: "auto"},
		Engine: Engine{Workers: 4, Queue: 64},
		Remote: Remote{
			Enabled:     true,
			Timeout:     Duration(2 * time.Second),
			MaxRestarts: 3,
		},
		Output: Output{Color: "auto"},
	}
}

// Load reads path over the defaults. A missing file is not an error:
// the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.Errorf("config %s: unknown key %s", path, undecoded[0].String())
	}
	return cfg, nil
}

// FromEnv applies POSHTOOLS_* overrides on top of cfg. Unset variables
// leave the current value alone.
func FromEnv(cfg Config) (Config, error) {
	if v, ok := os.LookupEnv("POSHTOOLS_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("POSHTOOLS_LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := os.LookupEnv("POSHTOOLS_ENGINE_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Errorf("POSHTOOLS_ENGINE_WORKERS: %w", err)
		}
		cfg.Engine.Workers = n
	}
	if v, ok := os.LookupEnv("POSHTOOLS_ENGINE_QUEUE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Errorf("POSHTOOLS_ENGINE_QUEUE: %w", err)
		}
		cfg.Engine.Queue = n
	}
	if v, ok := os.LookupEnv("POSHTOOLS_REMOTE_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.Errorf("POSHTOOLS_REMOTE_ENABLED: %w", err)
		}
		cfg.Remote.Enabled = b
	}
	if v, ok := os.LookupEnv("POSHTOOLS_REMOTE_COMMAND"); ok {
		cfg.Remote.Command = v
	}
	if v, ok := os.LookupEnv("POSHTOOLS_REMOTE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, errors.Errorf("POSHTOOLS_REMOTE_TIMEOUT: %w", err)
		}
		cfg.Remote.Timeout = Duration(d)
	}
	if v, ok := os.LookupEnv("POSHTOOLS_OUTPUT_COLOR"); ok {
		cfg.Output.Color = v
	}
	return cfg, nil
}

// validLogLevels are the accepted zerolog level names.
var validLogLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {},
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if _, ok := validLogLevels[c.Log.Level]; !ok {
		return errors.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "auto", "console", "json":
	default:
		return errors.Errorf("log.format: must be auto, console, or json, got %q", c.Log.Format)
	}
	if c.Engine.Workers < 1 {
		return errors.Errorf("engine.workers: must be at least 1, got %d", c.Engine.Workers)
	}
	if c.Engine.Queue < 1 {
		return errors.Errorf("engine.queue: must be at least 1, got %d", c.Engine.Queue)
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("remote.timeout: must be positive")
	}
	if c.Remote.MaxRestarts < 0 {
		return errors.Errorf("remote.max_restarts: must not be negative, got %d", c.Remote.MaxRestarts)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return errors.Errorf("output.color: must be auto, always, or never, got %q", c.Output.Color)
	}
	return nil
}
