package app

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/config"
)

// NewLogger builds the root logger from configuration. Format "auto"
// picks the console writer when the sink is a terminal and JSON
// otherwise.
func NewLogger(cfg config.Log, w io.Writer, isTerminal bool) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), errors.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	format := cfg.Format
	if format == "auto" {
		if isTerminal {
			format = "console"
		} else {
			format = "json"
		}
	}

	var sink io.Writer = w
	if format == "console" {
		sink = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(sink).Level(level).With().Timestamp().Logger(), nil
}
