package main

import (
	"context"

	"github.com/chargen/poshtools/internal/config"
)

type configKey struct{}

// withConfig stores the resolved configuration on the context for
// subcommands.
func withConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the resolved configuration, or the defaults when
// the root command's setup did not run (tests invoking a subcommand
// directly).
func configFrom(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
