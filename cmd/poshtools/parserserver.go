package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chargen/poshtools/internal/remote"
)

// newParserServerCmd is the out-of-process richer parser peer. The
// engine spawns this binary with the parser-server subcommand and
// speaks the msgpack frame protocol over its stdio; it is hidden
// because users never run it by hand.
func newParserServerCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:    "parser-server",
		Short:  "Run the out-of-process parser peer on stdio",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := remote.DefaultServeConfig()
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}
			return remote.Serve(cmd.Context(), os.Stdin, os.Stdout, cfg)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent parses (0 = default)")
	return cmd
}
