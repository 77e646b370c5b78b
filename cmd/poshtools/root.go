package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chargen/poshtools/internal/app"
	"github.com/chargen/poshtools/internal/config"
)

// rootFlags are the persistent flag values shared by all subcommands.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "poshtools",
		Short:         "PowerShell script analysis engine",
		Long:          "poshtools analyzes PowerShell scripts: tokens, syntax tree, diagnostics, brace matching and foldable regions.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			logger, err := app.NewLogger(cfg.Log, cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			ctx := logger.WithContext(cmd.Context())
			ctx = withConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to poshtools.toml")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format (auto|console|json)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newTokensCmd())
	cmd.AddCommand(newOutlineCmd())
	cmd.AddCommand(newParserServerCmd())

	return cmd
}

// loadConfig layers file, environment and flag overrides.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	cfg, err = config.FromEnv(cfg)
	if err != nil {
		return cfg, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.noColor {
		cfg.Output.Color = "never"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// isTerminal reports whether the writer the command actually uses is a
// terminal. Redirected or buffered sinks never count, even when the
// process's own stdio is a tty.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
