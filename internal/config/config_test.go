package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chargen/poshtools/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 4, cfg.Engine.Workers)
	require.True(t, cfg.Remote.Enabled)
	require.Equal(t, 2*time.Second, cfg.Remote.Timeout.Std())
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadEmptyPathKeepsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poshtools.toml")
	content := `
[log]
level = "debug"
format = "json"

[engine]
workers = 8

[remote]
enabled = false
timeout = "500ms"

[output]
color = "never"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, 8, cfg.Engine.Workers)
	require.Equal(t, 64, cfg.Engine.Queue, "unset keys keep defaults")
	require.False(t, cfg.Remote.Enabled)
	require.Equal(t, 500*time.Millisecond, cfg.Remote.Timeout.Std())
	require.Equal(t, "never", cfg.Output.Color)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poshtools.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlvl = \"debug\"\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown key")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poshtools.toml")
	require.NoError(t, os.WriteFile(path, []byte("[remote]\ntimeout = \"soon\"\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("POSHTOOLS_LOG_LEVEL", "warn")
	t.Setenv("POSHTOOLS_ENGINE_WORKERS", "2")
	t.Setenv("POSHTOOLS_REMOTE_ENABLED", "false")
	t.Setenv("POSHTOOLS_REMOTE_TIMEOUT", "3s")
	t.Setenv("POSHTOOLS_OUTPUT_COLOR", "always")

	cfg, err := config.FromEnv(config.Default())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, 2, cfg.Engine.Workers)
	require.False(t, cfg.Remote.Enabled)
	require.Equal(t, 3*time.Second, cfg.Remote.Timeout.Std())
	require.Equal(t, "always", cfg.Output.Color)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("POSHTOOLS_ENGINE_WORKERS", "many")

	_, err := config.FromEnv(config.Default())
	require.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"zero workers", func(c *config.Config) { c.Engine.Workers = 0 }},
		{"zero queue", func(c *config.Config) { c.Engine.Queue = 0 }},
		{"zero timeout", func(c *config.Config) { c.Remote.Timeout = 0 }},
		{"negative restarts", func(c *config.Config) { c.Remote.MaxRestarts = -1 }},
		{"bad color", func(c *config.Config) { c.Output.Color = "sometimes" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
