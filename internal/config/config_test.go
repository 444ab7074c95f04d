// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/config"
	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// isolate points the XDG config dir at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "data/game.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 60*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepInterval)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, "dm", cfg.Tools.DefaultRole)
	assert.Empty(t, cfg.Grants)
	assert.Empty(t, cfg.Source, "missing default file is not an error")
}

func TestLoad_DefaultFileFromXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "worldkeeper"), 0o700))
	path := filepath.Join(dir, "worldkeeper", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: text\n"), 0o600))

	cfg, err := config.Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, path, cfg.Source)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
database:
  path: /srv/world.db
session:
  ttl: 30m
  sweep_interval: 1m
metrics:
  addr: 127.0.0.1:9100
grants:
  dm: ["*"]
  scribe: ["world_read.*", "world_write.create_*"]
`)

	cfg, err := config.Load(flags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/srv/world.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, []string{"world_read.*", "world_write.create_*"}, cfg.Grants["scribe"])
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, path, cfg.Source)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "database:\n  path: /srv/world.db\nsession:\n  ttl: 30m\n")

	cfg, err := config.Load(flags(t, "--config", path, "--db", "/tmp/other.db", "--session-ttl", "2h"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestLoad_UnchangedFlagsDoNotOverrideFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "database:\n  path: /srv/world.db\n")

	cfg, err := config.Load(flags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "/srv/world.db", cfg.Database.Path)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	_, err := config.Load(flags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	errutil.AssertErrorCode(t, err, config.CodeInvalid)

	_, err = config.Load(flags(t, "--config", writeConfig(t, "database: [unclosed")))
	errutil.AssertErrorCode(t, err, config.CodeInvalid)

	_, err = config.Load(flags(t, "--log-format", "xml"))
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Database: config.DatabaseConfig{Path: "game.db"},
			Log:      config.LogConfig{Format: "json", Level: "info"},
			Session:  config.SessionConfig{TTL: time.Minute, SweepInterval: time.Minute},
			Tools:    config.ToolsConfig{DefaultRole: "dm"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		key    string
	}{
		{"empty database", func(c *config.Config) { c.Database.Path = " " }, "database.path"},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero ttl", func(c *config.Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"negative sweep", func(c *config.Config) { c.Session.SweepInterval = -time.Second }, "session.sweep_interval"},
		{"no default role", func(c *config.Config) { c.Tools.DefaultRole = "" }, "tools.default_role"},
		{"default role without grants", func(c *config.Config) {
			c.Grants = map[string][]string{"observer": {"world_read.*"}}
		}, "tools.default_role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			errutil.AssertErrorCode(t, err, config.CodeInvalid)
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c.Log.Level = "shout"
	errutil.AssertErrorCode(t, c.Validate(), config.CodeInvalid)
}

func TestLoggingOptions(t *testing.T) {
	c := config.Config{Log: config.LogConfig{Format: "text", Level: "debug"}}
	opts := c.LoggingOptions("worldkeeper", "1.2.3")

	assert.Equal(t, "worldkeeper", opts.Service)
	assert.Equal(t, "1.2.3", opts.Version)
	assert.Equal(t, "text", opts.Format)
	assert.Equal(t, slog.LevelDebug, opts.Level)
}
