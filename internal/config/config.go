// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package config loads Worldkeeper configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/worldkeeper/worldkeeper/internal/logging"
	"github.com/worldkeeper/worldkeeper/internal/xdg"
)

// CodeInvalid tags every configuration error.
const CodeInvalid = "CONFIG_INVALID"

// Flag names shared by the CLI.
const (
	FlagConfig      = "config"
	FlagDatabase    = "db"
	FlagLogFormat   = "log-format"
	FlagLogLevel    = "log-level"
	FlagMetricsAddr = "metrics-addr"
	FlagSessionTTL  = "session-ttl"
	FlagSweepEvery  = "sweep-interval"
	FlagDefaultRole = "role"
)

const (
	defaultDatabase  = "data/game.db"
	defaultTTL       = 60 * time.Minute
	defaultSweep     = 5 * time.Minute
	defaultLogFormat = "json"
)

// flagKeys maps CLI flags onto configuration keys.
var flagKeys = map[string]string{
	FlagDatabase:    "database.path",
	FlagLogFormat:   "log.format",
	FlagLogLevel:    "log.level",
	FlagMetricsAddr: "metrics.addr",
	FlagSessionTTL:  "session.ttl",
	FlagSweepEvery:  "session.sweep_interval",
	FlagDefaultRole: "tools.default_role",
}

// Config is the complete runtime configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Session  SessionConfig  `koanf:"session"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Tools    ToolsConfig    `koanf:"tools"`
	// Grants maps a role to the "<category>.<tool>" glob patterns it may
	// call. Empty means the built-in grants.
	Grants map[string][]string `koanf:"grants"`

	// Source is the config file that was loaded, or "".
	Source string `koanf:"-"`
}

// DatabaseConfig locates the world database.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// LogConfig selects log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// SessionConfig tunes the session cache.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// MetricsConfig enables the observability server when Addr is set.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// ToolsConfig tunes the dispatcher.
type ToolsConfig struct {
	DefaultRole string `koanf:"default_role"`
}

func defaults() map[string]any {
	return map[string]any{
		"database.path":          defaultDatabase,
		"log.format":             defaultLogFormat,
		"log.level":              "info",
		"session.ttl":            defaultTTL,
		"session.sweep_interval": defaultSweep,
		"metrics.addr":           "",
		"tools.default_role":     "dm",
	}
}

// RegisterFlags adds the configuration flags to flags. Flag defaults mirror
// the built-in defaults; only flags the user sets override the file.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagConfig, "", "config file (default "+xdg.ConfigFile()+")")
	flags.String(FlagDatabase, defaultDatabase, "world database file")
	flags.String(FlagLogFormat, defaultLogFormat, "log format (json, text)")
	flags.String(FlagLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(FlagMetricsAddr, "", "observability listen address; empty disables it")
	flags.Duration(FlagSessionTTL, defaultTTL, "idle lifetime of cached sessions")
	flags.Duration(FlagSweepEvery, defaultSweep, "how often expired sessions are swept")
	flags.String(FlagDefaultRole, "dm", "role used for tool calls that name none")
}

// Load builds the configuration. flags may be nil. The file named by the
// --config flag must exist; the default XDG file is optional.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, oops.Code(CodeInvalid).With("key", key).Wrap(err)
		}
	}

	path, explicit := configPath(flags)
	if path != "" {
		switch _, err := os.Stat(path); {
		case err == nil:
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "read config file")
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			path = ""
		default:
			return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "read config file")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalid).Wrapf(err, "read flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	cfg.Source = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPath(flags *pflag.FlagSet) (string, bool) {
	if flags != nil {
		if f := flags.Lookup(FlagConfig); f != nil && f.Value.String() != "" {
			return f.Value.String(), true
		}
	}
	return xdg.ConfigFile(), false
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return oops.Code(CodeInvalid).With("key", "database.path").Errorf("database path is required")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code(CodeInvalid).With("key", "log.format").Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Session.TTL <= 0 {
		return oops.Code(CodeInvalid).With("key", "session.ttl").Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.SweepInterval <= 0 {
		return oops.Code(CodeInvalid).With("key", "session.sweep_interval").
			Errorf("sweep interval must be positive, got %s", c.Session.SweepInterval)
	}
	if strings.TrimSpace(c.Tools.DefaultRole) == "" {
		return oops.Code(CodeInvalid).With("key", "tools.default_role").Errorf("default role is required")
	}
	for role, patterns := range c.Grants {
		for _, p := range patterns {
			if _, err := glob.Compile(p); err != nil {
				return oops.Code(CodeInvalid).With("key", "grants."+role).With("pattern", p).Wrapf(err, "invalid grant pattern")
			}
		}
	}
	if len(c.Grants) > 0 {
		if _, ok := c.Grants[c.Tools.DefaultRole]; !ok {
			return oops.Code(CodeInvalid).With("key", "tools.default_role").
				Errorf("default role %q has no grants", c.Tools.DefaultRole)
		}
	}
	return nil
}

// LoggingOptions returns the logger options for this configuration.
func (c *Config) LoggingOptions(service, version string) logging.Options {
	level, _ := logging.ParseLevel(c.Log.Level) //nolint:errcheck // checked by Validate
	return logging.Options{Service: service, Version: version, Format: c.Log.Format, Level: level}
}
