// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/config"
	"github.com/worldkeeper/worldkeeper/internal/logging"
	"github.com/worldkeeper/worldkeeper/internal/session"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world/sqlite"
)

const serviceName = "worldkeeper"

// cfg is loaded once per invocation before any subcommand runs.
var cfg *config.Config

// NewRootCmd creates the root command for the Worldkeeper CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worldkeeper",
		Short: "Worldkeeper - persistent world state for narrative games",
		Long: `Worldkeeper keeps the state of a narrative game world (locations,
characters, factions, quests and time) in a single SQLite file and
exposes it as a set of tools a narrator or NPC agent can call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			cfg = loaded
			logging.SetDefault(cfg.LoggingOptions(serviceName, versionString()))
			if cfg.Source != "" {
				slog.Debug("configuration loaded", "path", cfg.Source)
			}
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateWorldCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewToolCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

func versionString() string {
	if commit == "unknown" {
		return version
	}
	return version + "+" + commit
}

// openStore migrates the configured database to the latest schema and
// opens it.
func openStore(ctx context.Context) (*sqlite.Store, error) {
	path := filepath.Clean(cfg.Database.Path)
	if err := sqlite.MigrateUp(path); err != nil {
		return nil, oops.Code("MIGRATION_FAILED").With("path", path).Wrap(err)
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	return store, nil
}

// newDispatcher builds a dispatcher over store using the configured grants,
// default role and session TTL.
func newDispatcher(store *sqlite.Store) (*tools.Dispatcher, error) {
	patterns := cfg.Grants
	if len(patterns) == 0 {
		patterns = tools.DefaultGrants()
	}
	grants, err := tools.NewGrants(patterns)
	if err != nil {
		return nil, err
	}
	return tools.NewDispatcher(tools.NewDefaultRegistry(), store,
		tools.WithGrants(grants),
		tools.WithDefaultRole(cfg.Tools.DefaultRole),
		tools.WithSessions(session.NewManager(session.WithTTL(cfg.Session.TTL))),
		tools.WithLogger(slog.Default()),
	)
}
