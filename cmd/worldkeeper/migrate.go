// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/world/sqlite"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back or inspect the embedded schema migrations of the
configured database file. Without a subcommand, migrate runs "up".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *sqlite.Migrator) error {
				return migrateUp(cmd, m)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *sqlite.Migrator) error {
				return migrateUp(cmd, m)
			})
		},
	})

	var confirmed bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all world data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all world data; pass --yes to confirm")
			}
			return withMigrator(func(m *sqlite.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all world data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *sqlite.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				name, err := sqlite.MigrationName(version)
				if err != nil {
					return err
				}
				line := "version " + strconv.FormatUint(uint64(version), 10)
				if name != "" {
					line += " (" + name + ")"
				}
				if dirty {
					line += " [dirty]"
				}
				cmd.Println(line)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long: `Record VERSION as the applied schema version without running any
migration. Use it only to recover from a dirty state after manual repair.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(func(m *sqlite.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced version %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator runs fn against a migrator for the configured database and
// closes it afterwards.
func withMigrator(fn func(*sqlite.Migrator) error) error {
	m, err := sqlite.NewMigrator(cfg.Database.Path)
	if err != nil {
		return err
	}
	runErr := fn(m)
	if closeErr := m.Close(); closeErr != nil && runErr == nil {
		return closeErr
	}
	return runErr
}

func migrateUp(cmd *cobra.Command, m *sqlite.Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("Database is up to date")
		return nil
	}
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Printf("Applied %d migration(s)\n", len(pending))
	return nil
}

// parseForceVersion parses the argument of "migrate force".
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrapf(err, "version must be an integer")
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative, got %d", v)
	}
	return v, nil
}
