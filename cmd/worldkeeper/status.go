// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/internal/world/sqlite"
)

// WorldStatus summarizes the stored world.
type WorldStatus struct {
	Database      string         `json:"database"`
	SizeBytes     int64          `json:"size_bytes"`
	SchemaVersion uint           `json:"schema_version"`
	Dirty         bool           `json:"dirty,omitempty"`
	Day           int            `json:"day"`
	Hour          int            `json:"hour"`
	TimeOfDay     string         `json:"time_of_day"`
	Counts        map[string]int `json:"counts"`
	Roots         []string       `json:"roots"`
	Anomalies     []string       `json:"anomalies"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the configured world database",
		Long:  `Show the schema version, world clock, entity counts and root check of the configured database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			status, err := collectStatus(ctx, store)
			if err != nil {
				return err
			}
			if jsonOutput {
				out, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return oops.With("operation", "format status").Wrap(err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatStatusTable(status))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func collectStatus(ctx context.Context, store *sqlite.Store) (*WorldStatus, error) {
	status := &WorldStatus{Database: store.Path(), Counts: map[string]int{}}
	if fi, err := os.Stat(store.Path()); err == nil {
		status.SizeBytes = fi.Size()
	}

	m, err := sqlite.NewMigrator(store.Path())
	if err != nil {
		return nil, err
	}
	status.SchemaVersion, status.Dirty, err = m.Version()
	_ = m.Close()
	if err != nil {
		return nil, err
	}

	uow, err := store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback() }()

	clock, err := uow.Clock().Get(ctx)
	if err != nil {
		return nil, err
	}
	status.Day, status.Hour, status.TimeOfDay = clock.Day, clock.Hour, clock.TimeOfDay()

	count := func(kind string, n int, err error) error {
		status.Counts[kind] = n
		return err
	}
	locs, err := uow.Locations().List(ctx, world.LocationFilter{})
	if err := count("locations", len(locs), err); err != nil {
		return nil, err
	}
	conns, err := uow.Connections().List(ctx, world.ConnectionFilter{})
	if err := count("connections", len(conns), err); err != nil {
		return nil, err
	}
	npcs, err := uow.NPCs().List(ctx, world.NPCFilter{})
	if err := count("npcs", len(npcs), err); err != nil {
		return nil, err
	}
	players, err := uow.Players().List(ctx)
	if err := count("players", len(players), err); err != nil {
		return nil, err
	}
	factions, err := uow.Factions().List(ctx)
	if err := count("factions", len(factions), err); err != nil {
		return nil, err
	}
	quests, err := uow.Quests().List(ctx, nil)
	if err := count("quests", len(quests), err); err != nil {
		return nil, err
	}

	roots, err := world.ValidateRoots(ctx, uow.Locations())
	if err != nil {
		return nil, err
	}
	status.Roots = make([]string, 0, len(roots.Roots))
	for _, r := range roots.Roots {
		status.Roots = append(status.Roots, r.Name)
	}
	status.Anomalies = roots.Anomalies
	return status, nil
}

// formatStatusTable formats a status as a human-readable table.
func formatStatusTable(s *WorldStatus) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	version := fmt.Sprint(s.SchemaVersion)
	if s.Dirty {
		version += " (dirty)"
	}
	fmt.Fprintf(tw, "DATABASE\t%s (%s)\n", s.Database, humanize.Bytes(uint64(max(s.SizeBytes, 0))))
	fmt.Fprintf(tw, "SCHEMA\t%s\n", version)
	fmt.Fprintf(tw, "CLOCK\tday %d, %02d:00 (%s)\n", s.Day, s.Hour, s.TimeOfDay)
	for _, kind := range []string{"locations", "connections", "npcs", "players", "factions", "quests"} {
		fmt.Fprintf(tw, "%s\t%d\n", strings.ToUpper(kind), s.Counts[kind])
	}
	roots := "none"
	if len(s.Roots) > 0 {
		roots = strings.Join(s.Roots, ", ")
	}
	fmt.Fprintf(tw, "ROOTS\t%s\n", roots)
	for _, a := range s.Anomalies {
		fmt.Fprintf(tw, "ANOMALY\t%s\n", a)
	}
	_ = tw.Flush()
	return sb.String()
}
