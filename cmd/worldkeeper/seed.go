// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/seed"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed WORLD_FILE",
		Short: "Load an authored world file into the database",
		Long: `Validates WORLD_FILE against the world file schema and applies it in
a single transaction. Entities that already exist by name are skipped, so
seeding the same file twice is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// cmd.Context() carries SIGINT/SIGTERM cancellation.
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runSeed(ctx, cmd, args[0])
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is an operator-supplied CLI argument
	if err != nil {
		return oops.Code(seed.CodeInvalid).With("path", path).Wrapf(err, "read world file")
	}
	wf, err := seed.Parse(data)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	report, err := seed.Apply(ctx, store, wf)
	if err != nil {
		return err
	}

	if report.Fresh {
		cmd.Println("Seeded a fresh world")
	}
	printCounts(cmd, "Created", report.Created)
	printCounts(cmd, "Skipped (already present)", report.Skipped)
	return nil
}

func printCounts(cmd *cobra.Command, heading string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	cmd.Println(heading + ":")
	for _, k := range kinds {
		cmd.Printf("  %-22s %d\n", k, counts[k])
	}
}
