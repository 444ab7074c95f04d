// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/seed"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// NewValidateWorldCmd creates the validate-world subcommand.
func NewValidateWorldCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate-world",
		Short: "Check a world file or the stored world for structural problems",
		Long: `With --file, validates a world file (schema, format version and
references) without touching the database. Otherwise checks the stored
location tree for missing or extra roots, parent cycles and dangling
parent references.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				return validateWorldFile(cmd, file)
			}
			return validateStoredWorld(cmd)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "world file to validate instead of the database")

	return cmd
}

func validateWorldFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is an operator-supplied CLI flag
	if err != nil {
		return oops.Code(seed.CodeInvalid).With("path", path).Wrapf(err, "read world file")
	}
	wf, err := seed.Parse(data)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	cmd.Printf("%s: valid (format %s, %d locations, %d NPCs)\n",
		path, wf.FormatVersion, len(wf.Locations), len(wf.NPCs))
	return nil
}

func validateStoredWorld(cmd *cobra.Command) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	uow, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()

	report, err := world.ValidateRoots(ctx, uow.Locations())
	if err != nil {
		return err
	}
	if report.OK() {
		cmd.Printf("World structure is valid (%d root)\n", len(report.Roots))
		return nil
	}
	for _, a := range report.Anomalies {
		cmd.Println("  - " + a)
	}
	return oops.Code(world.CodeInvalidState).With("anomalies", len(report.Anomalies)).
		Errorf("world structure has %d anomalies", len(report.Anomalies))
}
