// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/seed"
	"github.com/worldkeeper/worldkeeper/internal/xdg"
)

// NewExportCmd creates the export subcommand.
func NewExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a compressed snapshot of the whole world",
		Long: `Reads the entire world in one transaction and writes it as
zstd-compressed JSON. Without --out the snapshot goes to the snapshot
directory (XDG_DATA_HOME/worldkeeper/snapshots).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, snapshotPath(out, time.Now().UTC()))
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: snapshot directory)")

	return cmd
}

// snapshotPath returns out, or a timestamped file in the snapshot directory.
func snapshotPath(out string, now time.Time) string {
	if out != "" {
		return out
	}
	return filepath.Join(xdg.SnapshotDir(), "world-"+now.Format("20060102T150405Z")+".json.zst")
}

func runExport(cmd *cobra.Command, path string) (err error) {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // operator-supplied path
	if err != nil {
		return oops.Code(seed.CodeSnapshotFailed).With("path", path).Wrap(err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = oops.Code(seed.CodeSnapshotFailed).With("path", path).Wrap(closeErr)
		}
	}()

	snap, err := seed.Export(ctx, store, f)
	if err != nil {
		return err
	}
	cmd.Printf("Exported %d locations, %d NPCs, %d players to %s\n",
		len(snap.Locations), len(snap.NPCs), len(snap.Players), path)
	return nil
}
