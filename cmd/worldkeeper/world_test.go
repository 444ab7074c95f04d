// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/seed"
	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func TestSeedCommand_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeWorld(t, smallWorld)

	out, err := env.run(t, "seed", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded a fresh world")
	assert.Contains(t, out, "Created:")
	assert.NotContains(t, out, "Skipped")

	out, err = env.run(t, "seed", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "Created:")
	assert.Contains(t, out, "Skipped (already present):")
}

func TestSeedCommand_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "seed", filepath.Join(env.dir, "missing.yaml"))
	errutil.AssertErrorCode(t, err, seed.CodeInvalid)

	_, err = env.run(t, "seed", env.writeWorld(t, "format_version: \"2.0.0\"\n"))
	errutil.AssertErrorCode(t, err, seed.CodeUnsupported)

	_, err = env.run(t, "seed")
	require.Error(t, err)
}

func TestValidateWorldCommand_File(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "validate-world", "--file", env.writeWorld(t, smallWorld))
	require.NoError(t, err)
	assert.Contains(t, out, "valid (format 1.0.0, 2 locations, 0 NPCs)")
	_, statErr := os.Stat(env.db)
	assert.True(t, os.IsNotExist(statErr), "validating a file does not touch the database")

	_, err = env.run(t, "validate-world", "--file", env.writeWorld(t, smallWorld+"npcs:\n  - name: Oswin\n    home: Nowhere\n"))
	errutil.AssertErrorCode(t, err, seed.CodeInvalid)
}

func TestValidateWorldCommand_Database(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "seed", env.writeWorld(t, smallWorld))
	require.NoError(t, err)

	out, err := env.run(t, "validate-world")
	require.NoError(t, err)
	assert.Contains(t, out, "World structure is valid")

	_, err = env.run(t, "tool", "add_location", "--arg", "name=Second Root", "--arg", "level=root")
	require.NoError(t, err)

	out, err = env.run(t, "validate-world")
	errutil.AssertErrorCode(t, err, world.CodeInvalidState)
	assert.Contains(t, out, "2 root locations")
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "seed", env.writeWorld(t, smallWorld))
	require.NoError(t, err)

	path := filepath.Join(env.dir, "out", "world.json.zst")
	out, err := env.run(t, "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 locations, 0 NPCs, 1 players")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	snap, err := seed.ReadSnapshot(f)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Clock.Day)
	assert.Len(t, snap.Factions, 1)
}

func TestSnapshotPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, "custom.zst", snapshotPath("custom.zst", now))
	assert.Equal(t, "/data/worldkeeper/snapshots/world-20260304T050607Z.json.zst", snapshotPath("", now))
}

func TestStatusCommand(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "seed", env.writeWorld(t, smallWorld))
	require.NoError(t, err)

	out, err := env.run(t, "status", "--json")
	require.NoError(t, err)

	var status WorldStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, uint(1), status.SchemaVersion)
	assert.Equal(t, 2, status.Day)
	assert.Equal(t, 14, status.Hour)
	assert.Equal(t, 2, status.Counts["locations"])
	assert.Equal(t, 1, status.Counts["players"])
	assert.Equal(t, []string{"Vael"}, status.Roots)
	assert.Empty(t, status.Anomalies)
	assert.Positive(t, status.SizeBytes)

	out, err = env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "CLOCK")
	assert.Contains(t, out, "day 2, 14:00")
	assert.Contains(t, out, "ROOTS")
}

func TestFormatStatusTable(t *testing.T) {
	out := formatStatusTable(&WorldStatus{
		Database:      "data/game.db",
		SizeBytes:     2_500_000,
		SchemaVersion: 1,
		Dirty:         true,
		Day:           4,
		Hour:          7,
		TimeOfDay:     "morning",
		Counts:        map[string]int{"locations": 3},
		Anomalies:     []string{"2 root locations; expected one"},
	})

	assert.Contains(t, out, "data/game.db (2.5 MB)")
	assert.Contains(t, out, "1 (dirty)")
	assert.Contains(t, out, "day 4, 07:00 (morning)")
	assert.Regexp(t, `LOCATIONS\s+3`, out)
	assert.Regexp(t, `ROOTS\s+none`, out)
	assert.Contains(t, out, "2 root locations; expected one")
}
