// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallWorld = `format_version: "1.0.0"
clock: {day: 2, hour: 14}
factions:
  - name: River Guild
locations:
  - name: Vael
  - name: Brindle
    parent: Vael
    level: settlement
players:
  - name: Wren
    location: Brindle
`

// testEnv isolates configuration and points the database at a temp file.
type testEnv struct {
	dir string
	db  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg = nil
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Cleanup(func() { cfg = nil })
	return &testEnv{dir: dir, db: filepath.Join(dir, "world.db")}
}

// run executes the root command with --db and text logging prepended.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--db", e.db, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (e *testEnv) writeWorld(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(e.dir, "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	subcommands := []string{"migrate", "seed", "validate-world", "export", "tool", "serve", "status"}
	for _, sub := range subcommands {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"config", "db", "log-format", "log-level", "metrics-addr", "session-ttl", "sweep-interval", "role"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestRootCommand_InvalidConfigFails(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "--log-format", "xml", "status")
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestRootCommand_ExplicitConfigFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools:\n  default_role: observer\n"), 0o600))

	_, err := env.run(t, "--config", path, "status")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "observer", cfg.Tools.DefaultRole)
	assert.Equal(t, path, cfg.Source)
}
