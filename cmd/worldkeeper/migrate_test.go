// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
		{name: "non-numeric returns error", input: "abc", wantErr: true},
		{name: "float returns error", input: "1.5", wantErr: true},
		{name: "trailing chars return error", input: "3abc", wantErr: true},
		{name: "negative returns error", input: "-1", wantErr: true},
		{name: "empty string returns error", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestMigrateCommand_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 migration(s)")

	out, err = env.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is up to date")

	out, err = env.run(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1 (000001_")

	_, err = env.run(t, "migrate", "down")
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")

	out, err = env.run(t, "migrate", "down", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back")

	out, err = env.run(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version 0")
}

func TestMigrateCommand_Force(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "migrate", "up")
	require.NoError(t, err)

	out, err := env.run(t, "migrate", "force", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Forced version 1")

	_, err = env.run(t, "migrate", "force", "x")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}
