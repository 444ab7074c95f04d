// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.Truef(t, ok, "want a coded error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode fails the test unless err carries code. Codes set deeper
// in the chain win, so this checks the code a caller would see.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.NotNilf(t, err, "want error with code %s, got nil", code)
	assert.Equalf(t, code, requireOops(t, err).Code(), "error: %v", err)
}

// AssertErrorContext fails the test unless err carries key with value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	got := ErrorContextValue(t, err, key)
	assert.Equalf(t, value, got, "context %q", key)
}

// ErrorContextValue returns the context value stored under key, failing the
// test when the key is absent.
func ErrorContextValue(t *testing.T, err error, key string) any {
	t.Helper()
	ctx := requireOops(t, err).Context()
	v, ok := ctx[key]
	require.Truef(t, ok, "context key %q missing; have %v", key, ctx)
	return v
}
