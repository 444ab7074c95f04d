// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/internal/world/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.db")
	require.NoError(t, sqlite.MigrateUp(path))
	s, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newDispatcher(t *testing.T, opts ...tools.DispatcherOption) (*tools.Dispatcher, *sqlite.Store) {
	t.Helper()
	s := newStore(t)
	d, err := tools.NewDispatcher(nil, s, opts...)
	require.NoError(t, err)
	return d, s
}

// seed runs fn in a committed unit of work.
func seed(t *testing.T, s *sqlite.Store, fn func(ctx context.Context, uow world.UnitOfWork)) {
	t.Helper()
	err := world.InTransaction(context.Background(), s, func(uow world.UnitOfWork) error {
		fn(context.Background(), uow)
		return nil
	})
	require.NoError(t, err)
}

func call(t *testing.T, d *tools.Dispatcher, tool string, args tools.Args) result.Response {
	t.Helper()
	return d.Call(context.Background(), tools.Call{Tool: tool, Args: args})
}

func requireOK(t *testing.T, resp result.Response) {
	t.Helper()
	require.True(t, resp.Success(), "unexpected failure: %v (%s)", resp["error"], resp.ErrorCode())
}

func assertFails(t *testing.T, resp result.Response, code string) {
	t.Helper()
	assert.False(t, resp.Success())
	assert.Equal(t, code, resp.ErrorCode(), "error: %v", resp["error"])
	assert.NotEmpty(t, resp["error"])
}
