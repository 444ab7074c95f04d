// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// ClockStore implements world.ClockStore on the single-row world_clock table.
type ClockStore struct {
	q querier
}

var _ world.ClockStore = (*ClockStore)(nil)

// Get returns the stored clock or a fresh one.
func (s *ClockStore) Get(ctx context.Context) (*world.WorldClock, error) {
	var c world.WorldClock
	err := s.q.QueryRowxContext(ctx, `SELECT day, hour FROM world_clock WHERE id = 1`).Scan(&c.Day, &c.Hour)
	if errors.Is(err, sql.ErrNoRows) {
		return world.NewWorldClock(), nil
	}
	if err != nil {
		return nil, oops.With("operation", "get clock").Wrap(err)
	}
	return &c, nil
}

// Save writes the clock.
func (s *ClockStore) Save(ctx context.Context, c *world.WorldClock) error {
	if err := validate(c); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO world_clock (id, day, hour) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET day = excluded.day, hour = excluded.hour`, c.Day, c.Hour)
	if err != nil {
		return oops.With("operation", "save clock").Wrap(err)
	}
	return nil
}
