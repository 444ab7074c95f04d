// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

const connectionColumns = `id, from_location_id, to_location_id, travel_type, travel_time_hours,
	difficulty, description, requirements, bidirectional, hidden, discovered`

type connectionRow struct {
	ID              string                      `db:"id"`
	FromID          string                      `db:"from_location_id"`
	ToID            string                      `db:"to_location_id"`
	TravelType      string                      `db:"travel_type"`
	TravelTimeHours float64                     `db:"travel_time_hours"`
	Difficulty      int                         `db:"difficulty"`
	Description     string                      `db:"description"`
	Requirements    jsonColumn[world.StringSet] `db:"requirements"`
	Bidirectional   bool                        `db:"bidirectional"`
	Hidden          bool                        `db:"hidden"`
	Discovered      bool                        `db:"discovered"`
}

func connectionToRow(c *world.Connection) connectionRow {
	return connectionRow{
		ID:              c.ID.String(),
		FromID:          c.FromID.String(),
		ToID:            c.ToID.String(),
		TravelType:      c.TravelType,
		TravelTimeHours: c.TravelTimeHours,
		Difficulty:      c.Difficulty,
		Description:     c.Description,
		Requirements:    jsonOf(c.Requirements.Clone()),
		Bidirectional:   c.Bidirectional,
		Hidden:          c.Hidden,
		Discovered:      c.Discovered,
	}
}

func (r *connectionRow) toConnection() (*world.Connection, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	from, err := parseID(r.FromID, "from_location_id")
	if err != nil {
		return nil, err
	}
	to, err := parseID(r.ToID, "to_location_id")
	if err != nil {
		return nil, err
	}
	return &world.Connection{
		ID:              id,
		FromID:          from,
		ToID:            to,
		TravelType:      r.TravelType,
		TravelTimeHours: r.TravelTimeHours,
		Difficulty:      r.Difficulty,
		Description:     r.Description,
		Requirements:    r.Requirements.V.Clone(),
		Bidirectional:   r.Bidirectional,
		Hidden:          r.Hidden,
		Discovered:      r.Discovered,
	}, nil
}

// ConnectionStore implements world.ConnectionStore.
type ConnectionStore struct {
	q querier
}

var _ world.ConnectionStore = (*ConnectionStore)(nil)

// Get retrieves a connection by ID.
func (s *ConnectionStore) Get(ctx context.Context, id ulid.ULID) (*world.Connection, error) {
	var row connectionRow
	err := s.q.GetContext(ctx, &row, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodeConnectionNotFound, "connection", "get connection", id)
	}
	return row.toConnection()
}

// Create validates and persists a connection.
func (s *ConnectionStore) Create(ctx context.Context, c *world.Connection) error {
	if err := validate(c); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO connections (`+connectionColumns+`) VALUES (
		:id, :from_location_id, :to_location_id, :travel_type, :travel_time_hours,
		:difficulty, :description, :requirements, :bidirectional, :hidden, :discovered)`, connectionToRow(c))
	if err != nil {
		return oops.With("operation", "create connection").With("id", c.ID.String()).Wrap(err)
	}
	return nil
}

// Update validates and writes a connection.
func (s *ConnectionStore) Update(ctx context.Context, c *world.Connection) error {
	if err := validate(c); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE connections SET
		from_location_id = :from_location_id, to_location_id = :to_location_id,
		travel_type = :travel_type, travel_time_hours = :travel_time_hours,
		difficulty = :difficulty, description = :description, requirements = :requirements,
		bidirectional = :bidirectional, hidden = :hidden, discovered = :discovered
		WHERE id = :id`, connectionToRow(c))
	if err != nil {
		return oops.With("operation", "update connection").With("id", c.ID.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeConnectionNotFound, "connection", c.ID)
}

// Delete removes a connection.
func (s *ConnectionStore) Delete(ctx context.Context, id ulid.ULID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete connection").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeConnectionNotFound, "connection", id)
}

// List returns connections matching filter.
func (s *ConnectionStore) List(ctx context.Context, filter world.ConnectionFilter) ([]*world.Connection, error) {
	var (
		where []string
		args  []any
	)
	if filter.FromID != nil {
		where = append(where, "from_location_id = ?")
		args = append(args, filter.FromID.String())
	}
	if filter.ToID != nil {
		where = append(where, "to_location_id = ?")
		args = append(args, filter.ToID.String())
	}
	query := `SELECT ` + connectionColumns + ` FROM connections`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return s.list(ctx, "list connections", query+` ORDER BY rowid`, args...)
}

// Outgoing returns connections leaving id.
func (s *ConnectionStore) Outgoing(ctx context.Context, id ulid.ULID) ([]*world.Connection, error) {
	return s.list(ctx, "list outgoing connections",
		`SELECT `+connectionColumns+` FROM connections WHERE from_location_id = ? ORDER BY rowid`, id.String())
}

// IncomingBidirectional returns bidirectional connections arriving at id.
func (s *ConnectionStore) IncomingBidirectional(ctx context.Context, id ulid.ULID) ([]*world.Connection, error) {
	return s.list(ctx, "list incoming connections",
		`SELECT `+connectionColumns+` FROM connections WHERE to_location_id = ? AND bidirectional = 1 ORDER BY rowid`, id.String())
}

// Between finds a connection travellable from a to b.
func (s *ConnectionStore) Between(ctx context.Context, a, b ulid.ULID) (*world.Connection, error) {
	var row connectionRow
	err := s.q.GetContext(ctx, &row, `SELECT `+connectionColumns+` FROM connections
		WHERE (from_location_id = ? AND to_location_id = ?)
		   OR (from_location_id = ? AND to_location_id = ? AND bidirectional = 1)
		ORDER BY rowid LIMIT 1`, a.String(), b.String(), b.String(), a.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeConnectionNotFound).
			With("from", a.String()).With("to", b.String()).
			Wrapf(world.ErrNotFound, "no connection from %s to %s", a, b)
	}
	if err != nil {
		return nil, oops.With("operation", "find connection").Wrap(err)
	}
	return row.toConnection()
}

func (s *ConnectionStore) list(ctx context.Context, operation, query string, args ...any) ([]*world.Connection, error) {
	var rows []connectionRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	out := make([]*world.Connection, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toConnection()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
