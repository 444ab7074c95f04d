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

const locationColumns = `id, name, level, display_label, parent_id, depth, children_generated,
	position_x, position_y, position_z, description, atmosphere_tags, economic_function,
	population_level, secrets, controlling_faction_id, current_state, visited, discovered,
	last_visited_day, map_display, created_at`

type locationRow struct {
	ID                   string                        `db:"id"`
	Name                 string                        `db:"name"`
	Level                string                        `db:"level"`
	DisplayLabel         string                        `db:"display_label"`
	ParentID             *string                       `db:"parent_id"`
	Depth                int                           `db:"depth"`
	ChildrenGenerated    bool                          `db:"children_generated"`
	X                    float64                       `db:"position_x"`
	Y                    float64                       `db:"position_y"`
	Z                    float64                       `db:"position_z"`
	Description          string                        `db:"description"`
	AtmosphereTags       jsonColumn[world.StringSet]   `db:"atmosphere_tags"`
	EconomicFunction     string                        `db:"economic_function"`
	PopulationLevel      string                        `db:"population_level"`
	Secrets              jsonColumn[world.StringSet]   `db:"secrets"`
	ControllingFactionID *string                       `db:"controlling_faction_id"`
	State                string                        `db:"current_state"`
	Visited              bool                          `db:"visited"`
	Discovered           bool                          `db:"discovered"`
	LastVisitedDay       *int                          `db:"last_visited_day"`
	Map                  jsonColumn[world.MapDisplay]  `db:"map_display"`
	CreatedAt            string                        `db:"created_at"`
}

func locationToRow(l *world.Location) locationRow {
	return locationRow{
		ID:                   l.ID.String(),
		Name:                 l.Name,
		Level:                string(l.Level),
		DisplayLabel:         l.DisplayLabel,
		ParentID:             idPtr(l.ParentID),
		Depth:                l.Depth,
		ChildrenGenerated:    l.ChildrenGenerated,
		X:                    l.Position.X,
		Y:                    l.Position.Y,
		Z:                    l.Position.Z,
		Description:          l.Description,
		AtmosphereTags:       jsonOf(l.AtmosphereTags.Clone()),
		EconomicFunction:     l.EconomicFunction,
		PopulationLevel:      l.PopulationLevel,
		Secrets:              jsonOf(l.Secrets.Clone()),
		ControllingFactionID: idPtr(l.ControllingFactionID),
		State:                l.State,
		Visited:              l.Visited,
		Discovered:           l.Discovered,
		LastVisitedDay:       l.LastVisitedDay,
		Map:                  jsonOf(l.Map),
		CreatedAt:            formatTime(l.CreatedAt),
	}
}

func (r *locationRow) toLocation() (*world.Location, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID(r.ParentID, "parent_id")
	if err != nil {
		return nil, err
	}
	factionID, err := parseOptionalID(r.ControllingFactionID, "controlling_faction_id")
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(r.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &world.Location{
		ID:                   id,
		Name:                 r.Name,
		Level:                world.LocationLevel(r.Level),
		DisplayLabel:         r.DisplayLabel,
		ParentID:             parentID,
		Depth:                r.Depth,
		ChildrenGenerated:    r.ChildrenGenerated,
		Position:             world.Position{X: r.X, Y: r.Y, Z: r.Z},
		Description:          r.Description,
		AtmosphereTags:       r.AtmosphereTags.V.Clone(),
		EconomicFunction:     r.EconomicFunction,
		PopulationLevel:      r.PopulationLevel,
		Secrets:              r.Secrets.V.Clone(),
		ControllingFactionID: factionID,
		State:                r.State,
		Visited:              r.Visited,
		Discovered:           r.Discovered,
		LastVisitedDay:       r.LastVisitedDay,
		Map:                  r.Map.V,
		CreatedAt:            createdAt,
	}, nil
}

// LocationStore implements world.LocationStore.
type LocationStore struct {
	q querier
}

var _ world.LocationStore = (*LocationStore)(nil)

// Get retrieves a location by ID.
func (s *LocationStore) Get(ctx context.Context, id ulid.ULID) (*world.Location, error) {
	var row locationRow
	err := s.q.GetContext(ctx, &row, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodeLocationNotFound, "location", "get location", id)
	}
	return row.toLocation()
}

// GetByName retrieves the first location with the exact name.
func (s *LocationStore) GetByName(ctx context.Context, name string) (*world.Location, error) {
	var row locationRow
	err := s.q.GetContext(ctx, &row, `SELECT `+locationColumns+` FROM locations WHERE name = ? ORDER BY created_at LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeLocationNotFound).With("name", name).Wrapf(world.ErrNotFound, "location %q", name)
	}
	if err != nil {
		return nil, oops.With("operation", "get location by name").With("name", name).Wrap(err)
	}
	return row.toLocation()
}

// List returns locations matching filter, ordered by depth then name.
func (s *LocationStore) List(ctx context.Context, filter world.LocationFilter) ([]*world.Location, error) {
	var (
		where []string
		args  []any
	)
	if filter.Level != nil {
		where = append(where, "level = ?")
		args = append(args, string(*filter.Level))
	}
	if filter.ParentID != nil {
		where = append(where, "parent_id = ?")
		args = append(args, filter.ParentID.String())
	}
	if filter.Discovered != nil {
		where = append(where, "discovered = ?")
		args = append(args, *filter.Discovered)
	}
	query := `SELECT ` + locationColumns + ` FROM locations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return s.list(ctx, "list locations", query+` ORDER BY depth, name`, args...)
}

// Children returns the direct children of a location.
func (s *LocationStore) Children(ctx context.Context, id ulid.ULID) ([]*world.Location, error) {
	return s.list(ctx, "list children", `SELECT `+locationColumns+` FROM locations WHERE parent_id = ? ORDER BY name`, id.String())
}

// Roots returns every location without a parent.
func (s *LocationStore) Roots(ctx context.Context) ([]*world.Location, error) {
	return s.list(ctx, "list roots", `SELECT `+locationColumns+` FROM locations WHERE parent_id IS NULL ORDER BY created_at`)
}

func (s *LocationStore) list(ctx context.Context, operation, query string, args ...any) ([]*world.Location, error) {
	var rows []locationRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	out := make([]*world.Location, 0, len(rows))
	for i := range rows {
		loc, err := rows[i].toLocation()
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

// Create validates and persists a new location.
func (s *LocationStore) Create(ctx context.Context, loc *world.Location) error {
	if err := validate(loc); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO locations (`+locationColumns+`) VALUES (
		:id, :name, :level, :display_label, :parent_id, :depth, :children_generated,
		:position_x, :position_y, :position_z, :description, :atmosphere_tags, :economic_function,
		:population_level, :secrets, :controlling_faction_id, :current_state, :visited, :discovered,
		:last_visited_day, :map_display, :created_at)`, locationToRow(loc))
	if err != nil {
		return oops.With("operation", "create location").With("id", loc.ID.String()).Wrap(err)
	}
	return nil
}

// Update validates and writes every mutable column.
func (s *LocationStore) Update(ctx context.Context, loc *world.Location) error {
	if err := validate(loc); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE locations SET
		name = :name, level = :level, display_label = :display_label, parent_id = :parent_id,
		depth = :depth, children_generated = :children_generated, position_x = :position_x,
		position_y = :position_y, position_z = :position_z, description = :description,
		atmosphere_tags = :atmosphere_tags, economic_function = :economic_function,
		population_level = :population_level, secrets = :secrets,
		controlling_faction_id = :controlling_faction_id, current_state = :current_state,
		visited = :visited, discovered = :discovered, last_visited_day = :last_visited_day,
		map_display = :map_display
		WHERE id = :id`, locationToRow(loc))
	if err != nil {
		return oops.With("operation", "update location").With("id", loc.ID.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeLocationNotFound, "location", loc.ID)
}

// Delete removes a leaf location. Connections cascade.
func (s *LocationStore) Delete(ctx context.Context, id ulid.ULID) error {
	var children int
	if err := s.q.GetContext(ctx, &children, `SELECT COUNT(*) FROM locations WHERE parent_id = ?`, id.String()); err != nil {
		return oops.With("operation", "count children").With("id", id.String()).Wrap(err)
	}
	if children > 0 {
		return oops.Code(world.CodeInvalidState).With("id", id.String()).With("children", children).
			Wrapf(world.ErrInvalidState, "location %s still has %d children", id, children)
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete location").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeLocationNotFound, "location", id)
}

// Hierarchy returns the chain from the root down to id.
func (s *LocationStore) Hierarchy(ctx context.Context, id ulid.ULID) ([]*world.Location, error) {
	return world.WalkHierarchy(ctx, s, id)
}

// MarkVisited records a visit on day.
func (s *LocationStore) MarkVisited(ctx context.Context, id ulid.ULID, day int) (*world.Location, error) {
	return s.mutate(ctx, id, func(l *world.Location) error {
		l.MarkVisited(day)
		return nil
	})
}

// Discover reveals a location without visiting it.
func (s *LocationStore) Discover(ctx context.Context, id ulid.ULID) (*world.Location, error) {
	return s.mutate(ctx, id, func(l *world.Location) error {
		l.Discovered = true
		return nil
	})
}

// UpdateState sets the narrative state (peaceful, under_siege, ...).
func (s *LocationStore) UpdateState(ctx context.Context, id ulid.ULID, state string) (*world.Location, error) {
	return s.mutate(ctx, id, func(l *world.Location) error {
		if strings.TrimSpace(state) == "" {
			return world.InvalidInput("location state cannot be empty")
		}
		l.State = state
		return nil
	})
}

// mutate fetches a location, applies fn and writes it back in the same transaction.
func (s *LocationStore) mutate(ctx context.Context, id ulid.ULID, fn func(*world.Location) error) (*world.Location, error) {
	loc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(loc); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}
