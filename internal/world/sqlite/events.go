// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

const eventColumns = `id, name, description, event_type, occurred_day, occurred_hour,
	scheduled_day, scheduled_hour, factions_involved, locations_involved, npcs_involved,
	consequences, player_visible, player_witnessed, narrated_to_player, created_at`

// defaultEventLimit caps listings when the caller passes no limit.
const defaultEventLimit = 50

type eventRow struct {
	ID                string                      `db:"id"`
	Name              string                      `db:"name"`
	Description       string                      `db:"description"`
	Type              string                      `db:"event_type"`
	OccurredDay       *int                        `db:"occurred_day"`
	OccurredHour      *int                        `db:"occurred_hour"`
	ScheduledDay      *int                        `db:"scheduled_day"`
	ScheduledHour     *int                        `db:"scheduled_hour"`
	FactionsInvolved  jsonColumn[world.IDSet]     `db:"factions_involved"`
	LocationsInvolved jsonColumn[world.IDSet]     `db:"locations_involved"`
	NPCsInvolved      jsonColumn[world.IDSet]     `db:"npcs_involved"`
	Consequences      jsonColumn[world.StringSet] `db:"consequences"`
	PlayerVisible     bool                        `db:"player_visible"`
	PlayerWitnessed   bool                        `db:"player_witnessed"`
	NarratedToPlayer  bool                        `db:"narrated_to_player"`
	CreatedAt         string                      `db:"created_at"`
}

func eventToRow(e *world.Event) eventRow {
	return eventRow{
		ID:                e.ID.String(),
		Name:              e.Name,
		Description:       e.Description,
		Type:              string(e.Type),
		OccurredDay:       e.OccurredDay,
		OccurredHour:      e.OccurredHour,
		ScheduledDay:      e.ScheduledDay,
		ScheduledHour:     e.ScheduledHour,
		FactionsInvolved:  jsonOf(nonNilIDs(e.FactionsInvolved)),
		LocationsInvolved: jsonOf(nonNilIDs(e.LocationsInvolved)),
		NPCsInvolved:      jsonOf(nonNilIDs(e.NPCsInvolved)),
		Consequences:      jsonOf(e.Consequences.Clone()),
		PlayerVisible:     e.PlayerVisible,
		PlayerWitnessed:   e.PlayerWitnessed,
		NarratedToPlayer:  e.NarratedToPlayer,
		CreatedAt:         formatTime(e.CreatedAt),
	}
}

func (r *eventRow) toEvent() (*world.Event, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(r.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &world.Event{
		ID:                id,
		Name:              r.Name,
		Description:       r.Description,
		Type:              world.EventType(r.Type),
		OccurredDay:       r.OccurredDay,
		OccurredHour:      r.OccurredHour,
		ScheduledDay:      r.ScheduledDay,
		ScheduledHour:     r.ScheduledHour,
		FactionsInvolved:  nonNilIDs(r.FactionsInvolved.V),
		LocationsInvolved: nonNilIDs(r.LocationsInvolved.V),
		NPCsInvolved:      nonNilIDs(r.NPCsInvolved.V),
		Consequences:      r.Consequences.V.Clone(),
		PlayerVisible:     r.PlayerVisible,
		PlayerWitnessed:   r.PlayerWitnessed,
		NarratedToPlayer:  r.NarratedToPlayer,
		CreatedAt:         createdAt,
	}, nil
}

// EventStore implements world.EventStore.
type EventStore struct {
	q querier
}

var _ world.EventStore = (*EventStore)(nil)

// Get retrieves an event by ID.
func (s *EventStore) Get(ctx context.Context, id ulid.ULID) (*world.Event, error) {
	var row eventRow
	err := s.q.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodeEventNotFound, "event", "get event", id)
	}
	return row.toEvent()
}

// Create validates and persists an event.
func (s *EventStore) Create(ctx context.Context, e *world.Event) error {
	if err := validate(e); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO events (`+eventColumns+`) VALUES (
		:id, :name, :description, :event_type, :occurred_day, :occurred_hour,
		:scheduled_day, :scheduled_hour, :factions_involved, :locations_involved, :npcs_involved,
		:consequences, :player_visible, :player_witnessed, :narrated_to_player, :created_at)`, eventToRow(e))
	if err != nil {
		return oops.With("operation", "create event").With("id", e.ID.String()).Wrap(err)
	}
	return nil
}

// Recent returns events that occurred on or after q.SinceDay, newest first.
func (s *EventStore) Recent(ctx context.Context, q world.EventQuery) ([]*world.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE occurred_day >= ?`
	if q.VisibleOnly {
		query += ` AND player_visible = 1`
	}
	query += ` ORDER BY occurred_day DESC, occurred_hour DESC, created_at DESC LIMIT ?`
	return s.list(ctx, "list recent events", query, q.SinceDay, limitOr(q.Limit))
}

// ListForLocation returns the latest events that involved a location.
func (s *EventStore) ListForLocation(ctx context.Context, locationID ulid.ULID, limit int) ([]*world.Event, error) {
	return s.list(ctx, "list location events", `SELECT `+eventColumns+` FROM events
		WHERE EXISTS (SELECT 1 FROM json_each(events.locations_involved) WHERE json_each.value = ?)
		ORDER BY occurred_day DESC, occurred_hour DESC, created_at DESC LIMIT ?`,
		locationID.String(), limitOr(limit))
}

func (s *EventStore) list(ctx context.Context, operation, query string, args ...any) ([]*world.Event, error) {
	var rows []eventRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	out := make([]*world.Event, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func limitOr(n int) int {
	if n <= 0 {
		return defaultEventLimit
	}
	return n
}
