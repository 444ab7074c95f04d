// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

type historicalEventRow struct {
	ID                string                  `db:"id"`
	Name              string                  `db:"name"`
	Description       string                  `db:"description"`
	EraOrYearsAgo     string                  `db:"era_or_years_ago"`
	Significance      string                  `db:"significance"`
	FactionsInvolved  jsonColumn[world.IDSet] `db:"factions_involved"`
	LocationsInvolved jsonColumn[world.IDSet] `db:"locations_involved"`
}

// LoreStore implements world.LoreStore.
type LoreStore struct {
	q querier
}

var _ world.LoreStore = (*LoreStore)(nil)

// WorldBible returns the stored bible.
func (s *LoreStore) WorldBible(ctx context.Context) (*world.WorldBible, error) {
	var data jsonColumn[world.WorldBible]
	err := s.q.QueryRowxContext(ctx, `SELECT data FROM world_bible WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeWorldBibleNotFound).Wrapf(world.ErrNotFound, "world bible has not been written")
	}
	if err != nil {
		return nil, oops.With("operation", "get world bible").Wrap(err)
	}
	b := data.V
	return &b, nil
}

// SaveWorldBible replaces the bible.
func (s *LoreStore) SaveWorldBible(ctx context.Context, b *world.WorldBible) error {
	if err := validate(b); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO world_bible (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, jsonOf(*b))
	if err != nil {
		return oops.With("operation", "save world bible").Wrap(err)
	}
	return nil
}

// HistoricalEvents returns the backstory in insertion order.
func (s *LoreStore) HistoricalEvents(ctx context.Context) ([]*world.HistoricalEvent, error) {
	var rows []historicalEventRow
	err := s.q.SelectContext(ctx, &rows, `SELECT id, name, description, era_or_years_ago, significance,
		factions_involved, locations_involved FROM historical_events ORDER BY rowid`)
	if err != nil {
		return nil, oops.With("operation", "list historical events").Wrap(err)
	}
	out := make([]*world.HistoricalEvent, 0, len(rows))
	for i := range rows {
		id, err := parseID(rows[i].ID, "id")
		if err != nil {
			return nil, err
		}
		out = append(out, &world.HistoricalEvent{
			ID:                id,
			Name:              rows[i].Name,
			Description:       rows[i].Description,
			EraOrYearsAgo:     rows[i].EraOrYearsAgo,
			Significance:      rows[i].Significance,
			FactionsInvolved:  nonNilIDs(rows[i].FactionsInvolved.V),
			LocationsInvolved: nonNilIDs(rows[i].LocationsInvolved.V),
		})
	}
	return out, nil
}

// CreateHistoricalEvent validates and persists a historical event.
func (s *LoreStore) CreateHistoricalEvent(ctx context.Context, h *world.HistoricalEvent) error {
	if err := validate(h); err != nil {
		return err
	}
	row := historicalEventRow{
		ID:                h.ID.String(),
		Name:              h.Name,
		Description:       h.Description,
		EraOrYearsAgo:     h.EraOrYearsAgo,
		Significance:      h.Significance,
		FactionsInvolved:  jsonOf(nonNilIDs(h.FactionsInvolved)),
		LocationsInvolved: jsonOf(nonNilIDs(h.LocationsInvolved)),
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO historical_events (id, name, description,
		era_or_years_ago, significance, factions_involved, locations_involved) VALUES (
		:id, :name, :description, :era_or_years_ago, :significance, :factions_involved, :locations_involved)`, row)
	if err != nil {
		return oops.With("operation", "create historical event").With("id", h.ID.String()).Wrap(err)
	}
	return nil
}
