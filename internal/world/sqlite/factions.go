// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

const factionColumns = `id, name, ideology, methods, aesthetic, power_level, resources,
	goals_short_term, goals_long_term, leadership, secrets, history_notes, created_at`

type factionRow struct {
	ID           string                       `db:"id"`
	Name         string                       `db:"name"`
	Ideology     string                       `db:"ideology"`
	Methods      jsonColumn[world.StringSet]  `db:"methods"`
	Aesthetic    string                       `db:"aesthetic"`
	PowerLevel   int                          `db:"power_level"`
	Resources    jsonColumn[world.Resources]  `db:"resources"`
	GoalsShort   jsonColumn[world.StringSet]  `db:"goals_short_term"`
	GoalsLong    jsonColumn[world.StringSet]  `db:"goals_long_term"`
	Leadership   jsonColumn[world.Leadership] `db:"leadership"`
	Secrets      jsonColumn[world.StringSet]  `db:"secrets"`
	HistoryNotes string                       `db:"history_notes"`
	CreatedAt    string                       `db:"created_at"`
}

func factionToRow(f *world.Faction) factionRow {
	res := f.Resources
	if res == nil {
		res = world.Resources{}
	}
	return factionRow{
		ID:           f.ID.String(),
		Name:         f.Name,
		Ideology:     f.Ideology,
		Methods:      jsonOf(f.Methods.Clone()),
		Aesthetic:    f.Aesthetic,
		PowerLevel:   f.PowerLevel,
		Resources:    jsonOf(res),
		GoalsShort:   jsonOf(f.GoalsShort.Clone()),
		GoalsLong:    jsonOf(f.GoalsLong.Clone()),
		Leadership:   jsonOf(f.Leadership),
		Secrets:      jsonOf(f.Secrets.Clone()),
		HistoryNotes: f.HistoryNotes,
		CreatedAt:    formatTime(f.CreatedAt),
	}
}

func (r *factionRow) toFaction() (*world.Faction, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	res := r.Resources.V
	if res == nil {
		res = world.Resources{}
	}
	createdAt, err := parseTime(r.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &world.Faction{
		ID:           id,
		Name:         r.Name,
		Ideology:     r.Ideology,
		Methods:      r.Methods.V.Clone(),
		Aesthetic:    r.Aesthetic,
		PowerLevel:   r.PowerLevel,
		Resources:    res,
		GoalsShort:   r.GoalsShort.V.Clone(),
		GoalsLong:    r.GoalsLong.V.Clone(),
		Leadership:   r.Leadership.V,
		Secrets:      r.Secrets.V.Clone(),
		HistoryNotes: r.HistoryNotes,
		CreatedAt:    createdAt,
	}, nil
}

const factionRelationshipColumns = `id, faction_a_id, faction_b_id, relationship_type,
	public_reason, secret_reason, stability`

type factionRelationshipRow struct {
	ID           string `db:"id"`
	FactionAID   string `db:"faction_a_id"`
	FactionBID   string `db:"faction_b_id"`
	Type         string `db:"relationship_type"`
	PublicReason string `db:"public_reason"`
	SecretReason string `db:"secret_reason"`
	Stability    int    `db:"stability"`
}

func (r *factionRelationshipRow) toRelationship() (*world.FactionRelationship, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	a, err := parseID(r.FactionAID, "faction_a_id")
	if err != nil {
		return nil, err
	}
	b, err := parseID(r.FactionBID, "faction_b_id")
	if err != nil {
		return nil, err
	}
	return &world.FactionRelationship{
		ID:           id,
		FactionAID:   a,
		FactionBID:   b,
		Type:         world.RelationshipType(r.Type),
		PublicReason: r.PublicReason,
		SecretReason: r.SecretReason,
		Stability:    r.Stability,
	}, nil
}

// FactionStore implements world.FactionStore.
type FactionStore struct {
	q querier
}

var _ world.FactionStore = (*FactionStore)(nil)

// Get retrieves a faction by ID.
func (s *FactionStore) Get(ctx context.Context, id ulid.ULID) (*world.Faction, error) {
	var row factionRow
	err := s.q.GetContext(ctx, &row, `SELECT `+factionColumns+` FROM factions WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodeFactionNotFound, "faction", "get faction", id)
	}
	return row.toFaction()
}

// GetByName retrieves the first faction with the exact name.
func (s *FactionStore) GetByName(ctx context.Context, name string) (*world.Faction, error) {
	var row factionRow
	err := s.q.GetContext(ctx, &row, `SELECT `+factionColumns+` FROM factions WHERE name = ? ORDER BY created_at LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeFactionNotFound).With("name", name).Wrapf(world.ErrNotFound, "faction %q", name)
	}
	if err != nil {
		return nil, oops.With("operation", "get faction by name").With("name", name).Wrap(err)
	}
	return row.toFaction()
}

// List returns every faction, most powerful first.
func (s *FactionStore) List(ctx context.Context) ([]*world.Faction, error) {
	var rows []factionRow
	if err := s.q.SelectContext(ctx, &rows, `SELECT `+factionColumns+` FROM factions ORDER BY power_level DESC, name`); err != nil {
		return nil, oops.With("operation", "list factions").Wrap(err)
	}
	out := make([]*world.Faction, 0, len(rows))
	for i := range rows {
		f, err := rows[i].toFaction()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Create validates and persists a faction.
func (s *FactionStore) Create(ctx context.Context, f *world.Faction) error {
	if err := validate(f); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO factions (`+factionColumns+`) VALUES (
		:id, :name, :ideology, :methods, :aesthetic, :power_level, :resources,
		:goals_short_term, :goals_long_term, :leadership, :secrets, :history_notes, :created_at)`, factionToRow(f))
	if err != nil {
		return oops.With("operation", "create faction").With("id", f.ID.String()).Wrap(err)
	}
	return nil
}

// Update validates and writes a faction.
func (s *FactionStore) Update(ctx context.Context, f *world.Faction) error {
	if err := validate(f); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE factions SET
		name = :name, ideology = :ideology, methods = :methods, aesthetic = :aesthetic,
		power_level = :power_level, resources = :resources, goals_short_term = :goals_short_term,
		goals_long_term = :goals_long_term, leadership = :leadership, secrets = :secrets,
		history_notes = :history_notes
		WHERE id = :id`, factionToRow(f))
	if err != nil {
		return oops.With("operation", "update faction").With("id", f.ID.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeFactionNotFound, "faction", f.ID)
}

// Delete removes a faction. Relationships cascade; NPC and location
// references are cleared.
func (s *FactionStore) Delete(ctx context.Context, id ulid.ULID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM factions WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete faction").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeFactionNotFound, "faction", id)
}

// UpsertRelationship writes the relationship for its faction pair. An existing
// row keeps its ID and takes the new type, reasons and stability.
func (s *FactionStore) UpsertRelationship(ctx context.Context, rel *world.FactionRelationship) (*world.FactionRelationship, bool, error) {
	rel.FactionAID, rel.FactionBID = world.OrderedPair(rel.FactionAID, rel.FactionBID)
	if err := validate(rel); err != nil {
		return nil, false, err
	}
	for _, id := range []ulid.ULID{rel.FactionAID, rel.FactionBID} {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, false, err
		}
	}

	existing, err := s.GetRelationship(ctx, rel.FactionAID, rel.FactionBID)
	switch {
	case err == nil:
		_, err = s.q.ExecContext(ctx, `UPDATE faction_relationships SET
			relationship_type = ?, public_reason = ?, secret_reason = ?, stability = ?
			WHERE id = ?`, string(rel.Type), rel.PublicReason, rel.SecretReason, rel.Stability, existing.ID.String())
		if err != nil {
			return nil, false, oops.With("operation", "update faction relationship").Wrap(err)
		}
		rel.ID = existing.ID
		return rel, false, nil
	case errors.Is(err, world.ErrNotFound):
		_, err = s.q.ExecContext(ctx, `INSERT INTO faction_relationships (`+factionRelationshipColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rel.ID.String(), rel.FactionAID.String(), rel.FactionBID.String(), string(rel.Type),
			rel.PublicReason, rel.SecretReason, rel.Stability)
		if err != nil {
			return nil, false, oops.With("operation", "create faction relationship").Wrap(err)
		}
		return rel, true, nil
	default:
		return nil, false, err
	}
}

// GetRelationship returns the relationship between two factions in either order.
func (s *FactionStore) GetRelationship(ctx context.Context, a, b ulid.ULID) (*world.FactionRelationship, error) {
	a, b = world.OrderedPair(a, b)
	var row factionRelationshipRow
	err := s.q.GetContext(ctx, &row, `SELECT `+factionRelationshipColumns+` FROM faction_relationships
		WHERE faction_a_id = ? AND faction_b_id = ?`, a.String(), b.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeFactionNotFound).
			With("faction_a_id", a.String()).With("faction_b_id", b.String()).
			Wrapf(world.ErrNotFound, "no relationship between %s and %s", a, b)
	}
	if err != nil {
		return nil, oops.With("operation", "get faction relationship").Wrap(err)
	}
	return row.toRelationship()
}

// Relationships returns every relationship involving a faction.
func (s *FactionStore) Relationships(ctx context.Context, factionID ulid.ULID) ([]*world.FactionRelationship, error) {
	return s.relationships(ctx, `SELECT `+factionRelationshipColumns+` FROM faction_relationships
		WHERE faction_a_id = ? OR faction_b_id = ? ORDER BY stability`, factionID.String(), factionID.String())
}

// RelationshipsByType returns every relationship of one type, least stable first.
func (s *FactionStore) RelationshipsByType(ctx context.Context, typ world.RelationshipType) ([]*world.FactionRelationship, error) {
	return s.relationships(ctx, `SELECT `+factionRelationshipColumns+` FROM faction_relationships
		WHERE relationship_type = ? ORDER BY stability`, string(typ))
}

// DeleteRelationship removes a relationship by ID.
func (s *FactionStore) DeleteRelationship(ctx context.Context, id ulid.ULID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM faction_relationships WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete faction relationship").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeFactionNotFound, "faction relationship", id)
}

func (s *FactionStore) relationships(ctx context.Context, query string, args ...any) ([]*world.FactionRelationship, error) {
	var rows []factionRelationshipRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("operation", "list faction relationships").Wrap(err)
	}
	out := make([]*world.FactionRelationship, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toRelationship()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
