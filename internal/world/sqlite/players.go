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

const playerColumns = `id, name, current_location_id, position_x, position_y, position_z, facing,
	description, background, traits, inventory, currency, reputation, status_effects,
	health_status, party_members, active_quests, completed_quests, created_at`

type playerRow struct {
	ID                string                       `db:"id"`
	Name              string                       `db:"name"`
	CurrentLocationID *string                      `db:"current_location_id"`
	X                 float64                      `db:"position_x"`
	Y                 float64                      `db:"position_y"`
	Z                 float64                      `db:"position_z"`
	Facing            string                       `db:"facing"`
	Description       string                       `db:"description"`
	Background        string                       `db:"background"`
	Traits            jsonColumn[world.StringSet]  `db:"traits"`
	Inventory         jsonColumn[world.Inventory]  `db:"inventory"`
	Currency          int                          `db:"currency"`
	Reputation        jsonColumn[world.Reputation] `db:"reputation"`
	StatusEffects     jsonColumn[world.StringSet]  `db:"status_effects"`
	HealthStatus      string                       `db:"health_status"`
	PartyMembers      jsonColumn[world.IDSet]      `db:"party_members"`
	ActiveQuests      jsonColumn[world.IDSet]      `db:"active_quests"`
	CompletedQuests   jsonColumn[world.IDSet]      `db:"completed_quests"`
	CreatedAt         string                       `db:"created_at"`
}

func nonNilIDs(s world.IDSet) world.IDSet {
	if s == nil {
		return world.IDSet{}
	}
	return s
}

func playerToRow(p *world.Player) playerRow {
	inv := p.Inventory
	if inv == nil {
		inv = world.Inventory{}
	}
	rep := p.Reputation
	if rep == nil {
		rep = world.Reputation{}
	}
	return playerRow{
		ID:                p.ID.String(),
		Name:              p.Name,
		CurrentLocationID: idPtr(p.CurrentLocationID),
		X:                 p.Position.X,
		Y:                 p.Position.Y,
		Z:                 p.Position.Z,
		Facing:            p.Facing,
		Description:       p.Description,
		Background:        p.Background,
		Traits:            jsonOf(p.Traits.Clone()),
		Inventory:         jsonOf(inv),
		Currency:          p.Currency,
		Reputation:        jsonOf(rep),
		StatusEffects:     jsonOf(p.StatusEffects.Clone()),
		HealthStatus:      string(p.HealthStatus),
		PartyMembers:      jsonOf(nonNilIDs(p.PartyMembers)),
		ActiveQuests:      jsonOf(nonNilIDs(p.ActiveQuests)),
		CompletedQuests:   jsonOf(nonNilIDs(p.CompletedQuests)),
		CreatedAt:         formatTime(p.CreatedAt),
	}
}

func (r *playerRow) toPlayer() (*world.Player, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	locID, err := parseOptionalID(r.CurrentLocationID, "current_location_id")
	if err != nil {
		return nil, err
	}
	inv := r.Inventory.V
	if inv == nil {
		inv = world.Inventory{}
	}
	rep := r.Reputation.V
	if rep == nil {
		rep = world.Reputation{}
	}
	createdAt, err := parseTime(r.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &world.Player{
		ID:                id,
		Name:              r.Name,
		CurrentLocationID: locID,
		Position:          world.Position{X: r.X, Y: r.Y, Z: r.Z},
		Facing:            r.Facing,
		Description:       r.Description,
		Background:        r.Background,
		Traits:            r.Traits.V.Clone(),
		Inventory:         inv,
		Currency:          r.Currency,
		Reputation:        rep,
		StatusEffects:     r.StatusEffects.V.Clone(),
		HealthStatus:      world.HealthStatus(r.HealthStatus),
		PartyMembers:      nonNilIDs(r.PartyMembers.V),
		ActiveQuests:      nonNilIDs(r.ActiveQuests.V),
		CompletedQuests:   nonNilIDs(r.CompletedQuests.V),
		CreatedAt:         createdAt,
	}, nil
}

// PlayerStore implements world.PlayerStore.
type PlayerStore struct {
	q querier
}

var _ world.PlayerStore = (*PlayerStore)(nil)

// Get retrieves a player by ID.
func (s *PlayerStore) Get(ctx context.Context, id ulid.ULID) (*world.Player, error) {
	var row playerRow
	err := s.q.GetContext(ctx, &row, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodePlayerNotFound, "player", "get player", id)
	}
	return row.toPlayer()
}

// GetByName retrieves the first player with the exact name.
func (s *PlayerStore) GetByName(ctx context.Context, name string) (*world.Player, error) {
	var row playerRow
	err := s.q.GetContext(ctx, &row, `SELECT `+playerColumns+` FROM players WHERE name = ? ORDER BY created_at LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodePlayerNotFound).With("name", name).Wrapf(world.ErrNotFound, "player %q", name)
	}
	if err != nil {
		return nil, oops.With("operation", "get player by name").With("name", name).Wrap(err)
	}
	return row.toPlayer()
}

// List returns every player, oldest first.
func (s *PlayerStore) List(ctx context.Context) ([]*world.Player, error) {
	var rows []playerRow
	if err := s.q.SelectContext(ctx, &rows, `SELECT `+playerColumns+` FROM players ORDER BY created_at`); err != nil {
		return nil, oops.With("operation", "list players").Wrap(err)
	}
	out := make([]*world.Player, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toPlayer()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Create validates and persists a player.
func (s *PlayerStore) Create(ctx context.Context, p *world.Player) error {
	if err := validate(p); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO players (`+playerColumns+`) VALUES (
		:id, :name, :current_location_id, :position_x, :position_y, :position_z, :facing,
		:description, :background, :traits, :inventory, :currency, :reputation, :status_effects,
		:health_status, :party_members, :active_quests, :completed_quests, :created_at)`, playerToRow(p))
	if err != nil {
		return oops.With("operation", "create player").With("id", p.ID.String()).Wrap(err)
	}
	return nil
}

// Update validates and writes a player.
func (s *PlayerStore) Update(ctx context.Context, p *world.Player) error {
	if err := validate(p); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE players SET
		name = :name, current_location_id = :current_location_id, position_x = :position_x,
		position_y = :position_y, position_z = :position_z, facing = :facing,
		description = :description, background = :background, traits = :traits,
		inventory = :inventory, currency = :currency, reputation = :reputation,
		status_effects = :status_effects, health_status = :health_status,
		party_members = :party_members, active_quests = :active_quests,
		completed_quests = :completed_quests
		WHERE id = :id`, playerToRow(p))
	if err != nil {
		return oops.With("operation", "update player").With("id", p.ID.String()).Wrap(err)
	}
	return requireAffected(res, world.CodePlayerNotFound, "player", p.ID)
}

// Delete removes a player.
func (s *PlayerStore) Delete(ctx context.Context, id ulid.ULID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete player").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodePlayerNotFound, "player", id)
}

// UpdatePosition moves the player within the current map.
func (s *PlayerStore) UpdatePosition(ctx context.Context, id ulid.ULID, pos world.Position, facing string) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		p.Position = pos
		if facing != "" {
			p.Facing = facing
		}
		return nil
	})
}

// MoveTo sets the player's location. The destination must exist.
func (s *PlayerStore) MoveTo(ctx context.Context, id, locationID ulid.ULID) (*world.Player, error) {
	if _, err := (&LocationStore{q: s.q}).Get(ctx, locationID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(p *world.Player) error {
		loc := locationID
		p.CurrentLocationID = &loc
		return nil
	})
}

// UpdateHealth sets the health status.
func (s *PlayerStore) UpdateHealth(ctx context.Context, id ulid.ULID, status world.HealthStatus) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		if !status.IsValid() {
			return world.InvalidInput("unknown health status %q", status)
		}
		p.HealthStatus = status
		return nil
	})
}

// AddItem places an item in the player's inventory.
func (s *PlayerStore) AddItem(ctx context.Context, id ulid.ULID, item world.Item) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		return p.Inventory.Add(item)
	})
}

// RemoveItem takes qty of an item template out of the inventory.
func (s *PlayerStore) RemoveItem(ctx context.Context, id ulid.ULID, itemID string, qty int) (*world.Player, world.Item, error) {
	var removed world.Item
	p, err := s.mutate(ctx, id, func(p *world.Player) error {
		var err error
		removed, err = p.Inventory.Remove(itemID, qty)
		return err
	})
	if err != nil {
		return nil, world.Item{}, err
	}
	return p, removed, nil
}

// AdjustCurrency applies delta to the player's balance.
func (s *PlayerStore) AdjustCurrency(ctx context.Context, id ulid.ULID, delta int) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		return p.AdjustCurrency(delta)
	})
}

// AddPartyMember adds an existing NPC to the party.
func (s *PlayerStore) AddPartyMember(ctx context.Context, id, npcID ulid.ULID) (*world.Player, error) {
	if _, err := (&NPCStore{q: s.q}).Get(ctx, npcID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(p *world.Player) error {
		p.PartyMembers.Add(npcID)
		return nil
	})
}

// RemovePartyMember drops an NPC from the party.
func (s *PlayerStore) RemovePartyMember(ctx context.Context, id, npcID ulid.ULID) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		p.PartyMembers.Remove(npcID)
		return nil
	})
}

// AddQuest records a quest as active for the player.
func (s *PlayerStore) AddQuest(ctx context.Context, id, questID ulid.ULID) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		p.ActiveQuests.Add(questID)
		return nil
	})
}

// CompleteQuest moves a quest from active to completed.
func (s *PlayerStore) CompleteQuest(ctx context.Context, id, questID ulid.ULID) (*world.Player, error) {
	return s.mutate(ctx, id, func(p *world.Player) error {
		p.CompleteQuest(questID)
		return nil
	})
}

// AdjustReputation applies a clamped delta to the player's standing with a faction.
func (s *PlayerStore) AdjustReputation(ctx context.Context, id, factionID ulid.ULID, delta int) (*world.Player, int, error) {
	var score int
	p, err := s.mutate(ctx, id, func(p *world.Player) error {
		score = p.Reputation.Adjust(factionID, delta)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return p, score, nil
}

func (s *PlayerStore) mutate(ctx context.Context, id ulid.ULID, fn func(*world.Player) error) (*world.Player, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
