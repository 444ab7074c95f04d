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

const npcColumns = `id, name, tier, species, age, profession, faction_id, home_location_id,
	current_location_id, position_x, position_y, position_z, description_physical,
	description_personality, voice_pattern, goals, secrets, skills, inventory, currency,
	status, current_mood, created_at`

type npcRow struct {
	ID                     string                      `db:"id"`
	Name                   string                      `db:"name"`
	Tier                   string                      `db:"tier"`
	Species                string                      `db:"species"`
	Age                    string                      `db:"age"`
	Profession             string                      `db:"profession"`
	FactionID              *string                     `db:"faction_id"`
	HomeLocationID         *string                     `db:"home_location_id"`
	CurrentLocationID      *string                     `db:"current_location_id"`
	X                      float64                     `db:"position_x"`
	Y                      float64                     `db:"position_y"`
	Z                      float64                     `db:"position_z"`
	DescriptionPhysical    string                      `db:"description_physical"`
	DescriptionPersonality string                      `db:"description_personality"`
	VoicePattern           string                      `db:"voice_pattern"`
	Goals                  jsonColumn[world.StringSet] `db:"goals"`
	Secrets                jsonColumn[world.StringSet] `db:"secrets"`
	Skills                 jsonColumn[world.StringSet] `db:"skills"`
	Inventory              jsonColumn[world.Inventory] `db:"inventory"`
	Currency               int                         `db:"currency"`
	Status                 string                      `db:"status"`
	CurrentMood            string                      `db:"current_mood"`
	CreatedAt              string                      `db:"created_at"`
}

func npcToRow(n *world.NPC) npcRow {
	inv := n.Inventory
	if inv == nil {
		inv = world.Inventory{}
	}
	return npcRow{
		ID:                     n.ID.String(),
		Name:                   n.Name,
		Tier:                   string(n.Tier),
		Species:                n.Species,
		Age:                    n.Age,
		Profession:             n.Profession,
		FactionID:              idPtr(n.FactionID),
		HomeLocationID:         idPtr(n.HomeLocationID),
		CurrentLocationID:      idPtr(n.CurrentLocationID),
		X:                      n.Position.X,
		Y:                      n.Position.Y,
		Z:                      n.Position.Z,
		DescriptionPhysical:    n.DescriptionPhysical,
		DescriptionPersonality: n.DescriptionPersonality,
		VoicePattern:           n.VoicePattern,
		Goals:                  jsonOf(n.Goals.Clone()),
		Secrets:                jsonOf(n.Secrets.Clone()),
		Skills:                 jsonOf(n.Skills.Clone()),
		Inventory:              jsonOf(inv),
		Currency:               n.Currency,
		Status:                 string(n.Status),
		CurrentMood:            n.CurrentMood,
		CreatedAt:              formatTime(n.CreatedAt),
	}
}

func (r *npcRow) toNPC() (*world.NPC, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	factionID, err := parseOptionalID(r.FactionID, "faction_id")
	if err != nil {
		return nil, err
	}
	homeID, err := parseOptionalID(r.HomeLocationID, "home_location_id")
	if err != nil {
		return nil, err
	}
	currentID, err := parseOptionalID(r.CurrentLocationID, "current_location_id")
	if err != nil {
		return nil, err
	}
	inv := r.Inventory.V
	if inv == nil {
		inv = world.Inventory{}
	}
	createdAt, err := parseTime(r.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &world.NPC{
		ID:                     id,
		Name:                   r.Name,
		Tier:                   world.NPCTier(r.Tier),
		Species:                r.Species,
		Age:                    r.Age,
		Profession:             r.Profession,
		FactionID:              factionID,
		HomeLocationID:         homeID,
		CurrentLocationID:      currentID,
		Position:               world.Position{X: r.X, Y: r.Y, Z: r.Z},
		DescriptionPhysical:    r.DescriptionPhysical,
		DescriptionPersonality: r.DescriptionPersonality,
		VoicePattern:           r.VoicePattern,
		Goals:                  r.Goals.V.Clone(),
		Secrets:                r.Secrets.V.Clone(),
		Skills:                 r.Skills.V.Clone(),
		Inventory:              inv,
		Currency:               r.Currency,
		Status:                 world.NPCStatus(r.Status),
		CurrentMood:            r.CurrentMood,
		CreatedAt:              createdAt,
	}, nil
}

// NPCStore implements world.NPCStore.
type NPCStore struct {
	q querier
}

var _ world.NPCStore = (*NPCStore)(nil)

// Get retrieves an NPC by ID.
func (s *NPCStore) Get(ctx context.Context, id ulid.ULID) (*world.NPC, error) {
	var row npcRow
	err := s.q.GetContext(ctx, &row, `SELECT `+npcColumns+` FROM npcs WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodeNPCNotFound, "npc", "get npc", id)
	}
	return row.toNPC()
}

// GetByName retrieves the first NPC with the exact name.
func (s *NPCStore) GetByName(ctx context.Context, name string) (*world.NPC, error) {
	var row npcRow
	err := s.q.GetContext(ctx, &row, `SELECT `+npcColumns+` FROM npcs WHERE name = ? ORDER BY created_at LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeNPCNotFound).With("name", name).Wrapf(world.ErrNotFound, "npc %q", name)
	}
	if err != nil {
		return nil, oops.With("operation", "get npc by name").With("name", name).Wrap(err)
	}
	return row.toNPC()
}

// List returns NPCs matching filter, ordered by name.
func (s *NPCStore) List(ctx context.Context, filter world.NPCFilter) ([]*world.NPC, error) {
	var (
		where []string
		args  []any
	)
	if filter.LocationID != nil {
		where = append(where, "current_location_id = ?")
		args = append(args, filter.LocationID.String())
	}
	if filter.FactionID != nil {
		where = append(where, "faction_id = ?")
		args = append(args, filter.FactionID.String())
	}
	if filter.Tier != nil {
		where = append(where, "tier = ?")
		args = append(args, string(*filter.Tier))
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	query := `SELECT ` + npcColumns + ` FROM npcs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return s.list(ctx, "list npcs", query+` ORDER BY name`, args...)
}

// AtLocation returns NPCs present at a location.
func (s *NPCStore) AtLocation(ctx context.Context, locationID ulid.ULID, includeDead bool) ([]*world.NPC, error) {
	query := `SELECT ` + npcColumns + ` FROM npcs WHERE current_location_id = ?`
	if !includeDead {
		query += ` AND status <> 'dead'`
	}
	return s.list(ctx, "list npcs at location", query+` ORDER BY name`, locationID.String())
}

func (s *NPCStore) list(ctx context.Context, operation, query string, args ...any) ([]*world.NPC, error) {
	var rows []npcRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	out := make([]*world.NPC, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toNPC()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Create validates and persists an NPC.
func (s *NPCStore) Create(ctx context.Context, n *world.NPC) error {
	if err := validate(n); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO npcs (`+npcColumns+`) VALUES (
		:id, :name, :tier, :species, :age, :profession, :faction_id, :home_location_id,
		:current_location_id, :position_x, :position_y, :position_z, :description_physical,
		:description_personality, :voice_pattern, :goals, :secrets, :skills, :inventory, :currency,
		:status, :current_mood, :created_at)`, npcToRow(n))
	if err != nil {
		return oops.With("operation", "create npc").With("id", n.ID.String()).Wrap(err)
	}
	return nil
}

// Update validates and writes an NPC.
func (s *NPCStore) Update(ctx context.Context, n *world.NPC) error {
	if err := validate(n); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE npcs SET
		name = :name, tier = :tier, species = :species, age = :age, profession = :profession,
		faction_id = :faction_id, home_location_id = :home_location_id,
		current_location_id = :current_location_id, position_x = :position_x,
		position_y = :position_y, position_z = :position_z,
		description_physical = :description_physical,
		description_personality = :description_personality, voice_pattern = :voice_pattern,
		goals = :goals, secrets = :secrets, skills = :skills, inventory = :inventory,
		currency = :currency, status = :status, current_mood = :current_mood
		WHERE id = :id`, npcToRow(n))
	if err != nil {
		return oops.With("operation", "update npc").With("id", n.ID.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeNPCNotFound, "npc", n.ID)
}

// Delete removes an NPC. Relationships and transcripts cascade.
func (s *NPCStore) Delete(ctx context.Context, id ulid.ULID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM npcs WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete npc").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeNPCNotFound, "npc", id)
}

// ValidateForConversation returns the NPC if it can talk.
func (s *NPCStore) ValidateForConversation(ctx context.Context, id ulid.ULID) (*world.NPC, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := n.CanConverse(); err != nil {
		return nil, err
	}
	return n, nil
}

// MoveTo relocates an NPC. The destination must exist.
func (s *NPCStore) MoveTo(ctx context.Context, id, locationID ulid.ULID) (*world.NPC, error) {
	if _, err := (&LocationStore{q: s.q}).Get(ctx, locationID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(n *world.NPC) error {
		loc := locationID
		n.CurrentLocationID = &loc
		return nil
	})
}

// UpdateMood sets the NPC's current mood.
func (s *NPCStore) UpdateMood(ctx context.Context, id ulid.ULID, mood string) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		if strings.TrimSpace(mood) == "" {
			return world.InvalidInput("mood cannot be empty")
		}
		n.CurrentMood = mood
		return nil
	})
}

// UpdateStatus sets the NPC's life status.
func (s *NPCStore) UpdateStatus(ctx context.Context, id ulid.ULID, status world.NPCStatus) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		if !status.IsValid() {
			return world.InvalidInput("unknown npc status %q", status)
		}
		n.Status = status
		return nil
	})
}

// AddGoal appends a goal if absent.
func (s *NPCStore) AddGoal(ctx context.Context, id ulid.ULID, goal string) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		n.Goals.Add(goal)
		return nil
	})
}

// RemoveGoal removes a goal if present.
func (s *NPCStore) RemoveGoal(ctx context.Context, id ulid.ULID, goal string) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		n.Goals.Remove(goal)
		return nil
	})
}

// AddSecret appends a secret if absent.
func (s *NPCStore) AddSecret(ctx context.Context, id ulid.ULID, secret string) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		n.Secrets.Add(secret)
		return nil
	})
}

// RemoveSecret removes a secret if present. Revealed-secret indices held by
// relationships are not renumbered.
func (s *NPCStore) RemoveSecret(ctx context.Context, id ulid.ULID, secret string) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		n.Secrets.Remove(secret)
		return nil
	})
}

// AddSkill appends a skill if absent.
func (s *NPCStore) AddSkill(ctx context.Context, id ulid.ULID, skill string) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		n.Skills.Add(skill)
		return nil
	})
}

// AdjustCurrency applies delta to the NPC's purse.
func (s *NPCStore) AdjustCurrency(ctx context.Context, id ulid.ULID, delta int) (*world.NPC, error) {
	return s.mutate(ctx, id, func(n *world.NPC) error {
		return n.AdjustCurrency(delta)
	})
}

func (s *NPCStore) mutate(ctx context.Context, id ulid.ULID, fn func(*world.NPC) error) (*world.NPC, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
