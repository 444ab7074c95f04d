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

const relationshipColumns = `id, npc_id, player_id, relationship_summary, trust_level,
	current_disposition, key_moments, recent_messages, revealed_secrets, last_interaction_day`

type relationshipRow struct {
	ID                 string                       `db:"id"`
	NPCID              string                       `db:"npc_id"`
	PlayerID           string                       `db:"player_id"`
	Summary            string                       `db:"relationship_summary"`
	TrustLevel         int                          `db:"trust_level"`
	Disposition        string                       `db:"current_disposition"`
	KeyMoments         jsonColumn[[]string]         `db:"key_moments"`
	RecentMessages     jsonColumn[world.MessageLog] `db:"recent_messages"`
	RevealedSecrets    jsonColumn[[]int]            `db:"revealed_secrets"`
	LastInteractionDay *int                         `db:"last_interaction_day"`
}

func relationshipToRow(r *world.NPCRelationship) relationshipRow {
	moments := r.KeyMoments
	if moments == nil {
		moments = []string{}
	}
	msgs := r.RecentMessages
	if msgs == nil {
		msgs = world.MessageLog{}
	}
	revealed := r.RevealedSecrets
	if revealed == nil {
		revealed = []int{}
	}
	return relationshipRow{
		ID:                 r.ID.String(),
		NPCID:              r.NPCID.String(),
		PlayerID:           r.PlayerID.String(),
		Summary:            r.Summary,
		TrustLevel:         r.TrustLevel,
		Disposition:        r.Disposition,
		KeyMoments:         jsonOf(moments),
		RecentMessages:     jsonOf(msgs),
		RevealedSecrets:    jsonOf(revealed),
		LastInteractionDay: r.LastInteractionDay,
	}
}

func (r *relationshipRow) toRelationship() (*world.NPCRelationship, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	npcID, err := parseID(r.NPCID, "npc_id")
	if err != nil {
		return nil, err
	}
	playerID, err := parseID(r.PlayerID, "player_id")
	if err != nil {
		return nil, err
	}
	rel := &world.NPCRelationship{
		ID:                 id,
		NPCID:              npcID,
		PlayerID:           playerID,
		Summary:            r.Summary,
		TrustLevel:         r.TrustLevel,
		Disposition:        r.Disposition,
		KeyMoments:         r.KeyMoments.V,
		RecentMessages:     r.RecentMessages.V,
		RevealedSecrets:    r.RevealedSecrets.V,
		LastInteractionDay: r.LastInteractionDay,
	}
	if rel.KeyMoments == nil {
		rel.KeyMoments = []string{}
	}
	if rel.RecentMessages == nil {
		rel.RecentMessages = world.MessageLog{}
	}
	if rel.RevealedSecrets == nil {
		rel.RevealedSecrets = []int{}
	}
	return rel, nil
}

// RelationshipStore implements world.RelationshipStore.
type RelationshipStore struct {
	q querier
}

var _ world.RelationshipStore = (*RelationshipStore)(nil)

// Get returns the NPC's relationship with a player.
func (s *RelationshipStore) Get(ctx context.Context, npcID, playerID ulid.ULID) (*world.NPCRelationship, error) {
	var row relationshipRow
	err := s.q.GetContext(ctx, &row, `SELECT `+relationshipColumns+` FROM npc_relationships
		WHERE npc_id = ? AND player_id = ?`, npcID.String(), playerID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(world.CodeNPCNotFound).
			With("npc_id", npcID.String()).With("player_id", playerID.String()).
			Wrapf(world.ErrNotFound, "no relationship between npc %s and player %s", npcID, playerID)
	}
	if err != nil {
		return nil, oops.With("operation", "get relationship").Wrap(err)
	}
	return row.toRelationship()
}

// GetOrCreate returns the relationship, creating a neutral one on first
// contact. Both the NPC and the player must exist.
func (s *RelationshipStore) GetOrCreate(ctx context.Context, npcID, playerID ulid.ULID) (*world.NPCRelationship, bool, error) {
	rel, err := s.Get(ctx, npcID, playerID)
	if err == nil {
		return rel, false, nil
	}
	if !errors.Is(err, world.ErrNotFound) {
		return nil, false, err
	}
	if _, err := (&NPCStore{q: s.q}).Get(ctx, npcID); err != nil {
		return nil, false, err
	}
	if _, err := (&PlayerStore{q: s.q}).Get(ctx, playerID); err != nil {
		return nil, false, err
	}
	rel = world.NewNPCRelationship(npcID, playerID)
	if err := s.insert(ctx, rel); err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

// Save writes the relationship, inserting it if the pair has no row yet.
func (s *RelationshipStore) Save(ctx context.Context, rel *world.NPCRelationship) error {
	if err := validate(rel); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE npc_relationships SET
		relationship_summary = :relationship_summary, trust_level = :trust_level,
		current_disposition = :current_disposition, key_moments = :key_moments,
		recent_messages = :recent_messages, revealed_secrets = :revealed_secrets,
		last_interaction_day = :last_interaction_day
		WHERE npc_id = :npc_id AND player_id = :player_id`, relationshipToRow(rel))
	if err != nil {
		return oops.With("operation", "save relationship").With("id", rel.ID.String()).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.With("operation", "rows affected").Wrap(err)
	}
	if n > 0 {
		return nil
	}
	return s.insert(ctx, rel)
}

// ListForPlayer returns every NPC relationship a player has, most trusted first.
func (s *RelationshipStore) ListForPlayer(ctx context.Context, playerID ulid.ULID) ([]*world.NPCRelationship, error) {
	var rows []relationshipRow
	err := s.q.SelectContext(ctx, &rows, `SELECT `+relationshipColumns+` FROM npc_relationships
		WHERE player_id = ? ORDER BY trust_level DESC`, playerID.String())
	if err != nil {
		return nil, oops.With("operation", "list relationships").With("player_id", playerID.String()).Wrap(err)
	}
	out := make([]*world.NPCRelationship, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toRelationship()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RelationshipStore) insert(ctx context.Context, rel *world.NPCRelationship) error {
	if err := validate(rel); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO npc_relationships (`+relationshipColumns+`) VALUES (
		:id, :npc_id, :player_id, :relationship_summary, :trust_level,
		:current_disposition, :key_moments, :recent_messages, :revealed_secrets, :last_interaction_day)`,
		relationshipToRow(rel))
	if err != nil {
		return oops.With("operation", "create relationship").With("id", rel.ID.String()).Wrap(err)
	}
	return nil
}
