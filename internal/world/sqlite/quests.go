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

const questColumns = `id, title, description, status, objectives, rewards, assigned_by_npc_id, created_at`

type questRow struct {
	ID              string                      `db:"id"`
	Title           string                      `db:"title"`
	Description     string                      `db:"description"`
	Status          string                      `db:"status"`
	Objectives      jsonColumn[world.StringSet] `db:"objectives"`
	Rewards         jsonColumn[world.Rewards]   `db:"rewards"`
	AssignedByNPCID *string                     `db:"assigned_by_npc_id"`
	CreatedAt       string                      `db:"created_at"`
}

func questToRow(q *world.Quest) questRow {
	return questRow{
		ID:              q.ID.String(),
		Title:           q.Title,
		Description:     q.Description,
		Status:          string(q.Status),
		Objectives:      jsonOf(q.Objectives.Clone()),
		Rewards:         jsonOf(q.Rewards),
		AssignedByNPCID: idPtr(q.AssignedByNPCID),
		CreatedAt:       formatTime(q.CreatedAt),
	}
}

func (r *questRow) toQuest() (*world.Quest, error) {
	id, err := parseID(r.ID, "id")
	if err != nil {
		return nil, err
	}
	npcID, err := parseOptionalID(r.AssignedByNPCID, "assigned_by_npc_id")
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(r.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &world.Quest{
		ID:              id,
		Title:           r.Title,
		Description:     r.Description,
		Status:          world.QuestStatus(r.Status),
		Objectives:      r.Objectives.V.Clone(),
		Rewards:         r.Rewards.V,
		AssignedByNPCID: npcID,
		CreatedAt:       createdAt,
	}, nil
}

// QuestStore implements world.QuestStore.
type QuestStore struct {
	q querier
}

var _ world.QuestStore = (*QuestStore)(nil)

// Get retrieves a quest by ID.
func (s *QuestStore) Get(ctx context.Context, id ulid.ULID) (*world.Quest, error) {
	var row questRow
	err := s.q.GetContext(ctx, &row, `SELECT `+questColumns+` FROM quests WHERE id = ?`, id.String())
	if err != nil {
		return nil, notFound(err, world.CodeQuestNotFound, "quest", "get quest", id)
	}
	return row.toQuest()
}

// List returns quests, optionally with one status, oldest first.
func (s *QuestStore) List(ctx context.Context, status *world.QuestStatus) ([]*world.Quest, error) {
	if status != nil {
		return s.list(ctx, `SELECT `+questColumns+` FROM quests WHERE status = ? ORDER BY created_at`, string(*status))
	}
	return s.list(ctx, `SELECT `+questColumns+` FROM quests ORDER BY created_at`)
}

// ListByNPC returns quests an NPC handed out.
func (s *QuestStore) ListByNPC(ctx context.Context, npcID ulid.ULID) ([]*world.Quest, error) {
	return s.list(ctx, `SELECT `+questColumns+` FROM quests WHERE assigned_by_npc_id = ? ORDER BY created_at`, npcID.String())
}

func (s *QuestStore) list(ctx context.Context, query string, args ...any) ([]*world.Quest, error) {
	var rows []questRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("operation", "list quests").Wrap(err)
	}
	out := make([]*world.Quest, 0, len(rows))
	for i := range rows {
		q, err := rows[i].toQuest()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Create validates and persists a quest.
func (s *QuestStore) Create(ctx context.Context, q *world.Quest) error {
	if err := validate(q); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO quests (`+questColumns+`) VALUES (
		:id, :title, :description, :status, :objectives, :rewards, :assigned_by_npc_id, :created_at)`, questToRow(q))
	if err != nil {
		return oops.With("operation", "create quest").With("id", q.ID.String()).Wrap(err)
	}
	return nil
}

// Update validates and writes a quest.
func (s *QuestStore) Update(ctx context.Context, q *world.Quest) error {
	if err := validate(q); err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, s.q, `UPDATE quests SET
		title = :title, description = :description, status = :status, objectives = :objectives,
		rewards = :rewards, assigned_by_npc_id = :assigned_by_npc_id
		WHERE id = :id`, questToRow(q))
	if err != nil {
		return oops.With("operation", "update quest").With("id", q.ID.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeQuestNotFound, "quest", q.ID)
}

// Delete removes a quest.
func (s *QuestStore) Delete(ctx context.Context, id ulid.ULID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM quests WHERE id = ?`, id.String())
	if err != nil {
		return oops.With("operation", "delete quest").With("id", id.String()).Wrap(err)
	}
	return requireAffected(res, world.CodeQuestNotFound, "quest", id)
}
