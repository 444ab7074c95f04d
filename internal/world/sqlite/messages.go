// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"context"
	"slices"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// MessageStore implements world.MessageStore. Unlike the rolling window on a
// relationship, the transcript here is never truncated.
type MessageStore struct {
	q querier
}

var _ world.MessageStore = (*MessageStore)(nil)

type messageRow struct {
	Role      string `db:"role"`
	Content   string `db:"content"`
	CreatedAt string `db:"created_at"`
}

// Append records one message.
func (s *MessageStore) Append(ctx context.Context, playerID, npcID ulid.ULID, m world.Message) error {
	if m.Role == "" {
		return world.InvalidInput("message role is required")
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO conversation_messages (player_id, npc_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`, playerID.String(), npcID.String(), m.Role, m.Content, formatTime(m.Timestamp))
	if err != nil {
		return oops.With("operation", "append message").
			With("player_id", playerID.String()).With("npc_id", npcID.String()).Wrap(err)
	}
	return nil
}

// ForNPC returns the latest limit messages, oldest first.
func (s *MessageStore) ForNPC(ctx context.Context, playerID, npcID ulid.ULID, limit int) ([]world.Message, error) {
	if limit <= 0 {
		limit = world.MaxRecentMessages
	}
	var rows []messageRow
	err := s.q.SelectContext(ctx, &rows, `SELECT role, content, created_at FROM conversation_messages
		WHERE player_id = ? AND npc_id = ? ORDER BY id DESC LIMIT ?`, playerID.String(), npcID.String(), limit)
	if err != nil {
		return nil, oops.With("operation", "list messages").Wrap(err)
	}
	slices.Reverse(rows)
	out := make([]world.Message, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTime(r.CreatedAt, "created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, world.Message{Role: r.Role, Content: r.Content, Timestamp: ts})
	}
	return out, nil
}
