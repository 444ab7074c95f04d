// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

func TestNPCConversation(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	var npc, ghost *world.NPC
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		player = world.NewPlayer("Mara")
		require.NoError(t, uow.Players().Create(ctx, player))
		npc = world.NewNPC("Orrin", world.TierMajor)
		npc.CurrentMood = "wary"
		require.NoError(t, uow.NPCs().Create(ctx, npc))
		ghost = world.NewNPC("Old Ban", world.TierMinor)
		ghost.Status = world.StatusDead
		require.NoError(t, uow.NPCs().Create(ctx, ghost))
	})
	pair := tools.Args{"player_id": player.ID.String(), "npc_id": npc.ID.String()}
	with := func(extra tools.Args) tools.Args {
		out := tools.Args{}
		for k, v := range pair {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	t.Run("dead npcs cannot talk", func(t *testing.T) {
		resp := call(t, d, "start_npc_conversation", tools.Args{
			"player_id": player.ID.String(), "npc_id": ghost.ID.String(),
		})
		assertFails(t, resp, world.CodeNPCUnavailable)
	})

	t.Run("start caches one conversation", func(t *testing.T) {
		resp := call(t, d, "start_npc_conversation", with(tools.Args{"approach_type": "friendly"}))
		requireOK(t, resp)
		assert.Equal(t, "Orrin", resp["npc_name"])
		assert.Equal(t, "wary", resp["mood"])
		assert.Equal(t, true, resp["started"])

		resp = call(t, d, "start_npc_conversation", pair)
		requireOK(t, resp)
		assert.Equal(t, false, resp["started"], "second start reuses the live conversation")
	})

	t.Run("continue records turns", func(t *testing.T) {
		resp := call(t, d, "continue_npc_conversation", with(tools.Args{
			"player_input": "Any work?", "npc_response": "Perhaps.", "trust_delta": 5,
		}))
		requireOK(t, resp)
		assert.Equal(t, 1, resp["turns"])
		assert.Equal(t, 55, resp["trust_level"])

		resp = call(t, d, "continue_npc_conversation", with(tools.Args{"player_input": "Please?"}))
		requireOK(t, resp)
		assert.Equal(t, 2, resp["turns"])
		assert.Equal(t, false, resp["conversation_ended"])

		assertFails(t, call(t, d, "continue_npc_conversation", pair), world.CodeMissingRequired)

		seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
			msgs, err := uow.Messages().ForNPC(ctx, player.ID, npc.ID, 10)
			require.NoError(t, err)
			require.Len(t, msgs, 3)
			assert.Equal(t, tools.RolePlayer, msgs[0].Role)
			assert.Equal(t, tools.RoleNPC, msgs[1].Role)

			rel, err := uow.Relationships().Get(ctx, npc.ID, player.ID)
			require.NoError(t, err)
			assert.Len(t, rel.RecentMessages, 3)
			require.NotNil(t, rel.LastInteractionDay)
		})
	})

	t.Run("end clears the cache and keeps a summary", func(t *testing.T) {
		resp := call(t, d, "end_npc_conversation", with(tools.Args{"summary": "Orrin may have a job."}))
		requireOK(t, resp)
		assert.Equal(t, "Conversation with Orrin ended.", resp["message"])
		assert.Equal(t, "normal", resp["reason"])
		assert.Equal(t, true, resp["was_active"])
		assert.Equal(t, 2, resp["turns"])

		_, live := d.Sessions().ActiveConversation(player.ID.String(), npc.ID.String())
		assert.False(t, live)

		seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
			rel, err := uow.Relationships().Get(ctx, npc.ID, player.ID)
			require.NoError(t, err)
			assert.Equal(t, "Orrin may have a job.", rel.Summary)
		})

		resp = call(t, d, "end_npc_conversation", pair)
		requireOK(t, resp)
		assert.Equal(t, false, resp["was_active"])
	})
}
