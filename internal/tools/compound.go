// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/session"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Message roles recorded for conversation turns.
const (
	RolePlayer = "player"
	RoleNPC    = "npc"
)

// conversationHistory is how many stored messages seed a new conversation.
const conversationHistory = 10

func compoundTools() []Tool {
	return []Tool{
		{
			Name:     "start_npc_conversation",
			Category: CategoryCompound,
			Help:     "Check an NPC can talk and open a cached conversation with the player",
			ReadOnly: true,
			Handler:  startConversation,
		},
		{
			Name:     "continue_npc_conversation",
			Category: CategoryCompound,
			Help:     "Record one exchange of an open conversation",
			Handler:  continueConversation,
		},
		{
			Name:     "end_npc_conversation",
			Category: CategoryCompound,
			Help:     "Close a conversation, optionally saving a relationship summary",
			Handler:  endConversation,
		},
	}
}

// loadRelationship returns the stored relationship or an unsaved default.
func loadRelationship(ctx context.Context, uow world.UnitOfWork, npcID, playerID ulid.ULID) (*world.NPCRelationship, bool, error) {
	rel, err := uow.Relationships().Get(ctx, npcID, playerID)
	if errors.Is(err, world.ErrNotFound) {
		return world.NewNPCRelationship(npcID, playerID), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

// conversationParties loads the player and an NPC able to talk.
func conversationParties(ctx context.Context, uow world.UnitOfWork, args Args) (*world.Player, *world.NPC, error) {
	playerID, err := args.ID("player_id")
	if err != nil {
		return nil, nil, err
	}
	npcID, err := args.ID("npc_id")
	if err != nil {
		return nil, nil, err
	}
	p, err := uow.Players().Get(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	n, err := uow.NPCs().ValidateForConversation(ctx, npcID)
	if err != nil {
		return nil, nil, err
	}
	return p, n, nil
}

// openConversation returns the cached conversation for the pair, loading
// relationship state and recent history when none is live.
func openConversation(ctx context.Context, env *Env, p *world.Player, n *world.NPC, approach, extra string) (*session.Conversation, bool, error) {
	return env.Sessions.Conversation(p.ID.String(), n.ID.String(), func() (map[string]any, error) {
		rel, _, err := loadRelationship(ctx, env.UoW, n.ID, p.ID)
		if err != nil {
			return nil, err
		}
		history, err := env.UoW.Messages().ForNPC(ctx, p.ID, n.ID, conversationHistory)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"approach":         approach,
			"situation":        extra,
			"trust_level":      rel.TrustLevel,
			"disposition":      rel.Disposition,
			"summary":          rel.Summary,
			"revealed_secrets": rel.Revealed(n),
			"recent_messages":  history,
		}, nil
	})
}

func startConversation(ctx context.Context, env *Env, args Args) (any, error) {
	p, n, err := conversationParties(ctx, env.UoW, args)
	if err != nil {
		return nil, err
	}
	approach, err := args.OptString("approach_type", "neutral")
	if err != nil {
		return nil, err
	}
	extra, err := args.OptString("context", "")
	if err != nil {
		return nil, err
	}
	conv, created, err := openConversation(ctx, env, p, n, approach, extra)
	if err != nil {
		return nil, err
	}
	return result.Response{
		"npc_name":     n.Name,
		"npc_id":       n.ID,
		"mood":         n.CurrentMood,
		"tier":         n.Tier,
		"started":      created,
		"turns":        conv.Turns,
		"conversation": conv.Context,
	}, nil
}

func continueConversation(ctx context.Context, env *Env, args Args) (any, error) {
	p, n, err := conversationParties(ctx, env.UoW, args)
	if err != nil {
		return nil, err
	}
	input, err := args.String("player_input")
	if err != nil {
		return nil, err
	}
	reply, err := args.OptString("npc_response", "")
	if err != nil {
		return nil, err
	}
	trustDelta, err := args.OptInt("trust_delta", 0)
	if err != nil {
		return nil, err
	}
	ended, err := args.OptBool("end_conversation", false)
	if err != nil {
		return nil, err
	}
	if _, _, err := openConversation(ctx, env, p, n, "neutral", ""); err != nil {
		return nil, err
	}

	clock, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	rel, _, err := env.UoW.Relationships().GetOrCreate(ctx, n.ID, p.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	lines := []world.Message{{Role: RolePlayer, Content: input, Timestamp: now}}
	if reply != "" {
		lines = append(lines, world.Message{Role: RoleNPC, Content: reply, Timestamp: now})
	}
	for i := range lines {
		if err := env.UoW.Messages().Append(ctx, p.ID, n.ID, lines[i]); err != nil {
			return nil, err
		}
		u := world.RelationshipUpdate{Message: &lines[i]}
		if i == 0 {
			u.TrustDelta = trustDelta
		}
		rel.Apply(u, clock.Day)
	}
	if err := env.UoW.Relationships().Save(ctx, rel); err != nil {
		return nil, err
	}

	turns, _ := env.Sessions.RecordTurn(p.ID.String(), n.ID.String())
	if ended {
		env.Sessions.EndConversation(p.ID.String(), n.ID.String())
	}
	return result.Response{
		"npc_name":           n.Name,
		"mood":               n.CurrentMood,
		"turns":              turns,
		"trust_level":        rel.TrustLevel,
		"conversation_ended": ended,
	}, nil
}

func endConversation(ctx context.Context, env *Env, args Args) (any, error) {
	playerID, err := args.ID("player_id")
	if err != nil {
		return nil, err
	}
	npcID, err := args.ID("npc_id")
	if err != nil {
		return nil, err
	}
	reason, err := args.OptString("reason", "normal")
	if err != nil {
		return nil, err
	}
	summary, err := args.OptString("summary", "")
	if err != nil {
		return nil, err
	}
	n, err := env.UoW.NPCs().Get(ctx, npcID)
	if err != nil {
		return nil, err
	}

	if summary != "" {
		if _, err := env.UoW.Players().Get(ctx, playerID); err != nil {
			return nil, err
		}
		rel, _, err := env.UoW.Relationships().GetOrCreate(ctx, npcID, playerID)
		if err != nil {
			return nil, err
		}
		rel.Summary = summary
		if err := env.UoW.Relationships().Save(ctx, rel); err != nil {
			return nil, err
		}
	}

	turns := 0
	if conv, ok := env.Sessions.ActiveConversation(playerID.String(), npcID.String()); ok {
		turns = conv.Turns
	}
	wasActive := env.Sessions.EndConversation(playerID.String(), npcID.String())
	return result.Response{
		"message":    fmt.Sprintf("Conversation with %s ended.", n.Name),
		"reason":     reason,
		"was_active": wasActive,
		"turns":      turns,
	}, nil
}
