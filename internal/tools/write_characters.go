// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

func characterTools() []Tool {
	return []Tool{
		write("move_player", EntityPlayer, "", "Move the player to a location", movePlayer),
		write("update_player_position", EntityPlayer, "", "Set the player's map position and facing", updatePlayerPosition),
		write("update_player_health", EntityPlayer, "", "Set the player's health status", updatePlayerHealth),
		write("update_player_reputation", EntityPlayer, "", "Adjust the player's standing with a faction", updatePlayerReputation),
		write("add_party_member", EntityPlayer, "", "Add an NPC to the player's party", addPartyMember),
		write("remove_party_member", EntityPlayer, "", "Remove an NPC from the player's party", removePartyMember),

		write("add_npc", EntityNone, "", "Create an NPC", addNPC),
		write("update_npc", EntityNPC, "", "Change an NPC's fields, goals, secrets or skills", updateNPC),
		write("delete_npc", EntityNPC, "", "Delete an NPC", deleteNPC),
		write("move_npc", EntityNPC, "", "Move an NPC to a location", moveNPC),
		write("update_npc_mood", EntityNPC, "", "Set an NPC's current mood", updateNPCMood),
		write("update_npc_relationship", EntityNPC, "", "Adjust how an NPC regards a player", updateNPCRelationship),
		write("reveal_secret", EntityNPC, "", "Reveal one of an NPC's secrets to a player", revealSecret),
	}
}

func movePlayer(ctx context.Context, env *Env, args Args) (any, error) {
	dest, err := args.ID("destination_id")
	if err != nil {
		return nil, err
	}
	moved, err := world.Move(ctx, env.UoW, env.Player(), dest)
	if err != nil {
		return nil, err
	}
	return result.Response{
		"destination":       moved.Destination,
		"destination_id":    moved.DestinationID,
		"travel_time_hours": moved.TravelTimeHours,
		"travel_type":       moved.TravelType,
	}, nil
}

func updatePlayerPosition(ctx context.Context, env *Env, args Args) (any, error) {
	p := env.Player()
	pos := p.Position
	x, err := args.Float("x")
	if err != nil {
		return nil, err
	}
	y, err := args.Float("y")
	if err != nil {
		return nil, err
	}
	pos.X, pos.Y = x, y
	if pos.Z, err = args.OptFloat("z", pos.Z); err != nil {
		return nil, err
	}
	facing, err := args.OptString("facing", p.Facing)
	if err != nil {
		return nil, err
	}
	updated, err := env.UoW.Players().UpdatePosition(ctx, p.ID, pos, facing)
	if err != nil {
		return nil, err
	}
	return result.Response{"position": updated.Position, "facing": updated.Facing}, nil
}

func updatePlayerHealth(ctx context.Context, env *Env, args Args) (any, error) {
	status, err := args.String("health_status")
	if err != nil {
		return nil, err
	}
	updated, err := env.UoW.Players().UpdateHealth(ctx, env.Player().ID, world.HealthStatus(status))
	if err != nil {
		return nil, err
	}
	return result.Response{"health_status": updated.HealthStatus}, nil
}

func updatePlayerReputation(ctx context.Context, env *Env, args Args) (any, error) {
	factionID, err := args.ID("faction_id")
	if err != nil {
		return nil, err
	}
	delta, err := args.Int("delta")
	if err != nil {
		return nil, err
	}
	faction, err := env.UoW.Factions().Get(ctx, factionID)
	if err != nil {
		return nil, err
	}
	_, score, err := env.UoW.Players().AdjustReputation(ctx, env.Player().ID, factionID, delta)
	if err != nil {
		return nil, err
	}
	return result.Response{
		"faction_id":   factionID,
		"faction_name": faction.Name,
		"delta":        delta,
		"new_score":    score,
	}, nil
}

func addPartyMember(ctx context.Context, env *Env, args Args) (any, error) {
	npcID, err := args.ID("npc_id")
	if err != nil {
		return nil, err
	}
	updated, err := env.UoW.Players().AddPartyMember(ctx, env.Player().ID, npcID)
	if err != nil {
		return nil, err
	}
	return result.Response{"party_members": updated.PartyMembers}, nil
}

func removePartyMember(ctx context.Context, env *Env, args Args) (any, error) {
	npcID, err := args.ID("npc_id")
	if err != nil {
		return nil, err
	}
	if !env.Player().PartyMembers.Contains(npcID) {
		return nil, world.InvalidState("npc %s is not in the party", npcID)
	}
	updated, err := env.UoW.Players().RemovePartyMember(ctx, env.Player().ID, npcID)
	if err != nil {
		return nil, err
	}
	return result.Response{"party_members": updated.PartyMembers}, nil
}

// patchNPC copies the plain NPC fields shared by add_npc and update_npc.
func patchNPC(p *patch, n *world.NPC) {
	p.str("species", &n.Species)
	p.str("age", &n.Age)
	p.str("profession", &n.Profession)
	p.id("faction_id", &n.FactionID)
	p.id("home_location_id", &n.HomeLocationID)
	p.id("current_location_id", &n.CurrentLocationID)
	p.str("description_physical", &n.DescriptionPhysical)
	p.str("description_personality", &n.DescriptionPersonality)
	p.str("voice_pattern", &n.VoicePattern)
	p.strs("goals", &n.Goals)
	p.strs("secrets", &n.Secrets)
	p.strs("skills", &n.Skills)
	p.integer("currency", &n.Currency)
	p.str("current_mood", &n.CurrentMood)
	p.position(&n.Position)
}

// checkNPCRefs verifies that the faction and locations an NPC points at exist.
func checkNPCRefs(ctx context.Context, uow world.UnitOfWork, n *world.NPC) error {
	if n.FactionID != nil {
		if _, err := uow.Factions().Get(ctx, *n.FactionID); err != nil {
			return err
		}
	}
	for _, id := range []*ulid.ULID{n.HomeLocationID, n.CurrentLocationID} {
		if id == nil {
			continue
		}
		if _, err := uow.Locations().Get(ctx, *id); err != nil {
			return err
		}
	}
	return nil
}

func addNPC(ctx context.Context, env *Env, args Args) (any, error) {
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	tier, err := args.OptString("tier", string(world.TierMinor))
	if err != nil {
		return nil, err
	}
	n := world.NewNPC(name, world.NPCTier(tier))
	p := newPatch(args)
	patchNPC(p, n)
	if p.err != nil {
		return nil, p.err
	}
	if n.CurrentLocationID == nil && n.HomeLocationID != nil {
		home := *n.HomeLocationID
		n.CurrentLocationID = &home
	}
	if err := checkNPCRefs(ctx, env.UoW, n); err != nil {
		return nil, err
	}
	if err := env.UoW.NPCs().Create(ctx, n); err != nil {
		return nil, err
	}
	return result.Response{
		"id":                  n.ID,
		"name":                n.Name,
		"tier":                n.Tier,
		"current_location_id": n.CurrentLocationID,
	}, nil
}

func updateNPC(ctx context.Context, env *Env, args Args) (any, error) {
	n := env.NPC()
	p := newPatch(args)
	p.str("name", &n.Name)
	if args.Has("tier") {
		tier, err := args.String("tier")
		if err != nil {
			return nil, err
		}
		n.Tier = world.NPCTier(tier)
		p.changed = append(p.changed, "tier")
	}
	patchNPC(p, n)
	if p.err != nil {
		return nil, p.err
	}
	if err := checkNPCRefs(ctx, env.UoW, n); err != nil {
		return nil, err
	}
	if err := env.UoW.NPCs().Update(ctx, n); err != nil {
		return nil, err
	}

	// List edits and status changes go through the store so each one is
	// validated against the freshly written row.
	npcs := env.UoW.NPCs()
	var err error
	for _, step := range []struct {
		arg   string
		apply func(string) (*world.NPC, error)
	}{
		{"add_goal", func(v string) (*world.NPC, error) { return npcs.AddGoal(ctx, n.ID, v) }},
		{"remove_goal", func(v string) (*world.NPC, error) { return npcs.RemoveGoal(ctx, n.ID, v) }},
		{"add_secret", func(v string) (*world.NPC, error) { return npcs.AddSecret(ctx, n.ID, v) }},
		{"remove_secret", func(v string) (*world.NPC, error) { return npcs.RemoveSecret(ctx, n.ID, v) }},
		{"add_skill", func(v string) (*world.NPC, error) { return npcs.AddSkill(ctx, n.ID, v) }},
		{"status", func(v string) (*world.NPC, error) { return npcs.UpdateStatus(ctx, n.ID, world.NPCStatus(v)) }},
	} {
		if !args.Has(step.arg) {
			continue
		}
		v, argErr := args.String(step.arg)
		if argErr != nil {
			return nil, argErr
		}
		if n, err = step.apply(v); err != nil {
			return nil, err
		}
		p.changed = append(p.changed, step.arg)
	}
	return result.Response{"id": n.ID, "name": n.Name, "status": n.Status, "updated_fields": p.changed}, nil
}

func deleteNPC(ctx context.Context, env *Env, _ Args) (any, error) {
	n := env.NPC()
	if err := env.UoW.NPCs().Delete(ctx, n.ID); err != nil {
		return nil, err
	}
	return result.Response{"deleted_npc_id": n.ID, "name": n.Name}, nil
}

func moveNPC(ctx context.Context, env *Env, args Args) (any, error) {
	dest, err := args.ID("destination_id")
	if err != nil {
		return nil, err
	}
	moved, err := env.UoW.NPCs().MoveTo(ctx, env.NPC().ID, dest)
	if err != nil {
		return nil, err
	}
	loc, err := env.UoW.Locations().Get(ctx, dest)
	if err != nil {
		return nil, err
	}
	return result.Response{"npc": moved.Name, "destination": loc.Name, "destination_id": loc.ID}, nil
}

func updateNPCMood(ctx context.Context, env *Env, args Args) (any, error) {
	mood, err := args.String("mood")
	if err != nil {
		return nil, err
	}
	updated, err := env.UoW.NPCs().UpdateMood(ctx, env.NPC().ID, mood)
	if err != nil {
		return nil, err
	}
	return result.Response{"npc": updated.Name, "new_mood": updated.CurrentMood}, nil
}

func updateNPCRelationship(ctx context.Context, env *Env, args Args) (any, error) {
	n := env.NPC()
	playerID, err := args.ID("player_id")
	if err != nil {
		return nil, err
	}
	if _, err := env.UoW.Players().Get(ctx, playerID); err != nil {
		return nil, err
	}

	var u world.RelationshipUpdate
	if u.TrustDelta, err = args.OptInt("trust_delta", 0); err != nil {
		return nil, err
	}
	if u.Disposition, err = args.OptString("new_disposition", ""); err != nil {
		return nil, err
	}
	if u.KeyMoment, err = args.OptString("add_key_moment", ""); err != nil {
		return nil, err
	}
	if args.Has("add_message") {
		var m world.Message
		if _, err := args.Decode("add_message", &m); err != nil {
			return nil, err
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now().UTC()
		}
		u.Message = &m
	}

	clock, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	rel, _, err := env.UoW.Relationships().GetOrCreate(ctx, n.ID, playerID)
	if err != nil {
		return nil, err
	}
	rel.Apply(u, clock.Day)
	if err := env.UoW.Relationships().Save(ctx, rel); err != nil {
		return nil, err
	}
	if u.Message != nil {
		if err := env.UoW.Messages().Append(ctx, playerID, n.ID, *u.Message); err != nil {
			return nil, err
		}
	}
	return result.Response{
		"npc":                 n.Name,
		"trust_level":         rel.TrustLevel,
		"current_disposition": rel.Disposition,
		"key_moments":         len(rel.KeyMoments),
	}, nil
}

func revealSecret(ctx context.Context, env *Env, args Args) (any, error) {
	n := env.NPC()
	playerID, err := args.ID("player_id")
	if err != nil {
		return nil, err
	}
	idx, err := args.Int("secret_index")
	if err != nil {
		return nil, err
	}
	if _, err := env.UoW.Players().Get(ctx, playerID); err != nil {
		return nil, err
	}
	rel, _, err := env.UoW.Relationships().GetOrCreate(ctx, n.ID, playerID)
	if err != nil {
		return nil, err
	}
	secret, newly, err := rel.RevealSecret(n, idx)
	if err != nil {
		return nil, err
	}
	if newly {
		if err := env.UoW.Relationships().Save(ctx, rel); err != nil {
			return nil, err
		}
	}
	return result.Response{
		"npc":            n.Name,
		"secret":         secret,
		"newly_revealed": newly,
		"revealed_count": len(rel.RevealedSecrets),
	}, nil
}
