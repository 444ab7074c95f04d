// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

func worldTools() []Tool {
	return []Tool{
		write("create_faction", EntityNone, "", "Create a faction", createFaction),
		write("update_faction", EntityFaction, "", "Shift a faction's power, resources, goals or leadership", updateFaction),
		write("delete_faction", EntityFaction, "", "Delete a faction", deleteFaction),
		write("create_faction_relationship", EntityNone, "", "Create or replace the relationship between two factions", createFactionRelationship),

		write("create_quest", EntityNone, "", "Create a quest", createQuest),
		write("update_quest_status", EntityQuest, "", "Set a quest's status", updateQuestStatus),
		write("activate_quest", EntityQuest, "", "Start a quest that has not started", activateQuest),
		write("update_quest_objectives", EntityQuest, "", "Replace a quest's objectives", updateQuestObjectives),
		write("delete_quest", EntityQuest, "", "Delete a quest", deleteQuest),
		write("assign_quest", EntityQuest, "", "Give a quest to a player", assignQuest),
		write("complete_quest", EntityQuest, "", "Complete a quest and grant its rewards", completeQuest),

		write("advance_time", EntityNone, "", "Move the world clock forward", advanceTime),
		write("create_event", EntityNone, "", "Record a world event at the current time", createEvent),
		write("create_world_bible", EntityNone, "", "Write the world's lore record once", createWorldBible),
		write("create_historical_event", EntityNone, "", "Record a piece of backstory", createHistoricalEvent),
	}
}

func createFaction(ctx context.Context, env *Env, args Args) (any, error) {
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	f := world.NewFaction(name)
	p := newPatch(args)
	p.str("ideology", &f.Ideology)
	p.strs("methods", &f.Methods)
	p.str("aesthetic", &f.Aesthetic)
	p.integer("power_level", &f.PowerLevel)
	p.decode("resources", &f.Resources)
	p.strs("goals_short", &f.GoalsShort)
	p.strs("goals_long", &f.GoalsLong)
	p.decode("leadership", &f.Leadership)
	p.strs("secrets", &f.Secrets)
	p.str("history_notes", &f.HistoryNotes)
	if p.err != nil {
		return nil, p.err
	}
	f.AdjustPower(0)
	if err := env.UoW.Factions().Create(ctx, f); err != nil {
		return nil, err
	}
	return result.Response{"id": f.ID, "name": f.Name, "power_level": f.PowerLevel, "ideology": f.Ideology}, nil
}

func updateFaction(ctx context.Context, env *Env, args Args) (any, error) {
	f := env.Faction()
	p := newPatch(args)
	p.str("ideology", &f.Ideology)
	p.str("aesthetic", &f.Aesthetic)
	p.strs("methods", &f.Methods)
	p.str("leadership_structure", &f.Leadership.StructureType)
	p.str("new_leader", &f.Leadership.LeaderName)
	if p.err != nil {
		return nil, p.err
	}

	if args.Has("power_level_delta") {
		delta, err := args.Int("power_level_delta")
		if err != nil {
			return nil, err
		}
		f.AdjustPower(delta)
		p.changed = append(p.changed, "power_level")
	}
	if args.Has("resources_delta") {
		var deltas map[string]int
		if _, err := args.Decode("resources_delta", &deltas); err != nil {
			return nil, err
		}
		if f.Resources == nil {
			f.Resources = world.DefaultResources()
		}
		for k, d := range deltas {
			if _, ok := f.Resources[k]; !ok {
				f.Resources[k] = world.DefaultResource
			}
			f.Resources.Adjust(k, d)
		}
		p.changed = append(p.changed, "resources")
	}
	for _, edit := range []struct {
		arg    string
		list   *world.StringSet
		remove bool
	}{
		{"add_goal_short", &f.GoalsShort, false},
		{"remove_goal_short", &f.GoalsShort, true},
		{"add_goal_long", &f.GoalsLong, false},
		{"remove_goal_long", &f.GoalsLong, true},
		{"add_secret", &f.Secrets, false},
	} {
		if !args.Has(edit.arg) {
			continue
		}
		v, err := args.String(edit.arg)
		if err != nil {
			return nil, err
		}
		if edit.remove {
			edit.list.Remove(v)
		} else {
			edit.list.Add(v)
		}
		p.changed = append(p.changed, edit.arg)
	}
	if args.Has("add_history_note") {
		note, err := args.String("add_history_note")
		if err != nil {
			return nil, err
		}
		f.HistoryNotes = strings.TrimSpace(f.HistoryNotes + "\n" + note)
		p.changed = append(p.changed, "add_history_note")
	}

	if err := env.UoW.Factions().Update(ctx, f); err != nil {
		return nil, err
	}
	return result.Response{
		"id":             f.ID,
		"name":           f.Name,
		"power_level":    f.PowerLevel,
		"resources":      f.Resources,
		"updated_fields": p.changed,
	}, nil
}

func deleteFaction(ctx context.Context, env *Env, _ Args) (any, error) {
	f := env.Faction()
	if err := env.UoW.Factions().Delete(ctx, f.ID); err != nil {
		return nil, err
	}
	return result.Response{"deleted_faction_id": f.ID, "name": f.Name}, nil
}

func createFactionRelationship(ctx context.Context, env *Env, args Args) (any, error) {
	a, err := args.ID("faction_a_id")
	if err != nil {
		return nil, err
	}
	b, err := args.ID("faction_b_id")
	if err != nil {
		return nil, err
	}
	if a == b {
		return nil, invalidArg("faction_b_id", "a faction cannot relate to itself")
	}
	typ, err := args.OptString("relationship_type", string(world.RelationNeutral))
	if err != nil {
		return nil, err
	}
	rel := world.NewFactionRelationship(a, b, world.RelationshipType(typ))
	p := newPatch(args)
	p.str("public_reason", &rel.PublicReason)
	p.str("secret_reason", &rel.SecretReason)
	p.integer("stability", &rel.Stability)
	if p.err != nil {
		return nil, p.err
	}
	rel.AdjustStability(0)

	saved, created, err := env.UoW.Factions().UpsertRelationship(ctx, rel)
	if err != nil {
		return nil, err
	}
	return result.Response{
		"id":                saved.ID,
		"faction_a_id":      saved.FactionAID,
		"faction_b_id":      saved.FactionBID,
		"relationship_type": saved.Type,
		"stability":         saved.Stability,
		"created":           created,
		"updated":           !created,
	}, nil
}

func questResponse(q *world.Quest) result.Response {
	return result.Response{"id": q.ID, "title": q.Title, "status": q.Status}
}

func createQuest(ctx context.Context, env *Env, args Args) (any, error) {
	title, err := args.String("title")
	if err != nil {
		return nil, err
	}
	q := world.NewQuest(title)
	p := newPatch(args)
	p.str("description", &q.Description)
	p.strs("objectives", &q.Objectives)
	p.decode("rewards", &q.Rewards)
	p.id("assigned_by_npc_id", &q.AssignedByNPCID)
	if p.err != nil {
		return nil, p.err
	}
	if q.AssignedByNPCID != nil {
		if _, err := env.UoW.NPCs().Get(ctx, *q.AssignedByNPCID); err != nil {
			return nil, err
		}
	}
	active, err := args.OptBool("start_active", false)
	if err != nil {
		return nil, err
	}
	if active {
		if err := q.Activate(); err != nil {
			return nil, err
		}
	}
	if err := env.UoW.Quests().Create(ctx, q); err != nil {
		return nil, err
	}
	return questResponse(q), nil
}

func updateQuestStatus(ctx context.Context, env *Env, args Args) (any, error) {
	q := env.Quest()
	status, err := args.String("status")
	if err != nil {
		return nil, err
	}
	previous := q.Status
	if err := q.SetStatus(world.QuestStatus(status)); err != nil {
		return nil, err
	}
	if err := env.UoW.Quests().Update(ctx, q); err != nil {
		return nil, err
	}
	resp := questResponse(q)
	resp["previous_status"] = previous
	return resp, nil
}

func activateQuest(ctx context.Context, env *Env, _ Args) (any, error) {
	q := env.Quest()
	if err := q.Activate(); err != nil {
		return nil, err
	}
	if err := env.UoW.Quests().Update(ctx, q); err != nil {
		return nil, err
	}
	resp := questResponse(q)
	resp["objectives"] = q.Objectives
	return resp, nil
}

func updateQuestObjectives(ctx context.Context, env *Env, args Args) (any, error) {
	q := env.Quest()
	if !args.Has("objectives") {
		return nil, missingArg("objectives")
	}
	objectives, err := args.OptStrings("objectives")
	if err != nil {
		return nil, err
	}
	q.Objectives = world.StringSet(objectives)
	if err := env.UoW.Quests().Update(ctx, q); err != nil {
		return nil, err
	}
	resp := questResponse(q)
	resp["objectives"] = q.Objectives
	return resp, nil
}

func deleteQuest(ctx context.Context, env *Env, _ Args) (any, error) {
	q := env.Quest()
	if err := env.UoW.Quests().Delete(ctx, q.ID); err != nil {
		return nil, err
	}
	return result.Response{"deleted_quest_id": q.ID, "title": q.Title}, nil
}

func assignQuest(ctx context.Context, env *Env, args Args) (any, error) {
	q := env.Quest()
	playerID, err := args.ID("player_id")
	if err != nil {
		return nil, err
	}
	if q.Status == world.QuestCompleted || q.Status == world.QuestFailed {
		return nil, world.InvalidState("quest %q is already %s", q.Title, q.Status)
	}
	if q.Status == world.QuestNotStarted {
		if err := q.Activate(); err != nil {
			return nil, err
		}
		if err := env.UoW.Quests().Update(ctx, q); err != nil {
			return nil, err
		}
	}
	p, err := env.UoW.Players().AddQuest(ctx, playerID, q.ID)
	if err != nil {
		return nil, err
	}
	resp := questResponse(q)
	resp["player_id"] = p.ID
	resp["active_quests"] = len(p.ActiveQuests)
	return resp, nil
}

func completeQuest(ctx context.Context, env *Env, args Args) (any, error) {
	q := env.Quest()
	if q.Status == world.QuestCompleted {
		return nil, world.InvalidState("quest %q is already completed", q.Title)
	}
	if err := q.SetStatus(world.QuestCompleted); err != nil {
		return nil, err
	}
	if err := env.UoW.Quests().Update(ctx, q); err != nil {
		return nil, err
	}
	resp := questResponse(q)

	playerID, err := args.OptID("player_id")
	if err != nil || playerID == nil {
		return resp, err
	}
	players := env.UoW.Players()
	if _, err := players.CompleteQuest(ctx, *playerID, q.ID); err != nil {
		return nil, err
	}
	rewards := q.Rewards
	if rewards.Currency > 0 {
		if _, err := players.AdjustCurrency(ctx, *playerID, rewards.Currency); err != nil {
			return nil, err
		}
	}
	reputation := map[string]int{}
	for key, delta := range rewards.Reputation {
		factionID, err := core.ParseULID(key)
		if err != nil {
			return nil, invalidArg("rewards.reputation", "faction id %q: %v", key, err)
		}
		if _, err := env.UoW.Factions().Get(ctx, factionID); err != nil {
			return nil, err
		}
		_, score, err := players.AdjustReputation(ctx, *playerID, factionID, delta)
		if err != nil {
			return nil, err
		}
		reputation[key] = score
	}
	resp["player_id"] = *playerID
	resp["rewards"] = result.Response{
		"currency":   rewards.Currency,
		"items":      rewards.Items,
		"reputation": reputation,
		"other":      rewards.Other,
	}
	return resp, nil
}

func advanceTime(ctx context.Context, env *Env, args Args) (any, error) {
	hours, err := args.Float("hours")
	if err != nil {
		return nil, err
	}
	reason, err := args.OptString("reason", "")
	if err != nil {
		return nil, err
	}
	clock, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	if err := clock.Advance(hours); err != nil {
		return nil, err
	}
	if err := env.UoW.Clock().Save(ctx, clock); err != nil {
		return nil, err
	}
	resp := clockResponse(clock)
	resp["advanced_by"] = hours
	if reason != "" {
		resp["reason"] = reason
	}
	return resp, nil
}

func createEvent(ctx context.Context, env *Env, args Args) (any, error) {
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	typ, err := args.String("event_type")
	if err != nil {
		return nil, err
	}
	clock, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	e := world.NewEvent(name, world.EventType(typ), clock)
	e.PlayerVisible = true
	p := newPatch(args)
	p.str("description", &e.Description)
	p.ids("factions_involved", &e.FactionsInvolved)
	p.ids("locations_involved", &e.LocationsInvolved)
	p.ids("npcs_involved", &e.NPCsInvolved)
	p.strs("consequences", &e.Consequences)
	p.boolean("player_visible", &e.PlayerVisible)
	p.boolean("player_witnessed", &e.PlayerWitnessed)
	if p.err != nil {
		return nil, p.err
	}
	if args.Has("scheduled_day") {
		day, err := args.Int("scheduled_day")
		if err != nil {
			return nil, err
		}
		hour, err := args.OptInt("scheduled_hour", 0)
		if err != nil {
			return nil, err
		}
		e.ScheduledDay, e.ScheduledHour = &day, &hour
		e.OccurredDay, e.OccurredHour = nil, nil
	}
	if err := env.UoW.Events().Create(ctx, e); err != nil {
		return nil, err
	}
	return result.Response{
		"id":           e.ID,
		"name":         e.Name,
		"description":  e.Description,
		"event_type":   e.Type,
		"occurred_day": e.OccurredDay,
	}, nil
}

func createWorldBible(ctx context.Context, env *Env, args Args) (any, error) {
	lore := env.UoW.Lore()
	if _, err := lore.WorldBible(ctx); err == nil {
		return nil, world.InvalidState("world bible already exists")
	} else if !errors.Is(err, world.ErrNotFound) {
		return nil, err
	}

	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	b := &world.WorldBible{Name: name, Themes: world.StringSet{}, Rules: world.StringSet{}}
	p := newPatch(args)
	p.str("genre", &b.Genre)
	p.str("tone", &b.Tone)
	p.str("time_period", &b.TimePeriod)
	p.str("setting", &b.Setting)
	p.strs("themes", &b.Themes)
	p.strs("rules", &b.Rules)
	p.str("magic_system", &b.MagicSystem)
	p.str("technology_level", &b.TechnologyLevel)
	p.decode("naming_conventions", &b.NamingConventions)
	p.str("central_tension", &b.CentralTension)
	p.str("notes", &b.Notes)
	if p.err != nil {
		return nil, p.err
	}
	if err := lore.SaveWorldBible(ctx, b); err != nil {
		return nil, err
	}

	// The first bible also starts the clock.
	clock, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.UoW.Clock().Save(ctx, clock); err != nil {
		return nil, err
	}
	return result.Response{"name": b.Name, "genre": b.Genre, "created": true}, nil
}

func createHistoricalEvent(ctx context.Context, env *Env, args Args) (any, error) {
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	era, err := args.String("era_or_years_ago")
	if err != nil {
		return nil, err
	}
	h := world.NewHistoricalEvent(name, era)
	p := newPatch(args)
	p.str("description", &h.Description)
	p.str("significance", &h.Significance)
	p.ids("factions_involved", &h.FactionsInvolved)
	p.ids("locations_involved", &h.LocationsInvolved)
	if p.err != nil {
		return nil, p.err
	}
	if err := env.UoW.Lore().CreateHistoricalEvent(ctx, h); err != nil {
		return nil, err
	}
	return result.Response{"id": h.ID, "name": h.Name, "era_or_years_ago": h.EraOrYearsAgo}, nil
}
