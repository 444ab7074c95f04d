// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Summary windows used by get_world_state_summary.
const (
	summaryEventDays  = 3
	summaryEventLimit = 5
	tensionStability  = 30
)

func readTools() []Tool {
	read := func(name string, entity Entity, idParam, help string, h Handler) Tool {
		return Tool{Name: name, Category: CategoryRead, Entity: entity, IDParam: idParam, ReadOnly: true, Help: help, Handler: h}
	}
	return []Tool{
		read("get_current_location", EntityPlayer, "", "Where the player is, with the NPCs present", getCurrentLocation),
		read("get_location", EntityLocation, "", "One location", getLocation),
		read("get_all_locations", EntityNone, "", "Locations filtered by level, parent or discovery", getAllLocations),
		read("get_location_children", EntityLocation, "parent_id", "Direct children of a location", getLocationChildren),
		read("get_available_destinations", EntityLocation, "", "Where one can travel from a location", getAvailableDestinations),
		read("get_location_hierarchy", EntityLocation, "", "Chain from the root down to a location", getLocationHierarchy),
		read("get_npcs_at_location", EntityLocation, "", "NPCs present at a location", getNPCsAtLocation),
		read("get_all_connections", EntityNone, "", "Travel connections, optionally by endpoint", getAllConnections),
		read("get_player", EntityPlayer, "", "Player state", getPlayer),
		read("get_world_clock", EntityNone, "", "Current day and hour", getWorldClock),
		read("get_npc", EntityNPC, "", "One NPC, with the player relationship when player_id is given", getNPC),
		read("get_all_npcs", EntityNone, "", "NPCs filtered by location, faction, tier or status", getAllNPCs),
		read("get_npc_relationship", EntityNPC, "", "How an NPC regards a player", getNPCRelationship),
		read("get_faction", EntityFaction, "", "One faction", getFaction),
		read("get_all_factions", EntityNone, "", "Factions by power", getAllFactions),
		read("get_faction_full", EntityFaction, "", "Faction with relationships, members and territory", getFactionFull),
		read("get_faction_relationships", EntityNone, "", "Faction relationships by faction or type", getFactionRelationships),
		read("get_quest", EntityQuest, "", "One quest", getQuest),
		read("get_quests", EntityNone, "", "Quests by status or giver", getQuests),
		read("get_inventory", EntityNone, "", "Inventory and currency of a player or NPC", getInventory),
		read("get_recent_events", EntityNone, "", "Events from the last few days", getRecentEvents),
		read("get_world_bible", EntityNone, "", "The world's lore record", getWorldBible),
		read("get_historical_events", EntityNone, "", "Background history", getHistoricalEvents),
		read("get_world_state_summary", EntityNone, "", "Time, player, location, factions, conflicts and recent events", getWorldStateSummary),
		read("validate_world", EntityNone, "", "Report hierarchy roots and anomalies", validateWorld),
	}
}

func getCurrentLocation(ctx context.Context, env *Env, _ Args) (any, error) {
	p := env.Player()
	if p.CurrentLocationID == nil {
		return nil, oops.Code(world.CodeLocationNotFound).With("player_id", p.ID.String()).
			Wrapf(world.ErrNotFound, "player %s has no current location", p.Name)
	}
	detail, err := world.LocationWithNPCs(ctx, env.UoW, *p.CurrentLocationID)
	if err != nil {
		return nil, err
	}
	chain, err := env.UoW.Locations().Hierarchy(ctx, detail.Location.ID)
	if err != nil {
		return nil, err
	}
	present := make([]map[string]any, 0, len(detail.NPCs))
	for _, n := range detail.NPCs {
		present = append(present, map[string]any{"id": n.ID, "name": n.Name, "profession": n.Profession, "mood": n.CurrentMood})
	}
	return result.Response{
		"location":       detail.Location,
		"breadcrumb":     world.Breadcrumb(chain),
		"npcs_present":   present,
		"visited_before": detail.Location.Visited,
	}, nil
}

func getLocation(_ context.Context, env *Env, _ Args) (any, error) {
	return result.Response{"location": env.Location()}, nil
}

func getAllLocations(ctx context.Context, env *Env, args Args) (any, error) {
	var filter world.LocationFilter
	level, err := args.OptString("level", "")
	if err != nil {
		return nil, err
	}
	if level != "" {
		l := world.LocationLevel(level)
		if !l.IsValid() {
			return nil, world.InvalidInput("unknown location level %q", level)
		}
		filter.Level = &l
	}
	if filter.ParentID, err = args.OptID("parent_id"); err != nil {
		return nil, err
	}
	if args.Has("discovered") {
		d, err := args.OptBool("discovered", false)
		if err != nil {
			return nil, err
		}
		filter.Discovered = &d
	}
	locs, err := env.UoW.Locations().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Response{"locations": locs, "count": len(locs)}, nil
}

func getLocationChildren(ctx context.Context, env *Env, _ Args) (any, error) {
	parent := env.Location()
	children, err := env.UoW.Locations().Children(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	return result.Response{"parent_id": parent.ID, "children": children}, nil
}

func getAvailableDestinations(ctx context.Context, env *Env, _ Args) (any, error) {
	loc := env.Location()
	dests, err := world.AvailableDestinations(ctx, env.UoW, loc)
	if err != nil {
		return nil, err
	}
	return result.Response{"location_id": loc.ID, "destinations": dests}, nil
}

func getLocationHierarchy(ctx context.Context, env *Env, _ Args) (any, error) {
	chain, err := env.UoW.Locations().Hierarchy(ctx, env.Location().ID)
	if err != nil {
		return nil, err
	}
	levels := make([]map[string]any, 0, len(chain))
	for _, l := range chain {
		levels = append(levels, map[string]any{
			"id":               l.ID,
			"name":             l.Name,
			"type":             l.Level,
			"display_label":    l.Label(),
			"is_map_container": l.Map.IsContainer,
		})
	}
	return result.Response{"hierarchy": levels, "breadcrumb": world.Breadcrumb(chain)}, nil
}

func getNPCsAtLocation(ctx context.Context, env *Env, args Args) (any, error) {
	includeDead, err := args.OptBool("include_dead", false)
	if err != nil {
		return nil, err
	}
	npcs, err := env.UoW.NPCs().AtLocation(ctx, env.Location().ID, includeDead)
	if err != nil {
		return nil, err
	}
	return result.Response{"npcs": npcs, "count": len(npcs)}, nil
}

func getAllConnections(ctx context.Context, env *Env, args Args) (any, error) {
	var filter world.ConnectionFilter
	var err error
	if filter.FromID, err = args.OptID("from_location_id"); err != nil {
		return nil, err
	}
	if filter.ToID, err = args.OptID("to_location_id"); err != nil {
		return nil, err
	}
	conns, err := env.UoW.Connections().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Response{"connections": conns, "count": len(conns)}, nil
}

func getPlayer(_ context.Context, env *Env, _ Args) (any, error) {
	return result.Response{"player": env.Player()}, nil
}

func getWorldClock(ctx context.Context, env *Env, _ Args) (any, error) {
	c, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	return clockResponse(c), nil
}

func clockResponse(c *world.WorldClock) result.Response {
	return result.Response{"day": c.Day, "hour": c.Hour, "time_of_day": c.TimeOfDay()}
}

func getNPC(ctx context.Context, env *Env, args Args) (any, error) {
	npc := env.NPC()
	resp := result.Response{"npc": npc}
	playerID, err := args.OptID("player_id")
	if err != nil || playerID == nil {
		return resp, err
	}
	rel, err := env.UoW.Relationships().Get(ctx, npc.ID, *playerID)
	switch {
	case errors.Is(err, world.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		resp["relationship"] = rel
		resp["revealed_secrets"] = rel.Revealed(npc)
	}
	return resp, nil
}

func getAllNPCs(ctx context.Context, env *Env, args Args) (any, error) {
	var filter world.NPCFilter
	var err error
	if filter.LocationID, err = args.OptID("location_id"); err != nil {
		return nil, err
	}
	if filter.FactionID, err = args.OptID("faction_id"); err != nil {
		return nil, err
	}
	tier, err := args.OptString("tier", "")
	if err != nil {
		return nil, err
	}
	if tier != "" {
		t := world.NPCTier(tier)
		if !t.IsValid() {
			return nil, world.InvalidInput("unknown npc tier %q", tier)
		}
		filter.Tier = &t
	}
	status, err := args.OptString("status", "")
	if err != nil {
		return nil, err
	}
	if status != "" {
		s := world.NPCStatus(status)
		if !s.IsValid() {
			return nil, world.InvalidInput("unknown npc status %q", status)
		}
		filter.Status = &s
	}
	npcs, err := env.UoW.NPCs().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Response{"npcs": npcs, "count": len(npcs)}, nil
}

func getNPCRelationship(ctx context.Context, env *Env, args Args) (any, error) {
	npc := env.NPC()
	playerID, err := args.ID("player_id")
	if err != nil {
		return nil, err
	}
	rel, exists, err := loadRelationship(ctx, env.UoW, npc.ID, playerID)
	if err != nil {
		return nil, err
	}
	return result.Response{
		"npc_name":            npc.Name,
		"exists":              exists,
		"trust_level":         rel.TrustLevel,
		"current_disposition": rel.Disposition,
		"relationship":        rel,
		"revealed_secrets":    rel.Revealed(npc),
	}, nil
}

func getFaction(_ context.Context, env *Env, _ Args) (any, error) {
	return result.Response{"faction": env.Faction()}, nil
}

func getAllFactions(ctx context.Context, env *Env, _ Args) (any, error) {
	fs, err := env.UoW.Factions().List(ctx)
	if err != nil {
		return nil, err
	}
	return result.Response{"factions": fs, "count": len(fs)}, nil
}

// relationshipView names the other party of a faction relationship.
func relationshipView(ctx context.Context, uow world.UnitOfWork, self ulid.ULID, rel *world.FactionRelationship) (map[string]any, error) {
	other, err := uow.Factions().Get(ctx, rel.Other(self))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                rel.ID,
		"other_faction_id":  other.ID,
		"other_faction":     other.Name,
		"relationship_type": rel.Type,
		"public_reason":     rel.PublicReason,
		"stability":         rel.Stability,
		"volatile":          rel.IsVolatile(),
		"could_escalate":    rel.CouldEscalate(),
	}, nil
}

func getFactionFull(ctx context.Context, env *Env, _ Args) (any, error) {
	f := env.Faction()
	rels, err := env.UoW.Factions().Relationships(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	views := make([]map[string]any, 0, len(rels))
	for _, r := range rels {
		v, err := relationshipView(ctx, env.UoW, f.ID, r)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	members, err := env.UoW.NPCs().List(ctx, world.NPCFilter{FactionID: &f.ID})
	if err != nil {
		return nil, err
	}
	locs, err := env.UoW.Locations().List(ctx, world.LocationFilter{})
	if err != nil {
		return nil, err
	}
	territory := make([]map[string]any, 0)
	for _, l := range locs {
		if l.ControllingFactionID != nil && *l.ControllingFactionID == f.ID {
			territory = append(territory, map[string]any{"id": l.ID, "name": l.Name, "type": l.Level})
		}
	}
	return result.Response{
		"faction":       f,
		"relationships": views,
		"members":       members,
		"territory":     territory,
	}, nil
}

func getFactionRelationships(ctx context.Context, env *Env, args Args) (any, error) {
	factionID, err := args.OptID("faction_id")
	if err != nil {
		return nil, err
	}
	typ, err := args.OptString("relationship_type", "")
	if err != nil {
		return nil, err
	}

	var rels []*world.FactionRelationship
	switch {
	case factionID != nil:
		if _, err := env.UoW.Factions().Get(ctx, *factionID); err != nil {
			return nil, err
		}
		rels, err = env.UoW.Factions().Relationships(ctx, *factionID)
	case typ != "":
		t := world.RelationshipType(typ)
		if !t.IsValid() {
			return nil, world.InvalidInput("unknown relationship type %q", typ)
		}
		rels, err = env.UoW.Factions().RelationshipsByType(ctx, t)
	default:
		return nil, oops.Code(world.CodeMissingRequired).Errorf("one of faction_id or relationship_type is required")
	}
	if err != nil {
		return nil, err
	}
	if factionID != nil && typ != "" {
		filtered := rels[:0]
		for _, r := range rels {
			if string(r.Type) == typ {
				filtered = append(filtered, r)
			}
		}
		rels = filtered
	}
	return result.Response{"relationships": rels, "count": len(rels)}, nil
}

func getQuest(_ context.Context, env *Env, _ Args) (any, error) {
	return result.Response{"quest": env.Quest()}, nil
}

func getQuests(ctx context.Context, env *Env, args Args) (any, error) {
	npcID, err := args.OptID("npc_id")
	if err != nil {
		return nil, err
	}
	status, err := args.OptString("status", "")
	if err != nil {
		return nil, err
	}
	var st *world.QuestStatus
	if status != "" {
		s := world.QuestStatus(status)
		if !s.IsValid() {
			return nil, world.InvalidInput("unknown quest status %q", status)
		}
		st = &s
	}

	var quests []*world.Quest
	if npcID != nil {
		quests, err = env.UoW.Quests().ListByNPC(ctx, *npcID)
		if err == nil && st != nil {
			filtered := quests[:0]
			for _, q := range quests {
				if q.Status == *st {
					filtered = append(filtered, q)
				}
			}
			quests = filtered
		}
	} else {
		quests, err = env.UoW.Quests().List(ctx, st)
	}
	if err != nil {
		return nil, err
	}
	return result.Response{"quests": quests, "count": len(quests)}, nil
}

func getInventory(ctx context.Context, env *Env, args Args) (any, error) {
	o, err := loadOwner(ctx, env.UoW, args, "owner_id", "owner_type")
	if err != nil {
		return nil, err
	}
	inv := *o.inventory()
	return result.Response{
		"owner_id":   o.id(),
		"owner_type": o.kind,
		"inventory":  inv,
		"currency":   *o.currency(),
		"slots_used": len(inv),
		"slots_max":  world.MaxInventorySlots,
	}, nil
}

func getRecentEvents(ctx context.Context, env *Env, args Args) (any, error) {
	days, err := args.OptInt("days", summaryEventDays)
	if err != nil {
		return nil, err
	}
	visibleOnly, err := args.OptBool("visible_only", true)
	if err != nil {
		return nil, err
	}
	limit, err := args.OptInt("limit", 10)
	if err != nil {
		return nil, err
	}
	c, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	events, err := env.UoW.Events().Recent(ctx, world.EventQuery{SinceDay: c.Day - days, VisibleOnly: visibleOnly, Limit: limit})
	if err != nil {
		return nil, err
	}
	return result.Response{"events": events, "count": len(events), "since_day": c.Day - days}, nil
}

func getWorldBible(ctx context.Context, env *Env, _ Args) (any, error) {
	b, err := env.UoW.Lore().WorldBible(ctx)
	if err != nil {
		return nil, err
	}
	return result.Response{"world_bible": b}, nil
}

func getHistoricalEvents(ctx context.Context, env *Env, _ Args) (any, error) {
	hs, err := env.UoW.Lore().HistoricalEvents(ctx)
	if err != nil {
		return nil, err
	}
	return result.Response{"historical_events": hs, "count": len(hs)}, nil
}

func getWorldStateSummary(ctx context.Context, env *Env, args Args) (any, error) {
	c, err := env.Clock(ctx)
	if err != nil {
		return nil, err
	}
	resp := result.Response{"time": clockResponse(c)}

	playerID, err := args.OptID("player_id")
	if err != nil {
		return nil, err
	}
	npcsHere := make([]map[string]any, 0)
	if playerID != nil {
		p, err := env.UoW.Players().Get(ctx, *playerID)
		if err != nil {
			return nil, err
		}
		resp["player"] = map[string]any{
			"name":          p.Name,
			"health_status": p.HealthStatus,
			"active_quests": p.ActiveQuests,
			"currency":      p.Currency,
		}
		if p.CurrentLocationID != nil {
			detail, err := world.LocationWithNPCs(ctx, env.UoW, *p.CurrentLocationID)
			if err != nil {
				return nil, err
			}
			loc := detail.Location
			resp["location"] = map[string]any{
				"id":                     loc.ID,
				"name":                   loc.Name,
				"type":                   loc.Level,
				"current_state":          loc.State,
				"controlling_faction_id": loc.ControllingFactionID,
			}
			for _, n := range detail.NPCs {
				npcsHere = append(npcsHere, map[string]any{"id": n.ID, "name": n.Name, "profession": n.Profession, "mood": n.CurrentMood})
			}
		}
	}
	resp["npcs_at_location"] = npcsHere

	factions, err := env.UoW.Factions().List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(factions))
	powers := make([]map[string]any, 0, len(factions))
	for _, f := range factions {
		names[f.ID.String()] = f.Name
		powers = append(powers, map[string]any{"id": f.ID, "name": f.Name, "power_level": f.PowerLevel})
	}
	resp["factions"] = powers

	between := func(r *world.FactionRelationship) []string {
		return []string{names[r.FactionAID.String()], names[r.FactionBID.String()]}
	}
	wars, err := env.UoW.Factions().RelationshipsByType(ctx, world.RelationWar)
	if err != nil {
		return nil, err
	}
	conflicts := make([]map[string]any, 0, len(wars))
	for _, r := range wars {
		conflicts = append(conflicts, map[string]any{"between": between(r), "stability": r.Stability})
	}
	resp["active_conflicts"] = conflicts

	rivals, err := env.UoW.Factions().RelationshipsByType(ctx, world.RelationRival)
	if err != nil {
		return nil, err
	}
	tensions := make([]map[string]any, 0)
	for _, r := range rivals {
		if r.Stability < tensionStability {
			tensions = append(tensions, map[string]any{"between": between(r), "stability": r.Stability, "could_escalate": r.CouldEscalate()})
		}
	}
	resp["rising_tensions"] = tensions

	events, err := env.UoW.Events().Recent(ctx, world.EventQuery{SinceDay: c.Day - summaryEventDays, VisibleOnly: true, Limit: summaryEventLimit})
	if err != nil {
		return nil, err
	}
	recent := make([]map[string]any, 0, len(events))
	for _, e := range events {
		recent = append(recent, map[string]any{"name": e.Name, "type": e.Type, "day": e.OccurredDay})
	}
	resp["recent_events"] = recent
	return resp, nil
}

func validateWorld(ctx context.Context, env *Env, _ Args) (any, error) {
	report, err := world.ValidateRoots(ctx, env.UoW.Locations())
	if err != nil {
		return nil, err
	}
	return result.Response{"valid": report.OK(), "roots": report.RootIDs, "anomalies": report.Anomalies}, nil
}
