// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

func write(name string, entity Entity, idParam, help string, h Handler) Tool {
	return Tool{Name: name, Category: CategoryWrite, Entity: entity, IDParam: idParam, Help: help, Handler: h}
}

func writeTools() []Tool {
	var all []Tool
	for _, group := range [][]Tool{locationTools(), characterTools(), itemTools(), worldTools()} {
		all = append(all, group...)
	}
	return all
}

func locationTools() []Tool {
	return []Tool{
		write("add_location", EntityNone, "", "Create a location, linked to its parent when one is given", addLocation),
		write("update_location", EntityLocation, "", "Change a location's descriptive or map fields", updateLocation),
		write("delete_location", EntityLocation, "", "Delete a leaf location and its connections", deleteLocation),
		write("expand_location", EntityLocation, "parent_id", "Generate a discovered child beneath a location", expandLocation),
		write("add_location_connection", EntityNone, "", "Create a travel connection", addConnection),
		write("update_connection", EntityNone, "", "Change a travel connection", updateConnection),
		write("delete_connection", EntityNone, "", "Delete a travel connection", deleteConnection),
	}
}

func patchMap(p *patch, m *world.MapDisplay) {
	p.str("display_type", &m.DisplayType)
	p.boolean("is_map_container", &m.IsContainer)
	p.str("map_image_path", &m.ImagePath)
	p.integer("map_width", &m.Width)
	p.integer("map_height", &m.Height)
	p.str("pin_icon", &m.PinIcon)
	p.str("pin_color", &m.PinColor)
	p.float("pin_size", &m.PinSize)
}

func addLocation(ctx context.Context, env *Env, args Args) (any, error) {
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	parentID, err := args.OptID("parent_id")
	if err != nil {
		return nil, err
	}
	var parent *world.Location
	if parentID != nil {
		if parent, err = env.UoW.Locations().Get(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	defaultLevel := world.LevelRoot
	if parent != nil {
		defaultLevel = world.ChildLevel(parent.Level)
	}
	levelArg, err := args.OptString("level", string(defaultLevel))
	if err != nil {
		return nil, err
	}
	loc := world.NewLocation(name, world.LocationLevel(levelArg))
	loc.SetParent(parent)

	p := newPatch(args)
	p.str("description", &loc.Description)
	p.str("display_label", &loc.DisplayLabel)
	p.strs("atmosphere_tags", &loc.AtmosphereTags)
	p.strs("secrets", &loc.Secrets)
	p.str("economic_function", &loc.EconomicFunction)
	p.str("population_level", &loc.PopulationLevel)
	p.str("current_state", &loc.State)
	p.id("controlling_faction_id", &loc.ControllingFactionID)
	p.boolean("discovered", &loc.Discovered)
	p.position(&loc.Position)
	patchMap(p, &loc.Map)
	if p.err != nil {
		return nil, p.err
	}
	if loc.ControllingFactionID != nil {
		if _, err := env.UoW.Factions().Get(ctx, *loc.ControllingFactionID); err != nil {
			return nil, err
		}
	}
	if err := env.UoW.Locations().Create(ctx, loc); err != nil {
		return nil, err
	}

	resp := result.Response{
		"id":        loc.ID,
		"name":      loc.Name,
		"type":      loc.Level,
		"parent_id": loc.ParentID,
		"position":  loc.Position,
	}
	if parent != nil {
		hours, err := args.OptFloat("travel_time_to_parent", world.HierarchyTravelHours)
		if err != nil {
			return nil, err
		}
		conn := world.NewConnection(parent.ID, loc.ID, world.TravelWalk, hours)
		if err := env.UoW.Connections().Create(ctx, conn); err != nil {
			return nil, err
		}
		resp["connection_id"] = conn.ID
	}
	return resp, nil
}

func updateLocation(ctx context.Context, env *Env, args Args) (any, error) {
	loc := env.Location()
	p := newPatch(args)
	p.str("name", &loc.Name)
	p.str("description", &loc.Description)
	p.str("display_label", &loc.DisplayLabel)
	p.strs("atmosphere_tags", &loc.AtmosphereTags)
	p.strs("secrets", &loc.Secrets)
	p.str("economic_function", &loc.EconomicFunction)
	p.str("population_level", &loc.PopulationLevel)
	p.str("current_state", &loc.State)
	p.id("controlling_faction_id", &loc.ControllingFactionID)
	p.boolean("discovered", &loc.Discovered)
	p.boolean("visited", &loc.Visited)
	p.boolean("children_generated", &loc.ChildrenGenerated)
	p.position(&loc.Position)
	patchMap(p, &loc.Map)
	if p.err != nil {
		return nil, p.err
	}
	if loc.ControllingFactionID != nil {
		if _, err := env.UoW.Factions().Get(ctx, *loc.ControllingFactionID); err != nil {
			return nil, err
		}
	}
	if err := env.UoW.Locations().Update(ctx, loc); err != nil {
		return nil, err
	}
	return result.Response{"id": loc.ID, "name": loc.Name, "updated_fields": p.changed}, nil
}

func deleteLocation(ctx context.Context, env *Env, _ Args) (any, error) {
	loc := env.Location()
	if err := env.UoW.Locations().Delete(ctx, loc.ID); err != nil {
		return nil, err
	}
	return result.Response{"deleted_location_id": loc.ID, "name": loc.Name}, nil
}

func expandLocation(ctx context.Context, env *Env, args Args) (any, error) {
	parent := env.Location()
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	spec := world.ExpansionSpec{Name: name}
	level, err := args.OptString("level", "")
	if err != nil {
		return nil, err
	}
	spec.Level = world.LocationLevel(level)
	if spec.MarkParentGenerated, err = args.OptBool("mark_parent_generated", true); err != nil {
		return nil, err
	}

	p := newPatch(args)
	p.str("description", &spec.Description)
	p.str("display_label", &spec.DisplayLabel)
	p.strs("atmosphere_tags", &spec.AtmosphereTags)
	p.str("travel_type", &spec.TravelType)
	p.float("travel_time_hours", &spec.TravelTimeHours)
	if args.Has("x") || args.Has("y") {
		pos := world.Position{}
		p.position(&pos)
		spec.Position = &pos
	}
	if p.err != nil {
		return nil, p.err
	}

	child, conn, err := world.ExpandLocation(ctx, env.UoW, parent.ID, spec)
	if err != nil {
		return nil, err
	}
	return result.Response{
		"id":                child.ID,
		"name":              child.Name,
		"type":              child.Level,
		"parent_id":         parent.ID,
		"position":          child.Position,
		"connection_id":     conn.ID,
		"travel_time_hours": conn.TravelTimeHours,
	}, nil
}

func addConnection(ctx context.Context, env *Env, args Args) (any, error) {
	from, err := args.ID("from_location_id")
	if err != nil {
		return nil, err
	}
	to, err := args.ID("to_location_id")
	if err != nil {
		return nil, err
	}
	travelType, err := args.OptString("travel_type", world.TravelWalk)
	if err != nil {
		return nil, err
	}
	hours, err := args.Float("travel_time_hours")
	if err != nil {
		return nil, err
	}
	for _, id := range []string{"from_location_id", "to_location_id"} {
		lid, _ := args.ID(id)
		if _, err := env.UoW.Locations().Get(ctx, lid); err != nil {
			return nil, err
		}
	}

	conn := world.NewConnection(from, to, travelType, hours)
	p := newPatch(args)
	p.integer("difficulty", &conn.Difficulty)
	p.str("description", &conn.Description)
	p.strs("requirements", &conn.Requirements)
	p.boolean("bidirectional", &conn.Bidirectional)
	p.boolean("hidden", &conn.Hidden)
	p.boolean("discovered", &conn.Discovered)
	if p.err != nil {
		return nil, p.err
	}
	if err := env.UoW.Connections().Create(ctx, conn); err != nil {
		return nil, err
	}
	return result.Response{
		"id":                conn.ID,
		"from_location_id":  conn.FromID,
		"to_location_id":    conn.ToID,
		"travel_type":       conn.TravelType,
		"travel_time_hours": conn.TravelTimeHours,
		"bidirectional":     conn.Bidirectional,
	}, nil
}

func updateConnection(ctx context.Context, env *Env, args Args) (any, error) {
	id, err := args.ID("connection_id")
	if err != nil {
		return nil, err
	}
	conn, err := env.UoW.Connections().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := newPatch(args)
	p.str("travel_type", &conn.TravelType)
	p.float("travel_time_hours", &conn.TravelTimeHours)
	p.integer("difficulty", &conn.Difficulty)
	p.str("description", &conn.Description)
	p.strs("requirements", &conn.Requirements)
	p.boolean("bidirectional", &conn.Bidirectional)
	p.boolean("hidden", &conn.Hidden)
	p.boolean("discovered", &conn.Discovered)
	if p.err != nil {
		return nil, p.err
	}
	if err := env.UoW.Connections().Update(ctx, conn); err != nil {
		return nil, err
	}
	return result.Response{"id": conn.ID, "updated_fields": p.changed}, nil
}

func deleteConnection(ctx context.Context, env *Env, args Args) (any, error) {
	id, err := args.ID("connection_id")
	if err != nil {
		return nil, err
	}
	if err := env.UoW.Connections().Delete(ctx, id); err != nil {
		return nil, err
	}
	return result.Response{"deleted_connection_id": id}, nil
}
