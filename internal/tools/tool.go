// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package tools exposes world operations as named tools. Each call runs in
// its own unit of work and always yields a flat success/failure response.
package tools

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/session"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Tool categories.
const (
	CategoryRead     = "world_read"
	CategoryWrite    = "world_write"
	CategoryCompound = "compound"
)

// Entity names the aggregate a tool pre-fetches before its handler runs.
type Entity string

// Pre-fetchable entities.
const (
	EntityNone     Entity = ""
	EntityPlayer   Entity = "player"
	EntityNPC      Entity = "npc"
	EntityLocation Entity = "location"
	EntityFaction  Entity = "faction"
	EntityQuest    Entity = "quest"
)

// Handler runs a tool. It returns a result.Result, a map, or any other value,
// which the dispatcher flattens into a response. Returned errors carrying a
// taxonomy code become failure responses with that code.
type Handler func(ctx context.Context, env *Env, args Args) (any, error)

// Tool describes one registered operation.
type Tool struct {
	Name     string
	Category string
	Help     string

	// Entity, when set, is fetched using the IDParam argument and handed to
	// the handler as Env.Entity. IDParam defaults to "<entity>_id".
	Entity  Entity
	IDParam string

	// ReadOnly tools never commit.
	ReadOnly bool

	Handler Handler
}

// QualifiedName is the "<category>.<name>" form grants match against.
func (t Tool) QualifiedName() string {
	return t.Category + "." + t.Name
}

func (t Tool) idParam() string {
	if t.IDParam != "" {
		return t.IDParam
	}
	return string(t.Entity) + "_id"
}

// Env is what a handler may touch during one call.
type Env struct {
	UoW      world.UnitOfWork
	Entity   any
	Sessions *session.Manager

	clock *world.WorldClock
}

// Clock loads the world clock once per call.
func (e *Env) Clock(ctx context.Context) (*world.WorldClock, error) {
	if e.clock != nil {
		return e.clock, nil
	}
	c, err := e.UoW.Clock().Get(ctx)
	if err != nil {
		return nil, err
	}
	e.clock = c
	return c, nil
}

// Player returns the pre-fetched player. It panics when the tool did not
// declare EntityPlayer, which the dispatcher reports as TOOL_ERROR.
func (e *Env) Player() *world.Player { return entityAs[*world.Player](e) }

// NPC returns the pre-fetched NPC.
func (e *Env) NPC() *world.NPC { return entityAs[*world.NPC](e) }

// Location returns the pre-fetched location.
func (e *Env) Location() *world.Location { return entityAs[*world.Location](e) }

// Faction returns the pre-fetched faction.
func (e *Env) Faction() *world.Faction { return entityAs[*world.Faction](e) }

// Quest returns the pre-fetched quest.
func (e *Env) Quest() *world.Quest { return entityAs[*world.Quest](e) }

func entityAs[T any](e *Env) T {
	v, ok := e.Entity.(T)
	if !ok {
		panic(fmt.Sprintf("tool entity is %T, not %T", e.Entity, *new(T)))
	}
	return v
}

// fetchEntity loads the entity a tool declared.
func fetchEntity(ctx context.Context, uow world.UnitOfWork, kind Entity, id ulid.ULID) (any, error) {
	switch kind {
	case EntityPlayer:
		return uow.Players().Get(ctx, id)
	case EntityNPC:
		return uow.NPCs().Get(ctx, id)
	case EntityLocation:
		return uow.Locations().Get(ctx, id)
	case EntityFaction:
		return uow.Factions().Get(ctx, id)
	case EntityQuest:
		return uow.Quests().Get(ctx, id)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}
