// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Owner kinds accepted by the inventory tools.
const (
	OwnerPlayer = "player"
	OwnerNPC    = "npc"
)

// owner is a player or NPC holding items and currency.
type owner struct {
	kind   string
	player *world.Player
	npc    *world.NPC
}

func loadOwner(ctx context.Context, uow world.UnitOfWork, args Args, idParam, typeParam string) (*owner, error) {
	id, err := args.ID(idParam)
	if err != nil {
		return nil, err
	}
	kind, err := args.OptString(typeParam, OwnerPlayer)
	if err != nil {
		return nil, err
	}
	switch kind {
	case OwnerPlayer:
		p, err := uow.Players().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &owner{kind: kind, player: p}, nil
	case OwnerNPC:
		n, err := uow.NPCs().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &owner{kind: kind, npc: n}, nil
	default:
		return nil, invalidArg(typeParam, "expected %q or %q, got %q", OwnerPlayer, OwnerNPC, kind)
	}
}

func (o *owner) id() ulid.ULID {
	if o.player != nil {
		return o.player.ID
	}
	return o.npc.ID
}

func (o *owner) name() string {
	if o.player != nil {
		return o.player.Name
	}
	return o.npc.Name
}

func (o *owner) inventory() *world.Inventory {
	if o.player != nil {
		return &o.player.Inventory
	}
	return &o.npc.Inventory
}

func (o *owner) currency() *int {
	if o.player != nil {
		return &o.player.Currency
	}
	return &o.npc.Currency
}

func (o *owner) adjustCurrency(delta int) error {
	if o.player != nil {
		return o.player.AdjustCurrency(delta)
	}
	return o.npc.AdjustCurrency(delta)
}

func (o *owner) save(ctx context.Context, uow world.UnitOfWork) error {
	if o.player != nil {
		return uow.Players().Update(ctx, o.player)
	}
	return uow.NPCs().Update(ctx, o.npc)
}

func (o *owner) same(other *owner) bool {
	return o.kind == other.kind && o.id() == other.id()
}
