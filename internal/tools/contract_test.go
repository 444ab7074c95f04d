// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools_test

import (
	"context"
	"math"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

func rootLocation(t *testing.T, uow world.UnitOfWork, name string) *world.Location {
	t.Helper()
	loc := world.NewLocation(name, world.LevelRoot)
	require.NoError(t, uow.Locations().Create(context.Background(), loc))
	return loc
}

func childLocation(t *testing.T, uow world.UnitOfWork, name string, parent *world.Location) *world.Location {
	t.Helper()
	loc := world.NewLocation(name, world.ChildLevel(parent.Level))
	loc.SetParent(parent)
	loc.Discovered = true
	require.NoError(t, uow.Locations().Create(context.Background(), loc))
	return loc
}

func TestMovePlayer(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	var harbor, market *world.Location
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		harbor = rootLocation(t, uow, "Harbor")
		market = rootLocation(t, uow, "Market")
		require.NoError(t, uow.Connections().Create(ctx, world.NewConnection(harbor.ID, market.ID, "road", 2)))
		player = world.NewPlayer("Mara")
		id := harbor.ID
		player.CurrentLocationID = &id
		require.NoError(t, uow.Players().Create(ctx, player))
	})

	resp := call(t, d, "move_player", tools.Args{
		"player_id":      player.ID.String(),
		"destination_id": market.ID.String(),
	})
	requireOK(t, resp)
	assert.Equal(t, "Market", resp["destination"])
	assert.Equal(t, market.ID, resp["destination_id"])
	assert.InDelta(t, 2.0, resp["travel_time_hours"], 0.001)
	assert.Equal(t, "road", resp["travel_type"])

	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		p, err := uow.Players().Get(ctx, player.ID)
		require.NoError(t, err)
		require.NotNil(t, p.CurrentLocationID)
		assert.Equal(t, market.ID, *p.CurrentLocationID)

		loc, err := uow.Locations().Get(ctx, market.ID)
		require.NoError(t, err)
		assert.True(t, loc.Visited)
		assert.True(t, loc.Discovered)
	})

	assertFails(t, call(t, d, "move_player", tools.Args{
		"player_id": core.NewULID().String(), "destination_id": market.ID.String(),
	}), world.CodePlayerNotFound)
	assertFails(t, call(t, d, "move_player", tools.Args{
		"player_id": player.ID.String(), "destination_id": core.NewULID().String(),
	}), world.CodeLocationNotFound)
}

func TestGetAvailableDestinations(t *testing.T) {
	d, s := newDispatcher(t)
	var city, square, docks, island *world.Location
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		city = rootLocation(t, uow, "City")
		square = childLocation(t, uow, "Square", city)
		docks = childLocation(t, uow, "Docks", city)
		island = rootLocation(t, uow, "Island")
		require.NoError(t, uow.Connections().Create(ctx, world.NewConnection(docks.ID, island.ID, "boat", 3)))
	})

	resp := call(t, d, "get_available_destinations", tools.Args{"location_id": docks.ID.String()})
	requireOK(t, resp)
	dests, ok := resp["destinations"].([]world.Destination)
	require.True(t, ok, "destinations is %T", resp["destinations"])

	byID := map[ulid.ULID]world.Destination{}
	for _, dest := range dests {
		byID[dest.ID] = dest
	}
	require.Len(t, byID, 2)
	assert.Equal(t, "boat", byID[island.ID].TravelType)
	assert.InDelta(t, 3.0, byID[island.ID].TravelTimeHours, 0.001)
	assert.Equal(t, world.TravelExit, byID[city.ID].TravelType)
	assert.NotContains(t, byID, square.ID, "siblings are not implicit destinations")
}

func TestUpdateNPCRelationship(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	var npc *world.NPC
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		player = world.NewPlayer("Mara")
		require.NoError(t, uow.Players().Create(ctx, player))
		npc = world.NewNPC("Orrin", world.TierMajor)
		require.NoError(t, uow.NPCs().Create(ctx, npc))
	})

	args := func(delta int) tools.Args {
		return tools.Args{
			"npc_id":          npc.ID.String(),
			"player_id":       player.ID.String(),
			"trust_delta":     delta,
			"new_disposition": "warm",
			"add_key_moment":  "shared a drink",
		}
	}

	resp := call(t, d, "update_npc_relationship", args(30))
	requireOK(t, resp)
	assert.Equal(t, 80, resp["trust_level"])
	assert.Equal(t, "warm", resp["current_disposition"])

	resp = call(t, d, "update_npc_relationship", args(500))
	requireOK(t, resp)
	assert.Equal(t, world.MaxTrust, resp["trust_level"])

	resp = call(t, d, "update_npc_relationship", args(-1000))
	requireOK(t, resp)
	assert.Equal(t, world.MinTrust, resp["trust_level"])
	assert.Equal(t, 3, resp["key_moments"])

	resp = call(t, d, "get_npc_relationship", tools.Args{"npc_id": npc.ID.String(), "player_id": player.ID.String()})
	requireOK(t, resp)
	assert.Equal(t, true, resp["exists"])
	assert.Equal(t, world.MinTrust, resp["trust_level"])
}

func TestAdjustCurrency(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		player = world.NewPlayer("Mara")
		player.Currency = 10
		require.NoError(t, uow.Players().Create(ctx, player))
	})
	owner := player.ID.String()

	resp := call(t, d, "adjust_currency", tools.Args{"owner_id": owner, "amount": 15})
	requireOK(t, resp)
	assert.Equal(t, 25, resp["new_currency"])

	assertFails(t, call(t, d, "adjust_currency", tools.Args{"owner_id": owner, "amount": -26}), world.CodeInsufficientFunds)
	assertFails(t, call(t, d, "adjust_currency", tools.Args{"owner_id": owner, "amount": int64(math.MaxInt64)}),
		world.CodeInvalidInput)
	assertFails(t, call(t, d, "adjust_currency", tools.Args{"owner_id": owner, "amount": 1e300}), world.CodeInvalidInput)

	resp = call(t, d, "get_player", tools.Args{"player_id": owner})
	requireOK(t, resp)
	p, ok := resp["player"].(*world.Player)
	require.True(t, ok, "player is %T", resp["player"])
	assert.Equal(t, 25, p.Currency, "failed debit leaves the balance unchanged")

	assertFails(t, call(t, d, "adjust_currency", tools.Args{"owner_id": owner, "owner_type": "ghost", "amount": 1}),
		world.CodeInvalidInput)
}

func TestTransferItem(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	var merchant *world.NPC
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		player = world.NewPlayer("Mara")
		player.Currency = 40
		require.NoError(t, uow.Players().Create(ctx, player))
		merchant = world.NewNPC("Tamsin", world.TierMinor)
		require.NoError(t, merchant.Inventory.Add(world.Item{
			ID: "sword", Name: "Sword", Type: world.ItemTypeWeapon, Value: 15, Stackable: true, Quantity: 2,
		}))
		require.NoError(t, merchant.Inventory.Add(world.Item{
			ID: "crown", Name: "Crown", Type: world.ItemTypeMisc, Value: 500, Quantity: 1,
		}))
		require.NoError(t, merchant.Inventory.Add(world.Item{
			ID: "ingot", Name: "Ingot", Type: world.ItemTypeMisc, Value: tools.MaxIntArg, Stackable: true, Quantity: 2,
		}))
		require.NoError(t, merchant.Inventory.Add(world.Item{
			ID: "relic", Name: "Relic", Type: world.ItemTypeMisc, Value: math.MaxInt, Stackable: true, Quantity: 2,
		}))
		require.NoError(t, uow.NPCs().Create(ctx, merchant))
	})

	buy := func(itemID string, qty int) tools.Args {
		return tools.Args{
			"from_id": merchant.ID.String(), "from_type": tools.OwnerNPC,
			"to_id": player.ID.String(), "to_type": tools.OwnerPlayer,
			"item_id": itemID, "quantity": qty, "is_purchase": true,
		}
	}

	resp := call(t, d, "transfer_item", buy("sword", 2))
	requireOK(t, resp)
	assert.Equal(t, "sword", resp["item_id"])
	assert.Equal(t, 2, resp["quantity"])
	assert.Equal(t, 30, resp["cost"])

	assertFails(t, call(t, d, "transfer_item", buy("sword", 1)), world.CodeItemNotFound)
	assertFails(t, call(t, d, "transfer_item", buy("crown", 1)), world.CodeInsufficientFunds)
	assertFails(t, call(t, d, "transfer_item", buy("ingot", 2)), world.CodeInvalidInput)
	assertFails(t, call(t, d, "transfer_item", buy("relic", 2)), world.CodeInvalidInput)

	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		p, err := uow.Players().Get(ctx, player.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, p.Currency)
		assert.Equal(t, 2, p.Inventory.Count("sword"))
		assert.Zero(t, p.Inventory.Count("crown"))

		n, err := uow.NPCs().Get(ctx, merchant.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, n.Currency)
		assert.Zero(t, n.Inventory.Count("sword"))
		assert.Equal(t, 1, n.Inventory.Count("crown"), "failed purchase keeps the item with the seller")
		assert.Equal(t, 2, n.Inventory.Count("ingot"), "oversized purchase keeps the item with the seller")
		assert.Equal(t, 2, n.Inventory.Count("relic"))
	})

	same := buy("sword", 1)
	same["from_id"], same["from_type"] = player.ID.String(), tools.OwnerPlayer
	assertFails(t, call(t, d, "transfer_item", same), world.CodeInvalidInput)
}

func TestUseItem(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		player = world.NewPlayer("Mara")
		player.HealthStatus = world.HealthCritical
		require.NoError(t, player.Inventory.Add(world.Item{
			ID: "health_potion", Name: "Health Potion", Type: world.ItemTypeConsumable,
			Value: 5, Stackable: true, Quantity: 1, Effects: map[string]int{"heal": 40},
		}))
		require.NoError(t, uow.Players().Create(ctx, player))
	})
	args := tools.Args{"user_id": player.ID.String(), "item_id": "health_potion"}

	resp := call(t, d, "use_item", args)
	requireOK(t, resp)
	assert.Equal(t, "Health Potion", resp["item_used"])
	assert.Equal(t, 0, resp["remaining"])

	assertFails(t, call(t, d, "use_item", args), world.CodeItemNotFound)
}

func TestAdvanceTime(t *testing.T) {
	d, s := newDispatcher(t)
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		require.NoError(t, uow.Clock().Save(ctx, &world.WorldClock{Day: 1, Hour: 20}))
	})

	resp := call(t, d, "advance_time", tools.Args{"hours": 6})
	requireOK(t, resp)
	assert.Equal(t, 2, resp["day"])
	assert.Equal(t, 2, resp["hour"])
	assert.Equal(t, world.Night, resp["time_of_day"])

	resp = call(t, d, "get_world_clock", nil)
	requireOK(t, resp)
	assert.Equal(t, 2, resp["day"])

	assertFails(t, call(t, d, "advance_time", tools.Args{"hours": -1}), world.CodeInvalidInput)
	assertFails(t, call(t, d, "advance_time", nil), world.CodeMissingRequired)
}

func TestQuestLifecycle(t *testing.T) {
	d, s := newDispatcher(t)
	var player *world.Player
	var guild *world.Faction
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		player = world.NewPlayer("Mara")
		require.NoError(t, uow.Players().Create(ctx, player))
		guild = world.NewFaction("Guild")
		require.NoError(t, uow.Factions().Create(ctx, guild))
	})

	resp := call(t, d, "create_quest", tools.Args{
		"title":      "Find the key",
		"objectives": []any{"search the cellar", "ask the innkeeper"},
		"rewards": map[string]any{
			"currency":   25,
			"reputation": map[string]any{guild.ID.String(): 10},
		},
	})
	requireOK(t, resp)
	assert.Equal(t, "Find the key", resp["title"])
	assert.Equal(t, world.QuestNotStarted, resp["status"])
	questID := resp["id"].(ulid.ULID).String()

	resp = call(t, d, "update_quest_status", tools.Args{"quest_id": questID, "status": "active"})
	requireOK(t, resp)
	assert.Equal(t, world.QuestActive, resp["status"])
	assert.Equal(t, world.QuestNotStarted, resp["previous_status"])

	assertFails(t, call(t, d, "activate_quest", tools.Args{"quest_id": questID}), world.CodeInvalidState)
	assertFails(t, call(t, d, "update_quest_status", tools.Args{"quest_id": questID, "status": "abandoned"}),
		world.CodeInvalidInput)

	requireOK(t, call(t, d, "assign_quest", tools.Args{"quest_id": questID, "player_id": player.ID.String()}))

	resp = call(t, d, "complete_quest", tools.Args{"quest_id": questID, "player_id": player.ID.String()})
	requireOK(t, resp)
	assert.Equal(t, world.QuestCompleted, resp["status"])

	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		p, err := uow.Players().Get(ctx, player.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, p.Currency)
		assert.Equal(t, world.DefaultReputation+10, p.Reputation.Score(guild.ID))
		assert.Empty(t, p.ActiveQuests)
		assert.Len(t, p.CompletedQuests, 1)
	})

	resp = call(t, d, "delete_quest", tools.Args{"quest_id": questID})
	requireOK(t, resp)
	assertFails(t, call(t, d, "get_quest", tools.Args{"quest_id": questID}), world.CodeQuestNotFound)
	assertFails(t, call(t, d, "update_quest_status", tools.Args{"quest_id": questID, "status": "failed"}),
		world.CodeQuestNotFound)
	assertFails(t, call(t, d, "delete_quest", tools.Args{"quest_id": questID}), world.CodeQuestNotFound)
}

func TestLocationAuthoring(t *testing.T) {
	d, _ := newDispatcher(t)

	resp := call(t, d, "add_location", tools.Args{"name": "Valeria"})
	requireOK(t, resp)
	assert.Equal(t, world.LevelRoot, resp["type"])
	rootID := resp["id"].(ulid.ULID).String()

	resp = call(t, d, "add_location", tools.Args{"name": "Port Town", "parent_id": rootID, "x": 40, "y": 60})
	requireOK(t, resp)
	assert.Equal(t, world.ChildLevel(world.LevelRoot), resp["type"])
	assert.NotNil(t, resp["connection_id"])
	townID := resp["id"].(ulid.ULID).String()

	resp = call(t, d, "expand_location", tools.Args{"parent_id": townID, "name": "Lighthouse"})
	requireOK(t, resp)
	assert.InDelta(t, world.HierarchyTravelHours, resp["travel_time_hours"], 0.001)

	resp = call(t, d, "get_location_children", tools.Args{"parent_id": townID})
	requireOK(t, resp)

	assertFails(t, call(t, d, "delete_location", tools.Args{"location_id": townID}), world.CodeInvalidState)
	assertFails(t, call(t, d, "add_location", tools.Args{"name": "Bad", "x": 400}), world.CodeInvalidInput)

	resp = call(t, d, "validate_world", nil)
	requireOK(t, resp)
	assert.Equal(t, true, resp["valid"])
}

func TestFactionRelationshipUpsert(t *testing.T) {
	d, s := newDispatcher(t)
	var a, b *world.Faction
	seed(t, s, func(ctx context.Context, uow world.UnitOfWork) {
		a = world.NewFaction("Crown")
		b = world.NewFaction("Guild")
		require.NoError(t, uow.Factions().Create(ctx, a))
		require.NoError(t, uow.Factions().Create(ctx, b))
	})

	resp := call(t, d, "create_faction_relationship", tools.Args{
		"faction_a_id": a.ID.String(), "faction_b_id": b.ID.String(), "relationship_type": "rival",
	})
	requireOK(t, resp)
	assert.Equal(t, true, resp["created"])
	first := resp["id"]

	resp = call(t, d, "create_faction_relationship", tools.Args{
		"faction_a_id": b.ID.String(), "faction_b_id": a.ID.String(), "relationship_type": "war", "stability": 500,
	})
	requireOK(t, resp)
	assert.Equal(t, false, resp["created"])
	assert.Equal(t, first, resp["id"])
	assert.Equal(t, world.RelationWar, resp["relationship_type"])
	assert.Equal(t, world.MaxStability, resp["stability"])
}
