// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// healPerStep is how many heal points move health one rung.
const healPerStep = 20

func itemTools() []Tool {
	return []Tool{
		write("create_item_template", EntityNone, "", "Validate an item template without storing it", createItemTemplate),
		write("adjust_currency", EntityNone, "", "Credit or debit a player or NPC", adjustCurrency),
		write("transfer_item", EntityNone, "", "Give, trade or sell items between inventories", transferItem),
		write("use_item", EntityNone, "", "Use an item and apply its effects", useItem),
		write("spawn_item", EntityNone, "", "Place new items into an inventory", spawnItem),
	}
}

// itemFromArgs builds an item from the item_data argument, falling back to
// the flat template arguments used by create_item_template.
func itemFromArgs(args Args, qty int) (world.Item, error) {
	item := world.Item{Stackable: true}
	if args.Has("item_data") {
		if _, err := args.Decode("item_data", &item); err != nil {
			return world.Item{}, err
		}
	} else {
		p := newPatch(args)
		p.str("item_id", &item.ID)
		p.str("name", &item.Name)
		var typ string
		p.str("item_type", &typ)
		item.Type = world.ItemType(typ)
		p.integer("value", &item.Value)
		p.str("description", &item.Description)
		p.boolean("stackable", &item.Stackable)
		p.decode("effects", &item.Effects)
		if p.err != nil {
			return world.Item{}, p.err
		}
	}
	item = item.WithQuantity(qty)
	if err := item.Validate(); err != nil {
		return world.Item{}, world.FromValidation(err)
	}
	return item, nil
}

func createItemTemplate(_ context.Context, _ *Env, args Args) (any, error) {
	for _, name := range []string{"item_id", "name", "item_type"} {
		if !args.Has("item_data") && !args.Has(name) {
			return nil, missingArg(name)
		}
	}
	item, err := itemFromArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return result.Response{"item": item}, nil
}

func adjustCurrency(ctx context.Context, env *Env, args Args) (any, error) {
	o, err := loadOwner(ctx, env.UoW, args, "owner_id", "owner_type")
	if err != nil {
		return nil, err
	}
	amount, err := args.Int("amount")
	if err != nil {
		return nil, err
	}
	if err := o.adjustCurrency(amount); err != nil {
		return nil, err
	}
	if err := o.save(ctx, env.UoW); err != nil {
		return nil, err
	}
	return result.Response{"owner_id": o.id(), "new_currency": *o.currency()}, nil
}

func transferItem(ctx context.Context, env *Env, args Args) (any, error) {
	from, err := loadOwner(ctx, env.UoW, args, "from_id", "from_type")
	if err != nil {
		return nil, err
	}
	to, err := loadOwner(ctx, env.UoW, args, "to_id", "to_type")
	if err != nil {
		return nil, err
	}
	if from.same(to) {
		return nil, invalidArg("to_id", "source and destination are the same %s", to.kind)
	}
	itemID, err := args.String("item_id")
	if err != nil {
		return nil, err
	}
	qty, err := args.OptInt("quantity", 1)
	if err != nil {
		return nil, err
	}
	purchase, err := args.OptBool("is_purchase", false)
	if err != nil {
		return nil, err
	}

	moved, err := from.inventory().Remove(itemID, qty)
	if err != nil {
		return nil, err
	}
	cost := 0
	if purchase {
		var ok bool
		if cost, ok = world.MulInt(moved.Value, qty); !ok || cost > MaxIntArg {
			return nil, invalidArg("quantity", "cost of %d x %d exceeds %d", qty, moved.Value, MaxIntArg)
		}
		if err := to.adjustCurrency(-cost); err != nil {
			return nil, err
		}
		if err := from.adjustCurrency(cost); err != nil {
			return nil, err
		}
	}
	if err := to.inventory().Add(moved); err != nil {
		return nil, err
	}
	if err := from.save(ctx, env.UoW); err != nil {
		return nil, err
	}
	if err := to.save(ctx, env.UoW); err != nil {
		return nil, err
	}
	return result.Response{
		"item_id":  itemID,
		"quantity": qty,
		"cost":     cost,
		"from":     from.name(),
		"to":       to.name(),
	}, nil
}

func useItem(ctx context.Context, env *Env, args Args) (any, error) {
	o, err := loadOwner(ctx, env.UoW, args, "user_id", "user_type")
	if err != nil {
		return nil, err
	}
	itemID, err := args.String("item_id")
	if err != nil {
		return nil, err
	}
	inv := o.inventory()
	idx := inv.Find(itemID)
	if idx < 0 {
		return nil, oops.Code(world.CodeItemNotFound).With("item_id", itemID).
			Wrapf(world.ErrNotFound, "item %s not in inventory", itemID)
	}
	item := (*inv)[idx]

	effects := map[string]string{}
	if heal, ok := item.Effects["heal"]; ok && o.player != nil {
		before := o.player.HealthStatus
		o.player.HealthStatus = before.Heal(heal / healPerStep)
		effects["health_restored"] = fmt.Sprintf("%s -> %s", before, o.player.HealthStatus)
	}
	if item.Type == world.ItemTypeConsumable {
		if _, err := inv.Remove(itemID, 1); err != nil {
			return nil, err
		}
	}
	if err := o.save(ctx, env.UoW); err != nil {
		return nil, err
	}
	return result.Response{"item_used": item.Name, "effects": effects, "remaining": inv.Count(itemID)}, nil
}

func spawnItem(ctx context.Context, env *Env, args Args) (any, error) {
	o, err := loadOwner(ctx, env.UoW, args, "user_id", "user_type")
	if err != nil {
		return nil, err
	}
	if !args.Has("item_data") {
		return nil, missingArg("item_data")
	}
	qty, err := args.OptInt("quantity", 1)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, invalidArg("quantity", "must be positive, got %d", qty)
	}
	item, err := itemFromArgs(args, qty)
	if err != nil {
		return nil, err
	}
	if err := o.inventory().Add(item); err != nil {
		return nil, err
	}
	if err := o.save(ctx, env.UoW); err != nil {
		return nil, err
	}
	return result.Response{"item_id": item.ID, "quantity": qty, "held": o.inventory().Count(item.ID)}, nil
}
