// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"

	"github.com/samber/oops"
)

// ItemType classifies an item template.
type ItemType string

// Item types.
const (
	ItemTypeConsumable ItemType = "consumable"
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeArmor      ItemType = "armor"
	ItemTypeQuestItem  ItemType = "quest_item"
	ItemTypeMisc       ItemType = "misc"
)

// IsValid reports whether t is a known item type.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeConsumable, ItemTypeWeapon, ItemTypeArmor, ItemTypeQuestItem, ItemTypeMisc:
		return true
	}
	return false
}

// MaxInventorySlots bounds the number of distinct stacks an inventory holds.
const MaxInventorySlots = 50

// Item is a value object stored inside player and NPC inventories.
// ID names the item template (e.g. "health_potion"), not a database row.
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        ItemType       `json:"type"`
	Value       int            `json:"value"`
	Description string         `json:"description"`
	Effects     map[string]int `json:"effects,omitempty"`
	Stackable   bool           `json:"stackable"`
	Quantity    int            `json:"quantity"`
}

// Validate checks the item's invariants.
func (i Item) Validate() error {
	if err := ValidateIdentifier("item.id", i.ID); err != nil {
		return err
	}
	if err := validateNameField("item.name", i.Name); err != nil {
		return err
	}
	if !i.Type.IsValid() {
		return &ValidationError{Field: "item.type", Message: fmt.Sprintf("unknown item type %q", i.Type)}
	}
	if i.Value < 0 {
		return &ValidationError{Field: "item.value", Message: "cannot be negative"}
	}
	if i.Quantity < 0 {
		return &ValidationError{Field: "item.quantity", Message: "cannot be negative"}
	}
	if len(i.Effects) > MaxEffectKeys {
		return &ValidationError{Field: "item.effects", Message: fmt.Sprintf("exceeds maximum key count of %d", MaxEffectKeys)}
	}
	for k := range i.Effects {
		if !isValidIdentifier(k) {
			return &ValidationError{Field: "item.effects", Message: fmt.Sprintf("key %q is not a valid identifier", k)}
		}
	}
	return validateTextField("item.description", i.Description)
}

// WithQuantity returns a copy of the item carrying qty units.
func (i Item) WithQuantity(qty int) Item {
	c := i
	c.Quantity = qty
	if i.Effects != nil {
		c.Effects = make(map[string]int, len(i.Effects))
		for k, v := range i.Effects {
			c.Effects[k] = v
		}
	}
	return c
}

// Inventory is an ordered list of item stacks.
type Inventory []Item

// Find returns the index of the first stack with the given template id, or -1.
func (inv Inventory) Find(id string) int {
	for idx, it := range inv {
		if it.ID == id {
			return idx
		}
	}
	return -1
}

// Count returns the total quantity held for a template id.
func (inv Inventory) Count(id string) int {
	total := 0
	for _, it := range inv {
		if it.ID == id {
			total += it.Quantity
		}
	}
	return total
}

// Add places item into the inventory. Stackable items merge into an existing
// stack with the same id; anything else occupies a new slot.
func (inv *Inventory) Add(item Item) error {
	if err := item.Validate(); err != nil {
		return FromValidation(err)
	}
	if item.Stackable {
		for idx := range *inv {
			if (*inv)[idx].ID == item.ID && (*inv)[idx].Stackable {
				(*inv)[idx].Quantity += item.Quantity
				return nil
			}
		}
	}
	if len(*inv) >= MaxInventorySlots {
		return oops.Code(CodeInventoryFull).With("slots", MaxInventorySlots).
			Wrapf(ErrInventoryFull, "inventory already holds %d stacks", MaxInventorySlots)
	}
	*inv = append(*inv, item)
	return nil
}

// Remove takes qty units of the template id out of the inventory and returns
// the removed stack. Stacks that reach zero are dropped.
func (inv *Inventory) Remove(id string, qty int) (Item, error) {
	if qty <= 0 {
		return Item{}, InvalidInput("quantity must be positive, got %d", qty)
	}
	idx := inv.Find(id)
	if idx < 0 {
		return Item{}, oops.Code(CodeItemNotFound).With("item_id", id).
			Wrapf(ErrNotFound, "item %s not in inventory", id)
	}
	stack := (*inv)[idx]
	if stack.Quantity < qty {
		return Item{}, oops.Code(CodeInsufficientQuantity).
			With("item_id", id).With("held", stack.Quantity).With("requested", qty).
			Wrapf(ErrInsufficientQuantity, "not enough %s: have %d, need %d", id, stack.Quantity, qty)
	}
	(*inv)[idx].Quantity -= qty
	if (*inv)[idx].Quantity <= 0 {
		*inv = append((*inv)[:idx], (*inv)[idx+1:]...)
	}
	return stack.WithQuantity(qty), nil
}

// Clone returns an independent copy of the inventory.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for i, it := range inv {
		out[i] = it.WithQuantity(it.Quantity)
	}
	return out
}
