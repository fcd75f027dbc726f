package world

import (
	"fmt"
	"strings"

	"gridfall.ai/internal/protocol"
)

func (w *World) execSearchContainer(c *Character, a SearchContainerAction) ActionResult {
	if a.FeatureID == "" {
		return fail(protocol.ErrBadRequest, "missing feature id")
	}
	f, pos := w.FeatureNear(c, a.FeatureID)
	if f == nil || f.Kind != FeatureChest {
		return fail(protocol.ErrInvalidTarget, "no such container nearby")
	}
	if f.Searched {
		return fail(protocol.ErrConflict, "the container was already searched")
	}
	f.Searched = true
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		Pos:         &pos,
		Description: fmt.Sprintf("%s searched the chest (%d items inside)", c.Name, len(f.Items)),
	}, pos)
	return ok(fmt.Sprintf("%s searched the chest and found %d items", c.Name, len(f.Items)), ev)
}

// pickupSource locates an item by full, case-insensitive name on the
// character's tile or its 8 neighbors: loose items first, then the contents
// of already-searched chests. Unsearched chest contents do not exist for
// this lookup.
func (w *World) pickupSource(c *Character, name string) (*Item, Vec2, func() *Item) {
	tiles := append([]Vec2{c.Pos}, func() []Vec2 {
		n := Neighbors8(c.Pos)
		return n[:]
	}()...)
	for _, p := range tiles {
		t := w.TileAt(p)
		if t == nil {
			continue
		}
		for _, it := range t.Items {
			if it.NameMatches(name) {
				id := it.ID
				return it, p, func() *Item {
					var taken *Item
					t.Items, taken = removeItem(t.Items, id)
					return taken
				}
			}
		}
	}
	for _, p := range tiles {
		t := w.TileAt(p)
		if t == nil || t.Feature == nil || t.Feature.Kind != FeatureChest || !t.Feature.Searched {
			continue
		}
		f := t.Feature
		for _, it := range f.Items {
			if it.NameMatches(name) {
				id := it.ID
				return it, p, func() *Item {
					var taken *Item
					f.Items, taken = removeItem(f.Items, id)
					return taken
				}
			}
		}
	}
	return nil, Vec2{}, nil
}

func (w *World) execPickUp(c *Character, a PickUpAction) ActionResult {
	name := strings.TrimSpace(a.ItemName)
	if name == "" {
		return fail(protocol.ErrBadRequest, "missing item name")
	}
	it, pos, take := w.pickupSource(c, name)
	if it == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no item named %q here", name))
	}
	take()
	c.Inventory = append(c.Inventory, it)
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		ItemID:      it.ID,
		Pos:         &pos,
		Description: fmt.Sprintf("Picked up %s", it.Name),
	}, pos)
	return ok(fmt.Sprintf("%s picked up %s", c.Name, it.Name), ev)
}

func (w *World) execDrop(c *Character, a DropAction) ActionResult {
	it := c.InventoryItem(a.ItemID)
	if it == nil {
		return fail(protocol.ErrInvalidTarget, "no such item in inventory")
	}
	if c.EquippedWeaponID == it.ID {
		c.EquippedWeaponID = ""
	}
	if c.EquippedClothingID == it.ID {
		c.EquippedClothingID = ""
	}
	c.Inventory, _ = removeItem(c.Inventory, it.ID)
	t := w.TileAt(c.Pos)
	t.Items = append(t.Items, it)
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		ItemID:      it.ID,
		Pos:         &c.Pos,
		Description: fmt.Sprintf("%s dropped %s", c.Name, it.Name),
	}, c.Pos)
	return ok(fmt.Sprintf("%s dropped %s", c.Name, it.Name), ev)
}

func (w *World) execEquip(c *Character, a EquipAction) ActionResult {
	it := c.InventoryItem(a.ItemID)
	if it == nil {
		return fail(protocol.ErrInvalidTarget, "no such item in inventory")
	}
	switch it.Kind {
	case ItemWeapon:
		c.EquippedWeaponID = it.ID
	case ItemClothing:
		c.EquippedClothingID = it.ID
	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("%s cannot be equipped", it.Name))
	}
	return ok(fmt.Sprintf("%s equipped %s", c.Name, it.Name))
}

func (w *World) execUnequip(c *Character, a UnequipAction) ActionResult {
	switch a.ItemID {
	case "":
		return fail(protocol.ErrBadRequest, "missing item id")
	case c.EquippedWeaponID:
		it := c.InventoryItem(a.ItemID)
		c.EquippedWeaponID = ""
		return ok(fmt.Sprintf("%s unequipped %s", c.Name, it.Name))
	case c.EquippedClothingID:
		it := c.InventoryItem(a.ItemID)
		c.EquippedClothingID = ""
		return ok(fmt.Sprintf("%s unequipped %s", c.Name, it.Name))
	}
	return fail(protocol.ErrInvalidTarget, "that item is not equipped")
}

func (w *World) execUse(c *Character, a UseAction) ActionResult {
	it := c.InventoryItem(a.ItemID)
	if it == nil {
		return fail(protocol.ErrInvalidTarget, "no such item in inventory")
	}
	if it.UseEffect == nil {
		return fail(protocol.ErrBadRequest, fmt.Sprintf("%s cannot be used", it.Name))
	}
	// Consume before applying: a lethal self-use must not drop the spent
	// consumable with the rest of the inventory.
	if c.EquippedWeaponID == it.ID {
		c.EquippedWeaponID = ""
	}
	if c.EquippedClothingID == it.ID {
		c.EquippedClothingID = ""
	}
	c.Inventory, _ = removeItem(c.Inventory, it.ID)

	var out ProcessOutcome
	source := &Effect{ID: "use:" + it.ID, Name: it.Name}
	w.applyEffectAction(c, source, *it.UseEffect, &out)
	events := append([]*GameEvent{w.appendEvent(GameEvent{
		ActorID:     c.ID,
		ItemID:      it.ID,
		Pos:         &c.Pos,
		Description: fmt.Sprintf("%s used %s", c.Name, it.Name),
	}, c.Pos)}, out.Events...)
	return ok(fmt.Sprintf("%s used %s", c.Name, it.Name), events...)
}

func (w *World) execPlace(c *Character, a PlaceAction) ActionResult {
	it := c.InventoryItem(a.ItemID)
	if it == nil {
		return fail(protocol.ErrInvalidTarget, "no such item in inventory")
	}
	if it.Kind != ItemTrap {
		return fail(protocol.ErrBadRequest, fmt.Sprintf("%s is not a trap", it.Name))
	}
	if a.At == c.Pos {
		return fail(protocol.ErrBadRequest, "a trap must be placed on an adjacent tile, not underfoot")
	}
	if !Adjacent8(c.Pos, a.At) {
		return fail(protocol.ErrOutOfRange, "the target tile is not adjacent")
	}
	t := w.TileAt(a.At)
	if t == nil {
		return fail(protocol.ErrOutOfRange, "the target tile is out of bounds")
	}
	if !t.Terrain.Walkable() {
		return fail(protocol.ErrBlocked, "a trap needs walkable ground")
	}
	if t.Feature != nil {
		return fail(protocol.ErrConflict, "the tile already has a feature")
	}
	c.Inventory, _ = removeItem(c.Inventory, it.ID)
	witnesses := w.WitnessIDs(a.At)
	t.Feature = &Feature{
		ID:         it.ID,
		Kind:       FeatureTrap,
		OwnerID:    c.ID,
		WitnessIDs: witnesses,
		Effect:     it.TrapEffect.Clone(),
	}
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		ItemID:      it.ID,
		Pos:         &a.At,
		Description: fmt.Sprintf("%s placed %s at %d,%d", c.Name, it.Name, a.At.X, a.At.Y),
		WitnessIDs:  witnesses,
	})
	return ok(fmt.Sprintf("%s placed %s at %d,%d", c.Name, it.Name, a.At.X, a.At.Y), ev)
}

func (w *World) execUnlock(c *Character, a UnlockAction) ActionResult {
	if a.FeatureID == "" {
		return fail(protocol.ErrBadRequest, "missing feature id")
	}
	f, pos := w.FeatureNear(c, a.FeatureID)
	if f == nil || f.Kind != FeatureDoor {
		return fail(protocol.ErrInvalidTarget, "no such door nearby")
	}
	if f.Open {
		return fail(protocol.ErrConflict, "the door is already open")
	}
	if !f.Locked {
		return fail(protocol.ErrConflict, "the door is not locked")
	}
	var key *Item
	for _, it := range c.Inventory {
		if it.Kind == ItemKey && it.UnlocksFeatureID == f.ID {
			key = it
			break
		}
	}
	if key == nil {
		return fail(protocol.ErrNoResource, "no key fits this door")
	}
	c.Inventory, _ = removeItem(c.Inventory, key.ID)
	f.Locked = false
	f.Open = true
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		ItemID:      key.ID,
		Pos:         &pos,
		Description: fmt.Sprintf("%s unlocked the door with %s", c.Name, key.Name),
	}, pos)
	// Unlocking is a persistent, structurally visible change: everyone who
	// can see the door learns the new state immediately, a deliberate
	// exception to otherwise character-local memory.
	for _, other := range w.Characters {
		if !other.Alive {
			continue
		}
		if ComputeVisibleSet(w, other.Pos, other.ViewDistance)[pos] {
			w.rememberTile(other, pos)
		}
	}
	return ok(fmt.Sprintf("%s unlocked the door", c.Name), ev)
}
