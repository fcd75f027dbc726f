package world

import (
	"fmt"
	"math"
)

// d20 bands: 1 critical miss, 2-7 miss, 8-19 hit, 20 critical hit.
const (
	rollCriticalMiss = 1
	rollHitThreshold = 8
	rollCriticalHit  = 20
)

const unarmedDamage = 1

// attackDamage resolves one d20 attack roll into damage dealt. Critical hits
// double the base weapon damage before stat modifiers; every hit deals at
// least 1 after flooring.
func attackDamage(attacker *Character, roll int) (damage int, critical bool) {
	if roll < rollHitThreshold {
		return 0, roll == rollCriticalMiss
	}
	base := unarmedDamage
	if wpn := attacker.EquippedWeapon(); wpn != nil && wpn.Damage > 0 {
		base = wpn.Damage
	}
	if roll == rollCriticalHit {
		base *= 2
		critical = true
	}
	add, mult := EffectStatModifier(attacker, TriggerOnAttack, "attack")
	dmg := int(math.Floor((float64(base) + add) * mult))
	if dmg < 1 {
		dmg = 1
	}
	return dmg, critical
}

// damageCharacter applies raw damage and handles death: on HP <= 0 the
// character's inventory and equipment drop to the tile under it, both are
// cleared, and the character is marked dead but kept in the list.
func (w *World) damageCharacter(c *Character, amount int, attackerID, desc string) ([]*GameEvent, bool) {
	if amount < 0 {
		amount = 0
	}
	c.HP -= amount
	events := []*GameEvent{w.appendEvent(GameEvent{
		ActorID:     attackerID,
		TargetID:    c.ID,
		Pos:         &c.Pos,
		Damage:      amount,
		Description: desc,
	}, c.Pos)}
	if c.HP > 0 {
		return events, false
	}
	events = append(events, w.killCharacter(c, attackerID))
	return events, true
}

func (w *World) killCharacter(c *Character, attackerID string) *GameEvent {
	c.HP = 0
	c.Alive = false
	if t := w.TileAt(c.Pos); t != nil && len(c.Inventory) > 0 {
		t.Items = append(t.Items, c.Inventory...)
	}
	c.Inventory = nil
	c.EquippedWeaponID = ""
	c.EquippedClothingID = ""
	w.logf("character %s died at %d,%d", c.ID, c.Pos.X, c.Pos.Y)
	return w.appendEvent(GameEvent{
		ActorID:     attackerID,
		TargetID:    c.ID,
		Pos:         &c.Pos,
		Description: fmt.Sprintf("%s died", c.Name),
	}, c.Pos)
}
