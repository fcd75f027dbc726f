package world

import (
	"strings"
	"testing"
)

func arena(t *testing.T) (*World, *Character, *Character) {
	t.Helper()
	w := buildWorld(t,
		".....",
		".....",
		".....",
	)
	atk := addChar(t, w, "attacker", Vec2{1, 1})
	def := addChar(t, w, "defender", Vec2{2, 1})
	return w, atk, def
}

func TestAttack_CriticalMiss(t *testing.T) {
	w, atk, def := arena(t)
	w.SetRoller(&FixedRoller{Rolls: []int{1}})

	res := mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if def.HP != def.MaxHP {
		t.Fatalf("defender hp = %d, want untouched", def.HP)
	}
	if !strings.Contains(res.Message, "critically missed") {
		t.Fatalf("message = %q, want a critical miss", res.Message)
	}
}

func TestAttack_Miss(t *testing.T) {
	w, atk, def := arena(t)
	w.SetRoller(&FixedRoller{Rolls: []int{7}})

	res := mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if def.HP != def.MaxHP {
		t.Fatalf("defender hp = %d, want untouched", def.HP)
	}
	if !strings.Contains(res.Message, "missed") || strings.Contains(res.Message, "critically") {
		t.Fatalf("message = %q, want a plain miss", res.Message)
	}
}

func TestAttack_HitUsesWeaponDamage(t *testing.T) {
	w, atk, def := arena(t)
	atk.Inventory = append(atk.Inventory, &Item{ID: "it_sword", Name: "Sword", Kind: ItemWeapon, Damage: 3})
	atk.EquippedWeaponID = "it_sword"
	w.SetRoller(&FixedRoller{Rolls: []int{8}})

	mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if got := def.MaxHP - def.HP; got != 3 {
		t.Fatalf("damage = %d, want 3", got)
	}
}

func TestAttack_UnarmedDealsOne(t *testing.T) {
	w, atk, def := arena(t)
	w.SetRoller(&FixedRoller{Rolls: []int{19}})

	mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if got := def.MaxHP - def.HP; got != 1 {
		t.Fatalf("unarmed damage = %d, want 1", got)
	}
}

func TestAttack_UnequippedWeaponDoesNotCount(t *testing.T) {
	w, atk, def := arena(t)
	atk.Inventory = append(atk.Inventory, &Item{ID: "it_axe", Name: "Axe", Kind: ItemWeapon, Damage: 5})
	w.SetRoller(&FixedRoller{Rolls: []int{10}})

	mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if got := def.MaxHP - def.HP; got != 1 {
		t.Fatalf("damage = %d, want unarmed 1 while the axe sits in the pack", got)
	}
}

func TestAttack_CriticalDoublesBeforeModifiers(t *testing.T) {
	w, atk, def := arena(t)
	atk.Inventory = append(atk.Inventory, &Item{ID: "it_sword", Name: "Sword", Kind: ItemWeapon, Damage: 3})
	atk.EquippedWeaponID = "it_sword"
	w.ApplyEffect(atk, &Effect{
		ID: "eff_str", Name: "Strength",
		Triggers: []EffectTrigger{{
			Point:   TriggerOnAttack,
			Actions: []EffectAction{{Kind: EffectModifyStat, Stat: "attack", Op: StatOpAdd, Value: 2}},
		}},
	})
	w.SetRoller(&FixedRoller{Rolls: []int{20}})

	res := mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	// (3*2 + 2) * 1 = 8: the doubling applies to the base, the bonus after.
	if got := def.MaxHP - def.HP; got != 8 {
		t.Fatalf("critical damage = %d, want 8", got)
	}
	if !strings.Contains(res.Message, "critically hit") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestAttack_ModifierFloorsButHitsForAtLeastOne(t *testing.T) {
	w, atk, def := arena(t)
	w.ApplyEffect(atk, &Effect{
		ID: "eff_weak", Name: "Weakness",
		Triggers: []EffectTrigger{{
			Point:   TriggerOnAttack,
			Actions: []EffectAction{{Kind: EffectModifyStat, Stat: "attack", Op: StatOpMultiply, Value: 0.25}},
		}},
	})
	w.SetRoller(&FixedRoller{Rolls: []int{10}})

	mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if got := def.MaxHP - def.HP; got != 1 {
		t.Fatalf("damage = %d, want floored-then-clamped 1", got)
	}
}

func TestAttack_KillDropsInventory(t *testing.T) {
	w, atk, def := arena(t)
	def.HP = 2
	def.Inventory = append(def.Inventory, &Item{ID: "it_coin", Name: "Coin", Kind: ItemMisc})
	def.Inventory = append(def.Inventory, &Item{ID: "it_knife", Name: "Knife", Kind: ItemWeapon, Damage: 1})
	def.EquippedWeaponID = "it_knife"
	atk.Inventory = append(atk.Inventory, &Item{ID: "it_sword", Name: "Sword", Kind: ItemWeapon, Damage: 3})
	atk.EquippedWeaponID = "it_sword"
	w.SetRoller(&FixedRoller{Rolls: []int{10}})

	deathPos := def.Pos
	mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	if def.Alive {
		t.Fatal("defender should be dead")
	}
	if len(def.Inventory) != 0 || def.EquippedWeaponID != "" {
		t.Fatal("death should clear inventory and equipment")
	}
	if got := len(w.TileAt(deathPos).Items); got != 2 {
		t.Fatalf("dropped items = %d, want 2", got)
	}
	if w.CharacterAt(deathPos) != nil {
		t.Fatal("corpse should not occupy the tile")
	}
}

func TestAttack_RangeAndTargetChecks(t *testing.T) {
	w, atk, def := arena(t)
	def.Pos = Vec2{4, 1}
	mustFail(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}), "E_OUT_OF_RANGE")

	def.Pos = Vec2{2, 1}
	def.Alive = false
	mustFail(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}), "E_FORBIDDEN")

	mustFail(t, ExecuteAction(w, atk, AttackAction{TargetID: "nobody"}), "E_INVALID_TARGET")
	mustFail(t, ExecuteAction(w, atk, AttackAction{TargetID: atk.ID}), "E_INVALID_TARGET")
}

func TestAttack_OnDamagedTriggersOnlyWhenHurt(t *testing.T) {
	w, atk, def := arena(t)
	w.ApplyEffect(def, &Effect{
		ID: "eff_thorns", Name: "Thorns",
		Triggers: []EffectTrigger{{
			Point:   TriggerOnDamaged,
			Actions: []EffectAction{{Kind: EffectMessage, Text: "thorns flare"}},
		}},
	})

	w.SetRoller(&FixedRoller{Rolls: []int{5}})
	res := mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	for _, ev := range res.Events {
		if ev.Message == "thorns flare" {
			t.Fatal("on_damaged fired on a miss")
		}
	}

	w.SetRoller(&FixedRoller{Rolls: []int{10}})
	res = mustOK(t, ExecuteAction(w, atk, AttackAction{TargetID: def.ID}))
	found := false
	for _, ev := range res.Events {
		if ev.Message == "thorns flare" {
			found = true
		}
	}
	if !found {
		t.Fatal("on_damaged did not fire on a hit")
	}
}
