package world

import (
	"path/filepath"
	"testing"

	"gridfall.ai/internal/persistence/snapshot"
)

// scenarioWorld builds a small world with every kind of state the snapshot
// has to carry: terrain variety, a chest, a placed trap, inventories,
// equipment, effects, map memory, events, a corpse and a contract.
func scenarioWorld(t *testing.T) *World {
	t.Helper()
	w := buildWorld(t,
		"........",
		".#.~....",
		"....=...",
	)
	a := addChar(t, w, "a", Vec2{0, 0})
	b := addChar(t, w, "b", Vec2{5, 0})
	d := addChar(t, w, "d", Vec2{7, 2})
	d.Alive = false
	d.HP = 0

	a.Inventory = append(a.Inventory,
		&Item{ID: "it_knife", Name: "Knife", Kind: ItemWeapon, Damage: 2},
		&Item{ID: "it_trap", Name: "Trap", Kind: ItemTrap, TrapEffect: &Effect{ID: "eff_t", Name: "Snared", Duration: 2, PreventsMovement: true}},
	)
	a.EquippedWeaponID = "it_knife"
	b.Effects = append(b.Effects, &Effect{ID: "eff_p", Name: "Poisoned", Duration: 3, Triggers: []EffectTrigger{{
		Point:   TriggerTurnEnd,
		Actions: []EffectAction{{Kind: EffectDamage, Amount: 1}},
	}}})

	w.TileAt(Vec2{3, 0}).Feature = &Feature{
		ID:       "chest_1",
		Kind:     FeatureChest,
		Searched: true,
		Items:    []*Item{{ID: "it_gem", Name: "Gem", Kind: ItemMisc}},
	}
	w.Rooms = append(w.Rooms, Room{ID: "cell", Name: "Cell", Min: Vec2{0, 0}, Max: Vec2{2, 1}})
	w.Tiles[0][0].RoomID = "cell"

	mustOK(t, ExecuteAction(w, a, PlaceAction{ItemID: "it_trap", At: Vec2{1, 0}}))
	mustOK(t, ExecuteAction(w, a, LookAroundAction{}))
	mustOK(t, ExecuteAction(w, a, TalkAction{TargetID: b.ID, Text: "hold on"}))
	w.AddContract(&BloodContract{ID: "bc_1", IssuerID: a.ID, IssuerName: "a", TargetID: b.ID, TargetName: "b", Contents: "truce", ExpiryTurn: 9, Signed: true})
	w.Turn = 4
	return w
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := scenarioWorld(t)
	want := w.StateDigest()

	path := filepath.Join(t.TempDir(), "snap.json.zst")
	if err := snapshot.Write(path, w.ExportSnapshot("w_test")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	snap, err := snapshot.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Header.Version != 1 || snap.Header.WorldID != "w_test" || snap.Header.Turn != 4 {
		t.Fatalf("header = %+v", snap.Header)
	}
	if snap.Seed != 1 {
		t.Fatalf("seed = %d, want the builder's seed recorded", snap.Seed)
	}

	got, err := ImportSnapshot(snap)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if d := got.StateDigest(); d != want {
		t.Fatalf("digest after round trip = %s, want %s", d, want)
	}

	a := got.Character("a")
	if a.EquippedWeapon() == nil || a.EquippedWeapon().Name != "Knife" {
		t.Fatal("equipment lost")
	}
	if len(a.MapMemory) == 0 {
		t.Fatal("map memory lost")
	}
	if m := a.MapMemory[Vec2{1, 1}]; m.Terrain != TerrainWall {
		t.Fatalf("remembered terrain = %q", m.Terrain)
	}

	d := got.Character("d")
	if d.Alive || d.HP != 0 {
		t.Fatalf("corpse came back: alive=%v hp=%d", d.Alive, d.HP)
	}

	trap := got.TileAt(Vec2{1, 0}).Feature
	if trap == nil || trap.Kind != FeatureTrap || trap.OwnerID != "a" || trap.Effect == nil || !trap.Effect.PreventsMovement {
		t.Fatalf("trap feature = %+v", trap)
	}
	chest := got.TileAt(Vec2{3, 0}).Feature
	if chest == nil || !chest.Searched || len(chest.Items) != 1 {
		t.Fatalf("chest feature = %+v", chest)
	}

	if len(got.ActiveContracts) != 1 || !got.ActiveContracts[0].Signed || got.ActiveContracts[0].Contents != "truce" {
		t.Fatalf("contracts = %+v", got.ActiveContracts)
	}
	if len(got.Events) != len(w.Events) {
		t.Fatalf("events = %d, want %d", len(got.Events), len(w.Events))
	}

	b := got.Character("b")
	if len(b.Effects) != 1 || b.Effects[0].Duration != 3 || len(b.Effects[0].Triggers) != 1 {
		t.Fatalf("effects = %+v", b.Effects)
	}
}

func TestStateDigest_Deterministic(t *testing.T) {
	w1 := scenarioWorld(t)
	w2 := scenarioWorld(t)
	if w1.StateDigest() != w2.StateDigest() {
		t.Fatal("identically built worlds disagree on the digest")
	}
}

func TestStateDigest_SensitiveToChange(t *testing.T) {
	w := scenarioWorld(t)
	before := w.StateDigest()

	c := w.Character("b")
	mustOK(t, ExecuteAction(w, c, MoveAction{To: Vec2{6, 0}}))
	if w.StateDigest() == before {
		t.Fatal("digest unchanged after a move")
	}
}
