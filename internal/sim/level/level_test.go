package level

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridfall.ai/internal/sim/world"
)

func writeLevel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "level.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write level: %v", err)
	}
	return path
}

const sampleLevel = `
name: test-cell
terrain:
  - "########"
  - "#..,,..#"
  - "#.~==..#"
  - "########"
max_talk_distance: 10
rooms:
  - id: cell
    name: The Cell
    min: [1, 1]
    max: [3, 2]
features:
  - pos: [6, 1]
    id: chest_1
    kind: chest
    items:
      - id: it_key
        name: Cell Key
        kind: key
        unlocks_feature_id: door_1
  - pos: [6, 2]
    id: door_1
    kind: door
    locked: true
    key_id: it_key
items:
  - pos: [2, 1]
    item:
      id: it_shiv
      name: Shiv
      kind: weapon
      damage: 2
characters:
  - id: ch_vex
    name: Vex
    pos: [1, 1]
    items:
      - id: it_baton
        name: Baton
        kind: weapon
        damage: 3
      - id: it_smoke
        name: Smoke Bomb
        kind: trap
        trap_effect:
          id: eff_smoke
          name: Smoked
          duration: 2
          prevents_movement: true
          triggers:
            - point: turn_end
              actions:
                - kind: damage
                  amount: 1
    equipped: it_baton
  - id: ch_moss
    name: Moss
    pos: [5, 1]
    hp: 12
    max_hp: 12
`

func TestLoadAndBuild(t *testing.T) {
	lv, err := Load(writeLevel(t, sampleLevel))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w, err := lv.Build(world.Config{Seed: 7})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if w.Width != 8 || w.Height != 4 {
		t.Fatalf("dimensions = %dx%d", w.Width, w.Height)
	}
	if w.MaxTalkDistance() != 10 {
		t.Fatalf("talk distance = %d, want the level override", w.MaxTalkDistance())
	}
	if w.TileAt(world.Vec2{X: 0, Y: 0}).Terrain != world.TerrainWall {
		t.Fatal("wall not mapped")
	}
	if w.TileAt(world.Vec2{X: 2, Y: 2}).Terrain != world.TerrainWater {
		t.Fatal("water not mapped")
	}
	if w.TileAt(world.Vec2{X: 3, Y: 2}).Terrain != world.TerrainBars {
		t.Fatal("bars not mapped")
	}
	if w.TileAt(world.Vec2{X: 2, Y: 1}).RoomID != "cell" {
		t.Fatal("room id not stamped")
	}

	chest := w.TileAt(world.Vec2{X: 6, Y: 1}).Feature
	if chest == nil || chest.Kind != world.FeatureChest || len(chest.Items) != 1 {
		t.Fatalf("chest = %+v", chest)
	}
	if chest.Items[0].UnlocksFeatureID != "door_1" {
		t.Fatal("key binding lost")
	}
	door := w.TileAt(world.Vec2{X: 6, Y: 2}).Feature
	if door == nil || door.Kind != world.FeatureDoor || !door.Locked {
		t.Fatalf("door = %+v", door)
	}

	if items := w.TileAt(world.Vec2{X: 2, Y: 1}).Items; len(items) != 1 || items[0].Name != "Shiv" {
		t.Fatalf("loose items = %+v", items)
	}

	vex := w.Character("ch_vex")
	if vex == nil {
		t.Fatal("vex missing")
	}
	if vex.EquippedWeaponID != "it_baton" {
		t.Fatalf("equipped = %q", vex.EquippedWeaponID)
	}
	if vex.HP != 20 || vex.MovementRange != 5 || vex.ViewDistance != 8 {
		t.Fatalf("defaults not filled: %+v", vex)
	}
	smoke := vex.InventoryItem("it_smoke")
	if smoke == nil || smoke.TrapEffect == nil {
		t.Fatal("trap item lost its effect")
	}
	eff := smoke.TrapEffect
	if eff.Duration != 2 || !eff.PreventsMovement || len(eff.Triggers) != 1 {
		t.Fatalf("trap effect = %+v", eff)
	}
	if tr := eff.Triggers[0]; tr.Point != world.TriggerTurnEnd || tr.Actions[0].Kind != world.EffectDamage {
		t.Fatalf("trap trigger = %+v", eff.Triggers[0])
	}

	moss := w.Character("ch_moss")
	if moss.HP != 12 || moss.MaxHP != 12 {
		t.Fatalf("explicit vitals overridden: %+v", moss)
	}
}

func TestBuild_TunedDefaultsReachCharacters(t *testing.T) {
	lv, err := Load(writeLevel(t, sampleLevel))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w, err := lv.Build(world.Config{
		Seed:                 7,
		MaxTalkDistance:      30,
		DefaultMaxHP:         40,
		DefaultMovementRange: 3,
		DefaultViewDistance:  12,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.MaxTalkDistance() != 10 {
		t.Fatalf("talk distance = %d, level override should beat tuning", w.MaxTalkDistance())
	}
	vex := w.Character("ch_vex")
	if vex.MaxHP != 40 || vex.HP != 40 || vex.MovementRange != 3 || vex.ViewDistance != 12 {
		t.Fatalf("tuned defaults not applied: %+v", vex)
	}
	moss := w.Character("ch_moss")
	if moss.HP != 12 || moss.MaxHP != 12 {
		t.Fatalf("explicit vitals overridden: %+v", moss)
	}
}

func TestLoad_RejectsRaggedRows(t *testing.T) {
	_, err := Load(writeLevel(t, "name: bad\nterrain:\n  - \"####\"\n  - \"##\"\n"))
	if err == nil || !strings.Contains(err.Error(), "width") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_RejectsEmptyTerrain(t *testing.T) {
	_, err := Load(writeLevel(t, "name: empty\n"))
	if err == nil {
		t.Fatal("empty terrain accepted")
	}
}

func TestBuild_RejectsUnknownSymbol(t *testing.T) {
	lv, err := Load(writeLevel(t, "name: bad\nterrain:\n  - \"..X.\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := lv.Build(world.Config{Seed: 1}); err == nil || !strings.Contains(err.Error(), "unknown terrain symbol") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuild_CustomLegendOverridesDefault(t *testing.T) {
	lv, err := Load(writeLevel(t, "name: custom\nlegend:\n  \"X\": wall\nterrain:\n  - \"..X.\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w, err := lv.Build(world.Config{Seed: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.TileAt(world.Vec2{X: 2, Y: 0}).Terrain != world.TerrainWall {
		t.Fatal("custom legend symbol not applied")
	}
}

func TestBuild_RejectsOutOfBoundsFeature(t *testing.T) {
	lv, err := Load(writeLevel(t, "name: bad\nterrain:\n  - \"....\"\nfeatures:\n  - pos: [9, 0]\n    id: f1\n    kind: chest\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := lv.Build(world.Config{Seed: 1}); err == nil || !strings.Contains(err.Error(), "out of bounds") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuild_RejectsUnknownEquip(t *testing.T) {
	body := `
name: bad
terrain:
  - "...."
characters:
  - id: ch_a
    name: A
    pos: [0, 0]
    equipped: it_ghost
`
	lv, err := Load(writeLevel(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := lv.Build(world.Config{Seed: 1}); err == nil || !strings.Contains(err.Error(), "unknown item") {
		t.Fatalf("err = %v", err)
	}
}
