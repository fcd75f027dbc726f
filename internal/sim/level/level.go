// Package level loads a world definition from YAML: a terrain picture, the
// cast of characters, loose items and tile features. The engine never
// constructs worlds itself; this package is the builder the server and the
// replay tool share.
package level

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gridfall.ai/internal/sim/world"
)

type Level struct {
	Name   string            `yaml:"name"`
	Legend map[string]string `yaml:"legend,omitempty"`

	// Terrain rows, top to bottom; every row must be the same width.
	Terrain []string `yaml:"terrain"`

	MaxTalkDistance int `yaml:"max_talk_distance,omitempty"`
	LOSRange        int `yaml:"los_range,omitempty"`

	Rooms      []RoomSpec      `yaml:"rooms,omitempty"`
	Characters []CharacterSpec `yaml:"characters,omitempty"`
	Features   []FeatureSpec   `yaml:"features,omitempty"`
	Items      []PlacedItem    `yaml:"items,omitempty"`
}

type RoomSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Min  [2]int `yaml:"min"`
	Max  [2]int `yaml:"max"`
}

type CharacterSpec struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Gender string `yaml:"gender,omitempty"`
	Pos    [2]int `yaml:"pos"`

	HP            int `yaml:"hp,omitempty"`
	MaxHP         int `yaml:"max_hp,omitempty"`
	MovementRange int `yaml:"movement_range,omitempty"`
	ViewDistance  int `yaml:"view_distance,omitempty"`

	Personality     string `yaml:"personality,omitempty"`
	Model           string `yaml:"model,omitempty"`
	ReasoningEffort string `yaml:"reasoning_effort,omitempty"`

	Items    []ItemSpec `yaml:"items,omitempty"`
	Equipped string     `yaml:"equipped,omitempty"` // item id to equip at start
}

type ItemSpec struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Damage int    `yaml:"damage,omitempty"`
	Armor  int    `yaml:"armor,omitempty"`

	UseEffect        *EffectActionSpec `yaml:"use_effect,omitempty"`
	TrapEffect       *EffectSpec       `yaml:"trap_effect,omitempty"`
	UnlocksFeatureID string            `yaml:"unlocks_feature_id,omitempty"`
}

type EffectSpec struct {
	ID               string        `yaml:"id"`
	Name             string        `yaml:"name"`
	Duration         int           `yaml:"duration"`
	PreventsMovement bool          `yaml:"prevents_movement,omitempty"`
	Triggers         []TriggerSpec `yaml:"triggers,omitempty"`
}

type TriggerSpec struct {
	Point   string             `yaml:"point"`
	Actions []EffectActionSpec `yaml:"actions"`
}

type EffectActionSpec struct {
	Kind   string      `yaml:"kind"`
	Amount int         `yaml:"amount,omitempty"`
	Stat   string      `yaml:"stat,omitempty"`
	Op     string      `yaml:"op,omitempty"`
	Value  float64     `yaml:"value,omitempty"`
	Text   string      `yaml:"text,omitempty"`
	Prompt string      `yaml:"prompt,omitempty"`
	Effect *EffectSpec `yaml:"effect,omitempty"`
}

type FeatureSpec struct {
	Pos  [2]int `yaml:"pos"`
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`

	Locked bool   `yaml:"locked,omitempty"`
	Open   bool   `yaml:"open,omitempty"`
	KeyID  string `yaml:"key_id,omitempty"`

	Items []ItemSpec `yaml:"items,omitempty"`
}

type PlacedItem struct {
	Pos  [2]int   `yaml:"pos"`
	Item ItemSpec `yaml:"item"`
}

var defaultLegend = map[string]world.Terrain{
	".": world.TerrainGround,
	"#": world.TerrainWall,
	",": world.TerrainGrass,
	"=": world.TerrainBars,
	"~": world.TerrainWater,
	"+": world.TerrainDoor,
}

func Load(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lv Level
	if err := yaml.Unmarshal(raw, &lv); err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	if len(lv.Terrain) == 0 {
		return nil, fmt.Errorf("level %s: no terrain rows", path)
	}
	width := len([]rune(lv.Terrain[0]))
	for i, row := range lv.Terrain {
		if len([]rune(row)) != width {
			return nil, fmt.Errorf("level %s: row %d has width %d, want %d", path, i, len([]rune(row)), width)
		}
	}
	return &lv, nil
}

// Build constructs the starting world. The dimensions come from the terrain
// picture; the level's own talk distance and LOS range, when set, override
// whatever the caller's config carries, so a level can pin its acoustics
// while deployment tuning fills the rest.
func (lv *Level) Build(cfg world.Config) (*world.World, error) {
	cfg.Height = len(lv.Terrain)
	cfg.Width = len([]rune(lv.Terrain[0]))
	if lv.MaxTalkDistance != 0 {
		cfg.MaxTalkDistance = lv.MaxTalkDistance
	}
	if lv.LOSRange != 0 {
		cfg.LOSRange = lv.LOSRange
	}
	w, err := world.New(cfg)
	if err != nil {
		return nil, err
	}

	legend := map[string]world.Terrain{}
	for k, v := range defaultLegend {
		legend[k] = v
	}
	for k, v := range lv.Legend {
		legend[k] = world.Terrain(v)
	}
	for y, row := range lv.Terrain {
		for x, r := range []rune(row) {
			terr, okSym := legend[string(r)]
			if !okSym {
				return nil, fmt.Errorf("level %s: unknown terrain symbol %q at %d,%d", lv.Name, string(r), x, y)
			}
			w.Tiles[y][x].Terrain = terr
		}
	}

	for _, rs := range lv.Rooms {
		room := world.Room{
			ID: rs.ID, Name: rs.Name,
			Min: world.Vec2{X: rs.Min[0], Y: rs.Min[1]},
			Max: world.Vec2{X: rs.Max[0], Y: rs.Max[1]},
		}
		w.Rooms = append(w.Rooms, room)
		for y := room.Min.Y; y <= room.Max.Y; y++ {
			for x := room.Min.X; x <= room.Max.X; x++ {
				if t := w.TileAt(world.Vec2{X: x, Y: y}); t != nil {
					t.RoomID = room.ID
				}
			}
		}
	}

	for _, fs := range lv.Features {
		p := world.Vec2{X: fs.Pos[0], Y: fs.Pos[1]}
		t := w.TileAt(p)
		if t == nil {
			return nil, fmt.Errorf("level %s: feature %s out of bounds at %v", lv.Name, fs.ID, fs.Pos)
		}
		if t.Feature != nil {
			return nil, fmt.Errorf("level %s: two features on tile %v", lv.Name, fs.Pos)
		}
		f := &world.Feature{
			ID:     fs.ID,
			Kind:   world.FeatureKind(fs.Kind),
			Locked: fs.Locked,
			Open:   fs.Open,
			KeyID:  fs.KeyID,
		}
		for _, is := range fs.Items {
			f.Items = append(f.Items, is.toItem())
		}
		t.Feature = f
	}

	for _, pi := range lv.Items {
		p := world.Vec2{X: pi.Pos[0], Y: pi.Pos[1]}
		t := w.TileAt(p)
		if t == nil {
			return nil, fmt.Errorf("level %s: item %s out of bounds at %v", lv.Name, pi.Item.ID, pi.Pos)
		}
		t.Items = append(t.Items, pi.Item.toItem())
	}

	for _, cs := range lv.Characters {
		c := &world.Character{
			ID:              cs.ID,
			Name:            cs.Name,
			Gender:          cs.Gender,
			Pos:             world.Vec2{X: cs.Pos[0], Y: cs.Pos[1]},
			HP:              cs.HP,
			MaxHP:           cs.MaxHP,
			MovementRange:   cs.MovementRange,
			ViewDistance:    cs.ViewDistance,
			Personality:     cs.Personality,
			Model:           cs.Model,
			ReasoningEffort: cs.ReasoningEffort,
		}
		for _, is := range cs.Items {
			c.Inventory = append(c.Inventory, is.toItem())
		}
		if err := w.AddCharacter(c); err != nil {
			return nil, fmt.Errorf("level %s: %w", lv.Name, err)
		}
		if cs.Equipped != "" {
			it := c.InventoryItem(cs.Equipped)
			if it == nil {
				return nil, fmt.Errorf("level %s: %s equips unknown item %q", lv.Name, cs.ID, cs.Equipped)
			}
			switch it.Kind {
			case world.ItemWeapon:
				c.EquippedWeaponID = it.ID
			case world.ItemClothing:
				c.EquippedClothingID = it.ID
			default:
				return nil, fmt.Errorf("level %s: %s cannot equip %q", lv.Name, cs.ID, cs.Equipped)
			}
		}
	}
	return w, nil
}

func (is ItemSpec) toItem() *world.Item {
	it := &world.Item{
		ID:               is.ID,
		Name:             is.Name,
		Kind:             world.ItemKind(is.Kind),
		Damage:           is.Damage,
		Armor:            is.Armor,
		UnlocksFeatureID: is.UnlocksFeatureID,
	}
	if is.UseEffect != nil {
		ea := is.UseEffect.toAction()
		it.UseEffect = &ea
	}
	if is.TrapEffect != nil {
		it.TrapEffect = is.TrapEffect.toEffect()
	}
	return it
}

func (es *EffectSpec) toEffect() *world.Effect {
	if es == nil {
		return nil
	}
	e := &world.Effect{
		ID:               es.ID,
		Name:             es.Name,
		Duration:         es.Duration,
		PreventsMovement: es.PreventsMovement,
	}
	for _, ts := range es.Triggers {
		tr := world.EffectTrigger{Point: world.TriggerPoint(ts.Point)}
		for _, as := range ts.Actions {
			tr.Actions = append(tr.Actions, as.toAction())
		}
		e.Triggers = append(e.Triggers, tr)
	}
	return e
}

func (as EffectActionSpec) toAction() world.EffectAction {
	return world.EffectAction{
		Kind:   world.EffectActionKind(as.Kind),
		Amount: as.Amount,
		Stat:   as.Stat,
		Op:     as.Op,
		Value:  as.Value,
		Text:   as.Text,
		Prompt: as.Prompt,
		Effect: as.Effect.toEffect(),
	}
}
