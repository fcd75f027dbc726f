package world

// TileMemory is one remembered tile: what the character saw there the last
// time the tile was in view. Never globally synchronized; staleness is the
// point.
type TileMemory struct {
	Terrain      Terrain  `json:"terrain"`
	LastSeenTurn int      `json:"last_seen_turn"`
	Items        []string `json:"items,omitempty"`
	Character    string   `json:"character,omitempty"`
	Feature      string   `json:"feature,omitempty"`
}

type Character struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`

	Pos   Vec2 `json:"pos"`
	HP    int  `json:"hp"`
	MaxHP int  `json:"max_hp"`
	Alive bool `json:"alive"`

	Inventory []*Item `json:"inventory,omitempty"`
	// Equipped slots reference items by id; the item stays in Inventory.
	EquippedWeaponID   string `json:"equipped_weapon_id,omitempty"`
	EquippedClothingID string `json:"equipped_clothing_id,omitempty"`

	MovementRange int `json:"movement_range"`
	ViewDistance  int `json:"view_distance"`

	Effects []*Effect `json:"effects,omitempty"`

	// MapMemory is this character's private, stale-tolerant recollection of
	// previously seen tiles.
	MapMemory map[Vec2]TileMemory `json:"-"`

	// Opaque pass-through for the external decision-maker.
	Personality     string `json:"personality,omitempty"`
	Model           string `json:"model,omitempty"`
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
}

func (c *Character) InventoryItem(id string) *Item {
	for _, it := range c.Inventory {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// EquippedWeapon resolves the weapon slot against the inventory.
func (c *Character) EquippedWeapon() *Item {
	if c.EquippedWeaponID == "" {
		return nil
	}
	return c.InventoryItem(c.EquippedWeaponID)
}

func (c *Character) EquippedClothing() *Item {
	if c.EquippedClothingID == "" {
		return nil
	}
	return c.InventoryItem(c.EquippedClothingID)
}

// MovementPrevented reports whether any active effect pins the character in
// place this turn.
func (c *Character) MovementPrevented() bool {
	for _, e := range c.Effects {
		if e.PreventsMovement {
			return true
		}
	}
	return false
}

func (c *Character) hasEffect(id string) bool {
	for _, e := range c.Effects {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Remember writes one map-memory entry, replacing whatever was there.
func (c *Character) Remember(pos Vec2, m TileMemory) {
	if c.MapMemory == nil {
		c.MapMemory = map[Vec2]TileMemory{}
	}
	c.MapMemory[pos] = m
}
