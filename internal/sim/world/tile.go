package world

import "fmt"

// Terrain is the base type of a tile.
type Terrain string

const (
	TerrainGround Terrain = "ground"
	TerrainWall   Terrain = "wall"
	TerrainGrass  Terrain = "grass"
	TerrainBars   Terrain = "bars"  // blocks movement, not vision or talk
	TerrainWater  Terrain = "water" // blocks movement, not vision
	TerrainDoor   Terrain = "door"  // legacy terrain doors; new maps use door features
)

// BlocksVision reports whether the terrain stops a sight line. Only walls do:
// bars and water can be seen across.
func (t Terrain) BlocksVision() bool { return t == TerrainWall }

// Walkable reports whether the terrain itself permits standing on it.
// Features and occupancy are checked separately.
func (t Terrain) Walkable() bool {
	return t == TerrainGround || t == TerrainGrass
}

// FeatureKind tags the tile-feature variant.
type FeatureKind string

const (
	FeatureDoor  FeatureKind = "door"
	FeatureChest FeatureKind = "chest"
	FeatureTrap  FeatureKind = "trap"
)

// Feature is a tile-level structure. At most one per tile; the kind decides
// which field group is meaningful.
type Feature struct {
	ID   string      `json:"id"`
	Kind FeatureKind `json:"kind"`

	// Door.
	Locked bool   `json:"locked,omitempty"`
	Open   bool   `json:"open,omitempty"`
	KeyID  string `json:"key_id,omitempty"`

	// Chest.
	Searched bool    `json:"searched,omitempty"`
	Items    []*Item `json:"items,omitempty"`

	// Trap.
	OwnerID    string   `json:"owner_id,omitempty"`
	WitnessIDs []string `json:"witness_ids,omitempty"`
	Effect     *Effect  `json:"effect,omitempty"`
	Triggered  bool     `json:"triggered,omitempty"`
}

// BlocksMovement reports whether the feature keeps a character off the tile.
// Chests always block; doors block while closed; traps never block.
func (f *Feature) BlocksMovement() bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case FeatureChest:
		return true
	case FeatureDoor:
		return !f.Open
	}
	return false
}

// VisibleTo reports whether the character may perceive this feature at all.
// Traps are hidden from everyone except their owner and the characters who
// witnessed the placement.
func (f *Feature) VisibleTo(characterID string) bool {
	if f == nil {
		return false
	}
	if f.Kind != FeatureTrap {
		return true
	}
	if f.OwnerID == characterID {
		return true
	}
	for _, id := range f.WitnessIDs {
		if id == characterID {
			return true
		}
	}
	return false
}

// Summary is the short feature description stored in map memory.
func (f *Feature) Summary() string {
	switch f.Kind {
	case FeatureDoor:
		switch {
		case f.Open:
			return "open door"
		case f.Locked:
			return "locked door"
		default:
			return "closed door"
		}
	case FeatureChest:
		if f.Searched {
			return fmt.Sprintf("chest (%d items)", len(f.Items))
		}
		return "chest"
	case FeatureTrap:
		return "trap"
	}
	return string(f.Kind)
}

// Tile is one cell of the world grid.
type Tile struct {
	Terrain Terrain  `json:"terrain"`
	Items   []*Item  `json:"items,omitempty"`
	Feature *Feature `json:"feature,omitempty"`
	RoomID  string   `json:"room_id,omitempty"`
}

// Walkable combines the terrain rule and the feature rule. Character
// occupancy is a world-level concern.
func (t *Tile) Walkable() bool {
	return t.Terrain.Walkable() && !t.Feature.BlocksMovement()
}

// Room is a named label region. Display/query only; rooms carry no rules.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Min  Vec2   `json:"min"`
	Max  Vec2   `json:"max"`
}
