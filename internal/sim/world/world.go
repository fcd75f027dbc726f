package world

import (
	"fmt"
	"log"
	"strings"
)

// BloodContract is a signed-in-blood agreement between two characters. The
// engine records issuance and signing; expiry enforcement is the
// orchestrator's business.
type BloodContract struct {
	ID         string `json:"id"`
	IssuerID   string `json:"issuer_id"`
	IssuerName string `json:"issuer_name"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Contents   string `json:"contents"`
	ExpiryTurn int    `json:"expiry_turn"`
	Signed     bool   `json:"signed"`
}

type Config struct {
	Width  int
	Height int

	// MaxTalkDistance is the Manhattan radius of speech. Zero means the
	// default of 15.
	MaxTalkDistance int

	// LOSRange is the minimum shadowcast radius used for point line-of-sight
	// queries. Zero means the default of 20.
	LOSRange int

	// Vitals AddCharacter fills in when a character spec leaves them zero.
	// Zero means 20 HP, movement 5, view distance 8.
	DefaultMaxHP         int
	DefaultMovementRange int
	DefaultViewDistance  int

	// Relative expiry bounds accepted on a contract offer, in turns. Zero
	// means 1 and 20.
	ContractMinExpiry int
	ContractMaxExpiry int

	Seed int64
}

const (
	defaultMaxTalkDistance = 15
	defaultLOSRange        = 20
)

// World is the single mutable shared state of one simulation. It is strictly
// single-threaded: all mutation goes through ExecuteAction and the turn
// boundary helpers, from one goroutine.
type World struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Tiles      [][]Tile     `json:"tiles"`
	Characters []*Character `json:"characters"`
	Rooms      []Room       `json:"rooms,omitempty"`

	Turn            int              `json:"turn"`
	Events          []*GameEvent     `json:"events"`
	ActiveContracts []*BloodContract `json:"active_contracts,omitempty"`

	maxTalkDistance int
	losRange        int

	defaultMaxHP         int
	defaultMovementRange int
	defaultViewDistance  int
	contractMinExpiry    int
	contractMaxExpiry    int

	seed   int64
	roller Roller
	log    *log.Logger
}

func New(cfg Config) (*World, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("world: bad dimensions %dx%d", cfg.Width, cfg.Height)
	}
	talk := cfg.MaxTalkDistance
	if talk == 0 {
		talk = defaultMaxTalkDistance
	}
	los := cfg.LOSRange
	if los == 0 {
		los = defaultLOSRange
	}
	maxHP := cfg.DefaultMaxHP
	if maxHP == 0 {
		maxHP = 20
	}
	moveRange := cfg.DefaultMovementRange
	if moveRange == 0 {
		moveRange = 5
	}
	viewDist := cfg.DefaultViewDistance
	if viewDist == 0 {
		viewDist = 8
	}
	minExp := cfg.ContractMinExpiry
	if minExp == 0 {
		minExp = 1
	}
	maxExp := cfg.ContractMaxExpiry
	if maxExp == 0 {
		maxExp = 20
	}
	tiles := make([][]Tile, cfg.Height)
	for y := range tiles {
		tiles[y] = make([]Tile, cfg.Width)
		for x := range tiles[y] {
			tiles[y][x] = Tile{Terrain: TerrainGround}
		}
	}
	return &World{
		Width:                cfg.Width,
		Height:               cfg.Height,
		Tiles:                tiles,
		maxTalkDistance:      talk,
		losRange:             los,
		defaultMaxHP:         maxHP,
		defaultMovementRange: moveRange,
		defaultViewDistance:  viewDist,
		contractMinExpiry:    minExp,
		contractMaxExpiry:    maxExp,
		seed:                 cfg.Seed,
		roller:               NewRoller(cfg.Seed),
	}, nil
}

func (w *World) SetLogger(l *log.Logger) { w.log = l }

// SetRoller swaps the dice roller. Tests inject fixed rollers here.
func (w *World) SetRoller(r Roller) { w.roller = r }

func (w *World) MaxTalkDistance() int { return w.maxTalkDistance }

func (w *World) InBounds(p Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < w.Width && p.Y < w.Height
}

// TileAt returns the tile at p, or nil when out of bounds.
func (w *World) TileAt(p Vec2) *Tile {
	if !w.InBounds(p) {
		return nil
	}
	return &w.Tiles[p.Y][p.X]
}

// CharacterAt returns the living character standing on p, if any. Dead
// characters do not occupy tiles.
func (w *World) CharacterAt(p Vec2) *Character {
	for _, c := range w.Characters {
		if c.Alive && c.Pos == p {
			return c
		}
	}
	return nil
}

func (w *World) Character(id string) *Character {
	for _, c := range w.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (w *World) CharacterByName(name string) *Character {
	for _, c := range w.Characters {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func (w *World) Contract(id string) *BloodContract {
	for _, bc := range w.ActiveContracts {
		if bc.ID == id {
			return bc
		}
	}
	return nil
}

// AddCharacter appends a character, filling in sane defaults.
func (w *World) AddCharacter(c *Character) error {
	if c.ID == "" {
		return fmt.Errorf("world: character without id")
	}
	if w.Character(c.ID) != nil {
		return fmt.Errorf("world: duplicate character id %q", c.ID)
	}
	if !w.InBounds(c.Pos) {
		return fmt.Errorf("world: character %q out of bounds at %v", c.ID, c.Pos)
	}
	if c.MaxHP == 0 {
		c.MaxHP = w.defaultMaxHP
	}
	if c.HP == 0 {
		c.HP = c.MaxHP
	}
	if c.MovementRange == 0 {
		c.MovementRange = w.defaultMovementRange
	}
	if c.ViewDistance == 0 {
		c.ViewDistance = w.defaultViewDistance
	}
	c.Alive = true
	if c.MapMemory == nil {
		c.MapMemory = map[Vec2]TileMemory{}
	}
	w.Characters = append(w.Characters, c)
	return nil
}

// FeatureNear finds a feature by id on the character's own tile or one of
// its 8 neighbors.
func (w *World) FeatureNear(c *Character, featureID string) (*Feature, Vec2) {
	if t := w.TileAt(c.Pos); t != nil && t.Feature != nil && t.Feature.ID == featureID {
		return t.Feature, c.Pos
	}
	for _, n := range Neighbors8(c.Pos) {
		if t := w.TileAt(n); t != nil && t.Feature != nil && t.Feature.ID == featureID {
			return t.Feature, n
		}
	}
	return nil, Vec2{}
}

func (w *World) logf(format string, args ...any) {
	if w.log != nil {
		w.log.Printf(format, args...)
	}
}
