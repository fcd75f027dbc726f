// Package snapshot defines the portable world snapshot format: a zstd
// compressed JSON document mirroring the World shape. Snapshots back both
// save/load and the deterministic replay tool.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Turn    int    `json:"turn"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Seed   int64 `json:"seed,omitempty"`

	MaxTalkDistance int `json:"max_talk_distance,omitempty"`
	LOSRange        int `json:"los_range,omitempty"`

	Tiles      []TileV1      `json:"tiles"` // sparse: only non-default tiles
	Rooms      []RoomV1      `json:"rooms,omitempty"`
	Characters []CharacterV1 `json:"characters"`
	Events     []EventV1     `json:"events,omitempty"`
	Contracts  []ContractV1  `json:"contracts,omitempty"`
}

type TileV1 struct {
	Pos     [2]int     `json:"pos"`
	Terrain string     `json:"terrain"`
	Items   []ItemV1   `json:"items,omitempty"`
	Feature *FeatureV1 `json:"feature,omitempty"`
	RoomID  string     `json:"room_id,omitempty"`
}

type RoomV1 struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Min  [2]int `json:"min"`
	Max  [2]int `json:"max"`
}

type FeatureV1 struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`

	Locked bool   `json:"locked,omitempty"`
	Open   bool   `json:"open,omitempty"`
	KeyID  string `json:"key_id,omitempty"`

	Searched bool     `json:"searched,omitempty"`
	Items    []ItemV1 `json:"items,omitempty"`

	OwnerID    string          `json:"owner_id,omitempty"`
	WitnessIDs []string        `json:"witness_ids,omitempty"`
	Effect     json.RawMessage `json:"effect,omitempty"`
	Triggered  bool            `json:"triggered,omitempty"`
}

type ItemV1 struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`

	Damage int `json:"damage,omitempty"`
	Armor  int `json:"armor,omitempty"`

	UseEffect        json.RawMessage `json:"use_effect,omitempty"`
	TrapEffect       json.RawMessage `json:"trap_effect,omitempty"`
	UnlocksFeatureID string          `json:"unlocks_feature_id,omitempty"`
	Contract         json.RawMessage `json:"contract,omitempty"`
}

type CharacterV1 struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`

	Pos   [2]int `json:"pos"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
	Alive bool   `json:"alive"`

	Inventory          []ItemV1 `json:"inventory,omitempty"`
	EquippedWeaponID   string   `json:"equipped_weapon_id,omitempty"`
	EquippedClothingID string   `json:"equipped_clothing_id,omitempty"`

	MovementRange int `json:"movement_range"`
	ViewDistance  int `json:"view_distance"`

	Effects json.RawMessage `json:"effects,omitempty"`

	// MapMemory is serialized as an explicit list of [key, value] pairs for
	// portability and rebuilt into the coordinate map on import.
	MapMemory []MemoryPairV1 `json:"map_memory,omitempty"`

	Personality     string `json:"personality,omitempty"`
	Model           string `json:"model,omitempty"`
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
}

type MemoryPairV1 struct {
	Key   [2]int          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type EventV1 struct {
	Turn        int      `json:"turn"`
	ActorID     string   `json:"actor_id,omitempty"`
	TargetID    string   `json:"target_id,omitempty"`
	ItemID      string   `json:"item_id,omitempty"`
	Pos         []int    `json:"pos,omitempty"`
	Damage      int      `json:"damage,omitempty"`
	Message     string   `json:"message,omitempty"`
	Description string   `json:"description"`
	WitnessIDs  []string `json:"witness_ids"`
}

type ContractV1 struct {
	ID         string `json:"id"`
	IssuerID   string `json:"issuer_id"`
	IssuerName string `json:"issuer_name"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Contents   string `json:"contents"`
	ExpiryTurn int    `json:"expiry_turn"`
	Signed     bool   `json:"signed"`
}

// Write stores the snapshot as a header line followed by the JSON body,
// zstd-compressed.
func Write(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}
	return nil
}

func Read(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line; the body repeats it.
	_, _ = br.ReadBytes('\n')

	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("snapshot decode: %w", err)
	}
	return snap, nil
}
