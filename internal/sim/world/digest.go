package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// StateDigest is a canonical sha256 over the mutable world state. Two runs
// that applied the same actions from the same start produce the same digest
// sequence; the replay tool leans on this.
func (w *World) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	writeI64(h, &tmp, int64(w.Turn))
	writeI64(h, &tmp, int64(w.Width))
	writeI64(h, &tmp, int64(w.Height))

	w.digestTiles(h, &tmp)
	w.digestCharacters(h, &tmp)
	w.digestContracts(h, &tmp)
	writeI64(h, &tmp, int64(len(w.Events)))

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestTiles(h hash.Hash, tmp *[8]byte) {
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			t := &w.Tiles[y][x]
			writeString(h, tmp, string(t.Terrain))
			writeI64(h, tmp, int64(len(t.Items)))
			for _, it := range t.Items {
				writeString(h, tmp, it.ID)
			}
			f := t.Feature
			if f == nil {
				h.Write([]byte{0})
				continue
			}
			h.Write([]byte{1})
			writeString(h, tmp, f.ID)
			writeString(h, tmp, string(f.Kind))
			h.Write([]byte{boolByte(f.Locked), boolByte(f.Open), boolByte(f.Searched), boolByte(f.Triggered)})
			writeI64(h, tmp, int64(len(f.Items)))
			for _, it := range f.Items {
				writeString(h, tmp, it.ID)
			}
		}
	}
}

func (w *World) digestCharacters(h hash.Hash, tmp *[8]byte) {
	writeI64(h, tmp, int64(len(w.Characters)))
	for _, c := range w.Characters {
		writeString(h, tmp, c.ID)
		writeI64(h, tmp, int64(c.Pos.X))
		writeI64(h, tmp, int64(c.Pos.Y))
		writeI64(h, tmp, int64(c.HP))
		h.Write([]byte{boolByte(c.Alive)})
		writeI64(h, tmp, int64(len(c.Inventory)))
		for _, it := range c.Inventory {
			writeString(h, tmp, it.ID)
		}
		writeString(h, tmp, c.EquippedWeaponID)
		writeString(h, tmp, c.EquippedClothingID)
		writeI64(h, tmp, int64(len(c.Effects)))
		for _, e := range c.Effects {
			writeString(h, tmp, e.ID)
			writeI64(h, tmp, int64(e.Duration))
		}
		// Map iteration order is random; digest memory keys sorted.
		keys := make([]Vec2, 0, len(c.MapMemory))
		for k := range c.MapMemory {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Y != keys[j].Y {
				return keys[i].Y < keys[j].Y
			}
			return keys[i].X < keys[j].X
		})
		writeI64(h, tmp, int64(len(keys)))
		for _, k := range keys {
			m := c.MapMemory[k]
			writeI64(h, tmp, int64(k.X))
			writeI64(h, tmp, int64(k.Y))
			writeString(h, tmp, string(m.Terrain))
			writeI64(h, tmp, int64(m.LastSeenTurn))
		}
	}
}

func (w *World) digestContracts(h hash.Hash, tmp *[8]byte) {
	writeI64(h, tmp, int64(len(w.ActiveContracts)))
	for _, bc := range w.ActiveContracts {
		writeString(h, tmp, bc.ID)
		writeString(h, tmp, bc.IssuerID)
		writeString(h, tmp, bc.TargetID)
		writeI64(h, tmp, int64(bc.ExpiryTurn))
		h.Write([]byte{boolByte(bc.Signed)})
	}
}

func writeI64(h hash.Hash, tmp *[8]byte, v int64) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	h.Write(tmp[:])
}

func writeString(h hash.Hash, tmp *[8]byte, s string) {
	writeI64(h, tmp, int64(len(s)))
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
