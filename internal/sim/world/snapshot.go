package world

import (
	"encoding/json"
	"fmt"

	"gridfall.ai/internal/persistence/snapshot"
)

// ExportSnapshot converts the live world into the portable snapshot form.
// Tiles are exported sparsely: plain ground with nothing on it is implied.
func (w *World) ExportSnapshot(worldID string) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:          snapshot.Header{Version: 1, WorldID: worldID, Turn: w.Turn},
		Width:           w.Width,
		Height:          w.Height,
		Seed:            w.seed,
		MaxTalkDistance: w.maxTalkDistance,
		LOSRange:        w.losRange,
	}
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			t := &w.Tiles[y][x]
			if t.Terrain == TerrainGround && len(t.Items) == 0 && t.Feature == nil && t.RoomID == "" {
				continue
			}
			snap.Tiles = append(snap.Tiles, exportTile(Vec2{x, y}, t))
		}
	}
	for _, r := range w.Rooms {
		snap.Rooms = append(snap.Rooms, snapshot.RoomV1{
			ID: r.ID, Name: r.Name, Min: r.Min.ToArray(), Max: r.Max.ToArray(),
		})
	}
	for _, c := range w.Characters {
		snap.Characters = append(snap.Characters, exportCharacter(c))
	}
	for _, e := range w.Events {
		snap.Events = append(snap.Events, exportEvent(e))
	}
	for _, bc := range w.ActiveContracts {
		snap.Contracts = append(snap.Contracts, snapshot.ContractV1(*bc))
	}
	return snap
}

func exportTile(p Vec2, t *Tile) snapshot.TileV1 {
	out := snapshot.TileV1{
		Pos:     p.ToArray(),
		Terrain: string(t.Terrain),
		RoomID:  t.RoomID,
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, exportItem(it))
	}
	if f := t.Feature; f != nil {
		out.Feature = &snapshot.FeatureV1{
			ID:         f.ID,
			Kind:       string(f.Kind),
			Locked:     f.Locked,
			Open:       f.Open,
			KeyID:      f.KeyID,
			Searched:   f.Searched,
			OwnerID:    f.OwnerID,
			WitnessIDs: f.WitnessIDs,
			Effect:     marshalRaw(f.Effect),
			Triggered:  f.Triggered,
		}
		for _, it := range f.Items {
			out.Feature.Items = append(out.Feature.Items, exportItem(it))
		}
	}
	return out
}

func exportItem(it *Item) snapshot.ItemV1 {
	return snapshot.ItemV1{
		ID:               it.ID,
		Name:             it.Name,
		Kind:             string(it.Kind),
		Damage:           it.Damage,
		Armor:            it.Armor,
		UseEffect:        marshalRaw(it.UseEffect),
		TrapEffect:       marshalRaw(it.TrapEffect),
		UnlocksFeatureID: it.UnlocksFeatureID,
		Contract:         marshalRaw(it.Contract),
	}
}

func exportCharacter(c *Character) snapshot.CharacterV1 {
	out := snapshot.CharacterV1{
		ID:                 c.ID,
		Name:               c.Name,
		Gender:             c.Gender,
		Pos:                c.Pos.ToArray(),
		HP:                 c.HP,
		MaxHP:              c.MaxHP,
		Alive:              c.Alive,
		EquippedWeaponID:   c.EquippedWeaponID,
		EquippedClothingID: c.EquippedClothingID,
		MovementRange:      c.MovementRange,
		ViewDistance:       c.ViewDistance,
		Effects:            marshalRaw(c.Effects),
		Personality:        c.Personality,
		Model:              c.Model,
		ReasoningEffort:    c.ReasoningEffort,
	}
	for _, it := range c.Inventory {
		out.Inventory = append(out.Inventory, exportItem(it))
	}
	// The coordinate-keyed memory map travels as explicit pairs.
	for pos, mem := range c.MapMemory {
		out.MapMemory = append(out.MapMemory, snapshot.MemoryPairV1{
			Key:   pos.ToArray(),
			Value: marshalRaw(mem),
		})
	}
	return out
}

func exportEvent(e *GameEvent) snapshot.EventV1 {
	out := snapshot.EventV1{
		Turn:        e.Turn,
		ActorID:     e.ActorID,
		TargetID:    e.TargetID,
		ItemID:      e.ItemID,
		Damage:      e.Damage,
		Message:     e.Message,
		Description: e.Description,
		WitnessIDs:  e.WitnessIDs,
	}
	if e.Pos != nil {
		out.Pos = []int{e.Pos.X, e.Pos.Y}
	}
	return out
}

func marshalRaw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// ImportSnapshot rebuilds a world from its snapshot form. The dice roller is
// reseeded from the snapshot's recorded seed.
func ImportSnapshot(snap snapshot.SnapshotV1) (*World, error) {
	w, err := New(Config{
		Width:           snap.Width,
		Height:          snap.Height,
		MaxTalkDistance: snap.MaxTalkDistance,
		LOSRange:        snap.LOSRange,
		Seed:            snap.Seed,
	})
	if err != nil {
		return nil, err
	}
	w.Turn = snap.Header.Turn

	for _, tv := range snap.Tiles {
		p := Vec2{tv.Pos[0], tv.Pos[1]}
		t := w.TileAt(p)
		if t == nil {
			return nil, fmt.Errorf("snapshot: tile %v out of bounds", tv.Pos)
		}
		t.Terrain = Terrain(tv.Terrain)
		t.RoomID = tv.RoomID
		for _, iv := range tv.Items {
			it, err := importItem(iv)
			if err != nil {
				return nil, err
			}
			t.Items = append(t.Items, it)
		}
		if fv := tv.Feature; fv != nil {
			f := &Feature{
				ID:         fv.ID,
				Kind:       FeatureKind(fv.Kind),
				Locked:     fv.Locked,
				Open:       fv.Open,
				KeyID:      fv.KeyID,
				Searched:   fv.Searched,
				OwnerID:    fv.OwnerID,
				WitnessIDs: fv.WitnessIDs,
				Triggered:  fv.Triggered,
			}
			if err := unmarshalRaw(fv.Effect, &f.Effect); err != nil {
				return nil, fmt.Errorf("snapshot: feature %s effect: %w", fv.ID, err)
			}
			for _, iv := range fv.Items {
				it, err := importItem(iv)
				if err != nil {
					return nil, err
				}
				f.Items = append(f.Items, it)
			}
			t.Feature = f
		}
	}

	for _, rv := range snap.Rooms {
		w.Rooms = append(w.Rooms, Room{
			ID: rv.ID, Name: rv.Name,
			Min: Vec2{rv.Min[0], rv.Min[1]},
			Max: Vec2{rv.Max[0], rv.Max[1]},
		})
	}

	for _, cv := range snap.Characters {
		c := &Character{
			ID:                 cv.ID,
			Name:               cv.Name,
			Gender:             cv.Gender,
			Pos:                Vec2{cv.Pos[0], cv.Pos[1]},
			HP:                 cv.HP,
			MaxHP:              cv.MaxHP,
			EquippedWeaponID:   cv.EquippedWeaponID,
			EquippedClothingID: cv.EquippedClothingID,
			MovementRange:      cv.MovementRange,
			ViewDistance:       cv.ViewDistance,
			Personality:        cv.Personality,
			Model:              cv.Model,
			ReasoningEffort:    cv.ReasoningEffort,
			MapMemory:          map[Vec2]TileMemory{},
		}
		for _, iv := range cv.Inventory {
			it, err := importItem(iv)
			if err != nil {
				return nil, err
			}
			c.Inventory = append(c.Inventory, it)
		}
		if err := unmarshalRaw(cv.Effects, &c.Effects); err != nil {
			return nil, fmt.Errorf("snapshot: character %s effects: %w", cv.ID, err)
		}
		for _, pair := range cv.MapMemory {
			var mem TileMemory
			if err := unmarshalRaw(pair.Value, &mem); err != nil {
				return nil, fmt.Errorf("snapshot: character %s memory: %w", cv.ID, err)
			}
			c.MapMemory[Vec2{pair.Key[0], pair.Key[1]}] = mem
		}
		if err := w.AddCharacter(c); err != nil {
			return nil, err
		}
		// AddCharacter fills defaults for zero vitals; restore the recorded
		// state, dead characters included.
		c.HP = cv.HP
		c.Alive = cv.Alive
	}

	for _, ev := range snap.Events {
		ge := &GameEvent{
			Turn:        ev.Turn,
			ActorID:     ev.ActorID,
			TargetID:    ev.TargetID,
			ItemID:      ev.ItemID,
			Damage:      ev.Damage,
			Message:     ev.Message,
			Description: ev.Description,
			WitnessIDs:  ev.WitnessIDs,
		}
		if len(ev.Pos) == 2 {
			ge.Pos = &Vec2{ev.Pos[0], ev.Pos[1]}
		}
		w.Events = append(w.Events, ge)
	}

	for _, cv := range snap.Contracts {
		bc := BloodContract(cv)
		w.ActiveContracts = append(w.ActiveContracts, &bc)
	}
	return w, nil
}

func importItem(iv snapshot.ItemV1) (*Item, error) {
	it := &Item{
		ID:               iv.ID,
		Name:             iv.Name,
		Kind:             ItemKind(iv.Kind),
		Damage:           iv.Damage,
		Armor:            iv.Armor,
		UnlocksFeatureID: iv.UnlocksFeatureID,
	}
	if err := unmarshalRaw(iv.UseEffect, &it.UseEffect); err != nil {
		return nil, fmt.Errorf("snapshot: item %s use effect: %w", iv.ID, err)
	}
	if err := unmarshalRaw(iv.TrapEffect, &it.TrapEffect); err != nil {
		return nil, fmt.Errorf("snapshot: item %s trap effect: %w", iv.ID, err)
	}
	if err := unmarshalRaw(iv.Contract, &it.Contract); err != nil {
		return nil, fmt.Errorf("snapshot: item %s contract: %w", iv.ID, err)
	}
	return it, nil
}

func unmarshalRaw(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
