package runner

import (
	"fmt"
	"sort"
	"strings"

	"gridfall.ai/internal/protocol"
	"gridfall.ai/internal/sim/world"
)

// DecodeAction maps the flat wire shape onto the engine's closed action
// type. Unknown kinds and malformed coordinates are rejected here so the
// engine only ever sees well-formed variants.
func DecodeAction(req protocol.ActReq) (world.Action, error) {
	switch world.ActionKind(req.Kind) {
	case world.ActMove:
		to, err := decodeVec(req.To)
		if err != nil {
			return nil, err
		}
		return world.MoveAction{To: to}, nil
	case world.ActMoveToward:
		to, err := decodeVec(req.To)
		if err != nil {
			return nil, err
		}
		return world.MoveTowardAction{To: to}, nil
	case world.ActLookAround:
		return world.LookAroundAction{}, nil
	case world.ActSearchContainer:
		return world.SearchContainerAction{FeatureID: req.FeatureID}, nil
	case world.ActPickUp:
		return world.PickUpAction{ItemName: req.ItemName}, nil
	case world.ActDrop:
		return world.DropAction{ItemID: req.ItemID}, nil
	case world.ActEquip:
		return world.EquipAction{ItemID: req.ItemID}, nil
	case world.ActUnequip:
		return world.UnequipAction{ItemID: req.ItemID}, nil
	case world.ActUse:
		return world.UseAction{ItemID: req.ItemID}, nil
	case world.ActAttack:
		return world.AttackAction{TargetID: req.TargetID}, nil
	case world.ActTalk:
		return world.TalkAction{TargetID: req.TargetID, Text: req.Text}, nil
	case world.ActPlace:
		at, err := decodeVec(req.To)
		if err != nil {
			return nil, err
		}
		return world.PlaceAction{ItemID: req.ItemID, At: at}, nil
	case world.ActUnlock:
		return world.UnlockAction{FeatureID: req.FeatureID}, nil
	case world.ActIssueContract:
		return world.IssueContractAction{
			TargetID:   req.TargetID,
			Contents:   req.Contents,
			ExpiryTurn: req.ExpiryTurn,
		}, nil
	case world.ActSignContract:
		return world.SignContractAction{ContractID: req.ContractID}, nil
	case world.ActDeclineContract:
		return world.DeclineContractAction{ContractID: req.ContractID}, nil
	case world.ActWait:
		return world.WaitAction{}, nil
	}
	return nil, fmt.Errorf("unknown action kind %q", req.Kind)
}

// EncodeAction is the inverse of DecodeAction, used to publish the
// possible-actions list.
func EncodeAction(a world.Action) protocol.ActReq {
	req := protocol.ActReq{Kind: string(a.Kind())}
	switch v := a.(type) {
	case world.MoveAction:
		req.To = []int{v.To.X, v.To.Y}
	case world.MoveTowardAction:
		if v.To != (world.Vec2{}) {
			req.To = []int{v.To.X, v.To.Y}
		}
	case world.SearchContainerAction:
		req.FeatureID = v.FeatureID
	case world.PickUpAction:
		req.ItemName = v.ItemName
	case world.DropAction:
		req.ItemID = v.ItemID
	case world.EquipAction:
		req.ItemID = v.ItemID
	case world.UnequipAction:
		req.ItemID = v.ItemID
	case world.UseAction:
		req.ItemID = v.ItemID
	case world.AttackAction:
		req.TargetID = v.TargetID
	case world.TalkAction:
		req.TargetID = v.TargetID
		req.Text = v.Text
	case world.PlaceAction:
		req.ItemID = v.ItemID
		req.To = []int{v.At.X, v.At.Y}
	case world.UnlockAction:
		req.FeatureID = v.FeatureID
	case world.IssueContractAction:
		req.TargetID = v.TargetID
		req.Contents = v.Contents
		req.ExpiryTurn = v.ExpiryTurn
	case world.SignContractAction:
		req.ContractID = v.ContractID
	case world.DeclineContractAction:
		req.ContractID = v.ContractID
	}
	return req
}

// BuildKnowledge renders the character's current knowledge as the wire
// message. sinceEvent is the index into the world event log this character
// has already been shown; the returned index is the new watermark.
func BuildKnowledge(w *world.World, c *world.Character, sinceEvent int) (protocol.KnowledgeMsg, int) {
	k := world.GetCharacterKnowledge(w, c)

	msg := protocol.KnowledgeMsg{
		Type:            protocol.TypeKnowledge,
		ProtocolVersion: protocol.Version,
		Turn:            w.Turn,
		CharacterID:     c.ID,
		Self:            encodeSelf(c),
		VisibleTiles:    []protocol.TileView{},
		VisibleChars:    []protocol.CharacterView{},
		VisibleItems:    []protocol.ItemView{},
		Events:          []protocol.EventView{},
		PossibleActions: []protocol.ActReq{},
	}

	var positions []world.Vec2
	for p := range k.Visible.Tiles {
		positions = append(positions, p)
	}
	sortVecs(positions)
	for _, p := range positions {
		t := k.Visible.Tiles[p]
		tv := protocol.TileView{
			Pos:     [2]int{p.X, p.Y},
			Terrain: string(t.Terrain),
			RoomID:  t.RoomID,
		}
		if t.Feature != nil && t.Feature.VisibleTo(c.ID) {
			tv.Feature = t.Feature.Summary()
		}
		msg.VisibleTiles = append(msg.VisibleTiles, tv)
	}

	for _, other := range k.Visible.Characters {
		msg.VisibleChars = append(msg.VisibleChars, protocol.CharacterView{
			ID:    other.ID,
			Name:  other.Name,
			Pos:   [2]int{other.Pos.X, other.Pos.Y},
			Alive: other.Alive,
		})
	}
	sort.Slice(msg.VisibleChars, func(i, j int) bool { return msg.VisibleChars[i].ID < msg.VisibleChars[j].ID })

	for _, it := range k.Visible.Items {
		p := k.Visible.ItemPos[it.ID]
		msg.VisibleItems = append(msg.VisibleItems, protocol.ItemView{
			ID:   it.ID,
			Name: it.Name,
			Kind: string(it.Kind),
			Pos:  [2]int{p.X, p.Y},
		})
	}
	sort.Slice(msg.VisibleItems, func(i, j int) bool { return msg.VisibleItems[i].ID < msg.VisibleItems[j].ID })

	msg.MapMemory = encodeMemory(c)

	next := len(w.Events)
	for i := sinceEvent; i < len(w.Events); i++ {
		e := w.Events[i]
		if !e.WitnessedBy(c.ID) {
			continue
		}
		msg.Events = append(msg.Events, encodeEvent(e))
	}

	for _, a := range k.PossibleActions {
		msg.PossibleActions = append(msg.PossibleActions, EncodeAction(a))
	}
	return msg, next
}

func encodeSelf(c *world.Character) protocol.SelfView {
	sv := protocol.SelfView{
		Pos:           [2]int{c.Pos.X, c.Pos.Y},
		HP:            c.HP,
		MaxHP:         c.MaxHP,
		MovementRange: c.MovementRange,
		ViewDistance:  c.ViewDistance,
		Inventory:     []protocol.ItemView{},
	}
	for _, it := range c.Inventory {
		sv.Inventory = append(sv.Inventory, protocol.ItemView{
			ID:   it.ID,
			Name: it.Name,
			Kind: string(it.Kind),
		})
	}
	sv.EquippedWeapon = c.EquippedWeaponID
	sv.EquippedClothing = c.EquippedClothingID
	for _, e := range c.Effects {
		label := e.Name
		if e.Duration > 0 {
			label = fmt.Sprintf("%s (%d turns)", e.Name, e.Duration)
		}
		sv.Effects = append(sv.Effects, label)
	}
	return sv
}

func encodeMemory(c *world.Character) []protocol.MemoryPair {
	if len(c.MapMemory) == 0 {
		return nil
	}
	keys := make([]world.Vec2, 0, len(c.MapMemory))
	for p := range c.MapMemory {
		keys = append(keys, p)
	}
	sortVecs(keys)
	out := make([]protocol.MemoryPair, 0, len(keys))
	for _, p := range keys {
		m := c.MapMemory[p]
		out = append(out, protocol.MemoryPair{
			Key: [2]int{p.X, p.Y},
			Value: protocol.MemoryView{
				Terrain:      string(m.Terrain),
				LastSeenTurn: m.LastSeenTurn,
				Items:        m.Items,
				Character:    m.Character,
				Feature:      m.Feature,
			},
		})
	}
	return out
}

func encodeEvent(e *world.GameEvent) protocol.EventView {
	ev := protocol.EventView{
		Turn:        e.Turn,
		ActorID:     e.ActorID,
		TargetID:    e.TargetID,
		ItemID:      e.ItemID,
		Damage:      e.Damage,
		Message:     e.Message,
		Description: e.Description,
	}
	if e.Pos != nil {
		ev.Pos = []int{e.Pos.X, e.Pos.Y}
	}
	return ev
}

func encodeEvents(events []*world.GameEvent) []protocol.EventView {
	out := make([]protocol.EventView, 0, len(events))
	for _, e := range events {
		out = append(out, encodeEvent(e))
	}
	return out
}

func decodeVec(raw []int) (world.Vec2, error) {
	if len(raw) != 2 {
		return world.Vec2{}, fmt.Errorf("coordinate wants [x,y], got %d values", len(raw))
	}
	return world.Vec2{X: raw[0], Y: raw[1]}, nil
}

func sortVecs(vs []world.Vec2) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Y != vs[j].Y {
			return vs[i].Y < vs[j].Y
		}
		return vs[i].X < vs[j].X
	})
}

// describeAction is used in log lines only.
func describeAction(a world.Action) string {
	if a == nil {
		return "nil"
	}
	req := EncodeAction(a)
	parts := []string{string(a.Kind())}
	if req.To != nil {
		parts = append(parts, fmt.Sprintf("to=%v", req.To))
	}
	if req.TargetID != "" {
		parts = append(parts, "target="+req.TargetID)
	}
	if req.ItemID != "" {
		parts = append(parts, "item="+req.ItemID)
	}
	if req.ItemName != "" {
		parts = append(parts, "item="+req.ItemName)
	}
	if req.FeatureID != "" {
		parts = append(parts, "feature="+req.FeatureID)
	}
	if req.ContractID != "" {
		parts = append(parts, "contract="+req.ContractID)
	}
	return strings.Join(parts, " ")
}
