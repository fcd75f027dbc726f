package world

// CharacterKnowledge is everything the external decision-maker may know
// about the world on behalf of one character: its own status, its current
// field of view, the events it witnessed, and the freshly enumerated list of
// legal actions. The enumeration is the single source of truth an incoming
// action is validated against.
type CharacterKnowledge struct {
	Character       *Character
	Visible         VisibleState
	WitnessedEvents []*GameEvent
	PossibleActions []Action
}

func GetCharacterKnowledge(w *World, c *Character) CharacterKnowledge {
	return CharacterKnowledge{
		Character:       c,
		Visible:         GetVisibleTiles(w, c),
		WitnessedEvents: witnessedEvents(w, c),
		PossibleActions: PossibleActions(w, c),
	}
}

func witnessedEvents(w *World, c *Character) []*GameEvent {
	var out []*GameEvent
	for _, e := range w.Events {
		if e.WitnessedBy(c.ID) {
			out = append(out, e)
		}
	}
	return out
}

// ActionLegal reports whether the action appears, structurally equal after
// normalization, in the possible-actions list for this world snapshot.
func (k CharacterKnowledge) ActionLegal(a Action) bool {
	want := NormalizeForLegality(a)
	for _, p := range k.PossibleActions {
		if NormalizeForLegality(p) == want {
			return true
		}
	}
	return false
}

// PossibleActions re-derives, from scratch, every action the character could
// legally take right now.
func PossibleActions(w *World, c *Character) []Action {
	if c == nil || !c.Alive {
		return nil
	}
	actions := []Action{WaitAction{}, LookAroundAction{}}

	if !c.MovementPrevented() {
		for _, p := range ReachableTiles(w, c) {
			actions = append(actions, MoveAction{To: p})
		}
		actions = append(actions, MoveTowardAction{})
	}

	// Adjacent features: unsearched chests, locked doors we hold a key for.
	nearTiles := append([]Vec2{c.Pos}, neighborSlice(c.Pos)...)
	for _, p := range nearTiles {
		t := w.TileAt(p)
		if t == nil || t.Feature == nil {
			continue
		}
		f := t.Feature
		switch f.Kind {
		case FeatureChest:
			if !f.Searched {
				actions = append(actions, SearchContainerAction{FeatureID: f.ID})
			}
		case FeatureDoor:
			if p == c.Pos || !f.Locked || f.Open {
				continue
			}
			for _, it := range c.Inventory {
				if it.Kind == ItemKey && it.UnlocksFeatureID == f.ID {
					actions = append(actions, UnlockAction{FeatureID: f.ID})
					break
				}
			}
		}
	}

	// Pickups: loose items plus searched-chest contents in the
	// 8-neighborhood. Unsearched chests hide their items.
	seenNames := map[string]bool{}
	addPickup := func(it *Item) {
		key := NormalizeForLegality(PickUpAction{ItemName: it.Name}).(PickUpAction).ItemName
		if !seenNames[key] {
			seenNames[key] = true
			actions = append(actions, PickUpAction{ItemName: it.Name})
		}
	}
	for _, p := range nearTiles {
		t := w.TileAt(p)
		if t == nil {
			continue
		}
		for _, it := range t.Items {
			addPickup(it)
		}
		if f := t.Feature; f != nil && f.Kind == FeatureChest && f.Searched {
			for _, it := range f.Items {
				addPickup(it)
			}
		}
	}

	// Inventory-driven actions.
	for _, it := range c.Inventory {
		actions = append(actions, DropAction{ItemID: it.ID})
		if it.Kind == ItemWeapon || it.Kind == ItemClothing {
			if c.EquippedWeaponID != it.ID && c.EquippedClothingID != it.ID {
				actions = append(actions, EquipAction{ItemID: it.ID})
			}
		}
		if it.UseEffect != nil {
			actions = append(actions, UseAction{ItemID: it.ID})
		}
		if it.Kind == ItemTrap {
			for _, p := range neighborSlice(c.Pos) {
				t := w.TileAt(p)
				if t != nil && t.Terrain.Walkable() && t.Feature == nil {
					actions = append(actions, PlaceAction{ItemID: it.ID, At: p})
				}
			}
		}
	}
	if c.EquippedWeaponID != "" {
		actions = append(actions, UnequipAction{ItemID: c.EquippedWeaponID})
	}
	if c.EquippedClothingID != "" {
		actions = append(actions, UnequipAction{ItemID: c.EquippedClothingID})
	}

	// Other characters: adjacency for attack, talk range for speech and
	// contract offers.
	for _, other := range w.Characters {
		if other.ID == c.ID || !other.Alive {
			continue
		}
		if Chebyshev(c.Pos, other.Pos) == 1 {
			actions = append(actions, AttackAction{TargetID: other.ID})
		}
		if Manhattan(c.Pos, other.Pos) <= w.maxTalkDistance {
			actions = append(actions, TalkAction{TargetID: other.ID})
			actions = append(actions, IssueContractAction{TargetID: other.ID})
		}
	}

	// Contracts offered to this character and not yet signed.
	for _, bc := range w.ActiveContracts {
		if bc.TargetID == c.ID && !bc.Signed {
			actions = append(actions, SignContractAction{ContractID: bc.ID})
			actions = append(actions, DeclineContractAction{ContractID: bc.ID})
		}
	}
	return actions
}

func neighborSlice(p Vec2) []Vec2 {
	n := Neighbors8(p)
	return n[:]
}
