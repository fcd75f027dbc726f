package world

// GameEvent is one entry of the append-only world log. Events are never
// mutated after creation; a character's view of history is the subset whose
// WitnessIDs contain that character.
type GameEvent struct {
	Turn        int      `json:"turn"`
	ActorID     string   `json:"actor_id,omitempty"`
	TargetID    string   `json:"target_id,omitempty"`
	ItemID      string   `json:"item_id,omitempty"`
	Pos         *Vec2    `json:"pos,omitempty"`
	Damage      int      `json:"damage,omitempty"`
	Message     string   `json:"message,omitempty"`
	Description string   `json:"description"`
	WitnessIDs  []string `json:"witness_ids"`
}

func (e *GameEvent) WitnessedBy(characterID string) bool {
	for _, id := range e.WitnessIDs {
		if id == characterID {
			return true
		}
	}
	return false
}

// WitnessIDs returns the ids of every living character that can perceive at
// least one of the given positions right now. Perception means the position
// falls inside that character's own shadowcast field of view, so both
// line-of-sight and the per-character view distance apply.
func (w *World) WitnessIDs(positions ...Vec2) []string {
	var out []string
	for _, c := range w.Characters {
		if !c.Alive {
			continue
		}
		visible := ComputeVisibleSet(w, c.Pos, c.ViewDistance)
		for _, p := range positions {
			if visible[p] {
				out = append(out, c.ID)
				break
			}
		}
	}
	return out
}

// appendEvent stamps the current turn, computes witnesses from the given
// positions and appends to the world log. Events with no positions are
// witnessed by the explicitly passed ids only.
func (w *World) appendEvent(e GameEvent, positions ...Vec2) *GameEvent {
	e.Turn = w.Turn
	if len(positions) > 0 {
		e.WitnessIDs = w.WitnessIDs(positions...)
	}
	w.Events = append(w.Events, &e)
	return w.Events[len(w.Events)-1]
}
