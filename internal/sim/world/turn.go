package world

import "fmt"

// Turn boundary helpers. The runner calls BeginCharacterTurn before handing
// knowledge to the decision-maker and EndCharacterTurn after the action
// resolves; AdvanceTurn closes the round.

func (w *World) BeginCharacterTurn(c *Character) ProcessOutcome {
	if !c.Alive {
		return ProcessOutcome{}
	}
	return w.ProcessEffects(c, TriggerTurnStart)
}

func (w *World) EndCharacterTurn(c *Character) ProcessOutcome {
	if !c.Alive {
		return ProcessOutcome{}
	}
	out := w.ProcessEffects(c, TriggerTurnEnd)
	if out.Died {
		return out
	}
	for _, e := range w.TickEffectDurations(c) {
		out.Events = append(out.Events, w.appendEvent(GameEvent{
			TargetID:    c.ID,
			Pos:         &c.Pos,
			Description: fmt.Sprintf("%s wore off of %s", e.Name, c.Name),
		}, c.Pos))
		if !c.Alive {
			// An on_expired action killed the character.
			out.Died = true
			return out
		}
	}
	return out
}

func (w *World) AdvanceTurn() {
	w.Turn++
}

// TurnOrder lists the living characters in list order; dead characters keep
// their slot in World.Characters but never act again.
func (w *World) TurnOrder() []*Character {
	var out []*Character
	for _, c := range w.Characters {
		if c.Alive {
			out = append(out, c)
		}
	}
	return out
}
