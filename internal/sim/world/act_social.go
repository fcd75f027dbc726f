package world

import (
	"fmt"

	"gridfall.ai/internal/protocol"
)

func (w *World) execAttack(c *Character, a AttackAction) ActionResult {
	target := w.Character(a.TargetID)
	if target == nil || target.ID == c.ID {
		return fail(protocol.ErrInvalidTarget, "no such target")
	}
	if !target.Alive {
		return fail(protocol.ErrForbidden, fmt.Sprintf("%s is already dead", target.Name))
	}
	if Chebyshev(c.Pos, target.Pos) != 1 {
		return fail(protocol.ErrOutOfRange, fmt.Sprintf("%s is not adjacent", target.Name))
	}

	roll := w.roller.Roll(20)
	dmg, critical := attackDamage(c, roll)

	var events []*GameEvent
	var died bool
	// Miss/hit events are witnessed from the target's position.
	switch {
	case dmg == 0 && critical:
		events = append(events, w.appendEvent(GameEvent{
			ActorID:     c.ID,
			TargetID:    target.ID,
			Pos:         &target.Pos,
			Description: fmt.Sprintf("%s critically missed %s", c.Name, target.Name),
		}, target.Pos))
	case dmg == 0:
		events = append(events, w.appendEvent(GameEvent{
			ActorID:     c.ID,
			TargetID:    target.ID,
			Pos:         &target.Pos,
			Description: fmt.Sprintf("%s missed %s", c.Name, target.Name),
		}, target.Pos))
	default:
		desc := fmt.Sprintf("%s hit %s for %d damage", c.Name, target.Name, dmg)
		if critical {
			desc = fmt.Sprintf("%s critically hit %s for %d damage", c.Name, target.Name, dmg)
		}
		var ev []*GameEvent
		ev, died = w.damageCharacter(target, dmg, c.ID, desc)
		events = append(events, ev...)
	}

	// Attacker riders fire on every swing; target reactions only when it
	// survived being hurt. Stat modifiers are handled inside the damage
	// math, not here.
	out := w.ProcessEffects(c, TriggerOnAttack)
	events = append(events, out.Events...)
	if dmg > 0 && !died && !out.Died {
		hurt := w.ProcessEffects(target, TriggerOnDamaged)
		events = append(events, hurt.Events...)
	}

	msg := events[0].Description
	return ok(msg, events...)
}

func (w *World) execTalk(c *Character, a TalkAction) ActionResult {
	target := w.Character(a.TargetID)
	if target == nil || target.ID == c.ID {
		return fail(protocol.ErrInvalidTarget, "no such listener")
	}
	if !target.Alive {
		return fail(protocol.ErrForbidden, fmt.Sprintf("%s cannot hear you anymore", target.Name))
	}
	// Distance-only: speech carries through walls, bars and doors.
	if d := Manhattan(c.Pos, target.Pos); d > w.maxTalkDistance {
		return fail(protocol.ErrOutOfRange,
			fmt.Sprintf("%s is too far away to talk to (distance %d, max %d)", target.Name, d, w.maxTalkDistance))
	}
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		TargetID:    target.ID,
		Pos:         &c.Pos,
		Message:     a.Text,
		Description: fmt.Sprintf("%s said to %s: %q", c.Name, target.Name, a.Text),
	}, c.Pos, target.Pos)
	return ok(fmt.Sprintf("%s spoke to %s", c.Name, target.Name), ev)
}

func (w *World) execIssueContract(c *Character, a IssueContractAction) ActionResult {
	if a.ExpiryTurn < w.contractMinExpiry || a.ExpiryTurn > w.contractMaxExpiry {
		return fail(protocol.ErrBadRequest,
			fmt.Sprintf("contract expiry must be between %d and %d turns", w.contractMinExpiry, w.contractMaxExpiry))
	}
	target := w.Character(a.TargetID)
	if target == nil || target.ID == c.ID {
		return fail(protocol.ErrInvalidTarget, "no such counterparty")
	}
	if !target.Alive {
		return fail(protocol.ErrForbidden, fmt.Sprintf("%s cannot sign anything anymore", target.Name))
	}
	if d := Manhattan(c.Pos, target.Pos); d > w.maxTalkDistance {
		return fail(protocol.ErrOutOfRange,
			fmt.Sprintf("%s is too far away to negotiate with (distance %d, max %d)", target.Name, d, w.maxTalkDistance))
	}
	// The offer is a private exchange: only the two parties witness it.
	// Creation and signing of the actual contract is the orchestrator's
	// move; the engine records the offer.
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		TargetID:    target.ID,
		Message:     a.Contents,
		Description: fmt.Sprintf("%s offered %s a blood contract (expires turn %d)", c.Name, target.Name, w.Turn+a.ExpiryTurn),
		WitnessIDs:  []string{c.ID, target.ID},
	})
	return ok(fmt.Sprintf("%s offered a contract to %s", c.Name, target.Name), ev)
}

// AddContract registers a contract negotiated by the orchestration layer.
func (w *World) AddContract(bc *BloodContract) {
	w.ActiveContracts = append(w.ActiveContracts, bc)
}

// RemoveContract drops a declined or expired contract.
func (w *World) RemoveContract(id string) bool {
	for i, bc := range w.ActiveContracts {
		if bc.ID == id {
			w.ActiveContracts = append(w.ActiveContracts[:i:i], w.ActiveContracts[i+1:]...)
			return true
		}
	}
	return false
}
