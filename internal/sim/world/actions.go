package world

import (
	"gridfall.ai/internal/protocol"
)

// ExecuteAction is the single entry point for world mutation. One handler
// per action variant; each handler validates everything before touching
// state, so a failed result always means an unchanged world.
func ExecuteAction(w *World, c *Character, action Action) ActionResult {
	if c == nil || w.Character(c.ID) == nil {
		return fail(protocol.ErrInvalidTarget, "no such character")
	}
	if !c.Alive {
		return fail(protocol.ErrForbidden, "dead characters cannot act")
	}

	var res ActionResult
	switch a := action.(type) {
	case MoveAction:
		res = w.execMove(c, a)
	case MoveTowardAction:
		res = w.execMoveToward(c, a)
	case LookAroundAction:
		res = w.execLookAround(c)
	case SearchContainerAction:
		res = w.execSearchContainer(c, a)
	case PickUpAction:
		res = w.execPickUp(c, a)
	case DropAction:
		res = w.execDrop(c, a)
	case EquipAction:
		res = w.execEquip(c, a)
	case UnequipAction:
		res = w.execUnequip(c, a)
	case UseAction:
		res = w.execUse(c, a)
	case AttackAction:
		res = w.execAttack(c, a)
	case TalkAction:
		res = w.execTalk(c, a)
	case PlaceAction:
		res = w.execPlace(c, a)
	case UnlockAction:
		res = w.execUnlock(c, a)
	case IssueContractAction:
		res = w.execIssueContract(c, a)
	case SignContractAction:
		res = ok("contract acknowledgement noted")
	case DeclineContractAction:
		res = ok("contract refusal noted")
	case WaitAction:
		res = ok(c.Name + " waits")
	case nil:
		res = fail(protocol.ErrBadRequest, "missing action")
	default:
		res = fail(protocol.ErrBadRequest, "unknown action kind")
	}
	if !res.OK && action != nil {
		w.logf("action %s by %s rejected: %s (%s)", action.Kind(), c.ID, res.Message, res.Code)
	}
	return res
}
