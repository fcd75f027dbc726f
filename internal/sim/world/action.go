package world

import "strings"

// ActionKind names the action variants.
type ActionKind string

const (
	ActMove            ActionKind = "move"
	ActMoveToward      ActionKind = "move_toward"
	ActLookAround      ActionKind = "look_around"
	ActSearchContainer ActionKind = "search_container"
	ActPickUp          ActionKind = "pick_up"
	ActDrop            ActionKind = "drop"
	ActEquip           ActionKind = "equip"
	ActUnequip         ActionKind = "unequip"
	ActUse             ActionKind = "use"
	ActAttack          ActionKind = "attack"
	ActTalk            ActionKind = "talk"
	ActPlace           ActionKind = "place"
	ActUnlock          ActionKind = "unlock"
	ActIssueContract   ActionKind = "issue_contract"
	ActSignContract    ActionKind = "sign_contract"
	ActDeclineContract ActionKind = "decline_contract"
	ActWait            ActionKind = "wait"
)

// Action is a closed sum type: exactly one struct per action kind, nothing
// optional, no catch-all fields. Parsing an untrusted payload into one of
// these is the transport layer's job. Every variant is a comparable struct
// so actions can be matched structurally against the legal-action list.
type Action interface {
	Kind() ActionKind
}

type MoveAction struct{ To Vec2 }

type MoveTowardAction struct{ To Vec2 }

type LookAroundAction struct{}

type SearchContainerAction struct{ FeatureID string }

type PickUpAction struct{ ItemName string }

type DropAction struct{ ItemID string }

type EquipAction struct{ ItemID string }

type UnequipAction struct{ ItemID string }

type UseAction struct{ ItemID string }

type AttackAction struct{ TargetID string }

type TalkAction struct {
	TargetID string
	Text     string
}

type PlaceAction struct {
	ItemID string
	At     Vec2
}

type UnlockAction struct{ FeatureID string }

type IssueContractAction struct {
	TargetID   string
	Contents   string
	ExpiryTurn int
}

type SignContractAction struct{ ContractID string }

type DeclineContractAction struct{ ContractID string }

type WaitAction struct{}

func (MoveAction) Kind() ActionKind            { return ActMove }
func (MoveTowardAction) Kind() ActionKind      { return ActMoveToward }
func (LookAroundAction) Kind() ActionKind      { return ActLookAround }
func (SearchContainerAction) Kind() ActionKind { return ActSearchContainer }
func (PickUpAction) Kind() ActionKind          { return ActPickUp }
func (DropAction) Kind() ActionKind            { return ActDrop }
func (EquipAction) Kind() ActionKind           { return ActEquip }
func (UnequipAction) Kind() ActionKind         { return ActUnequip }
func (UseAction) Kind() ActionKind             { return ActUse }
func (AttackAction) Kind() ActionKind          { return ActAttack }
func (TalkAction) Kind() ActionKind            { return ActTalk }
func (PlaceAction) Kind() ActionKind           { return ActPlace }
func (UnlockAction) Kind() ActionKind          { return ActUnlock }
func (IssueContractAction) Kind() ActionKind   { return ActIssueContract }
func (SignContractAction) Kind() ActionKind    { return ActSignContract }
func (DeclineContractAction) Kind() ActionKind { return ActDeclineContract }
func (WaitAction) Kind() ActionKind            { return ActWait }

// NormalizeForLegality projects an action onto the form listed by the
// legal-action enumeration: free-text payloads are blanked (any text is
// legal once the structural part is), a pickup name is lowercased (the
// lookup is case-insensitive), and the unbounded move_toward destination and
// contract expiry are zeroed (the handler re-validates them).
func NormalizeForLegality(a Action) Action {
	switch v := a.(type) {
	case TalkAction:
		return TalkAction{TargetID: v.TargetID}
	case IssueContractAction:
		return IssueContractAction{TargetID: v.TargetID}
	case PickUpAction:
		return PickUpAction{ItemName: strings.ToLower(v.ItemName)}
	case MoveTowardAction:
		return MoveTowardAction{}
	default:
		return a
	}
}

// ActionResult is what every ExecuteAction call returns. Code is one of the
// protocol error codes on failure, empty on success. Validation always
// precedes mutation: a failed result means the world is untouched.
type ActionResult struct {
	OK      bool
	Code    string
	Message string
	Events  []*GameEvent
}

func fail(code, message string) ActionResult {
	return ActionResult{Code: code, Message: message}
}

func ok(message string, events ...*GameEvent) ActionResult {
	return ActionResult{OK: true, Message: message, Events: events}
}
