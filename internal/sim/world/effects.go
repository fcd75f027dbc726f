package world

import "fmt"

// TriggerPoint names the moments an effect's actions can fire.
type TriggerPoint string

const (
	TriggerTurnStart TriggerPoint = "turn_start"
	TriggerTurnEnd   TriggerPoint = "turn_end"
	TriggerOnAttack  TriggerPoint = "on_attack"
	TriggerOnDamaged TriggerPoint = "on_damaged"
	TriggerOnExpired TriggerPoint = "on_expired"
)

// EffectActionKind tags the EffectAction variant.
type EffectActionKind string

const (
	EffectDamage      EffectActionKind = "damage"
	EffectHeal        EffectActionKind = "heal"
	EffectModifyStat  EffectActionKind = "modify_stat"
	EffectMessage     EffectActionKind = "message"
	EffectCustom      EffectActionKind = "custom"
	EffectApplyEffect EffectActionKind = "apply_effect"
)

// Stat modifier operations.
const (
	StatOpAdd      = "add"
	StatOpMultiply = "multiply"
)

// EffectAction is one step of a trigger's action list, keyed by Kind.
type EffectAction struct {
	Kind EffectActionKind `json:"kind"`

	Amount int `json:"amount,omitempty"` // damage, heal

	Stat  string  `json:"stat,omitempty"`  // modify_stat
	Op    string  `json:"op,omitempty"`    // modify_stat: add | multiply
	Value float64 `json:"value,omitempty"` // modify_stat

	Text   string  `json:"text,omitempty"`   // message
	Prompt string  `json:"prompt,omitempty"` // custom
	Effect *Effect `json:"effect,omitempty"` // apply_effect, nested
}

type EffectTrigger struct {
	Point   TriggerPoint   `json:"point"`
	Actions []EffectAction `json:"actions"`
}

// Effect is a timed buff/debuff on a character. Duration counts down once
// per turn; the effect is removed the turn it reaches exactly 0. Duration 0
// at creation means permanent.
type Effect struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Duration         int             `json:"duration"`
	PreventsMovement bool            `json:"prevents_movement,omitempty"`
	Triggers         []EffectTrigger `json:"triggers,omitempty"`
}

// Clone deep-copies the effect so that an applied instance never shares
// mutable state with its template.
func (e *Effect) Clone() *Effect {
	if e == nil {
		return nil
	}
	out := *e
	out.Triggers = make([]EffectTrigger, len(e.Triggers))
	for i, tr := range e.Triggers {
		actions := make([]EffectAction, len(tr.Actions))
		for j, a := range tr.Actions {
			actions[j] = a
			actions[j].Effect = a.Effect.Clone()
		}
		out.Triggers[i] = EffectTrigger{Point: tr.Point, Actions: actions}
	}
	return &out
}

// PendingCustomAction is the escape hatch for narrative effects: the engine
// does not interpret the prompt, it hands it back to the orchestrator.
type PendingCustomAction struct {
	CharacterID string `json:"character_id"`
	EffectID    string `json:"effect_id"`
	Prompt      string `json:"prompt"`
}

// ProcessOutcome is what a trigger-point pass produced.
type ProcessOutcome struct {
	Events  []*GameEvent
	Pending []PendingCustomAction
	Died    bool
}

// ApplyEffect attaches a copy of the effect to the character. Re-applying an
// effect id already present is a no-op and returns false.
func (w *World) ApplyEffect(c *Character, e *Effect) bool {
	if e == nil || c.hasEffect(e.ID) {
		return false
	}
	c.Effects = append(c.Effects, e.Clone())
	return true
}

func (w *World) RemoveEffect(c *Character, effectID string) bool {
	for i, e := range c.Effects {
		if e.ID == effectID {
			c.Effects = append(c.Effects[:i:i], c.Effects[i+1:]...)
			return true
		}
	}
	return false
}

// ProcessEffects runs every active effect's actions bound to the given
// trigger point, in effect order then action order. A lethal damage action
// stops further processing.
func (w *World) ProcessEffects(c *Character, point TriggerPoint) ProcessOutcome {
	var out ProcessOutcome
	// Effects may be added mid-pass (apply_effect); iterate over a stable
	// view of the list as it was when the pass started.
	active := append([]*Effect(nil), c.Effects...)
	for _, e := range active {
		if !c.hasEffect(e.ID) {
			continue // removed by an earlier action this pass
		}
		for _, tr := range e.Triggers {
			if tr.Point != point {
				continue
			}
			for _, a := range tr.Actions {
				died := w.applyEffectAction(c, e, a, &out)
				if died {
					out.Died = true
					return out
				}
			}
		}
	}
	return out
}

func (w *World) applyEffectAction(c *Character, e *Effect, a EffectAction, out *ProcessOutcome) (died bool) {
	switch a.Kind {
	case EffectDamage:
		ev, dead := w.damageCharacter(c, a.Amount, "", fmt.Sprintf("%s suffers %d damage from %s", c.Name, a.Amount, e.Name))
		out.Events = append(out.Events, ev...)
		return dead

	case EffectHeal:
		healed := a.Amount
		if c.HP+healed > c.MaxHP {
			healed = c.MaxHP - c.HP
		}
		if healed <= 0 {
			return false
		}
		c.HP += healed
		out.Events = append(out.Events, w.appendEvent(GameEvent{
			TargetID:    c.ID,
			Pos:         &c.Pos,
			Description: fmt.Sprintf("%s recovers %d HP from %s", c.Name, healed, e.Name),
		}, c.Pos))
		return false

	case EffectApplyEffect:
		if a.Effect == nil || !w.ApplyEffect(c, a.Effect) {
			return false
		}
		out.Events = append(out.Events, w.appendEvent(GameEvent{
			TargetID:    c.ID,
			Pos:         &c.Pos,
			Description: fmt.Sprintf("%s is afflicted by %s", c.Name, a.Effect.Name),
		}, c.Pos))
		return false

	case EffectMessage:
		out.Events = append(out.Events, w.appendEvent(GameEvent{
			TargetID:    c.ID,
			Pos:         &c.Pos,
			Message:     a.Text,
			Description: a.Text,
		}, c.Pos))
		return false

	case EffectModifyStat:
		// Stat modifiers never mutate the character. They are re-derived on
		// demand via EffectStatModifier at the point of use.
		return false

	case EffectCustom:
		out.Pending = append(out.Pending, PendingCustomAction{
			CharacterID: c.ID,
			EffectID:    e.ID,
			Prompt:      a.Prompt,
		})
		return false
	}
	return false
}

// TickEffectDurations decrements every positive duration by 1 and removes
// effects that hit exactly 0, firing their on_expired actions. The removed
// effects are returned so the caller can notify the character.
func (w *World) TickEffectDurations(c *Character) []*Effect {
	var expired []*Effect
	remaining := c.Effects[:0]
	for _, e := range c.Effects {
		if e.Duration > 0 {
			e.Duration--
			if e.Duration == 0 {
				expired = append(expired, e)
				continue
			}
		}
		remaining = append(remaining, e)
	}
	c.Effects = remaining

	for _, e := range expired {
		var out ProcessOutcome
		for _, tr := range e.Triggers {
			if tr.Point != TriggerOnExpired {
				continue
			}
			for _, a := range tr.Actions {
				if w.applyEffectAction(c, e, a, &out) {
					return expired
				}
			}
		}
	}
	return expired
}

// EffectStatModifier aggregates every modify_stat action bound to the given
// trigger point and stat across the character's active effects. Additive
// values sum; multiplicative values multiply, starting from 1.
func EffectStatModifier(c *Character, point TriggerPoint, stat string) (add float64, mult float64) {
	mult = 1
	for _, e := range c.Effects {
		for _, tr := range e.Triggers {
			if tr.Point != point {
				continue
			}
			for _, a := range tr.Actions {
				if a.Kind != EffectModifyStat || a.Stat != stat {
					continue
				}
				switch a.Op {
				case StatOpMultiply:
					mult *= a.Value
				default:
					add += a.Value
				}
			}
		}
	}
	return add, mult
}
