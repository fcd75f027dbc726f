package world

import (
	"fmt"

	"gridfall.ai/internal/protocol"
)

func (w *World) execMove(c *Character, a MoveAction) ActionResult {
	if c.MovementPrevented() {
		return fail(protocol.ErrForbidden, "an effect prevents movement")
	}
	if !w.InBounds(a.To) {
		return fail(protocol.ErrOutOfRange, fmt.Sprintf("%d,%d is out of bounds", a.To.X, a.To.Y))
	}
	if other := w.CharacterAt(a.To); other != nil && other.ID != c.ID {
		return fail(protocol.ErrBlocked, fmt.Sprintf("%s is standing there", other.Name))
	}
	path := FindPath(w, c.Pos, a.To, c.MovementRange)
	if path == nil {
		return fail(protocol.ErrBlocked, fmt.Sprintf("no path to %d,%d within range", a.To.X, a.To.Y))
	}
	if len(path) == 0 {
		return ok(fmt.Sprintf("%s is already at %d,%d", c.Name, a.To.X, a.To.Y))
	}
	return w.walkPath(c, path, fmt.Sprintf("%s moved to %d,%d", c.Name, a.To.X, a.To.Y))
}

func (w *World) execMoveToward(c *Character, a MoveTowardAction) ActionResult {
	if c.MovementPrevented() {
		return fail(protocol.ErrForbidden, "an effect prevents movement")
	}
	if !w.InBounds(a.To) {
		return fail(protocol.ErrOutOfRange, fmt.Sprintf("%d,%d is out of bounds", a.To.X, a.To.Y))
	}
	if a.To == c.Pos {
		return ok(fmt.Sprintf("%s is already at %d,%d", c.Name, a.To.X, a.To.Y))
	}
	// Path with an effectively unlimited budget, then take at most one
	// turn's worth of steps toward the destination.
	budget := 4 * (w.Width + w.Height)
	full := w.findPath(c.Pos, a.To, budget, pathOptions{ignoreDestOccupancy: true})
	if full == nil {
		return fail(protocol.ErrBlocked, fmt.Sprintf("no route toward %d,%d", a.To.X, a.To.Y))
	}
	steps := full
	if len(steps) > c.MovementRange {
		steps = steps[:c.MovementRange]
	}
	// Back off one step when the truncated endpoint is occupied (pathing at
	// a character lands on its tile).
	for len(steps) > 0 && w.CharacterAt(steps[len(steps)-1]) != nil {
		steps = steps[:len(steps)-1]
	}
	if len(steps) == 0 {
		return ok(fmt.Sprintf("%s is already as close to %d,%d as possible", c.Name, a.To.X, a.To.Y))
	}
	remaining := len(full) - len(steps)
	msg := fmt.Sprintf("%s arrived at %d,%d", c.Name, a.To.X, a.To.Y)
	if remaining > 0 {
		msg = fmt.Sprintf("%s moved toward %d,%d (%d tiles remaining)", c.Name, a.To.X, a.To.Y, remaining)
	}
	return w.walkPath(c, steps, msg)
}

// walkPath commits movement along the given steps. Each step is checked in
// order for an untriggered trap; the first trap found stops movement on its
// tile, fires, and discards the rest of the path. Traps are single-use.
func (w *World) walkPath(c *Character, steps []Vec2, doneMsg string) ActionResult {
	from := c.Pos
	for _, step := range steps {
		t := w.TileAt(step)
		f := t.Feature
		if f == nil || f.Kind != FeatureTrap || f.Triggered {
			continue
		}
		c.Pos = step
		events := w.springTrap(c, t, f)
		events = append([]*GameEvent{w.appendEvent(GameEvent{
			ActorID:     c.ID,
			Pos:         &step,
			Description: fmt.Sprintf("%s stopped at %d,%d", c.Name, step.X, step.Y),
		}, from, step)}, events...)
		return ok(fmt.Sprintf("%s was interrupted by a trap at %d,%d", c.Name, step.X, step.Y), events...)
	}
	dest := steps[len(steps)-1]
	c.Pos = dest
	ev := w.appendEvent(GameEvent{
		ActorID:     c.ID,
		Pos:         &dest,
		Description: doneMsg,
	}, from, dest)
	return ok(doneMsg, ev)
}

// springTrap fires the trap under the character and removes it from the
// tile. Traps never fire twice, owner or not.
func (w *World) springTrap(c *Character, t *Tile, f *Feature) []*GameEvent {
	f.Triggered = true
	t.Feature = nil
	events := []*GameEvent{w.appendEvent(GameEvent{
		TargetID:    c.ID,
		Pos:         &c.Pos,
		Description: fmt.Sprintf("%s triggered a trap at %d,%d", c.Name, c.Pos.X, c.Pos.Y),
	}, c.Pos)}
	if f.Effect != nil && w.ApplyEffect(c, f.Effect) {
		events = append(events, w.appendEvent(GameEvent{
			TargetID:    c.ID,
			Pos:         &c.Pos,
			Description: fmt.Sprintf("%s is afflicted by %s", c.Name, f.Effect.Name),
		}, c.Pos))
	}
	return events
}

func (w *World) execLookAround(c *Character) ActionResult {
	vs := GetVisibleTiles(w, c)
	for p := range vs.Tiles {
		w.rememberTile(c, p)
	}
	return ok(fmt.Sprintf("%s surveyed %d tiles", c.Name, len(vs.Tiles)))
}

// rememberTile snapshots what the character can perceive on the tile right
// now into its private map memory. Traps the character never witnessed are
// left out of the summary.
func (w *World) rememberTile(c *Character, p Vec2) {
	t := w.TileAt(p)
	if t == nil {
		return
	}
	m := TileMemory{Terrain: t.Terrain, LastSeenTurn: w.Turn}
	for _, it := range t.Items {
		m.Items = append(m.Items, it.Name)
	}
	if f := t.Feature; f != nil && f.VisibleTo(c.ID) {
		m.Feature = f.Summary()
	}
	if other := w.CharacterAt(p); other != nil && other.ID != c.ID {
		m.Character = other.Name
	}
	c.Remember(p, m)
}
