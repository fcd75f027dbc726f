package world

// BFS over 8-directional movement. Cardinal neighbors are enqueued before
// diagonals, so among equal-length paths the straighter one wins.

type pathOptions struct {
	// ignoreDestOccupancy lets the BFS enter an occupied destination tile.
	// MoveToward uses it to path at a character and back off one step.
	ignoreDestOccupancy bool
}

// passable reports whether a character may stand on p: in bounds, walkable
// terrain, no blocking feature, no living character.
func (w *World) passable(p Vec2) bool {
	t := w.TileAt(p)
	if t == nil || !t.Walkable() {
		return false
	}
	return w.CharacterAt(p) == nil
}

// diagonalSqueezes reports whether stepping diagonally from a to b would
// squeeze between two blocked orthogonal cells. The step is illegal only
// when both intermediates are non-walkable; a single blocked side is fine.
func (w *World) diagonalSqueezes(a, b Vec2) bool {
	if a.X == b.X || a.Y == b.Y {
		return false
	}
	side1 := w.TileAt(Vec2{b.X, a.Y})
	side2 := w.TileAt(Vec2{a.X, b.Y})
	blocked := func(t *Tile) bool { return t == nil || !t.Walkable() }
	return blocked(side1) && blocked(side2)
}

func (w *World) stepAllowed(from, to, dest Vec2, opt pathOptions) bool {
	if w.diagonalSqueezes(from, to) {
		return false
	}
	if w.passable(to) {
		return true
	}
	if opt.ignoreDestOccupancy && to == dest {
		t := w.TileAt(to)
		return t != nil && t.Walkable()
	}
	return false
}

// FindPath returns the BFS shortest path from `from` to `to`, excluding
// `from` itself, or nil when no path exists within maxSteps edges. A request
// to the current tile returns an empty path.
func FindPath(w *World, from, to Vec2, maxSteps int) []Vec2 {
	return w.findPath(from, to, maxSteps, pathOptions{})
}

func (w *World) findPath(from, to Vec2, maxSteps int, opt pathOptions) []Vec2 {
	if !w.InBounds(from) || !w.InBounds(to) || maxSteps < 0 {
		return nil
	}
	if from == to {
		return []Vec2{}
	}

	type node struct {
		pos   Vec2
		steps int
	}
	prev := map[Vec2]Vec2{from: from}
	queue := []node{{from, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.steps >= maxSteps {
			continue
		}
		for _, n := range Neighbors8(cur.pos) {
			if _, seen := prev[n]; seen {
				continue
			}
			if !w.stepAllowed(cur.pos, n, to, opt) {
				continue
			}
			prev[n] = cur.pos
			if n == to {
				return reconstruct(prev, from, to)
			}
			queue = append(queue, node{n, cur.steps + 1})
		}
	}
	return nil
}

func reconstruct(prev map[Vec2]Vec2, from, to Vec2) []Vec2 {
	var rev []Vec2
	for p := to; p != from; p = prev[p] {
		rev = append(rev, p)
	}
	out := make([]Vec2, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}

// ReachableTiles returns every tile the character can reach within its
// movement range, excluding the tile it stands on.
func ReachableTiles(w *World, c *Character) []Vec2 {
	var out []Vec2
	type node struct {
		pos   Vec2
		steps int
	}
	seen := map[Vec2]bool{c.Pos: true}
	queue := []node{{c.Pos, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.steps >= c.MovementRange {
			continue
		}
		for _, n := range Neighbors8(cur.pos) {
			if seen[n] {
				continue
			}
			if !w.passable(n) || w.diagonalSqueezes(cur.pos, n) {
				continue
			}
			seen[n] = true
			out = append(out, n)
			queue = append(queue, node{n, cur.steps + 1})
		}
	}
	return out
}
