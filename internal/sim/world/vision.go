package world

// Recursive shadowcasting over eight octants. Each octant sweeps rows
// outward from the origin and accumulates the angular intervals shadowed by
// walls; a cell is visible unless its own interval is already fully covered.
// Unlike Bresenham ray sampling this is symmetric: if A sees B across open
// ground, B sees A.

// octantTransform maps octant-local (row, col) onto a world delta:
// dx = col*xx + row*xy, dy = col*yx + row*yy.
type octantTransform struct {
	xx, xy, yx, yy int
}

var octants = [8]octantTransform{
	{1, 0, 0, -1},  // north, sweeping east
	{-1, 0, 0, -1}, // north, sweeping west
	{1, 0, 0, 1},   // south, sweeping east
	{-1, 0, 0, 1},  // south, sweeping west
	{0, 1, -1, 0},  // east, sweeping north
	{0, 1, 1, 0},   // east, sweeping south
	{0, -1, -1, 0}, // west, sweeping north
	{0, -1, 1, 0},  // west, sweeping south
}

// shadowInterval is a closed angular slope range [start, end] within an
// octant's [0, 1] sweep.
type shadowInterval struct {
	start, end float64
}

// shadowList is a sorted, coalesced set of shadow intervals.
type shadowList struct {
	intervals []shadowInterval
}

// covers reports whether iv lies entirely inside one accumulated interval.
func (s *shadowList) covers(iv shadowInterval) bool {
	for _, v := range s.intervals {
		if v.start <= iv.start && iv.end <= v.end {
			return true
		}
	}
	return false
}

// add merges iv into the list, keeping it sorted and coalescing overlaps.
func (s *shadowList) add(iv shadowInterval) {
	pos := 0
	for pos < len(s.intervals) && s.intervals[pos].start < iv.start {
		pos++
	}
	s.intervals = append(s.intervals, shadowInterval{})
	copy(s.intervals[pos+1:], s.intervals[pos:])
	s.intervals[pos] = iv

	merged := s.intervals[:1]
	for _, v := range s.intervals[1:] {
		last := &merged[len(merged)-1]
		if v.start <= last.end {
			if v.end > last.end {
				last.end = v.end
			}
			continue
		}
		merged = append(merged, v)
	}
	s.intervals = merged
}

// full reports whether the whole [0, 1] sweep is in shadow.
func (s *shadowList) full() bool {
	return len(s.intervals) == 1 && s.intervals[0].start <= 0 && s.intervals[0].end >= 1
}

// ComputeVisibleSet returns every position visible from origin within
// maxRange (Euclidean radius). The origin tile is always included.
func ComputeVisibleSet(w *World, origin Vec2, maxRange int) map[Vec2]bool {
	visible := map[Vec2]bool{origin: true}
	if maxRange <= 0 {
		return visible
	}
	for _, oct := range octants {
		castOctant(w, origin, maxRange, oct, visible)
	}
	addCornerWalls(w, visible)
	return visible
}

func castOctant(w *World, origin Vec2, maxRange int, oct octantTransform, visible map[Vec2]bool) {
	var shadows shadowList
	rangeSq := maxRange * maxRange
	for row := 1; row <= maxRange; row++ {
		if shadows.full() {
			return
		}
		for col := 0; col <= row; col++ {
			p := Vec2{
				X: origin.X + col*oct.xx + row*oct.xy,
				Y: origin.Y + col*oct.yx + row*oct.yy,
			}
			if !w.InBounds(p) {
				continue
			}
			if col*col+row*row > rangeSq {
				continue
			}
			iv := shadowInterval{
				start: float64(col) / float64(row+1),
				end:   float64(col+1) / float64(row),
			}
			if shadows.covers(iv) {
				continue
			}
			visible[p] = true
			if w.Tiles[p.Y][p.X].Terrain.BlocksVision() {
				shadows.add(iv)
				if shadows.full() {
					break
				}
			}
		}
	}
}

// addCornerWalls adds wall tiles that the cast itself shadowed but that sit
// orthogonally adjacent to at least two cast-visible walls. Two visible wall
// faces imply the corner joining them; without this pass the corner reads as
// a hole. Candidates are always counted against the frozen cast output, never
// against each other, so the pass is a single step and repeated computations
// over the same world agree. Remembered (stale) walls never qualify.
func addCornerWalls(w *World, visible map[Vec2]bool) {
	cast := make(map[Vec2]bool, len(visible))
	for p := range visible {
		cast[p] = true
	}
	isCastWall := func(p Vec2) bool {
		return cast[p] && w.InBounds(p) && w.Tiles[p.Y][p.X].Terrain == TerrainWall
	}

	candidates := map[Vec2]bool{}
	for p := range cast {
		if !isCastWall(p) {
			continue
		}
		for _, d := range [4]Vec2{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
			n := p.Add(d)
			if w.InBounds(n) && !cast[n] && w.Tiles[n.Y][n.X].Terrain == TerrainWall {
				candidates[n] = true
			}
		}
	}
	for p := range candidates {
		count := 0
		for _, d := range [4]Vec2{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
			if isCastWall(p.Add(d)) {
				count++
			}
		}
		if count >= 2 {
			visible[p] = true
		}
	}
}

// LineOfSight reports whether `to` is visible from `from`, ignoring any
// particular character's view distance. The cast radius is at least the
// world's LOS range so that nearby queries behave identically to a full
// field-of-view computation.
func LineOfSight(w *World, from, to Vec2) bool {
	rng := w.losRange
	if d := Manhattan(from, to); d > rng {
		rng = d
	}
	return ComputeVisibleSet(w, from, rng)[to]
}

// VisibleState is what a character currently perceives: tiles in view plus
// the characters and loose items standing on them.
type VisibleState struct {
	Tiles      map[Vec2]*Tile
	Characters []*Character
	Items      []*Item
	ItemPos    map[string]Vec2
}

// GetVisibleTiles computes the character's current field of view. Trap
// features invisible to the character are not filtered here; presentation
// filtering is done where tiles are summarized.
func GetVisibleTiles(w *World, c *Character) VisibleState {
	vs := VisibleState{
		Tiles:   map[Vec2]*Tile{},
		ItemPos: map[string]Vec2{},
	}
	for p := range ComputeVisibleSet(w, c.Pos, c.ViewDistance) {
		t := w.TileAt(p)
		if t == nil {
			continue
		}
		vs.Tiles[p] = t
		for _, it := range t.Items {
			vs.Items = append(vs.Items, it)
			vs.ItemPos[it.ID] = p
		}
		if other := w.CharacterAt(p); other != nil && other.ID != c.ID {
			vs.Characters = append(vs.Characters, other)
		}
	}
	return vs
}
