package world

// Vec2 is a tile coordinate. X grows right, Y grows down.
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) ToArray() [2]int { return [2]int{v.X, v.Y} }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Chebyshev distance: a diagonal step counts as 1. Used for adjacency and
// movement-range checks.
func Chebyshev(a, b Vec2) int {
	return maxInt(abs(a.X-b.X), abs(a.Y-b.Y))
}

// Manhattan distance. Used for talk and contract range checks.
func Manhattan(a, b Vec2) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Adjacent8 reports whether a and b touch, diagonals included. A tile is not
// adjacent to itself.
func Adjacent8(a, b Vec2) bool {
	return a != b && Chebyshev(a, b) == 1
}

// neighborOffsets lists the 8 directions, cardinals first. BFS visits
// neighbors in this order, which biases tie-broken paths toward
// straight-looking routes.
var neighborOffsets = [8]Vec2{
	{0, -1}, {0, 1}, {-1, 0}, {1, 0},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// Neighbors8 returns the 8 surrounding coordinates, cardinals before
// diagonals. Out-of-bounds filtering is the caller's job.
func Neighbors8(p Vec2) [8]Vec2 {
	var out [8]Vec2
	for i, d := range neighborOffsets {
		out[i] = p.Add(d)
	}
	return out
}
