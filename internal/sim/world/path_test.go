package world

import "testing"

func TestFindPath_StraightLine(t *testing.T) {
	w := buildWorld(t,
		".......",
		".......",
		".......",
	)
	path := FindPath(w, Vec2{1, 1}, Vec2{4, 1}, 10)
	if len(path) != 3 {
		t.Fatalf("path length = %d (%v), want 3", len(path), path)
	}
	if path[len(path)-1] != (Vec2{4, 1}) {
		t.Fatalf("path ends at %v, want 4,1", path[len(path)-1])
	}
}

func TestFindPath_SameTile(t *testing.T) {
	w := buildWorld(t, "...")
	path := FindPath(w, Vec2{1, 0}, Vec2{1, 0}, 5)
	if path == nil {
		t.Fatal("path to own tile should be empty, not nil")
	}
	if len(path) != 0 {
		t.Fatalf("path = %v, want empty", path)
	}
}

func TestFindPath_DetoursAroundWall(t *testing.T) {
	w := buildWorld(t,
		".....",
		".###.",
		".....",
	)
	path := FindPath(w, Vec2{0, 1}, Vec2{4, 1}, 10)
	if path == nil {
		t.Fatal("expected a detour path")
	}
	for _, p := range path {
		if !w.TileAt(p).Walkable() {
			t.Fatalf("path runs through non-walkable tile %v", p)
		}
	}
	if len(path) != 4 {
		t.Fatalf("detour length = %d (%v), want 4", len(path), path)
	}
}

func TestFindPath_LivingCharacterBlocks(t *testing.T) {
	w := buildWorld(t,
		"#####",
		".....",
		"#####",
	)
	blocker := addChar(t, w, "blocker", Vec2{2, 1})
	if path := FindPath(w, Vec2{0, 1}, Vec2{4, 1}, 10); path != nil {
		t.Fatalf("path through an occupied corridor = %v, want nil", path)
	}

	// Dead characters stop blocking.
	blocker.Alive = false
	if path := FindPath(w, Vec2{0, 1}, Vec2{4, 1}, 10); path == nil {
		t.Fatal("corpse should not block the corridor")
	}
}

func TestFindPath_DiagonalSqueezeForbidden(t *testing.T) {
	w := buildWorld(t,
		".#.",
		"#..",
		"...",
	)
	// 0,0 -> 1,1 would squeeze between the two walls.
	path := FindPath(w, Vec2{0, 0}, Vec2{1, 1}, 10)
	if len(path) == 1 {
		t.Fatalf("squeeze step taken: %v", path)
	}
}

func TestFindPath_OneOpenSideAllowsDiagonal(t *testing.T) {
	w := buildWorld(t,
		".#.",
		"...",
	)
	path := FindPath(w, Vec2{0, 0}, Vec2{1, 1}, 10)
	if len(path) != 1 {
		t.Fatalf("diagonal with one open side = %v, want single step", path)
	}
}

func TestFindPath_RespectsMaxSteps(t *testing.T) {
	w := buildWorld(t, "......")
	if path := FindPath(w, Vec2{0, 0}, Vec2{5, 0}, 4); path != nil {
		t.Fatalf("path over budget = %v, want nil", path)
	}
	if path := FindPath(w, Vec2{0, 0}, Vec2{5, 0}, 5); len(path) != 5 {
		t.Fatalf("path within budget = %v, want 5 steps", path)
	}
}

func TestReachableTiles_OpenField(t *testing.T) {
	w := buildWorld(t,
		".......",
		".......",
		".......",
		".......",
		".......",
		".......",
		".......",
	)
	c := addChar(t, w, "c", Vec2{3, 3})
	c.MovementRange = 2
	got := ReachableTiles(w, c)
	// A Chebyshev disc of radius 2 minus the start tile.
	if len(got) != 24 {
		t.Fatalf("reachable = %d tiles, want 24", len(got))
	}
	for _, p := range got {
		if p == c.Pos {
			t.Fatal("reachable tiles must exclude the start")
		}
		if Chebyshev(p, c.Pos) > 2 {
			t.Fatalf("tile %v beyond movement range", p)
		}
	}
}

func TestReachableTiles_ExcludesOccupied(t *testing.T) {
	w := buildWorld(t,
		"...",
		"...",
	)
	c := addChar(t, w, "c", Vec2{0, 0})
	addChar(t, w, "other", Vec2{1, 0})
	for _, p := range ReachableTiles(w, c) {
		if p == (Vec2{1, 0}) {
			t.Fatal("occupied tile listed as reachable")
		}
	}
}
