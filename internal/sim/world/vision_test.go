package world

import "testing"

func TestComputeVisibleSet_OriginAlwaysVisible(t *testing.T) {
	w := buildWorld(t,
		"###",
		"#.#",
		"###",
	)
	vis := ComputeVisibleSet(w, Vec2{1, 1}, 0)
	if !vis[Vec2{1, 1}] {
		t.Fatal("origin not visible at range 0")
	}
}

func TestComputeVisibleSet_WallCastsShadow(t *testing.T) {
	w := buildWorld(t,
		".......",
		".......",
		"...#...",
		".......",
		".......",
	)
	vis := ComputeVisibleSet(w, Vec2{1, 2}, 10)
	if !vis[Vec2{3, 2}] {
		t.Error("blocking wall itself should be visible")
	}
	if vis[Vec2{5, 2}] {
		t.Error("tile directly behind the wall should be shadowed")
	}
	if vis[Vec2{6, 2}] {
		t.Error("far tile behind the wall should be shadowed")
	}
	if !vis[Vec2{5, 0}] {
		t.Error("tile outside the shadow cone should be visible")
	}
}

func TestComputeVisibleSet_RadiusIsEuclidean(t *testing.T) {
	w := buildWorld(t,
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
	)
	origin := Vec2{5, 5}
	vis := ComputeVisibleSet(w, origin, 5)
	if !vis[Vec2{8, 9}] { // 3-4-5 triangle, exactly on the rim
		t.Error("tile at Euclidean distance 5 should be visible")
	}
	if vis[Vec2{9, 9}] { // sqrt(32) > 5
		t.Error("diagonal tile past the radius should not be visible")
	}
	if !vis[Vec2{5, 0}] {
		t.Error("straight tile at distance 5 should be visible")
	}
}

func TestComputeVisibleSet_RoomCornersFilledIn(t *testing.T) {
	w := buildWorld(t,
		"#######",
		"#.....#",
		"#.....#",
		"#.....#",
		"#######",
	)
	vis := ComputeVisibleSet(w, Vec2{3, 2}, 10)
	// Every tile of the enclosing wall ring should read as visible,
	// corners included, so the room renders without gaps.
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			if !vis[Vec2{x, y}] {
				t.Errorf("tile %d,%d of the room should be visible", x, y)
			}
		}
	}
}

func TestComputeVisibleSet_IsolatedShadowedWallStaysHidden(t *testing.T) {
	// The corner pass only completes walls hugging at least two visible
	// walls. An isolated wall sitting in another wall's shadow must not be
	// promoted to visible.
	w := buildWorld(t,
		".....",
		".....",
		"..#.#",
		".....",
		".....",
	)
	vis := ComputeVisibleSet(w, Vec2{0, 2}, 10)
	if !vis[Vec2{2, 2}] {
		t.Error("near wall should be visible")
	}
	if vis[Vec2{4, 2}] {
		t.Error("isolated wall in shadow should stay hidden")
	}
}

func TestComputeVisibleSet_RepeatedCallsAgree(t *testing.T) {
	// A solid wall block seen from an oblique angle produces several corner
	// candidates at once. The corner pass must judge each of them against the
	// cast's own output only, so the visible set cannot depend on the order
	// the candidates are examined in.
	w := buildWorld(t,
		"..........",
		"...###....",
		"...###....",
		"...###....",
		"..........",
	)
	origin := Vec2{0, 0}
	first := ComputeVisibleSet(w, origin, 20)
	for i := 0; i < 300; i++ {
		got := ComputeVisibleSet(w, origin, 20)
		if len(got) != len(first) {
			t.Fatalf("run %d: %d visible tiles, first run had %d", i, len(got), len(first))
		}
		for p := range first {
			if !got[p] {
				t.Fatalf("run %d: tile %v visible on the first run but not this one", i, p)
			}
		}
	}
}

func TestComputeVisibleSet_CornerPassDoesNotCascade(t *testing.T) {
	// A wall chain running away from the viewer: the first shadowed link may
	// qualify as a corner, but its promotion must not recruit the link behind
	// it. Only cast-visible walls count toward the two-neighbor rule.
	w := buildWorld(t,
		"..........",
		"...###....",
		"...###....",
		"...###....",
		"..........",
	)
	vis := ComputeVisibleSet(w, Vec2{0, 0}, 20)
	cast := map[Vec2]bool{Vec2{0, 0}: true}
	for _, oct := range octants {
		castOctant(w, Vec2{0, 0}, 20, oct, cast)
	}
	for p := range vis {
		if cast[p] || w.Tiles[p.Y][p.X].Terrain != TerrainWall {
			continue
		}
		count := 0
		for _, d := range [4]Vec2{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
			n := p.Add(d)
			if cast[n] && w.InBounds(n) && w.Tiles[n.Y][n.X].Terrain == TerrainWall {
				count++
			}
		}
		if count < 2 {
			t.Errorf("wall %v promoted with only %d cast-visible wall neighbors", p, count)
		}
	}
}

func TestComputeVisibleSet_BarsAndWaterDoNotBlock(t *testing.T) {
	w := buildWorld(t,
		".......",
		".=.~...",
		".......",
	)
	vis := ComputeVisibleSet(w, Vec2{0, 1}, 10)
	if !vis[Vec2{2, 1}] {
		t.Error("tile behind bars should be visible")
	}
	if !vis[Vec2{5, 1}] {
		t.Error("tile behind water should be visible")
	}
}

func TestLineOfSight(t *testing.T) {
	w := buildWorld(t,
		".......",
		"...#...",
		".......",
	)
	if LineOfSight(w, Vec2{1, 1}, Vec2{5, 1}) {
		t.Error("sight line through a wall should be blocked")
	}
	if !LineOfSight(w, Vec2{1, 0}, Vec2{5, 0}) {
		t.Error("clear sight line should pass")
	}
	if !LineOfSight(w, Vec2{1, 1}, Vec2{3, 1}) {
		t.Error("the wall tile itself should be sightable")
	}
}

func TestGetVisibleTiles_CollectsCharactersAndItems(t *testing.T) {
	w := buildWorld(t,
		".......",
		".......",
		".......",
	)
	c := addChar(t, w, "viewer", Vec2{1, 1})
	other := addChar(t, w, "other", Vec2{4, 1})
	w.TileAt(Vec2{3, 2}).Items = append(w.TileAt(Vec2{3, 2}).Items, &Item{ID: "it_rock", Name: "Rock", Kind: ItemMisc})

	vs := GetVisibleTiles(w, c)
	if len(vs.Characters) != 1 || vs.Characters[0].ID != other.ID {
		t.Fatalf("visible characters = %v, want [other]", vs.Characters)
	}
	if len(vs.Items) != 1 || vs.Items[0].ID != "it_rock" {
		t.Fatalf("visible items = %v, want [it_rock]", vs.Items)
	}
	if vs.ItemPos["it_rock"] != (Vec2{3, 2}) {
		t.Fatalf("item position = %v", vs.ItemPos["it_rock"])
	}
}

func TestWitnessIDs_UsesViewDistance(t *testing.T) {
	w := buildWorld(t,
		"..............",
		"..............",
	)
	near := addChar(t, w, "near", Vec2{1, 0})
	far := addChar(t, w, "far", Vec2{13, 0})
	near.ViewDistance = 8
	far.ViewDistance = 3

	ids := w.WitnessIDs(Vec2{5, 0})
	if len(ids) != 1 || ids[0] != "near" {
		t.Fatalf("witnesses = %v, want [near]", ids)
	}
}
