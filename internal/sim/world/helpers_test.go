package world

import "testing"

// buildWorld turns an ascii picture into a world. '#' wall, '.' ground,
// ',' grass, '=' bars, '~' water.
func buildWorld(t *testing.T, rows ...string) *World {
	t.Helper()
	if len(rows) == 0 {
		t.Fatal("buildWorld: no rows")
	}
	w, err := New(Config{Width: len(rows[0]), Height: len(rows), Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for y, row := range rows {
		if len(row) != w.Width {
			t.Fatalf("buildWorld: row %d has width %d, want %d", y, len(row), w.Width)
		}
		for x, r := range row {
			var terr Terrain
			switch r {
			case '#':
				terr = TerrainWall
			case '.':
				terr = TerrainGround
			case ',':
				terr = TerrainGrass
			case '=':
				terr = TerrainBars
			case '~':
				terr = TerrainWater
			default:
				t.Fatalf("buildWorld: unknown symbol %q", string(r))
			}
			w.Tiles[y][x].Terrain = terr
		}
	}
	return w
}

func addChar(t *testing.T, w *World, id string, pos Vec2) *Character {
	t.Helper()
	c := &Character{ID: id, Name: id, Pos: pos}
	if err := w.AddCharacter(c); err != nil {
		t.Fatalf("AddCharacter(%s): %v", id, err)
	}
	return c
}

func mustOK(t *testing.T, res ActionResult) ActionResult {
	t.Helper()
	if !res.OK {
		t.Fatalf("action failed: %s %s", res.Code, res.Message)
	}
	return res
}

func mustFail(t *testing.T, res ActionResult, code string) ActionResult {
	t.Helper()
	if res.OK {
		t.Fatalf("action succeeded, want failure %s: %s", code, res.Message)
	}
	if res.Code != code {
		t.Fatalf("failure code = %s (%s), want %s", res.Code, res.Message, code)
	}
	return res
}
