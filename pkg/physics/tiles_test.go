// pkg/physics/tiles_test.go
package physics

import "testing"

func TestTileRect_Intersects(t *testing.T) {
	a := TileRect{X: 0, Y: 0, W: 2, H: 2}

	tests := []struct {
		name     string
		other    TileRect
		expected bool
	}{
		{"overlap", TileRect{X: 1, Y: 1, W: 2, H: 2}, true},
		{"contained", TileRect{X: 0, Y: 0, W: 1, H: 1}, true},
		{"adjacent_right", TileRect{X: 2, Y: 0, W: 1, H: 1}, false},
		{"far", TileRect{X: 10, Y: 10, W: 1, H: 1}, false},
		{"empty", TileRect{X: 0, Y: 0, W: 0, H: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.other); got != tt.expected {
				t.Errorf("Intersects() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTileRect_TouchesOrthogonally(t *testing.T) {
	unit := TileRect{X: 0, Y: 0, W: 1, H: 1}

	tests := []struct {
		name     string
		a        TileRect
		b        TileRect
		expected bool
	}{
		{"right_neighbour", unit, TileRect{X: 1, Y: 0, W: 1, H: 1}, true},
		{"left_neighbour", unit, TileRect{X: -1, Y: 0, W: 1, H: 1}, true},
		{"below", unit, TileRect{X: 0, Y: 1, W: 1, H: 1}, true},
		{"above", unit, TileRect{X: 0, Y: -1, W: 1, H: 1}, true},
		{"gap_of_one", unit, TileRect{X: 2, Y: 0, W: 1, H: 1}, false},
		{"diagonal_only", unit, TileRect{X: 1, Y: 1, W: 1, H: 1}, false},
		{"overlapping", unit, unit, true},
		{"wide_part_below", TileRect{X: 0, Y: 0, W: 3, H: 1}, TileRect{X: 2, Y: 1, W: 2, H: 2}, true},
		{"wide_part_corner", TileRect{X: 0, Y: 0, W: 3, H: 1}, TileRect{X: 3, Y: 1, W: 2, H: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.TouchesOrthogonally(tt.b); got != tt.expected {
				t.Errorf("TouchesOrthogonally() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

// The plus-shaped shortcut must agree with expanding every tile.
func TestTileRect_TouchesOrthogonallyMatchesTileExpansion(t *testing.T) {
	a := TileRect{X: 2, Y: 3, W: 3, H: 2}
	for x := -1; x < 8; x++ {
		for y := 0; y < 8; y++ {
			b := TileRect{X: x, Y: y, W: 1, H: 2}
			if got, want := a.TouchesOrthogonally(b), expandAndIntersect(a, b); got != want {
				t.Errorf("b=%+v: TouchesOrthogonally() = %v, tile expansion = %v", b, got, want)
			}
		}
	}
}

func expandAndIntersect(a, b TileRect) bool {
	grown := map[Tile]bool{}
	for _, tile := range a.Tiles() {
		grown[tile] = true
		grown[Tile{X: tile.X + 1, Y: tile.Y}] = true
		grown[Tile{X: tile.X - 1, Y: tile.Y}] = true
		grown[Tile{X: tile.X, Y: tile.Y + 1}] = true
		grown[Tile{X: tile.X, Y: tile.Y - 1}] = true
	}
	for _, tile := range b.Tiles() {
		if grown[tile] {
			return true
		}
	}
	return false
}
