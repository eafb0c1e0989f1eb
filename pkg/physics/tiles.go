// pkg/physics/tiles.go
package physics

// Tile is a single grid cell
type Tile struct {
	X int
	Y int
}

// TileRect is an axis-aligned block of grid cells starting at (X, Y)
type TileRect struct {
	X, Y int
	W, H int
}

// Empty reports whether the rectangle covers no cells
func (r TileRect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether tile lies inside the rectangle
func (r TileRect) Contains(tile Tile) bool {
	return tile.X >= r.X && tile.X < r.X+r.W &&
		tile.Y >= r.Y && tile.Y < r.Y+r.H
}

// Intersects reports whether two rectangles share at least one cell
func (r TileRect) Intersects(other TileRect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	if r.X >= other.X+other.W || other.X >= r.X+r.W {
		return false
	}
	if r.Y >= other.Y+other.H || other.Y >= r.Y+r.H {
		return false
	}
	return true
}

// Tiles lists every cell of the rectangle, column by column
func (r TileRect) Tiles() []Tile {
	if r.Empty() {
		return nil
	}
	tiles := make([]Tile, 0, r.W*r.H)
	for i := 0; i < r.W; i++ {
		for j := 0; j < r.H; j++ {
			tiles = append(tiles, Tile{X: r.X + i, Y: r.Y + j})
		}
	}
	return tiles
}

// TouchesOrthogonally reports whether other overlaps r grown by one cell
// towards each of the four orthogonal neighbours of every cell. Cells that
// only meet r at a corner do not count.
//
// Growing every cell by its 4-neighbourhood gives a plus-shaped region: the
// rectangle widened by one column on each side, unioned with the rectangle
// heightened by one row on each side.
func (r TileRect) TouchesOrthogonally(other TileRect) bool {
	if r.Empty() {
		return false
	}
	wide := TileRect{X: r.X - 1, Y: r.Y, W: r.W + 2, H: r.H}
	tall := TileRect{X: r.X, Y: r.Y - 1, W: r.W, H: r.H + 2}
	return wide.Intersects(other) || tall.Intersects(other)
}
