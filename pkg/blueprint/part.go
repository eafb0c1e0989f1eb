// pkg/blueprint/part.go
package blueprint

import (
	"strings"

	"github.com/opd-ai/go-shipyard/pkg/physics"
)

// PartID identifies a part type, e.g. "cosmoteer.thruster_small"
type PartID string

// UnknownPart is the id given to parts the catalog does not know
const UnknownPart PartID = "cosmoteer.UNKNOWN"

// Short returns the id without its namespace prefix
func (id PartID) Short() string {
	if i := strings.IndexByte(string(id), '.'); i >= 0 {
		return string(id)[i+1:]
	}
	return string(id)
}

// Rotation is the number of clockwise quarter turns applied to a part
type Rotation int

// Valid reports whether the rotation is one of 0, 1, 2 or 3
func (r Rotation) Valid() bool {
	return r >= 0 && r <= 3
}

// Swapped reports whether the footprint width and height trade places
func (r Rotation) Swapped() bool {
	return r == 1 || r == 3
}

// Part is a single placed part. Location is the upper-left grid cell of the
// rotated footprint.
type Part struct {
	ID       PartID   `json:"id" yaml:"id" jsonschema:"title=Part id,description=Namespaced part identifier"`
	Location [2]int   `json:"location" yaml:"location" jsonschema:"title=Location,description=Upper-left grid cell (x and y)"`
	Rotation Rotation `json:"rotation" yaml:"rotation" jsonschema:"title=Rotation,minimum=0,maximum=3,description=Clockwise quarter turns"`
	FlipX    bool     `json:"flip_x,omitempty" yaml:"flip_x,omitempty" jsonschema:"description=Mirrored horizontally"`
}

// Origin returns the part location as a vector
func (p Part) Origin() physics.Vector2D {
	return physics.Vector2D{X: float64(p.Location[0]), Y: float64(p.Location[1])}
}

// Footprint returns the grid cells covered by a part with an unrotated
// size of w x h. Invalid rotations are treated as unrotated; callers that
// must reject them check Rotation.Valid first.
func (p Part) Footprint(w, h int) physics.TileRect {
	if p.Rotation.Swapped() {
		w, h = h, w
	}
	return physics.TileRect{X: p.Location[0], Y: p.Location[1], W: w, H: h}
}
