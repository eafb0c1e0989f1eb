// pkg/analysis/types.go

// Package analysis computes centre of mass, thrust and top speeds of a ship
// from its part layout.
package analysis

import (
	"errors"

	"github.com/opd-ai/go-shipyard/pkg/physics"
)

// ErrInvalidRotation is returned when a part rotation is outside 0..3
var ErrInvalidRotation = errors.New("invalid part rotation")

// Cardinal orientations. Orientation 0 pushes the ship towards -Y.
const (
	Up = iota
	Right
	Down
	Left
)

// Direction indexes the octant model, clockwise from north-west
type Direction int

const (
	NorthWest Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
)

var directionLabels = [8]string{"NW", "N", "NE", "E", "SE", "S", "SW", "W"}

// String returns the compass label for the direction
func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionLabels) {
		return "?"
	}
	return directionLabels[d]
}

// Directions lists the eight octant directions in model order
func Directions() [8]Direction {
	return [8]Direction{NorthWest, North, NorthEast, East, SouthEast, South, SouthWest, West}
}

// cardinalAxes are the unit push directions for orientations 0..3
var cardinalAxes = [4]physics.Vector2D{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// Axis returns the unit push direction of a cardinal orientation, or the
// zero vector when orientation is outside 0..3.
func Axis(orientation int) physics.Vector2D {
	if orientation < 0 || orientation >= len(cardinalAxes) {
		return physics.Vector2D{}
	}
	return cardinalAxes[orientation]
}

// ThrustPoint is one nozzle placed in ship space
type ThrustPoint struct {
	Position    physics.Vector2D `json:"position"`
	Orientation int              `json:"orientation"`
	Thrust      float64          `json:"thrust"`
}

// DirectionalThrust is the combined thrust for one direction. Vector is the
// tip of the thrust arrow drawn from Origin, in ship space.
type DirectionalThrust struct {
	Origin    physics.Vector2D `json:"origin"`
	Magnitude float64          `json:"magnitude"`
	Vector    physics.Vector2D `json:"vector"`
}

// OctantThrust holds diagonal and cardinal thrust interleaved as
// NW, N, NE, E, SE, S, SW, W
type OctantThrust [8]DirectionalThrust

// Cardinal returns the entry for cardinal orientation 0..3
func (o OctantThrust) Cardinal(orientation int) DirectionalThrust {
	return o[2*orientation+1]
}

// Diagonal returns the entry for diagonal index 0..3
func (o OctantThrust) Diagonal(i int) DirectionalThrust {
	return o[2*i]
}

// Options controls a single analysis run
type Options struct {
	BoostEnabled bool
}

// ShipAnalysis is the result of analysing a part list
type ShipAnalysis struct {
	CenterOfMass physics.Vector2D `json:"center_of_mass"`
	TotalMass    float64          `json:"total_mass"`
	Octant       OctantThrust     `json:"octant_thrust"`
	Speeds       [8]float64       `json:"speeds"`
}

// Speed returns the top speed towards d
func (a ShipAnalysis) Speed(d Direction) float64 {
	if d < 0 || int(d) >= len(a.Speeds) {
		return 0
	}
	return a.Speeds[d]
}

// SpeedByDirection returns the speeds keyed by compass label
func (a ShipAnalysis) SpeedByDirection() map[string]float64 {
	out := make(map[string]float64, len(a.Speeds))
	for i, s := range a.Speeds {
		out[directionLabels[i]] = s
	}
	return out
}
