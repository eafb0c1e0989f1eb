// pkg/physics/speed.go
package physics

import "math"

// Calibration of the top speed curve. The cube root branch takes over once
// the linear estimate exceeds SpeedKnee.
const (
	LinearSpeedFactor = 2.5
	SpeedKnee         = 75.0
	CubeRootFactor    = 14062.5
)

// TopSpeed maps a ship's mass and the thrust available in one direction to
// its top speed in that direction. A massless ship has no defined speed and
// reports zero.
func TopSpeed(mass, thrust float64) float64 {
	if mass <= 0 {
		return 0
	}

	x := thrust / mass
	speed := LinearSpeedFactor * x
	if speed > SpeedKnee {
		speed = math.Cbrt(CubeRootFactor * x)
	}
	return speed
}
