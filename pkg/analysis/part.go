// pkg/analysis/part.go
package analysis

import (
	"fmt"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/physics"
)

// BleedFactor is the share of a nozzle's thrust that also pushes along each
// neighbouring orientation
const BleedFactor = 0.05

// EngineRoomBonus multiplies the thrust of thrusters next to an engine room
const EngineRoomBonus = 1.5

// BoostDivisor scales boost thrusters down when boosting is off
const BoostDivisor = 3.0

func checkRotation(part blueprint.Part) error {
	if !part.Rotation.Valid() {
		return fmt.Errorf("%w: part %s at %v has rotation %d",
			ErrInvalidRotation, part.ID, part.Location, part.Rotation)
	}
	return nil
}

// partTransform maps part-local tile coordinates into ship space
func partTransform(part blueprint.Part, spec catalog.PartSpec) (physics.Affine2D, error) {
	if err := checkRotation(part); err != nil {
		return physics.Affine2D{}, err
	}
	t, err := physics.QuarterTurn(int(part.Rotation), float64(spec.Size[0]), float64(spec.Size[1]))
	if err != nil {
		return physics.Affine2D{}, fmt.Errorf("%w: %v", ErrInvalidRotation, err)
	}
	return t.Translate(part.Origin()), nil
}

// CenterOfMassOfPart returns the centre of the part footprint in ship space
func CenterOfMassOfPart(part blueprint.Part, spec catalog.PartSpec) (physics.Vector2D, error) {
	t, err := partTransform(part, spec)
	if err != nil {
		return physics.Vector2D{}, err
	}
	center := physics.Vector2D{X: float64(spec.Size[0]) / 2, Y: float64(spec.Size[1]) / 2}
	return t.Apply(center), nil
}

// AbsoluteThrustPoints places every nozzle of a thruster part in ship space.
// Each nozzle also yields two bleed entries at the neighbouring orientations
// carrying BleedFactor of its thrust. A spec without points yields nothing.
func AbsoluteThrustPoints(part blueprint.Part, spec catalog.PartSpec, thruster catalog.ThrusterSpec, boostEnabled bool) ([]ThrustPoint, error) {
	t, err := partTransform(part, spec)
	if err != nil {
		return nil, err
	}
	if len(thruster.Points) == 0 {
		return nil, nil
	}

	thrust := thruster.Thrust
	if thruster.Boost && !boostEnabled {
		thrust /= BoostDivisor
	}

	points := make([]ThrustPoint, 0, 3*len(thruster.Points))
	for _, local := range thruster.Points {
		points = append(points, ThrustPoint{
			Position:    t.Apply(physics.Vector2D{X: local.X, Y: local.Y}),
			Orientation: (int(part.Rotation) + local.Orientation) % 4,
			Thrust:      thrust,
		})
	}
	n := len(points)
	for i := 0; i < n; i++ {
		p := points[i]
		points = append(points,
			ThrustPoint{Position: p.Position, Orientation: (p.Orientation + 1) % 4, Thrust: p.Thrust * BleedFactor},
			ThrustPoint{Position: p.Position, Orientation: (p.Orientation + 3) % 4, Thrust: p.Thrust * BleedFactor},
		)
	}
	return points, nil
}

// Touching reports whether b covers a tile orthogonally adjacent to a. The
// test grows a only, so callers pass the thruster as a when checking for an
// engine room bonus.
func Touching(a blueprint.Part, specA catalog.PartSpec, b blueprint.Part, specB catalog.PartSpec) bool {
	fa := a.Footprint(specA.Size[0], specA.Size[1])
	fb := b.Footprint(specB.Size[0], specB.Size[1])
	return fa.TouchesOrthogonally(fb)
}
