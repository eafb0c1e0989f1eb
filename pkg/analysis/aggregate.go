// pkg/analysis/aggregate.go
package analysis

import (
	"math"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/physics"
)

func validate(parts []blueprint.Part) error {
	for _, part := range parts {
		if err := checkRotation(part); err != nil {
			return err
		}
	}
	return nil
}

// AggregateMass returns the mass-weighted centre of all known parts and their
// total mass. A massless ship has its centre at the origin.
func AggregateMass(parts []blueprint.Part, cat catalog.Reader) (physics.Vector2D, float64, error) {
	if err := validate(parts); err != nil {
		return physics.Vector2D{}, 0, err
	}

	var weighted physics.Vector2D
	var total float64
	for _, part := range parts {
		spec, ok := cat.Lookup(part.ID)
		if !ok || spec.Mass == 0 {
			continue
		}
		com, err := CenterOfMassOfPart(part, spec)
		if err != nil {
			return physics.Vector2D{}, 0, err
		}
		weighted = weighted.Add(com.Scale(spec.Mass))
		total += spec.Mass
	}
	if total == 0 {
		return physics.Vector2D{}, 0, nil
	}
	return weighted.Div(total), total, nil
}

type placedPart struct {
	part blueprint.Part
	spec catalog.PartSpec
}

// ThrustPoints returns every thrust point of the ship with the engine room
// bonus already applied. A thruster gets the bonus once when any engine room
// touches it, however many do.
func ThrustPoints(parts []blueprint.Part, cat catalog.Reader, boostEnabled bool) ([]ThrustPoint, error) {
	if err := validate(parts); err != nil {
		return nil, err
	}

	var rooms []placedPart
	for _, part := range parts {
		if spec, ok := cat.Lookup(part.ID); ok && spec.EngineRoom {
			rooms = append(rooms, placedPart{part: part, spec: spec})
		}
	}

	var all []ThrustPoint
	for _, part := range parts {
		spec, ok := cat.Lookup(part.ID)
		if !ok {
			continue
		}
		thruster, ok := cat.ThrusterLookup(part.ID)
		if !ok {
			continue
		}
		points, err := AbsoluteThrustPoints(part, spec, thruster, boostEnabled)
		if err != nil {
			return nil, err
		}
		if nearEngineRoom(part, spec, rooms) {
			for i := range points {
				points[i].Thrust *= EngineRoomBonus
			}
		}
		all = append(all, points...)
	}
	return all, nil
}

func nearEngineRoom(part blueprint.Part, spec catalog.PartSpec, rooms []placedPart) bool {
	for _, room := range rooms {
		if Touching(part, spec, room.part, room.spec) {
			return true
		}
	}
	return false
}

// AggregateThrust combines all thrust points into one entry per cardinal
// orientation. Origins are thrust-weighted averages of the point positions;
// an orientation without thrust keeps a zero origin.
func AggregateThrust(parts []blueprint.Part, cat catalog.Reader, boostEnabled bool) ([4]DirectionalThrust, error) {
	points, err := ThrustPoints(parts, cat, boostEnabled)
	if err != nil {
		return [4]DirectionalThrust{}, err
	}
	return SumThrustPoints(points), nil
}

// SumThrustPoints groups already placed thrust points by orientation.
// Orientations must be 0..3.
func SumThrustPoints(points []ThrustPoint) [4]DirectionalThrust {
	var sums [4]physics.Vector2D
	var mags [4]float64
	for _, p := range points {
		sums[p.Orientation] = sums[p.Orientation].Add(p.Position.Scale(p.Thrust))
		mags[p.Orientation] += p.Thrust
	}

	var out [4]DirectionalThrust
	for o := range out {
		if mags[o] == 0 {
			continue
		}
		origin := sums[o].Div(mags[o])
		out[o] = DirectionalThrust{
			Origin:    origin,
			Magnitude: mags[o],
			Vector:    origin.Add(cardinalAxes[o].Scale(mags[o])),
		}
	}
	return out
}

// SynthesizeOctant derives the four diagonals from neighbouring cardinals and
// interleaves them with the cardinals. Diagonal i combines cardinal i with
// cardinal (i+3)%4 and is zero unless both have thrust.
func SynthesizeOctant(cardinal [4]DirectionalThrust) OctantThrust {
	var out OctantThrust
	for i := 0; i < 4; i++ {
		j := (i + 3) % 4
		a, b := cardinal[i], cardinal[j]

		var diag DirectionalThrust
		if a.Magnitude != 0 && b.Magnitude != 0 {
			origin := physics.Lerp(a.Origin, b.Origin, b.Magnitude/(b.Magnitude+a.Magnitude))
			diag = DirectionalThrust{
				Origin:    origin,
				Magnitude: math.Sqrt(a.Magnitude*a.Magnitude + b.Magnitude*b.Magnitude),
				Vector: origin.
					Add(cardinalAxes[i].Scale(a.Magnitude)).
					Add(cardinalAxes[j].Scale(b.Magnitude)),
			}
		}
		out[2*i] = diag
		out[2*i+1] = cardinal[i]
	}
	return out
}

// Analyze computes mass, thrust and speeds for a part list. Unknown parts
// contribute nothing; invalid rotations fail the whole call.
func Analyze(parts []blueprint.Part, cat catalog.Reader, opts Options) (ShipAnalysis, error) {
	com, mass, err := AggregateMass(parts, cat)
	if err != nil {
		return ShipAnalysis{}, err
	}
	cardinal, err := AggregateThrust(parts, cat, opts.BoostEnabled)
	if err != nil {
		return ShipAnalysis{}, err
	}

	result := ShipAnalysis{
		CenterOfMass: com,
		TotalMass:    mass,
		Octant:       SynthesizeOctant(cardinal),
	}
	for i, d := range result.Octant {
		result.Speeds[i] = physics.TopSpeed(mass, d.Magnitude)
	}
	return result, nil
}
