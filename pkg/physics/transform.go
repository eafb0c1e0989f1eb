// pkg/physics/transform.go
package physics

import "fmt"

// Affine2D is a 2x2 linear map followed by a translation:
//
//	x' = A*x + B*y + Tx
//	y' = C*x + D*y + Ty
type Affine2D struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// Identity is the transform that leaves points unchanged
var Identity = Affine2D{A: 1, D: 1}

// Apply maps p through the transform
func (t Affine2D) Apply(p Vector2D) Vector2D {
	return Vector2D{
		X: t.A*p.X + t.B*p.Y + t.Tx,
		Y: t.C*p.X + t.D*p.Y + t.Ty,
	}
}

// Translate returns the transform followed by a translation of offset
func (t Affine2D) Translate(offset Vector2D) Affine2D {
	t.Tx += offset.X
	t.Ty += offset.Y
	return t
}

// QuarterTurn returns the transform that rotates a w x h footprint clockwise
// by turns*90 degrees about its upper-left corner and moves the result back
// so that its bounding box again starts at the origin. Screen space is used,
// so +Y points down. Valid turns are 0..3.
func QuarterTurn(turns int, w, h float64) (Affine2D, error) {
	switch turns {
	case 0:
		return Identity, nil
	case 1:
		return Affine2D{A: 0, B: -1, C: 1, D: 0, Tx: h}, nil
	case 2:
		return Affine2D{A: -1, B: 0, C: 0, D: -1, Tx: w, Ty: h}, nil
	case 3:
		return Affine2D{A: 0, B: 1, C: -1, D: 0, Ty: w}, nil
	default:
		return Affine2D{}, fmt.Errorf("quarter turn %d out of range 0..3", turns)
	}
}

// RotatedSize returns the footprint extents after turns quarter turns
func RotatedSize(turns, w, h int) (int, int) {
	if turns%2 == 1 {
		return h, w
	}
	return w, h
}
