// pkg/physics/vector.go
package physics

import "math"

// Vector2D represents a 2D point or vector in ship space, +Y pointing down
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X + other.X,
		Y: v.Y + other.Y,
	}
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X - other.X,
		Y: v.Y - other.Y,
	}
}

// Scale multiplies the vector by a scalar value
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{
		X: v.X * factor,
		Y: v.Y * factor,
	}
}

// Div divides the vector by a scalar value. Dividing by zero yields the zero vector.
func (v Vector2D) Div(divisor float64) Vector2D {
	if divisor == 0 {
		return Vector2D{}
	}
	return Vector2D{
		X: v.X / divisor,
		Y: v.Y / divisor,
	}
}

// Lerp interpolates linearly from a to b: a + (b-a)*t
func Lerp(a, b Vector2D, t float64) Vector2D {
	return a.Add(b.Sub(a).Scale(t))
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector in the same direction
func (v Vector2D) Normalize() Vector2D {
	length := v.Length()
	if length == 0 {
		return Vector2D{}
	}
	return Vector2D{
		X: v.X / length,
		Y: v.Y / length,
	}
}

// Angle returns the angle of the vector in radians
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Rotate rotates the vector by angle (in radians)
func (v Vector2D) Rotate(angle float64) Vector2D {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Vector2D{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// IsZero reports whether both components are exactly zero
func (v Vector2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
