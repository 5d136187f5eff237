// pkg/physics/vector.go
package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// zeroLength is the length below which a vector has no defined direction.
const zeroLength = 1e-8

// Vector3 represents a 3D vector in world coordinates with Y pointing up
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Zero is the zero vector
var Zero = Vector3{}

// Up is the world up axis
var Up = Vector3{Y: 1}

// Add returns the component-wise sum of v and every operand
func (v Vector3) Add(others ...Vector3) Vector3 {
	for _, o := range others {
		v.X += o.X
		v.Y += o.Y
		v.Z += o.Z
	}
	return v
}

// Sum returns the component-wise sum of the given vectors
func Sum(vs ...Vector3) Vector3 {
	return Zero.Add(vs...)
}

// Sub returns the difference between two vectors
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale multiplies the vector by a scalar value
func (v Vector3) Scale(factor float64) Vector3 {
	return Vector3{
		X: v.X * factor,
		Y: v.Y * factor,
		Z: v.Z * factor,
	}
}

// Length returns the magnitude of the vector
func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalize returns a unit vector in the same direction.
// Vectors shorter than 1e-8 normalize to the zero vector, which callers
// must read as "no direction".
func (v Vector3) Normalize() Vector3 {
	length := v.Length()
	if length < zeroLength {
		return Vector3{}
	}
	return Vector3{
		X: v.X / length,
		Y: v.Y / length,
		Z: v.Z / length,
	}
}

// Dot returns the dot product of two vectors
func (v Vector3) Dot(other Vector3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v × other
func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// RotateAroundAxis rotates the vector by theta radians around axis,
// following the right-hand rule. The axis does not need to be normalized;
// a zero axis leaves the vector unchanged.
func (v Vector3) RotateAroundAxis(axis Vector3, theta float64) Vector3 {
	n := axis.Normalize()
	if n.IsZero() {
		return v
	}
	return FromMgl(mgl64.QuatRotate(theta, n.ToMgl()).Rotate(v.ToMgl()))
}

// Equals reports whether both vectors have exactly the same components
func (v Vector3) Equals(other Vector3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// ApproxEqual reports whether every component differs by at most eps
func (v Vector3) ApproxEqual(other Vector3, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps &&
		math.Abs(v.Y-other.Y) <= eps &&
		math.Abs(v.Z-other.Z) <= eps
}

// IsZero reports whether all components are exactly zero
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite reports whether no component is NaN or infinite
func (v Vector3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// String formats the vector with two decimals per component
func (v Vector3) String() string {
	return fmt.Sprintf("%.2f  %.2f  %.2f", v.X, v.Y, v.Z)
}

// WithMagnitude returns a vector of the given length pointing along v.
// The zero vector stays zero.
func (v Vector3) WithMagnitude(magnitude float64) Vector3 {
	return v.Normalize().Scale(magnitude)
}

// AngleTo returns the included angle between two vectors in radians.
// The angle is 0 when either vector has no direction.
func (v Vector3) AngleTo(other Vector3) float64 {
	denom := v.Length() * other.Length()
	if denom < zeroLength {
		return 0
	}
	cos := v.Dot(other) / denom
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// AnyPerpendicular returns some non-zero vector perpendicular to v.
// For the zero vector the Z axis is returned.
func (v Vector3) AnyPerpendicular() Vector3 {
	switch {
	case v.X == 0 && v.Y == 0:
		if v.Z == 0 {
			return Vector3{Z: 1}
		}
		return Vector3{X: 1}
	case v.Y == 0:
		return Vector3{Y: 1}
	default:
		return Vector3{X: 1, Y: -v.X / v.Y}
	}
}

// Horizontal returns the projection of v onto the XZ plane
func (v Vector3) Horizontal() Vector3 {
	return Vector3{X: v.X, Z: v.Z}
}

// Pitch returns the angle of v above the horizontal plane in degrees
func (v Vector3) Pitch() float64 {
	return math.Atan2(v.Y, math.Hypot(v.X, v.Z)) * 180 / math.Pi
}

// ToMgl converts the vector to a mathgl vector
func (v Vector3) ToMgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromMgl converts a mathgl vector
func FromMgl(v mgl64.Vec3) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}
