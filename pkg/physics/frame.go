// pkg/physics/frame.go
package physics

import "math"

// Frame is an orthonormal basis expressed in world coordinates.
// X points forward, Y is the body "up" and Z is horizontal to the side.
type Frame struct {
	X Vector3
	Y Vector3
	Z Vector3
}

// degenerateZ is the Z axis of the +X frame. Vertical forward vectors use it,
// matching the limit of the general formula while tilting away from +X.
var degenerateZ = Vector3{Z: -1}

// FrameFromForward builds the body frame whose X axis is the normalized
// forward direction. The Y axis lies in the vertical plane containing
// forward and points upward relative to the tilt; rolling inverts it.
// The Z axis is horizontal and perpendicular to forward's horizontal part.
//
// A purely vertical forward has no horizontal part, so the frame falls back
// to the limit taken while tilting from +X (Z = -Z world). A zero forward
// yields the frame of +X.
func FrameFromForward(forward Vector3, rolling bool) Frame {
	roll := 1.0
	if rolling {
		roll = -1
	}

	x := forward.Normalize()
	if x.IsZero() {
		x = Vector3{X: 1}
	}

	h := math.Hypot(x.X, x.Z)
	if h < zeroLength {
		return Frame{
			X: x,
			Y: x.Cross(degenerateZ).Scale(roll),
			Z: degenerateZ,
		}
	}

	t := roll * (x.Y / h)
	return Frame{
		X: x,
		Y: Vector3{X: -x.X * t, Y: roll * h, Z: -x.Z * t},
		Z: Vector3{X: x.Z, Z: -x.X}.Normalize(),
	}
}

// Project returns v's coordinates in the frame's basis
func (f Frame) Project(v Vector3) Vector3 {
	return Vector3{
		X: f.X.Dot(v),
		Y: f.Y.Dot(v),
		Z: f.Z.Dot(v),
	}
}

// Compose maps frame coordinates back to world coordinates.
// It is the inverse of Project.
func (f Frame) Compose(p Vector3) Vector3 {
	return Sum(f.X.Scale(p.X), f.Y.Scale(p.Y), f.Z.Scale(p.Z))
}

// ProjectOntoFrame returns v's coordinates in frame's basis
func ProjectOntoFrame(frame Frame, v Vector3) Vector3 {
	return frame.Project(v)
}
