// pkg/flight/update.go
package flight

import (
	"math"

	"github.com/opd-ai/go-skymount/pkg/physics"
)

// maxTan2 stands in for tan² of a horizontal aim, where dir.y is zero
const maxTan2 = 1e12

// BoostImpulse returns the impulse a boost tick adds to the mount's velocity.
//
// The thrust always has magnitude c.RocketThrust. Its direction is chosen so
// that thrust plus a gravity compensation term g' points along the aim:
// with tan2 the squared ratio of horizontal to vertical aim, the vertical
// component ay of that resultant solves
//
//	(tan2+1)·ay² ± 2·g'·ay + (g'² − rocketA²) = 0
//
// taking + when aiming upward and − when aiming downward. g' grows when the
// aim points higher than the current motion and shrinks when it points lower,
// bounded by what the thrust budget can deliver.
func BoostImpulse(c Constants, aim, velocity physics.Vector3) physics.Vector3 {
	deltaV := aim.Normalize().Y - velocity.Normalize().Y
	g := c.Gravity + deltaV*math.Min(c.Gravity, c.RocketThrust-c.Gravity)

	tan2 := maxTan2
	if aim.Y*aim.Y*maxTan2 > aim.X*aim.X+aim.Z*aim.Z {
		tan2 = (aim.X*aim.X + aim.Z*aim.Z) / (aim.Y * aim.Y)
	}

	disc := 4*g*g - 4*(tan2+1)*(g*g-c.RocketThrust*c.RocketThrust)
	if disc < 0 {
		disc = 0
	}
	root := math.Sqrt(disc)
	horizontal := aim.Horizontal().Normalize()

	if aim.Y >= 0 {
		ay := (-2*g + root) / (2 * (tan2 + 1))
		h := horizontal.Scale(ay * math.Sqrt(tan2))
		return physics.Vector3{X: h.X, Y: ay + g, Z: h.Z}
	}

	ay := (2*g + root) / (2 * (tan2 + 1))
	h := horizontal.Scale(ay * math.Sqrt(tan2))
	return physics.Vector3{X: h.X, Y: g - ay, Z: h.Z}
}

// GlideImpulse returns the velocity a glide tick leaves the mount with.
//
// The previous tick's velocity is decomposed in the body frame of nose.
// Forward and side speed are reduced by drag and snap to zero once they fall
// under c.SnapThreshold; lift proportional to forward speed and wing drag
// proportional to vertical speed act along the body's up axis. Gravity is
// subtracted in world space. Grounded mounts see stronger drag and weaker lift.
func GlideImpulse(c Constants, nose, lastVelocity physics.Vector3, grounded bool) physics.Vector3 {
	frame := physics.FrameFromForward(nose, false)
	local := frame.Project(lastVelocity)

	dragFactor, liftFactor := 1.0, 1.0
	if grounded {
		dragFactor, liftFactor = c.GroundDragFactor, c.GroundLiftFactor
	}

	faceDrag := local.X * c.FaceDrag * dragFactor
	sideDrag := local.Z * c.SideDrag * dragFactor
	lift := local.X * c.Lift * liftFactor
	wingDrag := local.Y * c.WingDrag

	local.X = snap(local.X-faceDrag, c.SnapThreshold)
	local.Z = snap(local.Z-sideDrag, c.SnapThreshold)
	local.Y += lift - wingDrag

	return frame.Compose(local).Sub(physics.Vector3{Y: c.Gravity})
}

func snap(v, threshold float64) float64 {
	if v < threshold {
		return 0
	}
	return v
}
