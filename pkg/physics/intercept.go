// pkg/physics/intercept.go
package physics

import "math"

// InterceptVelocity returns the launch velocity, of magnitude shotSpeed, that a
// stationary shooter must give a constant-velocity projectile so it meets a
// target moving at targetVelocity along a straight line.
//
// The projectile copies the target's velocity component perpendicular to the
// shooter→target line and spends the remaining speed along that line. When
// shotSpeed cannot cover the perpendicular component, the perpendicular
// component alone is returned as a best effort.
func InterceptVelocity(shooter, target Vector3, shotSpeed float64, targetVelocity Vector3) Vector3 {
	back := shooter.Sub(target).Normalize()

	along := back.Scale(targetVelocity.Dot(back))
	perpendicular := targetVelocity.Sub(along)

	remaining := shotSpeed*shotSpeed - perpendicular.LengthSquared()
	if remaining <= 0 {
		return perpendicular
	}

	return perpendicular.Add(back.Scale(-math.Sqrt(remaining)))
}
