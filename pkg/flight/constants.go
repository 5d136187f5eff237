// pkg/flight/constants.go
package flight

import "github.com/opd-ai/go-skymount/pkg/config"

// Constants are the flight tuning parameters of one controller.
// Every value is expressed per simulation tick.
type Constants struct {
	// Friction is the air friction coefficient. Not used by the integrator.
	Friction float64
	// MaxSpeed is an advisory speed limit. Not used by the integrator.
	MaxSpeed float64
	// Gravity is the downward velocity added each tick
	Gravity float64
	// RocketThrust is the magnitude of the boost impulse
	RocketThrust float64
	// WingDrag opposes velocity perpendicular to the wings
	WingDrag float64
	// FaceDrag opposes velocity along the nose
	FaceDrag float64
	// SideDrag opposes sideways velocity
	SideDrag float64
	// Lift converts forward velocity into upward velocity
	Lift float64
	// StopSpeed is the speed below which a grounded glide ends
	StopSpeed float64
	// SnapThreshold is the reduced forward or side speed below which it becomes zero
	SnapThreshold float64
	// GroundDragFactor multiplies face and side drag on ground or in water
	GroundDragFactor float64
	// GroundLiftFactor multiplies lift on ground or in water
	GroundLiftFactor float64
}

// DefaultConstants returns the stock polar bear tuning
func DefaultConstants() Constants {
	return ConstantsFromConfig(config.DefaultConfig().Physics)
}

// ConstantsFromConfig copies the physics section of a configuration
func ConstantsFromConfig(p config.PhysicsConfig) Constants {
	return Constants{
		Friction:         p.Friction,
		MaxSpeed:         p.MaxSpeed,
		Gravity:          p.Gravity,
		RocketThrust:     p.RocketThrust,
		WingDrag:         p.WingDrag,
		FaceDrag:         p.FaceDrag,
		SideDrag:         p.SideDrag,
		Lift:             p.Lift,
		StopSpeed:        p.StopSpeed,
		SnapThreshold:    p.SnapThreshold,
		GroundDragFactor: p.GroundDragFactor,
		GroundLiftFactor: p.GroundLiftFactor,
	}
}
