// pkg/flight/world.go
package flight

import (
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

// World is the view of the host a controller reads and writes each tick.
// Unknown ids must not panic: queries return zero values and writes are dropped.
type World interface {
	// AimDirection returns where the rider is looking. It need not be normalized.
	AimDirection(rider entity.ID) physics.Vector3
	Velocity(mount entity.ID) physics.Vector3
	// SetVelocity replaces the mount's velocity
	SetVelocity(mount entity.ID, v physics.Vector3)
	// ApplyImpulse adds v to the mount's velocity
	ApplyImpulse(mount entity.ID, v physics.Vector3)
	IsOnGround(mount entity.ID) bool
	IsInWater(mount entity.ID) bool
	// ControllingSeatOccupant returns whoever sits in the seat with steering authority
	ControllingSeatOccupant(mount entity.ID) (entity.ID, bool)
	// IsPlayer reports whether id may steer a mount
	IsPlayer(id entity.ID) bool
	// HoldsSteeringItem reports whether the rider currently steers the nose
	HoldsSteeringItem(rider entity.ID) bool
}
