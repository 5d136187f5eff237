// pkg/world/host.go
package world

import (
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

// The methods below let flight controllers read and drive the world.

func (w *World) AimDirection(rider entity.ID) physics.Vector3 {
	if r, ok := w.riders[rider]; ok {
		return r.Aim
	}
	return physics.Zero
}

func (w *World) Velocity(mount entity.ID) physics.Vector3 {
	if m, ok := w.mounts[mount]; ok {
		return m.Velocity
	}
	return physics.Zero
}

// SetVelocity replaces a mount's velocity. The caller owns gravity for this
// tick, so the host skips its own.
func (w *World) SetVelocity(mount entity.ID, v physics.Vector3) {
	if m, ok := w.mounts[mount]; ok {
		m.Velocity = v
		w.driven[mount] = true
	}
}

// ApplyImpulse adds v to a mount's velocity. Host gravity still applies.
func (w *World) ApplyImpulse(mount entity.ID, v physics.Vector3) {
	if m, ok := w.mounts[mount]; ok {
		m.Velocity = m.Velocity.Add(v)
	}
}

func (w *World) IsOnGround(mount entity.ID) bool {
	m, ok := w.mounts[mount]
	return ok && m.OnGround
}

func (w *World) IsInWater(mount entity.ID) bool {
	m, ok := w.mounts[mount]
	return ok && m.InWater
}

func (w *World) ControllingSeatOccupant(mount entity.ID) (entity.ID, bool) {
	m, ok := w.mounts[mount]
	if !ok {
		return entity.None, false
	}
	return m.ControllingOccupant()
}

func (w *World) IsPlayer(id entity.ID) bool {
	r, ok := w.riders[id]
	return ok && r.IsPlayer()
}

func (w *World) HoldsSteeringItem(rider entity.ID) bool {
	r, ok := w.riders[rider]
	return ok && r.Holds(w.steeringItem)
}
