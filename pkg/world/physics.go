// pkg/world/physics.go
package world

import (
	"github.com/opd-ai/go-skymount/pkg/entity"
)

// Step advances the world by one tick. Mounts move by their velocity and are
// clipped against the ground; riders travel with their mount.
func (w *World) Step() {
	for _, m := range w.Mounts() {
		id := m.GetID()
		if !w.driven[id] && !m.OnGround {
			m.Velocity.Y -= w.terrain.Gravity
		}

		m.Position = m.Position.Add(m.Velocity)
		w.settle(&m.BaseEntity)

		if m.OnGround {
			m.Velocity.X *= w.terrain.GroundFriction
			m.Velocity.Z *= w.terrain.GroundFriction
		}

		for _, rider := range m.Riders() {
			if r, ok := w.riders[rider]; ok {
				r.Position = m.Position
				r.Velocity = m.Velocity
			}
		}
	}

	clear(w.driven)
	w.indexDirty = true
	w.ticks++
}

// settle clips an entity to the ground and refreshes its contact flags
func (w *World) settle(e *entity.BaseEntity) {
	e.OnGround = false
	if e.Position.Y <= w.terrain.GroundHeight {
		e.Position.Y = w.terrain.GroundHeight
		if e.Velocity.Y < 0 {
			e.Velocity.Y = 0
		}
		e.OnGround = true
	}
	e.InWater = e.Position.Y < w.terrain.WaterLevel
}
