// pkg/engine/state.go
package engine

import (
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/flight"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

// MountState is a point-in-time copy of one mount and its flight
type MountState struct {
	ID       entity.ID
	Kind     entity.Kind
	Position physics.Vector3
	Velocity physics.Vector3
	OnGround bool
	InWater  bool
	Riders   []entity.ID
	Mode     flight.Mode
	JetTicks int
}

// MountState returns the state of one mount
func (s *Simulation) MountState(id entity.ID) (MountState, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	m, ok := s.world.MountByID(id)
	if !ok {
		return MountState{}, false
	}
	return s.mountState(m), true
}

// Snapshot returns the state of every mount ordered by id
func (s *Simulation) Snapshot() []MountState {
	s.lock.RLock()
	defer s.lock.RUnlock()

	mounts := s.world.Mounts()
	out := make([]MountState, 0, len(mounts))
	for _, m := range mounts {
		out = append(out, s.mountState(m))
	}
	return out
}

func (s *Simulation) mountState(m *entity.Mount) MountState {
	state := MountState{
		ID:       m.GetID(),
		Kind:     m.Kind,
		Position: m.Position,
		Velocity: m.Velocity,
		OnGround: m.OnGround,
		InWater:  m.InWater,
		Riders:   m.Riders(),
		Mode:     flight.ModeIdle,
	}
	if c, ok := s.registry.Lookup(m.GetID()); ok {
		state.Mode = c.Mode()
		state.JetTicks = c.JetTicksRemaining()
	}
	return state
}
