// pkg/flight/system.go
package flight

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-skymount/pkg/entity"
)

// SystemPriority runs flight before any host physics of lower priority
const SystemPriority = 10

// System drives a Registry from an ecs.World: each Update is one tick.
type System struct {
	registry *Registry
}

// NewSystem wraps registry as an ecs system
func NewSystem(registry *Registry) *System {
	return &System{registry: registry}
}

// Update steps every running controller. dt is ignored; a call is a tick.
func (s *System) Update(dt float32) {
	s.registry.StepAll()
}

// Remove discards the controller of an entity leaving the world
func (s *System) Remove(e ecs.BasicEntity) {
	s.registry.RemoveController(entity.ID(e.ID()))
}

// Priority orders the system within the ecs.World
func (s *System) Priority() int {
	return SystemPriority
}

// Registry returns the driven registry
func (s *System) Registry() *Registry {
	return s.registry
}
