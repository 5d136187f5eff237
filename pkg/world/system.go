// pkg/world/system.go
package world

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-skymount/pkg/entity"
)

// SystemPriority runs host physics after flight controllers
const SystemPriority = 0

// Update steps the world; each call is one tick
func (w *World) Update(dt float32) {
	w.Step()
}

// Remove deletes the mount or rider behind an ecs entity
func (w *World) Remove(e ecs.BasicEntity) {
	id := entity.ID(e.ID())
	if !w.RemoveMount(id) {
		w.RemoveRider(id)
	}
}

// Priority orders the world within an ecs.World
func (w *World) Priority() int {
	return SystemPriority
}
