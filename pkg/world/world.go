// pkg/world/world.go

// Package world is an in-memory host for skymount flights: flat terrain,
// players and rideable mounts, seating, inventories and effect output.
package world

import (
	"errors"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/opd-ai/go-skymount/pkg/config"
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrAlreadyRiding = errors.New("rider is already mounted")
	ErrNotRiding     = errors.New("rider is not mounted")
	ErrNoFreeSeat    = errors.New("mount has no free seat")
)

// Terrain is a flat ground plane with an optional water surface
type Terrain struct {
	GroundHeight float64
	// WaterLevel above GroundHeight floods the ground beneath it
	WaterLevel float64
	// GroundFriction scales horizontal velocity of grounded mounts each tick
	GroundFriction float64
	// Gravity pulls mounts whose velocity nobody set during the tick
	Gravity float64
}

// TerrainFromConfig copies the terrain section of a configuration
func TerrainFromConfig(c config.TerrainConfig) Terrain {
	return Terrain{
		GroundHeight:   c.GroundHeight,
		WaterLevel:     c.WaterLevel,
		GroundFriction: c.GroundFriction,
		Gravity:        c.HostGravity,
	}
}

// World holds every entity of the simulation. It is not safe for
// concurrent use.
type World struct {
	terrain      Terrain
	steeringItem string

	mounts map[entity.ID]*entity.Mount
	riders map[entity.ID]*entity.Rider
	// driven marks mounts whose velocity a controller replaced this tick
	driven map[entity.ID]bool

	index      *rtreego.Rtree
	indexDirty bool

	effects *effectLog
	ticks   uint64
}

// New creates an empty world. Riders holding steeringItem in either hand
// steer their mount's nose; historySize bounds the effect log.
func New(terrain Terrain, steeringItem string, historySize int) *World {
	return &World{
		terrain:      terrain,
		steeringItem: steeringItem,
		mounts:       make(map[entity.ID]*entity.Mount),
		riders:       make(map[entity.ID]*entity.Rider),
		driven:       make(map[entity.ID]bool),
		indexDirty:   true,
		effects:      newEffectLog(historySize),
	}
}

// SpawnMount adds a mount resting at position
func (w *World) SpawnMount(kind entity.Kind, position physics.Vector3, seats int) *entity.Mount {
	m := entity.NewMount(kind, position, seats)
	w.mounts[m.GetID()] = m
	w.settle(&m.BaseEntity)
	w.indexDirty = true
	return m
}

// SpawnPlayer adds a player at position looking along aim
func (w *World) SpawnPlayer(position, aim physics.Vector3) *entity.Rider {
	r := entity.NewPlayer(position, aim)
	w.riders[r.GetID()] = r
	return r
}

// SpawnPassenger adds a non-player rider such as a mob
func (w *World) SpawnPassenger(kind entity.Kind, position physics.Vector3) *entity.Rider {
	r := entity.NewPassenger(kind, position)
	w.riders[r.GetID()] = r
	return r
}

// MountByID returns a mount
func (w *World) MountByID(id entity.ID) (*entity.Mount, bool) {
	m, ok := w.mounts[id]
	return m, ok
}

// RiderByID returns a rider
func (w *World) RiderByID(id entity.ID) (*entity.Rider, bool) {
	r, ok := w.riders[id]
	return r, ok
}

// Mounts returns every mount ordered by id
func (w *World) Mounts() []*entity.Mount {
	out := make([]*entity.Mount, 0, len(w.mounts))
	for _, m := range w.mounts {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GetID() < out[j].GetID()
	})
	return out
}

// Mount seats rider on the first free seat of mount
func (w *World) Mount(rider, mount entity.ID) error {
	r, ok := w.riders[rider]
	if !ok {
		return ErrUnknownEntity
	}
	m, ok := w.mounts[mount]
	if !ok {
		return ErrUnknownEntity
	}
	if r.Vehicle != entity.None {
		return ErrAlreadyRiding
	}
	if m.Sit(rider) < 0 {
		return ErrNoFreeSeat
	}
	r.Vehicle = mount
	r.Position = m.Position
	r.Velocity = m.Velocity
	return nil
}

// Dismount takes rider off its mount
func (w *World) Dismount(rider entity.ID) error {
	r, ok := w.riders[rider]
	if !ok {
		return ErrUnknownEntity
	}
	if r.Vehicle == entity.None {
		return ErrNotRiding
	}
	if m, ok := w.mounts[r.Vehicle]; ok {
		m.Stand(rider)
	}
	r.Vehicle = entity.None
	return nil
}

// RemoveMount deletes a mount, dropping its riders off first
func (w *World) RemoveMount(id entity.ID) bool {
	m, ok := w.mounts[id]
	if !ok {
		return false
	}
	for _, rider := range m.Riders() {
		if r, ok := w.riders[rider]; ok {
			r.Vehicle = entity.None
		}
	}
	delete(w.mounts, id)
	delete(w.driven, id)
	w.indexDirty = true
	return true
}

// RemoveRider deletes a rider, freeing its seat
func (w *World) RemoveRider(id entity.ID) bool {
	r, ok := w.riders[id]
	if !ok {
		return false
	}
	if m, ok := w.mounts[r.Vehicle]; ok {
		m.Stand(id)
	}
	delete(w.riders, id)
	return true
}

// ConsumeMainHand removes n items from the rider's main hand
func (w *World) ConsumeMainHand(rider entity.ID, n int) bool {
	r, ok := w.riders[rider]
	if !ok {
		return false
	}
	return r.ConsumeMainHand(n)
}

// Ticks returns how many times Step has run
func (w *World) Ticks() uint64 {
	return w.ticks
}

// Terrain returns the world's terrain
func (w *World) Terrain() Terrain {
	return w.terrain
}
