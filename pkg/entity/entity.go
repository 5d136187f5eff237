// pkg/entity/entity.go
package entity

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-skymount/pkg/physics"
)

// ID is a unique identifier for an entity
type ID uint64

// None is the zero ID; ecs never hands it out
const None ID = 0

// Kind identifies what an entity is, e.g. "minecraft:player"
type Kind string

// Well-known kinds
const (
	KindPlayer    Kind = "minecraft:player"
	KindPolarBear Kind = "minecraft:polar_bear"
)

// BaseEntity contains common state for everything living in the world
type BaseEntity struct {
	ecs.BasicEntity
	Kind     Kind
	Position physics.Vector3
	Velocity physics.Vector3
	OnGround bool
	InWater  bool
}

// NewBaseEntity allocates a fresh ecs identity for an entity of the given kind
func NewBaseEntity(kind Kind, position physics.Vector3) BaseEntity {
	return BaseEntity{
		BasicEntity: ecs.NewBasic(),
		Kind:        kind,
		Position:    position,
	}
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return ID(e.BasicEntity.ID())
}

// GenerateID returns a new unique identifier
func GenerateID() ID {
	return ID(ecs.NewBasic().ID())
}
