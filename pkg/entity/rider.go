// pkg/entity/rider.go
package entity

import "github.com/opd-ai/go-skymount/pkg/physics"

// ItemStack is a stack of identical items held in a hand
type ItemStack struct {
	Type  string
	Count int
}

// Empty reports whether the stack holds nothing
func (s ItemStack) Empty() bool {
	return s.Type == "" || s.Count <= 0
}

// Is reports whether the stack holds at least one item of the given type
func (s ItemStack) Is(itemType string) bool {
	return !s.Empty() && s.Type == itemType
}

// Rider is an entity that can sit on a mount
type Rider struct {
	BaseEntity
	// Aim is the view direction; not guaranteed to be normalized
	Aim      physics.Vector3
	MainHand ItemStack
	OffHand  ItemStack
	// Vehicle is the mount the rider sits on, or None
	Vehicle ID
}

// NewPlayer creates a player rider looking along aim
func NewPlayer(position, aim physics.Vector3) *Rider {
	return &Rider{
		BaseEntity: NewBaseEntity(KindPlayer, position),
		Aim:        aim,
	}
}

// NewPassenger creates a non-player rider of the given kind
func NewPassenger(kind Kind, position physics.Vector3) *Rider {
	return &Rider{BaseEntity: NewBaseEntity(kind, position)}
}

// IsPlayer reports whether the rider is a player
func (r *Rider) IsPlayer() bool {
	return r.Kind == KindPlayer
}

// Holds reports whether either hand holds an item of the given type
func (r *Rider) Holds(itemType string) bool {
	return r.MainHand.Is(itemType) || r.OffHand.Is(itemType)
}

// ConsumeMainHand removes n items from the main hand and clears an emptied stack.
// It returns false when the hand holds fewer than n items.
func (r *Rider) ConsumeMainHand(n int) bool {
	if n <= 0 {
		return true
	}
	if r.MainHand.Empty() || r.MainHand.Count < n {
		return false
	}
	r.MainHand.Count -= n
	if r.MainHand.Count == 0 {
		r.MainHand = ItemStack{}
	}
	return true
}
