// pkg/entity/mount.go
package entity

import "github.com/opd-ai/go-skymount/pkg/physics"

// Mount is a rideable creature with a fixed number of seats
type Mount struct {
	BaseEntity
	Seats []ID
	// ControllingSeat is the seat index whose occupant may steer
	ControllingSeat int
}

// NewMount creates a mount of the given kind with seatCount empty seats
func NewMount(kind Kind, position physics.Vector3, seatCount int) *Mount {
	if seatCount < 1 {
		seatCount = 1
	}
	return &Mount{
		BaseEntity: NewBaseEntity(kind, position),
		Seats:      make([]ID, seatCount),
	}
}

// ControllingOccupant returns the occupant of the controlling seat
func (m *Mount) ControllingOccupant() (ID, bool) {
	if m.ControllingSeat < 0 || m.ControllingSeat >= len(m.Seats) {
		return None, false
	}
	id := m.Seats[m.ControllingSeat]
	return id, id != None
}

// Riders returns the occupants of all taken seats in seat order
func (m *Mount) Riders() []ID {
	riders := make([]ID, 0, len(m.Seats))
	for _, id := range m.Seats {
		if id != None {
			riders = append(riders, id)
		}
	}
	return riders
}

// HasRider reports whether id occupies any seat
func (m *Mount) HasRider(id ID) bool {
	return m.SeatOf(id) >= 0
}

// SeatOf returns the seat index of id, or -1
func (m *Mount) SeatOf(id ID) int {
	if id == None {
		return -1
	}
	for i, occupant := range m.Seats {
		if occupant == id {
			return i
		}
	}
	return -1
}

// Sit places id in the first free seat and returns its index, or -1 when full
func (m *Mount) Sit(id ID) int {
	if seat := m.SeatOf(id); seat >= 0 {
		return seat
	}
	for i, occupant := range m.Seats {
		if occupant == None {
			m.Seats[i] = id
			return i
		}
	}
	return -1
}

// Stand removes id from its seat
func (m *Mount) Stand(id ID) bool {
	seat := m.SeatOf(id)
	if seat < 0 {
		return false
	}
	m.Seats[seat] = None
	return true
}
