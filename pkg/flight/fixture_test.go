package flight

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/event"
	"github.com/opd-ai/go-skymount/pkg/feedback"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

// fixtureWorld is a World with fixed, directly editable state
type fixtureWorld struct {
	aims       map[entity.ID]physics.Vector3
	velocities map[entity.ID]physics.Vector3
	onGround   map[entity.ID]bool
	inWater    map[entity.ID]bool
	seats      map[entity.ID]entity.ID
	players    map[entity.ID]bool
	steering   map[entity.ID]bool

	setCalls     int
	impulseCalls int
}

func newFixtureWorld() *fixtureWorld {
	return &fixtureWorld{
		aims:       map[entity.ID]physics.Vector3{},
		velocities: map[entity.ID]physics.Vector3{},
		onGround:   map[entity.ID]bool{},
		inWater:    map[entity.ID]bool{},
		seats:      map[entity.ID]entity.ID{},
		players:    map[entity.ID]bool{},
		steering:   map[entity.ID]bool{},
	}
}

func (w *fixtureWorld) AimDirection(rider entity.ID) physics.Vector3 {
	return w.aims[rider]
}

func (w *fixtureWorld) Velocity(mount entity.ID) physics.Vector3 {
	return w.velocities[mount]
}

func (w *fixtureWorld) SetVelocity(mount entity.ID, v physics.Vector3) {
	w.setCalls++
	w.velocities[mount] = v
}

func (w *fixtureWorld) ApplyImpulse(mount entity.ID, v physics.Vector3) {
	w.impulseCalls++
	w.velocities[mount] = w.velocities[mount].Add(v)
}

func (w *fixtureWorld) IsOnGround(mount entity.ID) bool {
	return w.onGround[mount]
}

func (w *fixtureWorld) IsInWater(mount entity.ID) bool {
	return w.inWater[mount]
}

func (w *fixtureWorld) ControllingSeatOccupant(mount entity.ID) (entity.ID, bool) {
	id, ok := w.seats[mount]
	return id, ok
}

func (w *fixtureWorld) IsPlayer(id entity.ID) bool {
	return w.players[id]
}

func (w *fixtureWorld) HoldsSteeringItem(rider entity.ID) bool {
	return w.steering[rider]
}

// seatPlayer puts a player looking along aim in the controlling seat of mount
func (w *fixtureWorld) seatPlayer(mount, player entity.ID, aim physics.Vector3) {
	w.players[player] = true
	w.aims[player] = aim
	w.seats[mount] = player
}

const (
	bear    entity.ID = 100
	steve   entity.ID = 1
	alex    entity.ID = 2
	zombie  entity.ID = 3
	missing entity.ID = 999
)

type harness struct {
	world    *fixtureWorld
	registry *Registry
	effects  *feedback.Recorder
	events   []*event.FlightEvent
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{world: newFixtureWorld(), effects: feedback.NewRecorder()}

	bus := event.NewEventBus()
	for _, typ := range []event.Type{event.ControllerCreated, event.ControllerRemoved, event.JetStarted, event.FlightStopped, event.RiderChanged} {
		bus.Subscribe(typ, func(e event.Event) {
			h.events = append(h.events, e.(*event.FlightEvent))
		})
	}

	registry, err := NewRegistry(h.world, Settings{
		Constants: DefaultConstants(),
		Sink:      h.effects,
		Bus:       bus,
		Rand:      rand.New(rand.NewPCG(1, 2)),
	})
	require.NoError(t, err)
	h.registry = registry
	return h
}

// eventsOf returns the recorded events of one type
func (h *harness) eventsOf(typ event.Type) []*event.FlightEvent {
	var out []*event.FlightEvent
	for _, e := range h.events {
		if e.GetType() == typ {
			out = append(out, e)
		}
	}
	return out
}
