// pkg/flight/controller.go
package flight

import (
	"context"
	"math/rand/v2"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/event"
	"github.com/opd-ai/go-skymount/pkg/feedback"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

// Mode is the state of a controller's flight
type Mode int

const (
	// ModeIdle means no update runs for the mount
	ModeIdle Mode = iota
	// ModeGliding applies drag and lift each tick
	ModeGliding
	// ModeJetting applies rocket thrust each tick
	ModeJetting
)

// String returns the lowercase mode name
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeGliding:
		return "gliding"
	case ModeJetting:
		return "jetting"
	default:
		return "unknown"
	}
}

// StopReason says why a flight ended
type StopReason string

const (
	ReasonRiderLost StopReason = "rider_lost"
	ReasonLanded    StopReason = "landed"
	ReasonRemoved   StopReason = "removed"
	ReasonRequested StopReason = "requested"
)

// Controller owns the flight state of one mount. It is not safe for
// concurrent use; the registry and its System drive it from one goroutine.
type Controller struct {
	mount    entity.ID
	world    World
	settings *Settings
	inst     *instruments

	rider    entity.ID
	hasRider bool

	noseDirection physics.Vector3
	lastVelocity  physics.Vector3
	jetTicks      int
	jetSpeed      float64
	running       bool
}

func newController(mount entity.ID, world World, settings *Settings, inst *instruments) *Controller {
	c := &Controller{
		mount:         mount,
		world:         world,
		settings:      settings,
		inst:          inst,
		noseDirection: physics.Vector3{X: 1},
	}
	c.RefreshRiderBinding()
	if c.hasRider {
		if aim := world.AimDirection(c.rider); !aim.IsZero() {
			c.noseDirection = aim
		}
	}
	c.lastVelocity = world.Velocity(mount)
	return c
}

// StartJet boosts the mount for the given number of ticks, starting a glide
// first when the controller is idle. While already running only the boost
// countdown is reset. Non-positive ticks are ignored.
func (c *Controller) StartJet(ticks int, referenceSpeed float64) {
	if ticks <= 0 {
		return
	}
	if !c.running {
		c.StartGlide()
	}
	c.jetTicks = ticks
	c.jetSpeed = referenceSpeed

	c.inst.jets.Add(context.Background(), 1)
	ev := event.NewFlightEvent(event.JetStarted, c, uint64(c.mount), uint64(c.rider))
	ev.Ticks = ticks
	c.settings.Bus.Publish(ev)
	c.settings.Logger.Debug(context.Background(), "jet started",
		"mount_id", uint64(c.mount),
		"rider_id", uint64(c.rider),
		"ticks", ticks,
		"speed", referenceSpeed,
	)
}

// StartGlide (re)starts the per-tick update and samples the mount's
// current velocity as the glide reference.
func (c *Controller) StartGlide() {
	c.lastVelocity = c.world.Velocity(c.mount)
	if c.running {
		return
	}
	c.running = true
	c.inst.active.Add(context.Background(), 1)
}

// Stop ends the flight. Calling it on an idle controller does nothing.
func (c *Controller) Stop() {
	c.halt(ReasonRequested)
}

func (c *Controller) halt(reason StopReason) {
	if !c.running {
		return
	}
	c.running = false
	c.jetTicks = 0

	c.inst.stop(reason)
	ev := event.NewFlightEvent(event.FlightStopped, c, uint64(c.mount), uint64(c.rider))
	ev.Reason = string(reason)
	c.settings.Bus.Publish(ev)
	c.settings.Logger.Debug(context.Background(), "flight stopped",
		"mount_id", uint64(c.mount),
		"reason", string(reason),
	)
}

// Step advances the flight by one tick. It does nothing while idle.
func (c *Controller) Step() {
	if !c.running {
		return
	}
	c.inst.step(c.Mode())

	if !c.riderStillMounted() {
		c.halt(ReasonRiderLost)
		return
	}

	if c.jetTicks > 0 {
		c.boost()
		c.lastVelocity = c.world.Velocity(c.mount)
		return
	}

	if c.world.HoldsSteeringItem(c.rider) {
		if aim := c.world.AimDirection(c.rider); !aim.IsZero() {
			c.noseDirection = aim
		}
	}

	grounded := c.world.IsOnGround(c.mount) || c.world.IsInWater(c.mount)
	if grounded && c.world.Velocity(c.mount).Length() < c.settings.Constants.StopSpeed {
		c.halt(ReasonLanded)
		return
	}

	impulse := GlideImpulse(c.settings.Constants, c.noseDirection, c.lastVelocity, grounded)
	c.world.SetVelocity(c.mount, impulse)
	c.lastVelocity = impulse
}

func (c *Controller) boost() {
	aim := c.world.AimDirection(c.rider)
	c.world.ApplyImpulse(c.mount, BoostImpulse(c.settings.Constants, aim, c.world.Velocity(c.mount)))

	c.settings.Sink.SpawnParticle(c.mount, feedback.Particle{
		Name:  c.settings.Particle,
		Color: randomColor(c.settings.Rand),
	})

	c.jetTicks--
	if c.jetTicks == 0 {
		c.settings.Logger.Debug(context.Background(), "jet finished, gliding",
			"mount_id", uint64(c.mount),
		)
	}
}

// riderStillMounted checks the controlling seat. A player found there becomes
// the bound rider; an empty seat, a non-player occupant or a controller that
// never had a rider all clear the binding.
func (c *Controller) riderStillMounted() bool {
	occupant, ok := c.world.ControllingSeatOccupant(c.mount)
	if !ok || !c.hasRider || !c.world.IsPlayer(occupant) {
		c.clearRider()
		return false
	}
	c.bindRider(occupant)
	return true
}

// RefreshRiderBinding re-resolves the controlling rider from the world.
func (c *Controller) RefreshRiderBinding() {
	occupant, ok := c.world.ControllingSeatOccupant(c.mount)
	if !ok || !c.world.IsPlayer(occupant) {
		c.clearRider()
		return
	}
	c.bindRider(occupant)
}

func (c *Controller) bindRider(id entity.ID) {
	if c.hasRider && c.rider == id {
		return
	}
	c.rider, c.hasRider = id, true
	c.publishRiderChanged()
}

func (c *Controller) clearRider() {
	if !c.hasRider {
		return
	}
	c.rider, c.hasRider = entity.None, false
	c.publishRiderChanged()
}

func (c *Controller) publishRiderChanged() {
	c.settings.Bus.Publish(event.NewFlightEvent(event.RiderChanged, c, uint64(c.mount), uint64(c.rider)))
	c.settings.Logger.Debug(context.Background(), "rider binding changed",
		"mount_id", uint64(c.mount),
		"rider_id", uint64(c.rider),
	)
}

// CurrentRider returns the occupant of the mount's controlling seat, whatever
// kind of entity it is.
func (c *Controller) CurrentRider() (entity.ID, bool) {
	return c.world.ControllingSeatOccupant(c.mount)
}

// Rider returns the rider bound as allowed to steer
func (c *Controller) Rider() (entity.ID, bool) {
	return c.rider, c.hasRider
}

// MountID returns the mount this controller flies
func (c *Controller) MountID() entity.ID {
	return c.mount
}

// Running reports whether the controller is stepped each tick
func (c *Controller) Running() bool {
	return c.running
}

// Mode returns the current flight mode
func (c *Controller) Mode() Mode {
	switch {
	case !c.running:
		return ModeIdle
	case c.jetTicks > 0:
		return ModeJetting
	default:
		return ModeGliding
	}
}

// JetTicksRemaining returns the number of boost ticks left
func (c *Controller) JetTicksRemaining() int {
	return c.jetTicks
}

// JetSpeed returns the reference speed of the last boost
func (c *Controller) JetSpeed() float64 {
	return c.jetSpeed
}

// NoseDirection returns the last committed steering direction
func (c *Controller) NoseDirection() physics.Vector3 {
	return c.noseDirection
}

// LastVelocity returns the velocity sampled at the end of the previous tick
func (c *Controller) LastVelocity() physics.Vector3 {
	return c.lastVelocity
}

func randomColor(r *rand.Rand) feedback.Color {
	return feedback.Color{R: r.Float64(), G: r.Float64(), B: r.Float64()}
}
