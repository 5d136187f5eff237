// pkg/flight/registry.go
package flight

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/event"
	"github.com/opd-ai/go-skymount/pkg/feedback"
	"github.com/opd-ai/go-skymount/pkg/logging"
)

// DefaultParticle is spawned on every boost tick unless Settings names another
const DefaultParticle = "minecraft:sparkler_emitter"

// Settings are shared by every controller of a registry
type Settings struct {
	Constants Constants
	// Particle is the effect spawned at the mount on each boost tick
	Particle string
	Sink     feedback.Sink
	// Bus receives flight lifecycle events; nil drops them
	Bus    *event.Bus
	Logger *logging.Logger
	// Rand picks particle colours; nil seeds one from the clock
	Rand *rand.Rand
}

func (s Settings) withDefaults() Settings {
	if s.Particle == "" {
		s.Particle = DefaultParticle
	}
	if s.Sink == nil {
		s.Sink = feedback.Nop{}
	}
	if s.Logger == nil {
		s.Logger = logging.Discard()
	}
	if s.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		s.Rand = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	return s
}

// Registry holds one Controller per mount. Like its controllers it is meant
// to be driven from a single goroutine.
type Registry struct {
	world       World
	settings    *Settings
	inst        *instruments
	controllers map[entity.ID]*Controller
}

// NewRegistry creates an empty registry over world
func NewRegistry(world World, settings Settings) (*Registry, error) {
	inst, err := newInstruments()
	if err != nil {
		return nil, err
	}

	s := settings.withDefaults()
	return &Registry{
		world:       world,
		settings:    &s,
		inst:        inst,
		controllers: make(map[entity.ID]*Controller),
	}, nil
}

// GetController returns the controller for mount, creating an idle one on
// first use. The rider binding is refreshed before returning.
func (r *Registry) GetController(mount entity.ID) *Controller {
	c, ok := r.controllers[mount]
	if !ok {
		c = newController(mount, r.world, r.settings, r.inst)
		r.controllers[mount] = c

		r.inst.controllers.Add(context.Background(), 1)
		r.settings.Bus.Publish(event.NewFlightEvent(event.ControllerCreated, r, uint64(mount), uint64(c.rider)))
		r.settings.Logger.Debug(context.Background(), "controller created",
			"mount_id", uint64(mount),
		)
		return c
	}

	c.RefreshRiderBinding()
	return c
}

// Lookup returns the controller for mount without creating one or touching
// its rider binding.
func (r *Registry) Lookup(mount entity.ID) (*Controller, bool) {
	c, ok := r.controllers[mount]
	return c, ok
}

// RemoveController stops and discards the controller for mount. It reports
// whether one existed; an unknown mount is left alone.
func (r *Registry) RemoveController(mount entity.ID) bool {
	c, ok := r.controllers[mount]
	if !ok {
		return false
	}

	c.halt(ReasonRemoved)
	delete(r.controllers, mount)

	r.inst.controllers.Add(context.Background(), -1)
	ev := event.NewFlightEvent(event.ControllerRemoved, r, uint64(mount), uint64(c.rider))
	ev.Reason = string(ReasonRemoved)
	r.settings.Bus.Publish(ev)
	r.settings.Logger.Debug(context.Background(), "controller removed",
		"mount_id", uint64(mount),
	)
	return true
}

// Controllers returns every controller ordered by mount id
func (r *Registry) Controllers() []*Controller {
	out := make([]*Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].mount < out[j].mount
	})
	return out
}

// Len returns the number of controllers held
func (r *Registry) Len() int {
	return len(r.controllers)
}

// StepAll steps every running controller once, in mount id order, and
// returns how many were stepped.
func (r *Registry) StepAll() int {
	stepped := 0
	for _, c := range r.Controllers() {
		if !c.running {
			continue
		}
		c.Step()
		stepped++
	}
	return stepped
}

// Settings returns the settings shared by the registry's controllers
func (r *Registry) Settings() Settings {
	return *r.settings
}
