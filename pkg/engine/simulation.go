// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-skymount/pkg/config"
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/event"
	"github.com/opd-ai/go-skymount/pkg/feedback"
	"github.com/opd-ai/go-skymount/pkg/flight"
	"github.com/opd-ai/go-skymount/pkg/logging"
	"github.com/opd-ai/go-skymount/pkg/physics"
	"github.com/opd-ai/go-skymount/pkg/world"
)

// Errors returned by UseItem when a boost request cannot be honoured
var (
	ErrNotHoldingBoostItem = errors.New("rider is not holding the boost item")
	ErrNoMountNearby       = errors.New("no mount nearby")
	ErrNotRiding           = errors.New("rider is not riding the nearest mount")
	ErrNotControlling      = errors.New("rider does not control the mount")
)

// Simulation owns the world, the flight registry and the tick loop.
// All exported methods are safe for concurrent use. Event handlers run while
// the simulation lock is held and must not call back into the Simulation.
type Simulation struct {
	Config   *config.Config
	EventBus *event.Bus

	world    *world.World
	registry *flight.Registry
	effects  *feedback.Guarded
	ecsWorld *ecs.World
	logger   *logging.Logger

	lock        sync.RWMutex
	running     atomic.Bool
	currentTick atomic.Uint64
	lastTick    atomic.Int64
	startTime   time.Time
}

// NewSimulation builds a simulation from cfg. A nil logger discards output.
func NewSimulation(cfg *config.Config, logger *logging.Logger) (*Simulation, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	w := world.New(world.TerrainFromConfig(cfg.Terrain), cfg.Boost.Item, cfg.Feedback.HistorySize)
	bus := event.NewEventBus()
	guarded := feedback.NewGuarded(w, cfg.Feedback, logger)

	registry, err := flight.NewRegistry(w, flight.Settings{
		Constants: flight.ConstantsFromConfig(cfg.Physics),
		Particle:  cfg.Boost.Particle,
		Sink:      feedback.Multi{guarded, feedback.NewLogSink(logger)},
		Bus:       bus,
		Logger:    logger,
	})
	if err != nil {
		return nil, logging.WrapError(err, "creating flight registry")
	}

	ecsWorld := &ecs.World{}
	ecsWorld.AddSystem(flight.NewSystem(registry))
	ecsWorld.AddSystem(w)

	return &Simulation{
		Config:   cfg,
		EventBus: bus,
		world:    w,
		registry: registry,
		effects:  guarded,
		ecsWorld: ecsWorld,
		logger:   logger,
	}, nil
}

// Start marks the simulation as running
func (s *Simulation) Start() {
	if s.running.Swap(true) {
		return
	}
	s.lock.Lock()
	s.startTime = time.Now()
	s.lastTick.Store(s.startTime.UnixNano())
	s.lock.Unlock()

	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationStarted, Source: s})
	s.logger.Info(context.Background(), "simulation started",
		"tick_rate", s.Config.Simulation.TickRate,
	)
}

// Stop marks the simulation as halted. Ticking by hand still works.
func (s *Simulation) Stop() {
	if !s.running.Swap(false) {
		return
	}
	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationStopped, Source: s})
	s.logger.Info(context.Background(), "simulation stopped",
		"ticks", s.currentTick.Load(),
	)
}

// Tick advances the simulation by one step: flight controllers first, then
// host physics.
func (s *Simulation) Tick() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.ecsWorld.Update(float32(s.Config.TickInterval().Seconds()))
	s.currentTick.Add(1)
	s.lastTick.Store(time.Now().UnixNano())
}

// Run ticks at the configured rate until ctx is cancelled
func (s *Simulation) Run(ctx context.Context) error {
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(s.Config.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Running reports whether Run is active or Start was called
func (s *Simulation) Running() bool {
	return s.running.Load()
}

// Ticks returns the number of completed ticks
func (s *Simulation) Ticks() uint64 {
	return s.currentTick.Load()
}

// LastTick returns when the last tick finished, or when the simulation started
func (s *Simulation) LastTick() time.Time {
	n := s.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Uptime returns how long the simulation has been running
func (s *Simulation) Uptime() time.Duration {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// FeedbackDropped returns how many effects the guarded output has lost
func (s *Simulation) FeedbackDropped() uint64 {
	return s.effects.Dropped()
}

// FeedbackOpen reports whether the feedback circuit breaker is open
func (s *Simulation) FeedbackOpen() bool {
	return s.effects.State() == gobreaker.StateOpen
}

// SpawnMount adds a mount of the configured boost mount type
func (s *Simulation) SpawnMount(position physics.Vector3, seats int) entity.ID {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.world.SpawnMount(entity.Kind(s.Config.Boost.MountType), position, seats).GetID()
}

// SpawnPlayer adds a player looking along aim
func (s *Simulation) SpawnPlayer(position, aim physics.Vector3) entity.ID {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.world.SpawnPlayer(position, aim).GetID()
}

// SpawnPassenger adds a non-player rider
func (s *Simulation) SpawnPassenger(kind entity.Kind, position physics.Vector3) entity.ID {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.world.SpawnPassenger(kind, position).GetID()
}

// Mount seats rider on mount
func (s *Simulation) Mount(rider, mount entity.ID) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.world.Mount(rider, mount); err != nil {
		return logging.WrapError(err, "mount %d on %d", rider, mount)
	}
	return nil
}

// Dismount takes rider off its mount
func (s *Simulation) Dismount(rider entity.ID) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.world.Dismount(rider); err != nil {
		return logging.WrapError(err, "dismount %d", rider)
	}
	return nil
}

// SetAim changes where a rider looks
func (s *Simulation) SetAim(rider entity.ID, aim physics.Vector3) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	r, ok := s.world.RiderByID(rider)
	if !ok {
		return logging.WrapError(world.ErrUnknownEntity, "set aim of %d", rider)
	}
	r.Aim = aim
	return nil
}

// GiveItem puts a stack into the rider's main hand, or its off hand when offHand is set
func (s *Simulation) GiveItem(rider entity.ID, stack entity.ItemStack, offHand bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	r, ok := s.world.RiderByID(rider)
	if !ok {
		return logging.WrapError(world.ErrUnknownEntity, "give item to %d", rider)
	}
	if offHand {
		r.OffHand = stack
	} else {
		r.MainHand = stack
	}
	return nil
}

// RemoveMount deletes a mount from the world and discards its controller
func (s *Simulation) RemoveMount(id entity.ID) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	m, ok := s.world.MountByID(id)
	if !ok {
		return false
	}
	s.ecsWorld.RemoveEntity(m.BasicEntity)
	s.logger.Debug(context.Background(), "mount removed", "mount_id", uint64(id))
	return true
}

// Controller returns the flight controller of a mount, creating it on first
// use. The controller is not guarded by the simulation lock: read it only
// while the simulation is not ticking, and change flight through UseItem,
// StartJet, StopFlight or RemoveMount.
func (s *Simulation) Controller(mount entity.ID) *flight.Controller {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.registry.GetController(mount)
}

// StartJet boosts a mount for ticks ticks regardless of what its rider holds
func (s *Simulation) StartJet(mount entity.ID, ticks int, speed float64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.world.MountByID(mount); !ok {
		return logging.WrapError(world.ErrUnknownEntity, "start jet on %d", mount)
	}
	s.registry.GetController(mount).StartJet(ticks, speed)
	return nil
}

// StopFlight stops a mount's flight controller if it has one
func (s *Simulation) StopFlight(mount entity.ID) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.registry.Lookup(mount)
	if !ok || !c.Running() {
		return false
	}
	c.Stop()
	return true
}

// Effects returns the most recent particles and sounds emitted in the world
func (s *Simulation) Effects() []feedback.Effect {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.world.Effects()
}
