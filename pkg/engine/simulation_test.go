// pkg/engine/simulation_test.go
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-skymount/pkg/config"
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/event"
	"github.com/opd-ai/go-skymount/pkg/feedback"
	"github.com/opd-ai/go-skymount/pkg/flight"
	"github.com/opd-ai/go-skymount/pkg/logging"
	"github.com/opd-ai/go-skymount/pkg/physics"
	"github.com/opd-ai/go-skymount/pkg/world"
)

var (
	spawnPoint = physics.Vector3{X: 10, Y: 64, Z: 10}
	lookUp     = physics.Vector3{Y: 1}
)

func newTestSimulation(t *testing.T) *Simulation {
	t.Helper()
	sim, err := NewSimulation(config.DefaultConfig(), nil)
	require.NoError(t, err)
	return sim
}

// seatedPilot spawns a bear and a rocket-holding player in its controlling seat
func seatedPilot(t *testing.T, sim *Simulation, rockets int) (mount, rider entity.ID) {
	t.Helper()
	mount = sim.SpawnMount(spawnPoint, 2)
	rider = sim.SpawnPlayer(spawnPoint, lookUp)
	require.NoError(t, sim.GiveItem(rider, entity.ItemStack{Type: sim.Config.Boost.Item, Count: rockets}, false))
	require.NoError(t, sim.Mount(rider, mount))
	return mount, rider
}

func TestNewSimulation_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Boost.Ticks = 0

	_, err := NewSimulation(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewSimulation_NilConfigUsesDefaults(t *testing.T) {
	sim, err := NewSimulation(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), sim.Config)
}

func TestUseItem_StartsBoost(t *testing.T) {
	sim := newTestSimulation(t)
	mount, rider := seatedPilot(t, sim, 3)

	var used []*event.FlightEvent
	sim.EventBus.Subscribe(event.BoostItemUsed, func(e event.Event) {
		used = append(used, e.(*event.FlightEvent))
	})

	require.NoError(t, sim.UseItem(rider))

	state, ok := sim.MountState(mount)
	require.True(t, ok)
	assert.Equal(t, flight.ModeJetting, state.Mode)
	assert.Equal(t, sim.Config.Boost.Ticks, state.JetTicks)

	c := sim.Controller(mount)
	assert.Equal(t, sim.Config.Boost.Speed, c.JetSpeed())

	require.Len(t, used, 1)
	assert.Equal(t, uint64(mount), used[0].MountID)
	assert.Equal(t, uint64(rider), used[0].RiderID)

	effects := sim.Effects()
	require.Len(t, effects, 1)
	assert.Equal(t, feedback.KindSound, effects[0].Kind)
	assert.Equal(t, rider, effects[0].At)
	assert.Equal(t, sim.Config.Boost.Sound, effects[0].Sound)
}

func TestUseItemContext_LogsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	sim, err := NewSimulation(config.DefaultConfig(), logging.NewLoggerWithWriter(&buf, slog.LevelDebug))
	require.NoError(t, err)
	_, rider := seatedPilot(t, sim, 1)

	ctx := logging.WithCorrelationID(context.Background(), "req-42")
	require.NoError(t, sim.UseItemContext(ctx, rider))
	require.ErrorIs(t, sim.UseItem(rider), ErrNotHoldingBoostItem)

	byMsg := map[string]map[string]interface{}{}
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var entry map[string]interface{}
		require.NoError(t, dec.Decode(&entry))
		byMsg[entry["msg"].(string)] = entry
	}

	require.Contains(t, byMsg, "boost item used")
	assert.Equal(t, "req-42", byMsg["boost item used"][logging.CorrelationKey])

	require.Contains(t, byMsg, "boost rejected")
	generated, _ := byMsg["boost rejected"][logging.CorrelationKey].(string)
	assert.Len(t, generated, 16)
	assert.Equal(t, ErrNotHoldingBoostItem.Error(), byMsg["boost rejected"]["reason"])
}

func TestUseItem_ConsumesOneItem(t *testing.T) {
	sim := newTestSimulation(t)
	_, rider := seatedPilot(t, sim, 2)

	require.NoError(t, sim.UseItem(rider))
	require.NoError(t, sim.UseItem(rider))

	// the last rocket is gone, so the third use fails
	assert.ErrorIs(t, sim.UseItem(rider), ErrNotHoldingBoostItem)
}

func TestUseItem_Errors(t *testing.T) {
	t.Run("unknown_rider", func(t *testing.T) {
		sim := newTestSimulation(t)
		assert.ErrorIs(t, sim.UseItem(entity.ID(9999)), world.ErrUnknownEntity)
	})

	t.Run("wrong_item", func(t *testing.T) {
		sim := newTestSimulation(t)
		mount := sim.SpawnMount(spawnPoint, 1)
		rider := sim.SpawnPlayer(spawnPoint, lookUp)
		require.NoError(t, sim.GiveItem(rider, entity.ItemStack{Type: "minecraft:stick", Count: 1}, false))
		require.NoError(t, sim.Mount(rider, mount))

		assert.ErrorIs(t, sim.UseItem(rider), ErrNotHoldingBoostItem)
	})

	t.Run("rocket_in_off_hand", func(t *testing.T) {
		sim := newTestSimulation(t)
		mount := sim.SpawnMount(spawnPoint, 1)
		rider := sim.SpawnPlayer(spawnPoint, lookUp)
		require.NoError(t, sim.GiveItem(rider, entity.ItemStack{Type: sim.Config.Boost.Item, Count: 1}, true))
		require.NoError(t, sim.Mount(rider, mount))

		assert.ErrorIs(t, sim.UseItem(rider), ErrNotHoldingBoostItem)
	})

	t.Run("no_mount_nearby", func(t *testing.T) {
		sim := newTestSimulation(t)
		sim.SpawnMount(physics.Vector3{X: 500, Y: 64, Z: 500}, 1)
		rider := sim.SpawnPlayer(spawnPoint, lookUp)
		require.NoError(t, sim.GiveItem(rider, entity.ItemStack{Type: sim.Config.Boost.Item, Count: 1}, false))

		assert.ErrorIs(t, sim.UseItem(rider), ErrNoMountNearby)
	})

	t.Run("not_riding_nearest", func(t *testing.T) {
		sim := newTestSimulation(t)
		sim.SpawnMount(spawnPoint, 1)
		rider := sim.SpawnPlayer(spawnPoint, lookUp)
		require.NoError(t, sim.GiveItem(rider, entity.ItemStack{Type: sim.Config.Boost.Item, Count: 1}, false))

		assert.ErrorIs(t, sim.UseItem(rider), ErrNotRiding)
		assert.Empty(t, sim.Effects())
	})
}

func TestUseItem_PassengerHearsLaunchButCannotSteer(t *testing.T) {
	sim := newTestSimulation(t)
	mount, _ := seatedPilot(t, sim, 1)

	passenger := sim.SpawnPlayer(spawnPoint, lookUp)
	require.NoError(t, sim.GiveItem(passenger, entity.ItemStack{Type: sim.Config.Boost.Item, Count: 4}, false))
	require.NoError(t, sim.Mount(passenger, mount))

	require.ErrorIs(t, sim.UseItem(passenger), ErrNotControlling)

	effects := sim.Effects()
	require.Len(t, effects, 1)
	assert.Equal(t, feedback.KindSound, effects[0].Kind)
	assert.Equal(t, passenger, effects[0].At)

	state, ok := sim.MountState(mount)
	require.True(t, ok)
	assert.Equal(t, flight.ModeIdle, state.Mode)
}

func TestTick_BoostLiftsMount(t *testing.T) {
	sim := newTestSimulation(t)
	mount, rider := seatedPilot(t, sim, 1)
	require.NoError(t, sim.UseItem(rider))

	for i := 0; i < 10; i++ {
		sim.Tick()
	}

	state, ok := sim.MountState(mount)
	require.True(t, ok)
	assert.Greater(t, state.Position.Y, spawnPoint.Y)
	assert.Greater(t, state.Velocity.Y, 0.0)
	assert.False(t, state.OnGround)
	assert.Equal(t, sim.Config.Boost.Ticks-10, state.JetTicks)
	assert.Equal(t, []entity.ID{rider}, state.Riders)
	assert.Equal(t, uint64(10), sim.Ticks())

	particles := 0
	for _, e := range sim.Effects() {
		if e.Kind == feedback.KindParticle {
			particles++
			assert.Equal(t, mount, e.At)
			assert.Equal(t, sim.Config.Boost.Particle, e.Particle.Name)
		}
	}
	assert.Equal(t, 10, particles)
}

func TestTick_BoostFollowsAim(t *testing.T) {
	sim := newTestSimulation(t)
	mount, rider := seatedPilot(t, sim, 1)
	aim := physics.Vector3{X: 1, Y: 1}
	require.NoError(t, sim.SetAim(rider, aim))
	require.NoError(t, sim.UseItem(rider))

	for i := 0; i < 50; i++ {
		sim.Tick()
	}

	state, ok := sim.MountState(mount)
	require.True(t, ok)
	require.Equal(t, flight.ModeJetting, state.Mode)
	assert.InDelta(t, aim.Pitch(), state.Velocity.Pitch(), 3.0)
	assert.InDelta(t, 0.0, state.Velocity.Z, 1e-9)
	assert.Greater(t, state.Velocity.X, 0.0)
}

func TestTick_IdleMountStaysPut(t *testing.T) {
	sim := newTestSimulation(t)
	mount, _ := seatedPilot(t, sim, 1)

	for i := 0; i < 5; i++ {
		sim.Tick()
	}

	state, ok := sim.MountState(mount)
	require.True(t, ok)
	assert.Equal(t, flight.ModeIdle, state.Mode)
	assert.True(t, state.OnGround)
	assert.Equal(t, spawnPoint, state.Position)
}

func TestTick_DismountStopsFlight(t *testing.T) {
	sim := newTestSimulation(t)
	mount, rider := seatedPilot(t, sim, 1)
	require.NoError(t, sim.UseItem(rider))
	sim.Tick()

	var stops []string
	sim.EventBus.Subscribe(event.FlightStopped, func(e event.Event) {
		stops = append(stops, e.(*event.FlightEvent).Reason)
	})

	require.NoError(t, sim.Dismount(rider))
	sim.Tick()

	state, ok := sim.MountState(mount)
	require.True(t, ok)
	assert.Equal(t, flight.ModeIdle, state.Mode)
	assert.Equal(t, []string{string(flight.ReasonRiderLost)}, stops)
}

func TestRemoveMount_DiscardsController(t *testing.T) {
	sim := newTestSimulation(t)
	mount, rider := seatedPilot(t, sim, 1)
	require.NoError(t, sim.UseItem(rider))

	var removed int
	sim.EventBus.Subscribe(event.ControllerRemoved, func(event.Event) { removed++ })

	assert.True(t, sim.RemoveMount(mount))
	assert.False(t, sim.RemoveMount(mount))
	assert.Equal(t, 1, removed)

	_, ok := sim.MountState(mount)
	assert.False(t, ok)
	assert.Empty(t, sim.Snapshot())

	// the rider is on foot again
	assert.ErrorIs(t, sim.Dismount(rider), world.ErrNotRiding)
	sim.Tick()
}

func TestSnapshot_OrderedByID(t *testing.T) {
	sim := newTestSimulation(t)
	first := sim.SpawnMount(spawnPoint, 1)
	second := sim.SpawnMount(physics.Vector3{X: -20, Y: 70, Z: 0}, 1)

	snapshot := sim.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, first, snapshot[0].ID)
	assert.Equal(t, second, snapshot[1].ID)
	assert.Equal(t, entity.Kind(sim.Config.Boost.MountType), snapshot[1].Kind)
	assert.False(t, snapshot[1].OnGround)
}

func TestSetAim_UnknownRider(t *testing.T) {
	sim := newTestSimulation(t)
	assert.ErrorIs(t, sim.SetAim(entity.ID(9999), lookUp), world.ErrUnknownEntity)
	assert.ErrorIs(t, sim.GiveItem(entity.ID(9999), entity.ItemStack{}, false), world.ErrUnknownEntity)
}

func TestStartStop_PublishesLifecycleEvents(t *testing.T) {
	sim := newTestSimulation(t)

	var types []event.Type
	record := func(e event.Event) { types = append(types, e.GetType()) }
	sim.EventBus.Subscribe(event.SimulationStarted, record)
	sim.EventBus.Subscribe(event.SimulationStopped, record)

	assert.True(t, sim.LastTick().IsZero())
	sim.Start()
	sim.Start()
	assert.True(t, sim.Running())
	assert.False(t, sim.LastTick().IsZero())

	sim.Stop()
	sim.Stop()
	assert.False(t, sim.Running())

	assert.Equal(t, []event.Type{event.SimulationStarted, event.SimulationStopped}, types)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Simulation.TickRate = 200
	sim, err := NewSimulation(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	require.Eventually(t, func() bool { return sim.Ticks() >= 5 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, sim.Running())
	assert.Greater(t, sim.Uptime(), time.Duration(0))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, sim.Running())
}

func TestStartJetAndStopFlight(t *testing.T) {
	sim := newTestSimulation(t)
	mount, _ := seatedPilot(t, sim, 0)

	require.NoError(t, sim.StartJet(mount, 4, 2))
	state, _ := sim.MountState(mount)
	assert.Equal(t, flight.ModeJetting, state.Mode)
	assert.Equal(t, 4, state.JetTicks)

	assert.True(t, sim.StopFlight(mount))
	assert.False(t, sim.StopFlight(mount))
	state, _ = sim.MountState(mount)
	assert.Equal(t, flight.ModeIdle, state.Mode)

	assert.ErrorIs(t, sim.StartJet(entity.ID(9999), 4, 2), world.ErrUnknownEntity)
	assert.False(t, sim.StopFlight(entity.ID(9999)))
}

func TestFeedback_StartsClosed(t *testing.T) {
	sim := newTestSimulation(t)
	assert.False(t, sim.FeedbackOpen())
	assert.Zero(t, sim.FeedbackDropped())
}

// TestSimulationRaceCondition ticks while other goroutines spawn, mount,
// boost and remove. Run with -race.
func TestSimulationRaceCondition(t *testing.T) {
	sim := newTestSimulation(t)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				sim.Tick()
				_ = sim.Snapshot()
				time.Sleep(time.Millisecond)
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			mount := sim.SpawnMount(spawnPoint, 1)
			rider := sim.SpawnPlayer(spawnPoint, lookUp)
			if err := sim.GiveItem(rider, entity.ItemStack{Type: sim.Config.Boost.Item, Count: 1}, false); err != nil {
				t.Errorf("GiveItem: %v", err)
				return
			}
			if err := sim.Mount(rider, mount); err != nil {
				t.Errorf("Mount: %v", err)
				return
			}
			if err := sim.UseItem(rider); err != nil {
				t.Errorf("UseItem: %v", err)
				return
			}
			if !sim.RemoveMount(mount) {
				t.Errorf("RemoveMount(%d) returned false", mount)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = sim.Effects()
			_ = sim.FeedbackDropped()
			time.Sleep(time.Millisecond)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	close(done)
	wg.Wait()
}
