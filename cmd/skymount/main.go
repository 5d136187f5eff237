// cmd/skymount/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-skymount/pkg/config"
	"github.com/opd-ai/go-skymount/pkg/engine"
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/health"
	"github.com/opd-ai/go-skymount/pkg/logging"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON configuration file")
	createDefault := flag.Bool("default", false, "Write the default configuration to -config and exit")
	ticks := flag.Int("ticks", 0, "Run this many ticks as fast as possible and exit; 0 runs in real time")
	reportEvery := flag.Int("report", 20, "Log mount state every N ticks")
	flag.Parse()

	ctx := context.Background()
	logger := logging.NewLogger()

	if *createDefault {
		if *configPath == "" {
			logger.Error(ctx, "No configuration path given", config.ErrInvalidConfig)
			os.Exit(1)
		}
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}
	if os.Getenv(logging.LevelEnvVar) == "" {
		logger = logging.NewLoggerWithWriter(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	}

	sim, err := engine.NewSimulation(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create simulation", err)
		os.Exit(1)
	}

	mount, rider, err := launchScenario(sim)
	if err != nil {
		logger.Error(ctx, "Failed to set up scenario", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Scenario ready",
		"mount_id", uint64(mount),
		"rider_id", uint64(rider),
	)

	if *ticks > 0 {
		runHeadless(ctx, sim, logger, mount, *ticks, *reportEvery)
		return
	}

	if err := runRealtime(sim, logger, mount, *reportEvery); err != nil {
		logger.Error(ctx, "Simulation exited with error", err)
		os.Exit(1)
	}
}

// launchScenario seats a rocket-carrying player on a mount and boosts it
func launchScenario(sim *engine.Simulation) (entity.ID, entity.ID, error) {
	origin := physics.Vector3{Y: sim.Config.Terrain.GroundHeight}
	mount := sim.SpawnMount(origin, 2)
	rider := sim.SpawnPlayer(origin, physics.Vector3{X: 1, Y: 1})

	stack := entity.ItemStack{Type: sim.Config.Boost.Item, Count: 16}
	if err := sim.GiveItem(rider, stack, false); err != nil {
		return mount, rider, err
	}
	if err := sim.Mount(rider, mount); err != nil {
		return mount, rider, err
	}
	if err := sim.UseItem(rider); err != nil {
		return mount, rider, fmt.Errorf("boost: %w", err)
	}
	return mount, rider, nil
}

func runHeadless(ctx context.Context, sim *engine.Simulation, logger *logging.Logger, mount entity.ID, ticks, every int) {
	for i := 1; i <= ticks; i++ {
		sim.Tick()
		if every > 0 && i%every == 0 {
			report(ctx, sim, logger, mount)
		}
	}
	report(ctx, sim, logger, mount)
}

func runRealtime(sim *engine.Simulation, logger *logging.Logger, mount entity.ID, every int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Run(ctx)
	})

	if sim.Config.Health.Enabled {
		checker := health.NewChecker(5 * time.Second)
		checker.AddCheck(health.NewSimulationCheck(sim.Running, sim.LastTick, 10*sim.Config.TickInterval()+time.Second))
		checker.AddCheck(health.NewFeedbackCheck(sim.FeedbackOpen, sim.FeedbackDropped))
		checker.AddCheck(health.NewMemoryCheck(500, func() int64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return int64(m.Alloc / 1024 / 1024)
		}))

		addr := fmt.Sprintf(":%d", sim.Config.Health.Port)
		g.Go(func() error {
			logger.Info(ctx, "Starting health check server", "address", addr)
			return checker.Serve(ctx, addr)
		})
	}

	if every > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Duration(every) * sim.Config.TickInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					report(ctx, sim, logger, mount)
				}
			}
		})
	}

	err := g.Wait()
	logger.Info(context.Background(), "Shut down",
		"ticks", sim.Ticks(),
		"uptime", sim.Uptime().String(),
	)
	return err
}

func report(ctx context.Context, sim *engine.Simulation, logger *logging.Logger, mount entity.ID) {
	state, ok := sim.MountState(mount)
	if !ok {
		logger.Warn(ctx, "Mount is gone", "mount_id", uint64(mount))
		return
	}
	logger.Info(ctx, "Mount state",
		"tick", sim.Ticks(),
		"mode", state.Mode.String(),
		"jet_ticks", state.JetTicks,
		"x", state.Position.X,
		"y", state.Position.Y,
		"z", state.Position.Z,
		"speed", state.Velocity.Length(),
		"on_ground", state.OnGround,
	)
}
