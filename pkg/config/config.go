// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opd-ai/go-skymount/pkg/logging"
)

// EnvPrefix is prepended to every environment override, e.g. SKYMOUNT_PHYSICS_GRAVITY
const EnvPrefix = "SKYMOUNT"

// Config contains the configuration of a skymount simulation
type Config struct {
	LogLevel   string           `json:"logLevel" mapstructure:"logLevel"`
	Physics    PhysicsConfig    `json:"physics" mapstructure:"physics"`
	Boost      BoostConfig      `json:"boost" mapstructure:"boost"`
	Simulation SimulationConfig `json:"simulation" mapstructure:"simulation"`
	Terrain    TerrainConfig    `json:"terrain" mapstructure:"terrain"`
	Feedback   FeedbackConfig   `json:"feedback" mapstructure:"feedback"`
	Health     HealthConfig     `json:"health" mapstructure:"health"`
}

// PhysicsConfig holds the flight tuning constants. Values are per tick.
type PhysicsConfig struct {
	Friction         float64 `json:"friction" mapstructure:"friction"`
	MaxSpeed         float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
	Gravity          float64 `json:"gravity" mapstructure:"gravity"`
	RocketThrust     float64 `json:"rocketThrust" mapstructure:"rocketThrust"`
	WingDrag         float64 `json:"wingDrag" mapstructure:"wingDrag"`
	FaceDrag         float64 `json:"faceDrag" mapstructure:"faceDrag"`
	SideDrag         float64 `json:"sideDrag" mapstructure:"sideDrag"`
	Lift             float64 `json:"lift" mapstructure:"lift"`
	StopSpeed        float64 `json:"stopSpeed" mapstructure:"stopSpeed"`
	SnapThreshold    float64 `json:"snapThreshold" mapstructure:"snapThreshold"`
	GroundDragFactor float64 `json:"groundDragFactor" mapstructure:"groundDragFactor"`
	GroundLiftFactor float64 `json:"groundLiftFactor" mapstructure:"groundLiftFactor"`
}

// BoostConfig describes what a boost item does when used while riding
type BoostConfig struct {
	Ticks        int     `json:"ticks" mapstructure:"ticks"`
	Speed        float64 `json:"speed" mapstructure:"speed"`
	Item         string  `json:"item" mapstructure:"item"`
	Sound        string  `json:"sound" mapstructure:"sound"`
	Particle     string  `json:"particle" mapstructure:"particle"`
	MountType    string  `json:"mountType" mapstructure:"mountType"`
	SearchRadius float64 `json:"searchRadius" mapstructure:"searchRadius"`
}

// SimulationConfig controls the tick loop
type SimulationConfig struct {
	TickRate int `json:"tickRate" mapstructure:"tickRate"`
}

// TerrainConfig describes the flat reference world
type TerrainConfig struct {
	GroundHeight   float64 `json:"groundHeight" mapstructure:"groundHeight"`
	WaterLevel     float64 `json:"waterLevel" mapstructure:"waterLevel"`
	GroundFriction float64 `json:"groundFriction" mapstructure:"groundFriction"`
	HostGravity    float64 `json:"hostGravity" mapstructure:"hostGravity"`
}

// FeedbackConfig configures the circuit breaker guarding particle and sound output
type FeedbackConfig struct {
	MaxConsecutiveFailures uint32        `json:"maxConsecutiveFailures" mapstructure:"maxConsecutiveFailures"`
	MaxRequests            uint32        `json:"maxRequests" mapstructure:"maxRequests"`
	Interval               time.Duration `json:"interval" mapstructure:"interval"`
	Timeout                time.Duration `json:"timeout" mapstructure:"timeout"`
	HistorySize            int           `json:"historySize" mapstructure:"historySize"`
}

// HealthConfig configures the health endpoints
type HealthConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	Port    int  `json:"port" mapstructure:"port"`
}

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// DefaultConfig returns the default simulation configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Physics: PhysicsConfig{
			Friction:         0.1,
			MaxSpeed:         2,
			Gravity:          0.0784,
			RocketThrust:     0.25,
			WingDrag:         0.2,
			FaceDrag:         0.005,
			SideDrag:         0.02,
			Lift:             0.05,
			StopSpeed:        0.3,
			SnapThreshold:    0.01,
			GroundDragFactor: 10,
			GroundLiftFactor: 0.1,
		},
		Boost: BoostConfig{
			Ticks:        100,
			Speed:        3,
			Item:         "minecraft:firework_rocket",
			Sound:        "firework.launch",
			Particle:     "minecraft:sparkler_emitter",
			MountType:    "minecraft:polar_bear",
			SearchRadius: 8,
		},
		Simulation: SimulationConfig{
			TickRate: 20,
		},
		Terrain: TerrainConfig{
			GroundHeight:   64,
			WaterLevel:     62,
			GroundFriction: 0.546,
			HostGravity:    0.08,
		},
		Feedback: FeedbackConfig{
			MaxConsecutiveFailures: 5,
			MaxRequests:            1,
			Interval:               60 * time.Second,
			Timeout:                30 * time.Second,
			HistorySize:            256,
		},
		Health: HealthConfig{
			Enabled: true,
			Port:    8081,
		},
	}
}

// setDefaults registers every key of DefaultConfig so that environment
// overrides resolve for nested keys.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("logLevel", d.LogLevel)

	v.SetDefault("physics.friction", d.Physics.Friction)
	v.SetDefault("physics.maxSpeed", d.Physics.MaxSpeed)
	v.SetDefault("physics.gravity", d.Physics.Gravity)
	v.SetDefault("physics.rocketThrust", d.Physics.RocketThrust)
	v.SetDefault("physics.wingDrag", d.Physics.WingDrag)
	v.SetDefault("physics.faceDrag", d.Physics.FaceDrag)
	v.SetDefault("physics.sideDrag", d.Physics.SideDrag)
	v.SetDefault("physics.lift", d.Physics.Lift)
	v.SetDefault("physics.stopSpeed", d.Physics.StopSpeed)
	v.SetDefault("physics.snapThreshold", d.Physics.SnapThreshold)
	v.SetDefault("physics.groundDragFactor", d.Physics.GroundDragFactor)
	v.SetDefault("physics.groundLiftFactor", d.Physics.GroundLiftFactor)

	v.SetDefault("boost.ticks", d.Boost.Ticks)
	v.SetDefault("boost.speed", d.Boost.Speed)
	v.SetDefault("boost.item", d.Boost.Item)
	v.SetDefault("boost.sound", d.Boost.Sound)
	v.SetDefault("boost.particle", d.Boost.Particle)
	v.SetDefault("boost.mountType", d.Boost.MountType)
	v.SetDefault("boost.searchRadius", d.Boost.SearchRadius)

	v.SetDefault("simulation.tickRate", d.Simulation.TickRate)

	v.SetDefault("terrain.groundHeight", d.Terrain.GroundHeight)
	v.SetDefault("terrain.waterLevel", d.Terrain.WaterLevel)
	v.SetDefault("terrain.groundFriction", d.Terrain.GroundFriction)
	v.SetDefault("terrain.hostGravity", d.Terrain.HostGravity)

	v.SetDefault("feedback.maxConsecutiveFailures", d.Feedback.MaxConsecutiveFailures)
	v.SetDefault("feedback.maxRequests", d.Feedback.MaxRequests)
	v.SetDefault("feedback.interval", d.Feedback.Interval)
	v.SetDefault("feedback.timeout", d.Feedback.Timeout)
	v.SetDefault("feedback.historySize", d.Feedback.HistorySize)

	v.SetDefault("health.enabled", d.Health.Enabled)
	v.SetDefault("health.port", d.Health.Port)
}

// LoadConfig loads a configuration from a JSON file, layering SKYMOUNT_*
// environment overrides on top. An empty path loads defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, logging.WrapError(err, "failed to read config file %s", path)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, logging.WrapError(err, "failed to parse config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *Config, path string) error {
	if config == nil {
		return logging.WrapError(ErrInvalidConfig, "nil config")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return logging.WrapError(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return logging.WrapError(err, "failed to write config file %s", path)
	}

	return nil
}

// Validate checks the configuration for values the simulation cannot run with
func (c *Config) Validate() error {
	p := c.Physics
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"physics.friction", p.Friction},
		{"physics.maxSpeed", p.MaxSpeed},
		{"physics.gravity", p.Gravity},
		{"physics.rocketThrust", p.RocketThrust},
		{"physics.wingDrag", p.WingDrag},
		{"physics.faceDrag", p.FaceDrag},
		{"physics.sideDrag", p.SideDrag},
		{"physics.lift", p.Lift},
		{"physics.stopSpeed", p.StopSpeed},
		{"physics.snapThreshold", p.SnapThreshold},
		{"physics.groundDragFactor", p.GroundDragFactor},
		{"physics.groundLiftFactor", p.GroundLiftFactor},
		{"boost.speed", c.Boost.Speed},
		{"boost.searchRadius", c.Boost.SearchRadius},
		{"terrain.groundFriction", c.Terrain.GroundFriction},
		{"terrain.hostGravity", c.Terrain.HostGravity},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}

	if p.RocketThrust <= p.Gravity {
		return fmt.Errorf("%w: physics.rocketThrust (%v) must exceed physics.gravity (%v)", ErrInvalidConfig, p.RocketThrust, p.Gravity)
	}
	if c.Boost.Ticks <= 0 {
		return fmt.Errorf("%w: boost.ticks must be positive, got %d", ErrInvalidConfig, c.Boost.Ticks)
	}
	if c.Boost.Item == "" || c.Boost.MountType == "" {
		return fmt.Errorf("%w: boost.item and boost.mountType are required", ErrInvalidConfig)
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("%w: simulation.tickRate must be positive, got %d", ErrInvalidConfig, c.Simulation.TickRate)
	}
	if c.Terrain.GroundFriction > 1 {
		return fmt.Errorf("%w: terrain.groundFriction must not exceed 1, got %v", ErrInvalidConfig, c.Terrain.GroundFriction)
	}
	if c.Feedback.MaxConsecutiveFailures == 0 {
		return fmt.Errorf("%w: feedback.maxConsecutiveFailures must be positive", ErrInvalidConfig)
	}
	if c.Health.Enabled && (c.Health.Port <= 0 || c.Health.Port > 65535) {
		return fmt.Errorf("%w: health.port out of range: %d", ErrInvalidConfig, c.Health.Port)
	}

	switch strings.ToUpper(c.LogLevel) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("%w: unknown logLevel %q", ErrInvalidConfig, c.LogLevel)
	}

	return nil
}

// TickInterval returns the wall-clock duration of one simulation tick
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Simulation.TickRate)
}
