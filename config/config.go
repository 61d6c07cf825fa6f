// Package config provides configuration loading and access for the growth simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/arbor/growth"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Neuron      NeuronConfig      `yaml:"neuron"`
	Activity    ActivityConfig    `yaml:"activity"`
	Environment EnvironmentConfig `yaml:"environment"`
	Resources   ResourcesConfig   `yaml:"resources"`
	Synapses    SynapsesConfig    `yaml:"synapses"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Storage     StorageConfig     `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run-level parameters.
type SimulationConfig struct {
	Seed         int64   `yaml:"seed"`
	MaxTicks     int     `yaml:"max_ticks"`     // 0 = run until cancelled
	TimeStep     float64 `yaml:"time_step"`     // simulated days per tick
	Neurons      int     `yaml:"neurons"`       // neurons placed on the layout ring
	LayoutRadius float64 `yaml:"layout_radius"` // ring radius in µm
	Workers      int     `yaml:"workers"`       // growth workers (0 = GOMAXPROCS)
}

// NeuronConfig holds per-neuron parameters.
type NeuronConfig struct {
	Speed              int     `yaml:"speed"`               // drives energy capacity and factor radius
	Threshold          float64 `yaml:"threshold"`           // firing threshold
	ExcitatoryFraction float64 `yaml:"excitatory_fraction"` // share of neurons that attract
	PrimaryDendrites   int     `yaml:"primary_dendrites"`
	TreeEnergy         float64 `yaml:"tree_energy"`
	AxonEnergy         float64 `yaml:"axon_energy"` // 0 = half the neuron's capacity
}

// ActivityConfig holds the noise-driven activity model.
type ActivityConfig struct {
	NoiseScale  float64 `yaml:"noise_scale"` // spatial frequency of the drive
	TimeScale   float64 `yaml:"time_scale"`  // temporal frequency of the drive
	Gain        float64 `yaml:"gain"`        // drive amplitude
	Smoothing   float64 `yaml:"smoothing"`   // EMA alpha for activity level
	HistorySize int     `yaml:"history_size"`
}

// FactorConfig describes a static growth factor.
type FactorConfig struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
	Strength float64 `yaml:"strength"`
	Radius   float64 `yaml:"radius"`
	Kind     string  `yaml:"kind"` // attractive, repulsive, obstacle
}

// EnvironmentConfig holds static growth factors.
type EnvironmentConfig struct {
	Factors []FactorConfig `yaml:"factors"`
}

// ResourcesConfig holds the shared dendritic energy pool.
type ResourcesConfig struct {
	PoolEnergy       float64 `yaml:"pool_energy"`
	ReplenishPerTick float64 `yaml:"replenish_per_tick"`
	Strategy         string  `yaml:"strategy"` // equal, activity, growth_potential
	Interval         float64 `yaml:"interval"` // simulated days between distributions
	AxonReplenish    float64 `yaml:"axon_replenish"`
}

// SynapsesConfig holds contact formation parameters.
type SynapsesConfig struct {
	ContactRadius float64 `yaml:"contact_radius"`
	MaxPerPair    int     `yaml:"max_per_pair"`
	Reactivation  bool    `yaml:"reactivation"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow        int  `yaml:"stats_window"`      // ticks per stats window
	SnapshotInterval   int  `yaml:"snapshot_interval"` // ticks between snapshots (0 = final only)
	ExportMeasurements bool `yaml:"export_measurements"`
}

// StorageConfig selects the snapshot store.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "", memory, sqlite
	Path    string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32     float32                   // Simulation.TimeStep as float32
	Strategy growth.AllocationStrategy // parsed Resources.Strategy
	Factors  []growth.GrowthFactor     // parsed Environment.Factors
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Simulation.TimeStep <= 0:
		return invalid("simulation.time_step must be > 0")
	case c.Simulation.Neurons < 0:
		return invalid("simulation.neurons must be >= 0")
	case c.Simulation.MaxTicks < 0:
		return invalid("simulation.max_ticks must be >= 0")
	case c.Simulation.Workers < 0:
		return invalid("simulation.workers must be >= 0")
	case c.Neuron.Speed < 0 || c.Neuron.Speed > 65535:
		return invalid("neuron.speed must be in [0, 65535]")
	case c.Neuron.ExcitatoryFraction < 0 || c.Neuron.ExcitatoryFraction > 1:
		return invalid("neuron.excitatory_fraction must be in [0, 1]")
	case c.Neuron.PrimaryDendrites < 0:
		return invalid("neuron.primary_dendrites must be >= 0")
	case c.Activity.Smoothing <= 0 || c.Activity.Smoothing > 1:
		return invalid("activity.smoothing must be in (0, 1]")
	case c.Activity.HistorySize <= 0:
		return invalid("activity.history_size must be > 0")
	case c.Resources.Interval < 0:
		return invalid("resources.interval must be >= 0")
	case c.Synapses.ContactRadius < 0:
		return invalid("synapses.contact_radius must be >= 0")
	case c.Synapses.MaxPerPair < 0:
		return invalid("synapses.max_per_pair must be >= 0")
	case c.Telemetry.StatsWindow <= 0:
		return invalid("telemetry.stats_window must be > 0")
	case c.Telemetry.SnapshotInterval < 0:
		return invalid("telemetry.snapshot_interval must be >= 0")
	}

	if _, err := growth.ParseAllocationStrategy(c.Resources.Strategy); err != nil {
		return invalid("resources.strategy: %v", err)
	}
	for i, f := range c.Environment.Factors {
		if _, err := growth.ParseFactorKind(f.Kind); err != nil {
			return invalid("environment.factors[%d].kind: %v", i, err)
		}
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "", "memory", "sqlite":
	default:
		return invalid("storage.backend %q is not supported", c.Storage.Backend)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// computeDerived calculates values derived from loaded config.
// Assumes Validate has passed.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Simulation.TimeStep)
	c.Derived.Strategy, _ = growth.ParseAllocationStrategy(c.Resources.Strategy)

	c.Derived.Factors = make([]growth.GrowthFactor, 0, len(c.Environment.Factors))
	for _, f := range c.Environment.Factors {
		kind, _ := growth.ParseFactorKind(f.Kind)
		c.Derived.Factors = append(c.Derived.Factors, growth.NewGrowthFactor(
			growth.NewPosition(float32(f.X), float32(f.Y), float32(f.Z)),
			float32(f.Strength),
			float32(f.Radius),
			kind,
		))
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
