// Package sim runs the neural growth simulation: an ECS world of neurons
// whose axons and dendrites grow, connect and prune tick by tick.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/arbor/components"
	"github.com/pthm-cable/arbor/config"
	"github.com/pthm-cable/arbor/growth"
	"github.com/pthm-cable/arbor/storage"
	"github.com/pthm-cable/arbor/systems"
	"github.com/pthm-cable/arbor/telemetry"
)

// neuronNamespace scopes deterministic neuron ids.
var neuronNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("arbor/neuron"))

// Options controls the outer surfaces of a simulation.
type Options struct {
	Logger      *slog.Logger  // nil uses slog.Default()
	OutputDir   string        // CSV output directory ("" = disabled)
	SnapshotDir string        // JSON snapshot directory ("" = disabled)
	Store       storage.Store // initialized snapshot store (nil = disabled)
	RunID       string        // key for Store records; defaults to the seed
	LogStats    bool          // log window stats and perf

	// StatsCallback is called with each flushed stats window.
	StatsCallback func(telemetry.GrowthStats)
}

// neuronView holds component pointers for one neuron during a tick.
type neuronView struct {
	soma      *components.Soma
	axon      *components.Axon
	dendrites *components.Dendrites
	activity  *components.Activity
}

// Simulation owns the ECS world and drives the systems in fixed order.
type Simulation struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
	seed   int64

	world        *ecs.World
	neuronMapper *ecs.Map4[components.Soma, components.Axon, components.Dendrites, components.Activity]
	neuronFilter *ecs.Filter4[components.Soma, components.Axon, components.Dendrites, components.Activity]
	count        int

	activity *systems.ActivityDriver
	env      *systems.Environment
	pool     *systems.GrowthPool
	contacts *systems.ContactLedger
	energy   *systems.EnergySystem

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	tick int32
	time float32
	dt   float32

	// Energy bookkeeping for Summary
	energyIn float64

	// Per-tick scratch, indexed by neuron index
	views      []neuronView
	snaps      []growth.NeuronSnapshot
	excitatory []bool
	jobs       []systems.GrowthJob
	tips       []systems.AxonTip
	targets    []systems.ContactTarget
	trees      []*growth.DendriticTree
	axons      []*growth.AxonGrowth
	levels     []float32
	firing     []uuid.UUID
	recent     []uuid.UUID
}

// New builds a simulation from cfg with neurons laid out on a ring.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sim: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	s := newSimulation(cfg, opts, cfg.Simulation.Seed)
	s.spawnNeurons()
	s.energyIn = s.heldEnergy()

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.output = output
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, fmt.Errorf("sim: %w", err)
	}

	s.logger.Info("simulation created",
		"seed", s.seed,
		"neurons", s.count,
		"workers", s.pool.Workers(),
		"strategy", s.energy.Manager().Strategy().String(),
	)
	return s, nil
}

func newSimulation(cfg *config.Config, opts Options, seed int64) *Simulation {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RunID == "" {
		opts.RunID = fmt.Sprintf("seed-%d", seed)
	}

	s := &Simulation{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		seed:   seed,
		dt:     cfg.Derived.DT32,
		env:    systems.NewEnvironment(cfg.Derived.Factors),
		pool:   systems.NewGrowthPool(cfg.Simulation.Workers),
		contacts: systems.NewContactLedger(
			float32(cfg.Synapses.ContactRadius),
			cfg.Synapses.MaxPerPair,
		),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.StatsWindow),
	}
	s.activity = systems.NewActivityDriver(seed, s.activityParams())

	manager := growth.NewDendriteResourceManager(float32(cfg.Resources.PoolEnergy))
	manager.SetStrategy(cfg.Derived.Strategy)
	manager.SetDistributionInterval(float32(cfg.Resources.Interval))
	s.energy = systems.NewEnergySystem(manager, systems.EnergyParams{
		ReplenishPerTick:     float32(cfg.Resources.ReplenishPerTick),
		AxonReplenishPerTick: float32(cfg.Resources.AxonReplenish),
	})

	s.initWorld()
	return s
}

func (s *Simulation) activityParams() systems.ActivityParams {
	return systems.ActivityParams{
		NoiseScale: float32(s.cfg.Activity.NoiseScale),
		TimeScale:  float32(s.cfg.Activity.TimeScale),
		Gain:       float32(s.cfg.Activity.Gain),
		Smoothing:  float32(s.cfg.Activity.Smoothing),
	}
}

// initWorld creates an empty ECS world with the neuron mapper and filter.
func (s *Simulation) initWorld() {
	world := ecs.NewWorld()
	s.world = world
	s.neuronMapper = ecs.NewMap4[
		components.Soma,
		components.Axon,
		components.Dendrites,
		components.Activity,
	](world)
	s.neuronFilter = ecs.NewFilter4[
		components.Soma,
		components.Axon,
		components.Dendrites,
		components.Activity,
	](world)
	s.count = 0
}

// NeuronID returns the deterministic id of neuron index i under seed.
func NeuronID(seed int64, i int) uuid.UUID {
	return uuid.NewSHA1(neuronNamespace, []byte(fmt.Sprintf("%d/%d", seed, i)))
}

// spawnNeurons places neurons evenly on a ring in the XY plane, alternating
// above and below it.
func (s *Simulation) spawnNeurons() {
	cfg := s.cfg
	n := cfg.Simulation.Neurons
	radius := cfg.Simulation.LayoutRadius
	rng := rand.New(rand.NewSource(s.seed))

	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(max(n, 1))
		z := radius * 0.1
		if i%2 == 1 {
			z = -z
		}
		pos := growth.NewPosition(
			float32(radius*math.Cos(angle)),
			float32(radius*math.Sin(angle)),
			float32(z),
		)

		soma := components.Soma{
			ID:         NeuronID(s.seed, i),
			Index:      i,
			Position:   pos,
			Speed:      uint16(cfg.Neuron.Speed),
			Threshold:  float32(cfg.Neuron.Threshold),
			Excitatory: rng.Float64() < cfg.Neuron.ExcitatoryFraction,
		}

		var axonEnergy *float32
		if cfg.Neuron.AxonEnergy > 0 {
			e := float32(cfg.Neuron.AxonEnergy)
			axonEnergy = &e
		}
		axon := components.Axon{Growth: soma.Snapshot().StartAxonGrowth(axonEnergy)}

		tree := growth.NewDendriticTreeWithSeed(soma.ID, float32(cfg.Neuron.TreeEnergy), treeSeed(s.seed, i))
		tree.Initialize(cfg.Neuron.PrimaryDendrites)
		dendrites := components.Dendrites{Tree: tree}

		activity := components.Activity{LastFired: -1}

		s.neuronMapper.NewEntity(&soma, &axon, &dendrites, &activity)
		s.count++
	}
	s.resizeScratch()
}

// treeSeed derives a per-neuron tree seed so trees do not branch in lockstep.
func treeSeed(seed int64, i int) uint64 {
	return uint64(seed) + uint64(i)*7919
}

func (s *Simulation) resizeScratch() {
	n := s.count
	s.views = make([]neuronView, n)
	s.snaps = make([]growth.NeuronSnapshot, n)
	s.excitatory = make([]bool, n)
	s.jobs = make([]systems.GrowthJob, n)
	s.tips = make([]systems.AxonTip, 0, n)
	s.targets = make([]systems.ContactTarget, n)
	s.trees = make([]*growth.DendriticTree, n)
	s.axons = make([]*growth.AxonGrowth, n)
	s.levels = make([]float32, n)
}

// collect refreshes the per-index component views. Indexing by Soma.Index
// keeps every pass in neuron order regardless of ECS storage order.
func (s *Simulation) collect() {
	query := s.neuronFilter.Query()
	for query.Next() {
		soma, axon, dendrites, activity := query.Get()
		s.views[soma.Index] = neuronView{
			soma:      soma,
			axon:      axon,
			dendrites: dendrites,
			activity:  activity,
		}
	}
}

// Run advances the simulation by ticks, or until ctx is cancelled when ticks
// is 0. Cancellation is checked between ticks.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	s.logger.Info("run started", "tick", s.tick, "ticks", ticks)
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info("run cancelled", "tick", s.tick)
			return err
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("run finished", "tick", s.tick, "time", s.time)
	return nil
}

// Close stops workers, exports axon measurements if configured and closes
// output files.
func (s *Simulation) Close() error {
	s.pool.Stop()

	if s.output != nil && s.cfg.Telemetry.ExportMeasurements {
		s.collect()
		for _, v := range s.views {
			records := telemetry.MeasurementRecords(v.soma.ID, v.axon.Growth.ExportMeasurements())
			if err := s.output.WriteMeasurements(records); err != nil {
				s.logger.Error("failed to write measurements", "error", err)
			}
		}
	}
	return s.output.Close()
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int32 { return s.tick }

// Time returns the simulated time in days.
func (s *Simulation) Time() float32 { return s.time }

// NeuronCount returns the number of neurons.
func (s *Simulation) NeuronCount() int { return s.count }

// Seed returns the simulation seed.
func (s *Simulation) Seed() int64 { return s.seed }

// ResourceManager returns the shared dendrite energy pool.
func (s *Simulation) ResourceManager() *growth.DendriteResourceManager {
	return s.energy.Manager()
}
