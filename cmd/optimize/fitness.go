package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arbor/config"
	"github.com/pthm-cable/arbor/sim"
	"github.com/pthm-cable/arbor/telemetry"
)

// FitnessEvaluator runs simulations and scores the arbors they grow.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestSummary *sim.Summary
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestSummary returns the summary of the best seed from the best evaluation.
func (fe *FitnessEvaluator) BestSummary() *sim.Summary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSummary
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	summary     sim.Summary
	windowStats []telemetry.GrowthStats // collected via StatsCallback each window
	err         error
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	summary sim.Summary
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: computeFitness(result, quality),
				quality: quality,
				summary: result.summary,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeed := -1
	for i, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if bestSeed < 0 || r.fitness < results[bestSeed].fitness {
			bestSeed = i
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness && bestSeed >= 0 {
		fe.bestFitness = avgFitness
		summary := results[bestSeed].summary
		fe.bestSummary = &summary
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single simulation run for maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Simulation.Seed = seed
	// Seeds already run in parallel.
	cfg.Simulation.Workers = 1

	result := &runResult{}
	s, err := sim.New(cfg, sim.Options{
		Logger: fe.logger,
		StatsCallback: func(stats telemetry.GrowthStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		result.err = err
		return result
	}
	defer s.Close()

	result.err = s.Run(context.Background(), fe.maxTicks)
	result.summary = s.Summary()
	return result
}

// copyConfig creates a copy of the base config. Factor slices are shared;
// the simulation only reads them.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Telemetry.ExportMeasurements = false
	cfg.Telemetry.SnapshotInterval = 0
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(complexityPerEnergy × (1.0 + 0.2 × quality))
// Efficiency dominates; quality adds up to 20% to separate configs with
// similar efficiency. Failed runs score 0.
func computeFitness(r *runResult, quality float64) float64 {
	if r.err != nil {
		return 0
	}
	return -(r.summary.ComplexityPerEnergy() * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRetention = 0.4
	qualityWeightStability = 0.3
	qualityWeightFiring    = 0.3

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores network health in [0, 1] from window stats: the
// share of synapses that stay non-ghost, how steady complexity growth is,
// and whether neurons fire at a moderate rate.
func computeQuality(windows []telemetry.GrowthStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var retentionSum, firingSum float64
	var retentionCount int
	complexity := make([]float64, 0, len(valid))

	for _, w := range valid {
		complexity = append(complexity, w.ComplexityMean)

		if total := w.ActiveSynapses + w.WeakenedSynapses + w.GhostSynapses; total > 0 {
			retentionSum += float64(w.ActiveSynapses+w.WeakenedSynapses) / float64(total)
			retentionCount++
		}

		// Favour roughly one firing per neuron every ten ticks.
		if w.Neurons > 0 && w.WindowEndTick > w.WindowStartTick {
			rate := float64(w.Firings) / float64(w.Neurons) / float64(w.WindowEndTick-w.WindowStartTick)
			firingSum += math.Exp(-math.Pow((rate-0.1)/0.08, 2))
		}
	}

	retentionScore := 0.0
	if retentionCount > 0 {
		retentionScore = retentionSum / float64(retentionCount)
	}

	stabilityScore := 0.0
	if len(complexity) >= 2 {
		mean, std := stat.MeanStdDev(complexity, nil)
		if mean > 0 {
			c := std / mean
			stabilityScore = math.Exp(-c * c)
		}
	}

	firingScore := firingSum / float64(len(valid))

	quality := qualityWeightRetention*retentionScore +
		qualityWeightStability*stabilityScore +
		qualityWeightFiring*firingScore

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
