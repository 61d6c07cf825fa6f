// Package main provides CMA-ES optimization for finding growth parameters
// that produce complex arbors for little energy.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/arbor/config"
)

// EvalRecord is one row of optimize_log.csv. Parameter values are the
// clamped values the simulation actually used.
type EvalRecord struct {
	Eval                 int     `csv:"eval"`
	Fitness              float64 `csv:"fitness"`
	Quality              float64 `csv:"quality"`
	TreeEnergy           float64 `csv:"tree_energy"`
	PoolEnergy           float64 `csv:"pool_energy"`
	ReplenishPerTick     float64 `csv:"replenish_per_tick"`
	DistributionInterval float64 `csv:"distribution_interval"`
	ContactRadius        float64 `csv:"contact_radius"`
	Threshold            float64 `csv:"threshold"`
	Gain                 float64 `csv:"gain"`
}

// newEvalRecord maps values in ParamVector order onto a record.
func newEvalRecord(eval int, fitness, quality float64, v []float64) EvalRecord {
	return EvalRecord{
		Eval:                 eval,
		Fitness:              fitness,
		Quality:              quality,
		TreeEnergy:           v[0],
		PoolEnergy:           v[1],
		ReplenishPerTick:     v[2],
		DistributionInterval: v[3],
		ContactRadius:        v[4],
		Threshold:            v[5],
		Gain:                 v[6],
	}
}

// evalLog appends records to a CSV file, writing the header once.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func (l *evalLog) write(r EvalRecord) error {
	records := []EvalRecord{r}
	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(records, l.f)
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

type flags struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&f.maxTicks, "max-ticks", 1000, "Simulation duration in ticks per run")
	flag.IntVar(&f.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&f.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&f.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&f.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(f, logger); err != nil {
		logger.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(f flags, logger *slog.Logger) error {
	if f.outputDir == "" {
		return errors.New("-output is required")
	}
	if f.seeds < 1 {
		return errors.New("-seeds must be >= 1")
	}
	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := config.Init(f.configPath); err != nil {
		return err
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]int64, f.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, f.maxTicks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := f.population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	logFile, err := os.Create(filepath.Join(f.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()
	evals := &evalLog{f: logFile}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			quality := evaluator.LastQuality()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}
			if err := evals.write(newEvalRecord(evalCount, fitness, quality, clamped)); err != nil {
				logger.Warn("failed to log evaluation", "error", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(f.maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			logger.Info("evaluation",
				"eval", evalCount,
				"max_evals", f.maxEvals,
				"fitness", fitness,
				"quality", quality,
				"best", bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: f.maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logger.Info("starting CMA-ES optimization",
		"params", dim,
		"population", popSize,
		"max_evals", f.maxEvals,
		"seeds", f.seeds,
		"ticks", f.maxTicks,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Info("optimization ended", "reason", err)
	}
	// Best params may come from any evaluation, not just the final one.
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return errors.New("no evaluations completed")
	}

	logger.Info("optimization complete",
		"evals", evalCount,
		"duration", formatDuration(time.Since(startTime)),
		"best_fitness", bestFitness,
	)
	for i, spec := range params.Specs {
		logger.Info("best parameter", "name", spec.Name, "path", spec.Path, "value", bestParams[i])
	}

	bestCfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	params.ApplyToConfig(bestCfg, bestParams)
	configOutPath := filepath.Join(f.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return err
	}
	logger.Info("best config saved", "path", configOutPath)

	if summary := evaluator.BestSummary(); summary != nil {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		summaryPath := filepath.Join(f.outputDir, "best_summary.json")
		if err := os.WriteFile(summaryPath, data, 0644); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		logger.Info("best summary saved", "path", summaryPath)
	}
	return nil
}
