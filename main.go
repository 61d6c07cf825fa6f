package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/arbor/config"
	"github.com/pthm-cable/arbor/sim"
	"github.com/pthm-cable/arbor/storage"
	"github.com/pthm-cable/arbor/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", -1, "Stop after N ticks (0 = until interrupted, -1 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	storeKind := flag.String("store", "", "Snapshot store backend: memory, sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "SQLite database path (empty = use config)")
	runID := flag.String("run-id", "", "Run key for stored snapshots (empty = derived from seed)")
	resume := flag.String("resume", "", "Resume from a snapshot file")
	resumeStore := flag.Bool("resume-store", false, "Resume from the latest stored snapshot for -run-id")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *maxTicks >= 0 {
		cfg.Simulation.MaxTicks = *maxTicks
	}
	if *storeKind != "" {
		cfg.Storage.Backend = *storeKind
	}
	if *storePath != "" {
		cfg.Storage.Path = *storePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, options{
		outputDir:   *outputDir,
		snapshotDir: *snapshotDir,
		runID:       *runID,
		resume:      *resume,
		resumeStore: *resumeStore,
		logStats:    *logStats,
	}); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	outputDir   string
	snapshotDir string
	runID       string
	resume      string
	resumeStore bool
	logStats    bool
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, o options) error {
	var store storage.Store
	if cfg.Storage.Backend != "" {
		var err error
		store, err = storage.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
		if err != nil {
			return err
		}
		if err := store.Init(ctx); err != nil {
			return err
		}
		defer store.Close()
	}

	opts := sim.Options{
		Logger:      logger,
		OutputDir:   o.outputDir,
		SnapshotDir: o.snapshotDir,
		Store:       store,
		RunID:       o.runID,
		LogStats:    o.logStats,
	}

	snap, err := loadResume(ctx, store, o)
	if err != nil {
		return err
	}

	var s *sim.Simulation
	if snap != nil {
		s, err = sim.FromSnapshot(cfg, snap, opts)
	} else {
		s, err = sim.New(cfg, opts)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("failed to close simulation", "error", err)
		}
	}()

	ticks := cfg.Simulation.MaxTicks
	if snap != nil && ticks > 0 {
		ticks = max(ticks-int(snap.Tick), 0)
	}

	logger.Info("starting simulation",
		"seed", s.Seed(),
		"neurons", s.NeuronCount(),
		"tick", s.Tick(),
		"ticks", ticks,
	)

	runErr := s.Run(ctx, ticks)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	// Final checkpoint survives interruption; use a fresh context.
	if err := s.Checkpoint(context.Background()); err != nil {
		return err
	}
	logger.Info("simulation finished", "summary", s.Summary())
	return nil
}

// loadResume returns the snapshot to resume from, or nil for a fresh run.
func loadResume(ctx context.Context, store storage.Store, o options) (*telemetry.Snapshot, error) {
	switch {
	case o.resume != "":
		return telemetry.LoadSnapshot(o.resume)
	case o.resumeStore:
		if store == nil {
			return nil, errors.New("-resume-store requires a snapshot store")
		}
		if o.runID == "" {
			return nil, errors.New("-resume-store requires -run-id")
		}
		return store.LatestSnapshot(ctx, o.runID)
	}
	return nil, nil
}
