package sim

import (
	"context"

	"github.com/pthm-cable/arbor/systems"
	"github.com/pthm-cable/arbor/telemetry"
)

// Step advances the simulation by one tick. Phases run in a fixed order:
// activity, environment, growth, contacts, plasticity, energy, telemetry.
// Only growth runs in parallel; every other phase is serial in neuron order.
func (s *Simulation) Step(ctx context.Context) error {
	s.perf.StartTick()
	now := s.time + s.dt
	s.collect()

	s.perf.StartPhase(telemetry.PhaseActivity)
	s.updateActivity(now)

	s.perf.StartPhase(telemetry.PhaseEnvironment)
	s.updateEnvironment()

	s.perf.StartPhase(telemetry.PhaseGrowth)
	s.grow()

	s.perf.StartPhase(telemetry.PhaseContacts)
	s.formContacts()

	s.perf.StartPhase(telemetry.PhasePlasticity)
	s.updatePlasticity(now)

	s.perf.StartPhase(telemetry.PhaseEnergy)
	s.distributeEnergy(now)

	s.tick++
	s.time = now

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	err := s.flushTelemetry(ctx)
	s.perf.EndTick()
	return err
}

// updateActivity drives every neuron and records who fired.
func (s *Simulation) updateActivity(now float32) {
	s.firing = s.firing[:0]
	for _, v := range s.views {
		if s.activity.Update(v.soma, v.activity, v.dendrites.Signal, now) {
			s.firing = append(s.firing, v.soma.ID)
			s.collector.RecordFiring()
		}
	}
}

// updateEnvironment publishes every neuron as a growth factor.
func (s *Simulation) updateEnvironment() {
	for i, v := range s.views {
		s.snaps[i] = v.soma.Snapshot()
		s.excitatory[i] = v.soma.Excitatory
	}
	s.env.Update(s.snaps, s.excitatory)
}

func (s *Simulation) grow() {
	for i, v := range s.views {
		s.jobs[i] = systems.GrowthJob{
			Index:    i,
			Axon:     v.axon.Growth,
			Tree:     v.dendrites.Tree,
			Soma:     v.soma.Position,
			Activity: v.activity.Level,
		}
	}
	for _, res := range s.pool.Run(s.env, s.jobs, s.dt) {
		if res.Moved > 0 {
			s.collector.RecordAxonGrowth(res.Moved)
		}
		if res.Branched {
			s.collector.RecordBranch()
		}
	}
}

func (s *Simulation) formContacts() {
	s.tips = s.tips[:0]
	for i, v := range s.views {
		if v.axon.Growth != nil {
			s.tips = append(s.tips, systems.AxonTip{
				Source:   v.soma.ID,
				Position: v.axon.Growth.Position(),
				Firing:   v.activity.Firing,
			})
		}
		s.targets[i] = systems.ContactTarget{
			ID:   v.soma.ID,
			Soma: v.soma.Position,
			Tree: v.dendrites.Tree,
		}
	}
	for range s.contacts.Form(s.tips, s.targets) {
		s.collector.RecordSynapseFormed()
	}
}

func (s *Simulation) updatePlasticity(now float32) {
	window := float32(s.cfg.Activity.HistorySize) * s.dt
	s.recent = s.recent[:0]
	for _, v := range s.views {
		if v.activity.FiredWithin(now, window) {
			s.recent = append(s.recent, v.soma.ID)
		}
	}

	firing := systems.NewFiringSet(s.firing)
	recent := systems.NewFiringSet(s.recent)
	for _, v := range s.views {
		res := systems.UpdatePlasticity(v.dendrites.Tree, firing, recent, s.cfg.Synapses.Reactivation)
		v.dendrites.Signal = res.Signal
		s.collector.RecordPruned(res.Pruned)
		for range res.Reactivated {
			s.collector.RecordReactivation()
		}
	}
}

func (s *Simulation) distributeEnergy(now float32) {
	for i, v := range s.views {
		s.trees[i] = v.dendrites.Tree
		s.axons[i] = v.axon.Growth
		s.levels[i] = v.activity.Level
	}
	in := s.cfg.Resources.ReplenishPerTick + s.cfg.Resources.AxonReplenish*float64(s.liveAxons())
	s.energyIn += in

	if report := s.energy.Step(s.trees, s.levels, s.axons, now); report.Distributed {
		s.collector.RecordDistribution()
	}
}

func (s *Simulation) liveAxons() int {
	n := 0
	for _, a := range s.axons {
		if a != nil {
			n++
		}
	}
	return n
}

// flushTelemetry closes the stats window and writes snapshots when due.
func (s *Simulation) flushTelemetry(ctx context.Context) error {
	if s.collector.ShouldFlush(s.tick) {
		stats := s.collector.Flush(s.tick, s.samples(), float64(s.energy.Manager().AvailableEnergy()))
		perf := s.perf.Stats()

		if err := s.output.WriteStats(stats); err != nil {
			s.logger.Error("failed to write stats", "error", err)
		}
		if err := s.output.WritePerf(perf, s.tick); err != nil {
			s.logger.Error("failed to write perf", "error", err)
		}
		if s.opts.LogStats {
			stats.LogStats(s.logger)
			perf.LogStats(s.logger)
		}
		if s.opts.StatsCallback != nil {
			s.opts.StatsCallback(stats)
		}
	}

	if interval := s.cfg.Telemetry.SnapshotInterval; interval > 0 && int(s.tick)%interval == 0 {
		return s.Checkpoint(ctx)
	}
	return nil
}

func (s *Simulation) samples() []telemetry.NeuronSample {
	out := make([]telemetry.NeuronSample, len(s.views))
	for i, v := range s.views {
		out[i] = telemetry.SampleNeuron(v.axon.Growth, v.dendrites.Tree, v.activity.Level, v.dendrites.Signal)
	}
	return out
}
