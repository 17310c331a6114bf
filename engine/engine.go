// Package engine drives the tick loop of spec.md §2/§4.3: rebuild the
// spatial grid, discover scatter and decay candidates, dispatch them in
// time order, propagate free-streaming particles, and impose boundary
// conditions, once per Δt until the configured end time.
//
// Grounded on the teacher's Game.simulationStep (game/game.go), which breaks
// one tick into the same numbered-phase shape: rebuild spatial index, run
// the per-entity update, handle removals, flush telemetry. This package
// keeps that phase decomposition and logs each tick's dispatch stats the
// way the teacher logs PerfStats, but replaces prey/predator bookkeeping
// with the pseudocode of spec.md §4.3.
package engine

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/config"
	"github.com/pthm-cable/soup/decay"
	"github.com/pthm-cable/soup/modus"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/scatter"
	"github.com/pthm-cable/soup/spatialgrid"
)

// EventResult summarizes one completed event for top-level reporting.
type EventResult struct {
	Ticks             int
	FinalParticles    int
	ScattersDiscovered int
	DecaysDiscovered   int
	Performed          int
	ConservationFails  int
}

// RunEvent executes one full event: initial conditions, then ticks from
// t=0 to General.EndTime, per spec.md §4.3's pseudocode. The registry is
// created fresh and discarded at the end of the event (spec.md §4.1: "one
// per event"). If onParticles is non-nil, it is called with a full registry
// snapshot at the start of every tick, letting the caller drive a periodic
// "particles" output stream independent of the collisions stream.
func RunEvent(cfg *config.Config, catalog *particletype.Catalog, m modus.Modus, rng distuv.Rander, hooks []action.Hook, onParticles func([]registry.Snapshot), log *slog.Logger) (EventResult, error) {
	if log == nil {
		log = slog.Default()
	}

	r := registry.New()
	if err := m.InitialConditions(r); err != nil {
		return EventResult{}, fmt.Errorf("engine: initial conditions: %w", err)
	}

	scatterFinder := &scatter.Finder{Catalog: catalog, Rng: rng}
	decayFinder := &decay.Finder{Catalog: catalog, Rng: rng}

	dt := cfg.Derived.DT
	if dt <= 0 {
		dt = 0.1
	}
	bbox := m.BoundingBox()
	gridMode := m.GridMode()
	cellSize := cfg.CollisionTerm.GridCellSize
	if cellSize <= 0 {
		cellSize = 2.5
	}

	var result EventResult
	t := 0.0
	for t < cfg.General.EndTime {
		snapshot := r.CopyToVector()
		if onParticles != nil {
			onParticles(snapshot)
		}

		grid, err := spatialgrid.Build(snapshot, bbox, cellSize, gridMode)
		if err != nil {
			return result, fmt.Errorf("engine: building grid at t=%.4f: %w", t, err)
		}

		var actions []*action.Action
		if cfg.CollisionTerm.Enabled {
			scatterActions := scatterFinder.Find(grid, t, dt)
			actions = append(actions, scatterActions...)
			result.ScattersDiscovered += len(scatterActions)
		}
		if cfg.CollisionTerm.Decays {
			decayActions := decayFinder.Find(r, t, dt)
			actions = append(actions, decayActions...)
			result.DecaysDiscovered += len(decayActions)
		}
		action.Sort(actions)

		stats := action.Dispatch(r, actions, hooks, log)
		result.Performed += stats.Performed
		result.ConservationFails += stats.ConservationViolated

		propagate(r, dt)

		wallActions := m.ImposeBoundaryConditions(r, t)
		for _, h := range hooks {
			for _, wa := range wallActions {
				h.AtInteraction(wa, nil)
			}
		}

		t += dt
		result.Ticks++

		log.Debug("engine: tick complete",
			"tick", result.Ticks,
			"time", t,
			"particles", r.Len(),
			"considered", stats.Considered,
			"performed", stats.Performed,
			"skipped_invalid", stats.SkippedInvalid,
			"conservation_violated", stats.ConservationViolated,
		)
	}

	result.FinalParticles = r.Len()
	return result, nil
}

// propagate free-streams every particle's position by its lab-frame
// velocity over dt (spec.md §2 pseudocode: "propagate(Particles, Δt)").
func propagate(r *registry.Registry, dt float64) {
	r.ForEach(func(_ registry.Ref, s *registry.State) {
		if s.Momentum.X0 <= 0 {
			return
		}
		v := s.Momentum.Velocity()
		s.Position.X0 += dt
		s.Position.X1 += v.X1 * dt
		s.Position.X2 += v.X2 * dt
		s.Position.X3 += v.X3 * dt
	})
}
