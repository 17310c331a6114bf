// Package decay implements the decay finder and decay action of spec.md
// §4.5: a per-tick decay probability for each unstable particle and
// 1->2 / 1->3 final-state generation.
package decay

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/kinematics"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
)

// hbarC converts a width in GeV into an inverse lifetime in fm^-1, matching
// the unit system positions and times are carried in throughout this engine
// (spec.md §4.6).
const hbarC = 0.19732698

// Finder samples decay actions for unstable particles.
type Finder struct {
	Catalog *particletype.Catalog
	Rng     distuv.Rander
}

// Find walks every live particle and samples whether it decays within
// [tNow, tNow+dt], using the linear exponential-clock probability
//
//	P = (dt_rest / hbar) * Gamma_eff(m)
//
// where dt_rest = dt/gamma is the proper-time elapsed (spec.md §4.5). This is
// compared directly against a uniform draw, not exponentiated: P(decay at
// Delta_t) = width * Delta_t is itself the per-tick decay probability, with
// the usual (1-P)^n -> exp(-width*t) relation holding only in the Delta_t ->
// 0 limit (original: decayactionsfinder.cc). All decays found in a tick fire
// at the tick's start time, t* = tNow, so they share t* with every other
// same-tick action per the dispatcher's ordering contract.
func (f *Finder) Find(r *registry.Registry, tNow, dt float64) []*action.Action {
	var actions []*action.Action
	r.ForEach(func(ref registry.Ref, s *registry.State) {
		t := f.Catalog.Type(s.Type)
		if t.Stable() {
			return
		}
		mass := s.EffectiveMass()
		gamma := s.Momentum.X0 / math.Max(mass, 1e-9)
		if gamma <= 0 {
			gamma = 1
		}
		protTime := dt / gamma
		width := kinematics.TotalWidth(f.Catalog, t, mass)
		if width <= 0 {
			return
		}
		prob := protTime * width / hbarC
		if f.Rng.Rand() >= prob {
			return
		}

		snap := registry.Snapshot{Ref: ref, State: *s}
		act := &action.Action{
			Kind:    action.KindDecay,
			Process: action.ProcessDecay,
			In:      []registry.Snapshot{snap},
			Time:    tNow,
			Weight:  width,
		}
		act.Generator = &Action{
			Catalog:  f.Catalog,
			Incoming: snap,
			Rng:      f.Rng,
		}
		actions = append(actions, act)
	})
	return actions
}
