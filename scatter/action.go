package scatter

import (
	"errors"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/kinematics"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
)

// ErrStringNotImplemented is returned by a selected string channel: string
// fragmentation is out of scope for this engine (spec.md Non-goals).
var ErrStringNotImplemented = errors.New("scatter: string fragmentation is not implemented")

// Action implements action.FinalStateGenerator for one candidate produced by
// Finder. Incoming is a two-element snapshot pair; GenerateFinalState is
// called once, at dispatch time, after UpdateIncoming has refreshed it.
type Action struct {
	Catalog  *particletype.Catalog
	Channel  Channel
	Incoming []registry.Snapshot
	Rng      distuv.Rander
}

// GenerateFinalState dispatches on the selected channel kind (spec.md §4.4).
func (a *Action) GenerateFinalState() ([]registry.State, error) {
	switch a.Channel.Kind {
	case action.ScatterElastic:
		return a.elastic()
	case action.ScatterTwoToOne:
		return a.twoToOne()
	case action.ScatterString:
		return nil, ErrStringNotImplemented
	default:
		return nil, errors.New("scatter: unsupported channel kind")
	}
}

func (a *Action) history() registry.History {
	pa, pb := a.Catalog.Type(a.Incoming[0].State.Type), a.Catalog.Type(a.Incoming[1].State.Type)
	return registry.History{
		ProcessType: string(a.Channel.Process),
		MotherPDGs:  [2]int32{pa.Code.Int32(), pb.Code.Int32()},
	}
}

func midpoint(a, b fourvector.FourVector) fourvector.FourVector {
	return a.Add(b).Scale(0.5)
}

// elastic scatters the incoming pair isotropically in their common CM frame,
// preserving each particle's CM-frame energy and hence their types and
// masses (spec.md §4.4).
func (a *Action) elastic() ([]registry.State, error) {
	pA, pB := a.Incoming[0].State, a.Incoming[1].State
	total := pA.Momentum.Add(pB.Momentum)
	vCM := total.Velocity()

	aCM := pA.Momentum.Boost(vCM)
	bCM := pB.Momentum.Boost(vCM)
	pMag := aCM.ThreeVec().Abs()

	cosTheta := kinematics.SampleCosTheta(a.Rng)
	phi := kinematics.SamplePhi(a.Rng)
	dir := fourvector.FromSphericalUnit(cosTheta, phi)

	newACM := fourvector.New(aCM.X0, dir.Scale(pMag))
	newBCM := fourvector.New(bCM.X0, dir.Scale(-pMag))

	newA := newACM.BoostBack(vCM)
	newB := newBCM.BoostBack(vCM)

	hist := a.history()
	pos := midpoint(pA.Position, pB.Position)
	return []registry.State{
		{Type: pA.Type, Position: pos, Momentum: newA, FormationTime: pos.X0, ScalingFactor: 1, History: hist},
		{Type: pB.Type, Position: pos, Momentum: newB, FormationTime: pos.X0, ScalingFactor: 1, History: hist},
	}, nil
}

// twoToOne merges the incoming pair into a single resonance carrying their
// summed four-momentum exactly (spec.md §4.4).
func (a *Action) twoToOne() ([]registry.State, error) {
	pA, pB := a.Incoming[0].State, a.Incoming[1].State
	total := pA.Momentum.Add(pB.Momentum)
	pos := midpoint(pA.Position, pB.Position)
	return []registry.State{
		{
			Type:          a.Channel.Daughters[0],
			Position:      pos,
			Momentum:      total,
			FormationTime: pos.X0,
			ScalingFactor: 1,
			History:       a.history(),
		},
	}, nil
}
