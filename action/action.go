// Package action implements the Action sum type, the time-ordered dispatch
// queue, and the conservation audit of spec.md §3/§4.3.
package action

import (
	"math"
	"sort"

	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/registry"
)

// Kind tags the outer Action variant (spec.md §3: "tagged sum {Decay,
// Scatter(...), Wall}").
type Kind int

const (
	KindDecay Kind = iota
	KindScatter
	KindWall
)

// ScatterKind tags the scatter sub-variant.
type ScatterKind int

const (
	ScatterElastic ScatterKind = iota
	ScatterTwoToOne
	ScatterTwoToTwo
	ScatterString
)

// ProcessType is the process-type tag carried in the action descriptor and
// mirrored into each outgoing particle's history (spec.md §3).
type ProcessType string

const (
	ProcessElastic   ProcessType = "elastic"
	ProcessTwoToOne  ProcessType = "2to1"
	ProcessTwoToTwo  ProcessType = "2to2"
	ProcessString    ProcessType = "string"
	ProcessDecay     ProcessType = "decay"
	ProcessWall      ProcessType = "wall"
)

// FinalStateGenerator produces the outgoing particle list for an action,
// given the catalog-aware final-state computation (scatter/decay packages
// implement this per their kind).
type FinalStateGenerator interface {
	GenerateFinalState() ([]registry.State, error)
}

// Action is one discovered candidate interaction (spec.md §3). Incoming
// particles are value copies captured at discovery time; Out is empty until
// GenerateFinalState runs.
type Action struct {
	Kind        Kind
	ScatterKind ScatterKind
	Process     ProcessType

	In  []registry.Snapshot // value copies captured at discovery
	Out []registry.State    // populated by GenerateFinalState

	Time   float64 // absolute execution time t*
	Weight float64 // cross section (mb) for scatter, total width (GeV) for decay, shining weight for dilepton

	Channel int // selected sub-channel index, meaning is producer-specific

	Generator FinalStateGenerator
}

// minIncomingID is the tie-break key (spec.md §4.3: "tie-break: lower
// min(in.id) first").
func (a *Action) minIncomingID() int64 {
	min := int64(math.MaxInt64)
	for _, s := range a.In {
		if s.State.ID < min {
			min = s.State.ID
		}
	}
	return min
}

// UpdateIncoming refreshes the value copies of the incoming particles from
// the live registry just before execution (spec.md §3 ownership summary:
// "the update_incoming step refreshes them just before execution").
func (a *Action) UpdateIncoming(r *registry.Registry) {
	for i, s := range a.In {
		if r.IsValid(s.Ref) {
			a.In[i].State = *r.Get(s.Ref)
		}
	}
}

// IsValid reports whether every incoming particle is still present in the
// registry (spec.md §4.1/§4.3): false if any was consumed by an earlier
// action in this tick.
func (a *Action) IsValid(r *registry.Registry) bool {
	for _, s := range a.In {
		if !r.IsValid(s.Ref) {
			return false
		}
	}
	return true
}

// GenerateFinalState delegates to the kind-specific generator (set by the
// finder that produced this Action) and stores the result.
func (a *Action) GenerateFinalState() error {
	out, err := a.Generator.GenerateFinalState()
	if err != nil {
		return err
	}
	a.Out = out
	return nil
}

// conservationEpsilon is the tolerance epsilon from spec.md §4.3.
const conservationEpsilon = 1e-4

// ConservationResult reports the conservation audit outcome (spec.md §4.3).
type ConservationResult struct {
	OK          bool
	DeltaEnergy float64
	DeltaP      float64
}

// CheckConservation compares sum p over outgoing to sum p over incoming
// (spec.md §4.3): |dp0|+|dp_vec| <= eps*(|p_in0|+1e-4). Only four-momentum
// is checked: baryon number, strangeness and charge are not compared here,
// nor anywhere else on the dispatch path.
func (a *Action) CheckConservation() ConservationResult {
	var pIn, pOut fourvector.FourVector
	for _, s := range a.In {
		pIn = pIn.Add(s.State.Momentum)
	}
	for _, s := range a.Out {
		pOut = pOut.Add(s.Momentum)
	}
	delta := pOut.Sub(pIn)
	deltaP := delta.ThreeVec().Abs()
	tolerance := conservationEpsilon * (math.Abs(pIn.X0) + 1e-4)
	ok := math.Abs(delta.X0)+deltaP <= tolerance
	return ConservationResult{OK: ok, DeltaEnergy: delta.X0, DeltaP: deltaP}
}

// Sort stable-sorts a slice of actions by (t*, min incoming id) ascending,
// which is the only ordering guarantee spec.md §4.3/§5 provides. Ties
// beyond that (identical t* and identical min id) keep their relative
// insertion order, an explicit deterministic choice for the Open Question
// in spec.md §9.
func Sort(actions []*Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Time != actions[j].Time {
			return actions[i].Time < actions[j].Time
		}
		return actions[i].minIncomingID() < actions[j].minIncomingID()
	})
}
