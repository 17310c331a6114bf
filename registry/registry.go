// Package registry implements the Particles registry (spec.md §4.1): the
// exclusive owner of live ParticleData within one event, with stable,
// never-reused ids and copy-on-mutate semantics.
//
// The slot+generation identity problem (DESIGN NOTES: "a ParticleRef =
// {slot, gen} is valid iff slots[slot].gen == ref.gen") is exactly what
// ark's ecs.World already solves for entities, so the registry is built
// directly on one ark world holding a single State component per particle,
// the same way the teacher keeps one ECS world per running instance
// (game/game.go).
package registry

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/particletype"
)

// History records the provenance fields carried alongside each particle
// (spec.md §3: "history block {id_process, process_type, mother PDGs}").
type History struct {
	IDProcess   uint32
	ProcessType string
	MotherPDGs  [2]int32
}

// State is the full mutable per-particle record (spec.md §3 ParticleData),
// stored as the sole ark component.
type State struct {
	// ID is the registry-assigned stable identifier: strictly increasing
	// over the registry's lifetime, never reused (spec.md §4.1), independent
	// of the ark slot/generation used only for validity checks.
	ID int64

	Type particletype.Index

	Position fourvector.FourVector
	Momentum fourvector.FourVector

	FormationTime float64
	ScalingFactor float64 // cross-section suppression factor, in (0,1]

	History History
}

// EffectiveMass is sqrt(p.p), the invariant mass implied by the carried
// momentum (spec.md §3 invariant: p.p = m^2).
func (s *State) EffectiveMass() float64 {
	m2 := s.Momentum.Sqr()
	if m2 < 0 {
		return 0
	}
	return math.Sqrt(m2)
}

// Ref is a stable reference to one slot in a Registry: valid iff the
// underlying ark entity is still alive, i.e. the slot has not been reused by
// a later insert (spec.md §4.1 is_valid contract).
type Ref struct {
	entity ecs.Entity
	id     int64
}

// ID returns the stable identifier carried by the ref, valid or not.
func (r Ref) ID() int64 { return r.id }

// Registry is the exclusive owner of live ParticleData for one event
// (spec.md §3 "Particles"). Create one per event via New; discard it at
// at_eventend.
type Registry struct {
	world  *ecs.World
	states *ecs.Map1[State]
	filter *ecs.Filter1[State]
	nextID int64
}

// New creates an empty registry for one event.
func New() *Registry {
	w := ecs.NewWorld()
	return &Registry{
		world:  w,
		states: ecs.NewMap1[State](w),
		filter: ecs.NewFilter1[State](w),
	}
}

// Insert assigns a fresh id to p and places it in the registry. Never
// invalidates refs to other particles (spec.md §4.1).
func (r *Registry) Insert(p State) Ref {
	p.ID = r.nextID
	r.nextID++
	e := r.states.NewEntity(&p)
	return Ref{entity: e, id: p.ID}
}

// Remove marks ref's slot as a hole; IsValid(ref) becomes false and
// subsequent iteration skips it (spec.md §4.1). O(1).
func (r *Registry) Remove(ref Ref) {
	if r.world.Alive(ref.entity) {
		r.states.Remove(ref.entity)
	}
}

// Replace removes every ref in "in" and inserts every State in "out",
// returning refs to the newly inserted copies (spec.md §4.1). Atomic with
// respect to the caller: no partial state is observable since the
// dispatcher only calls output hooks after Replace returns.
func (r *Registry) Replace(in []Ref, out []State) []Ref {
	for _, ref := range in {
		r.Remove(ref)
	}
	result := make([]Ref, len(out))
	for i, s := range out {
		result[i] = r.Insert(s)
	}
	return result
}

// IsValid compares both slot and id, rejecting stale refs whose slot has
// since been reused by a different particle (spec.md §4.1).
func (r *Registry) IsValid(ref Ref) bool {
	if !r.world.Alive(ref.entity) {
		return false
	}
	return r.states.Get(ref.entity).ID == ref.id
}

// Get dereferences a valid ref. Panics (programmer error, per spec.md §4.1
// failure-mode note) if called on an invalid ref; callers must check
// IsValid first.
func (r *Registry) Get(ref Ref) *State {
	if !r.IsValid(ref) {
		panic("registry: Get on invalid ref")
	}
	return r.states.Get(ref.entity)
}

// Snapshot is one entry of CopyToVector's dense snapshot: a live particle's
// State paired with the Ref that identifies it at the moment of the call (spec.md §4.1:
// "actions are discovered against a snapshot of the past world but executed
// against the present").
type Snapshot struct {
	Ref   Ref
	State State
}

// CopyToVector returns a dense snapshot for finders and grid construction.
func (r *Registry) CopyToVector() []Snapshot {
	var out []Snapshot
	query := r.filter.Query()
	for query.Next() {
		e := query.Entity()
		s := query.Get()
		out = append(out, Snapshot{Ref: Ref{entity: e, id: s.ID}, State: *s})
	}
	return out
}

// Len returns the number of live particles.
func (r *Registry) Len() int {
	n := 0
	query := r.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// ForEach iterates every live particle, calling f with a ref and a pointer
// into the live state (mutable in place; do not retain the pointer past the
// call).
func (r *Registry) ForEach(f func(Ref, *State)) {
	query := r.filter.Query()
	for query.Next() {
		e := query.Entity()
		s := query.Get()
		f(Ref{entity: e, id: s.ID}, s)
	}
}
