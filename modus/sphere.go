package modus

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/config"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/kinematics"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/spatialgrid"
)

// Sphere is the expanding thermal sphere modus of spec.md §4.7: a uniform
// ball of the configured radius, populated with a thermal momentum
// distribution and left to free-stream outward with no boundary at all.
type Sphere struct {
	Cfg     config.SphereConfig
	Catalog *particletype.Catalog
	Rng     distuv.Rander

	// Species lists which catalog entries to populate and how many of each;
	// set by the caller from modi.sphere.initial_multiplicities (spec.md leaves exact
	// per-species multiplicities to the List/hadron-abundance table, which
	// this engine does not model, so the caller supplies counts directly).
	Species map[string]int

	noBoundaryConditions
}

// BoundingBox is generous relative to Cfg.Radius since the sphere expands
// and is never wrapped; a particle that leaves it makes spatialgrid.Build
// return ErrOutOfBounds (Normal mode), which ends the event with an error.
func (s *Sphere) BoundingBox() spatialgrid.BoundingBox {
	r := s.Cfg.Radius*4 + 10
	return spatialgrid.BoundingBox{
		Min: fourvector.ThreeVector{X1: -r, X2: -r, X3: -r},
		Max: fourvector.ThreeVector{X1: r, X2: r, X3: r},
	}
}

// GridMode is Normal: the sphere modus never wraps.
func (s *Sphere) GridMode() spatialgrid.Mode { return spatialgrid.Normal }

// InitialConditions places Species[name] copies of each named species at
// uniformly random positions inside the ball of radius Cfg.Radius, each
// carrying an isotropic thermal momentum at Cfg.Temperature.
func (s *Sphere) InitialConditions(r *registry.Registry) error {
	for name, count := range s.Species {
		idx, ok := s.Catalog.ByName(name)
		if !ok {
			continue
		}
		t := s.Catalog.Type(idx)
		for i := 0; i < count; i++ {
			pos := s.samplePosition()
			mom := s.sampleMomentum(t.PoleMass)
			r.Insert(registry.State{
				Type:          idx,
				Position:      fourvector.New(0, pos),
				Momentum:      mom,
				ScalingFactor: 1,
			})
		}
	}
	return nil
}

func (s *Sphere) samplePosition() fourvector.ThreeVector {
	radius := s.Cfg.Radius
	for i := 0; i < 100; i++ {
		v := fourvector.ThreeVector{
			X1: (2*s.Rng.Rand() - 1) * radius,
			X2: (2*s.Rng.Rand() - 1) * radius,
			X3: (2*s.Rng.Rand() - 1) * radius,
		}
		if v.Sqr() <= radius*radius {
			return v
		}
	}
	return fourvector.ThreeVector{}
}

// sampleMomentum draws an isotropic thermal momentum the same way Box does;
// the expanding-sphere collective flow profile spec.md §4.7 alludes to is not
// modeled (documented simplification: particles start with purely thermal,
// not flow-boosted, momenta).
func (s *Sphere) sampleMomentum(mass float64) fourvector.FourVector {
	temp := s.Cfg.Temperature
	if temp <= 0 {
		return fourvector.New(mass, fourvector.ThreeVector{})
	}
	envelope := distuv.Exponential{Rate: 1 / (3 * temp), Src: nil}
	peakP := 2 * temp
	peakWeight := peakP * peakP * math.Exp(-math.Sqrt(peakP*peakP+mass*mass)/temp)
	peakEnv := math.Exp(-peakP/(3*temp)) / (3 * temp)
	scale := 1.0
	if peakEnv > 0 && peakWeight > 0 {
		scale = peakWeight / peakEnv
	}

	var p float64
	for i := 0; i < 100; i++ {
		candidate := envelope.Rand()
		e := math.Sqrt(candidate*candidate + mass*mass)
		weight := candidate * candidate * math.Exp(-e/temp)
		envWeight := math.Exp(-candidate/(3*temp)) / (3 * temp)
		if envWeight <= 0 {
			continue
		}
		if s.Rng.Rand() < weight/(envWeight*scale) {
			p = candidate
			break
		}
	}

	cosTheta := kinematics.SampleCosTheta(s.Rng)
	phi := kinematics.SamplePhi(s.Rng)
	dir := fourvector.FromSphericalUnit(cosTheta, phi)
	e := math.Sqrt(p*p + mass*mass)
	return fourvector.New(e, dir.Scale(p))
}
