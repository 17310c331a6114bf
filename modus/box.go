package modus

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/config"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/kinematics"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/spatialgrid"
)

// Box is the periodic thermal-box modus of spec.md §4.7: a cube of fixed
// edge length, populated at t=0 with a fixed multiplicity per species drawn
// from a thermal momentum distribution, wrapped toroidally every tick.
type Box struct {
	Cfg     config.BoxConfig
	Catalog *particletype.Catalog
	Rng     distuv.Rander
}

// BoundingBox returns the cube [0,L)^3.
func (b *Box) BoundingBox() spatialgrid.BoundingBox {
	l := b.Cfg.Length
	return spatialgrid.BoundingBox{
		Min: fourvector.ThreeVector{},
		Max: fourvector.ThreeVector{X1: l, X2: l, X3: l},
	}
}

// GridMode is always Periodic for Box.
func (b *Box) GridMode() spatialgrid.Mode { return spatialgrid.Periodic }

// InitialConditions places Cfg.InitialMultiplicity[name] copies of each
// named species at uniformly random positions, each carrying a momentum
// sampled from the thermal (Maxwell-Jüttner) distribution at Cfg.Temperature
// if UseThermalMotion is set, else at rest (spec.md §4.7).
func (b *Box) InitialConditions(r *registry.Registry) error {
	for name, count := range b.Cfg.InitialMultiplicity {
		idx, ok := b.Catalog.ByName(name)
		if !ok {
			continue
		}
		t := b.Catalog.Type(idx)
		for i := 0; i < count; i++ {
			pos := fourvector.New(0, b.uniformPosition())
			mom := b.sampleMomentum(t.PoleMass)
			r.Insert(registry.State{
				Type:          idx,
				Position:      pos,
				Momentum:      mom,
				ScalingFactor: 1,
			})
		}
	}
	return nil
}

func (b *Box) uniformPosition() fourvector.ThreeVector {
	l := b.Cfg.Length
	return fourvector.ThreeVector{
		X1: b.Rng.Rand() * l,
		X2: b.Rng.Rand() * l,
		X3: b.Rng.Rand() * l,
	}
}

// sampleMomentum draws |p| via rejection against the relativistic thermal
// weight p^2*exp(-E/T) with an exponential envelope in p, then assigns an
// isotropic direction (spec.md §4.7 "Maxwell-Jüttner/peaked-momentum
// sampling").
func (b *Box) sampleMomentum(mass float64) fourvector.FourVector {
	if !b.Cfg.UseThermalMotion || b.Cfg.Temperature <= 0 {
		return fourvector.New(mass, fourvector.ThreeVector{})
	}
	temp := b.Cfg.Temperature
	envelope := distuv.Exponential{Rate: 1 / (3 * temp), Src: nil}

	var p float64
	for i := 0; i < 100; i++ {
		candidate := envelope.Rand()
		e := math.Sqrt(candidate*candidate + mass*mass)
		weight := candidate * candidate * math.Exp(-e/temp)
		envWeight := math.Exp(-candidate/(3*temp)) / (3 * temp)
		peakP := 2 * temp // rough mode location, used only to scale the envelope
		peakWeight := peakP * peakP * math.Exp(-math.Sqrt(peakP*peakP+mass*mass)/temp)
		peakEnv := math.Exp(-peakP/(3*temp)) / (3 * temp)
		if peakEnv <= 0 {
			break
		}
		scale := peakWeight / peakEnv
		if scale <= 0 {
			break
		}
		if b.Rng.Rand() < weight/(envWeight*scale) {
			p = candidate
			break
		}
	}

	cosTheta := kinematics.SampleCosTheta(b.Rng)
	phi := kinematics.SamplePhi(b.Rng)
	dir := fourvector.FromSphericalUnit(cosTheta, phi)
	e := math.Sqrt(p*p + mass*mass)
	return fourvector.New(e, dir.Scale(p))
}

// ImposeBoundaryConditions wraps every particle's position back into
// [0,L)^3, per spec.md §4.7, emitting a "wall" pseudo-action for each
// particle actually translated by the wrap (spec.md §4.7/§8 scenario 4).
func (b *Box) ImposeBoundaryConditions(r *registry.Registry, tNow float64) []*action.Action {
	l := b.Cfg.Length
	var wallActions []*action.Action
	r.ForEach(func(ref registry.Ref, s *registry.State) {
		before := s.Position
		s.Position.X1 = wrap(s.Position.X1, l)
		s.Position.X2 = wrap(s.Position.X2, l)
		s.Position.X3 = wrap(s.Position.X3, l)
		if s.Position == before {
			return
		}
		preWrap := *s
		preWrap.Position = before
		wallActions = append(wallActions, &action.Action{
			Kind:    action.KindWall,
			Process: action.ProcessWall,
			In:      []registry.Snapshot{{Ref: ref, State: preWrap}},
			Out:     []registry.State{*s},
			Time:    tNow,
		})
	})
	return wallActions
}

func wrap(x, length float64) float64 {
	for x < 0 {
		x += length
	}
	for x >= length {
		x -= length
	}
	return x
}
