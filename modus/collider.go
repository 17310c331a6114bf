package modus

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/config"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/spatialgrid"
)

// nucleonRadiusFm is the nuclear radius scale A^(1/3)*r0 constant (r0, fm),
// used for the simplified uniform-sphere nucleon sampling below.
const nucleonRadiusFm = 1.2

// Collider is the heavy-ion collision modus of spec.md §4.7: two nucleon
// clouds boosted toward each other along z, offset along x by the sampled
// impact parameter.
type Collider struct {
	Cfg     config.ColliderConfig
	Catalog *particletype.Catalog
	Rng     distuv.Rander

	noBoundaryConditions
}

// BoundingBox spans a generous volume around the collision region; Collider
// does not wrap, so a particle outside this box makes spatialgrid.Build
// return ErrOutOfBounds (Normal mode), which ends the event with an error.
func (c *Collider) BoundingBox() spatialgrid.BoundingBox {
	r := nucleonRadiusFm*math.Cbrt(float64(max1(c.Cfg.ProjectileA, c.Cfg.TargetA))) + c.Cfg.ImpactMax + 10
	return spatialgrid.BoundingBox{
		Min: fourvector.ThreeVector{X1: -r, X2: -r, X3: -50},
		Max: fourvector.ThreeVector{X1: r, X2: r, X3: 50},
	}
}

// GridMode is Normal: collider geometry is not periodic.
func (c *Collider) GridMode() spatialgrid.Mode { return spatialgrid.Normal }

func max1(a, b int) int {
	if a < 1 {
		a = 1
	}
	if b > a {
		return b
	}
	return a
}

// impactParameter returns Cfg.ImpactParameter if non-negative, else samples
// b from the minimum-bias distribution P(b) db ~ b db on [0, ImpactMax]
// (spec.md §4.7 "impact-parameter sampling modes").
func (c *Collider) impactParameter() float64 {
	if c.Cfg.ImpactParameter >= 0 {
		return c.Cfg.ImpactParameter
	}
	if c.Cfg.ImpactMax <= 0 {
		return 0
	}
	return c.Cfg.ImpactMax * math.Sqrt(c.Rng.Rand())
}

// InitialConditions places two uniform-sphere nucleon clouds (a simplified
// stand-in for a Woods-Saxon profile) at z = -/+ z0, offset by b/2 along x,
// boosted toward each other with the beam rapidity implied by SqrtSNN
// (spec.md §4.7).
func (c *Collider) InitialConditions(r *registry.Registry) error {
	protonIdx, ok := c.Catalog.ByName("p")
	if !ok {
		return nil
	}
	neutronIdx, hasNeutron := c.Catalog.ByName("n")
	if !hasNeutron {
		neutronIdx = protonIdx
	}

	projectileA, targetA := c.Cfg.ProjectileA, c.Cfg.TargetA
	if projectileA <= 0 {
		projectileA = 1
	}
	if targetA <= 0 {
		targetA = 1
	}

	b := c.impactParameter()
	mass := c.Catalog.Type(protonIdx).PoleMass
	gamma := c.Cfg.SqrtSNN / (2 * mass)
	if gamma < 1 {
		gamma = 1
	}
	beta := math.Sqrt(1 - 1/(gamma*gamma))

	c.placeNucleus(r, projectileA, b/2, -30, beta, protonIdx, neutronIdx)
	c.placeNucleus(r, targetA, -b/2, 30, -beta, protonIdx, neutronIdx)
	return nil
}

func (c *Collider) placeNucleus(r *registry.Registry, a int, xOffset, z0, beta float64, protonIdx, neutronIdx particletype.Index) {
	radius := nucleonRadiusFm * math.Cbrt(float64(a))
	gamma := 1.0
	if beta*beta < 1 {
		gamma = 1 / math.Sqrt(1-beta*beta)
	}
	for i := 0; i < a; i++ {
		pos := c.sampleSphere(radius)
		idx := neutronIdx
		if i%2 == 0 {
			idx = protonIdx
		}
		mass := c.Catalog.Type(idx).PoleMass
		e := gamma * mass
		pz := gamma * mass * beta
		r.Insert(registry.State{
			Type:          idx,
			Position:      fourvector.New(0, fourvector.ThreeVector{X1: pos.X1 + xOffset, X2: pos.X2, X3: pos.X3 + z0}),
			Momentum:      fourvector.New(e, fourvector.ThreeVector{X3: pz}),
			ScalingFactor: 1,
		})
	}
}

// sampleSphere draws a uniform point inside a sphere of the given radius via
// rejection.
func (c *Collider) sampleSphere(radius float64) fourvector.ThreeVector {
	for i := 0; i < 100; i++ {
		v := fourvector.ThreeVector{
			X1: (2*c.Rng.Rand() - 1) * radius,
			X2: (2*c.Rng.Rand() - 1) * radius,
			X3: (2*c.Rng.Rand() - 1) * radius,
		}
		if v.Sqr() <= radius*radius {
			return v
		}
	}
	return fourvector.ThreeVector{}
}
