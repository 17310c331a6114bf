package kinematics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/fourvector"
)

// Angles tracks a polar/azimuthal pair and implements the pi-flip correction
// spec.md §4.5 calls out: "when |theta| > pi/2 crossing, the azimuth of the
// rotating vector must flip by pi" (original source's Angles helper).
type Angles struct {
	Theta float64
	Phi   float64
}

// Set normalizes theta into [0, pi], flipping phi by pi whenever the raw
// theta would otherwise cross outside that range.
func (a *Angles) Set(theta, phi float64) {
	for theta > math.Pi {
		theta = 2*math.Pi - theta
		phi += math.Pi
	}
	for theta < 0 {
		theta = -theta
		phi += math.Pi
	}
	a.Theta = theta
	a.Phi = math.Mod(phi, 2*math.Pi)
}

// Direction returns the unit 3-vector for the current angles.
func (a Angles) Direction() fourvector.ThreeVector {
	return fourvector.FromSphericalUnit(math.Cos(a.Theta), a.Phi)
}

// DalitzResult holds the three daughter four-momenta (in the parent rest
// frame, not yet boosted to the lab) of a sampled 1->3 decay.
type DalitzResult struct {
	Pa, Pb, Pc fourvector.ThreeVector
	Ea, Eb, Ec float64
}

// SampleDalitz draws a 1->3 phase-space point for parent mass m decaying to
// daughters of mass ma, mb, mc, following spec.md §4.5: uniform rejection
// sampling of (s_ab, s_bc) in the kinematic rectangle, standard formulas for
// the three energies/magnitudes, an isotropically chosen plane orientation,
// and the two internal angles theta_ab, theta_bc composed via rotation.
func SampleDalitz(m, ma, mb, mc float64, rng distuv.Rander) (DalitzResult, error) {
	sABLo, sABHi := (ma+mb)*(ma+mb), (m-mc)*(m-mc)
	if sABHi <= sABLo {
		return DalitzResult{}, ErrRejectionFailed{What: "Dalitz (closed ab channel)"}
	}

	for i := 0; i < maxRejectionIterations; i++ {
		sAB := sABLo + rng.Rand()*(sABHi-sABLo)
		sqrtSAB := math.Sqrt(sAB)

		eB := (sAB - ma*ma + mb*mb) / (2 * sqrtSAB)
		eC := (m*m - sAB - mc*mc) / (2 * sqrtSAB)
		if eB < mb || eC < mc {
			continue
		}
		pB := math.Sqrt(math.Max(0, eB*eB-mb*mb))
		pC := math.Sqrt(math.Max(0, eC*eC-mc*mc))

		sBCMax := (eB+eC)*(eB+eC) - (pB-pC)*(pB-pC)
		sBCMin := (eB+eC)*(eB+eC) - (pB+pC)*(pB+pC)
		if sBCMax <= sBCMin {
			continue
		}
		sBCLo, sBCHi := (mb+mc)*(mb+mc), (m-ma)*(m-ma)
		sBC := sBCLo + rng.Rand()*(sBCHi-sBCLo)
		if sBC < sBCMin || sBC > sBCMax {
			continue
		}

		sAC := m*m + ma*ma + mb*mb + mc*mc - sAB - sBC

		eA := (m*m + ma*ma - sBC) / (2 * m)
		ebFull := (m*m + mb*mb - sAC) / (2 * m)
		ecFull := m - eA - ebFull
		if eA < ma || ebFull < mb || ecFull < mc {
			continue
		}
		pA := math.Sqrt(math.Max(0, eA*eA-ma*ma))
		pBFull := math.Sqrt(math.Max(0, ebFull*ebFull-mb*mb))
		pCFull := math.Sqrt(math.Max(0, ecFull*ecFull-mc*mc))

		cosThetaAB := (eA*ebFull - 0.5*(sAB-ma*ma-mb*mb)) / (pA * pBFull)
		cosThetaBC := (ebFull*ecFull - 0.5*(sBC-mb*mb-mc*mc)) / (pBFull * pCFull)
		if cosThetaAB < -1 || cosThetaAB > 1 || cosThetaBC < -1 || cosThetaBC > 1 {
			continue
		}

		var angAB, angBC Angles
		angAB.Set(math.Acos(cosThetaAB), 0)
		angBC.Set(math.Acos(cosThetaBC), math.Pi) // on the far side of a in-plane

		// Place a along +z; b at theta_ab from a in the x-z plane; c takes
		// pc = -(pa+pb), so the three momenta balance by construction
		// (theta_bc is not used to place c).
		dirA := fourvector.ThreeVector{X1: 0, X2: 0, X3: 1}
		dirB := angAB.Direction()

		pa := dirA.Scale(pA)
		pb := dirB.Scale(pBFull)
		pc := pa.Add(pb).Scale(-1)

		// Isotropic plane orientation: rotate the whole triad by a random
		// (cosTheta, phi).
		cosTheta := SampleCosTheta(rng)
		phi := SamplePhi(rng)
		rot := fourvector.RotationMatrix(cosTheta, phi)

		return DalitzResult{
			Pa: fourvector.Rotate(rot, pa),
			Pb: fourvector.Rotate(rot, pb),
			Pc: fourvector.Rotate(rot, pc),
			Ea: eA, Eb: ebFull, Ec: ecFull,
		}, nil
	}
	return DalitzResult{}, ErrRejectionFailed{What: "Dalitz plot"}
}
