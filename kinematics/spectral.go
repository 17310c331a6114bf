package kinematics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/soup/particletype"
)

// tableGridPoints is the 60-point tabulation grid spec.md §4.6 mandates for
// integrating rho over an unstable daughter's spectral function.
const tableGridPoints = 60

// ModeWidth evaluates the mass-dependent partial width of one decay mode at
// parent effective mass m (spec.md §4.6). The formula used depends on the
// mode's TwoBodyKind; three-body and dilepton modes use a fixed
// phase-space-scaled approximation, since spec.md notes their exact forms
// are "not needed to appreciate the dispatch contract".
func ModeWidth(c *particletype.Catalog, parent *particletype.ParticleType, mode *particletype.DecayMode, m float64) float64 {
	if m < mode.Threshold(c) {
		return 0
	}
	switch len(mode.Daughters) {
	case 2:
		return twoBodyModeWidth(c, parent, mode, m)
	case 3:
		return threeBodyModeWidth(parent, mode, m)
	default:
		return 0
	}
}

func twoBodyModeWidth(c *particletype.Catalog, parent *particletype.ParticleType, mode *particletype.DecayMode, m float64) float64 {
	a := c.Type(mode.Daughters[0])
	b := c.Type(mode.Daughters[1])
	kind := mode.TwoBodyKind(c)

	gamma0 := parent.PoleWidth * mode.BranchingRatio
	switch kind {
	case particletype.TwoBodyStable:
		rho0 := Rho(parent.PoleMass, a.PoleMass, b.PoleMass, mode.AngularMomentum)
		if rho0 <= 0 {
			return 0
		}
		rho := Rho(m, a.PoleMass, b.PoleMass, mode.AngularMomentum)
		return gamma0 * rho / rho0

	case particletype.TwoBodySemistable:
		stable, unstable := a, b
		if !a.Stable() {
			stable, unstable = b, a
		}
		return semistableModeWidth(c, parent, mode, stable, unstable, m, gamma0)

	case particletype.TwoBodyDilepton:
		// Fixed form: scales with the two-body phase-space factor relative
		// to the pole, without a Blatt-Weisskopf barrier (leptons carry no
		// orbital barrier in the non-relativistic sense used here).
		p0 := PCM(parent.PoleMass, a.PoleMass, b.PoleMass)
		p := PCM(m, a.PoleMass, b.PoleMass)
		if p0 <= 0 {
			return 0
		}
		return gamma0 * (p / p0) * (parent.PoleMass / m)

	default: // TwoBodyUnstable: both daughters unstable, fixed form.
		p0 := PCM(parent.PoleMass, a.MinMass, b.MinMass)
		p := PCM(math.Max(m, mode.Threshold(c)), a.MinMass, b.MinMass)
		if p0 <= 0 {
			return 0
		}
		return gamma0 * (p / p0)
	}
}

// semistableModeWidth integrates rho over the unstable daughter's spectral
// function from its minimum mass up to m-stableMass, tabulated on a 60-point
// grid and corrected by the Post form factor (spec.md §4.6).
func semistableModeWidth(c *particletype.Catalog, parent *particletype.ParticleType, mode *particletype.DecayMode, stable, unstable *particletype.ParticleType, m float64, gamma0 float64) float64 {
	upper := m - stable.MinMass
	if upper <= unstable.MinMass {
		return 0
	}
	lo := unstable.MinMass
	hi := math.Min(upper, unstable.PoleMass+10*unstable.PoleWidth)
	if hi <= lo {
		return 0
	}

	xs := make([]float64, tableGridPoints)
	ys := make([]float64, tableGridPoints)
	step := (hi - lo) / float64(tableGridPoints-1)
	for i := range xs {
		mp := lo + float64(i)*step
		xs[i] = mp
		ys[i] = Rho(m, mp, stable.PoleMass, mode.AngularMomentum) * SpectralFunction(c, unstable, mp)
	}
	integral := floats.Sum(ys) * step // plain sum over 60 points, endpoints at full weight

	rho0 := Rho(parent.PoleMass, unstable.PoleMass, stable.PoleMass, mode.AngularMomentum)
	if rho0 <= 0 {
		return 0
	}
	lambda := PostFormFactorLambda(parent.BaryonNumber() != 0)
	ff := PostFormFactor(m, parent.PoleMass, mode.Threshold(c), lambda)
	return gamma0 * integral / rho0 * ff
}

// threeBodyModeWidth uses a fixed phase-space-volume scaling (cube of the
// mass ratio above the pole) rather than the full three-body integral,
// since spec.md §4.6 notes the exact form is "not needed to appreciate the
// dispatch contract".
func threeBodyModeWidth(parent *particletype.ParticleType, mode *particletype.DecayMode, m float64) float64 {
	gamma0 := parent.PoleWidth * mode.BranchingRatio
	if parent.PoleMass <= 0 {
		return gamma0
	}
	scale := m / parent.PoleMass
	return gamma0 * scale * scale * scale
}

// TotalWidth sums every mode's ModeWidth at mass m: Gamma_eff(m) (spec.md
// §4.5/§4.6).
func TotalWidth(c *particletype.Catalog, t *particletype.ParticleType, m float64) float64 {
	total := 0.0
	for i := range t.DecayModes {
		total += ModeWidth(c, t, &t.DecayModes[i], m)
	}
	return total
}

// SpectralFunction evaluates the normalized Breit-Wigner spectral density
// A(m) (spec.md §4.6):
//
//	A(m) = (1/N) * (1/pi) * (m*Gamma(m)) / ((m^2-m0^2)^2 + (m*Gamma(m))^2)
//
// normalized numerically so integral over [MinMass, 100 GeV] is 1.
func SpectralFunction(c *particletype.Catalog, t *particletype.ParticleType, m float64) float64 {
	if t.Stable() {
		if m == t.PoleMass {
			return math.Inf(1)
		}
		return 0
	}
	norm := spectralNormalization(c, t)
	if norm <= 0 {
		return 0
	}
	return spectralUnnormalized(c, t, m) / norm
}

func spectralUnnormalized(c *particletype.Catalog, t *particletype.ParticleType, m float64) float64 {
	if m <= 0 {
		return 0
	}
	gamma := TotalWidth(c, t, m)
	num := m * gamma
	denom := (m*m-t.PoleMass*t.PoleMass)*(m*m-t.PoleMass*t.PoleMass) + num*num
	if denom <= 0 {
		return 0
	}
	return (1 / math.Pi) * num / denom
}

// spectralCache memoizes the normalization integral per type, since it is
// evaluated on every rejection-sampling draw otherwise (spec.md §4.6 mass
// sampling runs many trials per event).
var spectralCache = make(map[*particletype.ParticleType]float64)

func spectralNormalization(c *particletype.Catalog, t *particletype.ParticleType) float64 {
	if v, ok := spectralCache[t]; ok {
		return v
	}
	const upper = 100.0 // GeV, per spec.md §4.6
	const n = 400
	lo := t.MinMass
	if upper <= lo {
		spectralCache[t] = 0
		return 0
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	step := (upper - lo) / float64(n-1)
	for i := range xs {
		mp := lo + float64(i)*step
		xs[i] = mp
		ys[i] = spectralUnnormalized(c, t, mp)
	}
	v := floats.Sum(ys) * step
	spectralCache[t] = v
	return v
}
