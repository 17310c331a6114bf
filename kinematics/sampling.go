package kinematics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/particletype"
)

// maxRejectionIterations bounds the rejection samplers (spec.md §7:
// "Kinematic singularity: rejection sampler failing to converge in 100
// iterations: action skipped, warning emitted").
const maxRejectionIterations = 100

// ErrRejectionFailed is returned when a rejection sampler exhausts its
// iteration budget (spec.md §7/§8).
type ErrRejectionFailed struct{ What string }

func (e ErrRejectionFailed) Error() string {
	return "kinematics: rejection sampler for " + e.What + " did not converge in " + itoa(maxRejectionIterations) + " iterations"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SampleMass draws an effective mass for an unstable resonance produced at
// total CM energy sqrtS alongside a stable partner of mass mStable, using
// the rejection scheme of spec.md §4.6: a truncated non-relativistic
// Breit-Wigner envelope (a Cauchy distribution at the pole), scaled by an
// empirical safety factor of 2.5 and by pCM(sqrtS, mStable, t.MinMass), the
// largest CM momentum over the sampled range [t.MinMass, mMax].
func SampleMass(c *particletype.Catalog, t *particletype.ParticleType, sqrtS, mStable float64, rng distuv.Rander) (float64, error) {
	if t.Stable() {
		return t.PoleMass, nil
	}
	mMax := sqrtS - mStable
	if mMax <= t.MinMass {
		return 0, ErrRejectionFailed{What: t.Name + " mass (closed channel)"}
	}

	envelope := distuv.Cauchy{Location: t.PoleMass, Scale: t.PoleWidth / 2, Src: nil}
	envelopeMax := 2.5 * pdfAt(envelope, t.PoleMass) * PCM(sqrtS, mStable, t.MinMass)

	for i := 0; i < maxRejectionIterations; i++ {
		m := sampleTruncatedCauchy(envelope, t.MinMass, mMax, rng)
		simple := pdfAt(envelope, m)
		if simple <= 0 {
			continue
		}
		weight := SpectralFunction(c, t, m) / simple * PCM(sqrtS, mStable, m)
		if weight <= 0 || envelopeMax <= 0 {
			continue
		}
		accept := weight / envelopeMax
		if rng.Rand() < accept {
			return m, nil
		}
	}
	return 0, ErrRejectionFailed{What: t.Name + " mass"}
}

// pdfAt evaluates the Cauchy envelope density at x.
func pdfAt(d distuv.Cauchy, x float64) float64 {
	z := (x - d.Location) / d.Scale
	return 1 / (math.Pi * d.Scale * (1 + z*z))
}

// sampleTruncatedCauchy draws from a Cauchy distribution restricted to
// [lo, hi] via inverse-CDF truncation.
func sampleTruncatedCauchy(d distuv.Cauchy, lo, hi float64, rng distuv.Rander) float64 {
	cdfLo := cauchyCDF(d, lo)
	cdfHi := cauchyCDF(d, hi)
	u := cdfLo + rng.Rand()*(cdfHi-cdfLo)
	return d.Location + d.Scale*math.Tan(math.Pi*(u-0.5))
}

func cauchyCDF(d distuv.Cauchy, x float64) float64 {
	return 0.5 + math.Atan((x-d.Location)/d.Scale)/math.Pi
}

// SampleCosTheta draws an isotropic cos(theta) in [-1,1], used whenever a
// solid angle is assigned isotropically (spec.md §4.4/§4.5).
func SampleCosTheta(rng distuv.Rander) float64 {
	return 2*rng.Rand() - 1
}

// SamplePhi draws a uniform azimuth in [0, 2*pi).
func SamplePhi(rng distuv.Rander) float64 {
	return 2 * math.Pi * rng.Rand()
}
