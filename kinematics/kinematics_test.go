package kinematics

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/pdg"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) < tol }

func TestPCMSymmetricMasses(t *testing.T) {
	// Two equal-mass daughters from a resonance at rest: p* follows the
	// standard two-body formula.
	sqrtS, m := 2.0, 0.938
	p := PCM(sqrtS, m, m)
	want := math.Sqrt(sqrtS*sqrtS/4 - m*m)
	if !almostEqual(p, want, 1e-9) {
		t.Errorf("PCM() = %v, want %v", p, want)
	}
}

func TestPCMBelowThresholdIsZero(t *testing.T) {
	if p := PCM(1.0, 0.6, 0.6); p != 0 {
		t.Errorf("PCM() below threshold = %v, want 0", p)
	}
}

func TestPCMSqrMatchesSquare(t *testing.T) {
	p := PCM(2.5, 0.14, 0.94)
	if !almostEqual(PCMSqr(2.5, 0.14, 0.94), p*p, 1e-9) {
		t.Error("PCMSqr() does not match PCM()^2")
	}
}

func TestBlattWeisskopfSAtZero(t *testing.T) {
	for l := 0; l <= 4; l++ {
		if got := BlattWeisskopfSquared(0, l); got != 0 && l != 0 {
			t.Errorf("BlattWeisskopfSquared(0, %d) = %v, want 0", l, got)
		}
	}
	if got := BlattWeisskopfSquared(0, 0); got != 1 {
		t.Errorf("BlattWeisskopfSquared(0, 0) = %v, want 1 (s-wave has no barrier)", got)
	}
}

func TestBlattWeisskopfMonotonicInZ(t *testing.T) {
	for l := 1; l <= 3; l++ {
		prev := BlattWeisskopfSquared(0.1, l)
		for _, z := range []float64{0.5, 1, 2, 5} {
			cur := BlattWeisskopfSquared(z, l)
			if cur < prev {
				t.Errorf("BlattWeisskopfSquared(l=%d) is not monotonic: f(%v) < f(prev)", l, z)
			}
			prev = cur
		}
	}
}

func TestSampleCosThetaRange(t *testing.T) {
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(1)}
	for i := 0; i < 1000; i++ {
		c := SampleCosTheta(rng)
		if c < -1 || c > 1 {
			t.Fatalf("SampleCosTheta() = %v out of [-1,1]", c)
		}
	}
}

func TestSamplePhiRange(t *testing.T) {
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(2)}
	for i := 0; i < 1000; i++ {
		p := SamplePhi(rng)
		if p < 0 || p >= 2*math.Pi {
			t.Fatalf("SamplePhi() = %v out of [0,2pi)", p)
		}
	}
}

// stableCatalog builds a two-type catalog (a stable pion and a broad
// resonance decaying to two pions) for spectral-function and mass-sampling
// tests.
func stableCatalog(t *testing.T) (*particletype.Catalog, *particletype.ParticleType) {
	t.Helper()
	b := particletype.NewBuilder()
	if err := b.AddType("pi", 0.138, 0, pdg.New(211)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddType("rho", 0.775, 0.149, pdg.New(113)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddDecayMode("rho", 1.0, 1, "pi", "pi"); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	idx, ok := c.ByName("rho")
	if !ok {
		t.Fatal("rho not found in catalog")
	}
	return c, c.Type(idx)
}

func TestSpectralFunctionPeaksNearPoleMass(t *testing.T) {
	c, rho := stableCatalog(t)
	atPole := SpectralFunction(c, rho, rho.PoleMass)
	farFromPole := SpectralFunction(c, rho, rho.PoleMass+0.5)
	if atPole <= farFromPole {
		t.Errorf("spectral function at pole (%v) should exceed value far off pole (%v)", atPole, farFromPole)
	}
}

func TestSampleMassStableReturnsPoleMass(t *testing.T) {
	b := particletype.NewBuilder()
	if err := b.AddType("pi", 0.138, 0, pdg.New(211)); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	idx, _ := c.ByName("pi")
	pi := c.Type(idx)

	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(3)}
	m, err := SampleMass(c, pi, 2.0, 0.138, rng)
	if err != nil {
		t.Fatalf("SampleMass: %v", err)
	}
	if m != pi.PoleMass {
		t.Errorf("SampleMass() for a stable type = %v, want pole mass %v", m, pi.PoleMass)
	}
}

func TestSampleMassWithinBounds(t *testing.T) {
	c, rho := stableCatalog(t)
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(4)}
	sqrtS, mStable := 3.0, 0.138
	for i := 0; i < 50; i++ {
		m, err := SampleMass(c, rho, sqrtS, mStable, rng)
		if err != nil {
			t.Fatalf("SampleMass: %v", err)
		}
		if m < rho.MinMass || m > sqrtS-mStable {
			t.Errorf("SampleMass() = %v, outside [%v, %v]", m, rho.MinMass, sqrtS-mStable)
		}
	}
}

func TestSampleDalitzMomentumConservation(t *testing.T) {
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(5)}
	m, ma, mb, mc := 1.5, 0.138, 0.138, 0.138
	result, err := SampleDalitz(m, ma, mb, mc, rng)
	if err != nil {
		t.Fatalf("SampleDalitz: %v", err)
	}
	sum := result.Pa.Add(result.Pb).Add(result.Pc)
	if !almostEqual(sum.Abs(), 0, 1e-6) {
		t.Errorf("Dalitz three-momenta do not sum to zero: %+v", sum)
	}
	if !almostEqual(result.Ea+result.Eb+result.Ec, m, 1e-6) {
		t.Errorf("Dalitz energies sum to %v, want parent mass %v", result.Ea+result.Eb+result.Ec, m)
	}
}

func TestPostFormFactorAtPoleMass(t *testing.T) {
	// At m == m0, the form factor should evaluate to 1 regardless of srts0
	// (numerator and denominator terms coincide at the pole).
	ff := PostFormFactor(0.775, 0.775, 1.08, PostFormFactorLambda(false))
	if !almostEqual(ff, 1, 1e-9) {
		t.Errorf("PostFormFactor(m0, m0, srts0) = %v, want 1", ff)
	}
}

func TestPostFormFactorAtThreshold(t *testing.T) {
	// At m == srts0, the form factor should also evaluate to 1.
	srts0 := 1.08
	ff := PostFormFactor(srts0, 0.775, srts0, PostFormFactorLambda(false))
	if !almostEqual(ff, 1, 1e-9) {
		t.Errorf("PostFormFactor(srts0, m0, srts0) = %v, want 1", ff)
	}
}
