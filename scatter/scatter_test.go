package scatter

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/pdg"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/spatialgrid"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) < tol }

// pionRhoCatalog builds pi+, pi- and a neutral rho decaying to exactly that
// pair, so channel enumeration has a real 2->1 resonance-formation mode to
// find.
func pionRhoCatalog(t *testing.T) *particletype.Catalog {
	t.Helper()
	b := particletype.NewBuilder()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(b.AddType("pi+", 0.13957, 0, pdg.New(211)))
	must(b.AddType("pi-", 0.13957, 0, pdg.New(-211)))
	must(b.AddType("rho0", 0.775, 0.149, pdg.New(113)))
	must(b.AddDecayMode("rho0", 1.0, 1, "pi+", "pi-"))
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	return c
}

func TestEnumerateChannelsAlwaysHasElastic(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")

	channels := EnumerateChannels(c, piPlus, piMinus, 1.0)
	found := false
	for _, ch := range channels {
		if ch.CrossSection <= 0 {
			t.Errorf("channel %v has non-positive cross section %v", ch.Process, ch.CrossSection)
		}
		found = found || ch.Process == "elastic"
	}
	if !found {
		t.Error("EnumerateChannels() should always include an elastic channel")
	}
}

func TestEnumerateChannelsFindsResonanceFormationNearPole(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")

	channels := EnumerateChannels(c, piPlus, piMinus, 0.775)
	found := false
	for _, ch := range channels {
		if ch.Process == "2to1" {
			found = true
		}
	}
	if !found {
		t.Error("EnumerateChannels() at sqrt(s) near the rho pole should offer a 2->1 formation channel")
	}
}

func TestEnumerateChannelsAddsStringAboveThreshold(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")

	channels := EnumerateChannels(c, piPlus, piMinus, stringThresholdGeV+0.5)
	found := false
	for _, ch := range channels {
		if ch.Process == "string" {
			found = true
		}
	}
	if !found {
		t.Error("EnumerateChannels() above the string threshold should add a residual string channel")
	}
}

func TestSelectChannelPicksFromWeightedList(t *testing.T) {
	channels := []Channel{
		{Process: "elastic", CrossSection: 1},
		{Process: "2to1", CrossSection: 0},
	}
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(1)}
	selected, total := selectChannel(channels, rng)
	if selected == nil || selected.Process != "elastic" {
		t.Errorf("selectChannel() should always pick the only weighted channel, got %+v", selected)
	}
	if total != 1 {
		t.Errorf("selectChannel() total = %v, want 1", total)
	}
}

func TestSelectChannelEmptyReturnsNil(t *testing.T) {
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(1)}
	selected, total := selectChannel(nil, rng)
	if selected != nil || total != 0 {
		t.Error("selectChannel() on an empty list should return nil, 0")
	}
}

func TestElasticScatterConservesFourMomentum(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")
	mass := c.Type(piPlus).PoleMass

	a := registry.State{Type: piPlus, Momentum: fourvector.FourVector{X0: 1.0, X3: math.Sqrt(1 - mass*mass)}}
	b := registry.State{Type: piMinus, Momentum: fourvector.FourVector{X0: 1.0, X3: -math.Sqrt(1 - mass*mass)}}

	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(7)}
	act := &Action{
		Catalog:  c,
		Channel:  Channel{Kind: action.ScatterElastic},
		Incoming: []registry.Snapshot{{State: a}, {State: b}},
		Rng:      rng,
	}
	out, err := act.GenerateFinalState()
	if err != nil {
		t.Fatalf("GenerateFinalState: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("elastic scatter produced %d daughters, want 2", len(out))
	}

	pIn := a.Momentum.Add(b.Momentum)
	pOut := out[0].Momentum.Add(out[1].Momentum)
	if !almostEqual(pIn.X0, pOut.X0, 1e-9) {
		t.Errorf("energy not conserved: in=%v out=%v", pIn.X0, pOut.X0)
	}
	if !almostEqual(pIn.X1, pOut.X1, 1e-9) || !almostEqual(pIn.X2, pOut.X2, 1e-9) || !almostEqual(pIn.X3, pOut.X3, 1e-9) {
		t.Errorf("three-momentum not conserved: in=%+v out=%+v", pIn.ThreeVec(), pOut.ThreeVec())
	}
}

func particleAt(id int64, typ particletype.Index, x, y, z float64, mom fourvector.FourVector) spatialgrid.Particle {
	return spatialgrid.Particle{
		Snapshot: registry.Snapshot{
			State: registry.State{
				ID:       id,
				Type:     typ,
				Position: fourvector.New(0, fourvector.ThreeVector{X1: x, X2: y, X3: z}),
				Momentum: mom,
			},
		},
	}
}

func TestCollisionTimeMatchesHeadOnClosingSpeed(t *testing.T) {
	// a at rest at the origin, b two units away closing at speed 0.6 along x:
	// time to closest approach is distance/speed = 2/0.6.
	a := particleAt(0, 0, 0, 0, 0, fourvector.FourVector{X0: 1})
	b := particleAt(1, 0, 2, 0, 0, fourvector.FourVector{X0: 1, X1: -0.6})
	got := collisionTime(a, b)
	want := 2.0 / 0.6
	if !almostEqual(got, want, 1e-9) {
		t.Errorf("collisionTime() = %v, want %v", got, want)
	}
}

func TestCollisionTimeZeroForParallelVelocities(t *testing.T) {
	a := particleAt(0, 0, 0, 0, 0, fourvector.FourVector{X0: 1, X1: 0.4})
	b := particleAt(1, 0, 3, 0, 0, fourvector.FourVector{X0: 1, X1: 0.4})
	if got := collisionTime(a, b); got != 0 {
		t.Errorf("collisionTime() for parallel velocities = %v, want 0", got)
	}
}

func TestCMDistanceSquaredZeroForHeadOnSameAxis(t *testing.T) {
	// Equal and opposite momenta along x put the pair's CM frame at rest
	// (vCM=0); with both particles on the x-axis the CM-frame closest
	// approach is exact head-on contact, d^2 = 0, regardless of speed.
	a := particleAt(0, 0, -1, 0, 0, fourvector.FourVector{X0: 1.2, X1: 0.6})
	b := particleAt(1, 0, 1, 0, 0, fourvector.FourVector{X0: 1.2, X1: -0.6})
	if d2 := cmDistanceSquared(a, b); !almostEqual(d2, 0, 1e-9) {
		t.Errorf("cmDistanceSquared() for colinear head-on pair = %v, want 0", d2)
	}
}

func TestCMDistanceSquaredPositiveForOffsetTrajectory(t *testing.T) {
	// Same momenta as above, but b is offset transversely in y: the pair
	// never meets exactly, so d^2 should be positive and reflect the offset.
	a := particleAt(0, 0, -1, 0, 0, fourvector.FourVector{X0: 1.2, X1: 0.6})
	b := particleAt(1, 0, 1, 5, 0, fourvector.FourVector{X0: 1.2, X1: -0.6})
	if d2 := cmDistanceSquared(a, b); d2 <= 0 {
		t.Errorf("cmDistanceSquared() for offset trajectory = %v, want > 0", d2)
	}
}

func TestCandidateAcceptsHeadOnZeroImpactParameter(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")

	a := particleAt(0, piPlus, -1, 0, 0, fourvector.FourVector{X0: 1.2, X1: 0.6})
	b := particleAt(1, piMinus, 1, 0, 0, fourvector.FourVector{X0: 1.2, X1: -0.6})

	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(11)}
	f := &Finder{Catalog: c, Rng: rng}
	if got := f.candidate(a, b, 0, 10.0); got == nil {
		t.Error("candidate() should accept a head-on, zero-impact-parameter pair with a positive cross section")
	}
}

func TestCandidateRejectsDistantTrajectory(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")

	a := particleAt(0, piPlus, -1, 0, 0, fourvector.FourVector{X0: 1.2, X1: 0.6})
	// Offset far enough transversely that d^2 vastly exceeds any hadronic
	// total cross section's geometric disc.
	b := particleAt(1, piMinus, 1, 50, 0, fourvector.FourVector{X0: 1.2, X1: -0.6})

	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(12)}
	f := &Finder{Catalog: c, Rng: rng}
	if got := f.candidate(a, b, 0, 10.0); got != nil {
		t.Error("candidate() should deterministically reject a pair far outside the cross section's geometric disc")
	}
}

func TestTwoToOneMergesMomentumExactly(t *testing.T) {
	c := pionRhoCatalog(t)
	piPlus, _ := c.ByName("pi+")
	piMinus, _ := c.ByName("pi-")
	rho0, _ := c.ByName("rho0")

	a := registry.State{Type: piPlus, Momentum: fourvector.FourVector{X0: 1.0, X3: 0.5}}
	b := registry.State{Type: piMinus, Momentum: fourvector.FourVector{X0: 1.0, X3: -0.5}}

	act := &Action{
		Catalog:  c,
		Channel:  Channel{Kind: action.ScatterTwoToOne, Daughters: []particletype.Index{rho0}},
		Incoming: []registry.Snapshot{{State: a}, {State: b}},
	}
	out, err := act.GenerateFinalState()
	if err != nil {
		t.Fatalf("GenerateFinalState: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("2->1 scatter produced %d daughters, want 1", len(out))
	}
	want := a.Momentum.Add(b.Momentum)
	got := out[0].Momentum
	if !almostEqual(want.X0, got.X0, 1e-12) || !almostEqual(want.X3, got.X3, 1e-12) {
		t.Errorf("merged momentum = %+v, want exactly %+v", got, want)
	}
}
