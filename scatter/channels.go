package scatter

import (
	"math"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/kinematics"
	"github.com/pthm-cable/soup/particletype"
)

// gevToMb converts a cross section from natural units (GeV^-2) to millibarn:
// (hbar*c)^2 = 0.389379 GeV^2*mb.
const gevToMb = 0.389379

// elasticRadiusFm is the geometric radius used for the energy-independent
// elastic cross section, the same Blatt-Weisskopf interaction radius used
// throughout the width calculations (spec.md §4.6): R = 1 fm.
const elasticRadiusFm = 1.0

// stringThresholdGeV is the sqrt(s) above which a residual inelastic cross
// section is attributed to string excitation rather than resonance
// formation (spec.md §4.4 channel list: "elastic, 2->1, 2->2, string").
const stringThresholdGeV = 3.0

// Channel is one candidate outcome of a two-body collision, carrying the
// partial cross section spec.md §4.4's channel-selection roulette wheel
// weighs by.
type Channel struct {
	Kind         action.ScatterKind
	Process      action.ProcessType
	CrossSection float64 // mb
	Daughters    []particletype.Index
}

// EnumerateChannels lists every open channel for a collision of species a, b
// at center-of-mass energy sqrtS (spec.md §4.4). The elastic channel is
// always present; resonance-formation (2->1) channels are added for every
// catalog type whose two-body decay table contains exactly {a, b}; a residual
// string channel absorbs everything above stringThresholdGeV. True 2->2
// inelastic channels (e.g. NN -> NDelta) are not modeled: SMASH resolves
// those via parametrized experimental cross sections this engine has no
// table for, so they fall through to the string channel instead (documented
// simplification).
func EnumerateChannels(c *particletype.Catalog, a, b particletype.Index, sqrtS float64) []Channel {
	var channels []Channel

	channels = append(channels, Channel{
		Kind:         action.ScatterElastic,
		Process:      action.ProcessElastic,
		CrossSection: elasticCrossSection(sqrtS),
		Daughters:    []particletype.Index{a, b},
	})

	pcmIn := kinematics.PCM(sqrtS, c.Type(a).PoleMass, c.Type(b).PoleMass)
	if pcmIn <= 0 {
		return channels
	}

	for i := 0; i < c.Len(); i++ {
		idx := particletype.Index(i)
		t := c.Type(idx)
		if t.Stable() {
			continue
		}
		for _, mode := range t.DecayModes {
			if !isTwoBodyMatch(mode.Daughters, a, b) {
				continue
			}
			if sqrtS < mode.Threshold(c) {
				continue
			}
			sigma := resonanceFormationCrossSection(c, t, sqrtS, pcmIn)
			if sigma <= 0 {
				continue
			}
			channels = append(channels, Channel{
				Kind:         action.ScatterTwoToOne,
				Process:      action.ProcessTwoToOne,
				CrossSection: sigma,
				Daughters:    []particletype.Index{idx},
			})
		}
	}

	if sqrtS >= stringThresholdGeV {
		channels = append(channels, Channel{
			Kind:         action.ScatterString,
			Process:      action.ProcessString,
			CrossSection: stringResidualCrossSection(sqrtS, channels),
		})
	}

	return channels
}

func isTwoBodyMatch(daughters []particletype.Index, a, b particletype.Index) bool {
	if len(daughters) != 2 {
		return false
	}
	return (daughters[0] == a && daughters[1] == b) || (daughters[0] == b && daughters[1] == a)
}

// elasticCrossSection is the energy-independent geometric estimate
// sigma = pi*R^2, R the Blatt-Weisskopf interaction radius (spec.md §4.6),
// a deliberate simplification of SMASH's parametrized elastic tables.
func elasticCrossSection(sqrtS float64) float64 {
	if sqrtS <= 0 {
		return 0
	}
	sigmaFm2 := math.Pi * elasticRadiusFm * elasticRadiusFm
	return sigmaFm2 * 10 // 1 fm^2 = 10 mb
}

// resonanceFormationCrossSection evaluates the relativistic Breit-Wigner
// formation cross section for a <- a+b (spec.md §4.4/§4.6):
//
//	sigma = (4*pi/pCM_in^2) * (m0*Gamma(sqrtS))^2 / ((s-m0^2)^2+(m0*Gamma(sqrtS))^2)
//
// with the spin-degeneracy prefactor set to 1 (documented simplification:
// the catalog does not carry the full spin multiplicities SMASH's formula
// needs).
func resonanceFormationCrossSection(c *particletype.Catalog, t *particletype.ParticleType, sqrtS, pcmIn float64) float64 {
	gamma := kinematics.TotalWidth(c, t, sqrtS)
	if gamma <= 0 {
		return 0
	}
	s := sqrtS * sqrtS
	m0 := t.PoleMass
	num := (m0 * gamma) * (m0 * gamma)
	den := (s-m0*m0)*(s-m0*m0) + num
	if den <= 0 {
		return 0
	}
	sigmaGeVInv2 := (4 * math.Pi / (pcmIn * pcmIn)) * (num / den)
	return sigmaGeVInv2 * gevToMb
}

// stringResidualCrossSection returns whatever is left of a flat total
// inelastic budget once the enumerated channels are subtracted, floored at
// zero. The flat budget itself is a simplification: SMASH fits this from
// data per species pair.
func stringResidualCrossSection(sqrtS float64, soFar []Channel) float64 {
	const totalInelasticBudgetMb = 30.0
	used := 0.0
	for _, ch := range soFar {
		if ch.Kind != action.ScatterElastic {
			used += ch.CrossSection
		}
	}
	residual := totalInelasticBudgetMb - used
	if residual < 0 {
		return 0
	}
	return residual
}
