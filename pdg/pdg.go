// Package pdg decodes PDG Monte Carlo particle-numbering-scheme codes into
// the quantum numbers the engine needs for conservation checks and
// antiparticle generation.
package pdg

import (
	"fmt"
	"strconv"
)

// Code is a signed PDG Monte Carlo particle code. The sign distinguishes
// particle from antiparticle; the magnitude is digit-encoded as
// n nr nL nq1 nq2 nq3 nJ (7-digit scheme) or fewer digits for leptons/bosons.
type Code int32

// quark electric charges in units of e/3, indexed by quark flavor 1..8.
var quarkCharge3 = [9]int{0, -1, 2, -1, 2, -1, 2, -1, 2} // d u s c b t b' t'

// quarkStrangeness holds each quark flavour's strangeness: -1 for the s
// quark (index 3), 0 for every other flavour.
var quarkStrangeness = [9]int{0, 0, 0, -1, 0, 0, 0, 0, 0}

// Invalid is the zero code; it decodes as non-hadronic, chargeless, neutral.
const Invalid Code = 0

// New wraps a signed PDG integer.
func New(code int32) Code { return Code(code) }

// ParseString parses a PDG code given in decimal or 0x-hex textual form, as
// used in the particle and decay-mode table files (spec.md §6).
func ParseString(s string) (Code, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return Invalid, fmt.Errorf("pdg: invalid code %q: %w", s, err)
	}
	return Code(v), nil
}

func (c Code) abs() int32 {
	if c < 0 {
		return int32(-c)
	}
	return int32(c)
}

// antiparticleSign is -1 for a code representing an antiparticle, else +1.
func (c Code) antiparticleSign() int {
	if c < 0 {
		return -1
	}
	return 1
}

// digits extracts, from the absolute value, the 7-digit fields
// (n, nr, nL, nq1, nq2, nq3, nJ) in PDG convention; unused leading digits
// are zero for lighter codes.
func (c Code) digits() (n, nr, nL, nq1, nq2, nq3, nJ int) {
	a := c.abs()
	nJ = int(a % 10)
	a /= 10
	nq3 = int(a % 10)
	a /= 10
	nq2 = int(a % 10)
	a /= 10
	nq1 = int(a % 10)
	a /= 10
	nL = int(a % 10)
	a /= 10
	nr = int(a % 10)
	a /= 10
	n = int(a % 10)
	return
}

// IsHadron is true when the code has all three quark digits set, i.e. it is
// a baryon, or has the first quark digit zero and the other two set, i.e. a
// meson.
func (c Code) IsHadron() bool {
	_, _, _, q1, q2, q3, _ := c.digits()
	if q1 == 0 {
		return q2 != 0 && q3 != 0
	}
	return q1 != 0 && q2 != 0 && q3 != 0
}

// IsBaryon is true for a three-quark hadron (q1, q2, q3 all nonzero).
func (c Code) IsBaryon() bool {
	_, _, _, q1, q2, q3, _ := c.digits()
	return q1 != 0 && q2 != 0 && q3 != 0
}

// IsMeson is true for a quark-antiquark hadron (q1 zero, q2 and q3 nonzero).
func (c Code) IsMeson() bool {
	_, _, _, q1, q2, q3, _ := c.digits()
	return q1 == 0 && q2 != 0 && q3 != 0
}

// IsLepton covers PDG codes 11-18 and their antiparticles.
func (c Code) IsLepton() bool {
	a := c.abs()
	return a >= 11 && a <= 18
}

// BaryonNumber returns +1/-1/0 for baryon/antibaryon/non-baryon.
func (c Code) BaryonNumber() int {
	if !c.IsBaryon() {
		return 0
	}
	return c.antiparticleSign()
}

// Charge returns the electric charge in units of e, rounded to the nearest
// integer-thirds sum of the constituent quark charges (mesons can be
// fractional only transiently during the sum; hadron charges are always
// integral once q1/q2/q3 combine).
func (c Code) Charge() int {
	switch {
	case c.IsBaryon():
		_, _, _, q1, q2, q3, _ := c.digits()
		sum3 := quarkCharge3[q1] + quarkCharge3[q2] + quarkCharge3[q3]
		return (sum3 / 3) * c.antiparticleSign()
	case c.IsMeson():
		_, _, _, _, q2, q3, _ := c.digits()
		// by convention q2 is the quark, q3 the antiquark constituent.
		sum3 := quarkCharge3[q2] - quarkCharge3[q3]
		return (sum3 / 3) * c.antiparticleSign()
	case c.IsLepton():
		a := c.abs()
		if a%2 == 1 {
			// charged lepton (e, mu, tau -> 11,13,15)
			return -1 * c.antiparticleSign()
		}
		return 0
	default:
		return 0
	}
}

// Strangeness returns net strangeness (s-quark content carries S=-1 per
// quark; antiparticles flip sign).
func (c Code) Strangeness() int {
	_, _, _, q1, q2, q3, _ := c.digits()
	s := quarkStrangeness[q1] + quarkStrangeness[q2] + quarkStrangeness[q3]
	if c.IsMeson() {
		// q3 is the antiquark (same convention as Charge).
		s = quarkStrangeness[q2] - quarkStrangeness[q3]
	}
	return s * c.antiparticleSign()
}

// IsospinZ returns the z-component of isospin via the Gell-Mann-Nishijima
// relation Q = I3 + (B+S)/2.
func (c Code) IsospinZ() float64 {
	return float64(c.Charge()) - float64(c.BaryonNumber()+c.Strangeness())/2.0
}

// SpinDoubled returns 2J, read directly off the last PDG digit for a ground
// or orbitally-excited hadron (nJ = 2J+1 for the lowest multiplets).
func (c Code) SpinDoubled() int {
	_, _, _, _, _, _, nJ := c.digits()
	if nJ == 0 {
		return 0
	}
	return nJ - 1
}

// HasAntiparticle is false for fully neutral self-conjugate codes (all
// additive quantum numbers zero), true otherwise.
func (c Code) HasAntiparticle() bool {
	return c.BaryonNumber() != 0 || c.Charge() != 0 || c.Strangeness() != 0
}

// Antiparticle returns the charge-conjugate code.
func (c Code) Antiparticle() Code {
	return -c
}

// Int32 returns the raw signed integer code.
func (c Code) Int32() int32 { return int32(c) }

// String renders the code in the decimal form used by the table files.
func (c Code) String() string {
	return strconv.FormatInt(int64(c), 10)
}
