// Package kinematics implements the resonance-kinematics layer of spec.md
// §4.6: two-body CM momentum, Blatt-Weisskopf barrier factors, mass-dependent
// widths, spectral functions and rejection-sampled mass/angle/Dalitz
// distributions.
package kinematics

import "math"

// PCM computes the two-body CM momentum magnitude
//
//	pCM(sqrtS, m1, m2) = sqrt((s-(m1+m2)^2)(s-(m1-m2)^2)) / (2*sqrtS)
//
// (spec.md §4.6), with the discriminant clamped to >= 0 as a round-off guard
// at threshold.
func PCM(sqrtS, m1, m2 float64) float64 {
	if sqrtS <= 0 {
		return 0
	}
	s := sqrtS * sqrtS
	disc := (s - (m1+m2)*(m1+m2)) * (s - (m1-m2)*(m1-m2))
	if disc < 0 {
		disc = 0
	}
	return math.Sqrt(disc) / (2 * sqrtS)
}

// PCMSqr is the squared two-body CM momentum, useful when only the square is
// needed and an extra sqrt should be avoided.
func PCMSqr(sqrtS, m1, m2 float64) float64 {
	p := PCM(sqrtS, m1, m2)
	return p * p
}

// Threshold is the minimal sqrt(s) at which a two-body final state with
// masses m1, m2 is kinematically open.
func Threshold(m1, m2 float64) float64 {
	return m1 + m2
}
