package kinematics

// hbarC is hbar*c in GeV*fm, the conversion between fm and GeV^-1 used to
// express the 1 fm Blatt-Weisskopf barrier radius of spec.md §4.6 in
// natural units.
const hbarC = 0.19732698 // GeV*fm

// InteractionRadiusGeVInv is R expressed in GeV^-1 (1 fm / hbar*c).
const InteractionRadiusGeVInv = 1.0 / hbarC

// BlattWeisskopfSquared returns B_L(z)^2, the squared angular-momentum
// barrier factor, for z = (p*R)^2 and angular momentum L in 0..3
// (spec.md §4.6). Unlisted L values fall back to L=3's form, since SMASH's
// decay tables never exceed L=3 (validated at catalog load, see
// particletype.Catalog.Validate).
func BlattWeisskopfSquared(z float64, l int) float64 {
	switch l {
	case 0:
		return 1
	case 1:
		return z / (1 + z)
	case 2:
		return z * z / (9 + 3*z + z*z)
	default:
		return z * z * z / (225 + 45*z + 6*z*z + z*z*z)
	}
}

// Rho evaluates rho(m) = (p*/m) * B_L(p*R)^2 for a two-body mode with
// daughter masses m1, m2 and angular momentum l, at parent mass m
// (spec.md §4.6).
func Rho(m, m1, m2 float64, l int) float64 {
	if m <= 0 {
		return 0
	}
	pStar := PCM(m, m1, m2)
	z := pStar * pStar * InteractionRadiusGeVInv * InteractionRadiusGeVInv
	return (pStar / m) * BlattWeisskopfSquared(z, l)
}

// PostFormFactor evaluates the Post form factor used to regularize a
// stable+unstable mode's width integral (spec.md §4.6):
//
//	((Lambda^4+((s0-m0^2)/2)^2) / (Lambda^4+(m^2-(s0+m0^2)/2)^2))^2
//
// where m0 is the parent's pole mass, s0 = srts0^2, and srts0 is the
// reaction threshold (minimum possible sqrt(s): mode.Threshold(c), the
// stable daughter's mass plus the unstable daughter's minimum mass) — not
// m0 itself. The form factor equals 1 at m=m0 and m=srts0.
func PostFormFactor(m, m0, srts0, lambda float64) float64 {
	s0 := srts0 * srts0
	sminus := (s0 - m0*m0) / 2
	num := lambda*lambda*lambda*lambda + sminus*sminus
	denomTerm := m*m - (s0+m0*m0)/2
	den := lambda*lambda*lambda*lambda + denomTerm*denomTerm
	ratio := num / den
	return ratio * ratio
}

// PostFormFactorLambda returns the Lambda cutoff used in PostFormFactor for
// a meson (1.6 GeV) or baryon (2.0 GeV) parent, per spec.md §4.6.
func PostFormFactorLambda(isBaryon bool) float64 {
	if isBaryon {
		return 2.0
	}
	return 1.6
}
