// Package fourvector implements Minkowski four-vectors and the Lorentz
// boosts, rotations and invariant products the kinematics layer needs.
//
// Metric convention: (+,-,-,-), i.e. Dot() = x0*x0 - x1*x1 - x2*x2 - x3*x3.
package fourvector

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ThreeVector is a spatial 3-vector, used for velocities, momenta and
// positions split off from the time/energy component.
type ThreeVector struct {
	X1, X2, X3 float64
}

// Sqr returns the Euclidean squared norm.
func (v ThreeVector) Sqr() float64 {
	return v.X1*v.X1 + v.X2*v.X2 + v.X3*v.X3
}

// Abs returns the Euclidean norm.
func (v ThreeVector) Abs() float64 {
	return math.Sqrt(v.Sqr())
}

// Dot is the Euclidean inner product.
func (v ThreeVector) Dot(o ThreeVector) float64 {
	return v.X1*o.X1 + v.X2*o.X2 + v.X3*o.X3
}

// Add returns v+o.
func (v ThreeVector) Add(o ThreeVector) ThreeVector {
	return ThreeVector{v.X1 + o.X1, v.X2 + o.X2, v.X3 + o.X3}
}

// Sub returns v-o.
func (v ThreeVector) Sub(o ThreeVector) ThreeVector {
	return ThreeVector{v.X1 - o.X1, v.X2 - o.X2, v.X3 - o.X3}
}

// Scale returns v*a.
func (v ThreeVector) Scale(a float64) ThreeVector {
	return ThreeVector{v.X1 * a, v.X2 * a, v.X3 * a}
}

// Cross returns the vector cross product v x o.
func (v ThreeVector) Cross(o ThreeVector) ThreeVector {
	return ThreeVector{
		v.X2*o.X3 - v.X3*o.X2,
		v.X3*o.X1 - v.X1*o.X3,
		v.X1*o.X2 - v.X2*o.X1,
	}
}

// Normalized returns v scaled to unit length; the zero vector is returned
// unchanged if its norm is zero.
func (v ThreeVector) Normalized() ThreeVector {
	n := v.Abs()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// FourVector is a Minkowski four-vector (x0, x1, x2, x3).
type FourVector struct {
	X0, X1, X2, X3 float64
}

// New builds a FourVector from a time/energy component and a 3-vector.
func New(x0 float64, v ThreeVector) FourVector {
	return FourVector{x0, v.X1, v.X2, v.X3}
}

// ThreeVec extracts the spatial part.
func (f FourVector) ThreeVec() ThreeVector {
	return ThreeVector{f.X1, f.X2, f.X3}
}

// Dot is the Minkowski inner product f.o using the (+,-,-,-) metric.
func (f FourVector) Dot(o FourVector) float64 {
	return f.X0*o.X0 - f.X1*o.X1 - f.X2*o.X2 - f.X3*o.X3
}

// Sqr is f.Dot(f), i.e. the invariant mass squared when f is a momentum.
func (f FourVector) Sqr() float64 {
	return f.Dot(f)
}

// Add returns f+o.
func (f FourVector) Add(o FourVector) FourVector {
	return FourVector{f.X0 + o.X0, f.X1 + o.X1, f.X2 + o.X2, f.X3 + o.X3}
}

// Sub returns f-o.
func (f FourVector) Sub(o FourVector) FourVector {
	return FourVector{f.X0 - o.X0, f.X1 - o.X1, f.X2 - o.X2, f.X3 - o.X3}
}

// Scale returns f*a.
func (f FourVector) Scale(a float64) FourVector {
	return FourVector{f.X0 * a, f.X1 * a, f.X2 * a, f.X3 * a}
}

// Velocity returns the 3-velocity p/E implied by treating f as a momentum.
func (f FourVector) Velocity() ThreeVector {
	if f.X0 == 0 {
		return ThreeVector{}
	}
	return f.ThreeVec().Scale(1 / f.X0)
}

// LorentzBoost boosts f into the frame moving with three-velocity
// "velocity" relative to the current frame (ported from
// FourVector::LorentzBoost in the original C++ source: this is the inverse
// of a boost BY velocity, i.e. it moves into that frame).
func (f FourVector) LorentzBoost(velocity ThreeVector) FourVector {
	v2 := velocity.Sqr()
	var gamma float64
	if v2 < 1 {
		gamma = 1 / math.Sqrt(1-v2)
	}
	xprime0 := gamma * (f.X0 - f.ThreeVec().Dot(velocity))
	constantPart := gamma / (gamma + 1) * (xprime0 + f.X0)
	space := f.ThreeVec().Sub(velocity.Scale(constantPart))
	return New(xprime0, space)
}

// Boost is the convenience alias used throughout the kinematics layer: it
// boosts the vector into the rest frame of a particle moving with velocity
// "velocity" in the current frame (same transform as LorentzBoost).
func (f FourVector) Boost(velocity ThreeVector) FourVector {
	return f.LorentzBoost(velocity)
}

// BoostBack is the inverse transform: boosts f (given in the frame moving
// with "velocity") back into the lab/original frame.
func (f FourVector) BoostBack(velocity ThreeVector) FourVector {
	return f.LorentzBoost(velocity.Scale(-1))
}

// RotationMatrix builds a 3x3 rotation matrix via gonum/mat that rotates the
// polar z-axis onto the direction given by (cosTheta, phi), used to orient
// the isotropic/Dalitz decay planes sampled in (θ, φ).
func RotationMatrix(cosTheta, phi float64) *mat.Dense {
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	r := mat.NewDense(3, 3, nil)
	r.Set(0, 0, cosTheta*cosPhi)
	r.Set(0, 1, -sinPhi)
	r.Set(0, 2, sinTheta*cosPhi)
	r.Set(1, 0, cosTheta*sinPhi)
	r.Set(1, 1, cosPhi)
	r.Set(1, 2, sinTheta*sinPhi)
	r.Set(2, 0, -sinTheta)
	r.Set(2, 1, 0)
	r.Set(2, 2, cosTheta)
	return r
}

// Rotate applies a 3x3 rotation matrix (as built by RotationMatrix) to v.
func Rotate(r *mat.Dense, v ThreeVector) ThreeVector {
	in := mat.NewVecDense(3, []float64{v.X1, v.X2, v.X3})
	var out mat.VecDense
	out.MulVec(r, in)
	return ThreeVector{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// FromSphericalUnit builds a unit vector at polar angle theta (cosTheta
// given) and azimuth phi.
func FromSphericalUnit(cosTheta, phi float64) ThreeVector {
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	return ThreeVector{sinTheta * math.Cos(phi), sinTheta * math.Sin(phi), cosTheta}
}
