package decay

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/kinematics"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
)

// Action implements action.FinalStateGenerator for a single unstable
// particle's decay (spec.md §4.5).
type Action struct {
	Catalog  *particletype.Catalog
	Incoming registry.Snapshot
	Rng      distuv.Rander
}

// GenerateFinalState picks one decay mode weighted by its partial width at
// the parent's effective mass (see selectMode), then samples
// the corresponding 1->2 or 1->3 final state in the parent rest frame and
// boosts it to the lab.
func (a *Action) GenerateFinalState() ([]registry.State, error) {
	s := a.Incoming.State
	t := a.Catalog.Type(s.Type)
	mass := s.EffectiveMass()

	mode, err := a.selectMode(t, mass)
	if err != nil {
		return nil, err
	}

	switch mode.NBody() {
	case 2:
		return a.twoBody(s, t, mode, mass)
	case 3:
		return a.threeBody(s, mode, mass)
	default:
		return nil, errors.New("decay: unsupported multiplicity")
	}
}

// selectMode picks a decay mode weighted by its mass-dependent partial width
// (spec.md §4.5), falling back to the branching-ratio weights if every
// partial width vanishes (e.g. all channels closed at this mass, a
// near-threshold edge case).
func (a *Action) selectMode(t *particletype.ParticleType, mass float64) (*particletype.DecayMode, error) {
	weights := make([]float64, len(t.DecayModes))
	total := 0.0
	for i := range t.DecayModes {
		w := kinematics.ModeWidth(a.Catalog, t, &t.DecayModes[i], mass)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		for i := range t.DecayModes {
			weights[i] = t.DecayModes[i].BranchingRatio
			total += weights[i]
		}
	}
	if total <= 0 {
		return nil, errors.New("decay: no open decay mode")
	}
	pick := a.Rng.Rand() * total
	acc := 0.0
	for i := range t.DecayModes {
		acc += weights[i]
		if pick <= acc {
			return &t.DecayModes[i], nil
		}
	}
	return &t.DecayModes[len(t.DecayModes)-1], nil
}

func (a *Action) twoBody(parent registry.State, t *particletype.ParticleType, mode *particletype.DecayMode, mass float64) ([]registry.State, error) {
	da := a.Catalog.Type(mode.Daughters[0])
	db := a.Catalog.Type(mode.Daughters[1])

	ma, err := a.sampleDaughterMass(da, mass, db.PoleMass)
	if err != nil {
		return nil, err
	}
	mb, err := a.sampleDaughterMass(db, mass, ma)
	if err != nil {
		return nil, err
	}
	if mass < ma+mb {
		return nil, kinematics.ErrRejectionFailed{What: t.Name + " -> " + da.Name + " " + db.Name}
	}

	p := kinematics.PCM(mass, ma, mb)
	cosTheta := kinematics.SampleCosTheta(a.Rng)
	phi := kinematics.SamplePhi(a.Rng)
	dir := fourvector.FromSphericalUnit(cosTheta, phi)

	ea := pEnergy(p, ma)
	eb := pEnergy(p, mb)
	pa := fourvector.New(ea, dir.Scale(p))
	pb := fourvector.New(eb, dir.Scale(-p))

	v := parent.Momentum.Velocity()
	labA := pa.BoostBack(v)
	labB := pb.BoostBack(v)

	hist := a.history(t, da, db)
	return []registry.State{
		{Type: mode.Daughters[0], Position: parent.Position, Momentum: labA, FormationTime: parent.Position.X0, ScalingFactor: 1, History: hist},
		{Type: mode.Daughters[1], Position: parent.Position, Momentum: labB, FormationTime: parent.Position.X0, ScalingFactor: 1, History: hist},
	}, nil
}

func (a *Action) threeBody(parent registry.State, mode *particletype.DecayMode, mass float64) ([]registry.State, error) {
	da := a.Catalog.Type(mode.Daughters[0])
	db := a.Catalog.Type(mode.Daughters[1])
	dc := a.Catalog.Type(mode.Daughters[2])

	result, err := kinematics.SampleDalitz(mass, da.PoleMass, db.PoleMass, dc.PoleMass, a.Rng)
	if err != nil {
		return nil, err
	}

	v := parent.Momentum.Velocity()
	pa := fourvector.New(result.Ea, result.Pa).BoostBack(v)
	pb := fourvector.New(result.Eb, result.Pb).BoostBack(v)
	pc := fourvector.New(result.Ec, result.Pc).BoostBack(v)

	hist := a.history(nil, da, db, dc)
	return []registry.State{
		{Type: mode.Daughters[0], Position: parent.Position, Momentum: pa, FormationTime: parent.Position.X0, ScalingFactor: 1, History: hist},
		{Type: mode.Daughters[1], Position: parent.Position, Momentum: pb, FormationTime: parent.Position.X0, ScalingFactor: 1, History: hist},
		{Type: mode.Daughters[2], Position: parent.Position, Momentum: pc, FormationTime: parent.Position.X0, ScalingFactor: 1, History: hist},
	}, nil
}

// sampleDaughterMass resamples an unstable daughter's effective mass against
// the other daughter's mass otherMass via kinematics.SampleMass; stable
// daughters return their fixed pole mass unchanged. twoBody samples the
// first daughter against the second's pole mass, then the second against
// the first's drawn mass.
func (a *Action) sampleDaughterMass(d *particletype.ParticleType, sqrtS, otherMass float64) (float64, error) {
	if d.Stable() {
		return d.PoleMass, nil
	}
	return kinematics.SampleMass(a.Catalog, d, sqrtS, otherMass, a.Rng)
}

func pEnergy(p, m float64) float64 {
	return math.Sqrt(p*p + m*m)
}

func (a *Action) history(parent *particletype.ParticleType, daughters ...*particletype.ParticleType) registry.History {
	t := a.Catalog.Type(a.Incoming.State.Type)
	return registry.History{
		ProcessType: "decay",
		MotherPDGs:  [2]int32{t.Code.Int32(), 0},
	}
}
