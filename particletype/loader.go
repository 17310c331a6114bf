package particletype

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pthm-cable/soup/pdg"
)

// Builder accumulates raw type and decay-mode declarations before Build()
// resolves names to indices, materializes antiparticles and computes each
// type's minimum mass. This mirrors the two-pass structure of
// original_source/src/particletype.cc + decaytype.cc: the particle table is
// read in full before the decay-modes file, which references it by name.
type Builder struct {
	order []rawType
	byName map[string]int
}

type rawType struct {
	name      string
	poleMass  float64
	poleWidth float64
	code      pdg.Code
	modes     []rawMode
}

type rawMode struct {
	branchingRatio float64
	angularMom     int
	daughters      []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]int)}
}

// AddType declares a particle type (one line of the particle table,
// spec.md §6: "name pole_mass pole_width pdg_code").
func (b *Builder) AddType(name string, poleMass, poleWidth float64, code pdg.Code) error {
	if _, exists := b.byName[name]; exists {
		return fmt.Errorf("particletype: duplicate type name %q", name)
	}
	b.byName[name] = len(b.order)
	b.order = append(b.order, rawType{name: name, poleMass: poleMass, poleWidth: poleWidth, code: code})
	return nil
}

// AddDecayMode declares one decay branch for an already-added parent
// (spec.md §6: "branching_ratio angular_momentum daughter_name...").
func (b *Builder) AddDecayMode(parent string, branchingRatio float64, angularMomentum int, daughters ...string) error {
	i, ok := b.byName[parent]
	if !ok {
		return fmt.Errorf("particletype: decay mode for unknown parent %q", parent)
	}
	b.order[i].modes = append(b.order[i].modes, rawMode{
		branchingRatio: branchingRatio,
		angularMom:     angularMomentum,
		daughters:      append([]string(nil), daughters...),
	})
	return nil
}

// Build resolves the declared types and decay modes into a Catalog,
// auto-materializing antiparticles (spec.md §6: "Antiparticles are
// materialised automatically when the PDG code admits one") and computing
// each type's minimum mass by fixed-point iteration over the decay graph.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]Index),
		byCode: make(map[pdg.Code]Index),
	}

	// First materialize every declared type (particle + antiparticle).
	nameToIdx := make(map[string]Index, len(b.order)*2)
	for _, rt := range b.order {
		idx := Index(len(c.types))
		c.types = append(c.types, ParticleType{
			Name:      rt.name,
			PoleMass:  rt.poleMass,
			PoleWidth: rt.poleWidth,
			Code:      rt.code,
			MinMass:   rt.poleMass,
		})
		nameToIdx[rt.name] = idx
		c.byName[rt.name] = idx
		c.byCode[rt.code] = idx

		if rt.code.HasAntiparticle() {
			antiName := "anti-" + rt.name
			antiIdx := Index(len(c.types))
			c.types = append(c.types, ParticleType{
				Name:      antiName,
				PoleMass:  rt.poleMass,
				PoleWidth: rt.poleWidth,
				Code:      rt.code.Antiparticle(),
				MinMass:   rt.poleMass,
			})
			c.byName[antiName] = antiIdx
			c.byCode[rt.code.Antiparticle()] = antiIdx
		}
	}

	// Resolve decay modes, mirroring them onto the antiparticle's table with
	// charge-conjugated daughters.
	for _, rt := range b.order {
		idx := nameToIdx[rt.name]
		antiIdx, hasAnti := c.byCode[rt.code.Antiparticle()]
		for _, rm := range rt.modes {
			daughters := make([]Index, len(rm.daughters))
			antiDaughters := make([]Index, len(rm.daughters))
			for j, dn := range rm.daughters {
				di, ok := nameToIdx[dn]
				if !ok {
					return nil, fmt.Errorf("particletype: decay mode of %q references unknown daughter %q", rt.name, dn)
				}
				daughters[j] = di
				if adi, ok := c.byCode[c.types[di].Code.Antiparticle()]; ok {
					antiDaughters[j] = adi
				} else {
					antiDaughters[j] = di // self-conjugate daughter
				}
			}
			c.types[idx].DecayModes = append(c.types[idx].DecayModes, DecayMode{
				AngularMomentum: rm.angularMom,
				BranchingRatio:  rm.branchingRatio,
				Daughters:       daughters,
			})
			if hasAnti && antiIdx != idx {
				c.types[antiIdx].DecayModes = append(c.types[antiIdx].DecayModes, DecayMode{
					AngularMomentum: rm.angularMom,
					BranchingRatio:  rm.branchingRatio,
					Daughters:       antiDaughters,
				})
			}
		}
	}

	if err := resolveMinMasses(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveMinMasses computes MinMass for every type by relaxing
// MinMass(parent) = min over decay modes of sum(MinMass(daughters)) until
// a fixed point, bounded by the size of the catalog (decay chains cannot be
// longer than that without cycling, and a physical decay graph has no
// cycles since every mode's threshold must be <= pole mass).
func resolveMinMasses(c *Catalog) error {
	for iter := 0; iter < len(c.types)+1; iter++ {
		changed := false
		for i := range c.types {
			t := &c.types[i]
			if t.Stable() {
				continue
			}
			best := t.MinMass
			for _, m := range t.DecayModes {
				sum := 0.0
				for _, d := range m.Daughters {
					sum += c.types[d].MinMass
				}
				if sum < best {
					best = sum
				}
			}
			if best < t.MinMass {
				t.MinMass = best
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("particletype: decay graph did not converge on minimum masses (cycle?)")
}

// LoadParticleTable parses the ASCII particle table described in spec.md §6:
// one particle per line, whitespace-separated,
// "name pole_mass pole_width pdg_code", '#' starts a comment.
func (b *Builder) LoadParticleTable(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return fmt.Errorf("particletype: malformed particle line %q", line)
		}
		mass, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("particletype: bad pole mass in %q: %w", line, err)
		}
		width, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("particletype: bad pole width in %q: %w", line, err)
		}
		code, err := pdg.ParseString(fields[3])
		if err != nil {
			return fmt.Errorf("particletype: %w", err)
		}
		if err := b.AddType(fields[0], mass, width, code); err != nil {
			return err
		}
	}
	return sc.Err()
}

// LoadDecayModes parses the decay-modes file described in spec.md §6: per
// parent, one block headed by the bare parent name, followed by lines
// "branching_ratio angular_momentum daughter_name...".
func (b *Builder) LoadDecayModes(r io.Reader) error {
	sc := bufio.NewScanner(r)
	var parent string
	for sc.Scan() {
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 1 {
			parent = fields[0]
			continue
		}
		if parent == "" {
			return fmt.Errorf("particletype: decay mode line before any parent header: %q", line)
		}
		br, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("particletype: bad branching ratio in %q: %w", line, err)
		}
		l, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("particletype: bad angular momentum in %q: %w", line, err)
		}
		if err := b.AddDecayMode(parent, br, l, fields[2:]...); err != nil {
			return err
		}
	}
	return sc.Err()
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}
