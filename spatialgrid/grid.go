// Package spatialgrid implements the cell grid of spec.md §4.2: a spatial
// partition over a particle snapshot used to prune the O(N^2) collision
// search, with half-shell neighbor enumeration and optional periodic wrap.
//
// This generalizes the teacher's 2-D toroidal bucket grid
// (systems/spatial.go) from a flat XY plane to 3-D with the half-shell
// traversal and ghost-cell displacement spec.md §4.2 requires.
package spatialgrid

import (
	"fmt"

	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/registry"
)

// Mode selects ghost-cell behavior (spec.md §4.2).
type Mode int

const (
	Normal Mode = iota
	Periodic
)

// BoundingBox is an axis-aligned box in the computational frame.
type BoundingBox struct {
	Min, Max fourvector.ThreeVector
}

func (b BoundingBox) length() fourvector.ThreeVector {
	return b.Max.Sub(b.Min)
}

// Particle is a value copy of one registry entry, pinned for the duration
// of one discovery pass (spec.md §3: "Grid cell ... ParticleData copies").
type Particle struct {
	registry.Snapshot
	// Displacement is added to Position when this copy appears in a
	// neighbor list that wrapped across a periodic boundary, so finders see
	// coordinates already shifted into the search cell's frame (spec.md
	// §4.2).
	Displacement fourvector.ThreeVector
}

// Position returns the (possibly wrap-shifted) position used for geometric
// calculations.
func (p Particle) Position() fourvector.FourVector {
	pos := p.State.Position
	d := p.Displacement
	return fourvector.FourVector{X0: pos.X0, X1: pos.X1 + d.X1, X2: pos.X2 + d.X2, X3: pos.X3 + d.X3}
}

// NeighborCell is one of the 13 half-shell neighbors of a search cell.
type NeighborCell struct {
	Particles []Particle
}

// cellIndex is a 3-D lexicographic cell coordinate.
type cellIndex struct{ X, Y, Z int }

// halfShellOffsets are the 13 "above-and-right" neighbor offsets in 3-D
// lexicographic order (spec.md §4.2: "1 at +x, 3 at +y, 9 at +z"), chosen so
// each unordered pair of cells is visited exactly once across the whole
// grid.
var halfShellOffsets = buildHalfShellOffsets()

func buildHalfShellOffsets() []cellIndex {
	var offs []cellIndex
	// +x only
	offs = append(offs, cellIndex{1, 0, 0})
	// +y row: dx in {-1,0,1}
	for dx := -1; dx <= 1; dx++ {
		offs = append(offs, cellIndex{dx, 1, 0})
	}
	// +z layer: 3x3 in (dx,dy)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			offs = append(offs, cellIndex{dx, dy, 1})
		}
	}
	return offs
}

// Grid partitions a particle snapshot into cells (spec.md §4.2).
type Grid struct {
	bbox      BoundingBox
	mode      Mode
	n         [3]int // cell counts per axis
	cellSize  fourvector.ThreeVector
	cells     map[cellIndex][]Particle
	exhaustive []Particle // non-nil iff the dilute/small-grid fallback applies
}

// ErrOutOfBounds is returned by Build (Normal mode) when a particle lies
// outside bbox (spec.md §4.2 edge case).
type ErrOutOfBounds struct{ ID int64 }

func (e ErrOutOfBounds) Error() string {
	return fmt.Sprintf("spatialgrid: particle %d lies outside the bounding box", e.ID)
}

// Build constructs a Grid over snapshot, computing Ni = floor(Li/lMin)+1
// clamped so N1*N2*N3 <= particle_count, with a dilute/too-small fallback to
// exhaustive O(N^2) enumeration (spec.md §4.2: "A particle count below 10,
// or a grid that would have fewer than 4 cells per axis, falls back to
// exhaustive O(N^2) enumeration").
func Build(snapshot []registry.Snapshot, bbox BoundingBox, lMin float64, mode Mode) (*Grid, error) {
	g := &Grid{bbox: bbox, mode: mode}

	if len(snapshot) < 10 || lMin <= 0 {
		return g.buildExhaustive(snapshot)
	}

	length := bbox.length()
	lens := [3]float64{length.X1, length.X2, length.X3}
	for axis := 0; axis < 3; axis++ {
		n := int(lens[axis]/lMin) + 1
		if mode == Periodic && n < 2 {
			n = 2
		}
		g.n[axis] = n
	}
	for g.n[0]*g.n[1]*g.n[2] > len(snapshot) && g.n[0]*g.n[1]*g.n[2] > 1 {
		// Clamp product to particle_count by shrinking the largest axis.
		maxAxis := 0
		for a := 1; a < 3; a++ {
			if g.n[a] > g.n[maxAxis] {
				maxAxis = a
			}
		}
		if g.n[maxAxis] <= 1 {
			break
		}
		g.n[maxAxis]--
	}
	if g.n[0] < 4 || g.n[1] < 4 || g.n[2] < 4 {
		return g.buildExhaustive(snapshot)
	}

	g.cellSize = fourvector.ThreeVector{
		X1: lens[0] / float64(g.n[0]),
		X2: lens[1] / float64(g.n[1]),
		X3: lens[2] / float64(g.n[2]),
	}
	g.cells = make(map[cellIndex][]Particle)

	for _, s := range snapshot {
		idx, err := g.cellOf(s.State.Position.ThreeVec())
		if err != nil {
			if mode == Normal {
				return nil, ErrOutOfBounds{ID: s.State.ID}
			}
			idx = g.foldIntoDomain(&s)
		}
		g.cells[idx] = append(g.cells[idx], Particle{Snapshot: s})
	}
	return g, nil
}

// buildExhaustive fills the single fallback cell under the same bounds rule
// as the cell path: Normal mode rejects a particle outside bbox, Periodic
// mode folds it back into the box.
func (g *Grid) buildExhaustive(snapshot []registry.Snapshot) (*Grid, error) {
	g.exhaustive = make([]Particle, len(snapshot))
	length := g.bbox.length()
	for i, s := range snapshot {
		pos := s.State.Position
		rel := pos.ThreeVec().Sub(g.bbox.Min)
		if rel.X1 < 0 || rel.X2 < 0 || rel.X3 < 0 || rel.X1 >= length.X1 || rel.X2 >= length.X2 || rel.X3 >= length.X3 {
			if g.mode == Normal {
				return nil, ErrOutOfBounds{ID: s.State.ID}
			}
			rel = fourvector.ThreeVector{X1: wrapCoord(rel.X1, length.X1), X2: wrapCoord(rel.X2, length.X2), X3: wrapCoord(rel.X3, length.X3)}
			s.State.Position = fourvector.New(pos.X0, g.bbox.Min.Add(rel))
		}
		g.exhaustive[i] = Particle{Snapshot: s}
	}
	return g, nil
}

func (g *Grid) cellOf(pos fourvector.ThreeVector) (cellIndex, error) {
	rel := pos.Sub(g.bbox.Min)
	cx := int(rel.X1 / g.cellSize.X1)
	cy := int(rel.X2 / g.cellSize.X2)
	cz := int(rel.X3 / g.cellSize.X3)
	if cx < 0 || cy < 0 || cz < 0 || cx >= g.n[0] || cy >= g.n[1] || cz >= g.n[2] {
		return cellIndex{}, ErrOutOfBounds{}
	}
	return cellIndex{cx, cy, cz}, nil
}

// foldIntoDomain wraps an out-of-bounds particle back into the fundamental
// domain (Periodic mode only) and returns its cell index, mutating the
// snapshot's position copy in place.
func (g *Grid) foldIntoDomain(s *registry.Snapshot) cellIndex {
	length := g.bbox.length()
	pos := s.State.Position
	rel := pos.ThreeVec().Sub(g.bbox.Min)
	rel.X1 = wrapCoord(rel.X1, length.X1)
	rel.X2 = wrapCoord(rel.X2, length.X2)
	rel.X3 = wrapCoord(rel.X3, length.X3)
	wrapped := g.bbox.Min.Add(rel)
	s.State.Position = fourvector.New(pos.X0, wrapped)
	cx := int(rel.X1 / g.cellSize.X1)
	cy := int(rel.X2 / g.cellSize.X2)
	cz := int(rel.X3 / g.cellSize.X3)
	return cellIndex{clamp(cx, g.n[0]), clamp(cy, g.n[1]), clamp(cz, g.n[2])}
}

func wrapCoord(x, length float64) float64 {
	if length <= 0 {
		return x
	}
	for x < 0 {
		x += length
	}
	for x >= length {
		x -= length
	}
	return x
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// ForEachCell invokes f once per occupied cell with its contents and those of
// its 13 half-shell neighbor cells that exist and are non-empty (spec.md
// §4.2). In exhaustive-fallback mode, f
// is invoked exactly once with all particles in the cell and no neighbors
// (finders are expected to do full pairwise enumeration within that single
// cell in that case).
func (g *Grid) ForEachCell(f func(cell []Particle, neighbors []NeighborCell)) {
	if g.exhaustive != nil {
		f(g.exhaustive, nil)
		return
	}
	for idx, cell := range g.cells {
		neighbors := make([]NeighborCell, 0, len(halfShellOffsets))
		for _, off := range halfShellOffsets {
			nIdx, disp, ok := g.neighborIndex(idx, off)
			if !ok {
				continue
			}
			particles := g.cells[nIdx]
			if g.mode == Periodic && (disp.X1 != 0 || disp.X2 != 0 || disp.X3 != 0) {
				shifted := make([]Particle, len(particles))
				for i, p := range particles {
					p.Displacement = disp
					shifted[i] = p
				}
				particles = shifted
			}
			if len(particles) > 0 {
				neighbors = append(neighbors, NeighborCell{Particles: particles})
			}
		}
		f(cell, neighbors)
	}
}

// neighborIndex resolves a half-shell offset from idx, wrapping around in
// Periodic mode and returning the displacement vector that must be added to
// the neighbor's positions to bring them into the search cell's frame
// (spec.md §4.2).
func (g *Grid) neighborIndex(idx cellIndex, off cellIndex) (cellIndex, fourvector.ThreeVector, bool) {
	raw := [3]int{idx.X + off.X, idx.Y + off.Y, idx.Z + off.Z}
	var disp fourvector.ThreeVector
	for axis, v := range raw {
		n := g.n[axis]
		if v >= 0 && v < n {
			continue
		}
		if g.mode != Periodic {
			return cellIndex{}, disp, false
		}
		length := [3]float64{}
		l := g.bbox.length()
		length[0], length[1], length[2] = l.X1, l.X2, l.X3
		if v < 0 {
			raw[axis] = v + n
			setAxis(&disp, axis, -length[axis])
		} else {
			raw[axis] = v - n
			setAxis(&disp, axis, length[axis])
		}
	}
	return cellIndex{raw[0], raw[1], raw[2]}, disp, true
}

func setAxis(v *fourvector.ThreeVector, axis int, val float64) {
	switch axis {
	case 0:
		v.X1 = val
	case 1:
		v.X2 = val
	case 2:
		v.X3 = val
	}
}
