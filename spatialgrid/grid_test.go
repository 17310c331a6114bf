package spatialgrid

import (
	"testing"

	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/registry"
)

func snapshotAt(id int64, x, y, z float64) registry.Snapshot {
	return registry.Snapshot{
		State: registry.State{
			ID:       id,
			Position: fourvector.New(0, fourvector.ThreeVector{X1: x, X2: y, X3: z}),
		},
	}
}

func smallBox() BoundingBox {
	return BoundingBox{
		Min: fourvector.ThreeVector{X1: -10, X2: -10, X3: -10},
		Max: fourvector.ThreeVector{X1: 10, X2: 10, X3: 10},
	}
}

func TestBuildFallsBackToExhaustiveBelowTenParticles(t *testing.T) {
	var snaps []registry.Snapshot
	for i := int64(0); i < 5; i++ {
		snaps = append(snaps, snapshotAt(i, 0, 0, 0))
	}
	g, err := Build(snaps, smallBox(), 1.0, Normal)
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	var seen int
	g.ForEachCell(func(cell []Particle, neighbors []NeighborCell) {
		seen += len(cell)
		if neighbors != nil {
			t.Error("exhaustive fallback should report no neighbor cells")
		}
	})
	if seen != 5 {
		t.Errorf("exhaustive pass visited %d particles, want 5", seen)
	}
}

func TestBuildRejectsOutOfBoundsInNormalMode(t *testing.T) {
	var snaps []registry.Snapshot
	for i := int64(0); i < 20; i++ {
		snaps = append(snaps, snapshotAt(i, 0, 0, 0))
	}
	snaps = append(snaps, snapshotAt(99, 1000, 1000, 1000))

	if _, err := Build(snaps, smallBox(), 1.0, Normal); err == nil {
		t.Error("Build() should reject a particle outside the bounding box in Normal mode")
	}
}

func TestBuildPeriodicFoldsOutOfBoundsParticles(t *testing.T) {
	var snaps []registry.Snapshot
	for i := int64(0); i < 20; i++ {
		snaps = append(snaps, snapshotAt(i, 0, 0, 0))
	}
	snaps = append(snaps, snapshotAt(99, 11, 0, 0)) // just past +10 edge, wraps to -9

	g, err := Build(snaps, smallBox(), 1.0, Periodic)
	if err != nil {
		t.Fatalf("Build() in Periodic mode should fold out-of-bounds particles: %v", err)
	}
	total := 0
	g.ForEachCell(func(cell []Particle, neighbors []NeighborCell) {
		total += len(cell)
	})
	if total != 21 {
		t.Errorf("ForEachCell() visited %d particles total, want 21", total)
	}
}

func TestForEachCellVisitsEveryParticleExactlyOnce(t *testing.T) {
	var snaps []registry.Snapshot
	// 125 particles spread on a 5x5x5 lattice inside the box, enough density
	// for the real cell-grid path (not the exhaustive fallback).
	n := int64(0)
	for x := -8.0; x <= 8; x += 4 {
		for y := -8.0; y <= 8; y += 4 {
			for z := -8.0; z <= 8; z += 4 {
				snaps = append(snaps, snapshotAt(n, x, y, z))
				n++
			}
		}
	}
	g, err := Build(snaps, smallBox(), 2.0, Normal)
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	seen := 0
	g.ForEachCell(func(cell []Particle, neighbors []NeighborCell) {
		seen += len(cell)
	})
	if seen != len(snaps) {
		t.Errorf("ForEachCell() visited %d particles across all cells, want %d", seen, len(snaps))
	}
}
