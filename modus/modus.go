// Package modus implements the modus adapters of spec.md §4.7: Box,
// Collider, Sphere and List, each providing initial conditions, a bounding
// box/grid mode pair for the spatial grid, and boundary-condition handling
// (periodic wrap for Box, none for the others).
package modus

import (
	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/spatialgrid"
)

// Modus is the common interface every adapter implements (spec.md §4.7).
type Modus interface {
	// InitialConditions populates r with the modus's starting particle list.
	InitialConditions(r *registry.Registry) error
	// BoundingBox is the computational volume used to build the cell grid.
	BoundingBox() spatialgrid.BoundingBox
	// GridMode selects Normal or Periodic cell-grid wrap.
	GridMode() spatialgrid.Mode
	// ImposeBoundaryConditions runs once per tick after propagation, e.g. to
	// wrap positions back into the box and emit wall pseudo-actions
	// (spec.md §4.7).
	ImposeBoundaryConditions(r *registry.Registry, tNow float64) []*action.Action
}

// noBoundaryConditions is embedded by adapters with no wall behavior.
type noBoundaryConditions struct{}

func (noBoundaryConditions) ImposeBoundaryConditions(r *registry.Registry, tNow float64) []*action.Action {
	return nil
}
