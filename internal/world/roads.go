package world

import (
	"github.com/cory-johannsen/lilwins/internal/grid"
)

// Variant is the shape a connective tile takes given its connective neighbours.
type Variant string

// Connective tile variants, from sparsest to densest.
const (
	VariantIsolated Variant = "isolated"
	VariantDeadEnd  Variant = "dead_end"
	VariantStraight Variant = "straight"
	VariantCorner   Variant = "corner"
	VariantTee      Variant = "tee"
	VariantCross    Variant = "cross"
	VariantStar     Variant = "star"
	VariantFull     Variant = "full"
)

// RequiredVariants lists the variants a topology of the given degree can produce.
func RequiredVariants(degree int) []Variant {
	vs := []Variant{VariantIsolated, VariantDeadEnd, VariantStraight, VariantCorner, VariantTee, VariantCross}
	if degree > 4 {
		vs = append(vs, VariantStar, VariantFull)
	}
	return vs
}

// Resolve maps the sorted indices of a cell's connective neighbours to a
// variant and the neighbour index it is oriented toward.
//
//	0       isolated, orientation chosen by the caller
//	1       dead end facing the neighbour
//	2 opp.  straight along the axis (index mod degree/2)
//	2       corner at the lower index
//	3       tee at the lowest index
//	4       cross at the lowest index
//	degree  full at index 0
//	other   star at the lowest index
//
// Precondition: mask is sorted ascending with values in [0, degree).
func Resolve(mask []int, degree int) (Variant, int) {
	switch n := len(mask); {
	case n == 0:
		return VariantIsolated, 0
	case n == 1:
		return VariantDeadEnd, mask[0]
	case n == 2:
		a, b := mask[0], mask[1]
		if b-a == degree/2 {
			return VariantStraight, a % (degree / 2)
		}
		return VariantCorner, a
	case n == 3:
		return VariantTee, mask[0]
	case n == 4:
		return VariantCross, mask[0]
	case n == degree:
		return VariantFull, 0
	default:
		return VariantStar, mask[0]
	}
}

// Patch is an in-place rewrite of an already placed connective cell.
type Patch struct {
	Coord       grid.Coord
	Tile        string
	Orientation float64
}

// RoadResolver derives connective tile shapes from neighbour state.
type RoadResolver struct {
	topology grid.Topology
	catalog  *Catalog
	variants map[Variant]string
}

// NewRoadResolver builds a resolver using variants to name the tile for each shape.
//
// Precondition: variants covers RequiredVariants(t.Degree()).
func NewRoadResolver(t grid.Topology, catalog *Catalog, variants map[Variant]string) *RoadResolver {
	return &RoadResolver{topology: t, catalog: catalog, variants: variants}
}

// Mask returns the indices of c's neighbours that hold connective tiles.
func (r *RoadResolver) Mask(s *Store, c grid.Coord) []int {
	var mask []int
	for i, n := range r.topology.Neighbors(c) {
		if cell, ok := s.Get(n); ok && r.catalog.IsConnective(cell.Tile) {
			mask = append(mask, i)
		}
	}
	return mask
}

// Shape computes the tile and orientation a connective cell at c should show
// given the current store. When isolated is true the orientation is free and
// the caller keeps its own.
func (r *RoadResolver) Shape(s *Store, c grid.Coord) (tile string, orientation float64, isolated bool) {
	v, idx := Resolve(r.Mask(s, c), r.topology.Degree())
	return r.variants[v], r.degrees(idx), v == VariantIsolated
}

// Propagate recomputes every connective neighbour of c and returns patches for
// those whose tile or orientation changed. The store is not modified.
func (r *RoadResolver) Propagate(s *Store, c grid.Coord) []Patch {
	var patches []Patch
	for _, n := range r.topology.Neighbors(c) {
		cell, ok := s.Get(n)
		if !ok || !r.catalog.IsConnective(cell.Tile) {
			continue
		}
		tile, orientation, isolated := r.Shape(s, n)
		if isolated {
			orientation = cell.Orientation
		}
		if tile != cell.Tile || orientation != cell.Orientation {
			patches = append(patches, Patch{Coord: n, Tile: tile, Orientation: orientation})
		}
	}
	return patches
}

// degrees converts a neighbour index into a rotation in degrees.
func (r *RoadResolver) degrees(idx int) float64 {
	return float64(idx) * 360 / float64(r.topology.Degree())
}
