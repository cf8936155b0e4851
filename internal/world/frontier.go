package world

import (
	"sort"

	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/grid"
)

// Frontier proposes the next coordinate eligible for placement.
type Frontier interface {
	// Next returns the chosen coordinate, or false when no eligible
	// coordinate remains inside the world radius.
	//
	// Postcondition: On an empty store the origin is returned.
	Next(s *Store, r *dice.Roller) (grid.Coord, bool)
}

// SpiralFrontier fills rings outward from the origin, each ring completely and
// in its fixed walk order before the next.
type SpiralFrontier struct {
	order []grid.Coord
}

// NewSpiralFrontier precomputes the spiral order for topology t and radius.
//
// Precondition: radius >= 0.
func NewSpiralFrontier(t grid.Topology, radius int) *SpiralFrontier {
	return &SpiralFrontier{order: grid.Spiral(t, radius)}
}

// Next implements Frontier. Selection is deterministic; r is unused.
func (f *SpiralFrontier) Next(s *Store, _ *dice.Roller) (grid.Coord, bool) {
	if s.Len() == 0 {
		return grid.Origin, true
	}
	for _, c := range f.order {
		if !s.Occupied(c) {
			return c, true
		}
	}
	return grid.Coord{}, false
}

// AdjacencyFrontier grows from the edge of the occupied region, choosing
// uniformly among the Closest candidates nearest the origin.
type AdjacencyFrontier struct {
	Topology grid.Topology
	Radius   int
	Closest  int
	// Seed restricts which occupied cells contribute neighbours. Nil means all.
	Seed func(Cell) bool
}

// Candidates returns the unoccupied in-bounds neighbours of seed cells,
// deduplicated in discovery order and stable-sorted by distance.
func (f *AdjacencyFrontier) Candidates(s *Store) []grid.Coord {
	seen := make(map[grid.Coord]bool)
	var out []grid.Coord
	for _, cell := range s.All() {
		if f.Seed != nil && !f.Seed(cell) {
			continue
		}
		for _, n := range f.Topology.Neighbors(cell.Coord) {
			if seen[n] || s.Occupied(n) || !f.Topology.InBounds(n, f.Radius) {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return f.Topology.Distance(out[i]) < f.Topology.Distance(out[j])
	})
	return out
}

// Next implements Frontier.
func (f *AdjacencyFrontier) Next(s *Store, r *dice.Roller) (grid.Coord, bool) {
	if s.Len() == 0 {
		return grid.Origin, true
	}
	return pickClosest(f.Candidates(s), f.Closest, r, "frontier")
}

// pickClosest chooses uniformly among the first k of sorted candidates.
func pickClosest(cands []grid.Coord, k int, r *dice.Roller, label string) (grid.Coord, bool) {
	if len(cands) == 0 {
		return grid.Coord{}, false
	}
	if k <= 0 || k > len(cands) {
		k = len(cands)
	}
	return cands[r.Intn(label, k)], true
}
