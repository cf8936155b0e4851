// Package grid maps abstract world coordinates onto placement order and
// world-space positions for hex and square topologies.
package grid

import (
	"fmt"
	"strings"
)

// Coord is a two-integer grid coordinate. For hex topologies it is the axial
// pair (q, r); for square topologies it is the offset pair (x, y).
type Coord struct {
	X int
	Y int
}

// Origin is the world centre.
var Origin = Coord{}

// Add returns the component-wise sum of c and o.
func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// Pair returns the coordinate as the two-element array used on the wire.
func (c Coord) Pair() [2]int {
	return [2]int{c.X, c.Y}
}

// String returns "x,y".
func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// FromPair builds a Coord from its wire form.
func FromPair(p [2]int) Coord {
	return Coord{X: p[0], Y: p[1]}
}

// Topology defines adjacency, distance and ring enumeration for a grid shape.
//
// Neighbour index order is fixed per topology: it defines rotation-by-index
// for connective tile variants and must never change once worlds are saved.
type Topology interface {
	// Name returns the topology identifier used in theme files.
	Name() string
	// Degree returns the number of neighbours every cell has.
	Degree() int
	// Direction returns the offset for neighbour index i.
	//
	// Precondition: 0 <= i < Degree().
	Direction(i int) Coord
	// Neighbors returns the Degree() neighbours of c in index order.
	Neighbors(c Coord) []Coord
	// Opposite returns the neighbour index facing away from index i.
	Opposite(i int) int
	// Distance returns the ring number of c measured from the origin.
	Distance(c Coord) int
	// InBounds reports whether c lies inside a world of the given radius.
	InBounds(c Coord, radius int) bool
	// Ring returns the coordinates at distance k in clockwise walk order.
	// Ring(0) is the origin alone.
	Ring(k int) []Coord
	// MaxRing returns the outermost ring that can hold in-bounds cells for radius.
	MaxRing(radius int) int
}

// TopologyByName resolves a theme topology identifier.
//
// Postcondition: Returns a non-nil Topology or a non-nil error.
func TopologyByName(name string) (Topology, error) {
	switch strings.ToLower(name) {
	case "hex":
		return Hex{}, nil
	case "square":
		return Square{}, nil
	default:
		return nil, fmt.Errorf("unknown topology %q", name)
	}
}

// Spiral returns every in-bounds coordinate of a world with the given radius,
// ring by ring outward from the origin, each ring in its walk order.
//
// Postcondition: The first element is always Origin.
func Spiral(t Topology, radius int) []Coord {
	var out []Coord
	for k := 0; k <= t.MaxRing(radius); k++ {
		for _, c := range t.Ring(k) {
			if t.InBounds(c, radius) {
				out = append(out, c)
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
