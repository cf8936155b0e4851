package grid

import (
	"fmt"
	"math"
	"strings"
)

// Projection converts grid coordinates into world-space (x, z) positions.
// It is chosen independently of Topology: several hex-ordered worlds are laid
// out on a square projection.
type Projection interface {
	ToWorld(c Coord) (x, z float64)
}

// HexProjection lays out axial coordinates as pointy-top hexagons.
type HexProjection struct {
	Size float64
}

// ToWorld returns x = size*(√3·q + √3/2·r), z = size*(3/2·r).
func (p HexProjection) ToWorld(c Coord) (float64, float64) {
	q, r := float64(c.X), float64(c.Y)
	x := p.Size * (math.Sqrt(3)*q + math.Sqrt(3)/2*r)
	z := p.Size * (1.5 * r)
	return x, z
}

// SquareProjection lays out coordinates on an evenly spaced grid.
type SquareProjection struct {
	Spacing float64
}

// ToWorld returns (spacing·x, spacing·y).
func (p SquareProjection) ToWorld(c Coord) (float64, float64) {
	return p.Spacing * float64(c.X), p.Spacing * float64(c.Y)
}

// ProjectionByName resolves a theme projection identifier.
//
// Precondition: scale > 0.
// Postcondition: Returns a non-nil Projection or a non-nil error.
func ProjectionByName(name string, scale float64) (Projection, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("projection scale must be > 0, got %v", scale)
	}
	switch strings.ToLower(name) {
	case "hex":
		return HexProjection{Size: scale}, nil
	case "square":
		return SquareProjection{Spacing: scale}, nil
	default:
		return nil, fmt.Errorf("unknown projection %q", name)
	}
}
