package grid

// squareDirections holds the neighbour offsets in index order: E, N, W, S.
var squareDirections = [4]Coord{
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
}

// squareWalk traces a Manhattan diamond clockwise from its northern tip.
var squareWalk = [4]Coord{
	{X: 1, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: -1},
	{X: 1, Y: -1},
}

// Square is the four-neighbour offset topology. Distance is Manhattan while
// the world boundary is the Chebyshev square max(|x|, |y|) <= radius.
type Square struct{}

// Name implements Topology.
func (Square) Name() string { return "square" }

// Degree implements Topology.
func (Square) Degree() int { return 4 }

// Direction implements Topology.
func (Square) Direction(i int) Coord { return squareDirections[i] }

// Neighbors implements Topology.
func (Square) Neighbors(c Coord) []Coord {
	out := make([]Coord, 4)
	for i, d := range squareDirections {
		out[i] = c.Add(d)
	}
	return out
}

// Opposite implements Topology.
func (Square) Opposite(i int) int { return (i + 2) % 4 }

// Distance returns |x| + |y|.
func (Square) Distance(c Coord) int {
	return abs(c.X) + abs(c.Y)
}

// InBounds implements Topology.
func (Square) InBounds(c Coord, radius int) bool {
	return abs(c.X) <= radius && abs(c.Y) <= radius
}

// Ring returns the Manhattan diamond at distance k starting at (0, -k).
//
// Postcondition: len(result) == 4k for k > 0.
func (Square) Ring(k int) []Coord {
	if k <= 0 {
		return []Coord{Origin}
	}
	out := make([]Coord, 0, 4*k)
	c := Coord{X: 0, Y: -k}
	for _, d := range squareWalk {
		for step := 0; step < k; step++ {
			out = append(out, c)
			c = c.Add(d)
		}
	}
	return out
}

// MaxRing is 2*radius: the square's corners lie on that diamond.
func (Square) MaxRing(radius int) int { return 2 * radius }
