package grid

// hexDirections holds the axial neighbour offsets in index order:
// E, NE, NW, W, SW, SE.
var hexDirections = [6]Coord{
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
}

// hexWalk is the side order used to trace a ring clockwise from its
// northern start cell: E, SE, SW, W, NW, NE.
var hexWalk = [6]Coord{
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: 0},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
}

// Hex is the axial hexagonal topology.
type Hex struct{}

// Name implements Topology.
func (Hex) Name() string { return "hex" }

// Degree implements Topology.
func (Hex) Degree() int { return 6 }

// Direction implements Topology.
func (Hex) Direction(i int) Coord { return hexDirections[i] }

// Neighbors implements Topology.
func (Hex) Neighbors(c Coord) []Coord {
	out := make([]Coord, 6)
	for i, d := range hexDirections {
		out[i] = c.Add(d)
	}
	return out
}

// Opposite implements Topology.
func (Hex) Opposite(i int) int { return (i + 3) % 6 }

// Distance returns max(|q|, |r|, |-q-r|).
func (Hex) Distance(c Coord) int {
	d := abs(c.X)
	if v := abs(c.Y); v > d {
		d = v
	}
	if v := abs(-c.X - c.Y); v > d {
		d = v
	}
	return d
}

// InBounds implements Topology.
func (h Hex) InBounds(c Coord, radius int) bool {
	return h.Distance(c) <= radius
}

// Ring starts at (0, -k) and walks each of the six sides k steps.
//
// Postcondition: len(result) == 6k for k > 0.
func (Hex) Ring(k int) []Coord {
	if k <= 0 {
		return []Coord{Origin}
	}
	out := make([]Coord, 0, 6*k)
	c := Coord{X: 0, Y: -k}
	for _, d := range hexWalk {
		for step := 0; step < k; step++ {
			out = append(out, c)
			c = c.Add(d)
		}
	}
	return out
}

// MaxRing implements Topology.
func (Hex) MaxRing(radius int) int { return radius }
