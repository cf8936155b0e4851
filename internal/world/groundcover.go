package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseSpec configures the OpenSimplex field that clusters ground cover.
type NoiseSpec struct {
	Seed      int64
	Frequency float64
}

// noiseField samples normalized OpenSimplex noise at world positions.
type noiseField struct {
	noise     opensimplex.Noise
	frequency float64
}

func newNoiseField(spec NoiseSpec) *noiseField {
	freq := spec.Frequency
	if freq <= 0 {
		freq = 0.25
	}
	return &noiseField{noise: opensimplex.NewNormalized(spec.Seed), frequency: freq}
}

// at returns a value in [0, 1) for the world position (x, z).
func (n *noiseField) at(x, z float64) float64 {
	return n.noise.Eval2(x*n.frequency, z*n.frequency)
}

// coverChance returns the effective swap probability at (x, z). Without a
// field it is the flat Chance; with one it is scaled by 2*noise so the mean
// is preserved while high-noise regions cluster.
func coverChance(g *GroundCover, field *noiseField, x, z float64) float64 {
	if field == nil {
		return g.Chance
	}
	p := g.Chance * 2 * field.at(x, z)
	if p > 1 {
		p = 1
	}
	return p
}
