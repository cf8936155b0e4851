package world

import (
	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/grid"
)

// ZoneClassifier maps a coordinate to the symbolic zone whose content table
// governs random placement there.
type ZoneClassifier interface {
	Zone(c grid.Coord, distance int) string
}

// Band assigns Zone to every coordinate with distance <= MaxDistance not
// claimed by an earlier band.
type Band struct {
	Zone        string
	MaxDistance int
}

// BandClassifier bands coordinates by distance from the origin.
type BandClassifier struct {
	Bands []Band
	// Outer is the zone beyond the last band.
	Outer string
}

// Zone implements ZoneClassifier.
func (b BandClassifier) Zone(_ grid.Coord, distance int) string {
	for _, band := range b.Bands {
		if distance <= band.MaxDistance {
			return band.Zone
		}
	}
	return b.Outer
}

// HookClassifier consults Hook first and falls back to Fallback when the hook
// declines. It adapts scripted classifiers to the engine.
type HookClassifier struct {
	Hook     func(c grid.Coord, distance int) (string, bool)
	Fallback ZoneClassifier
}

// Zone implements ZoneClassifier.
func (h HookClassifier) Zone(c grid.Coord, distance int) string {
	if h.Hook != nil {
		if z, ok := h.Hook(c, distance); ok && z != "" {
			return z
		}
	}
	return h.Fallback.Zone(c, distance)
}

// Entry is one weighted option in a content table. An empty ID means the
// draw places the zone tile with no structure.
type Entry struct {
	ID     string
	Weight float64
}

// Table is an ordered weighted content table. Order matters for the draw.
type Table []Entry

// Weights returns the entry weights in table order.
func (t Table) Weights() []float64 {
	w := make([]float64, len(t))
	for i, e := range t {
		w[i] = e.Weight
	}
	return w
}

// Draw returns the identifier chosen by a weighted draw, or "" for an empty table.
func (t Table) Draw(r *dice.Roller, label string) string {
	if len(t) == 0 {
		return ""
	}
	return t[r.Weighted(label, t.Weights())].ID
}

// GroundCover occasionally swaps the zone tile for a drawn variant.
type GroundCover struct {
	// Chance is the probability in [0, 1] of replacing the zone tile.
	Chance float64
	// BareOnly restricts the swap to cells that received no structure.
	BareOnly bool
	Tiles    Table
	// Noise, when set, modulates Chance by position so variants cluster.
	Noise *NoiseSpec
}

// ZoneContent is the placement rule set for one zone.
type ZoneContent struct {
	Tile  string
	Table Table
	Cover *GroundCover
}
