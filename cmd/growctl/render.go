package main

import (
	"strings"
	"unicode"

	"github.com/cory-johannsen/lilwins/internal/grid"
	"github.com/cory-johannsen/lilwins/internal/world"
)

// Map glyphs.
const (
	glyphEmpty = '.'
	glyphBare  = ','
	glyphRoad  = '#'
)

// glyph picks the character for one cell: the upper-cased first letter of a
// structure, a road mark for connective tiles, otherwise the bare mark.
func glyph(c world.Cell, connective map[string]bool) rune {
	if c.Structure != "" {
		for _, r := range c.Structure {
			return unicode.ToUpper(r)
		}
	}
	if connective[c.Tile] {
		return glyphRoad
	}
	return glyphBare
}

// renderMap draws the world as text. Square worlds are a plain grid with +y
// at the top; hex worlds use axial rows shifted by half a cell per row.
func renderMap(theme *world.Theme, cells []world.Cell) string {
	connective := make(map[string]bool)
	for _, t := range theme.Tiles {
		if t.Connective {
			connective[t.ID] = true
		}
	}
	byCoord := make(map[grid.Coord]rune, len(cells))
	for _, c := range cells {
		byCoord[c.Coord] = glyph(c, connective)
	}
	at := func(c grid.Coord) rune {
		if g, ok := byCoord[c]; ok {
			return g
		}
		return glyphEmpty
	}

	radius := theme.Grid.Radius
	var b strings.Builder
	if theme.Grid.Topology == "square" {
		for y := radius; y >= -radius; y-- {
			for x := -radius; x <= radius; x++ {
				if x > -radius {
					b.WriteByte(' ')
				}
				b.WriteRune(at(grid.Coord{X: x, Y: y}))
			}
			b.WriteByte('\n')
		}
		return b.String()
	}

	for r := -radius; r <= radius; r++ {
		lo := max(-radius, -r-radius)
		hi := min(radius, -r+radius)
		b.WriteString(strings.Repeat(" ", abs(r)))
		for q := lo; q <= hi; q++ {
			if q > lo {
				b.WriteByte(' ')
			}
			b.WriteRune(at(grid.Coord{X: q, Y: r}))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
