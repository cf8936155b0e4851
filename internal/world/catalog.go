package world

import "fmt"

// Structure categories with special meaning to the engine.
const (
	CategoryBuilding = "building"
	CategoryRoad     = "road"
	CategoryTile     = "tile"
)

// TileDef describes a ground tile kind.
type TileDef struct {
	ID   string
	Name string
	// Connective tiles change variant with their neighbours (roads, paths).
	Connective bool
}

// StructureDef describes a structure kind.
type StructureDef struct {
	ID       string
	Name     string
	Category string
}

// Catalog maps content identifiers to their descriptors. Lookups for unknown
// identifiers report false rather than failing; callers degrade to a bare tile.
type Catalog struct {
	tiles      map[string]TileDef
	structures map[string]StructureDef
}

// NewCatalog indexes the given tiles and structures.
//
// Precondition: every ID must be non-empty.
// Postcondition: Returns a Catalog or an error on an empty or duplicate ID.
func NewCatalog(tiles []TileDef, structures []StructureDef) (*Catalog, error) {
	c := &Catalog{
		tiles:      make(map[string]TileDef, len(tiles)),
		structures: make(map[string]StructureDef, len(structures)),
	}
	for _, t := range tiles {
		if t.ID == "" {
			return nil, fmt.Errorf("tile ID must not be empty")
		}
		if _, dup := c.tiles[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tile ID %q", t.ID)
		}
		if t.Name == "" {
			t.Name = t.ID
		}
		c.tiles[t.ID] = t
	}
	for _, s := range structures {
		if s.ID == "" {
			return nil, fmt.Errorf("structure ID must not be empty")
		}
		if _, dup := c.structures[s.ID]; dup {
			return nil, fmt.Errorf("duplicate structure ID %q", s.ID)
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		if s.Category == "" {
			s.Category = "decoration"
		}
		c.structures[s.ID] = s
	}
	return c, nil
}

// Tile returns the descriptor for id.
func (c *Catalog) Tile(id string) (TileDef, bool) {
	t, ok := c.tiles[id]
	return t, ok
}

// Structure returns the descriptor for id.
func (c *Catalog) Structure(id string) (StructureDef, bool) {
	s, ok := c.structures[id]
	return s, ok
}

// IsConnective reports whether tile is a known connective tile kind.
func (c *Catalog) IsConnective(tile string) bool {
	return c.tiles[tile].Connective
}
