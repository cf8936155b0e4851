// Package world implements the procedural world-growth engine: occupancy,
// frontier selection, zone content, connective tile resolution, template
// playback and snapshot persistence for one themed world.
package world

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/lilwins/internal/grid"
)

// ErrOccupied is returned by Store.Put when the coordinate already holds a cell.
var ErrOccupied = errors.New("coordinate already occupied")

// ErrVacant is returned when patching or tagging a coordinate with no cell.
var ErrVacant = errors.New("coordinate not occupied")

// Cell is one placed coordinate: a ground tile plus an optional structure.
type Cell struct {
	Coord grid.Coord
	// Tile is the ground tile kind. Always non-empty once placed.
	Tile string
	// Structure is the optional building, decoration or character kind.
	Structure string
	// Orientation is the render rotation in degrees. Derived for connective tiles.
	Orientation float64
	// Habit records which completion event caused the placement.
	Habit string
}

// HasStructure reports whether the cell carries a structure.
func (c Cell) HasStructure() bool {
	return c.Structure != ""
}

// Store is the authoritative coordinate-to-cell mapping for one world.
// Insertion order is retained because restore replays cells in that order.
//
// Store is not safe for concurrent use; Engine serializes all access.
type Store struct {
	index map[grid.Coord]int
	cells []Cell
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{index: make(map[grid.Coord]int)}
}

// Get returns the cell at c, if any.
func (s *Store) Get(c grid.Coord) (Cell, bool) {
	i, ok := s.index[c]
	if !ok {
		return Cell{}, false
	}
	return s.cells[i], true
}

// Occupied reports whether c holds a cell.
func (s *Store) Occupied(c grid.Coord) bool {
	_, ok := s.index[c]
	return ok
}

// Put inserts a new cell.
//
// Precondition: cell.Tile must be non-empty.
// Postcondition: Returns ErrOccupied without modifying the store when the
// coordinate is already taken.
func (s *Store) Put(cell Cell) error {
	if cell.Tile == "" {
		return fmt.Errorf("cell %v: tile must not be empty", cell.Coord)
	}
	if _, ok := s.index[cell.Coord]; ok {
		return fmt.Errorf("put %v: %w", cell.Coord, ErrOccupied)
	}
	s.index[cell.Coord] = len(s.cells)
	s.cells = append(s.cells, cell)
	return nil
}

// Patch rewrites the tile and orientation of an existing cell in place.
// Only connective tiles are patched after creation.
//
// Postcondition: Returns ErrVacant when c holds no cell.
func (s *Store) Patch(c grid.Coord, tile string, orientation float64) error {
	i, ok := s.index[c]
	if !ok {
		return fmt.Errorf("patch %v: %w", c, ErrVacant)
	}
	s.cells[i].Tile = tile
	s.cells[i].Orientation = orientation
	return nil
}

// Tag attaches a habit label to an existing cell.
//
// Postcondition: Returns ErrVacant when c holds no cell.
func (s *Store) Tag(c grid.Coord, habit string) error {
	i, ok := s.index[c]
	if !ok {
		return fmt.Errorf("tag %v: %w", c, ErrVacant)
	}
	s.cells[i].Habit = habit
	return nil
}

// All returns a copy of every cell in insertion order.
func (s *Store) All() []Cell {
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Len returns the number of placed cells.
func (s *Store) Len() int {
	return len(s.cells)
}

// Reset clears the store. This is the only way cells are ever removed.
func (s *Store) Reset() {
	s.index = make(map[grid.Coord]int)
	s.cells = nil
}
