package world

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/grid"
)

// ErrSnapshotNotFound is returned by snapshot stores when no blob exists for
// a profile and world.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// CellRecord is the persisted form of a Cell.
type CellRecord struct {
	Coord         [2]int  `json:"coord"`
	TileKind      string  `json:"tileKind"`
	StructureKind string  `json:"structureKind"`
	Orientation   float64 `json:"orientation"`
	HabitTag      string  `json:"originHabitTag"`
}

// Snapshot is the persisted state of one world: its cells in insertion order
// and the template cursor.
type Snapshot struct {
	World  string       `json:"world,omitempty"`
	Cells  []CellRecord `json:"cells"`
	Cursor int          `json:"cursor"`
}

// Encode serializes a snapshot to its JSON blob.
func Encode(s Snapshot) ([]byte, error) {
	if s.Cells == nil {
		s.Cells = []CellRecord{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a JSON blob into a snapshot.
//
// Postcondition: Returns an error for malformed JSON or a negative cursor.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Cursor < 0 {
		return Snapshot{}, fmt.Errorf("decoding snapshot: cursor must be >= 0, got %d", s.Cursor)
	}
	return s, nil
}

// Snapshot captures the current world.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	cells := e.store.All()
	s := Snapshot{World: e.theme.ID, Cells: make([]CellRecord, len(cells)), Cursor: e.cursor}
	for i, c := range cells {
		s.Cells[i] = CellRecord{
			Coord:         c.Coord.Pair(),
			TileKind:      c.Tile,
			StructureKind: c.Structure,
			Orientation:   c.Orientation,
			HabitTag:      c.Habit,
		}
	}
	return s
}

// Save encodes the current world.
func (e *Engine) Save() ([]byte, error) {
	return Encode(e.Snapshot())
}

// Restore replaces the world with the snapshot's cells, replaying every record
// in order through the placement path so connective tiles are re-derived.
//
// Postcondition: On error the world is empty.
func (e *Engine) Restore(s Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Reset()
	e.cursor = 0

	if s.World != "" && s.World != e.theme.ID {
		return fmt.Errorf("snapshot is for world %q, not %q", s.World, e.theme.ID)
	}
	seen := make(map[grid.Coord]bool, len(s.Cells))
	for i, rec := range s.Cells {
		c := grid.FromPair(rec.Coord)
		if !e.topology.InBounds(c, e.theme.Grid.Radius) {
			return fmt.Errorf("snapshot record %d at %v is outside radius %d", i, c, e.theme.Grid.Radius)
		}
		if seen[c] {
			return fmt.Errorf("snapshot record %d repeats coordinate %v", i, c)
		}
		seen[c] = true
	}

	for _, rec := range s.Cells {
		e.commit(Cell{
			Coord:       grid.FromPair(rec.Coord),
			Tile:        rec.TileKind,
			Structure:   rec.StructureKind,
			Orientation: rec.Orientation,
			Habit:       rec.HabitTag,
		})
	}

	cursor := s.Cursor
	if e.theme.Template == nil {
		cursor = 0
	} else if n := len(e.theme.Template.Entries); cursor > n {
		cursor = n
	}
	e.cursor = cursor
	return nil
}

// Load restores the world from a persisted blob. Missing or corrupt data
// leaves an empty world; corruption is logged, never fatal.
//
// Postcondition: Returns true if the blob was restored.
func (e *Engine) Load(data []byte) bool {
	if len(data) == 0 {
		e.logger.Info("no saved world, starting empty")
		e.Reset()
		return false
	}
	s, err := Decode(data)
	if err == nil {
		err = e.Restore(s)
	}
	if err != nil {
		e.logger.Warn("corrupt saved world, starting empty", zap.Error(err))
		e.Reset()
		return false
	}
	e.logger.Info("world restored", zap.Int("cells", len(s.Cells)), zap.Int("cursor", s.Cursor))
	return true
}
