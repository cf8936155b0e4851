// Package sqlite persists world snapshots in a local SQLite file for the
// offline CLI and single-node development servers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/lilwins/internal/world"
)

const schema = `
CREATE TABLE IF NOT EXISTS world_snapshots (
	profile_id TEXT    NOT NULL,
	world_id   TEXT    NOT NULL,
	data       TEXT    NOT NULL,
	cells      INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (profile_id, world_id)
);
`

// SnapshotInfo summarizes one stored world without its blob.
type SnapshotInfo struct {
	World     string
	Cells     int
	UpdatedAt time.Time
}

type snapshotRow struct {
	World   string `db:"world_id"`
	Cells   int    `db:"cells"`
	Updated int64  `db:"updated_at"`
}

// DB is a SQLite-backed snapshot store.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at path and ensures the schema.
//
// Precondition: path must be a writable file path, or ":memory:".
// Postcondition: Returns a ready DB or a non-nil error.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Save stores data as the snapshot for (profile, worldID), replacing any
// previous one.
//
// Precondition: data must be a JSON snapshot blob.
func (db *DB) Save(ctx context.Context, profile uuid.UUID, worldID string, data []byte) error {
	snap, err := world.Decode(data)
	if err != nil {
		return fmt.Errorf("saving snapshot %s/%s: %w", profile, worldID, err)
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO world_snapshots (profile_id, world_id, data, cells, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (profile_id, world_id) DO UPDATE
		 SET data = excluded.data, cells = excluded.cells, updated_at = excluded.updated_at`,
		profile.String(), worldID, string(data), len(snap.Cells), db.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s/%s: %w", profile, worldID, err)
	}
	return nil
}

// Load returns the stored snapshot for (profile, worldID).
//
// Postcondition: Returns world.ErrSnapshotNotFound when none exists.
func (db *DB) Load(ctx context.Context, profile uuid.UUID, worldID string) ([]byte, error) {
	var data string
	err := db.conn.GetContext(ctx, &data,
		`SELECT data FROM world_snapshots WHERE profile_id = ? AND world_id = ?`,
		profile.String(), worldID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, world.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("loading snapshot %s/%s: %w", profile, worldID, err)
	}
	return []byte(data), nil
}

// Delete removes the snapshot for (profile, worldID).
func (db *DB) Delete(ctx context.Context, profile uuid.UUID, worldID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM world_snapshots WHERE profile_id = ? AND world_id = ?`,
		profile.String(), worldID,
	)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s/%s: %w", profile, worldID, err)
	}
	return nil
}

// List returns every stored world for profile, ordered by world id.
func (db *DB) List(ctx context.Context, profile uuid.UUID) ([]SnapshotInfo, error) {
	var rows []snapshotRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT world_id, cells, updated_at FROM world_snapshots
		 WHERE profile_id = ? ORDER BY world_id`,
		profile.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots for %s: %w", profile, err)
	}
	out := make([]SnapshotInfo, len(rows))
	for i, r := range rows {
		out[i] = SnapshotInfo{World: r.World, Cells: r.Cells, UpdatedAt: time.UnixMilli(r.Updated)}
	}
	return out, nil
}
