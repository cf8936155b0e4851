package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/lilwins/internal/world"
)

// SnapshotInfo summarizes one stored world without its blob.
type SnapshotInfo struct {
	World     string
	Cells     int
	UpdatedAt time.Time
}

// SnapshotRepository persists world snapshot blobs keyed by profile and world.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores data as the snapshot for (profile, worldID), replacing any
// previous one.
//
// Precondition: data must be a JSON snapshot blob; worldID must be non-empty.
// Postcondition: A subsequent Load returns data (modulo JSON normalization).
func (r *SnapshotRepository) Save(ctx context.Context, profile uuid.UUID, worldID string, data []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO world_snapshots (profile_id, world_id, data, cells, updated_at)
		 VALUES ($1, $2, $3::jsonb, jsonb_array_length(($3::jsonb)->'cells'), NOW())
		 ON CONFLICT (profile_id, world_id) DO UPDATE
		 SET data = EXCLUDED.data, cells = EXCLUDED.cells, updated_at = EXCLUDED.updated_at`,
		profile.String(), worldID, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s/%s: %w", profile, worldID, err)
	}
	return nil
}

// Load returns the stored snapshot for (profile, worldID).
//
// Postcondition: Returns world.ErrSnapshotNotFound when none exists.
func (r *SnapshotRepository) Load(ctx context.Context, profile uuid.UUID, worldID string) ([]byte, error) {
	var data string
	err := r.db.QueryRow(ctx,
		`SELECT data::text FROM world_snapshots WHERE profile_id = $1 AND world_id = $2`,
		profile.String(), worldID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("loading snapshot %s/%s: %w", profile, worldID, err)
	}
	return []byte(data), nil
}

// Delete removes the snapshot for (profile, worldID). Deleting a missing
// snapshot is not an error.
func (r *SnapshotRepository) Delete(ctx context.Context, profile uuid.UUID, worldID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM world_snapshots WHERE profile_id = $1 AND world_id = $2`,
		profile.String(), worldID,
	)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s/%s: %w", profile, worldID, err)
	}
	return nil
}

// List returns every stored world for profile, ordered by world id.
func (r *SnapshotRepository) List(ctx context.Context, profile uuid.UUID) ([]SnapshotInfo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT world_id, cells, updated_at FROM world_snapshots
		 WHERE profile_id = $1 ORDER BY world_id`,
		profile.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots for %s: %w", profile, err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.World, &info.Cells, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return out, nil
}
