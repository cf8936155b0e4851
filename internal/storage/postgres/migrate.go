package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator applies the SQL files in a migrations directory.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens dir against the database at dsn.
//
// Precondition: dir holds NNNNNN_name.{up,down}.sql files.
// Postcondition: Returns a Migrator the caller must Close, or a non-nil error.
func NewMigrator(dir, dsn string) (*Migrator, error) {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator for %s: %w", dir, err)
	}
	return &Migrator{m: m}, nil
}

// Up applies steps migrations, or all pending ones when steps is 0.
//
// Postcondition: changed is false when the schema was already current.
func (g *Migrator) Up(steps int) (changed bool, err error) {
	if steps > 0 {
		err = g.m.Steps(steps)
	} else {
		err = g.m.Up()
	}
	return settle(err)
}

// Down reverts steps migrations, or every one when steps is 0.
func (g *Migrator) Down(steps int) (changed bool, err error) {
	if steps > 0 {
		err = g.m.Steps(-steps)
	} else {
		err = g.m.Down()
	}
	return settle(err)
}

// Version returns the applied schema version. A database with no migrations
// reports version 0.
func (g *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

func settle(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, migrate.ErrNoChange):
		return false, nil
	default:
		return false, fmt.Errorf("migrating: %w", err)
	}
}
