package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	connectAttempts = 10
	connectBackoff  = time.Second
)

// Open connects to Postgres, retrying while the server comes up.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for i := 1; i <= connectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		logger.Warn().Err(err).Int("attempt", i).Int("of", connectAttempts).Msg("waiting for database")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database: %w", err)
}

// Direction selects which way Migrate moves the schema.
type Direction int

const (
	Up Direction = iota
	Down
)

// Migrate applies (Up) or rolls back (Down) every migration in dir. It
// reports whether anything changed.
func Migrate(dir, dsn string, d Direction) (bool, error) {
	m, err := migrate.New(dir, dsn)
	if err != nil {
		return false, fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if d == Down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("migration failed: %w", err)
	}
	return true, nil
}
