package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Direction is the direction in which migrations are run.
type Direction string

// Valid migration directions.
const (
	MigrationUp   Direction = "up"
	MigrationDown Direction = "down"
)

// Run applies all pending migrations in fsys when dir is MigrationUp, or rolls
// back all applied migrations when dir is MigrationDown.
func Run(
	ctx context.Context, db *sql.DB, fsys fs.FS, dir Direction, logger *slog.Logger,
) error {
	provider, err := newProvider(db, fsys)
	if err != nil {
		return err
	}

	var results []*goose.MigrationResult
	switch dir {
	case MigrationUp:
		results, err = provider.Up(ctx)
	case MigrationDown:
		results, err = provider.DownTo(ctx, 0)
	default:
		return fmt.Errorf("invalid migration direction '%s'", dir)
	}

	for _, res := range results {
		if res.Error != nil || res.Source == nil {
			continue
		}
		logger.Debug("applied migration",
			"direction", res.Direction, "version", res.Source.Version,
			"path", res.Source.Path, "duration", res.Duration)
	}

	if err != nil {
		return fmt.Errorf("failed running %s migrations: %w", dir, err)
	}

	return nil
}

// Version returns the latest applied migration version.
func Version(ctx context.Context, db *sql.DB, fsys fs.FS) (int64, error) {
	provider, err := newProvider(db, fsys)
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed getting migration version: %w", err)
	}

	return version, nil
}

func newProvider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed creating migration provider: %w", err)
	}

	return provider, nil
}
