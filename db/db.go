package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"

	"go.hackfix.me/sieve/db/migrator"
	"go.hackfix.me/sieve/db/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps sql.DB with additional context and migration functionality.
type DB struct {
	*sql.DB
	ctx        context.Context
	timeNow    func() time.Time
	path       string
	migrations fs.FS
}

var _ types.Querier = (*DB)(nil)

// Init creates the database schema and initial records.
func (d *DB) Init(appVersion string, logger *slog.Logger) error {
	dblogger := logger.With("path", d.path)
	dblogger.Debug("initializing database")

	err := migrator.Run(d.ctx, d.DB, d.migrations, migrator.MigrationUp, dblogger)
	if err != nil {
		return err
	}

	_, err = d.ExecContext(d.NewContext(),
		`INSERT INTO _meta (version) VALUES (?)`, appVersion)
	if err != nil {
		return fmt.Errorf("failed inserting into _meta: %w", err)
	}

	dblogger.Info("database initialized")

	return nil
}

// Migrate applies any pending schema migrations.
func (d *DB) Migrate(logger *slog.Logger) error {
	dblogger := logger.With("path", d.path)
	err := migrator.Run(d.ctx, d.DB, d.migrations, migrator.MigrationUp, dblogger)
	if err != nil {
		return err
	}

	version, err := d.SchemaVersion()
	if err != nil {
		return err
	}
	dblogger.Debug("database schema is up to date", "schema_version", version)

	return nil
}

// SchemaVersion returns the version of the latest applied schema migration.
func (d *DB) SchemaVersion() (int64, error) {
	return migrator.Version(d.ctx, d.DB, d.migrations) //nolint:wrapcheck // Already wrapped.
}

// NewContext returns a new child context of the main database context.
func (d *DB) NewContext() context.Context {
	return d.ctx
}

// Open creates and configures a new SQLite database connection with migrations support.
func Open(ctx context.Context, path string, timeNow func() time.Time) (*DB, error) {
	var d *DB
	if strings.Contains(path, "mode=memory") || strings.Contains(path, ":memory:") {
		defer func() {
			if d != nil {
				// An in-memory database is gone once its last connection closes.
				d.SetMaxIdleConns(10)
				d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
			}
		}()
	}

	sqliteDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed opening SQLite database: %w", err)
	}

	d = &DB{DB: sqliteDB, ctx: ctx, path: path, timeNow: timeNow}

	_, err = d.Exec(`PRAGMA foreign_keys = ON;`)
	if err != nil {
		return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
	}

	d.migrations, err = fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed getting migrations directory: %w", err)
	}

	return d, nil
}

// TimeNow returns the current system time.
func (d *DB) TimeNow() time.Time {
	return d.timeNow()
}
