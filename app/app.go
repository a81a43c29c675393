package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/sieve/app/config"
	actx "go.hackfix.me/sieve/app/context"
	aerrors "go.hackfix.me/sieve/app/errors"
	"go.hackfix.me/sieve/cli"
	"go.hackfix.me/sieve/db"
	"go.hackfix.me/sieve/db/queries"
)

// dbFileName is the name of the SQLite database file in the data directory.
const dbFileName = "sieve.db"

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
	// set if the database was opened by the app, and should be closed by it.
	ownDB bool
}

// New initializes a new application.
func New(name, configFilePath, dataDir string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(app.ctx, configFilePath, dataDir, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if err := app.loadConfig(); err != nil {
		return err
	}

	if err := app.setupDB(); err != nil {
		return err
	}
	if app.ownDB {
		defer func() {
			if err := app.ctx.DB.Close(); err != nil {
				app.ctx.Logger.Warn("failed closing database", "error", err)
			}
			app.ctx.DB = nil
		}()
	}

	app.cli.ApplyConfig(app.ctx.Config)

	if err := app.cli.Execute(app.ctx); err != nil {
		return err
	}

	if app.cli.Command() == "init" {
		if err := app.ctx.Config.Save(); err != nil {
			return aerrors.New("failed saving configuration", err)
		}
	}

	return nil
}

func (app *App) loadConfig() error {
	if app.ctx.Config == nil {
		app.ctx.Config = config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err := app.ctx.Config.Load(); err != nil {
			return aerrors.New("failed loading configuration", err,
				"hint", fmt.Sprintf("Fix or remove the file at %s", app.cli.ConfigFile))
		}
	}
	app.ctx.Config.SetDefaults()

	return nil
}

func (app *App) setupDB() error {
	if app.ctx.DB == nil {
		if err := app.ctx.FS.MkdirAll(app.cli.DataDir, 0o700); err != nil {
			return fmt.Errorf("failed creating data directory: %w", err)
		}

		var err error
		dbPath := filepath.Join(app.cli.DataDir, dbFileName)
		app.ctx.DB, err = db.Open(app.ctx.Ctx, dbPath, app.ctx.TimeNow)
		if err != nil {
			return err
		}
		app.ownDB = true
	}

	version, err := queries.Version(app.ctx.DB.NewContext(), app.ctx.DB)
	if err != nil {
		return fmt.Errorf("failed reading database version: %w", err)
	}
	app.ctx.VersionInit = version.V

	if version.Valid {
		if err = app.ctx.DB.Migrate(app.ctx.Logger); err != nil {
			return aerrors.New("failed migrating database", err)
		}
	}

	return nil
}
