package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/sieve/app/config"
	actx "go.hackfix.me/sieve/app/context"
	"go.hackfix.me/sieve/db"
)

// Option configures the App created by New.
type Option func(*App)

// WithContext sets the main context. Cancelling it stops a running server.
func WithContext(ctx context.Context) Option {
	return func(app *App) { app.ctx.Ctx = ctx }
}

// WithConfig sets the configuration, instead of loading it from the
// configuration file.
func WithConfig(cfg *config.Config) Option {
	return func(app *App) { app.ctx.Config = cfg }
}

// WithDB sets the database used by the application, instead of opening the
// one in the data directory. The application won't close it.
func WithDB(d *db.DB) Option {
	return func(app *App) { app.ctx.DB = d }
}

// WithEnv sets the process environment.
func WithEnv(env actx.Environment) Option {
	return func(app *App) { app.ctx.Env = env }
}

// WithFDs sets the standard streams. It must come before WithLogger.
func WithFDs(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(app *App) {
		app.ctx.Stdin, app.ctx.Stdout, app.ctx.Stderr = stdin, stdout, stderr
	}
}

// WithFS sets the filesystem the configuration file is stored on.
func WithFS(fs vfs.FileSystem) Option {
	return func(app *App) { app.ctx.FS = fs }
}

// WithLogger sets up a tint logger writing to stderr, and makes it the default
// slog logger. Its level is set by the --log-level flag. Colors are enabled
// only if stderr is a terminal.
func WithLogger(_, isStderrTTY bool) Option {
	return func(app *App) {
		app.logLevel = &slog.LevelVar{}
		app.ctx.Logger = slog.New(tint.NewHandler(app.ctx.Stderr, &tint.Options{
			Level:      app.logLevel,
			NoColor:    !isStderrTTY,
			TimeFormat: "2006-01-02 15:04:05.000",
		}))
		slog.SetDefault(app.ctx.Logger)
	}
}

// WithTimeNow sets the source of the current time.
func WithTimeNow(timeNow func() time.Time) Option {
	return func(app *App) { app.ctx.TimeNow = timeNow }
}
