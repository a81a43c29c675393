package context

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/sieve/app/config"
	"go.hackfix.me/sieve/db"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx     context.Context  // global context
	FS      vfs.FileSystem   // filesystem
	Env     Environment      // process environment
	Logger  *slog.Logger     // global logger
	TimeNow func() time.Time // current time source

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Config *config.Config
	DB     *db.DB

	// Metadata
	Version     *VersionInfo
	VersionInit string // version the database was initialized with
}

// Environment provides access to the process environment variables.
type Environment interface {
	Get(key string) string
	Set(key, val string) error
}
