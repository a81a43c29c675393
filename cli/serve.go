package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	actx "go.hackfix.me/sieve/app/context"
	aerrors "go.hackfix.me/sieve/app/errors"
	"go.hackfix.me/sieve/web/server"
	"go.hackfix.me/sieve/web/server/handler"
)

const shutdownTimeout = 10 * time.Second

// Serve starts the web server.
type Serve struct {
	Address string `arg:"" optional:"" help:"[host]:port to listen on. Default: configured server.address, or :8080."`
	//nolint:lll // Long struct tags are unavoidable.
	ErrorLevel string `placeholder:"LEVEL" help:"Detail level of error messages returned to API clients, in order to avoid leaking sensitive information. This doesn't affect response status codes. Overrides the configured server.error_level. Valid values: none, minimal, full \n none: hide all error messages; minimal: hide messages of server errors; full: keep error messages intact"`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	if err := requireInit(appCtx); err != nil {
		return err
	}

	if c.ErrorLevel != "" {
		lvl, err := handler.ErrorLevelFromString(c.ErrorLevel)
		if err != nil {
			return aerrors.New("invalid --error-level", err)
		}
		appCtx.Config.Server.ErrorLevel.V = lvl
		appCtx.Config.Server.ErrorLevel.Valid = true
	}

	srv, err := server.New(appCtx, c.Address)
	if err != nil {
		return err
	}

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	srvDone := make(chan error, 1)
	go func() {
		srvErr := srv.ListenAndServe()
		slog.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		slog.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		slog.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil {
			return fmt.Errorf("web server error: %w", srvErr)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	return <-srvDone
}
