package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	actx "go.hackfix.me/sieve/app/context"
	api "go.hackfix.me/sieve/web/server/api/v1"
	"go.hackfix.me/sieve/web/server/middleware"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	logger *slog.Logger
	ready  chan struct{}
}

// New returns a new web Server instance that will listen on addr.
func New(appCtx *actx.Context, addr string) (*Server, error) {
	logger := appCtx.Logger.With("component", "web-server")
	h, err := SetupHandlers(appCtx, logger)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Server: &http.Server{
			Handler:           h,
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      time.Minute,
			IdleTimeout:       2 * time.Minute,
			BaseContext:       func(net.Listener) context.Context { return appCtx.Ctx },
		},
		logger: logger,
		ready:  make(chan struct{}),
	}

	return srv, nil
}

// ListenAndServe starts the HTTP server. It stores the actual listen address,
// which is convenient when the address is dynamically determined by the
// system (e.g. ':0').
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed listening on %s: %w", s.Addr, err)
	}

	s.Addr = ln.Addr().String()
	s.logger.Info("started listener", "address", s.Addr)
	close(s.ready)

	err = s.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	//nolint:wrapcheck // This is fine.
	return err
}

// Ready returns a channel that's closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// SetupHandlers configures the server HTTP handlers.
func SetupHandlers(appCtx *actx.Context, logger *slog.Logger) (http.Handler, error) {
	apiMux, err := api.SetupHandlers(appCtx, logger.With("api", "v1"))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(api.Prefix+"/", apiMux)

	return middleware.Chain(
		middleware.Logger(logger),
		middleware.RequestID(),
		mux,
	), nil
}
