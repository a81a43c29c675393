// Package api implements the v1 HTTP API of the notes service.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	actx "go.hackfix.me/sieve/app/context"
	"go.hackfix.me/sieve/db/types"
	"go.hackfix.me/sieve/web/server/handler"
	"go.hackfix.me/sieve/web/server/middleware"
)

// Prefix is the path prefix of all v1 API routes.
const Prefix = "/api/v1"

// Handler is the API endpoint handler.
type Handler struct {
	appCtx *actx.Context
	logger *slog.Logger
}

// Route is a single API endpoint.
type Route struct {
	Method string
	Path   string
	// Permission is the action and target the caller must be allowed to
	// perform. It's empty for public routes.
	Permission string
	Summary    string
	Handler    http.Handler
}

// Pattern returns the http.ServeMux pattern of the route.
func (r Route) Pattern() string {
	return fmt.Sprintf("%s %s%s", r.Method, Prefix, r.Path)
}

// Routes returns all v1 API routes, sorted by path and method.
func Routes(appCtx *actx.Context, logger *slog.Logger) ([]Route, error) {
	cfg := appCtx.Config
	allowed, err := middleware.ParseToIPSet(cfg.Server.AllowedClients...)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed clients configuration: %w", err)
	}

	h := &Handler{appCtx: appCtx, logger: logger}

	public := handler.NewPipeline(
		handler.WithLogger(logger),
		handler.WithServerErrorHandler(handler.ErrorResponder(cfg.Server.ErrorLevel.V)),
		handler.WithMaxBodySize(cfg.Server.MaxBodySize.V),
	).Use(middleware.RouteRequestID(), middleware.AllowClients(allowed))
	authed := public.Use(middleware.TokenAuth(appCtx.DB))

	protect := func(action, target string) (*handler.Pipeline, string) {
		return authed.Use(middleware.Authorize(action, target)),
			fmt.Sprintf("%s %s", action, target)
	}

	readP, readPerm := protect(middleware.ActionRead, "notes")
	writeP, writePerm := protect(middleware.ActionWrite, "notes")
	deleteP, deletePerm := protect(middleware.ActionDelete, "notes")

	routes := []Route{
		{
			Method: http.MethodGet, Path: "/ping",
			Summary: "Check that the service is up.",
			Handler: public.Handler(h.Ping),
		},
		{
			Method: http.MethodGet, Path: "/notes", Permission: readPerm,
			Summary: "List notes, optionally filtered by a search term.",
			Handler: readP.Query(listNotesQuery).Handler(h.NotesList),
		},
		{
			Method: http.MethodPost, Path: "/notes", Permission: writePerm,
			Summary: "Create a note.",
			Handler: writeP.Body(createNoteBody).Handler(h.NoteCreate),
		},
		{
			Method: http.MethodGet, Path: "/notes/{id}", Permission: readPerm,
			Summary: "Get a note.",
			Handler: readP.Params(noteParamsSchema).Handler(h.NoteGet),
		},
		{
			Method: http.MethodPut, Path: "/notes/{id}", Permission: writePerm,
			Summary: "Replace the title and body of a note.",
			Handler: writeP.Params(noteParamsSchema).Body(updateNoteBody).Handler(h.NoteUpdate),
		},
		{
			Method: http.MethodDelete, Path: "/notes/{id}", Permission: deletePerm,
			Summary: "Delete a note.",
			Handler: deleteP.Params(noteParamsSchema).Handler(h.NoteDelete),
		},
	}

	slices.SortStableFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})

	return routes, nil
}

// SetupHandlers configures the web API handlers on a new ServeMux.
func SetupHandlers(appCtx *actx.Context, logger *slog.Logger) (*http.ServeMux, error) {
	routes, err := Routes(appCtx, logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	for _, r := range routes {
		mux.Handle(r.Pattern(), r.Handler)
	}

	return mux, nil
}

// Ping reports the service status and version.
func (h *Handler) Ping(_ *http.Request, c *handler.Context) (*handler.Response, error) {
	reqID, _ := handler.Value[string](c, middleware.RequestIDKey)
	return handler.JSON(http.StatusOK, map[string]string{
		"status":     "ok",
		"version":    h.appCtx.Version.Semantic,
		"request_id": reqID,
	})
}

// dbError converts a DB error into an error that can be returned to clients.
func dbError(err error, notFoundMsg string) error {
	switch {
	case errors.As(err, &types.NoResultError{}):
		return handler.WrapError(http.StatusNotFound, notFoundMsg, err)
	case errors.As(err, &types.InvalidInputError{}):
		return handler.WrapError(http.StatusBadRequest, err.Error(), err)
	default:
		var derr *types.DuplicateError
		if errors.As(err, &derr) {
			return handler.WrapError(http.StatusConflict, derr.Error(), err)
		}
		return err
	}
}
