package handler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.hackfix.me/sieve/schema"
)

// Handler runs the stages of a Pipeline for each request, in this order:
//
//  1. Path parameters are resolved and validated.
//  2. The query string is flattened and validated.
//  3. The JSON body is read and validated.
//  4. Middleware run in order, each contributing data to the Context.
//  5. The business function runs and produces the response.
//
// Validation failures in stages 1-3 short-circuit with a 400 response, and
// never reach the error handler. Errors in stages 4-5, and panics in any
// stage, are passed to the pipeline's error handler.
type Handler struct {
	p  *Pipeline
	fn Func
}

var _ http.Handler = (*Handler)(nil)

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.Serve(r, h.p.routeContext(r))
	if err := resp.Write(w); err != nil {
		h.p.logger.Error("failed writing response",
			"method", r.Method, "path", r.URL.Path, "error", err.Error())
	}
}

// Serve runs the pipeline for r, and returns the response that should be
// written. It never returns nil.
func (h *Handler) Serve(r *http.Request, rc RouteContext) *Response {
	c := newContext()

	if resp := h.validate(r, rc, c); resp != nil {
		return resp
	}

	resp, err := h.run(r, c)
	if err != nil {
		return h.serverError(r, err)
	}
	if resp == nil {
		return NoContent()
	}

	return resp
}

// validate runs stages 1-3, storing the parsed values in c. It returns a
// non-nil response if the request shouldn't proceed. Panics in parameter
// resolvers or schemas are passed to the error handler as a *PanicError.
func (h *Handler) validate(r *http.Request, rc RouteContext, c *Context) (resp *Response) {
	defer func() {
		if v := recover(); v != nil {
			resp = h.serverError(r, &PanicError{Value: v, Stack: debug.Stack()})
		}
	}()

	if h.p.params != nil {
		params, err := resolveParams(r.Context(), rc.Params)
		if err != nil {
			return h.serverError(r, fmt.Errorf("failed resolving path parameters: %w", err))
		}
		if c.Params, err = parse(SourceParams, h.p.params, params); err != nil {
			return errorResponse(err)
		}
	}

	if h.p.query != nil {
		var err error
		if c.Query, err = parse(SourceQuery, h.p.query, queryValues(r)); err != nil {
			return errorResponse(err)
		}
	}

	if h.p.body != nil {
		body, err := readBody(r, h.p.maxBodySize)
		if errors.Is(err, errBodyTooLarge) {
			return messageResponse(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds the limit of %d bytes", h.p.maxBodySize))
		}
		if c.Body, err = parse(SourceBody, h.p.body, body); err != nil {
			return errorResponse(err)
		}
	}

	return nil
}

// run executes the middleware and the business function, converting panics
// into errors.
func (h *Handler) run(r *http.Request, c *Context) (resp *Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			resp = nil
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	for _, mw := range h.p.middleware {
		data, err := mw(r, c)
		if err != nil {
			return nil, err
		}
		c.Data.Merge(data)
	}

	return h.fn(r, c)
}

// serverError logs err and converts it into a response with the pipeline's
// error handler. The default 500 response is used if there's no handler, or
// the handler doesn't produce a response.
func (h *Handler) serverError(r *http.Request, err error) (resp *Response) {
	logArgs := []any{"method", r.Method, "path", r.URL.Path, "error", err.Error()}
	var (
		herr *Error
		perr *PanicError
	)
	switch {
	case errors.As(err, &herr) && herr.StatusCode > 0 && herr.StatusCode < http.StatusInternalServerError:
		h.p.logger.Debug("request failed", logArgs...)
	case errors.As(err, &perr):
		h.p.logger.Error("recovered from panic", append(logArgs, "stack", string(perr.Stack))...)
	default:
		h.p.logger.Error("request failed", logArgs...)
	}

	if h.p.errHandler == nil {
		return defaultErrorHandler(err)
	}

	defer func() {
		if v := recover(); v != nil {
			h.p.logger.Error("recovered from panic in error handler",
				"method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(v))
			resp = defaultErrorHandler(err)
		}
	}()

	if resp = h.p.errHandler(err); resp == nil {
		resp = defaultErrorHandler(err)
	}

	return resp
}

func parse(src Source, s schema.Schema, v any) (any, error) {
	out, err := s.Parse(v)
	if err != nil {
		return nil, &ValidationError{Source: src, Issues: schema.Issues(err)}
	}

	return out, nil
}

func errorResponse(err error) *Response {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.response()
	}

	return messageResponse(http.StatusBadRequest, err.Error())
}
