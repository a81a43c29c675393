package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"go.hackfix.me/sieve/schema"
)

// Pipeline defines the processing stages for HTTP requests. It provides a
// fluent interface for configuring input schemas and middleware.
//
// A Pipeline is immutable: every configuration method returns a new Pipeline,
// leaving the receiver untouched. This allows a base pipeline to be shared by
// many routes, and extended differently for each of them.
type Pipeline struct {
	params     schema.Schema
	query      schema.Schema
	body       schema.Schema
	middleware []Middleware

	errHandler   ErrorHandler
	logger       *slog.Logger
	maxBodySize  int64
	routeContext func(*http.Request) RouteContext
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithServerErrorHandler sets the function that converts errors returned by
// middleware and business handlers into a response. The response it returns
// is used as is.
func WithServerErrorHandler(fn ErrorHandler) Option {
	return func(p *Pipeline) {
		p.errHandler = fn
	}
}

// WithLogger sets the logger used to report unhandled errors.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxBodySize sets the maximum amount of bytes read from request bodies.
func WithMaxBodySize(size int64) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.maxBodySize = size
		}
	}
}

// WithRouteContext sets the function used by Handler.ServeHTTP to build the
// RouteContext of a request. The default is MuxRouteContext.
func WithRouteContext(fn func(*http.Request) RouteContext) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.routeContext = fn
		}
	}
}

// NewPipeline creates a new empty pipeline for configuring request processing.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:       slog.Default(),
		maxBodySize:  defaultMaxBodySize,
		routeContext: MuxRouteContext,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Params returns a new pipeline that validates path parameters with s.
func (p *Pipeline) Params(s schema.Schema) *Pipeline {
	np := p.clone()
	np.params = s
	return np
}

// Query returns a new pipeline that validates the query string with s.
func (p *Pipeline) Query(s schema.Schema) *Pipeline {
	np := p.clone()
	np.query = s
	return np
}

// Body returns a new pipeline that validates the JSON request body with s.
func (p *Pipeline) Body(s schema.Schema) *Pipeline {
	np := p.clone()
	np.body = s
	return np
}

// Use returns a new pipeline with one or more middleware appended. Middleware
// run in the order they were added.
func (p *Pipeline) Use(mw ...Middleware) *Pipeline {
	np := p.clone()
	np.middleware = append(np.middleware, mw...)
	return np
}

// Handler returns an http.Handler that runs the pipeline stages before
// calling fn.
func (p *Pipeline) Handler(fn Func) *Handler {
	if fn == nil {
		panic("handler: nil business function")
	}

	return &Handler{p: p.clone(), fn: fn}
}

func (p *Pipeline) clone() *Pipeline {
	np := *p
	np.middleware = slices.Clone(p.middleware)
	return &np
}
