package handler

import (
	"maps"
	"net/http"
)

// Data holds values contributed by middleware.
type Data map[string]any

// Merge copies all values from other into d. Values of keys that already
// exist in d are overwritten.
func (d Data) Merge(other Data) {
	maps.Copy(d, other)
}

// Context is the per-request state assembled by the pipeline. It's created
// fresh for each request, and is visible to all middleware and the business
// handler.
type Context struct {
	// Params, Query and Body hold the values returned by the corresponding
	// schemas. They are nil if the pipeline has no schema for the source.
	Params any
	Query  any
	Body   any
	// Data holds the merged results of all middleware that ran so far.
	Data Data
}

func newContext() *Context {
	return &Context{Data: Data{}}
}

// Params returns the validated path parameters as T. It returns the zero
// value if the pipeline has no params schema, or it produced another type.
func Params[T any](c *Context) T {
	v, _ := c.Params.(T)
	return v
}

// Query returns the validated query values as T. It returns the zero value if
// the pipeline has no query schema, or it produced another type.
func Query[T any](c *Context) T {
	v, _ := c.Query.(T)
	return v
}

// Body returns the validated request body as T. It returns the zero value if
// the pipeline has no body schema, or it produced another type.
func Body[T any](c *Context) T {
	v, _ := c.Body.(T)
	return v
}

// Value returns the middleware data stored under key as T, and whether it
// exists with that type.
func Value[T any](c *Context, key string) (T, bool) {
	v, ok := c.Data[key].(T)
	return v, ok
}

// Provide returns a middleware that stores the value returned by fn under key.
// It lets middleware declare the type they contribute, which later stages
// retrieve with Value.
func Provide[T any](key string, fn func(r *http.Request, c *Context) (T, error)) Middleware {
	return func(r *http.Request, c *Context) (Data, error) {
		v, err := fn(r, c)
		if err != nil {
			return nil, err
		}
		return Data{key: v}, nil
	}
}
