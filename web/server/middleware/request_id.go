package middleware

import (
	"net/http"

	"github.com/nrednav/cuid2"

	"go.hackfix.me/sieve/web/server/handler"
)

// RequestIDHeader is the header used to pass request IDs between clients and
// the server.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the handler.Context data key of the request ID.
const RequestIDKey = "request_id"

// RequestID returns an HTTP middleware that ensures every request has a
// request ID. A valid ID sent by the client is kept, otherwise a new one is
// generated. The ID is echoed back in the response headers.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !cuid2.IsCuid(id) {
				id = cuid2.Generate()
				r.Header.Set(RequestIDHeader, id)
			}
			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r)
		})
	}
}

// RouteRequestID is a route middleware that contributes the request ID under
// RequestIDKey. It generates a new ID if the request wasn't handled by
// RequestID first.
func RouteRequestID() handler.Middleware {
	return handler.Provide(RequestIDKey, func(r *http.Request, _ *handler.Context) (string, error) {
		if id := r.Header.Get(RequestIDHeader); cuid2.IsCuid(id) {
			return id, nil
		}
		return cuid2.Generate(), nil
	})
}
