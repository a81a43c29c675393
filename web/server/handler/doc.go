// Package handler contains helpers to assemble HTTP handler implementations
// using a composable, clear, and simple API. A Pipeline declares schemas for
// the path parameters, query string and body of a route, and an ordered list
// of middleware that contribute data to a per-request Context. Business
// handlers then only implement the logic that is unique to each endpoint.
//
// Requests are processed in fixed stages: params, query and body validation,
// middleware, and finally the business handler. Validation failures produce a
// 400 response naming the failed source. Errors from middleware and business
// handlers, and panics in any stage, are converted to a response by a single
// error handler, which defaults to an opaque 500 response.
//
// It is similar in principle to HTTP middlewares, but using a more structured
// approach with separate components and more useful types.
package handler
