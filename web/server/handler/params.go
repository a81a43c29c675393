package handler

import (
	"context"
	"net/http"
	"strings"
)

// ParamsSource supplies the path parameters of a request. Resolving them may
// block, e.g. when a router computes them lazily.
type ParamsSource interface {
	ResolveParams(ctx context.Context) (map[string]string, error)
}

// StaticParams is a ParamsSource of already known parameters.
type StaticParams map[string]string

// ResolveParams implements the ParamsSource interface.
func (p StaticParams) ResolveParams(context.Context) (map[string]string, error) {
	return p, nil
}

// ParamsFunc adapts a function to the ParamsSource interface.
type ParamsFunc func(ctx context.Context) (map[string]string, error)

// ResolveParams implements the ParamsSource interface.
func (f ParamsFunc) ResolveParams(ctx context.Context) (map[string]string, error) {
	return f(ctx)
}

// RouteContext is the information a router passes along with a request.
type RouteContext struct {
	Params ParamsSource
}

// MuxRouteContext returns the RouteContext of a request routed by
// http.ServeMux. Path parameters are the wildcards of the matched pattern.
func MuxRouteContext(r *http.Request) RouteContext {
	return RouteContext{
		Params: ParamsFunc(func(context.Context) (map[string]string, error) {
			return PathParams(r), nil
		}),
	}
}

// PathParams returns the values of all wildcards in the http.ServeMux pattern
// that matched r.
func PathParams(r *http.Request) map[string]string {
	names := patternWildcards(r.Pattern)
	params := make(map[string]string, len(names))
	for _, name := range names {
		params[name] = r.PathValue(name)
	}

	return params
}

// patternWildcards returns the wildcard names of a http.ServeMux pattern, e.g.
// "GET /notes/{id}/{path...}" returns [id path].
func patternWildcards(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			break
		}

		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		// {$} only anchors the end of the path.
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}

	return names
}

func resolveParams(ctx context.Context, src ParamsSource) (map[string]string, error) {
	if src == nil {
		return map[string]string{}, nil
	}

	params, err := src.ResolveParams(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by caller.
	}
	if params == nil {
		params = map[string]string{}
	}

	return params, nil
}
