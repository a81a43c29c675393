package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const defaultMaxBodySize = 1024 * 1024 // 1MiB

var errBodyTooLarge = errors.New("request body too large")

// Middleware runs before the business handler, and contributes data to the
// request Context. The returned Data is merged into Context.Data. Returning an
// error stops processing of the request.
type Middleware func(r *http.Request, c *Context) (Data, error)

// Func is the business handler of a route. It receives the fully assembled
// Context.
type Func func(r *http.Request, c *Context) (*Response, error)

// queryValues flattens the request query string into a plain map. Keys with a
// single value map to a string, and repeated keys to a list of strings.
func queryValues(r *http.Request) map[string]any {
	q := r.URL.Query()
	values := make(map[string]any, len(q))
	for key, vals := range q {
		switch len(vals) {
		case 0:
			continue
		case 1:
			values[key] = vals[0]
		default:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			values[key] = list
		}
	}

	return values
}

// readBody decodes the JSON request body. A missing, empty or malformed body
// is returned as an empty object, and left for the schema to reject. It only
// fails if the body exceeds maxSize.
func readBody(r *http.Request, maxSize int64) (any, error) {
	empty := map[string]any{}
	if r.Body == nil || r.Body == http.NoBody {
		return empty, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxSize+1))
	if err != nil {
		return empty, nil //nolint:nilerr // Unreadable bodies are treated as missing.
	}
	if int64(len(data)) > maxSize {
		return nil, errBodyTooLarge
	}

	var body any
	if err = json.Unmarshal(data, &body); err != nil || body == nil {
		return empty, nil //nolint:nilerr // Malformed bodies are treated as missing.
	}

	return body, nil
}
