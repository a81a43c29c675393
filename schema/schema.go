package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Schema parses and validates an arbitrary input value. On success it returns
// the parsed value, which may have a different type than the input. On failure
// it returns an *Error describing every issue found.
type Schema interface {
	Parse(input any) (any, error)
}

// Issue is a single validation problem.
type Issue struct {
	// Path is the dot-separated location of the offending value, using JSON
	// field names. It's empty for issues about the input as a whole.
	Path    string `json:"path,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// String returns the issue in "path: message" format.
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Error is returned by schemas when the input doesn't conform to them.
type Error struct {
	Issues []Issue
}

// Error returns all issues joined by "; ".
func (e *Error) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) add(path, code, message string) {
	e.Issues = append(e.Issues, Issue{Path: path, Code: code, Message: message})
}

func (e *Error) sort() {
	slices.SortStableFunc(e.Issues, func(a, b Issue) int {
		return strings.Compare(a.Path, b.Path)
	})
}

// Issues returns the issues described by err. Errors not produced by a schema
// are reported as a single issue with the error message.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}

	var serr *Error
	if errors.As(err, &serr) {
		return serr.Issues
	}

	return []Issue{{Code: "invalid", Message: err.Error()}}
}

// FuncSchema adapts a plain function to the Schema interface.
type FuncSchema[T any] func(input any) (T, error)

var _ Schema = FuncSchema[any](nil)

// Func returns a Schema backed by fn.
func Func[T any](fn func(input any) (T, error)) FuncSchema[T] {
	return FuncSchema[T](fn)
}

// Parse implements the Schema interface.
func (f FuncSchema[T]) Parse(input any) (any, error) {
	v, err := f(input)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// normalize converts input into the generic shapes produced by encoding/json,
// so that decoders and validators only deal with maps, slices and scalars.
func normalize(input any) (any, error) {
	switch v := input.(type) {
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	case json.RawMessage:
		return decodeJSON(v)
	case []byte:
		return decodeJSON(v)
	default:
		return input, nil
	}
}

func decodeJSON(data []byte) (any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed decoding JSON: %w", err)
	}

	return v, nil
}
