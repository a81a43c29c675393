package errors

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
)

// StructuredError is an error with an optional cause and metadata, which are
// rendered as fields by Log.
type StructuredError struct {
	msg      string
	cause    error
	metadata map[string]any
}

// New returns a StructuredError with the given message, optional cause and
// optional key/value metadata pairs, e.g. "hint", "Run 'sieve init'".
func New(msg string, cause error, fields ...any) *StructuredError {
	return &StructuredError{msg: msg, cause: cause, metadata: toMap(fields)}
}

// With adds metadata to err. If err is a StructuredError, its metadata is
// merged into a copy, with newer keys overwriting older ones.
func With(err error, fields ...any) *StructuredError {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		return &StructuredError{msg: err.Error(), cause: errors.Unwrap(err), metadata: toMap(fields)}
	}

	md := make(map[string]any, len(serr.metadata)+len(fields)/2)
	maps.Copy(md, serr.metadata)
	maps.Copy(md, toMap(fields))

	return &StructuredError{msg: serr.msg, cause: serr.cause, metadata: md}
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Unwrap returns the cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.cause
}

// Metadata returns a copy of the error metadata.
func (e *StructuredError) Metadata() map[string]any {
	return maps.Clone(e.metadata)
}

// Hint returns the "hint" metadata value of err, if any.
func Hint(err error) string {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		return ""
	}
	hint, _ := serr.metadata["hint"].(string)

	return hint
}

// Log logs err with the default slog logger, rendering the metadata of a
// StructuredError as sorted fields.
func Log(err error) {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		slog.Error(err.Error())
		return
	}

	args := make([]any, 0, len(serr.metadata)*2)
	for _, k := range slices.Sorted(maps.Keys(serr.metadata)) {
		args = append(args, k, serr.metadata[k])
	}

	slog.Error(err.Error(), args...)
}

func toMap(fields []any) map[string]any {
	if len(fields)%2 != 0 {
		panic("an even number of fields is required")
	}

	md := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			panic("keys must be strings")
		}
		if fields[i+1] == "" {
			continue
		}
		md[key] = fields[i+1]
	}

	return md
}
