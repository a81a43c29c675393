package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// StructSchema decodes inputs into values of type T, and validates them with
// the `validate` struct tags supported by go-playground/validator. Field names
// are taken from `json` struct tags, both when decoding and in reported issues.
type StructSchema[T any] struct {
	validate    *validator.Validate
	strict      bool
	strictTypes bool
}

var _ Schema = (*StructSchema[struct{}])(nil)

// StructOption configures a StructSchema.
type StructOption func(*structConfig)

type structConfig struct {
	strict      bool
	strictTypes bool
}

// Strict makes the schema reject input keys that don't map to a field of the
// target type. By default they are ignored.
func Strict() StructOption {
	return func(cfg *structConfig) {
		cfg.strict = true
	}
}

// StrictTypes disables the conversion of input values to the field types, so
// that e.g. a JSON number is rejected for a string field. Numbers are still
// accepted for any numeric field. Use it for JSON bodies, where the input
// already carries its own types.
func StrictTypes() StructOption {
	return func(cfg *structConfig) {
		cfg.strictTypes = true
	}
}

// Struct returns a schema that parses inputs into T. Unless StrictTypes is
// given, input strings are converted to the field types where possible, so it
// can be used for path parameters and query values as well as JSON bodies.
func Struct[T any](opts ...StructOption) *StructSchema[T] {
	cfg := &structConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	return &StructSchema[T]{validate: v, strict: cfg.strict, strictTypes: cfg.strictTypes}
}

// Parse implements the Schema interface. It returns a value of type T.
func (s *StructSchema[T]) Parse(input any) (any, error) {
	data, err := normalize(input)
	if err != nil {
		return nil, &Error{Issues: []Issue{{Code: "decode", Message: err.Error()}}}
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: !s.strictTypes,
		ErrorUnused:      s.strict,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed creating decoder: %w", err)
	}

	if err = dec.Decode(data); err != nil {
		return nil, decodeError(err)
	}

	if err = s.validateValue(out); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *StructSchema[T]) validateValue(val any) error {
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := s.validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Issues: []Issue{{Code: "invalid", Message: err.Error()}}}
	}

	result := &Error{}
	for _, e := range verrs {
		// Strip the top struct name from the namespace.
		path := e.Namespace()
		if _, rest, found := strings.Cut(path, "."); found {
			path = rest
		}
		result.add(path, e.Tag(), tagErrorMessage(e))
	}
	result.sort()

	return result
}

// decodeError converts decoding errors into an *Error with one issue per
// failed field. mapstructure wraps joined field errors in a single-error
// layer, so both kinds of wrapping are walked until a *DecodeError is found.
func decodeError(err error) *Error {
	result := &Error{}

	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, child := range joined.Unwrap() {
				walk(child)
			}
			return
		}

		if derr, ok := e.(*mapstructure.DecodeError); ok {
			addDecodeIssues(result, derr, walk)
			return
		}

		if inner := errors.Unwrap(e); inner != nil {
			walk(inner)
			return
		}

		result.add("", "type", e.Error())
	}
	walk(err)
	result.sort()

	return result
}

func addDecodeIssues(result *Error, derr *mapstructure.DecodeError, walk func(error)) {
	inner := derr.Unwrap()

	var (
		joined interface{ Unwrap() []error }
		nested *mapstructure.DecodeError
	)
	if errors.As(inner, &joined) || errors.As(inner, &nested) {
		walk(inner)
		return
	}

	msg := inner.Error()
	if keys, ok := strings.CutPrefix(msg, "has invalid keys: "); ok {
		for _, key := range strings.Split(keys, ", ") {
			result.add(joinPath(derr.Name(), key), "unknown", "is not allowed")
		}
		return
	}

	var (
		perr *mapstructure.ParseError
		uerr *mapstructure.UnconvertibleTypeError
	)
	switch {
	case errors.As(inner, &perr):
		msg = fmt.Sprintf("must be a valid %s", perr.Expected.Type())
	case errors.As(inner, &uerr):
		msg = fmt.Sprintf("must be a valid %s", uerr.Expected.Type())
	}
	result.add(derr.Name(), "type", msg)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// tagErrorMessage returns a human-readable message for a failed validation tag.
func tagErrorMessage(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4", "uuid_rfc4122", "uuid4_rfc4122":
		return "must be a valid UUID"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "len":
		if isString {
			return fmt.Sprintf("must be exactly %s characters", e.Param())
		}
		return fmt.Sprintf("must have length %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "alphanum":
		return "must contain only letters and numbers"
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}
