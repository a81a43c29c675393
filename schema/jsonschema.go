package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const jsonSchemaURL = "schema.json"

// JSONSchema validates inputs against a compiled JSON Schema document.
type JSONSchema struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

var _ Schema = (*JSONSchema)(nil)

// JSON compiles the given JSON Schema document. Format assertions (e.g.
// "uuid", "email") are enabled.
func JSON(schemaJSON string) (*JSONSchema, error) {
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(jsonSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed adding schema resource: %w", err)
	}

	sch, err := compiler.Compile(jsonSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed compiling schema: %w", err)
	}

	return &JSONSchema{schema: sch, printer: message.NewPrinter(language.English)}, nil
}

// MustJSON is like JSON, but panics if the schema can't be compiled. It's
// meant for schemas declared as package-level variables.
func MustJSON(schemaJSON string) *JSONSchema {
	s, err := JSON(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse implements the Schema interface. The returned value is the input
// converted to the generic JSON representation (map[string]any, []any,
// float64, string, bool or nil).
func (s *JSONSchema) Parse(input any) (any, error) {
	data, err := normalize(input)
	if err != nil {
		return nil, &Error{Issues: []Issue{{Code: "decode", Message: err.Error()}}}
	}

	// Round-trip through JSON so that typed Go values (e.g. []string) are
	// accepted by the validator.
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, &Error{Issues: []Issue{{Code: "decode", Message: err.Error()}}}
	}
	var value any
	if err = json.Unmarshal(raw, &value); err != nil {
		return nil, &Error{Issues: []Issue{{Code: "decode", Message: err.Error()}}}
	}

	if err = s.schema.Validate(value); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, s.issues(verr)
		}
		return nil, &Error{Issues: []Issue{{Code: "schema", Message: err.Error()}}}
	}

	return value, nil
}

// issues flattens the validation error tree into an *Error with one issue
// per leaf error.
func (s *JSONSchema) issues(verr *jsonschema.ValidationError) *Error {
	result := &Error{}

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				collect(cause)
			}
			return
		}

		code := "schema"
		if kp := e.ErrorKind.KeywordPath(); len(kp) > 0 {
			code = kp[len(kp)-1]
		}
		result.add(
			strings.Join(e.InstanceLocation, "."),
			code,
			e.ErrorKind.LocalizedString(s.printer),
		)
	}
	collect(verr)
	result.sort()

	return result
}
