// Package schema contains validators for request inputs. A Schema turns a raw
// input (path parameters, query values or a decoded JSON body) into a parsed
// value, or reports every issue it found.
//
// Two implementations are provided: Struct, which decodes the input into a Go
// type and validates it using `validate` struct tags, and JSON, which checks
// the input against a JSON Schema document. Func adapts any function.
package schema
