package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.hackfix.me/sieve/schema"
)

const internalErrorMessage = "Internal server error"

// ErrorHandler converts an error returned by middleware or a business handler
// into a response.
type ErrorHandler func(err error) *Response

// Error represents an HTTP error with status code and message. Returning it
// from middleware or business handlers allows ErrorResponder to map it to a
// response with the same status code.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error returns the error message string.
func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the specified status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}

// WrapError creates a new Error that wraps err.
func WrapError(statusCode int, message string, err error) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// Source identifies the request input a schema validates.
type Source string

// Request input sources, in the order they're validated.
const (
	SourceParams Source = "params"
	SourceQuery  Source = "query"
	SourceBody   Source = "body"
)

// ValidationError is the result of a request input failing its schema.
type ValidationError struct {
	Source Source
	Issues []schema.Issue
}

// Error returns the message sent to clients, e.g.
// "Invalid query: search: must be at least 1 characters".
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("Invalid %s: %s", e.Source, strings.Join(msgs, "; "))
}

func (e *ValidationError) response() *Response {
	resp, err := JSON(http.StatusBadRequest, validationBody{
		Message: e.Error(),
		Source:  e.Source,
		Issues:  e.Issues,
	})
	if err != nil {
		return Text(http.StatusBadRequest, e.Error())
	}
	return resp
}

// PanicError wraps a value recovered from a panic in a handler stage.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type errorBody struct {
	Message string `json:"message"`
}

type validationBody struct {
	Message string         `json:"message"`
	Source  Source         `json:"source"`
	Issues  []schema.Issue `json:"issues"`
}

// ErrorLevel is the amount of error detail returned to clients.
type ErrorLevel string

// Valid error levels.
const (
	// ErrorLevelNone replaces all error messages with the status text.
	ErrorLevelNone ErrorLevel = "none"
	// ErrorLevelMinimal keeps messages of client errors (4xx), and replaces
	// the ones of server errors with a generic message.
	ErrorLevelMinimal ErrorLevel = "minimal"
	// ErrorLevelFull keeps all error messages intact.
	ErrorLevelFull ErrorLevel = "full"
)

// ErrorLevelFromString returns the ErrorLevel named by s.
func ErrorLevelFromString(s string) (ErrorLevel, error) {
	switch lvl := ErrorLevel(strings.ToLower(s)); lvl {
	case ErrorLevelNone, ErrorLevelMinimal, ErrorLevelFull:
		return lvl, nil
	default:
		return "", fmt.Errorf("invalid error level '%s'", s)
	}
}

// ErrorResponder returns an ErrorHandler that maps *Error values to a JSON
// response with their status code, and any other error to a 500 response.
// Messages are sanitized according to level.
func ErrorResponder(level ErrorLevel) ErrorHandler {
	return func(err error) *Response {
		var (
			terr       *Error
			statusCode = http.StatusInternalServerError
			message    = internalErrorMessage
		)
		switch {
		case errors.As(err, &terr) && terr != nil:
			if terr.StatusCode != 0 {
				statusCode = terr.StatusCode
			}
			message = terr.Message
		case level == ErrorLevelFull:
			message = err.Error()
		}

		return messageResponse(statusCode, sanitizeMessage(message, statusCode, level))
	}
}

func sanitizeMessage(message string, statusCode int, level ErrorLevel) string {
	switch level {
	case ErrorLevelFull:
		return message
	case ErrorLevelNone:
		return http.StatusText(statusCode)
	default:
		if statusCode >= http.StatusInternalServerError {
			return internalErrorMessage
		}
		return message
	}
}

// defaultErrorHandler hides all error details from clients.
func defaultErrorHandler(error) *Response {
	return messageResponse(http.StatusInternalServerError, internalErrorMessage)
}
