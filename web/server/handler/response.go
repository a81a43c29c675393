package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the HTTP response produced by a route.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse returns a response with the given status code and body.
func NewResponse(statusCode int, body []byte) *Response {
	return &Response{StatusCode: statusCode, Header: http.Header{}, Body: body}
}

// JSON returns a response with v encoded as JSON. The return values can be
// returned directly from a business handler.
func JSON(statusCode int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed marshalling response into JSON: %w", err)
	}

	resp := NewResponse(statusCode, data)
	resp.Header.Set("Content-Type", "application/json")

	return resp, nil
}

// Text returns a plain text response.
func Text(statusCode int, text string) *Response {
	resp := NewResponse(statusCode, []byte(text))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// messageResponse returns a JSON response with a single "message" field. It
// can't fail, so it's used on error paths.
func messageResponse(statusCode int, message string) *Response {
	resp, err := JSON(statusCode, errorBody{Message: message})
	if err != nil {
		return Text(statusCode, message)
	}
	return resp
}

// Write writes the response headers, status code and body to w.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, vals := range r.Header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}

	if len(r.Body) > 0 && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/octet-stream")
	}

	statusCode := r.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)

	return err //nolint:wrapcheck // Wrapped by caller.
}
