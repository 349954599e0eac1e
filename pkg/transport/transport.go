// Package transport provides the HTTP layer between the stores and the
// Inkwell REST API: request building, the auth-token header, JSON
// encoding/decoding and the mapping from HTTP status codes to typed errors.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrAuthRequired is returned before any network call when an operation
// needs a token and none is present.
var ErrAuthRequired = errors.New("authentication required")

// Request describes one call against the API. Body and Upload are mutually
// exclusive; Body is JSON-encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Upload, when set, sends a multipart/form-data body instead of JSON.
	Upload *Upload

	// Auth attaches the auth-token header when a token is available.
	Auth bool
}

// Upload is a multipart file upload with optional extra form fields.
type Upload struct {
	Field    string
	Filename string
	Content  io.Reader
	Fields   map[string]string
}

// Transport executes API requests. On a 2xx response the body is decoded
// into out (when out is non-nil); any other outcome is returned as an error
// from this package.
type Transport interface {
	Do(ctx context.Context, req *Request, out any) error
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool { return e.StatusCode == 404 }

// Unauthorized reports whether the server answered 401.
func (e *APIError) Unauthorized() bool { return e.StatusCode == 401 }

// ValidationError is a 4xx response carrying structured field errors.
type ValidationError struct {
	StatusCode int
	Messages   []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
