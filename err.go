package inkwell

import (
	"fmt"

	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

// ErrAuthRequired is returned by every mutation when no token is present.
// No network call is made in that case.
var ErrAuthRequired = transport.ErrAuthRequired

// APIError is re-exported from the transport layer: any non-2xx response
// that is not a structured validation failure.
type APIError = transport.APIError

// ValidationError is re-exported from the transport layer: a 4xx response
// with field errors, joined into one human-readable message.
type ValidationError = transport.ValidationError

// NotFoundError is a 404 mapped to a domain-specific message, e.g.
// "Category not found" rather than generic HTTP text.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

// notFoundOr maps a transport 404 onto a domain NotFoundError and passes
// every other error through.
func notFoundOr(err error, what string) error {
	if transport.IsNotFound(err) {
		return &NotFoundError{What: what}
	}
	return err
}
