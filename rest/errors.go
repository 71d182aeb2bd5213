package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema"
)

var (
	// ErrMethodNotAllowed is returned by hooks a resource does not implement
	// and for verbs the dispatcher does not know.
	ErrMethodNotAllowed = &Error{http.StatusMethodNotAllowed, "Method Not Allowed", nil}
	// ErrEntityMethodNotAllowed is returned for a POST on a member route.
	ErrEntityMethodNotAllowed = &Error{http.StatusMethodNotAllowed, "Method Not Allowed for Entity", nil}
	// ErrNotFound is returned when the identifier does not resolve to a stored
	// entity.
	ErrNotFound = &Error{http.StatusNotFound, "Entity Not Found", nil}
	// ErrUnauthorized is returned when the credentials are missing or
	// invalid.
	ErrUnauthorized = &Error{http.StatusUnauthorized, "Not Authorized", nil}
	// ErrConflict happens when an entity with the same id already exists.
	ErrConflict = &Error{http.StatusConflict, "Conflict", nil}
	// ErrClientClosedRequest is returned when the client closed the connection
	// before the server was able to finish processing the request.
	ErrClientClosedRequest = &Error{499, "Client Closed Request", nil}
	// ErrNotImplemented happens when a requested feature is not implemented.
	ErrNotImplemented = &Error{http.StatusNotImplemented, "Not Implemented", nil}
	// ErrUnavailable is returned when the storage can't be reached.
	ErrUnavailable = &Error{http.StatusServiceUnavailable, "Service Unavailable", nil}
	// ErrGatewayTimeout is returned when the specified timeout for the request
	// has been reached before the server was able to process it.
	ErrGatewayTimeout = &Error{http.StatusGatewayTimeout, "Deadline Exceeded", nil}
	// ErrInternal is returned for contract violations such as rendering
	// something that is neither an entity nor a collection.
	ErrInternal = &Error{http.StatusInternalServerError, "Internal Server Error", nil}
)

// Error defines a REST error with optional per fields error details.
type Error struct {
	// Code defines the error code to be used for the error and for the HTTP
	// status.
	Code int
	// Message is the error message.
	Message string
	// Issues holds per fields errors if any.
	Issues map[string][]interface{}
}

// NewValidationError returns a 422 error carrying the per field messages.
func NewValidationError(errs schema.ErrorMap) *Error {
	return &Error{http.StatusUnprocessableEntity, "Unprocessable Entity", errs}
}

// NewError returns a rest.Error from an standard error.
//
// If the the inputted error is recognized, the appropriate rest.Error is
// mapped. Unknown errors become 500 errors.
func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var errs schema.ErrorMap
	if errors.As(err, &errs) {
		return NewValidationError(errs)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ErrClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return ErrGatewayTimeout
	case errors.Is(err, mapper.ErrConflict):
		return ErrConflict
	case errors.Is(err, mapper.ErrNotImplemented):
		return ErrNotImplemented
	case errors.Is(err, mapper.ErrUnavailable):
		return &Error{http.StatusServiceUnavailable, err.Error(), nil}
	default:
		return &Error{http.StatusInternalServerError, err.Error(), nil}
	}
}

// Error returns the error as string
func (e *Error) Error() string {
	return e.Message
}
