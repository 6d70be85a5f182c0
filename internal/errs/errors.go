package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Unauthenticated Kind = iota
	Forbidden
	NotFound
	InvalidState
	Internal
)

// Error separates what the client is told from what is logged. Handlers send
// Public; Internal and the wrapped error stay server-side.
type Error struct {
	Kind     Kind
	Public   string
	Internal string
	Err      error
}

func (e *Error) Error() string {
	if e.Internal != "" {
		return e.Internal
	}
	return e.Public
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, public string) *Error {
	return &Error{Kind: kind, Public: public, Internal: public}
}

func Wrap(kind Kind, public string, err error) *Error {
	return &Error{
		Kind:     kind,
		Public:   public,
		Internal: fmt.Sprintf("%s: %v", public, err),
		Err:      err,
	}
}

// AsError extracts a classified error, defaulting anything unclassified to an
// Internal error with a generic public message.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Kind:     Internal,
		Public:   "internal server error",
		Internal: err.Error(),
		Err:      err,
	}
}
