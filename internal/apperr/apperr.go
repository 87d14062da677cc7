// Package apperr is the error taxonomy shared by the cart, checkout and statistics
// services. Handlers map a Kind to an HTTP status; the wrapped cause is logged, never
// returned to clients.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Unknown          Kind = ""
	Unauthenticated  Kind = "unauthenticated"
	Forbidden        Kind = "forbidden"
	NotFound         Kind = "not_found"
	InvalidInput     Kind = "invalid_input"
	EmptyCart        Kind = "empty_cart"
	InventoryDrift   Kind = "inventory_drift"
	InvalidCode      Kind = "invalid_code"
	CodeExpired      Kind = "code_expired"
	AlreadyFinalized Kind = "already_finalized"
	Unavailable      Kind = "unavailable"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a client-safe message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a cause to a client-safe message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Message returns the client-safe message of err, or a generic one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "internal server error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
