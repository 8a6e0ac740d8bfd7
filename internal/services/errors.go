package services

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Compare with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNotFound         = errors.New("order not found")
	ErrPersistence      = errors.New("storage unavailable, please try again")
	ErrInvalidPromoCode = errors.New("invalid promo code")
)

// Error describes a failed operation. errors.Is matches its Kind as well as
// anything in the wrapped Err chain.
type Error struct {
	Op    string // operation that failed, e.g. "orders.Create"
	Kind  error  // one of the sentinel kinds above
	ID    string // entity involved, if any
	Field string // offending input field for validation failures
	Err   error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Field != "" && e.Err != nil:
		msg = fmt.Sprintf("%s: %v", e.Field, e.Err)
	case e.Field != "":
		msg = fmt.Sprintf("%s: %v", e.Field, e.Kind)
	case e.Err != nil:
		msg = fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		msg = e.Kind.Error()
	}

	if e.ID != "" {
		msg = fmt.Sprintf("[%s] %s", e.ID, msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Message is the text safe to show to a shopper.
func (e *Error) Message() string {
	switch {
	case errors.Is(e.Kind, ErrPersistence):
		return ErrPersistence.Error()
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s %v", e.Field, e.Err)
	case e.Err != nil && e.Kind == ErrValidation:
		return e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

func validationError(op, field, reason string) *Error {
	return &Error{Op: op, Kind: ErrValidation, Field: field, Err: errors.New(reason)}
}

func persistenceError(op, id string, err error) *Error {
	return &Error{Op: op, Kind: ErrPersistence, ID: id, Err: err}
}
