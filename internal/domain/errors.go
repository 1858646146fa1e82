package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the HTTP boundary can pick a status code
// without knowing which layer produced the error.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to return to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

// KindOf returns the kind of the first classified error in err's chain.
// Deadline expiry is reported as KindUnavailable so callers can retry.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "storage timeout, please retry"
	}
	return "internal server error"
}

var (
	ErrUserNotFound       = NotFound("user not found")
	ErrEmailTaken         = Conflict("user with this email already exists")
	ErrPhoneTaken         = Conflict("user with this phone already exists")
	ErrInvalidCredentials = Unauthorized("invalid email or password")

	ErrCategoryNotFound = NotFound("category not found")
	ErrInvalidCategory  = Validation("invalid category")
	ErrProductNotFound  = NotFound("product not found")
	ErrImageRequired    = Validation("image is required")
	ErrInvalidImageType = Validation("invalid image type")

	ErrOrderNotFound        = NotFound("order not found")
	ErrCancelDelivered      = Validation("cannot cancel a delivered order")
	ErrEmptyCart            = Validation("order must contain at least one item")
	ErrInvalidQuantity      = Validation("quantity must be a positive integer")
	ErrQuantityTooLarge     = Validation("quantity must be at most %d", MaxQuantity)
	ErrOrderTotalTooLarge   = Validation("order total must be less than %s", MaxOrderTotal)
	ErrInvalidOrderState    = Validation("unknown order state")
	ErrOrderAccessForbidden = Forbidden("order belongs to another user")
)
