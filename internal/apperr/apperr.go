// Package apperr classifies console failures so callers can decide what the
// operator sees and what only goes to the log.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// ErrDeclined is returned when the operator answers no to a confirmation.
var ErrDeclined = errors.New("operator declined confirmation")

const (
	KindPrecondition = "precondition"
	KindValidation   = "validation"
	KindTransport    = "transport"
	KindBusiness     = "business"
	KindDeclined     = "declined"
	KindTimeout      = "timeout"
	KindCanceled     = "canceled"
	KindInternal     = "internal"
)

// kinder is satisfied by every error type in this package.
type kinder interface {
	Kind() string
}

// timeouter matches net.Error and *url.Error without importing net.
type timeouter interface {
	Timeout() bool
}

// PreconditionError reports missing markup or form metadata.
type PreconditionError struct {
	What string
}

func (e *PreconditionError) Error() string { return "precondition failed: " + e.What }
func (e *PreconditionError) Kind() string  { return KindPrecondition }

// Precondition builds a PreconditionError.
func Precondition(format string, args ...any) error {
	return &PreconditionError{What: fmt.Sprintf(format, args...)}
}

// Field names a card-secret input column.
type Field string

const (
	FieldCardNo  Field = "cardNo"
	FieldCardPwd Field = "cardPwd"
)

// ValidationError names the first offending slot of a card batch. Slot is 1-based.
type ValidationError struct {
	Slot   int
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("slot %d: %s", e.Slot, e.Reason)
	}
	return fmt.Sprintf("slot %d %s: %s", e.Slot, e.Field, e.Reason)
}

func (e *ValidationError) Kind() string { return KindValidation }

// TransportError covers network failures, non-2xx statuses and bodies that do
// not match the expected shape. Status is zero when no response was read.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Kind() string  { return KindTransport }

// BusinessError is a well-formed backend answer with success=false.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string { return "rejected by backend: " + e.Message }
func (e *BusinessError) Kind() string  { return KindBusiness }

// Kind returns the classification of err. Deadline and cancellation are
// reported as such even when wrapped in a TransportError.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDeclined):
		return KindDeclined
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	var te timeouter
	if errors.As(err, &te) && te.Timeout() {
		return KindTimeout
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// IsTransport reports whether err belongs to the transport class, timeouts included.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
