package services

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindInvalidTransition
	KindConflict
	KindPermissionDenied
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnauthenticated:
		return "unauthenticated"
	}
	return "internal"
}

// Error is the only error type services return to callers. Code is machine
// readable; Message is safe to show to clients except for KindInternal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func notFound(entity string) error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: entity + " not found"}
}

func invalid(code, msg string) error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func conflict(code, msg string, err error) error {
	return &Error{Kind: KindConflict, Code: code, Message: msg, Err: err}
}

func internal(op string, err error) error {
	return &Error{Kind: KindInternal, Code: "internal", Message: op, Err: err}
}

var (
	ErrBarrierBlocked       = &Error{Kind: KindInvalidTransition, Code: "barrier_blocked", Message: "barrier is blocked"}
	ErrConcurrentTransition = &Error{Kind: KindConflict, Code: "concurrent_transition", Message: "barrier state changed concurrently, retry"}
)
