package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller's boundary.
type Kind string

const (
	KindValidation  Kind = "validation_error"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "store_unavailable"
	KindInternal    Kind = "internal"
)

// Error carries a kind and a human message that can be rendered to a user.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrStoreUnavailable = &Error{Kind: KindUnavailable}
	ErrInternal         = &Error{Kind: KindInternal}
)

// Validation wraps a validation sentinel (e.g. ErrInvalidAmount) as a ValidationError.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Message: "store unavailable", Err: err}
}

// Internal hides the cause from the rendered message; the cause stays reachable
// through Unwrap for logging.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Message: "internal error", Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// PublicMessage is the message safe to show to a user.
func PublicMessage(err error) string {
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind == KindInternal {
		return "internal error"
	}
	if ce.Message != "" {
		return ce.Message
	}
	return string(ce.Kind)
}
