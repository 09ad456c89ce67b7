package apperrors

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	KindValidation         Kind = "INVALID_INPUT"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindScoringUnavailable Kind = "SCORING_UNAVAILABLE"
	KindStorage            Kind = "STORAGE"
	KindInternal           Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.Stack
}

func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Validation(message string, err error) *Error {
	return New(KindValidation, message, err)
}

func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

func Conflict(message string, err error) *Error {
	return New(KindConflict, message, err)
}

func Unauthorized(message string, err error) *Error {
	return New(KindUnauthorized, message, err)
}

func ScoringUnavailable(message string, err error) *Error {
	return New(KindScoringUnavailable, message, err)
}

func Storage(message string, err error) *Error {
	return New(KindStorage, message, err)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf extracts the classification from any error in the chain,
// defaulting to KindInternal for unclassified failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
