package domain

import "errors"

// Kind classifies errors surfaced to callers
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// Error carries a stable Kind plus a human message.
// errors.Is(err, ErrNotFound) matches every not_found error; specific
// errors such as ErrShortCodeTaken only match themselves.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	generic bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.generic && t.Kind == e.Kind
}

// Sentinels, one per kind
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput, Message: "invalid input", generic: true}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict", generic: true}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized", generic: true}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden", generic: true}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found", generic: true}
	ErrInternal     = &Error{Kind: KindInternal, Message: "internal error", generic: true}
)

var (
	ErrInvalidURL              = &Error{Kind: KindInvalidInput, Message: "invalid url"}
	ErrCodeGenerationExhausted = &Error{Kind: KindInternal, Message: "could not allocate a unique short code"}
	ErrShortCodeTaken          = &Error{Kind: KindConflict, Message: "short code already in use"}
	ErrEmailTaken              = &Error{Kind: KindConflict, Message: "a user with this email already exists"}
	ErrInvalidCredentials      = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
)

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the message safe to show a caller.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Message
	}
	return "internal server error"
}
