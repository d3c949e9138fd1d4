package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so controllers can pick an HTTP status
// without string-matching messages.
type Kind int

const (
	NotFound Kind = iota + 1
	PermissionDenied
	InvalidState
	Validation
	AlreadySet
	Expired
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 for non-domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }
