// Package apperr defines kinded errors shared across the ordering core.
//
// Packages declare their own sentinels with New so callers can match them
// with errors.Is, while the transport layer classifies any of them through
// Kind without importing every package.
package apperr

import (
	"context"
	"errors"
)

// Error is a classified domain error.
type Error struct {
	kind string
	msg  string
}

// New returns a kinded error. Each call returns a distinct sentinel.
func New(kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Kind() string  { return e.kind }

// kinder is satisfied by domain errors that carry a classification kind.
type kinder interface {
	Kind() string
}

// Kind returns the classification of err.
// Context errors map to "timeout" and "canceled"; anything unclassified is "internal".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
