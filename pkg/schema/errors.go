package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage is wrapped by every structural parse failure.
var ErrInvalidMessage = errors.New("invalid message")

// Error describes where a document failed to parse.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid message: %s", e.Reason)
	}
	return fmt.Sprintf("invalid message at %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalidMessage }

func invalid(path, format string, args ...any) error {
	return &Error{Path: path, Reason: fmt.Sprintf(format, args...)}
}
