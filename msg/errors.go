package msg

import (
	"errors"
	"fmt"
)

var (
	// ErrBadName is matched by NameError.
	ErrBadName = errors.New("malformed property stream name")

	// ErrNotFound is returned by accessors when the message lacks the
	// chunks they read.
	ErrNotFound = errors.New("chunk not found")
)

// NameError reports a stream whose name is not a property stream name.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("msg: bad property stream name %q", e.Name)
}

func (e *NameError) Unwrap() error { return ErrBadName }

// EntryError reports a stream that could not be decoded. The rest of the
// message is still grouped.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("msg: %s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
