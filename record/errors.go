package record

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthOverrun is matched by LengthOverrunError.
	ErrLengthOverrun = errors.New("record length overruns its window")

	// ErrDepthExceeded is matched by DepthError.
	ErrDepthExceeded = errors.New("record nesting too deep")

	// ErrCorruptStream is returned for a type 0 record with size 0xFFFF.
	ErrCorruptStream = errors.New("corrupt record stream")

	errStop = errors.New("stop")
)

// LengthOverrunError reports a record whose declared size reaches past the
// end of the enclosing window.
type LengthOverrunError struct {
	Offset int
	Type   uint16
	Size   uint32
	Avail  int
}

func (e *LengthOverrunError) Error() string {
	return fmt.Sprintf("record 0x%04x at offset %d: size %d overruns window (%d bytes left)",
		e.Type, e.Offset, e.Size, e.Avail)
}

func (e *LengthOverrunError) Unwrap() error { return ErrLengthOverrun }

// DepthError reports containers nested deeper than the parser allows.
type DepthError struct {
	Offset int
	Depth  int
	Max    int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("container at offset %d: depth %d exceeds limit %d", e.Offset, e.Depth, e.Max)
}

func (e *DepthError) Unwrap() error { return ErrDepthExceeded }

// RecordError wraps a decoder failure with the record that caused it.
type RecordError struct {
	Offset int
	Type   uint16
	Name   string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s (0x%04x) at offset %d: %v", e.Name, e.Type, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
