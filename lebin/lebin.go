// Package lebin provides bounds-checked little-endian reads over in-memory
// buffers. Every decoder in this module reads through it.
package lebin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is matched by every TruncatedError.
var ErrTruncated = errors.New("truncated data")

// TruncatedError reports a fixed-width read that would run past the end of
// the buffer.
type TruncatedError struct {
	Offset int
	Want   int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated data: need %d bytes at offset %d, buffer has %d", e.Want, e.Offset, e.Have)
}

// Unwrap lets errors.Is match ErrTruncated.
func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}

// Check returns a TruncatedError unless width bytes are readable at off.
func Check(buf []byte, off, width int) error {
	if off < 0 || width < 0 || off > len(buf) || len(buf)-off < width {
		return &TruncatedError{Offset: off, Want: width, Have: len(buf)}
	}
	return nil
}

// Uint8 reads one byte at off.
func Uint8(buf []byte, off int) (uint8, error) {
	if err := Check(buf, off, 1); err != nil {
		return 0, err
	}
	return buf[off], nil
}

// Uint16 reads a little-endian uint16 at off.
func Uint16(buf []byte, off int) (uint16, error) {
	if err := Check(buf, off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[off:]), nil
}

// Int16 reads a little-endian int16 at off.
func Int16(buf []byte, off int) (int16, error) {
	v, err := Uint16(buf, off)
	return int16(v), err
}

// Uint32 reads a little-endian uint32 at off.
func Uint32(buf []byte, off int) (uint32, error) {
	if err := Check(buf, off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[off:]), nil
}

// Int32 reads a little-endian int32 at off.
func Int32(buf []byte, off int) (int32, error) {
	v, err := Uint32(buf, off)
	return int32(v), err
}

// Uint64 reads a little-endian uint64 at off.
func Uint64(buf []byte, off int) (uint64, error) {
	if err := Check(buf, off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[off:]), nil
}

// Int64 reads a little-endian int64 at off.
func Int64(buf []byte, off int) (int64, error) {
	v, err := Uint64(buf, off)
	return int64(v), err
}

// Float64 reads a little-endian IEEE-754 double at off.
func Float64(buf []byte, off int) (float64, error) {
	v, err := Uint64(buf, off)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Slice returns buf[off:off+n] without copying.
func Slice(buf []byte, off, n int) ([]byte, error) {
	if err := Check(buf, off, n); err != nil {
		return nil, err
	}
	return buf[off : off+n], nil
}
