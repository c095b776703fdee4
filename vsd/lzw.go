package vsd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrOutputLimit is returned when decompressed output would exceed the
// caller's limit.
var ErrOutputLimit = errors.New("decompressed output exceeds limit")

const (
	ringSize = 4096
	ringMask = ringSize - 1
)

// Decompress expands a Visio LZ-compressed stream. Each flag byte governs
// the next eight codes: a set bit is a literal byte, a clear bit a two-byte
// back-reference into a 4096-byte ring. A limit of zero or less means no
// limit. A stream that ends mid-code stops quietly, as Visio writers pad
// the final flag group.
func Decompress(r io.Reader, limit int) ([]byte, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var ring [ringSize]byte
	var out []byte
	pos := 0

	emit := func(b byte) error {
		if limit > 0 && len(out) >= limit {
			return fmt.Errorf("%w (%d bytes)", ErrOutputLimit, limit)
		}
		ring[pos&ringMask] = b
		pos++
		out = append(out, b)
		return nil
	}

	for {
		flag, err := br.ReadByte()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		for mask := 1; mask < 0x100; mask <<= 1 {
			if int(flag)&mask != 0 {
				b, err := br.ReadByte()
				if err == io.EOF {
					return out, nil
				}
				if err != nil {
					return out, err
				}
				if err := emit(b); err != nil {
					return out, err
				}
				continue
			}

			lo, err := br.ReadByte()
			if err == io.EOF {
				return out, nil
			}
			if err != nil {
				return out, err
			}
			hi, err := br.ReadByte()
			if err == io.EOF {
				return out, nil
			}
			if err != nil {
				return out, err
			}

			length := int(hi&0x0f) + 3
			pntr := int(hi&0xf0)<<4 | int(lo)
			if pntr > 4078 {
				pntr -= 4078
			} else {
				pntr += 18
			}
			for i := 0; i < length; i++ {
				if err := emit(ring[(pntr+i)&ringMask]); err != nil {
					return out, err
				}
			}
		}
	}
}
