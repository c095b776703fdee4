package biff

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/yamitzky/msbin-go/lebin"
)

// sstReader reads across the SST record and its CONTINUE records. A string
// split over a boundary resumes after a fresh option byte that says whether
// the rest is compressed.
type sstReader struct {
	segs [][]byte
	seg  int
	pos  int
}

func (r *sstReader) data() []byte { return r.segs[r.seg] }

func (r *sstReader) advance() error {
	if r.seg+1 >= len(r.segs) {
		return fmt.Errorf("SST: %w", lebin.ErrTruncated)
	}
	r.seg++
	r.pos = 0
	return nil
}

// fixed reads n bytes that may not straddle a record boundary.
func (r *sstReader) fixed(n int) ([]byte, error) {
	if r.pos >= len(r.data()) {
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	b, err := lebin.Slice(r.data(), r.pos, n)
	if err != nil {
		return nil, err
	}
	r.pos += n
	return b, nil
}

// skip moves past n bytes, crossing boundaries as needed.
func (r *sstReader) skip(n int) error {
	for n > 0 {
		avail := len(r.data()) - r.pos
		if avail >= n {
			r.pos += n
			return nil
		}
		n -= avail
		if err := r.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (r *sstReader) str() (string, error) {
	head, err := r.fixed(3)
	if err != nil {
		return "", err
	}
	nchars := int(head[0]) | int(head[1])<<8
	options := head[2]
	var richRuns, phoneticSize int
	if options&0x08 != 0 {
		b, err := r.fixed(2)
		if err != nil {
			return "", err
		}
		richRuns = int(b[0]) | int(b[1])<<8
	}
	if options&0x04 != 0 {
		b, err := r.fixed(4)
		if err != nil {
			return "", err
		}
		sz, _ := lebin.Uint32(b, 0)
		phoneticSize = int(sz)
	}

	var out []byte
	got := 0
	for {
		need := nchars - got
		avail := len(r.data()) - r.pos
		var chunk []byte
		var n int
		if options&0x01 != 0 {
			n = min(avail/2, need)
			chunk, err = decodeBytes(utf16le.NewDecoder().Bytes, r.data()[r.pos:r.pos+2*n])
			r.pos += 2 * n
		} else {
			n = min(avail, need)
			chunk, err = decodeBytes(charmap.ISO8859_1.NewDecoder().Bytes, r.data()[r.pos:r.pos+n])
			r.pos += n
		}
		if err != nil {
			return "", err
		}
		out = append(out, chunk...)
		got += n
		if got == nchars {
			break
		}
		if err := r.advance(); err != nil {
			return "", err
		}
		opt, err := r.fixed(1)
		if err != nil {
			return "", err
		}
		options = options&^0x01 | opt[0]&0x01
	}

	if err := r.skip(4*richRuns + phoneticSize); err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeBytes(fn func([]byte) ([]byte, error), b []byte) ([]byte, error) {
	out, err := fn(b)
	if err != nil {
		return nil, fmt.Errorf("SST: %w", err)
	}
	return out, nil
}

func decodeSST(p []byte, continues [][]byte) (*SST, error) {
	if err := lebin.Check(p, 0, 8); err != nil {
		return nil, err
	}
	total, _ := lebin.Uint32(p, 0)
	unique, _ := lebin.Uint32(p, 4)
	r := &sstReader{segs: append([][]byte{p}, continues...), pos: 8}
	sst := &SST{Total: total, Strings: make([]string, 0, min(int(unique), 1<<16))}
	for i := 0; i < int(unique); i++ {
		s, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("shared string %d: %w", i, err)
		}
		sst.Strings = append(sst.Strings, s)
	}
	return sst, nil
}
