package biff

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

// RecordHeaderSize is the size of the sid and length words before each
// record's data.
const RecordHeaderSize = 4

// RawRecord is one undecoded BIFF record. CONTINUE records that follow it
// are kept as separate slices in Continues.
type RawRecord struct {
	Sid       uint16
	Offset    int
	Data      []byte
	Continues [][]byte
}

// Reader walks the records of an in-memory BIFF stream.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the offset of the next record.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) recordParts() (uint16, int, []byte, error) {
	off := r.pos
	sid, err := lebin.Uint16(r.buf, off)
	if err != nil {
		return 0, off, nil, err
	}
	length, err := lebin.Uint16(r.buf, off+2)
	if err != nil {
		return 0, off, nil, err
	}
	data, err := lebin.Slice(r.buf, off+RecordHeaderSize, int(length))
	if err != nil {
		return sid, off, nil, &record.LengthOverrunError{
			Offset: off,
			Type:   sid,
			Size:   uint32(length),
			Avail:  len(r.buf) - off - RecordHeaderSize,
		}
	}
	r.pos = off + RecordHeaderSize + int(length)
	return sid, off, data, nil
}

// Next returns the next record with its CONTINUE records attached. It
// returns io.EOF once the buffer is used up.
func (r *Reader) Next() (*RawRecord, error) {
	if r.pos >= len(r.buf) {
		return nil, io.EOF
	}
	sid, off, data, err := r.recordParts()
	if err != nil {
		return nil, fmt.Errorf("biff record at offset %d: %w", off, err)
	}
	raw := &RawRecord{Sid: sid, Offset: off, Data: data}
	for r.pos+RecordHeaderSize <= len(r.buf) {
		next, _ := lebin.Uint16(r.buf, r.pos)
		if next != SidContinue {
			break
		}
		_, coff, cdata, err := r.recordParts()
		if err != nil {
			return nil, fmt.Errorf("biff CONTINUE at offset %d: %w", coff, err)
		}
		raw.Continues = append(raw.Continues, cdata)
	}
	return raw, nil
}

// All yields every raw record. Iteration stops after the first error.
func (r *Reader) All() iter.Seq2[*RawRecord, error] {
	return func(yield func(*RawRecord, error) bool) {
		for {
			raw, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(raw, err) || err != nil {
				return
			}
		}
	}
}

// Records decodes every record of buf in order. Iteration stops after the
// first error.
func Records(buf []byte) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var d Decoder
		for raw, err := range NewReader(buf).All() {
			if err != nil {
				yield(nil, err)
				return
			}
			rec, err := d.Decode(raw)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}
