// Package record parses streams of 8-byte-header records, the layout shared
// by PowerPoint documents and Office drawing (Escher) data.
//
// Every record starts with info (u16), type (u16) and size (u32). When the
// low nibble of info is 0xF the record is a container whose payload is itself
// a record stream; otherwise it is an atom decoded by the registry.
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/yamitzky/msbin-go/lebin"
)

// HeaderSize is the size of every record header.
const HeaderSize = 8

// ContainerVersion is the version nibble that marks a container.
const ContainerVersion = 0x0F

// Header is a decoded record header.
type Header struct {
	Version  uint8
	Instance uint16
	Type     uint16
	Size     uint32
}

// DecodeHeader reads the record header at off.
func DecodeHeader(buf []byte, off int) (Header, error) {
	if err := lebin.Check(buf, off, HeaderSize); err != nil {
		return Header{}, err
	}
	info := binary.LittleEndian.Uint16(buf[off:])
	return Header{
		Version:  uint8(info & 0x000F),
		Instance: info >> 4,
		Type:     binary.LittleEndian.Uint16(buf[off+2:]),
		Size:     binary.LittleEndian.Uint32(buf[off+4:]),
	}, nil
}

// IsContainer reports whether the record holds child records.
func (h Header) IsContainer() bool { return h.Version == ContainerVersion }

// Append appends the encoded header to b.
func (h Header) Append(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, h.Instance<<4|uint16(h.Version&0x0F))
	b = binary.LittleEndian.AppendUint16(b, h.Type)
	return binary.LittleEndian.AppendUint32(b, h.Size)
}

func (h Header) String() string {
	return fmt.Sprintf("type=0x%04x ver=%d inst=%d size=%d", h.Type, h.Version, h.Instance, h.Size)
}

// Record is either an *Atom or a *Container.
type Record interface {
	RecordHeader() Header
	RecordOffset() int
}

// Atom is a leaf record. Value holds whatever the registered decoder
// produced; Err is set when that decoder failed.
type Atom struct {
	Header  Header
	Offset  int
	Name    string
	Payload []byte
	Value   any
	Err     error
}

func (a *Atom) RecordHeader() Header { return a.Header }
func (a *Atom) RecordOffset() int    { return a.Offset }

// Container is a record whose payload is a list of child records.
type Container struct {
	Header   Header
	Offset   int
	Name     string
	Children []Record
}

func (c *Container) RecordHeader() Header { return c.Header }
func (c *Container) RecordOffset() int    { return c.Offset }

// Unknown is the value of an atom whose type has no registered decoder. It
// keeps the record bytes exactly as read.
type Unknown struct {
	Raw []byte
}

// Bytes returns the header and payload as they appeared in the stream.
func (u *Unknown) Bytes() []byte { return u.Raw }

// Fingerprint returns the BLAKE3 digest of Bytes.
func (u *Unknown) Fingerprint() [32]byte { return blake3.Sum256(u.Raw) }

func (u *Unknown) String() string {
	sum := u.Fingerprint()
	return fmt.Sprintf("unknown %d bytes blake3:%x", len(u.Raw), sum[:8])
}

// Encode re-emits a record from its retained bytes. Container sizes are
// recomputed from the encoded children.
func Encode(rec Record) []byte {
	return appendRecord(nil, rec)
}

func appendRecord(b []byte, rec Record) []byte {
	switch r := rec.(type) {
	case *Atom:
		if u, ok := r.Value.(*Unknown); ok {
			return append(b, u.Raw...)
		}
		h := r.Header
		h.Size = uint32(len(r.Payload))
		b = h.Append(b)
		return append(b, r.Payload...)
	case *Container:
		var body []byte
		for _, child := range r.Children {
			body = appendRecord(body, child)
		}
		h := r.Header
		h.Size = uint32(len(body))
		b = h.Append(b)
		return append(b, body...)
	}
	return b
}

// Walk visits records depth-first, parents before children. Returning a
// non-nil error from fn stops the walk and returns that error.
func Walk(recs []Record, fn func(rec Record, depth int) error) error {
	return walk(recs, 0, fn)
}

func walk(recs []Record, depth int, fn func(Record, int) error) error {
	for _, rec := range recs {
		if err := fn(rec, depth); err != nil {
			return err
		}
		if c, ok := rec.(*Container); ok {
			if err := walk(c.Children, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find returns the first record of the given type, depth-first.
func Find(recs []Record, typ uint16) Record {
	var found Record
	_ = Walk(recs, func(rec Record, _ int) error {
		if rec.RecordHeader().Type == typ {
			found = rec
			return errStop
		}
		return nil
	})
	return found
}
