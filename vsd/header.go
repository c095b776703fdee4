// Package vsd decodes the chunk streams of the legacy Visio binary format.
//
// A chunk is a header, its content bytes, and an optional 8-byte trailer and
// 4-byte separator. Whether a trailer or separator follows the content is
// decided from the header alone, by rules that differ per file version.
package vsd

import (
	"errors"
	"fmt"

	"github.com/yamitzky/msbin-go/lebin"
)

// ErrUnsupportedVersion is returned for file versions this package cannot read.
var ErrUnsupportedVersion = errors.New("unsupported visio version")

// HeaderKind identifies which set of header rules applies.
type HeaderKind int

const (
	HeaderV4V5 HeaderKind = iota
	HeaderV6
	HeaderV11
)

func (k HeaderKind) String() string {
	switch k {
	case HeaderV4V5:
		return "v4/v5"
	case HeaderV6:
		return "v6"
	case HeaderV11:
		return "v11"
	}
	return fmt.Sprintf("HeaderKind(%d)", int(k))
}

// Header sizes in bytes.
const (
	HeaderSizeV4V5 = 12
	HeaderSizeV6   = 19
	TrailerSize    = 8
	SeparatorSize  = 4
)

// ChunkHeader is one decoded chunk header. Unknown2 and Unknown3 are
// undocumented; they take part in the v11 separator rules.
type ChunkHeader struct {
	Kind     HeaderKind
	Type     uint32
	ID       uint32
	Length   uint32
	Unknown1 uint32
	Unknown2 int16
	Unknown3 uint8
}

// DecodeChunkHeader reads the chunk header at offset for the given file
// version. Version 5 and anything older is rejected.
func DecodeChunkHeader(version int, buf []byte, offset int) (ChunkHeader, error) {
	switch {
	case version >= 6:
		kind := HeaderV6
		if version > 6 {
			kind = HeaderV11
		}
		return decodeV6(kind, buf, offset)
	case version == 5:
		return ChunkHeader{}, fmt.Errorf("%w: version 5 chunk headers are not yet supported", ErrUnsupportedVersion)
	default:
		return ChunkHeader{}, fmt.Errorf("%w: versions below 5 are not supported, got %d", ErrUnsupportedVersion, version)
	}
}

func decodeV6(kind HeaderKind, buf []byte, offset int) (ChunkHeader, error) {
	if err := lebin.Check(buf, offset, HeaderSizeV6); err != nil {
		return ChunkHeader{}, fmt.Errorf("chunk header: %w", err)
	}
	c := lebin.NewCursor(buf, offset)
	h := ChunkHeader{Kind: kind}
	// The size check above covers every read below.
	h.Type, _ = c.U32()
	h.ID, _ = c.U32()
	h.Unknown1, _ = c.U32()
	h.Length, _ = c.U32()
	h.Unknown2, _ = c.I16()
	h.Unknown3, _ = c.U8()
	return h, nil
}

// DecodeChunkHeaderV4V5 reads the 12-byte header layout of Visio 4 and 5
// files. DecodeChunkHeader never selects it; a ChunkFactory only uses it
// when built with WithLegacyHeaders.
func DecodeChunkHeaderV4V5(buf []byte, offset int) (ChunkHeader, error) {
	if err := lebin.Check(buf, offset, HeaderSizeV4V5); err != nil {
		return ChunkHeader{}, fmt.Errorf("chunk header: %w", err)
	}
	c := lebin.NewCursor(buf, offset)
	h := ChunkHeader{Kind: HeaderV4V5}
	typ, _ := c.I16()
	id, _ := c.I16()
	u2, _ := c.U8()
	u3, _ := c.U8()
	u1, _ := c.I16()
	h.Length, _ = c.U32()
	h.Type = uint32(uint16(typ))
	h.ID = uint32(uint16(id))
	h.Unknown2 = int16(u2)
	h.Unknown3 = u3
	h.Unknown1 = uint32(uint16(u1))
	return h, nil
}

// SizeInBytes returns the on-disk size of the header itself.
func (h ChunkHeader) SizeInBytes() int {
	if h.Kind == HeaderV4V5 {
		return HeaderSizeV4V5
	}
	return HeaderSizeV6
}

// HasTrailer reports whether an 8-byte trailer follows the content.
func (h ChunkHeader) HasTrailer() bool {
	switch h.Kind {
	case HeaderV6, HeaderV11:
		return hasTrailerV6(h)
	}
	return false
}

// HasSeparator reports whether a 4-byte separator follows the content
// (and the trailer, if any).
func (h ChunkHeader) HasSeparator() bool {
	if h.Kind == HeaderV11 {
		return hasSeparatorV11(h)
	}
	return false
}

// Charset names the text encoding used by string commands in this chunk.
func (h ChunkHeader) Charset() string {
	if h.Kind == HeaderV11 {
		return "utf-16le"
	}
	return "windows-1252"
}

func hasTrailerV6(h ChunkHeader) bool {
	if h.Unknown1 != 0 {
		return true
	}
	switch h.Type {
	case 0x71, 0x70, 0x6b, 0x6a, 0x69, 0x66, 0x65, 0x2c:
		return true
	}
	return false
}

// hasSeparatorV11 reproduces rules derived from sample files. 0x1f and 0xc9
// are excluded even where the general rule would match.
func hasSeparatorV11(h ChunkHeader) bool {
	switch h.Type {
	case 0x1f, 0xc9:
		return false
	case 0x69:
		return true
	case 0xa9, 0xaa, 0xb4, 0xb6:
		if h.Unknown2 == 2 && h.Unknown3 == 0x54 {
			return true
		}
	}
	if h.Unknown2 == 2 && h.Unknown3 == 0x55 {
		return true
	}
	if h.Unknown2 == 3 && h.Unknown3 != 0x50 {
		return true
	}
	return hasTrailerV6(h)
}

func (h ChunkHeader) String() string {
	return fmt.Sprintf("ChunkHeader(%s type=0x%02x id=%d length=%d u1=%d u2=%d u3=0x%02x)",
		h.Kind, h.Type, h.ID, h.Length, h.Unknown1, h.Unknown2, h.Unknown3)
}
