package escher

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

// IDCluster is one file ID cluster of a drawing group.
type IDCluster struct {
	DrawingGroupID  uint32
	NumShapeIDsUsed uint32
}

// DrawingGroup is the value of a Dgg record.
type DrawingGroup struct {
	ShapeIDMax       uint32
	NumShapesSaved   uint32
	NumDrawingsSaved uint32
	Clusters         []IDCluster
}

func decodeDgg(_ record.Header, p []byte) (any, error) {
	c := lebin.NewCursor(p, 0)
	var d DrawingGroup
	var numClusters uint32
	var err error
	if d.ShapeIDMax, err = c.U32(); err != nil {
		return nil, err
	}
	if numClusters, err = c.U32(); err != nil {
		return nil, err
	}
	if d.NumShapesSaved, err = c.U32(); err != nil {
		return nil, err
	}
	if d.NumDrawingsSaved, err = c.U32(); err != nil {
		return nil, err
	}
	// The stored count is one more than the number of clusters.
	n := 0
	if numClusters > 0 {
		n = int(numClusters - 1)
	}
	if n*8 > c.Remaining() {
		return nil, fmt.Errorf("dgg: %d clusters need %d bytes, have %d: %w", n, n*8, c.Remaining(), lebin.ErrTruncated)
	}
	d.Clusters = make([]IDCluster, n)
	for i := range d.Clusters {
		d.Clusters[i].DrawingGroupID, _ = c.U32()
		d.Clusters[i].NumShapeIDsUsed, _ = c.U32()
	}
	return &d, nil
}

// Drawing is the value of a Dg record. The drawing ID is the record instance.
type Drawing struct {
	DrawingID   uint16
	NumShapes   uint32
	LastShapeID uint32
}

func decodeDg(h record.Header, p []byte) (any, error) {
	n, err := lebin.Uint32(p, 0)
	if err != nil {
		return nil, err
	}
	last, err := lebin.Uint32(p, 4)
	if err != nil {
		return nil, err
	}
	return &Drawing{DrawingID: h.Instance, NumShapes: n, LastShapeID: last}, nil
}

// Shape flags.
const (
	ShapeGroup        = 0x0001
	ShapeChild        = 0x0002
	ShapePatriarch    = 0x0004
	ShapeDeleted      = 0x0008
	ShapeOLEShape     = 0x0010
	ShapeHaveMaster   = 0x0020
	ShapeFlipHoriz    = 0x0040
	ShapeFlipVert     = 0x0080
	ShapeConnector    = 0x0100
	ShapeHaveAnchor   = 0x0200
	ShapeBackground   = 0x0400
	ShapeHasShapeType = 0x0800
)

// Shape is the value of an Sp record. The shape type is the record instance.
type Shape struct {
	ShapeType uint16
	ShapeID   uint32
	Flags     uint32
}

// Is reports whether all of flag is set.
func (s *Shape) Is(flag uint32) bool { return s.Flags&flag == flag }

func decodeSp(h record.Header, p []byte) (any, error) {
	id, err := lebin.Uint32(p, 0)
	if err != nil {
		return nil, err
	}
	flags, err := lebin.Uint32(p, 4)
	if err != nil {
		return nil, err
	}
	return &Shape{ShapeType: h.Instance, ShapeID: id, Flags: flags}, nil
}

// Rect is a rectangle in drawing coordinates.
type Rect struct {
	Left, Top, Right, Bottom int32
}

func readRect(p []byte) (Rect, error) {
	if err := lebin.Check(p, 0, 16); err != nil {
		return Rect{}, err
	}
	l, _ := lebin.Int32(p, 0)
	t, _ := lebin.Int32(p, 4)
	r, _ := lebin.Int32(p, 8)
	b, _ := lebin.Int32(p, 12)
	return Rect{Left: l, Top: t, Right: r, Bottom: b}, nil
}

func decodeSpgr(_ record.Header, p []byte) (any, error) {
	r, err := readRect(p)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ChildBounds is the value of a ChildAnchor record.
type ChildBounds Rect

func decodeChildAnchor(_ record.Header, p []byte) (any, error) {
	if len(p) == 8 {
		// Short form stores 16-bit coordinates.
		l, _ := lebin.Int16(p, 0)
		t, _ := lebin.Int16(p, 2)
		r, _ := lebin.Int16(p, 4)
		b, _ := lebin.Int16(p, 6)
		return ChildBounds{Left: int32(l), Top: int32(t), Right: int32(r), Bottom: int32(b)}, nil
	}
	r, err := readRect(p)
	if err != nil {
		return nil, err
	}
	return ChildBounds(r), nil
}

// RectAnchor is the 8-byte ClientAnchor form used by slide shapes.
type RectAnchor struct {
	Top, Left, Right, Bottom int16
}

// CellAnchor is the ClientAnchor form used by worksheet drawings. Offsets
// are in 1/1024 of a column width and 1/256 of a row height.
type CellAnchor struct {
	Flag      uint16
	Col1, DX1 uint16
	Row1, DY1 uint16
	Col2, DX2 uint16
	Row2, DY2 uint16
	HasFlag   bool
}

func decodeClientAnchor(_ record.Header, p []byte) (any, error) {
	switch {
	case len(p) == 8:
		t, _ := lebin.Int16(p, 0)
		l, _ := lebin.Int16(p, 2)
		r, _ := lebin.Int16(p, 4)
		b, _ := lebin.Int16(p, 6)
		return RectAnchor{Top: t, Left: l, Right: r, Bottom: b}, nil
	case len(p) >= 16:
		c := lebin.NewCursor(p, 0)
		var a CellAnchor
		if len(p) >= 18 {
			a.Flag, _ = c.U16()
			a.HasFlag = true
		}
		for _, f := range []*uint16{&a.Col1, &a.DX1, &a.Row1, &a.DY1, &a.Col2, &a.DX2, &a.Row2, &a.DY2} {
			*f, _ = c.U16()
		}
		return a, nil
	}
	return nil, fmt.Errorf("client anchor: unexpected size %d: %w", len(p), lebin.ErrTruncated)
}

// MenuColors is the value of a SplitMenuColors record.
type MenuColors struct {
	Fill, Line, Shadow, ThreeD uint32
}

func decodeSplitMenuColors(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 16); err != nil {
		return nil, err
	}
	var m MenuColors
	m.Fill, _ = lebin.Uint32(p, 0)
	m.Line, _ = lebin.Uint32(p, 4)
	m.Shadow, _ = lebin.Uint32(p, 8)
	m.ThreeD, _ = lebin.Uint32(p, 12)
	return m, nil
}

// BlipStoreEntry is the value of a BSE record.
type BlipStoreEntry struct {
	BlipTypeWin32 uint8
	BlipTypeMacOS uint8
	UID           [16]byte
	Tag           uint16
	Size          uint32
	RefCount      uint32
	Offset        uint32
	Usage         uint8
	Name          []byte
	// Blip holds the embedded blip record when it is stored inline.
	Blip []byte
}

const bseFixedSize = 36

func decodeBSE(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, bseFixedSize); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	var b BlipStoreEntry
	b.BlipTypeWin32, _ = c.U8()
	b.BlipTypeMacOS, _ = c.U8()
	uid, _ := c.Bytes(16)
	copy(b.UID[:], uid)
	b.Tag, _ = c.U16()
	b.Size, _ = c.U32()
	b.RefCount, _ = c.U32()
	b.Offset, _ = c.U32()
	b.Usage, _ = c.U8()
	nameLen, _ := c.U8()
	_ = c.Skip(2)
	name, err := c.Bytes(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("bse name: %w", err)
	}
	b.Name = name
	b.Blip = p[c.Pos():]
	return &b, nil
}

// EmbeddedBlip decodes the blip record stored inside the entry.
func (b *BlipStoreEntry) EmbeddedBlip() (*Blip, error) {
	if len(b.Blip) == 0 {
		return nil, nil
	}
	h, err := record.DecodeHeader(b.Blip, 0)
	if err != nil {
		return nil, err
	}
	if uint64(h.Size) > uint64(len(b.Blip)-record.HeaderSize) {
		return nil, &record.LengthOverrunError{Type: h.Type, Size: h.Size, Avail: len(b.Blip) - record.HeaderSize}
	}
	v, err := decodeBlip(h, b.Blip[record.HeaderSize:record.HeaderSize+int(h.Size)])
	if err != nil {
		return nil, err
	}
	return v.(*Blip), nil
}

// Blip is a stored picture. Metafile blips carry a header describing the
// possibly compressed data.
type Blip struct {
	Type       uint16
	UID        [16]byte
	Metafile   bool
	RawSize    uint32
	Bounds     Rect
	Compressed bool
	Data       []byte
}

const metafileHeaderSize = 34

func decodeBlip(h record.Header, p []byte) (any, error) {
	c := lebin.NewCursor(p, 0)
	b := &Blip{Type: h.Type}
	uid, err := c.Bytes(16)
	if err != nil {
		return nil, err
	}
	copy(b.UID[:], uid)
	// An odd instance means a second UID follows the first.
	if h.Instance&1 == 1 {
		if err := c.Skip(16); err != nil {
			return nil, err
		}
	}

	switch h.Type {
	case BlipEMF, BlipWMF, BlipPICT:
		hdr, err := c.Bytes(metafileHeaderSize)
		if err != nil {
			return nil, fmt.Errorf("metafile header: %w", err)
		}
		b.Metafile = true
		b.RawSize, _ = lebin.Uint32(hdr, 0)
		b.Bounds, _ = readRect(hdr[4:])
		// compression 0 is deflate, 0xFE is none.
		b.Compressed = hdr[32] == 0
	default:
		// Bitmap blips have a one-byte tag before the data.
		if err := c.Skip(1); err != nil {
			return nil, err
		}
	}
	b.Data = p[c.Pos():]
	return b, nil
}

// Picture returns the picture bytes, inflating compressed metafiles. limit
// bounds the inflated size; zero or less means the declared size.
func (b *Blip) Picture(limit int) ([]byte, error) {
	if !b.Compressed {
		return b.Data, nil
	}
	if limit <= 0 {
		limit = int(b.RawSize)
	}
	zr, err := zlib.NewReader(bytes.NewReader(b.Data))
	if err != nil {
		return nil, fmt.Errorf("blip: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("blip: %w", err)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("blip: inflated data exceeds %d bytes", limit)
	}
	return out, nil
}
