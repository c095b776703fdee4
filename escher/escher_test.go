package escher

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

func rec(ver uint8, inst, typ uint16, payload ...byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, inst<<4|uint16(ver))
	b = binary.LittleEndian.AppendUint16(b, typ)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

func u32s(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

func TestShapeContainer(t *testing.T) {
	opt := binary.LittleEndian.AppendUint16(nil, PropFillColor)
	opt = binary.LittleEndian.AppendUint32(opt, 0x00FF0000)
	opt = binary.LittleEndian.AppendUint16(opt, PropShapeName|0x8000)
	opt = binary.LittleEndian.AppendUint32(opt, 4)
	opt = append(opt, 'A', 0, 0, 0)

	sp := rec(2, 202, Sp, u32s(1025, ShapeHaveAnchor|ShapeHasShapeType)...)
	anchor := rec(0, 0, ClientAnchor, 1, 0, 2, 0, 3, 0, 4, 0)
	buf := rec(0xF, 0, SpContainer, bytes.Join([][]byte{sp, rec(3, 2, Opt, opt...), anchor}, nil)...)

	recs, err := record.Parse(Registry, buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	c := recs[0].(*record.Container)
	assert.Equal(t, "SpContainer", c.Name)
	require.Len(t, c.Children, 3)

	shape := c.Children[0].(*record.Atom).Value.(*Shape)
	assert.Equal(t, uint16(202), shape.ShapeType)
	assert.Equal(t, uint32(1025), shape.ShapeID)
	assert.True(t, shape.Is(ShapeHaveAnchor))
	assert.False(t, shape.Is(ShapeGroup))

	props := c.Children[1].(*record.Atom).Value.(*PropertyTable)
	require.Len(t, props.Properties, 2)
	fill, ok := props.Lookup(PropFillColor)
	require.True(t, ok)
	assert.Equal(t, uint32(0x00FF0000), fill.Value)
	name, ok := props.Lookup(PropShapeName)
	require.True(t, ok)
	assert.True(t, name.Complex)
	assert.Equal(t, []byte{'A', 0, 0, 0}, name.Data)
	assert.Equal(t, "groupshape.shapename", PropertyName(name.ID))
	assert.Equal(t, "unknown", PropertyName(9999))

	assert.Equal(t, RectAnchor{Top: 1, Left: 2, Right: 3, Bottom: 4}, c.Children[2].(*record.Atom).Value)
}

func TestOptComplexOverrun(t *testing.T) {
	opt := binary.LittleEndian.AppendUint16(nil, PropShapeName|0x8000)
	opt = binary.LittleEndian.AppendUint32(opt, 50)
	_, err := decodeOpt(record.Header{Instance: 1, Type: Opt}, opt)
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestDgg(t *testing.T) {
	p := u32s(3074, 3, 5, 2, 1, 2, 2, 3)
	v, err := decodeDgg(record.Header{}, p)
	require.NoError(t, err)
	d := v.(*DrawingGroup)
	assert.Equal(t, uint32(3074), d.ShapeIDMax)
	assert.Equal(t, []IDCluster{{1, 2}, {2, 3}}, d.Clusters)

	_, err = decodeDgg(record.Header{}, p[:20])
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestClientAnchorCellForms(t *testing.T) {
	cells := []byte{1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6, 0, 7, 0, 8, 0}
	v, err := decodeClientAnchor(record.Header{}, cells)
	require.NoError(t, err)
	a := v.(CellAnchor)
	assert.False(t, a.HasFlag)
	assert.Equal(t, uint16(1), a.Col1)
	assert.Equal(t, uint16(8), a.DY2)

	v, err = decodeClientAnchor(record.Header{}, append([]byte{2, 0}, cells...))
	require.NoError(t, err)
	a = v.(CellAnchor)
	assert.True(t, a.HasFlag)
	assert.Equal(t, uint16(2), a.Flag)
	assert.Equal(t, uint16(1), a.Col1)

	_, err = decodeClientAnchor(record.Header{}, []byte{1, 2, 3})
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestBlipStoreEntry(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	blipPayload := append(make([]byte, 16), 0xFF)
	blipPayload = append(blipPayload, png...)
	blip := rec(0, 0x6E0, BlipPNG, blipPayload...)

	bse := make([]byte, bseFixedSize)
	bse[0], bse[1] = 6, 6
	binary.LittleEndian.PutUint32(bse[20:], uint32(len(blip)))
	binary.LittleEndian.PutUint32(bse[24:], 1)
	bse = append(bse, blip...)

	v, err := decodeBSE(record.Header{}, bse)
	require.NoError(t, err)
	entry := v.(*BlipStoreEntry)
	assert.Equal(t, uint32(1), entry.RefCount)

	b, err := entry.EmbeddedBlip()
	require.NoError(t, err)
	assert.False(t, b.Metafile)
	pic, err := b.Picture(0)
	require.NoError(t, err)
	assert.Equal(t, png, pic)
}

func TestCompressedMetafile(t *testing.T) {
	wmf := bytes.Repeat([]byte("metafile"), 16)
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, err := zw.Write(wmf)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	hdr := make([]byte, metafileHeaderSize)
	binary.LittleEndian.PutUint32(hdr, uint32(len(wmf)))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(z.Len()))
	hdr[32] = 0
	hdr[33] = 0xFE
	payload := append(make([]byte, 32), hdr...) // two UIDs
	payload = append(payload, z.Bytes()...)

	v, err := decodeBlip(record.Header{Instance: 0x217, Type: BlipWMF}, payload)
	require.NoError(t, err)
	b := v.(*Blip)
	assert.True(t, b.Compressed)
	out, err := b.Picture(0)
	require.NoError(t, err)
	assert.Equal(t, wmf, out)

	_, err = b.Picture(10)
	assert.Error(t, err)
}
