package hslf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamitzky/msbin-go/escher"
	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

func rec(ver uint8, inst, typ uint16, payload ...byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, inst<<4|uint16(ver))
	b = binary.LittleEndian.AppendUint16(b, typ)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

func cont(typ uint16, children ...[]byte) []byte {
	return rec(0xF, 0, typ, bytes.Join(children, nil)...)
}

func utf16le(s string) []byte {
	var b []byte
	for _, r := range s {
		b = binary.LittleEndian.AppendUint16(b, uint16(r))
	}
	return b
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, "Document", Registry.Name(Document))
	assert.Equal(t, "PersistPtrIncrementalBlock", Registry.Name(6002))
	assert.Equal(t, "SpContainer", Registry.Name(escher.SpContainer))
	assert.Equal(t, record.UnknownName, Registry.Name(0x1234))
}

func TestSlideListText(t *testing.T) {
	buf := cont(Document,
		cont(SlideListWithText,
			rec(0, 0, TextHeaderAtom, 0, 0, 0, 0),
			rec(0, 0, TextCharsAtom, utf16le("Hello\rWorld")...),
			rec(0, 0, TextHeaderAtom, 1, 0, 0, 0),
			rec(0, 0, TextBytesAtom, 'C', 'a', 'f', 0xe9),
			rec(0, 0, 0x7777, 1, 2, 3),
		),
		cont(PPDrawing, cont(escher.SpContainer, rec(2, 1, escher.Sp, 1, 4, 0, 0, 0, 0, 0, 0))),
	)

	recs, err := record.Parse(Registry, buf)
	require.NoError(t, err)

	runs := ExtractText(recs)
	require.Len(t, runs, 2)
	assert.Equal(t, TextRun{Type: TextTitle, Offset: 28, Text: "Hello\nWorld"}, runs[0])
	assert.Equal(t, TextBody, runs[1].Type)
	assert.Equal(t, "Café", runs[1].Text)
	assert.Equal(t, "body", runs[1].Type.String())

	sp := record.Find(recs, escher.Sp).(*record.Atom)
	assert.Equal(t, uint32(0x401), sp.Value.(*escher.Shape).ShapeID)

	assert.Equal(t, buf, record.Encode(recs[0]))
}

func TestDocumentAtom(t *testing.T) {
	p := make([]byte, 40)
	binary.LittleEndian.PutUint32(p[0:], 5760)
	binary.LittleEndian.PutUint32(p[4:], 4320)
	binary.LittleEndian.PutUint16(p[32:], 1)
	p[36] = 1
	v, err := decodeDocumentAtom(record.Header{}, p)
	require.NoError(t, err)
	d := v.(*DocumentInfo)
	assert.Equal(t, int32(5760), d.SlideSizeX)
	assert.Equal(t, int32(4320), d.SlideSizeY)
	assert.Equal(t, uint16(1), d.FirstSlideNum)
	assert.True(t, d.SaveWithFonts)
	assert.False(t, d.ShowComments)

	_, err = decodeDocumentAtom(record.Header{}, p[:39])
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestShortAtomIsRecordError(t *testing.T) {
	buf := append(rec(0, 0, SlidePersistAtom, 1, 2, 3), rec(0, 0, TextHeaderAtom, 2, 0, 0, 0)...)
	recs, err := record.Parse(Registry, buf)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	bad := recs[0].(*record.Atom)
	var re *record.RecordError
	require.ErrorAs(t, bad.Err, &re)
	assert.Equal(t, "SlidePersistAtom", re.Name)
	assert.ErrorIs(t, bad.Err, lebin.ErrTruncated)
	assert.Equal(t, TextNotes, recs[1].(*record.Atom).Value)
}

func TestPersistPtrHolder(t *testing.T) {
	var p []byte
	p = binary.LittleEndian.AppendUint32(p, 2<<20|1)
	p = binary.LittleEndian.AppendUint32(p, 100)
	p = binary.LittleEndian.AppendUint32(p, 200)
	p = binary.LittleEndian.AppendUint32(p, 1<<20|10)
	p = binary.LittleEndian.AppendUint32(p, 900)

	v, err := decodePersistPtrHolder(record.Header{}, p)
	require.NoError(t, err)
	pp := v.(*PersistPtrs)
	assert.Equal(t, []PersistEntry{{1, 100}, {2, 200}, {10, 900}}, pp.Entries)
	off, ok := pp.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, uint32(200), off)
	_, ok = pp.Lookup(3)
	assert.False(t, ok)

	_, err = decodePersistPtrHolder(record.Header{}, p[:8])
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestFontEntityAndColorScheme(t *testing.T) {
	p := make([]byte, fontEntitySize)
	copy(p, utf16le("Arial"))
	p[64] = 0
	p[67] = 0x22
	v, err := decodeFontEntityAtom(record.Header{}, p)
	require.NoError(t, err)
	assert.Equal(t, "Arial", v.(*FontEntity).FaceName)
	assert.Equal(t, uint8(0x22), v.(*FontEntity).PitchAndFamily)

	cs := make([]byte, 32)
	binary.LittleEndian.PutUint32(cs[0:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(cs[28:], 0x00112233)
	v, err = decodeColorSchemeAtom(record.Header{}, cs)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00FFFFFF), v.(*ColorScheme).Background)
	assert.Equal(t, uint32(0x00112233), v.(*ColorScheme).AccentAndFollowingHyperlink)
}

func TestUserEditAtom(t *testing.T) {
	p := make([]byte, 28)
	binary.LittleEndian.PutUint32(p[0:], 256)
	binary.LittleEndian.PutUint32(p[12:], 0x1234)
	binary.LittleEndian.PutUint32(p[20:], 7)
	v, err := decodeUserEditAtom(record.Header{}, p)
	require.NoError(t, err)
	u := v.(*UserEdit)
	assert.Equal(t, int32(256), u.LastViewedSlideID)
	assert.Equal(t, uint32(0x1234), u.PersistPointersOffset)
	assert.Equal(t, uint32(7), u.MaxPersistWritten)
	assert.False(t, u.Encrypted)
}

func TestExOleObjStg(t *testing.T) {
	ole := bytes.Repeat([]byte{0xD0, 0xCF, 0x11, 0xE0}, 64)
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, err := zw.Write(ole)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	payload := binary.LittleEndian.AppendUint32(nil, uint32(len(ole)))
	payload = append(payload, z.Bytes()...)
	v, err := decodeExOleObjStg(record.Header{Instance: 1}, payload)
	require.NoError(t, err)
	stg := v.(*OleStorage)
	assert.True(t, stg.Compressed)
	data, err := stg.Data(0)
	require.NoError(t, err)
	assert.Equal(t, ole, data)

	_, err = stg.Data(16)
	assert.ErrorContains(t, err, "exceeds 16 bytes")

	v, err = decodeExOleObjStg(record.Header{}, []byte{1, 2, 3})
	require.NoError(t, err)
	data, err = v.(*OleStorage).Data(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestDecodeCurrentUser(t *testing.T) {
	s := rec(0, 0, CurrentUserAtom)
	s = binary.LittleEndian.AppendUint32(s, 20)
	s = binary.LittleEndian.AppendUint32(s, CurrentUserToken)
	s = binary.LittleEndian.AppendUint32(s, 0x5000)
	s = binary.LittleEndian.AppendUint16(s, 3)
	s = binary.LittleEndian.AppendUint16(s, 0x03F4)
	s = append(s, 3, 0, 0, 0)
	s = append(s, "bob"...)
	s = binary.LittleEndian.AppendUint32(s, 8)
	s = append(s, utf16le("Bøb")...)

	u, err := DecodeCurrentUser(s)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x5000), u.CurrentEditOffset)
	assert.Equal(t, uint8(3), u.MajorVersion)
	assert.Equal(t, uint32(8), u.ReleaseVersion)
	assert.Equal(t, "Bøb", u.UserName)
	assert.False(t, u.Encrypted())

	u, err = DecodeCurrentUser(s[:31])
	require.NoError(t, err)
	assert.Equal(t, "bob", u.UserName)

	binary.LittleEndian.PutUint32(s[12:], 0xDEADBEEF)
	_, err = DecodeCurrentUser(s)
	assert.ErrorContains(t, err, "header token")
}
