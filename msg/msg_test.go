package msg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
	"golang.org/x/text/encoding/charmap"

	"github.com/yamitzky/msbin-go/lebin"
)

func utf16(s string) []byte {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return b
}

func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

type fixedProp struct {
	typ Type
	id  uint16
	val []byte
}

func propsStream(header []byte, props ...fixedProp) []byte {
	out := slices.Clone(header)
	for _, p := range props {
		out = binary.LittleEndian.AppendUint16(out, uint16(p.typ))
		out = binary.LittleEndian.AppendUint16(out, p.id)
		out = binary.LittleEndian.AppendUint32(out, 6)
		v := make([]byte, 8)
		copy(v, p.val)
		out = append(out, v...)
	}
	return out
}

func topHeader(size int, recips, atts uint32) []byte {
	h := make([]byte, size)
	binary.LittleEndian.PutUint32(h[8:], recips)
	binary.LittleEndian.PutUint32(h[12:], atts)
	binary.LittleEndian.PutUint32(h[16:], recips)
	binary.LittleEndian.PutUint32(h[20:], atts)
	return h
}

func filetime(t time.Time) []byte {
	ft := uint64(t.Unix()+filetimeEpochDelta)*10_000_000 + uint64(t.Nanosecond()/100)
	return binary.LittleEndian.AppendUint64(nil, ft)
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name  string
		tag   Tag
		index int
	}{
		{"__substg1.0_0037001F", Tag{PropSubject, TypeUnicode}, -1},
		{"__substg1.0_37010102", Tag{PropAttachData, TypeBinary}, -1},
		{"__substg1.0_0E04101F-00000001", Tag{PropDisplayTo, TypeUnicode | MultipleValued}, 1},
		{"__substg1.0_3701000d", Tag{PropAttachData, TypeObject}, -1},
	}
	for _, tt := range tests {
		tag, index, err := ParseTag(tt.name)
		if err != nil {
			t.Errorf("ParseTag(%q) error = %v", tt.name, err)
			continue
		}
		if tag != tt.tag || index != tt.index {
			t.Errorf("ParseTag(%q) = %v, %d, want %v, %d", tt.name, tag, index, tt.tag, tt.index)
		}
	}

	for _, bad := range []string{"__substg1.0_0037", "__substg1.0_ZZZZ001F", "__substg1.0_0037001F_1", "__properties_version1.0"} {
		_, _, err := ParseTag(bad)
		assert.ErrorIs(t, err, ErrBadName, bad)
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "unicode", TypeUnicode.String())
	assert.Equal(t, "multi-int32", (TypeInt32 | MultipleValued).String())
	assert.Equal(t, "Type(0x0099)", Type(0x99).String())
	assert.True(t, (TypeBinary | MultipleValued).Multiple())
	assert.Equal(t, TypeBinary, (TypeBinary | MultipleValued).Base())
}

func TestParseMessage(t *testing.T) {
	sent := time.Date(2005, 2, 23, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{"__substg1.0_0037001F", utf16("Quarterly report")},
		{"__substg1.0_1000001E", []byte("caf\xe9\x00")},
		{"__substg1.0_007D001F", utf16("From: a\r\nTo: b")},
		{"__properties_version1.0", propsStream(topHeader(topHeaderSize, 2, 1),
			fixedProp{TypeTime, PropClientSubmitTime, filetime(sent)},
			fixedProp{TypeInt32, PropMessageCodepage, u32(1252)},
			fixedProp{TypeBool, 0x0E1F, []byte{1, 0}},
		)},
		{"__recip_version1.0_#00000001/__substg1.0_3001001F", utf16("Bob")},
		{"__recip_version1.0_#00000001/__substg1.0_39FE001F", utf16("bob@example.com")},
		{"__recip_version1.0_#00000000/__substg1.0_3001001F", utf16("Alice")},
		{"__recip_version1.0_#00000000/__substg1.0_3003001F", utf16("/O=EX/OU=LAB/CN=alice@example.com")},
		{"__attach_version1.0_#00000000/__substg1.0_3707001F", utf16("report.txt")},
		{"__attach_version1.0_#00000000/__substg1.0_37010102", []byte("hello")},
		{"__attach_version1.0_#00000000/__properties_version1.0", propsStream(make([]byte, childHeaderSize),
			fixedProp{TypeInt32, PropAttachMethod, u32(1)},
		)},
		{"\x05SummaryInformation", []byte{1, 2, 3}},
	}

	m, err := Parse(entries, nil)
	require.NoError(t, err)

	assert.Equal(t, "Quarterly report", m.Subject())
	assert.Equal(t, "café", m.Body())
	assert.Equal(t, []string{"From: a", "To: b"}, m.Headers())
	assert.Equal(t, Header{NextRecipientID: 2, NextAttachmentID: 1, RecipientCount: 2, AttachmentCount: 1}, m.Header)

	date, ok := m.Date()
	require.True(t, ok)
	assert.True(t, date.Equal(sent))

	p, ok := m.Main.Get(0x0E1F)
	require.True(t, ok)
	assert.Equal(t, true, p.Value)

	require.Len(t, m.Recipients, 2)
	assert.Equal(t, 0, m.Recipients[0].Number)
	assert.Equal(t, 1, m.Recipients[1].Number)
	names, err := m.RecipientNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names)
	emails, err := m.RecipientEmailAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, emails)

	require.Len(t, m.Attachments, 1)
	a := m.Attachments[0]
	assert.Equal(t, KindAttachment, a.Kind)
	assert.Equal(t, "report.txt", a.Filename())
	assert.Equal(t, []byte("hello"), a.Data())
	assert.Equal(t, blake3.Sum256([]byte("hello")), a.Digest())
	method, ok := a.Int(PropAttachMethod)
	require.True(t, ok)
	assert.Equal(t, int64(1), method)
	assert.Nil(t, a.Embedded)
	assert.Nil(t, m.NameID)
}

func TestParseOneGroupPerRecipient(t *testing.T) {
	entries := []Entry{
		{"/__recip_version1.0_#00000000/__substg1.0_3001001F", utf16("Alice")},
		{"/__recip_version1.0_#0000000A/__substg1.0_3001001F", utf16("Carol")},
		{"/__substg1.0_0037001F", utf16("hi")},
		{"/__recip_version1.0_#00000000/__substg1.0_39FE001F", utf16("alice@example.com")},
		{"/__recip_version1.0_#00000002/__substg1.0_3001001F", utf16("bob@example.com")},
	}
	m, err := Parse(entries, nil)
	require.NoError(t, err)

	require.Len(t, m.Recipients, 3)
	var nums []int
	for _, r := range m.Recipients {
		assert.Equal(t, KindRecipient, r.Kind)
		nums = append(nums, r.Number)
	}
	assert.Equal(t, []int{0, 2, 10}, nums)
	assert.Len(t, m.Recipients[0].Properties(), 2)

	email, ok := m.Recipients[1].Email()
	require.True(t, ok)
	assert.Equal(t, "bob@example.com", email)

	_, err = m.RecipientEmailAddresses()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "hi", m.Subject())
}

func TestRecipientEmailFallbacks(t *testing.T) {
	m, err := Parse([]Entry{
		{"__recip_version1.0_#00000000/__substg1.0_3001001F", utf16("'quoted@example.com'")},
		{"__recip_version1.0_#00000001/__substg1.0_3001001F", utf16("Dave")},
		{"__recip_version1.0_#00000001/__substg1.0_300B0102", []byte("SMTP:dave@example.com\x00")},
	}, nil)
	require.NoError(t, err)
	emails, err := m.RecipientEmailAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"quoted@example.com", "dave@example.com"}, emails)

	_, err = (&Message{Main: newChunks(KindMain, "", -1)}).RecipientNames()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseEmbeddedMessage(t *testing.T) {
	entries := []Entry{
		{"__attach_version1.0_#00000000/__substg1.0_3707001F", utf16("fwd.msg")},
		{"__attach_version1.0_#00000000/__substg1.0_3701000D/__substg1.0_0037001F", utf16("Inner")},
		{"__attach_version1.0_#00000000/__substg1.0_3701000D/__properties_version1.0", propsStream(topHeader(embeddedHeaderSize, 1, 0))},
		{"__attach_version1.0_#00000000/__substg1.0_3701000D/__recip_version1.0_#00000000/__substg1.0_3001001F", utf16("Eve")},
	}
	m, err := Parse(entries, nil)
	require.NoError(t, err)
	require.Len(t, m.Attachments, 1)
	inner := m.Attachments[0].Embedded
	require.NotNil(t, inner)
	assert.Equal(t, "Inner", inner.Subject())
	assert.Equal(t, uint32(1), inner.Header.RecipientCount)
	names, err := inner.RecipientNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Eve"}, names)
	assert.Empty(t, m.Subject())
}

func TestParseMultiValued(t *testing.T) {
	entries := []Entry{
		{"__substg1.0_8001101F", slices.Concat(u32(2), u32(0), u32(2), u32(0))},
		{"__substg1.0_8001101F-00000001", utf16("b")},
		{"__substg1.0_8001101F-00000000", utf16("a")},
		{"__substg1.0_80021003", slices.Concat(u32(7), u32(9))},
	}
	m, err := Parse(entries, nil)
	require.NoError(t, err)

	p, ok := m.Main.Get(0x8001)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, p.Value)
	assert.Equal(t, "a; b", p.String())

	p, ok = m.Main.Get(0x8002)
	require.True(t, ok)
	assert.Equal(t, []any{int32(7), int32(9)}, p.Value)

	_, err = Parse([]Entry{{"__substg1.0_80021003", []byte{1, 2, 3}}}, nil)
	assert.Error(t, err)

	_, err = Parse([]Entry{{"__substg1.0_8001101F-000000FF", utf16("x")}}, nil)
	assert.Error(t, err)
}

func TestParseNameID(t *testing.T) {
	custom := MustParseGUID("00062008-0000-0000-C000-000000000046")
	strs := slices.Concat(u32(16), utf16("X-Custom"))
	ent := slices.Concat(
		u32(0x8233), []byte{1 << 1, 0, 0, 0},
		u32(0), []byte{3<<1 | 1, 0, 1, 0},
	)
	m, err := Parse([]Entry{
		{"__nameid_version1.0/__substg1.0_00020102", custom.Bytes()},
		{"__nameid_version1.0/__substg1.0_00030102", ent},
		{"__nameid_version1.0/__substg1.0_00040102", strs},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, m.NameID)
	require.Len(t, m.NameID.Named, 2)

	np, ok := m.NameID.Lookup(0x8000)
	require.True(t, ok)
	assert.Equal(t, PSMAPI, np.GUID)
	assert.Equal(t, uint32(0x8233), np.LID)
	assert.False(t, np.IsString)

	id, ok := m.NameID.Find(custom, "X-Custom")
	require.True(t, ok)
	assert.Equal(t, uint16(0x8001), id)

	_, err = Parse([]Entry{{"__nameid_version1.0/__substg1.0_00030102", []byte{1, 2, 3}}}, nil)
	assert.Error(t, err)
}

func TestParseReportsBadStreams(t *testing.T) {
	m, err := Parse([]Entry{
		{"__substg1.0_0037001F", utf16("still here")},
		{"__substg1.0_ZZZZ001F", []byte("x")},
		{"__recip_version1.0_#00000000/__properties_version1.0", []byte{1, 2, 3, 4}},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadName)
	assert.ErrorIs(t, err, lebin.ErrTruncated)

	var ee *EntryError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "__substg1.0_ZZZZ001F", ee.Path)

	require.NotNil(t, m)
	assert.Equal(t, "still here", m.Subject())
	assert.Len(t, m.Recipients, 1)
}

func TestParseEncodingOption(t *testing.T) {
	entries := []Entry{{"__substg1.0_0037001E", []byte{0xCF, 0xF0, 0xE8}}}

	m, err := Parse(entries, &Options{Encoding: charmap.Windows1251})
	require.NoError(t, err)
	assert.Equal(t, "При", m.Subject())

	entries = append(entries, Entry{"__properties_version1.0", propsStream(topHeader(topHeaderSize, 0, 0),
		fixedProp{TypeInt32, PropInternetCodepage, u32(1251)})})
	m, err = Parse(entries, nil)
	require.NoError(t, err)
	assert.Equal(t, "При", m.Subject())
}

func TestParseWarnsOnCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	_, err := Parse([]Entry{
		{"__properties_version1.0", propsStream(topHeader(topHeaderSize, 3, 0),
			fixedProp{TypeInt32, PropMessageFlags, u32(1)})},
	}, &Options{Logger: logger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "recipient count mismatch")
	assert.NotContains(t, buf.String(), "attachment count mismatch")
}

func TestGUID(t *testing.T) {
	want := []byte{0x28, 0x03, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}
	assert.Equal(t, want, PSMAPI.Bytes())
	g, err := ParseGUID(want)
	require.NoError(t, err)
	assert.Equal(t, PSMAPI, g)
	assert.Equal(t, "{00020328-0000-0000-c000-000000000046}", g.String())

	_, err = ParseGUID(want[:15])
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestFiletimeToTime(t *testing.T) {
	assert.Equal(t, time.Unix(0, 0).UTC(), FiletimeToTime(116444736000000000))
	want := time.Date(1601, 1, 1, 0, 0, 0, 100, time.UTC)
	assert.True(t, FiletimeToTime(1).Equal(want))
}
