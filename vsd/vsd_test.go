package vsd

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamitzky/msbin-go/lebin"
)

func header(typ, id, u1, length uint32, u2 int16, u3 uint8) []byte {
	b := binary.LittleEndian.AppendUint32(nil, typ)
	b = binary.LittleEndian.AppendUint32(b, id)
	b = binary.LittleEndian.AppendUint32(b, u1)
	b = binary.LittleEndian.AppendUint32(b, length)
	b = binary.LittleEndian.AppendUint16(b, uint16(u2))
	return append(b, u3)
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestDecodeChunkHeader(t *testing.T) {
	buf := append([]byte{0xaa}, header(0x46, 7, 0, 40, 2, 0x55)...)
	h, err := DecodeChunkHeader(11, buf, 1)
	require.NoError(t, err)
	assert.Equal(t, ChunkHeader{Kind: HeaderV11, Type: 0x46, ID: 7, Length: 40, Unknown2: 2, Unknown3: 0x55}, h)
	assert.Equal(t, 19, h.SizeInBytes())
	assert.Equal(t, "utf-16le", h.Charset())

	h, err = DecodeChunkHeader(6, buf, 1)
	require.NoError(t, err)
	assert.Equal(t, HeaderV6, h.Kind)
	assert.Equal(t, "windows-1252", h.Charset())

	_, err = DecodeChunkHeader(6, buf, 2)
	assert.ErrorIs(t, err, lebin.ErrTruncated)
}

func TestUnsupportedVersions(t *testing.T) {
	for _, v := range []int{5, 4, 0, -1} {
		_, err := DecodeChunkHeader(v, make([]byte, 32), 0)
		assert.ErrorIs(t, err, ErrUnsupportedVersion, "version %d", v)
		_, err = NewChunkFactory(v)
		assert.ErrorIs(t, err, ErrUnsupportedVersion, "factory version %d", v)
	}
	_, err := DecodeChunkHeader(5, nil, 0)
	assert.ErrorContains(t, err, "not yet supported")
}

func TestTrailerAndSeparatorRules(t *testing.T) {
	tests := []struct {
		kind      HeaderKind
		typ       uint32
		u1        uint32
		u2        int16
		u3        uint8
		trailer   bool
		separator bool
	}{
		{HeaderV6, 0x2c, 0, 0, 0, true, false},
		{HeaderV6, 0x46, 0, 0, 0, false, false},
		{HeaderV6, 0x46, 1, 0, 0, true, false},
		{HeaderV6, 0x69, 0, 2, 0x55, true, false},
		{HeaderV11, 0x1f, 1, 2, 0x55, true, false},
		{HeaderV11, 0xc9, 0, 3, 0x00, false, false},
		{HeaderV11, 0x69, 0, 0, 0, true, true},
		{HeaderV11, 0xa9, 0, 2, 0x54, false, true},
		{HeaderV11, 0xb4, 0, 2, 0x54, false, true},
		{HeaderV11, 0x46, 0, 2, 0x54, false, false},
		{HeaderV11, 0x46, 0, 2, 0x55, false, true},
		{HeaderV11, 0x46, 0, 3, 0x51, false, true},
		{HeaderV11, 0x46, 0, 3, 0x50, false, false},
		{HeaderV11, 0x70, 0, 0, 0, true, true},
		{HeaderV11, 0x46, 5, 0, 0, true, true},
		{HeaderV4V5, 0x2c, 9, 3, 0x51, false, false},
	}

	for _, tt := range tests {
		h := ChunkHeader{Kind: tt.kind, Type: tt.typ, Unknown1: tt.u1, Unknown2: tt.u2, Unknown3: tt.u3}
		if got := h.HasTrailer(); got != tt.trailer {
			t.Errorf("%v HasTrailer() = %v, want %v", h, got, tt.trailer)
		}
		if got := h.HasSeparator(); got != tt.separator {
			t.Errorf("%v HasSeparator() = %v, want %v", h, got, tt.separator)
		}
	}
}

func TestCreateChunkWithTrailer(t *testing.T) {
	content := []byte{1, 2, 3, 4}
	trailer := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	buf := append(header(0x2c, 1, 0, 4, 0, 0), content...)
	buf = append(buf, trailer...)

	f, err := NewChunkFactory(6)
	require.NoError(t, err)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, content, c.Content)
	assert.Equal(t, trailer, c.Trailer)
	assert.Nil(t, c.Separator)
	assert.Equal(t, len(buf), c.OnDiskSize())

	buf[19] = 0xff
	assert.Equal(t, byte(1), c.Content[0], "content must be a copy")
}

func TestCreateChunkClampsLength(t *testing.T) {
	logger, logs := bufferLogger()
	f, err := NewChunkFactory(11, WithLogger(logger))
	require.NoError(t, err)

	// 0x69 on v11 carries both a trailer and a separator.
	buf := append(header(0x69, 1, 0, 100, 0, 0), make([]byte, 20)...)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), c.Header.Length)
	assert.Len(t, c.Content, 8)
	assert.Len(t, c.Trailer, TrailerSize)
	assert.Len(t, c.Separator, SeparatorSize)
	assert.Equal(t, len(buf), c.OnDiskSize())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "clamping")
}

func TestCreateChunkClampWithoutTrailer(t *testing.T) {
	f, err := NewChunkFactory(6)
	require.NoError(t, err)
	buf := append(header(0x46, 1, 0, 1000, 0, 0), make([]byte, 10)...)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Len(t, c.Content, 10)
	assert.Equal(t, 29, c.OnDiskSize())
}

func TestCreateChunkSkipsTrailerWithoutRoom(t *testing.T) {
	logger, logs := bufferLogger()
	f, err := NewChunkFactory(6, WithLogger(logger))
	require.NoError(t, err)

	buf := append(header(0x2c, 1, 0, 4, 0, 0), 1, 2, 3, 4)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Nil(t, c.Trailer)
	assert.Equal(t, 23, c.OnDiskSize())
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "no room for chunk trailer")
}

func TestCreateChunkNegativeClamp(t *testing.T) {
	f, err := NewChunkFactory(11)
	require.NoError(t, err)
	buf := append(header(0x69, 1, 0, 100, 0, 0), make([]byte, 5)...)
	_, err = f.CreateChunk(buf, 0)
	var lo *LengthOverrunError
	require.ErrorAs(t, err, &lo)
	assert.ErrorIs(t, err, ErrLengthOverrun)
	assert.Equal(t, uint32(0x69), lo.Type)
}

func TestLegacyFactory(t *testing.T) {
	_, err := NewChunkFactory(4)
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	f, err := NewChunkFactory(4, WithLegacyHeaders())
	require.NoError(t, err)
	buf := []byte{0x2c, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0xab, 0xcd}
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, HeaderV4V5, c.Header.Kind)
	assert.Equal(t, uint32(3), c.Header.ID)
	assert.Equal(t, []byte{0xab, 0xcd}, c.Content)
	assert.Nil(t, c.Trailer, "legacy headers never have trailers")
	assert.Equal(t, 14, c.OnDiskSize())
}

func TestShapeTypeCommands(t *testing.T) {
	content := make([]byte, 34)
	content[0] = 0x05
	binary.LittleEndian.PutUint32(content[10:], 42)
	binary.LittleEndian.PutUint32(content[30:], 7)
	buf := append(header(0x46, 1, 0, uint32(len(content)), 0, 0), content...)

	f, err := NewChunkFactory(6)
	require.NoError(t, err)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "ShapeType", c.Name(f.CommandTable()))

	want := map[string]any{
		"Flags":     uint8(5),
		"NoFill":    true,
		"NoLine":    false,
		"NoShow":    true,
		"Parent":    int32(42),
		"TextStyle": int32(7),
	}
	for name, v := range want {
		cmd, ok := c.Command(name)
		if assert.True(t, ok, name) {
			assert.Equal(t, v, cmd.Value, name)
		}
	}
}

func TestCommandsPastContentAreSkipped(t *testing.T) {
	logger, logs := bufferLogger()
	f, err := NewChunkFactory(6, WithLogger(logger))
	require.NoError(t, err)
	buf := append(header(0x46, 1, 0, 12, 0, 0), make([]byte, 12)...)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)

	_, ok := c.Command("Flags")
	assert.True(t, ok)
	_, ok = c.Command("Parent")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "skipping chunk command")
}

func TestStringCommand(t *testing.T) {
	t.Run("windows-1252", func(t *testing.T) {
		content := append(make([]byte, 8), 'C', 'a', 'f', 0xe9, 0, 'x')
		buf := append(header(0x2c, 1, 0, uint32(len(content)), 0, 0), content...)
		buf = append(buf, make([]byte, 8)...)
		f, err := NewChunkFactory(6)
		require.NoError(t, err)
		c, err := f.CreateChunk(buf, 0)
		require.NoError(t, err)
		cmd, ok := c.Command("Text")
		require.True(t, ok)
		assert.Equal(t, "Café", cmd.Value)
	})

	t.Run("utf-16le", func(t *testing.T) {
		content := append(make([]byte, 8), 'H', 0, 'i', 0, 0, 0)
		buf := append(header(0x83, 1, 0, uint32(len(content)), 0, 0), content...)
		f, err := NewChunkFactory(11)
		require.NoError(t, err)
		c, err := f.CreateChunk(buf, 0)
		require.NoError(t, err)
		cmd, ok := c.Command("Name")
		require.True(t, ok)
		assert.Equal(t, "Hi", cmd.Value)
	})
}

func TestCustomCommandTable(t *testing.T) {
	table, err := ParseCommandTable([]byte(`
chunks:
  - type: 0x46
    name: Probe
    commands:
      - {name: Width, type: 9, offset: 0}
      - {name: Mystery, type: 99, offset: 0}
`))
	require.NoError(t, err)

	content := binary.LittleEndian.AppendUint64(nil, math.Float64bits(2.5))
	buf := append(header(0x46, 1, 0, 8, 0, 0), content...)
	f, err := NewChunkFactory(6, WithCommandTable(table))
	require.NoError(t, err)
	c, err := f.CreateChunk(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "Probe", c.Name(table))
	require.Len(t, c.Commands, 2)
	assert.Equal(t, 2.5, c.Commands[0].Value)
	assert.Nil(t, c.Commands[1].Value)

	_, err = ParseCommandTable([]byte("chunks:\n  - {type: 1}\n  - {type: 1}\n"))
	assert.ErrorContains(t, err, "listed twice")
}

func TestParseChunks(t *testing.T) {
	var buf []byte
	buf = append(buf, header(0x46, 1, 0, 2, 0, 0)...)
	buf = append(buf, 0xaa, 0xbb)
	buf = append(buf, header(0x2c, 2, 0, 1, 0, 0)...)
	buf = append(buf, 'x')
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, make([]byte, 6)...)

	f, err := NewChunkFactory(6)
	require.NoError(t, err)
	chunks, err := ParseChunks(f, buf)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, uint32(1), chunks[0].Header.ID)
	assert.Equal(t, uint32(2), chunks[1].Header.ID)

	chunks, err = ParseChunks(f, append(buf[:21:21], 0x01, 0x02))
	assert.ErrorIs(t, err, lebin.ErrTruncated)
	assert.Len(t, chunks, 1)
}

func TestDecompress(t *testing.T) {
	// Three literals, then a back-reference to ring position 0 of length 3.
	stream := []byte{0x07, 'a', 'b', 'c', 0xee, 0xf0}
	out, err := Decompress(bytes.NewReader(stream), 0)
	require.NoError(t, err)
	assert.Equal(t, "abcabc", string(out))

	// Overlapping copy repeats the run.
	stream = []byte{0x01, 'z', 0xee, 0xf3}
	out, err = Decompress(bytes.NewReader(stream), 0)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("z", 7), string(out))

	_, err = Decompress(bytes.NewReader(stream), 4)
	assert.ErrorIs(t, err, ErrOutputLimit)
}
