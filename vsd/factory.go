package vsd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrLengthOverrun is matched by LengthOverrunError.
var ErrLengthOverrun = errors.New("chunk length overrun")

// LengthOverrunError reports a chunk whose header cannot fit in what is
// left of the buffer even after clamping.
type LengthOverrunError struct {
	Offset   int
	Type     uint32
	Declared uint32
	Avail    int
}

func (e *LengthOverrunError) Error() string {
	return fmt.Sprintf("chunk type 0x%02x at offset %d declares %d bytes but only %d remain",
		e.Type, e.Offset, e.Declared, e.Avail)
}

func (e *LengthOverrunError) Unwrap() error { return ErrLengthOverrun }

// ChunkFactory builds chunks for a single file version.
type ChunkFactory struct {
	version      int
	legacy       bool
	logger       *slog.Logger
	commandTable *CommandTable
}

// FactoryOption configures a ChunkFactory.
type FactoryOption func(*ChunkFactory)

// WithLogger sets the logger used for clamping and skipped-part diagnostics.
func WithLogger(l *slog.Logger) FactoryOption {
	return func(f *ChunkFactory) { f.logger = l }
}

// WithCommandTable replaces the embedded command definitions.
func WithCommandTable(t *CommandTable) FactoryOption {
	return func(f *ChunkFactory) { f.commandTable = t }
}

// WithLegacyHeaders allows versions 4 and 5 using the 12-byte header layout.
func WithLegacyHeaders() FactoryOption {
	return func(f *ChunkFactory) { f.legacy = true }
}

// NewChunkFactory returns a factory for the given Visio file version.
func NewChunkFactory(version int, opts ...FactoryOption) (*ChunkFactory, error) {
	f := &ChunkFactory{version: version}
	for _, opt := range opts {
		opt(f)
	}
	if version < 6 && !(f.legacy && version >= 4) {
		// Surface the same error DecodeChunkHeader would give.
		if _, err := DecodeChunkHeader(version, nil, 0); err != nil {
			return nil, err
		}
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if f.commandTable == nil {
		t, err := DefaultCommandTable()
		if err != nil {
			return nil, err
		}
		f.commandTable = t
	}
	return f, nil
}

// Version returns the file version the factory decodes.
func (f *ChunkFactory) Version() int { return f.version }

// CommandTable returns the command definitions in use.
func (f *ChunkFactory) CommandTable() *CommandTable { return f.commandTable }

func (f *ChunkFactory) decodeHeader(buf []byte, offset int) (ChunkHeader, error) {
	if f.version < 6 && f.legacy {
		return DecodeChunkHeaderV4V5(buf, offset)
	}
	return DecodeChunkHeader(f.version, buf, offset)
}

// CreateChunk decodes the chunk starting at offset.
//
// A header that claims more bytes than remain is clamped to the buffer and
// logged. A trailer or separator with no room left is skipped and logged.
func (f *ChunkFactory) CreateChunk(buf []byte, offset int) (*Chunk, error) {
	header, err := f.decodeHeader(buf, offset)
	if err != nil {
		return nil, err
	}
	hsize := header.SizeInBytes()
	endOfData := offset + hsize + int(header.Length)

	if endOfData > len(buf) || endOfData < offset {
		f.logger.Warn("chunk header calls for more bytes than remain; clamping",
			"offset", offset, "type", header.Type, "length", header.Length, "available", len(buf)-offset-hsize)

		length := len(buf) - offset - hsize
		endOfData = len(buf)
		if header.HasTrailer() {
			length -= TrailerSize
			endOfData -= TrailerSize
		}
		if header.HasSeparator() {
			length -= SeparatorSize
			endOfData -= SeparatorSize
		}
		if length < 0 {
			return nil, &LengthOverrunError{Offset: offset, Type: header.Type, Declared: header.Length, Avail: len(buf) - offset - hsize}
		}
		header.Length = uint32(length)
	}

	chunk := &Chunk{Header: header}

	if header.HasTrailer() {
		if endOfData+TrailerSize <= len(buf) {
			chunk.Trailer = append([]byte(nil), buf[endOfData:endOfData+TrailerSize]...)
			endOfData += TrailerSize
		} else {
			f.logger.Error("no room for chunk trailer",
				"offset", offset, "type", header.Type, "end", endOfData, "buffer", len(buf))
		}
	}
	if header.HasSeparator() {
		if endOfData+SeparatorSize <= len(buf) {
			chunk.Separator = append([]byte(nil), buf[endOfData:endOfData+SeparatorSize]...)
		} else {
			f.logger.Error("no room for chunk separator",
				"offset", offset, "type", header.Type, "end", endOfData, "buffer", len(buf))
		}
	}

	start := offset + hsize
	chunk.Content = append([]byte(nil), buf[start:start+int(header.Length)]...)

	chunk.Commands = f.commandTable.apply(chunk, f.logger)
	return chunk, nil
}

// ParseChunks decodes consecutive chunks until buf is exhausted. On failure
// it returns the chunks decoded so far along with the error.
func ParseChunks(f *ChunkFactory, buf []byte) ([]*Chunk, error) {
	var chunks []*Chunk
	pos := 0
	for pos < len(buf) {
		// A run of zero padding ends the stream.
		if allZero(buf[pos:]) {
			break
		}
		chunk, err := f.CreateChunk(buf, pos)
		if err != nil {
			return chunks, fmt.Errorf("chunk at offset %d: %w", pos, err)
		}
		chunks = append(chunks, chunk)
		pos += max(chunk.OnDiskSize(), 1)
	}
	return chunks, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
