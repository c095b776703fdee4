package record

import (
	"io"
	"log/slog"

	"github.com/yamitzky/msbin-go/lebin"
)

// DefaultMaxDepth bounds container nesting when Parser.MaxDepth is zero.
const DefaultMaxDepth = 64

// Parser walks a record stream. A zero Parser parses with no registry, so
// every atom becomes an *Unknown.
type Parser struct {
	Registry *Registry
	MaxDepth int
	Logger   *slog.Logger

	// Strict stops the parse on the first decoder failure instead of
	// recording it on the atom.
	Strict bool
}

// Parse decodes the records in buf[offset:offset+length].
//
// A record whose declared size reaches past its window, nesting deeper than
// MaxDepth, or a corrupt-stream marker stops the parse. The records decoded
// before the failure are returned along with the error.
func (p *Parser) Parse(buf []byte, offset, length int) ([]Record, error) {
	if err := lebin.Check(buf, offset, length); err != nil {
		return nil, err
	}
	st := parseState{Parser: p, buf: buf, logger: p.Logger, maxDepth: p.MaxDepth}
	if st.logger == nil {
		st.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if st.maxDepth <= 0 {
		st.maxDepth = DefaultMaxDepth
	}
	return st.parse(offset, offset+length, 0)
}

// Parse decodes buf with a default Parser over reg.
func Parse(reg *Registry, buf []byte) ([]Record, error) {
	p := &Parser{Registry: reg}
	return p.Parse(buf, 0, len(buf))
}

type parseState struct {
	*Parser
	buf      []byte
	logger   *slog.Logger
	maxDepth int
}

func (st *parseState) parse(pos, end, depth int) ([]Record, error) {
	var recs []Record
	for end-pos >= HeaderSize {
		h, err := DecodeHeader(st.buf, pos)
		if err != nil {
			return recs, err
		}
		if h.Type == 0 && h.Size == 0xFFFF {
			return recs, ErrCorruptStream
		}
		body := pos + HeaderSize
		if uint64(h.Size) > uint64(end-body) {
			return recs, &LengthOverrunError{Offset: pos, Type: h.Type, Size: h.Size, Avail: end - body}
		}
		next := body + int(h.Size)
		ti := st.Registry.Lookup(h.Type)

		if h.IsContainer() {
			if depth+1 > st.maxDepth {
				return recs, &DepthError{Offset: pos, Depth: depth + 1, Max: st.maxDepth}
			}
			c := &Container{Header: h, Offset: pos, Name: ti.Name}
			c.Children, err = st.parse(body, next, depth+1)
			recs = append(recs, c)
			if err != nil {
				return recs, err
			}
		} else {
			a := st.decodeAtom(h, ti, pos, body, next)
			recs = append(recs, a)
			if a.Err != nil && st.Strict {
				return recs, a.Err
			}
		}
		pos = next
	}
	return recs, nil
}

func (st *parseState) decodeAtom(h Header, ti TypeInfo, pos, body, next int) *Atom {
	a := &Atom{Header: h, Offset: pos, Name: ti.Name, Payload: st.buf[body:next]}
	if ti.Decode == nil {
		if !st.Registry.Known(h.Type) {
			a.Value = &Unknown{Raw: append([]byte(nil), st.buf[pos:next]...)}
		}
		return a
	}
	v, err := ti.Decode(h, a.Payload)
	if err != nil {
		a.Err = &RecordError{Offset: pos, Type: h.Type, Name: ti.Name, Err: err}
		st.logger.Warn("record decode failed",
			"offset", pos, "type", h.Type, "name", ti.Name, "length", h.Size, "error", err)
		return a
	}
	a.Value = v
	return a
}
