package biff

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/yamitzky/msbin-go/lebin"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

var encodingFromCodepage = map[int]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	1200:  utf16le,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
	10007: charmap.MacintoshCyrillic,
	32768: charmap.Macintosh,
	32769: charmap.Windows1252,
}

// EncodingFromCodepage returns the text encoding of a CODEPAGE value.
// Unknown codepages fall back to Windows-1252.
func EncodingFromCodepage(cp int) encoding.Encoding {
	if e, ok := encodingFromCodepage[cp]; ok {
		return e
	}
	return charmap.Windows1252
}

func readLen(data []byte, pos, lenlen int) (int, error) {
	if lenlen == 1 {
		n, err := lebin.Uint8(data, pos)
		return int(n), err
	}
	n, err := lebin.Uint16(data, pos)
	return int(n), err
}

func decode(enc encoding.Encoding, b []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode string: %w", err)
	}
	return string(out), nil
}

// UnpackString reads an 8-bit string preceded by a lenlen-byte character
// count, as stored by BIFF7 and earlier.
func UnpackString(data []byte, pos int, enc encoding.Encoding, lenlen int) (string, error) {
	s, _, err := UnpackStringUpdatePos(data, pos, enc, lenlen, nil)
	return s, err
}

// UnpackStringUpdatePos is UnpackString returning the position after the
// string. A non-nil knownLen means the count has already been read.
func UnpackStringUpdatePos(data []byte, pos int, enc encoding.Encoding, lenlen int, knownLen *int) (string, int, error) {
	var nchars int
	if knownLen != nil {
		nchars = *knownLen
	} else {
		n, err := readLen(data, pos, lenlen)
		if err != nil {
			return "", pos, err
		}
		nchars = n
		pos += lenlen
	}
	if enc == nil {
		enc = charmap.Windows1252
	}
	if enc == utf16le {
		nchars *= 2
	}
	raw, err := lebin.Slice(data, pos, nchars)
	if err != nil {
		return "", pos, err
	}
	s, err := decode(enc, raw)
	return s, pos + nchars, err
}

// UnpackUnicode reads a BIFF8 string: a lenlen-byte character count, an
// option byte, and compressed (one byte per character) or UTF-16LE
// characters.
func UnpackUnicode(data []byte, pos int, lenlen int) (string, error) {
	s, _, err := UnpackUnicodeUpdatePos(data, pos, lenlen, nil)
	return s, err
}

// UnpackUnicodeUpdatePos is UnpackUnicode returning the position after the
// string, its rich-text runs and its phonetic block.
func UnpackUnicodeUpdatePos(data []byte, pos int, lenlen int, knownLen *int) (string, int, error) {
	var nchars int
	if knownLen != nil {
		nchars = *knownLen
	} else {
		n, err := readLen(data, pos, lenlen)
		if err != nil {
			return "", pos, err
		}
		nchars = n
		pos += lenlen
	}
	if nchars == 0 && pos >= len(data) {
		return "", pos, nil
	}

	c := lebin.NewCursor(data, pos)
	options, err := c.U8()
	if err != nil {
		return "", pos, err
	}
	var richRuns uint16
	var phoneticSize uint32
	if options&0x08 != 0 {
		if richRuns, err = c.U16(); err != nil {
			return "", pos, err
		}
	}
	if options&0x04 != 0 {
		if phoneticSize, err = c.U32(); err != nil {
			return "", pos, err
		}
	}

	var s string
	if options&0x01 != 0 {
		raw, err := c.Bytes(2 * nchars)
		if err != nil {
			return "", pos, err
		}
		if s, err = decode(utf16le, raw); err != nil {
			return "", pos, err
		}
	} else {
		raw, err := c.Bytes(nchars)
		if err != nil {
			return "", pos, err
		}
		if s, err = decode(charmap.ISO8859_1, raw); err != nil {
			return "", pos, err
		}
	}

	if err := c.Skip(4*int(richRuns) + int(phoneticSize)); err != nil {
		return "", pos, err
	}
	return s, c.Pos(), nil
}
