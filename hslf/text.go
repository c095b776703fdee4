package hslf

import (
	"fmt"
	"strings"

	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

// TextRun is one block of slide or notes text.
type TextRun struct {
	Type   TextType
	Offset int
	Text   string
}

// ExtractText returns the text atoms found in recs, in stream order. Each
// run takes the type of the closest preceding TextHeaderAtom. Paragraph
// breaks are returned as newlines.
func ExtractText(recs []record.Record) []TextRun {
	var runs []TextRun
	current := TextOther
	_ = record.Walk(recs, func(rec record.Record, _ int) error {
		a, ok := rec.(*record.Atom)
		if !ok {
			return nil
		}
		switch a.Header.Type {
		case TextHeaderAtom:
			if t, ok := a.Value.(TextType); ok {
				current = t
			}
		case TextCharsAtom, TextBytesAtom:
			if s, ok := a.Value.(string); ok {
				runs = append(runs, TextRun{
					Type:   current,
					Offset: a.Offset,
					Text:   strings.ReplaceAll(s, "\r", "\n"),
				})
			}
		}
		return nil
	})
	return runs
}

// Current user stream header tokens.
const (
	CurrentUserToken          uint32 = 0xE391C05F
	CurrentUserEncryptedToken uint32 = 0xF3D1C4DF
)

// CurrentUser is the content of the "Current User" stream, which points at
// the most recent UserEditAtom of the document stream.
type CurrentUser struct {
	HeaderToken       uint32
	CurrentEditOffset uint32
	DocFinalVersion   uint16
	MajorVersion      uint8
	MinorVersion      uint8
	UserName          string
	ReleaseVersion    uint32
}

// Encrypted reports whether the document stream is encrypted.
func (u *CurrentUser) Encrypted() bool { return u.HeaderToken == CurrentUserEncryptedToken }

// DecodeCurrentUser reads the "Current User" stream. The Unicode user name,
// when present, takes precedence over the 8-bit one.
func DecodeCurrentUser(stream []byte) (*CurrentUser, error) {
	if err := lebin.Check(stream, 0, 28); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	c := lebin.NewCursor(stream, 12)
	var u CurrentUser
	u.HeaderToken, _ = c.U32()
	u.CurrentEditOffset, _ = c.U32()
	nameLen, _ := c.U16()
	u.DocFinalVersion, _ = c.U16()
	u.MajorVersion, _ = c.U8()
	u.MinorVersion, _ = c.U8()
	_ = c.Skip(2)

	if u.HeaderToken != CurrentUserToken && u.HeaderToken != CurrentUserEncryptedToken {
		return nil, fmt.Errorf("current user: unexpected header token 0x%08x", u.HeaderToken)
	}

	ansi, err := c.Bytes(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("current user name: %w", err)
	}
	name, err := decodeTextBytes(record.Header{}, ansi)
	if err != nil {
		return nil, err
	}
	u.UserName = name.(string)

	if c.Remaining() < 4 {
		return &u, nil
	}
	u.ReleaseVersion, _ = c.U32()
	if wide, err := c.Bytes(int(nameLen) * 2); err == nil {
		if s, err := decodeUTF16(wide); err == nil {
			u.UserName = s
		}
	}
	return &u, nil
}
