package hslf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

func decodeUTF16(b []byte) (string, error) {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b[:len(b)&^1])
	return string(out), err
}

// DocumentInfo holds the DocumentAtom fields. Sizes are in master units
// (576 per inch).
type DocumentInfo struct {
	SlideSizeX, SlideSizeY int32
	NotesSizeX, NotesSizeY int32
	ServerZoomFrom         int32
	ServerZoomTo           int32
	NotesMasterPersist     uint32
	HandoutMasterPersist   uint32
	FirstSlideNum          uint16
	SlideSizeType          uint16
	SaveWithFonts          bool
	OmitTitlePlace         bool
	RightToLeft            bool
	ShowComments           bool
}

func decodeDocumentAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 40); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	var d DocumentInfo
	d.SlideSizeX, _ = c.I32()
	d.SlideSizeY, _ = c.I32()
	d.NotesSizeX, _ = c.I32()
	d.NotesSizeY, _ = c.I32()
	d.ServerZoomFrom, _ = c.I32()
	d.ServerZoomTo, _ = c.I32()
	d.NotesMasterPersist, _ = c.U32()
	d.HandoutMasterPersist, _ = c.U32()
	d.FirstSlideNum, _ = c.U16()
	d.SlideSizeType, _ = c.U16()
	for _, f := range []*bool{&d.SaveWithFonts, &d.OmitTitlePlace, &d.RightToLeft, &d.ShowComments} {
		b, _ := c.U8()
		*f = b != 0
	}
	return &d, nil
}

// SlideInfo holds the SlideAtom fields.
type SlideInfo struct {
	LayoutGeometry         int32
	PlaceholderIDs         [8]byte
	MasterID               int32
	NotesID                int32
	FollowMasterObjs       bool
	FollowMasterScheme     bool
	FollowMasterBackground bool
}

func decodeSlideAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 22); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	var s SlideInfo
	s.LayoutGeometry, _ = c.I32()
	ids, _ := c.Bytes(8)
	copy(s.PlaceholderIDs[:], ids)
	s.MasterID, _ = c.I32()
	s.NotesID, _ = c.I32()
	flags, _ := c.U16()
	s.FollowMasterObjs = flags&0x01 != 0
	s.FollowMasterScheme = flags&0x02 != 0
	s.FollowMasterBackground = flags&0x04 != 0
	return &s, nil
}

// NotesInfo holds the NotesAtom fields.
type NotesInfo struct {
	SlideID                int32
	FollowMasterObjs       bool
	FollowMasterScheme     bool
	FollowMasterBackground bool
}

func decodeNotesAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 6); err != nil {
		return nil, err
	}
	id, _ := lebin.Int32(p, 0)
	flags, _ := lebin.Uint16(p, 4)
	return &NotesInfo{
		SlideID:                id,
		FollowMasterObjs:       flags&0x01 != 0,
		FollowMasterScheme:     flags&0x02 != 0,
		FollowMasterBackground: flags&0x04 != 0,
	}, nil
}

// SlidePersist links a slide to its persist object.
type SlidePersist struct {
	RefID                          uint32
	HasShapesOtherThanPlaceholders bool
	NumPlaceholderTexts            int32
	SlideIdentifier                int32
}

func decodeSlidePersistAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 16); err != nil {
		return nil, err
	}
	ref, _ := lebin.Uint32(p, 0)
	flags, _ := lebin.Uint32(p, 4)
	n, _ := lebin.Int32(p, 8)
	id, _ := lebin.Int32(p, 12)
	return &SlidePersist{
		RefID:                          ref,
		HasShapesOtherThanPlaceholders: flags&0x04 != 0,
		NumPlaceholderTexts:            n,
		SlideIdentifier:                id,
	}, nil
}

// TextType is the kind of text that follows a TextHeaderAtom.
type TextType uint32

const (
	TextTitle TextType = iota
	TextBody
	TextNotes
	_
	TextOther
	TextCenterBody
	TextCenterTitle
	TextHalfBody
	TextQuarterBody
)

var textTypeNames = map[TextType]string{
	TextTitle:       "title",
	TextBody:        "body",
	TextNotes:       "notes",
	TextOther:       "other",
	TextCenterBody:  "center body",
	TextCenterTitle: "center title",
	TextHalfBody:    "half body",
	TextQuarterBody: "quarter body",
}

func (t TextType) String() string {
	if n, ok := textTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TextType(%d)", uint32(t))
}

func decodeTextHeaderAtom(_ record.Header, p []byte) (any, error) {
	v, err := lebin.Uint32(p, 0)
	if err != nil {
		return nil, err
	}
	return TextType(v), nil
}

func decodeTextChars(_ record.Header, p []byte) (any, error) {
	return decodeUTF16(p)
}

func decodeTextBytes(_ record.Header, p []byte) (any, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(p)
	return string(out), err
}

func decodeCString(_ record.Header, p []byte) (any, error) {
	return decodeUTF16(p)
}

// ColorScheme holds the eight scheme colours as 0x00BBGGRR values.
type ColorScheme struct {
	Background                  uint32
	TextAndLines                uint32
	Shadows                     uint32
	TitleText                   uint32
	Fills                       uint32
	Accent                      uint32
	AccentAndHyperlink          uint32
	AccentAndFollowingHyperlink uint32
}

func decodeColorSchemeAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 32); err != nil {
		return nil, err
	}
	var cs ColorScheme
	fields := []*uint32{&cs.Background, &cs.TextAndLines, &cs.Shadows, &cs.TitleText,
		&cs.Fills, &cs.Accent, &cs.AccentAndHyperlink, &cs.AccentAndFollowingHyperlink}
	for i, f := range fields {
		v, _ := lebin.Uint32(p, i*4)
		*f = v & 0x00FFFFFF
	}
	return &cs, nil
}

// FontEntity describes one font of the font collection.
type FontEntity struct {
	FaceName       string
	Charset        uint8
	Flags          uint8
	FontType       uint8
	PitchAndFamily uint8
}

const fontEntitySize = 68

func decodeFontEntityAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, fontEntitySize); err != nil {
		return nil, err
	}
	name := p[:64]
	for i := 0; i+1 < len(name); i += 2 {
		if name[i] == 0 && name[i+1] == 0 {
			name = name[:i]
			break
		}
	}
	face, err := decodeUTF16(name)
	if err != nil {
		return nil, err
	}
	return &FontEntity{
		FaceName:       face,
		Charset:        p[64],
		Flags:          p[65],
		FontType:       p[66],
		PitchAndFamily: p[67],
	}, nil
}

// UserEdit holds the UserEditAtom fields that locate the persist tables.
type UserEdit struct {
	LastViewedSlideID      int32
	PPTVersion             int32
	LastUserEditAtomOffset uint32
	PersistPointersOffset  uint32
	DocPersistRef          uint32
	MaxPersistWritten      uint32
	LastViewType           int16
	// EncryptSessionPersistRef is set only for encrypted documents.
	EncryptSessionPersistRef uint32
	Encrypted                bool
}

func decodeUserEditAtom(_ record.Header, p []byte) (any, error) {
	if err := lebin.Check(p, 0, 26); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	var u UserEdit
	u.LastViewedSlideID, _ = c.I32()
	u.PPTVersion, _ = c.I32()
	u.LastUserEditAtomOffset, _ = c.U32()
	u.PersistPointersOffset, _ = c.U32()
	u.DocPersistRef, _ = c.U32()
	u.MaxPersistWritten, _ = c.U32()
	u.LastViewType, _ = c.I16()
	if len(p) >= 32 {
		_ = c.Skip(2)
		u.EncryptSessionPersistRef, _ = c.U32()
		u.Encrypted = true
	}
	return &u, nil
}

// PersistEntry maps one persist ID to the stream offset of its record.
type PersistEntry struct {
	PersistID uint32
	Offset    uint32
}

// PersistPtrs is the value of a persist pointer block.
type PersistPtrs struct {
	Entries []PersistEntry
}

// Lookup returns the stream offset of a persist ID.
func (p *PersistPtrs) Lookup(id uint32) (uint32, bool) {
	for _, e := range p.Entries {
		if e.PersistID == id {
			return e.Offset, true
		}
	}
	return 0, false
}

// decodePersistPtrHolder reads runs of offsets. Each run starts with a
// 32-bit word whose low 20 bits are the first persist ID and high 12 bits
// the number of offsets that follow.
func decodePersistPtrHolder(_ record.Header, p []byte) (any, error) {
	c := lebin.NewCursor(p, 0)
	var pp PersistPtrs
	for c.Remaining() > 0 {
		info, err := c.U32()
		if err != nil {
			return nil, err
		}
		base := info & 0x000FFFFF
		count := int(info >> 20)
		if count*4 > c.Remaining() {
			return nil, fmt.Errorf("persist run at %d: %d offsets: %w", c.Pos()-4, count, lebin.ErrTruncated)
		}
		for i := 0; i < count; i++ {
			off, _ := c.U32()
			pp.Entries = append(pp.Entries, PersistEntry{PersistID: base + uint32(i), Offset: off})
		}
	}
	return &pp, nil
}

// OleStorage is the value of an ExOleObjStg record. Instance 1 marks a
// zlib-compressed storage preceded by its uncompressed length.
type OleStorage struct {
	Compressed bool
	Size       uint32
	Raw        []byte
}

func decodeExOleObjStg(h record.Header, p []byte) (any, error) {
	if h.Instance != 1 {
		return &OleStorage{Size: uint32(len(p)), Raw: p}, nil
	}
	size, err := lebin.Uint32(p, 0)
	if err != nil {
		return nil, err
	}
	return &OleStorage{Compressed: true, Size: size, Raw: p[4:]}, nil
}

// Data returns the storage bytes, inflating them if needed. Output beyond
// limit, or beyond the declared size when limit is zero or less, is an
// error.
func (o *OleStorage) Data(limit int) ([]byte, error) {
	if !o.Compressed {
		return o.Raw, nil
	}
	if limit <= 0 {
		limit = int(o.Size)
	}
	zr, err := zlib.NewReader(bytes.NewReader(o.Raw))
	if err != nil {
		return nil, fmt.Errorf("ole storage: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("ole storage: %w", err)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("ole storage: inflated data exceeds %d bytes", limit)
	}
	return out, nil
}
