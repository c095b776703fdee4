package msg

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/yamitzky/msbin-go/biff"
	"github.com/yamitzky/msbin-go/lebin"
)

// Entry is one stream of the compound file, addressed by its path from the
// root storage with "/" separators.
type Entry struct {
	Path string
	Data []byte
}

// Kind says which part of the message a group of chunks belongs to.
type Kind uint8

const (
	KindMain Kind = iota
	KindRecipient
	KindAttachment
	KindNameID
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindRecipient:
		return "recipient"
	case KindAttachment:
		return "attachment"
	case KindNameID:
		return "nameid"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

const (
	recipientPrefix  = "__recip_version1.0_#"
	attachmentPrefix = "__attach_version1.0_#"
	nameIDStorage    = "__nameid_version1.0"
	embeddedStorage  = "__substg1.0_3701000D"
)

// Sizes of the header that precedes the entries of a properties stream.
const (
	topHeaderSize      = 32
	embeddedHeaderSize = 24
	childHeaderSize    = 8
	propEntrySize      = 16
)

// classify maps a top-level storage name to the group it starts.
func classify(storage string) (Kind, int, bool) {
	for _, p := range []struct {
		prefix string
		kind   Kind
	}{{recipientPrefix, KindRecipient}, {attachmentPrefix, KindAttachment}} {
		if n, ok := strings.CutPrefix(storage, p.prefix); ok {
			v, err := strconv.ParseUint(n, 16, 32)
			if err != nil {
				return KindMain, -1, false
			}
			return p.kind, int(v), true
		}
	}
	if storage == nameIDStorage {
		return KindNameID, -1, true
	}
	return KindMain, -1, false
}

// Chunks is the set of properties stored under one storage.
type Chunks struct {
	Kind   Kind
	Name   string // storage name, empty for the message itself
	Number int    // from the storage name, -1 when it has none

	props    []*Property
	byID     map[uint16]*Property
	streams  []Entry
	embedded []Entry
	enc      encoding.Encoding
}

func newChunks(kind Kind, name string, number int) *Chunks {
	return &Chunks{Kind: kind, Name: name, Number: number, byID: make(map[uint16]*Property)}
}

// Properties returns the properties in the order they were read.
func (c *Chunks) Properties() []*Property { return c.props }

// Get returns the first property read with the given ID.
func (c *Chunks) Get(id uint16) (*Property, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Text returns a string property. Binary values are decoded with the
// message's 8-bit encoding.
func (c *Chunks) Text(id uint16) (string, bool) {
	p, ok := c.byID[id]
	if !ok {
		return "", false
	}
	switch v := p.Value.(type) {
	case string:
		return v, true
	case []byte:
		enc := c.enc
		if enc == nil {
			enc = charmap.Windows1252
		}
		s, err := enc.NewDecoder().Bytes(v)
		if err != nil {
			return "", false
		}
		return strings.TrimRight(string(s), "\x00"), true
	}
	return "", false
}

// Bytes returns a binary property.
func (c *Chunks) Bytes(id uint16) ([]byte, bool) {
	p, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	b, ok := p.Value.([]byte)
	return b, ok
}

// Int returns an integer property of any width.
func (c *Chunks) Int(id uint16) (int64, bool) {
	p, ok := c.byID[id]
	if !ok {
		return 0, false
	}
	switch v := p.Value.(type) {
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

// Time returns a FILETIME property.
func (c *Chunks) Time(id uint16) (time.Time, bool) {
	p, ok := c.byID[id]
	if !ok {
		return time.Time{}, false
	}
	t, ok := p.Value.(time.Time)
	return t, ok
}

func (c *Chunks) put(p *Property) {
	c.props = append(c.props, p)
	if _, ok := c.byID[p.Tag.ID]; !ok {
		c.byID[p.Tag.ID] = p
	}
}

func (c *Chunks) find(tag Tag) *Property {
	for _, p := range c.props {
		if p.Tag == tag {
			return p
		}
	}
	return nil
}

func (c *Chunks) path(stream string) string {
	if c.Name == "" {
		return stream
	}
	return c.Name + "/" + stream
}

// Header is the header of the top-level properties stream.
type Header struct {
	NextRecipientID  uint32
	NextAttachmentID uint32
	RecipientCount   uint32
	AttachmentCount  uint32
}

// Message is a grouped .msg file.
type Message struct {
	Header      Header
	Main        *Chunks
	Recipients  []*Recipient
	Attachments []*Attachment
	NameID      *NameID
}

// Recipient is one __recip_ storage.
type Recipient struct {
	*Chunks
}

// Attachment is one __attach_ storage. Embedded is set when the attachment
// is itself a message.
type Attachment struct {
	*Chunks
	Embedded *Message
}

// Options configures Parse.
type Options struct {
	// Encoding decodes 8-bit strings. When nil it is derived from the
	// message codepage properties, falling back to Windows-1252.
	Encoding encoding.Encoding

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Parse groups the streams of a message. Streams belong to the storage
// named by the first component of their path; top-level streams belong to
// the message itself. Recipients and attachments are returned in ascending
// storage number.
//
// Streams that fail to decode are reported in the returned error, which
// joins one *EntryError per stream; the message is still returned.
func Parse(entries []Entry, opts *Options) (*Message, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return parse(entries, opts.Encoding, logger, topHeaderSize)
}

func parse(entries []Entry, forced encoding.Encoding, logger *slog.Logger, headerSize int) (*Message, error) {
	m := &Message{Main: newChunks(KindMain, "", -1)}
	groups := make(map[string]*Chunks)
	cur := m.Main
	for _, e := range entries {
		path := strings.Trim(e.Path, "/")
		storage, rest, nested := strings.Cut(path, "/")
		if !nested {
			m.Main.streams = append(m.Main.streams, Entry{Path: path, Data: e.Data})
			cur = m.Main
			continue
		}
		if storage != cur.Name {
			g, ok := groups[storage]
			if !ok {
				kind, num, known := classify(storage)
				if !known {
					logger.Debug("msg: skipping unknown storage", "path", path)
					continue
				}
				g = newChunks(kind, storage, num)
				groups[storage] = g
				switch kind {
				case KindRecipient:
					m.Recipients = append(m.Recipients, &Recipient{g})
				case KindAttachment:
					m.Attachments = append(m.Attachments, &Attachment{Chunks: g})
				case KindNameID:
					m.NameID = &NameID{Chunks: g}
				}
			}
			cur = g
		}
		if cur.Kind == KindAttachment {
			if sub, inner, ok := strings.Cut(rest, "/"); ok && sub == embeddedStorage {
				cur.embedded = append(cur.embedded, Entry{Path: inner, Data: e.Data})
				continue
			}
		}
		if strings.Contains(rest, "/") {
			logger.Debug("msg: skipping nested stream", "path", path)
			continue
		}
		cur.streams = append(cur.streams, Entry{Path: rest, Data: e.Data})
	}

	var errs []error
	h, err := m.Main.decodeProperties(headerSize)
	if err != nil {
		errs = append(errs, err)
	}
	m.Header = h
	enc := forced
	if enc == nil {
		enc = m.Main.codepageEncoding()
	}
	d := &decoder{enc: enc, logger: logger}
	errs = append(errs, d.decodeStreams(m.Main)...)

	for _, r := range m.Recipients {
		errs = append(errs, d.decodeGroup(r.Chunks)...)
	}
	for _, a := range m.Attachments {
		errs = append(errs, d.decodeGroup(a.Chunks)...)
		if len(a.embedded) > 0 {
			sub, err := parse(a.embedded, forced, logger, embeddedHeaderSize)
			if err != nil {
				errs = append(errs, err)
			}
			a.Embedded = sub
		}
	}
	if m.NameID != nil {
		errs = append(errs, d.decodeGroup(m.NameID.Chunks)...)
		if err := m.NameID.decodeMap(); err != nil {
			errs = append(errs, &EntryError{Path: nameIDStorage, Err: err})
		}
	}

	slices.SortStableFunc(m.Recipients, func(a, b *Recipient) int { return cmp.Compare(a.Number, b.Number) })
	slices.SortStableFunc(m.Attachments, func(a, b *Attachment) int { return cmp.Compare(a.Number, b.Number) })

	if headerSize >= embeddedHeaderSize && len(m.Main.props) > 0 {
		if n := int(h.RecipientCount); n != len(m.Recipients) {
			logger.Warn("msg: recipient count mismatch", "header", n, "found", len(m.Recipients))
		}
		if n := int(h.AttachmentCount); n != len(m.Attachments) {
			logger.Warn("msg: attachment count mismatch", "header", n, "found", len(m.Attachments))
		}
	}
	return m, errors.Join(errs...)
}

// decodeProperties reads the fixed-width values of the properties stream.
// Variable-width properties listed there are read from their own streams.
func (c *Chunks) decodeProperties(headerSize int) (Header, error) {
	var h Header
	for _, e := range c.streams {
		if e.Path != propertiesStreamName {
			continue
		}
		data := e.Data
		if err := lebin.Check(data, 0, headerSize); err != nil {
			return h, &EntryError{Path: c.path(e.Path), Err: err}
		}
		if headerSize >= embeddedHeaderSize {
			h = Header{
				NextRecipientID:  binary.LittleEndian.Uint32(data[8:]),
				NextAttachmentID: binary.LittleEndian.Uint32(data[12:]),
				RecipientCount:   binary.LittleEndian.Uint32(data[16:]),
				AttachmentCount:  binary.LittleEndian.Uint32(data[20:]),
			}
		}
		for off := headerSize; off+propEntrySize <= len(data); off += propEntrySize {
			t := Type(binary.LittleEndian.Uint16(data[off:]))
			id := binary.LittleEndian.Uint16(data[off+2:])
			if t.fixedSize() == 0 {
				continue
			}
			raw := data[off+8 : off+propEntrySize]
			v, err := decodeValue(t, raw, nil)
			if err != nil {
				return h, &EntryError{Path: c.path(e.Path), Err: err}
			}
			c.put(&Property{Tag: Tag{ID: id, Type: t}, Value: v, Raw: raw})
		}
		return h, nil
	}
	return h, nil
}

func (c *Chunks) codepageEncoding() encoding.Encoding {
	for _, id := range []uint16{PropMessageCodepage, PropInternetCodepage} {
		if cp, ok := c.Int(id); ok {
			return encodingFromCodepage(int(cp))
		}
	}
	return charmap.Windows1252
}

func encodingFromCodepage(cp int) encoding.Encoding {
	switch cp {
	case 65001:
		return unicode.UTF8
	case 28591:
		return charmap.ISO8859_1
	}
	return biff.EncodingFromCodepage(cp)
}

type decoder struct {
	enc    encoding.Encoding
	logger *slog.Logger
}

func (d *decoder) decodeGroup(c *Chunks) []error {
	var errs []error
	if _, err := c.decodeProperties(childHeaderSize); err != nil {
		errs = append(errs, err)
	}
	return append(errs, d.decodeStreams(c)...)
}

func (d *decoder) decodeStreams(c *Chunks) []error {
	c.enc = d.enc
	var errs []error
	for _, e := range c.streams {
		if e.Path == propertiesStreamName {
			continue
		}
		if !strings.HasPrefix(e.Path, substgPrefix) {
			d.logger.Debug("msg: skipping stream", "path", c.path(e.Path))
			continue
		}
		tag, index, err := ParseTag(e.Path)
		if err == nil && index >= len(c.streams) {
			err = fmt.Errorf("element index %d out of range", index)
		}
		if err == nil {
			err = d.decodeStream(c, tag, index, e.Data)
		}
		if err != nil {
			errs = append(errs, &EntryError{Path: c.path(e.Path), Err: err})
		}
	}
	return errs
}

func (d *decoder) decodeStream(c *Chunks, tag Tag, index int, data []byte) error {
	if !tag.Type.Multiple() {
		v, err := decodeValue(tag.Type, data, d.enc)
		if err != nil {
			return err
		}
		c.put(&Property{Tag: tag, Value: v, Raw: data})
		return nil
	}
	base := tag.Type.Base()
	p := c.find(tag)
	if p == nil {
		p = &Property{Tag: tag, Value: []any{}}
		c.put(p)
	}
	if index < 0 {
		if base.fixedSize() == 0 && base != TypeCLSID {
			// element lengths; the elements follow in their own streams
			p.Raw = data
			return nil
		}
		vals, err := splitMulti(base, data, d.enc)
		if err != nil {
			return err
		}
		p.Value, p.Raw = vals, data
		return nil
	}
	v, err := decodeValue(base, data, d.enc)
	if err != nil {
		return err
	}
	vals := p.Value.([]any)
	for len(vals) <= index {
		vals = append(vals, nil)
	}
	vals[index] = v
	p.Value = vals
	return nil
}

func (m *Message) text(id uint16) string {
	s, _ := m.Main.Text(id)
	return s
}

// Subject returns the subject line.
func (m *Message) Subject() string { return m.text(PropSubject) }

// Body returns the plain-text body.
func (m *Message) Body() string { return m.text(PropBody) }

// BodyHTML returns the HTML body.
func (m *Message) BodyHTML() string { return m.text(PropBodyHTML) }

// DisplayFrom returns the sender's display name.
func (m *Message) DisplayFrom() string { return m.text(PropSenderName) }

// DisplayTo returns the formatted To line, names separated by semicolons.
func (m *Message) DisplayTo() string { return m.text(PropDisplayTo) }

// DisplayCC returns the formatted CC line.
func (m *Message) DisplayCC() string { return m.text(PropDisplayCC) }

// DisplayBCC returns the formatted BCC line. Only sent mail carries it.
func (m *Message) DisplayBCC() string { return m.text(PropDisplayBCC) }

// ConversationTopic returns the subject without RE: and FW: prefixes.
func (m *Message) ConversationTopic() string { return m.text(PropConversationTopic) }

// MessageClass returns the item class, IPM.Note for mail.
func (m *Message) MessageClass() string { return m.text(PropMessageClass) }

// InternetMessageID returns the Message-ID header value.
func (m *Message) InternetMessageID() string { return m.text(PropInternetMessageID) }

// Headers returns the transport headers, one entry per line.
func (m *Message) Headers() []string {
	s, ok := m.Main.Text(PropTransportHeaders)
	if !ok {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// Date returns the submit time, falling back to the modification and
// creation times.
func (m *Message) Date() (time.Time, bool) {
	for _, id := range []uint16{PropClientSubmitTime, PropLastModificationTime, PropCreationTime} {
		if t, ok := m.Main.Time(id); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// RecipientEmailAddresses returns one address per recipient, normally in
// To, CC, BCC order.
func (m *Message) RecipientEmailAddresses() ([]string, error) {
	if len(m.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients section", ErrNotFound)
	}
	out := make([]string, len(m.Recipients))
	for i, r := range m.Recipients {
		s, ok := r.Email()
		if !ok {
			return nil, fmt.Errorf("%w: no email address for recipient %d", ErrNotFound, i+1)
		}
		out[i] = s
	}
	return out, nil
}

// RecipientNames returns one display name per recipient.
func (m *Message) RecipientNames() ([]string, error) {
	if len(m.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients section", ErrNotFound)
	}
	out := make([]string, len(m.Recipients))
	for i, r := range m.Recipients {
		s, ok := r.DisplayName()
		if !ok {
			return nil, fmt.Errorf("%w: no display name for recipient %d", ErrNotFound, i+1)
		}
		out[i] = s
	}
	return out, nil
}

// DisplayName returns the recipient's display name.
func (r *Recipient) DisplayName() (string, bool) {
	if s, ok := r.Text(PropDisplayName); ok {
		return s, true
	}
	return r.Text(PropRecipientDisplayName)
}

// Email returns the recipient's address. Exchange-style addresses are cut
// down to their CN, and a display name that looks like an address is used
// when nothing better exists.
func (r *Recipient) Email() (string, bool) {
	if s, ok := r.Text(PropSMTPAddress); ok {
		return s, true
	}
	if s, ok := r.Text(PropEmailAddress); ok {
		if _, cn, found := strings.Cut(s, "/CN="); found {
			return cn, true
		}
		return s, true
	}
	if s, ok := r.Text(PropDisplayName); ok && strings.Contains(s, "@") {
		if len(s) > 1 && s[0] == '\'' && s[len(s)-1] == '\'' {
			s = s[1 : len(s)-1]
		}
		return s, true
	}
	if b, ok := r.Bytes(PropSearchKey); ok {
		s := strings.TrimRight(string(b), "\x00")
		if addr, found := strings.CutPrefix(s, "SMTP:"); found {
			return addr, true
		}
	}
	return "", false
}

// Filename returns the long filename, or the 8.3 name when there is none.
func (a *Attachment) Filename() string {
	if s, ok := a.Text(PropAttachLongFilename); ok {
		return s
	}
	s, _ := a.Text(PropAttachFilename)
	return s
}

// Data returns the attachment contents.
func (a *Attachment) Data() []byte {
	b, _ := a.Bytes(PropAttachData)
	return b
}

// MimeType returns the declared content type.
func (a *Attachment) MimeType() string {
	s, _ := a.Text(PropAttachMimeTag)
	return s
}

// ContentID returns the Content-ID used by inline images.
func (a *Attachment) ContentID() string {
	s, _ := a.Text(PropAttachContentID)
	return s
}

// Extension returns the filename extension, including the dot.
func (a *Attachment) Extension() string {
	s, _ := a.Text(PropAttachExtension)
	return s
}

// Digest returns the BLAKE3 hash of the attachment contents.
func (a *Attachment) Digest() [32]byte { return blake3.Sum256(a.Data()) }
