// Package msg groups the property streams of an Outlook .msg file into
// the message, its recipients, its attachments and the named-property map.
//
// The compound-file container is not read here. Callers walk the storage
// tree themselves and hand over each stream as an Entry with its full path.
package msg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/yamitzky/msbin-go/lebin"
)

// Type is a MAPI property type.
type Type uint16

const (
	TypeUnspecified Type = 0x0000
	TypeNull        Type = 0x0001
	TypeInt16       Type = 0x0002
	TypeInt32       Type = 0x0003
	TypeFloat32     Type = 0x0004
	TypeFloat64     Type = 0x0005
	TypeCurrency    Type = 0x0006
	TypeAppTime     Type = 0x0007
	TypeError       Type = 0x000A
	TypeBool        Type = 0x000B
	TypeObject      Type = 0x000D
	TypeInt64       Type = 0x0014
	TypeString8     Type = 0x001E
	TypeUnicode     Type = 0x001F
	TypeTime        Type = 0x0040
	TypeCLSID       Type = 0x0048
	TypeBinary      Type = 0x0102

	// MultipleValued is or'ed into a base type for multi-valued properties.
	MultipleValued Type = 0x1000
)

var typeNames = map[Type]string{
	TypeUnspecified: "unspecified",
	TypeNull:        "null",
	TypeInt16:       "int16",
	TypeInt32:       "int32",
	TypeFloat32:     "float32",
	TypeFloat64:     "float64",
	TypeCurrency:    "currency",
	TypeAppTime:     "apptime",
	TypeError:       "error",
	TypeBool:        "bool",
	TypeObject:      "object",
	TypeInt64:       "int64",
	TypeString8:     "string8",
	TypeUnicode:     "unicode",
	TypeTime:        "time",
	TypeCLSID:       "clsid",
	TypeBinary:      "binary",
}

func (t Type) String() string {
	if t&MultipleValued != 0 {
		return "multi-" + (t &^ MultipleValued).String()
	}
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(0x%04X)", uint16(t))
}

// Multiple reports whether the type carries the multi-valued flag.
func (t Type) Multiple() bool { return t&MultipleValued != 0 }

// Base strips the multi-valued flag.
func (t Type) Base() Type { return t &^ MultipleValued }

// fixedSize returns the inline width of a fixed-length type, 0 otherwise.
func (t Type) fixedSize() int {
	switch t {
	case TypeInt16:
		return 2
	case TypeInt32, TypeFloat32, TypeError, TypeBool:
		return 4
	case TypeFloat64, TypeCurrency, TypeAppTime, TypeInt64, TypeTime:
		return 8
	}
	return 0
}

// Property IDs looked up by the accessors.
const (
	PropImportance           uint16 = 0x0017
	PropMessageClass         uint16 = 0x001A
	PropSubject              uint16 = 0x0037
	PropClientSubmitTime     uint16 = 0x0039
	PropConversationTopic    uint16 = 0x0070
	PropTransportHeaders     uint16 = 0x007D
	PropSenderName           uint16 = 0x0C1A
	PropRecipientType        uint16 = 0x0C15
	PropSenderEmailAddress   uint16 = 0x0C1F
	PropDisplayBCC           uint16 = 0x0E02
	PropDisplayCC            uint16 = 0x0E03
	PropDisplayTo            uint16 = 0x0E04
	PropMessageDeliveryTime  uint16 = 0x0E06
	PropMessageFlags         uint16 = 0x0E07
	PropAttachSize           uint16 = 0x0E20
	PropBody                 uint16 = 0x1000
	PropBodyHTML             uint16 = 0x1013
	PropInternetMessageID    uint16 = 0x1035
	PropDisplayName          uint16 = 0x3001
	PropEmailAddress         uint16 = 0x3003
	PropCreationTime         uint16 = 0x3007
	PropSearchKey            uint16 = 0x300B
	PropLastModificationTime uint16 = 0x3008
	PropAttachData           uint16 = 0x3701
	PropAttachExtension      uint16 = 0x3703
	PropAttachFilename       uint16 = 0x3704
	PropAttachMethod         uint16 = 0x3705
	PropAttachLongFilename   uint16 = 0x3707
	PropAttachMimeTag        uint16 = 0x370E
	PropAttachContentID      uint16 = 0x3712
	PropSMTPAddress          uint16 = 0x39FE
	PropInternetCodepage     uint16 = 0x3FDE
	PropMessageCodepage      uint16 = 0x3FFD
	PropRecipientDisplayName uint16 = 0x5FF6
)

// Named properties are assigned IDs from here upward.
const firstNamedPropertyID uint16 = 0x8000

const (
	substgPrefix         = "__substg1.0_"
	propertiesStreamName = "__properties_version1.0"
)

// Tag identifies a property stream: the property ID and its type.
type Tag struct {
	ID   uint16
	Type Type
}

func (t Tag) String() string {
	return fmt.Sprintf("%04X%04X", t.ID, uint16(t.Type))
}

// ParseTag parses a stream name of the form __substg1.0_IIIITTTT, with an
// optional -NNNNNNNN suffix naming one element of a multi-valued property.
// index is -1 when there is no suffix.
func ParseTag(name string) (tag Tag, index int, err error) {
	rest, ok := strings.CutPrefix(name, substgPrefix)
	if !ok || len(rest) < 8 {
		return Tag{}, -1, &NameError{Name: name}
	}
	v, err := strconv.ParseUint(rest[:8], 16, 32)
	if err != nil {
		return Tag{}, -1, &NameError{Name: name}
	}
	tag = Tag{ID: uint16(v >> 16), Type: Type(v & 0xFFFF)}
	index = -1
	if suffix := rest[8:]; suffix != "" {
		n, ok := strings.CutPrefix(suffix, "-")
		if !ok {
			return Tag{}, -1, &NameError{Name: name}
		}
		i, err := strconv.ParseUint(n, 16, 32)
		if err != nil {
			return Tag{}, -1, &NameError{Name: name}
		}
		index = int(i)
	}
	return tag, index, nil
}

// Property is one decoded property. Value holds a string, []byte, int16,
// int32, int64, float32, float64, bool, time.Time or GUID depending on
// the type; multi-valued properties hold a []any.
type Property struct {
	Tag   Tag
	Value any
	Raw   []byte
}

// String renders the value for display.
func (p *Property) String() string {
	switch v := p.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return fmt.Sprintf("%d bytes", len(v))
	case time.Time:
		return v.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = (&Property{Value: e}).String()
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprint(p.Value)
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// filetimeEpochDelta is the number of seconds between 1601-01-01 and
// 1970-01-01.
const filetimeEpochDelta = 11644473600

// FiletimeToTime converts a Windows FILETIME, 100ns ticks since 1601, to UTC.
func FiletimeToTime(ft uint64) time.Time {
	secs := int64(ft/10_000_000) - filetimeEpochDelta
	nsec := int64(ft%10_000_000) * 100
	return time.Unix(secs, nsec).UTC()
}

// decodeValue converts the raw bytes of a single value of base type t.
// Unknown types keep their bytes.
func decodeValue(t Type, data []byte, enc encoding.Encoding) (any, error) {
	if n := t.fixedSize(); n > 0 {
		if err := lebin.Check(data, 0, n); err != nil {
			return nil, err
		}
	}
	switch t {
	case TypeUnicode:
		s, err := utf16le.NewDecoder().Bytes(data)
		if err != nil {
			return nil, err
		}
		return strings.TrimRight(string(s), "\x00"), nil
	case TypeString8:
		s, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, err
		}
		return strings.TrimRight(string(s), "\x00"), nil
	case TypeInt16:
		v, _ := lebin.Int16(data, 0)
		return v, nil
	case TypeInt32:
		v, _ := lebin.Int32(data, 0)
		return v, nil
	case TypeError:
		v, _ := lebin.Uint32(data, 0)
		return v, nil
	case TypeBool:
		v, _ := lebin.Uint16(data, 0)
		return v != 0, nil
	case TypeFloat32:
		v, _ := lebin.Uint32(data, 0)
		return math.Float32frombits(v), nil
	case TypeFloat64, TypeAppTime:
		v, _ := lebin.Float64(data, 0)
		return v, nil
	case TypeCurrency:
		v, _ := lebin.Int64(data, 0)
		return float64(v) / 10000, nil
	case TypeInt64:
		v, _ := lebin.Int64(data, 0)
		return v, nil
	case TypeTime:
		v, _ := lebin.Uint64(data, 0)
		return FiletimeToTime(v), nil
	case TypeCLSID:
		return ParseGUID(data)
	}
	return data, nil
}

// splitMulti splits the body of a multi-valued fixed-width property stream
// into its elements.
func splitMulti(t Type, data []byte, enc encoding.Encoding) ([]any, error) {
	width := t.fixedSize()
	if t == TypeCLSID {
		width = 16
	}
	if width == 0 || len(data)%width != 0 {
		return nil, fmt.Errorf("multi-valued %s: %d bytes is not a multiple of %d", t, len(data), width)
	}
	out := make([]any, 0, len(data)/width)
	for off := 0; off < len(data); off += width {
		v, err := decodeValue(t, data[off:off+width], enc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
