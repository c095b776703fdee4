package msg

import (
	"encoding/binary"
	"fmt"

	"github.com/yamitzky/msbin-go/lebin"
)

// Streams of the __nameid_version1.0 storage.
const (
	nameIDGUIDStream   uint16 = 0x0002
	nameIDEntryStream  uint16 = 0x0003
	nameIDStringStream uint16 = 0x0004
)

// NamedProperty maps a property ID at or above 0x8000 to its name.
type NamedProperty struct {
	ID       uint16
	GUID     GUID
	IsString bool
	Name     string // set when IsString
	LID      uint32 // numeric name otherwise
}

func (n NamedProperty) String() string {
	if n.IsString {
		return fmt.Sprintf("%04X %s %q", n.ID, n.GUID, n.Name)
	}
	return fmt.Sprintf("%04X %s 0x%04X", n.ID, n.GUID, n.LID)
}

// NameID is the named-property map of a message.
type NameID struct {
	*Chunks
	Named []NamedProperty
}

// Lookup returns the name of a named property ID.
func (n *NameID) Lookup(id uint16) (NamedProperty, bool) {
	for _, np := range n.Named {
		if np.ID == id {
			return np, true
		}
	}
	return NamedProperty{}, false
}

// Find returns the ID assigned to a string-named property in a property set.
func (n *NameID) Find(set GUID, name string) (uint16, bool) {
	for _, np := range n.Named {
		if np.IsString && np.GUID == set && np.Name == name {
			return np.ID, true
		}
	}
	return 0, false
}

// decodeMap reads the entry stream. Each 8-byte entry holds the numeric
// name or the offset of the string name, then the property kind in bit 0,
// the GUID index in bits 1-15 and the property index in the high 16 bits.
func (n *NameID) decodeMap() error {
	guids, _ := n.Bytes(nameIDGUIDStream)
	entries, _ := n.Bytes(nameIDEntryStream)
	names, _ := n.Bytes(nameIDStringStream)
	if len(entries)%8 != 0 {
		return fmt.Errorf("entry stream length %d is not a multiple of 8", len(entries))
	}
	n.Named = make([]NamedProperty, 0, len(entries)/8)
	for off := 0; off < len(entries); off += 8 {
		ident := binary.LittleEndian.Uint32(entries[off:])
		kindAndGUID := binary.LittleEndian.Uint16(entries[off+4:])
		index := binary.LittleEndian.Uint16(entries[off+6:])
		np := NamedProperty{ID: firstNamedPropertyID + index}

		switch gi := int(kindAndGUID >> 1); gi {
		case 0:
		case 1:
			np.GUID = PSMAPI
		case 2:
			np.GUID = PSPublicStrings
		default:
			g, err := ParseGUID(guids[min((gi-3)*16, len(guids)):])
			if err != nil {
				return fmt.Errorf("named property %d: guid %d: %w", index, gi, err)
			}
			np.GUID = g
		}

		if kindAndGUID&1 == 0 {
			np.LID = ident
		} else {
			size, err := lebin.Uint32(names, int(ident))
			if err != nil {
				return fmt.Errorf("named property %d: %w", index, err)
			}
			raw, err := lebin.Slice(names, int(ident)+4, int(size))
			if err != nil {
				return fmt.Errorf("named property %d: %w", index, err)
			}
			s, err := utf16le.NewDecoder().Bytes(raw)
			if err != nil {
				return fmt.Errorf("named property %d: %w", index, err)
			}
			np.IsString = true
			np.Name = string(s)
		}
		n.Named = append(n.Named, np)
	}
	return nil
}
