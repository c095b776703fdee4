package msg

import (
	"github.com/google/uuid"

	"github.com/yamitzky/msbin-go/lebin"
)

// GUID is a Windows GUID. The first three fields are little-endian on disk.
type GUID uuid.UUID

// Property sets the named-property map refers to by index.
var (
	PSMAPI          = MustParseGUID("00020328-0000-0000-C000-000000000046")
	PSPublicStrings = MustParseGUID("00020329-0000-0000-C000-000000000046")
)

// ParseGUID reads a GUID in its on-disk byte order.
func ParseGUID(b []byte) (GUID, error) {
	raw, err := lebin.Slice(b, 0, 16)
	if err != nil {
		return GUID{}, err
	}
	var u uuid.UUID
	copy(u[:], raw)
	swapGUIDFields(&u)
	return GUID(u), nil
}

// MustParseGUID parses the textual form and panics on error.
func MustParseGUID(s string) GUID {
	return GUID(uuid.MustParse(s))
}

// Bytes returns the GUID in on-disk byte order.
func (g GUID) Bytes() []byte {
	u := uuid.UUID(g)
	swapGUIDFields(&u)
	return u[:]
}

func (g GUID) String() string {
	return "{" + uuid.UUID(g).String() + "}"
}

// swapGUIDFields converts between the mixed-endian Windows layout and the
// big-endian RFC 4122 layout. The operation is its own inverse.
func swapGUIDFields(u *uuid.UUID) {
	u[0], u[1], u[2], u[3] = u[3], u[2], u[1], u[0]
	u[4], u[5] = u[5], u[4]
	u[6], u[7] = u[7], u[6]
}
