package record

import (
	"fmt"
	"maps"
	"slices"
)

// UnknownName is the name reported for unregistered record types.
const UnknownName = "Unknown"

// DecodeFunc turns an atom payload into a typed value. The payload aliases
// the parsed buffer.
type DecodeFunc func(h Header, payload []byte) (any, error)

// TypeInfo describes one registered record type. Containers usually leave
// Decode nil.
type TypeInfo struct {
	Type   uint16
	Name   string
	Decode DecodeFunc
}

// Registry maps record type codes to their names and decoders. It is built
// once and never modified.
type Registry struct {
	types map[uint16]TypeInfo
}

// NewRegistry builds a registry from one or more tables. It panics on a
// duplicate type code, since tables are package-level literals.
func NewRegistry(tables ...[]TypeInfo) *Registry {
	r := &Registry{types: make(map[uint16]TypeInfo)}
	for _, table := range tables {
		for _, ti := range table {
			if prev, dup := r.types[ti.Type]; dup {
				panic(fmt.Sprintf("record: type 0x%04x registered as both %s and %s", ti.Type, prev.Name, ti.Name))
			}
			r.types[ti.Type] = ti
		}
	}
	return r
}

// Lookup returns the entry for typ. Unregistered types get the placeholder
// entry, whose decoder keeps the raw bytes as an *Unknown.
func (r *Registry) Lookup(typ uint16) TypeInfo {
	if r != nil {
		if ti, ok := r.types[typ]; ok {
			return ti
		}
	}
	return TypeInfo{Type: typ, Name: UnknownName}
}

// Known reports whether typ is registered.
func (r *Registry) Known(typ uint16) bool {
	if r == nil {
		return false
	}
	_, ok := r.types[typ]
	return ok
}

// Name returns the registered name of typ, or UnknownName.
func (r *Registry) Name(typ uint16) string {
	return r.Lookup(typ).Name
}

// Types returns the registered type codes in ascending order.
func (r *Registry) Types() []uint16 {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.types))
}
