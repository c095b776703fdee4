package escher

import (
	"fmt"

	"github.com/yamitzky/msbin-go/lebin"
	"github.com/yamitzky/msbin-go/record"
)

// Property IDs used by callers of this package.
const (
	PropRotation         uint16 = 4
	PropLockAspectRatio  uint16 = 120
	PropTextID           uint16 = 128
	PropBlipToDisplay    uint16 = 260
	PropBlipFilename     uint16 = 261
	PropFillColor        uint16 = 385
	PropFillBackColor    uint16 = 387
	PropNoFillHitTest    uint16 = 447
	PropLineColor        uint16 = 448
	PropLineWidth        uint16 = 459
	PropNoLineDrawDash   uint16 = 511
	PropShapeName        uint16 = 896
	PropShapeDescription uint16 = 897
	PropHyperlink        uint16 = 898
	PropGroupPrint       uint16 = 959
)

var propertyNames = map[uint16]string{
	PropRotation:         "transform.rotation",
	PropLockAspectRatio:  "protection.lockaspectratio",
	PropTextID:           "text.textid",
	PropBlipToDisplay:    "blip.bliptodisplay",
	PropBlipFilename:     "blip.blipfilename",
	PropFillColor:        "fill.fillcolor",
	PropFillBackColor:    "fill.fillbackcolor",
	PropNoFillHitTest:    "fill.nofillhittest",
	PropLineColor:        "linestyle.color",
	PropLineWidth:        "linestyle.linewidth",
	PropNoLineDrawDash:   "linestyle.nolinedrawdash",
	PropShapeName:        "groupshape.shapename",
	PropShapeDescription: "groupshape.description",
	PropHyperlink:        "groupshape.hyperlink",
	PropGroupPrint:       "groupshape.print",
}

// PropertyName returns the dotted name of a property, or "unknown".
func PropertyName(id uint16) string {
	if n, ok := propertyNames[id]; ok {
		return n
	}
	return "unknown"
}

// Property is one entry of an Opt or TertiaryOpt table. For complex
// properties Value is the length of Data.
type Property struct {
	ID      uint16
	BlipID  bool
	Complex bool
	Value   uint32
	Data    []byte
}

func (p Property) String() string {
	if p.Complex {
		return fmt.Sprintf("%s(%d) complex %d bytes", PropertyName(p.ID), p.ID, len(p.Data))
	}
	return fmt.Sprintf("%s(%d)=0x%08x", PropertyName(p.ID), p.ID, p.Value)
}

// PropertyTable is the value of an Opt or TertiaryOpt record.
type PropertyTable struct {
	Properties []Property
}

// Lookup returns the property with the given ID.
func (t *PropertyTable) Lookup(id uint16) (Property, bool) {
	for _, p := range t.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}

// decodeOpt reads the fixed 6-byte entries, then hands out the complex data
// that follows them in table order.
func decodeOpt(h record.Header, p []byte) (any, error) {
	n := int(h.Instance)
	if err := lebin.Check(p, 0, n*6); err != nil {
		return nil, fmt.Errorf("property table of %d entries: %w", n, err)
	}
	t := &PropertyTable{Properties: make([]Property, n)}
	for i := range t.Properties {
		id, _ := lebin.Uint16(p, i*6)
		v, _ := lebin.Uint32(p, i*6+2)
		t.Properties[i] = Property{
			ID:      id & 0x3FFF,
			BlipID:  id&0x4000 != 0,
			Complex: id&0x8000 != 0,
			Value:   v,
		}
	}
	pos := n * 6
	for i := range t.Properties {
		prop := &t.Properties[i]
		if !prop.Complex {
			continue
		}
		data, err := lebin.Slice(p, pos, int(prop.Value))
		if err != nil {
			return nil, fmt.Errorf("complex data of property %d: %w", prop.ID, err)
		}
		prop.Data = data
		pos += int(prop.Value)
	}
	return t, nil
}
