// Package escher registers the Office drawing record types (0xF000 to
// 0xF122) shared by the PowerPoint, Excel and Word binary formats.
package escher

import "github.com/yamitzky/msbin-go/record"

// Record type codes.
const (
	DggContainer    uint16 = 0xF000
	BStoreContainer uint16 = 0xF001
	DgContainer     uint16 = 0xF002
	SpgrContainer   uint16 = 0xF003
	SpContainer     uint16 = 0xF004
	SolverContainer uint16 = 0xF005
	Dgg             uint16 = 0xF006
	BSE             uint16 = 0xF007
	Dg              uint16 = 0xF008
	Spgr            uint16 = 0xF009
	Sp              uint16 = 0xF00A
	Opt             uint16 = 0xF00B
	Textbox         uint16 = 0xF00C
	ClientTextbox   uint16 = 0xF00D
	Anchor          uint16 = 0xF00E
	ChildAnchor     uint16 = 0xF00F
	ClientAnchor    uint16 = 0xF010
	ClientData      uint16 = 0xF011
	ConnectorRule   uint16 = 0xF012
	AlignRule       uint16 = 0xF013
	ArcRule         uint16 = 0xF014
	ClientRule      uint16 = 0xF015
	CLSID           uint16 = 0xF016
	CalloutRule     uint16 = 0xF017
	BlipEMF         uint16 = 0xF01A
	BlipWMF         uint16 = 0xF01B
	BlipPICT        uint16 = 0xF01C
	BlipJPEG        uint16 = 0xF01D
	BlipPNG         uint16 = 0xF01E
	BlipDIB         uint16 = 0xF01F
	BlipTIFF        uint16 = 0xF029
	RegroupItems    uint16 = 0xF118
	Selection       uint16 = 0xF119
	ColorMRU        uint16 = 0xF11A
	DeletedPspl     uint16 = 0xF11D
	SplitMenuColors uint16 = 0xF11E
	OleObject       uint16 = 0xF11F
	ColorScheme     uint16 = 0xF120
	TertiaryOpt     uint16 = 0xF122
)

// Types is the registry table for drawing records. Other registries embed
// it to decode drawings nested in their own streams.
var Types = []record.TypeInfo{
	{Type: DggContainer, Name: "DggContainer"},
	{Type: BStoreContainer, Name: "BStoreContainer"},
	{Type: DgContainer, Name: "DgContainer"},
	{Type: SpgrContainer, Name: "SpgrContainer"},
	{Type: SpContainer, Name: "SpContainer"},
	{Type: SolverContainer, Name: "SolverContainer"},
	{Type: Dgg, Name: "Dgg", Decode: decodeDgg},
	{Type: BSE, Name: "BSE", Decode: decodeBSE},
	{Type: Dg, Name: "Dg", Decode: decodeDg},
	{Type: Spgr, Name: "Spgr", Decode: decodeSpgr},
	{Type: Sp, Name: "Sp", Decode: decodeSp},
	{Type: Opt, Name: "Opt", Decode: decodeOpt},
	{Type: Textbox, Name: "Textbox"},
	{Type: ClientTextbox, Name: "ClientTextbox"},
	{Type: Anchor, Name: "Anchor"},
	{Type: ChildAnchor, Name: "ChildAnchor", Decode: decodeChildAnchor},
	{Type: ClientAnchor, Name: "ClientAnchor", Decode: decodeClientAnchor},
	{Type: ClientData, Name: "ClientData"},
	{Type: ConnectorRule, Name: "ConnectorRule"},
	{Type: AlignRule, Name: "AlignRule"},
	{Type: ArcRule, Name: "ArcRule"},
	{Type: ClientRule, Name: "ClientRule"},
	{Type: CLSID, Name: "CLSID"},
	{Type: CalloutRule, Name: "CalloutRule"},
	{Type: BlipEMF, Name: "BlipEMF", Decode: decodeBlip},
	{Type: BlipWMF, Name: "BlipWMF", Decode: decodeBlip},
	{Type: BlipPICT, Name: "BlipPICT", Decode: decodeBlip},
	{Type: BlipJPEG, Name: "BlipJPEG", Decode: decodeBlip},
	{Type: BlipPNG, Name: "BlipPNG", Decode: decodeBlip},
	{Type: BlipDIB, Name: "BlipDIB", Decode: decodeBlip},
	{Type: BlipTIFF, Name: "BlipTIFF", Decode: decodeBlip},
	{Type: RegroupItems, Name: "RegroupItems"},
	{Type: Selection, Name: "Selection"},
	{Type: ColorMRU, Name: "ColorMRU"},
	{Type: DeletedPspl, Name: "DeletedPspl"},
	{Type: SplitMenuColors, Name: "SplitMenuColors", Decode: decodeSplitMenuColors},
	{Type: OleObject, Name: "OleObject"},
	{Type: ColorScheme, Name: "ColorScheme"},
	{Type: TertiaryOpt, Name: "TertiaryOpt", Decode: decodeOpt},
}

// Registry holds only the drawing record types.
var Registry = record.NewRegistry(Types)
