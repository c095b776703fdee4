// Package hslf decodes the record stream of PowerPoint 97-2003 documents.
//
// The stream is read with the record package. Registry covers the
// PowerPoint record types and the drawing types from the escher package, so
// drawings embedded under PPDrawing decode in the same pass.
package hslf

import (
	"github.com/yamitzky/msbin-go/escher"
	"github.com/yamitzky/msbin-go/record"
)

// Record type codes.
const (
	Document                   uint16 = 1000
	DocumentAtom               uint16 = 1001
	EndDocument                uint16 = 1002
	Slide                      uint16 = 1006
	SlideAtom                  uint16 = 1007
	Notes                      uint16 = 1008
	NotesAtom                  uint16 = 1009
	Environment                uint16 = 1010
	SlidePersistAtom           uint16 = 1011
	SSlideLayoutAtom           uint16 = 1015
	MainMaster                 uint16 = 1016
	SSSlideInfoAtom            uint16 = 1017
	SlideViewInfo              uint16 = 1018
	GuideAtom                  uint16 = 1019
	ViewInfo                   uint16 = 1020
	ViewInfoAtom               uint16 = 1021
	SlideViewInfoAtom          uint16 = 1022
	VBAInfo                    uint16 = 1023
	VBAInfoAtom                uint16 = 1024
	SSDocInfoAtom              uint16 = 1025
	Summary                    uint16 = 1026
	DocRoutingSlip             uint16 = 1030
	OutlineViewInfo            uint16 = 1031
	SorterViewInfo             uint16 = 1032
	ExObjList                  uint16 = 1033
	ExObjListAtom              uint16 = 1034
	PPDrawingGroup             uint16 = 1035
	PPDrawing                  uint16 = 1036
	NamedShows                 uint16 = 1040
	NamedShow                  uint16 = 1041
	NamedShowSlides            uint16 = 1042
	SheetProperties            uint16 = 1044
	List                       uint16 = 2000
	FontCollection             uint16 = 2005
	BookmarkCollection         uint16 = 2019
	SoundCollection            uint16 = 2020
	SoundCollAtom              uint16 = 2021
	Sound                      uint16 = 2022
	SoundData                  uint16 = 2023
	BookmarkSeedAtom           uint16 = 2025
	ColorSchemeAtom            uint16 = 2032
	ExObjRefAtom               uint16 = 3009
	OEPlaceholderAtom          uint16 = 3011
	GPointAtom                 uint16 = 3024
	GRatioAtom                 uint16 = 3031
	OutlineTextRefAtom         uint16 = 3998
	TextHeaderAtom             uint16 = 3999
	TextCharsAtom              uint16 = 4000
	StyleTextPropAtom          uint16 = 4001
	BaseTextPropAtom           uint16 = 4002
	TxMasterStyleAtom          uint16 = 4003
	TxCFStyleAtom              uint16 = 4004
	TxPFStyleAtom              uint16 = 4005
	TextRulerAtom              uint16 = 4006
	TextBookmarkAtom           uint16 = 4007
	TextBytesAtom              uint16 = 4008
	TxSIStyleAtom              uint16 = 4009
	TextSpecInfoAtom           uint16 = 4010
	DefaultRulerAtom           uint16 = 4011
	FontEntityAtom             uint16 = 4023
	FontEmbeddedData           uint16 = 4024
	CString                    uint16 = 4026
	MetaFile                   uint16 = 4033
	ExOleObjAtom               uint16 = 4035
	SrKinsoku                  uint16 = 4040
	HandOut                    uint16 = 4041
	ExEmbed                    uint16 = 4044
	ExEmbedAtom                uint16 = 4045
	ExLink                     uint16 = 4046
	BookmarkEntityAtom         uint16 = 4048
	ExLinkAtom                 uint16 = 4049
	SrKinsokuAtom              uint16 = 4050
	ExHyperlinkAtom            uint16 = 4051
	ExHyperlink                uint16 = 4055
	SlideNumberMCAtom          uint16 = 4056
	HeadersFooters             uint16 = 4057
	HeadersFootersAtom         uint16 = 4058
	TxInteractiveInfoAtom      uint16 = 4063
	CharFormatAtom             uint16 = 4066
	ParaFormatAtom             uint16 = 4067
	RecolorInfoAtom            uint16 = 4071
	ExQuickTimeMovie           uint16 = 4074
	ExQuickTimeMovieData       uint16 = 4075
	ExControl                  uint16 = 4078
	SlideListWithText          uint16 = 4080
	InteractiveInfo            uint16 = 4082
	InteractiveInfoAtom        uint16 = 4083
	UserEditAtom               uint16 = 4085
	CurrentUserAtom            uint16 = 4086
	DateTimeMCAtom             uint16 = 4087
	GenericDateMCAtom          uint16 = 4088
	FooterMCAtom               uint16 = 4090
	ExControlAtom              uint16 = 4091
	ExMediaAtom                uint16 = 4100
	ExVideoContainer           uint16 = 4101
	ExAviMovie                 uint16 = 4102
	ExMCIMovie                 uint16 = 4103
	ExMIDIAudio                uint16 = 4109
	ExCDAudio                  uint16 = 4110
	ExWAVAudioEmbedded         uint16 = 4111
	ExWAVAudioLink             uint16 = 4112
	ExOleObjStg                uint16 = 4113
	ExCDAudioAtom              uint16 = 4114
	ExWAVAudioEmbeddedAtom     uint16 = 4115
	AnimationInfo              uint16 = 4116
	RTFDateTimeMCAtom          uint16 = 4117
	ProgTags                   uint16 = 5000
	ProgStringTag              uint16 = 5001
	ProgBinaryTag              uint16 = 5002
	BinaryTagData              uint16 = 5003
	PrintOptions               uint16 = 6000
	PersistPtrFullBlock        uint16 = 6001
	PersistPtrIncrementalBlock uint16 = 6002
	GScalingAtom               uint16 = 10001
	GRColorAtom                uint16 = 10002
)

var types = []record.TypeInfo{
	{Type: Document, Name: "Document"},
	{Type: DocumentAtom, Name: "DocumentAtom", Decode: decodeDocumentAtom},
	{Type: EndDocument, Name: "EndDocument"},
	{Type: Slide, Name: "Slide"},
	{Type: SlideAtom, Name: "SlideAtom", Decode: decodeSlideAtom},
	{Type: Notes, Name: "Notes"},
	{Type: NotesAtom, Name: "NotesAtom", Decode: decodeNotesAtom},
	{Type: Environment, Name: "Environment"},
	{Type: SlidePersistAtom, Name: "SlidePersistAtom", Decode: decodeSlidePersistAtom},
	{Type: SSlideLayoutAtom, Name: "SSlideLayoutAtom"},
	{Type: MainMaster, Name: "MainMaster"},
	{Type: SSSlideInfoAtom, Name: "SSSlideInfoAtom"},
	{Type: SlideViewInfo, Name: "SlideViewInfo"},
	{Type: GuideAtom, Name: "GuideAtom"},
	{Type: ViewInfo, Name: "ViewInfo"},
	{Type: ViewInfoAtom, Name: "ViewInfoAtom"},
	{Type: SlideViewInfoAtom, Name: "SlideViewInfoAtom"},
	{Type: VBAInfo, Name: "VBAInfo"},
	{Type: VBAInfoAtom, Name: "VBAInfoAtom"},
	{Type: SSDocInfoAtom, Name: "SSDocInfoAtom"},
	{Type: Summary, Name: "Summary"},
	{Type: DocRoutingSlip, Name: "DocRoutingSlip"},
	{Type: OutlineViewInfo, Name: "OutlineViewInfo"},
	{Type: SorterViewInfo, Name: "SorterViewInfo"},
	{Type: ExObjList, Name: "ExObjList"},
	{Type: ExObjListAtom, Name: "ExObjListAtom"},
	{Type: PPDrawingGroup, Name: "PPDrawingGroup"},
	{Type: PPDrawing, Name: "PPDrawing"},
	{Type: NamedShows, Name: "NamedShows"},
	{Type: NamedShow, Name: "NamedShow"},
	{Type: NamedShowSlides, Name: "NamedShowSlides"},
	{Type: SheetProperties, Name: "SheetProperties"},
	{Type: List, Name: "List"},
	{Type: FontCollection, Name: "FontCollection"},
	{Type: BookmarkCollection, Name: "BookmarkCollection"},
	{Type: SoundCollection, Name: "SoundCollection"},
	{Type: SoundCollAtom, Name: "SoundCollAtom"},
	{Type: Sound, Name: "Sound"},
	{Type: SoundData, Name: "SoundData"},
	{Type: BookmarkSeedAtom, Name: "BookmarkSeedAtom"},
	{Type: ColorSchemeAtom, Name: "ColorSchemeAtom", Decode: decodeColorSchemeAtom},
	{Type: ExObjRefAtom, Name: "ExObjRefAtom"},
	{Type: OEPlaceholderAtom, Name: "OEPlaceholderAtom"},
	{Type: GPointAtom, Name: "GPointAtom"},
	{Type: GRatioAtom, Name: "GRatioAtom"},
	{Type: OutlineTextRefAtom, Name: "OutlineTextRefAtom"},
	{Type: TextHeaderAtom, Name: "TextHeaderAtom", Decode: decodeTextHeaderAtom},
	{Type: TextCharsAtom, Name: "TextCharsAtom", Decode: decodeTextChars},
	{Type: StyleTextPropAtom, Name: "StyleTextPropAtom"},
	{Type: BaseTextPropAtom, Name: "BaseTextPropAtom"},
	{Type: TxMasterStyleAtom, Name: "TxMasterStyleAtom"},
	{Type: TxCFStyleAtom, Name: "TxCFStyleAtom"},
	{Type: TxPFStyleAtom, Name: "TxPFStyleAtom"},
	{Type: TextRulerAtom, Name: "TextRulerAtom"},
	{Type: TextBookmarkAtom, Name: "TextBookmarkAtom"},
	{Type: TextBytesAtom, Name: "TextBytesAtom", Decode: decodeTextBytes},
	{Type: TxSIStyleAtom, Name: "TxSIStyleAtom"},
	{Type: TextSpecInfoAtom, Name: "TextSpecInfoAtom"},
	{Type: DefaultRulerAtom, Name: "DefaultRulerAtom"},
	{Type: FontEntityAtom, Name: "FontEntityAtom", Decode: decodeFontEntityAtom},
	{Type: FontEmbeddedData, Name: "FontEmbeddedData"},
	{Type: CString, Name: "CString", Decode: decodeCString},
	{Type: MetaFile, Name: "MetaFile"},
	{Type: ExOleObjAtom, Name: "ExOleObjAtom"},
	{Type: SrKinsoku, Name: "SrKinsoku"},
	{Type: HandOut, Name: "HandOut"},
	{Type: ExEmbed, Name: "ExEmbed"},
	{Type: ExEmbedAtom, Name: "ExEmbedAtom"},
	{Type: ExLink, Name: "ExLink"},
	{Type: BookmarkEntityAtom, Name: "BookmarkEntityAtom"},
	{Type: ExLinkAtom, Name: "ExLinkAtom"},
	{Type: SrKinsokuAtom, Name: "SrKinsokuAtom"},
	{Type: ExHyperlinkAtom, Name: "ExHyperlinkAtom"},
	{Type: ExHyperlink, Name: "ExHyperlink"},
	{Type: SlideNumberMCAtom, Name: "SlideNumberMCAtom"},
	{Type: HeadersFooters, Name: "HeadersFooters"},
	{Type: HeadersFootersAtom, Name: "HeadersFootersAtom"},
	{Type: TxInteractiveInfoAtom, Name: "TxInteractiveInfoAtom"},
	{Type: CharFormatAtom, Name: "CharFormatAtom"},
	{Type: ParaFormatAtom, Name: "ParaFormatAtom"},
	{Type: RecolorInfoAtom, Name: "RecolorInfoAtom"},
	{Type: ExQuickTimeMovie, Name: "ExQuickTimeMovie"},
	{Type: ExQuickTimeMovieData, Name: "ExQuickTimeMovieData"},
	{Type: ExControl, Name: "ExControl"},
	{Type: SlideListWithText, Name: "SlideListWithText"},
	{Type: InteractiveInfo, Name: "InteractiveInfo"},
	{Type: InteractiveInfoAtom, Name: "InteractiveInfoAtom"},
	{Type: UserEditAtom, Name: "UserEditAtom", Decode: decodeUserEditAtom},
	{Type: CurrentUserAtom, Name: "CurrentUserAtom"},
	{Type: DateTimeMCAtom, Name: "DateTimeMCAtom"},
	{Type: GenericDateMCAtom, Name: "GenericDateMCAtom"},
	{Type: FooterMCAtom, Name: "FooterMCAtom"},
	{Type: ExControlAtom, Name: "ExControlAtom"},
	{Type: ExMediaAtom, Name: "ExMediaAtom"},
	{Type: ExVideoContainer, Name: "ExVideoContainer"},
	{Type: ExAviMovie, Name: "ExAviMovie"},
	{Type: ExMCIMovie, Name: "ExMCIMovie"},
	{Type: ExMIDIAudio, Name: "ExMIDIAudio"},
	{Type: ExCDAudio, Name: "ExCDAudio"},
	{Type: ExWAVAudioEmbedded, Name: "ExWAVAudioEmbedded"},
	{Type: ExWAVAudioLink, Name: "ExWAVAudioLink"},
	{Type: ExOleObjStg, Name: "ExOleObjStg", Decode: decodeExOleObjStg},
	{Type: ExCDAudioAtom, Name: "ExCDAudioAtom"},
	{Type: ExWAVAudioEmbeddedAtom, Name: "ExWAVAudioEmbeddedAtom"},
	{Type: AnimationInfo, Name: "AnimationInfo"},
	{Type: RTFDateTimeMCAtom, Name: "RTFDateTimeMCAtom"},
	{Type: ProgTags, Name: "ProgTags"},
	{Type: ProgStringTag, Name: "ProgStringTag"},
	{Type: ProgBinaryTag, Name: "ProgBinaryTag"},
	{Type: BinaryTagData, Name: "BinaryTagData"},
	{Type: PrintOptions, Name: "PrintOptions"},
	{Type: PersistPtrFullBlock, Name: "PersistPtrFullBlock", Decode: decodePersistPtrHolder},
	{Type: PersistPtrIncrementalBlock, Name: "PersistPtrIncrementalBlock", Decode: decodePersistPtrHolder},
	{Type: GScalingAtom, Name: "GScalingAtom"},
	{Type: GRColorAtom, Name: "GRColorAtom"},
}

// Registry maps PowerPoint and drawing record types to their decoders.
var Registry = record.NewRegistry(types, escher.Types)
