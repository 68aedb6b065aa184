// seehuhn.de/go/pdfpaint - render PDF display lists onto raster surfaces
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package oplist

import "strconv"

// OpCode identifies an instruction of a display list.
//
// The numeric values are part of the wire format shared with the producer
// of the lists and must not change.
type OpCode uint8

// These are the instructions understood by the interpreter.
const (
	Dependency                   OpCode = 1
	SetLineWidth                 OpCode = 2
	SetLineCap                   OpCode = 3
	SetLineJoin                  OpCode = 4
	SetMiterLimit                OpCode = 5
	SetDash                      OpCode = 6
	SetRenderingIntent           OpCode = 7
	SetFlatness                  OpCode = 8
	SetGState                    OpCode = 9
	Save                         OpCode = 10
	Restore                      OpCode = 11
	Transform                    OpCode = 12
	MoveTo                       OpCode = 13
	LineTo                       OpCode = 14
	CurveTo                      OpCode = 15
	CurveTo2                     OpCode = 16
	CurveTo3                     OpCode = 17
	ClosePath                    OpCode = 18
	Rectangle                    OpCode = 19
	Stroke                       OpCode = 20
	CloseStroke                  OpCode = 21
	Fill                         OpCode = 22
	EOFill                       OpCode = 23
	FillStroke                   OpCode = 24
	EOFillStroke                 OpCode = 25
	CloseFillStroke              OpCode = 26
	CloseEOFillStroke            OpCode = 27
	EndPath                      OpCode = 28
	Clip                         OpCode = 29
	EOClip                       OpCode = 30
	BeginText                    OpCode = 31
	EndText                      OpCode = 32
	SetCharSpacing               OpCode = 33
	SetWordSpacing               OpCode = 34
	SetHScale                    OpCode = 35
	SetLeading                   OpCode = 36
	SetFont                      OpCode = 37
	SetTextRenderingMode         OpCode = 38
	SetTextRise                  OpCode = 39
	MoveText                     OpCode = 40
	SetLeadingMoveText           OpCode = 41
	SetTextMatrix                OpCode = 42
	NextLine                     OpCode = 43
	ShowText                     OpCode = 44
	ShowSpacedText               OpCode = 45
	NextLineShowText             OpCode = 46
	NextLineSetSpacingShowText   OpCode = 47
	SetCharWidth                 OpCode = 48
	SetCharWidthAndBounds        OpCode = 49
	SetStrokeColorSpace          OpCode = 50
	SetFillColorSpace            OpCode = 51
	SetStrokeColor               OpCode = 52
	SetStrokeColorN              OpCode = 53
	SetFillColor                 OpCode = 54
	SetFillColorN                OpCode = 55
	SetStrokeGray                OpCode = 56
	SetFillGray                  OpCode = 57
	SetStrokeRGBColor            OpCode = 58
	SetFillRGBColor              OpCode = 59
	SetStrokeCMYKColor           OpCode = 60
	SetFillCMYKColor             OpCode = 61
	ShadingFill                  OpCode = 62
	BeginInlineImage             OpCode = 63
	BeginImageData               OpCode = 64
	EndInlineImage               OpCode = 65
	PaintXObject                 OpCode = 66
	MarkPoint                    OpCode = 67
	MarkPointProps               OpCode = 68
	BeginMarkedContent           OpCode = 69
	BeginMarkedContentProps      OpCode = 70
	EndMarkedContent             OpCode = 71
	BeginCompat                  OpCode = 72
	EndCompat                    OpCode = 73
	PaintFormXObjectBegin        OpCode = 74
	PaintFormXObjectEnd          OpCode = 75
	BeginGroup                   OpCode = 76
	EndGroup                     OpCode = 77
	BeginAnnotations             OpCode = 78
	EndAnnotations               OpCode = 79
	BeginAnnotation              OpCode = 80
	EndAnnotation                OpCode = 81
	PaintJpegXObject             OpCode = 82
	PaintImageMaskXObject        OpCode = 83
	PaintImageMaskXObjectGroup   OpCode = 84
	PaintImageXObject            OpCode = 85
	PaintInlineImageXObject      OpCode = 86
	PaintInlineImageXObjectGroup OpCode = 87
	PaintImageXObjectRepeat      OpCode = 88
	PaintImageMaskXObjectRepeat  OpCode = 89
	PaintSolidColorImageMask     OpCode = 90
	ConstructPath                OpCode = 91
)

// NumOpCodes is one more than the largest valid opcode.
const NumOpCodes = int(ConstructPath) + 1

var opNames = [NumOpCodes]string{
	Dependency:                   "dependency",
	SetLineWidth:                 "setLineWidth",
	SetLineCap:                   "setLineCap",
	SetLineJoin:                  "setLineJoin",
	SetMiterLimit:                "setMiterLimit",
	SetDash:                      "setDash",
	SetRenderingIntent:           "setRenderingIntent",
	SetFlatness:                  "setFlatness",
	SetGState:                    "setGState",
	Save:                         "save",
	Restore:                      "restore",
	Transform:                    "transform",
	MoveTo:                       "moveTo",
	LineTo:                       "lineTo",
	CurveTo:                      "curveTo",
	CurveTo2:                     "curveTo2",
	CurveTo3:                     "curveTo3",
	ClosePath:                    "closePath",
	Rectangle:                    "rectangle",
	Stroke:                       "stroke",
	CloseStroke:                  "closeStroke",
	Fill:                         "fill",
	EOFill:                       "eoFill",
	FillStroke:                   "fillStroke",
	EOFillStroke:                 "eoFillStroke",
	CloseFillStroke:              "closeFillStroke",
	CloseEOFillStroke:            "closeEOFillStroke",
	EndPath:                      "endPath",
	Clip:                         "clip",
	EOClip:                       "eoClip",
	BeginText:                    "beginText",
	EndText:                      "endText",
	SetCharSpacing:               "setCharSpacing",
	SetWordSpacing:               "setWordSpacing",
	SetHScale:                    "setHScale",
	SetLeading:                   "setLeading",
	SetFont:                      "setFont",
	SetTextRenderingMode:         "setTextRenderingMode",
	SetTextRise:                  "setTextRise",
	MoveText:                     "moveText",
	SetLeadingMoveText:           "setLeadingMoveText",
	SetTextMatrix:                "setTextMatrix",
	NextLine:                     "nextLine",
	ShowText:                     "showText",
	ShowSpacedText:               "showSpacedText",
	NextLineShowText:             "nextLineShowText",
	NextLineSetSpacingShowText:   "nextLineSetSpacingShowText",
	SetCharWidth:                 "setCharWidth",
	SetCharWidthAndBounds:        "setCharWidthAndBounds",
	SetStrokeColorSpace:          "setStrokeColorSpace",
	SetFillColorSpace:            "setFillColorSpace",
	SetStrokeColor:               "setStrokeColor",
	SetStrokeColorN:              "setStrokeColorN",
	SetFillColor:                 "setFillColor",
	SetFillColorN:                "setFillColorN",
	SetStrokeGray:                "setStrokeGray",
	SetFillGray:                  "setFillGray",
	SetStrokeRGBColor:            "setStrokeRGBColor",
	SetFillRGBColor:              "setFillRGBColor",
	SetStrokeCMYKColor:           "setStrokeCMYKColor",
	SetFillCMYKColor:             "setFillCMYKColor",
	ShadingFill:                  "shadingFill",
	BeginInlineImage:             "beginInlineImage",
	BeginImageData:               "beginImageData",
	EndInlineImage:               "endInlineImage",
	PaintXObject:                 "paintXObject",
	MarkPoint:                    "markPoint",
	MarkPointProps:               "markPointProps",
	BeginMarkedContent:           "beginMarkedContent",
	BeginMarkedContentProps:      "beginMarkedContentProps",
	EndMarkedContent:             "endMarkedContent",
	BeginCompat:                  "beginCompat",
	EndCompat:                    "endCompat",
	PaintFormXObjectBegin:        "paintFormXObjectBegin",
	PaintFormXObjectEnd:          "paintFormXObjectEnd",
	BeginGroup:                   "beginGroup",
	EndGroup:                     "endGroup",
	BeginAnnotations:             "beginAnnotations",
	EndAnnotations:               "endAnnotations",
	BeginAnnotation:              "beginAnnotation",
	EndAnnotation:                "endAnnotation",
	PaintJpegXObject:             "paintJpegXObject",
	PaintImageMaskXObject:        "paintImageMaskXObject",
	PaintImageMaskXObjectGroup:   "paintImageMaskXObjectGroup",
	PaintImageXObject:            "paintImageXObject",
	PaintInlineImageXObject:      "paintInlineImageXObject",
	PaintInlineImageXObjectGroup: "paintInlineImageXObjectGroup",
	PaintImageXObjectRepeat:      "paintImageXObjectRepeat",
	PaintImageMaskXObjectRepeat:  "paintImageMaskXObjectRepeat",
	PaintSolidColorImageMask:     "paintSolidColorImageMask",
	ConstructPath:                "constructPath",
}

// IsValid reports whether op is a known opcode.
func (op OpCode) IsValid() bool {
	return int(op) < NumOpCodes && opNames[op] != ""
}

func (op OpCode) String() string {
	if op.IsValid() {
		return opNames[op]
	}
	return "op" + strconv.Itoa(int(op))
}
