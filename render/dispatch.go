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

package render

import (
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/oplist"
)

type handler func(e *Executor, a *oplist.Args) error

// handlers is indexed by opcode.  A nil entry marks an instruction which
// is recognized but not implemented.  The table is filled in init, since
// some handlers run nested display lists through the table.
var handlers [oplist.NumOpCodes]handler

func init() {
	handlers = [oplist.NumOpCodes]handler{
		oplist.SetLineWidth:       (*Executor).opSetLineWidth,
		oplist.SetLineCap:         (*Executor).opSetLineCap,
		oplist.SetLineJoin:        (*Executor).opSetLineJoin,
		oplist.SetMiterLimit:      (*Executor).opSetMiterLimit,
		oplist.SetDash:            (*Executor).opSetDash,
		oplist.SetRenderingIntent: (*Executor).opNop,
		oplist.SetFlatness:        (*Executor).opNop,
		oplist.SetGState:          (*Executor).opSetGState,
		oplist.Save:               (*Executor).opSave,
		oplist.Restore:            (*Executor).opRestore,
		oplist.Transform:          (*Executor).opTransform,

		oplist.MoveTo:            (*Executor).opPathSegment,
		oplist.LineTo:            (*Executor).opPathSegment,
		oplist.CurveTo:           (*Executor).opPathSegment,
		oplist.CurveTo2:          (*Executor).opPathSegment,
		oplist.CurveTo3:          (*Executor).opPathSegment,
		oplist.ClosePath:         (*Executor).opClosePath,
		oplist.Rectangle:         (*Executor).opPathSegment,
		oplist.Stroke:            (*Executor).opStroke,
		oplist.CloseStroke:       (*Executor).opCloseStroke,
		oplist.Fill:              (*Executor).opFill,
		oplist.EOFill:            (*Executor).opEOFill,
		oplist.FillStroke:        (*Executor).opFillStroke,
		oplist.EOFillStroke:      (*Executor).opEOFillStroke,
		oplist.CloseFillStroke:   (*Executor).opCloseFillStroke,
		oplist.CloseEOFillStroke: (*Executor).opCloseEOFillStroke,
		oplist.EndPath:           (*Executor).opEndPath,
		oplist.Clip:              (*Executor).opClip,
		oplist.EOClip:            (*Executor).opEOClip,
		oplist.ConstructPath:     (*Executor).opConstructPath,

		oplist.BeginText:                  (*Executor).opBeginText,
		oplist.EndText:                    (*Executor).opEndText,
		oplist.SetCharSpacing:             (*Executor).opSetCharSpacing,
		oplist.SetWordSpacing:             (*Executor).opSetWordSpacing,
		oplist.SetHScale:                  (*Executor).opSetHScale,
		oplist.SetLeading:                 (*Executor).opSetLeading,
		oplist.SetFont:                    (*Executor).opSetFont,
		oplist.SetTextRenderingMode:       (*Executor).opSetTextRenderingMode,
		oplist.SetTextRise:                (*Executor).opSetTextRise,
		oplist.MoveText:                   (*Executor).opMoveText,
		oplist.SetLeadingMoveText:         (*Executor).opSetLeadingMoveText,
		oplist.SetTextMatrix:              (*Executor).opSetTextMatrix,
		oplist.NextLine:                   (*Executor).opNextLine,
		oplist.ShowText:                   (*Executor).opShowText,
		oplist.ShowSpacedText:             (*Executor).opShowText,
		oplist.NextLineShowText:           (*Executor).opNextLineShowText,
		oplist.NextLineSetSpacingShowText: (*Executor).opNextLineSetSpacingShowText,
		oplist.SetCharWidth:               (*Executor).opNop,
		oplist.SetCharWidthAndBounds:      (*Executor).opSetCharWidthAndBounds,

		oplist.SetStrokeColorSpace: (*Executor).opNop,
		oplist.SetFillColorSpace:   (*Executor).opNop,
		oplist.SetStrokeColor:      (*Executor).opSetStrokeColor,
		oplist.SetStrokeColorN:     (*Executor).opSetStrokeColorN,
		oplist.SetFillColor:        (*Executor).opSetFillColor,
		oplist.SetFillColorN:       (*Executor).opSetFillColorN,
		oplist.SetStrokeGray:       (*Executor).opSetStrokeColor,
		oplist.SetFillGray:         (*Executor).opSetFillColor,
		oplist.SetStrokeRGBColor:   (*Executor).opSetStrokeColor,
		oplist.SetFillRGBColor:     (*Executor).opSetFillColor,
		oplist.SetStrokeCMYKColor:  (*Executor).opSetStrokeColor,
		oplist.SetFillCMYKColor:    (*Executor).opSetFillColor,
		oplist.ShadingFill:         (*Executor).opShadingFill,

		oplist.BeginInlineImage: (*Executor).opRawInlineImage,
		oplist.BeginImageData:   (*Executor).opRawInlineImage,
		oplist.EndInlineImage:   (*Executor).opRawInlineImage,
		oplist.PaintXObject:     (*Executor).opPaintXObject,

		oplist.MarkPoint:               (*Executor).opNop,
		oplist.MarkPointProps:          (*Executor).opNop,
		oplist.BeginMarkedContent:      (*Executor).opBeginMarkedContent,
		oplist.BeginMarkedContentProps: (*Executor).opBeginMarkedContentProps,
		oplist.EndMarkedContent:        (*Executor).opEndMarkedContent,
		oplist.BeginCompat:             (*Executor).opNop,
		oplist.EndCompat:               (*Executor).opNop,

		oplist.PaintFormXObjectBegin: (*Executor).opPaintFormXObjectBegin,
		oplist.PaintFormXObjectEnd:   (*Executor).opPaintFormXObjectEnd,
		oplist.BeginGroup:            (*Executor).opBeginGroup,
		oplist.EndGroup:              (*Executor).opEndGroup,
		oplist.BeginAnnotations:      (*Executor).opBeginAnnotations,
		oplist.EndAnnotations:        (*Executor).opEndAnnotations,
		oplist.BeginAnnotation:       (*Executor).opBeginAnnotation,
		oplist.EndAnnotation:         (*Executor).opEndAnnotation,

		oplist.PaintJpegXObject:             (*Executor).opPaintImageXObject,
		oplist.PaintImageMaskXObject:        (*Executor).opPaintImageMaskXObject,
		oplist.PaintImageMaskXObjectGroup:   (*Executor).opPaintImageMaskXObjectGroup,
		oplist.PaintImageXObject:            (*Executor).opPaintImageXObject,
		oplist.PaintInlineImageXObject:      (*Executor).opPaintInlineImageXObject,
		oplist.PaintInlineImageXObjectGroup: (*Executor).opPaintInlineImageXObjectGroup,
		oplist.PaintImageXObjectRepeat:      (*Executor).opPaintImageXObjectRepeat,
		oplist.PaintImageMaskXObjectRepeat:  (*Executor).opPaintImageMaskXObjectRepeat,
		oplist.PaintSolidColorImageMask:     (*Executor).opPaintSolidColorImageMask,
	}
}

// Inline image operators are replaced by image painting instructions
// when the list is built.
func (e *Executor) opRawInlineImage(a *oplist.Args) error {
	return oplist.Errorf(a.Op, "raw inline image data in display list")
}

func (e *Executor) opPaintXObject(*oplist.Args) error {
	e.log.Warn("unexpanded XObject in display list")
	return nil
}

// opSetCharWidthAndBounds clips to the glyph bounding box of a Type 3
// glyph.
func (e *Executor) opSetCharWidthAndBounds(a *oplist.Args) error {
	llx, lly := a.Float(2), a.Float(3)
	urx, ury := a.Float(4), a.Float(5)
	if a.Err != nil {
		return a.Err
	}
	e.clipRect(oplist.NormalizeRect(rect.Rect{LLx: llx, LLy: lly, URx: urx, URy: ury}))
	return nil
}
