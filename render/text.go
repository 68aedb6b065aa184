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
	"math"

	"seehuhn.de/go/geom/matrix"
	geompath "seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	sfntglyph "seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

// Text rendering modes.
const (
	textFill       = 0
	textStroke     = 1
	textFillStroke = 2
	textInvisible  = 3
	textModeMask   = 3
	textAddToPath  = 4
)

// textPath is a glyph outline which becomes part of the clipping path at
// the end of the text object.
type textPath struct {
	ctm  matrix.Matrix
	font *oplist.Font
	gid  sfntglyph.ID
	x, y float64
	size float64
}

// addGlyphPath appends the outline of a glyph to the current path of s.
// The glyph origin is at (x, y) and the y axis of the current user space
// points downwards.
func addGlyphPath(s surface.Surface, font *oplist.Font, gid sfntglyph.ID, x, y, size float64) {
	if font.Outlines == nil || font.Outlines.Outlines == nil {
		return
	}
	k := size / font.UnitsPerEm()
	pt := func(p vec.Vec2) (float64, float64) {
		return x + k*p.X, y - k*p.Y
	}
	var last vec.Vec2
	for cmd, pts := range font.Outlines.Outlines.Path(gid) {
		switch cmd {
		case geompath.CmdMoveTo:
			s.MoveTo(pt(pts[0]))
			last = pts[0]
		case geompath.CmdLineTo:
			s.LineTo(pt(pts[0]))
			last = pts[0]
		case geompath.CmdQuadTo:
			c1 := vec.Vec2{X: last.X + 2*(pts[0].X-last.X)/3, Y: last.Y + 2*(pts[0].Y-last.Y)/3}
			c2 := vec.Vec2{X: pts[1].X + 2*(pts[0].X-pts[1].X)/3, Y: pts[1].Y + 2*(pts[0].Y-pts[1].Y)/3}
			x1, y1 := pt(c1)
			x2, y2 := pt(c2)
			x3, y3 := pt(pts[1])
			s.CurveTo(x1, y1, x2, y2, x3, y3)
			last = pts[1]
		case geompath.CmdCubeTo:
			x1, y1 := pt(pts[0])
			x2, y2 := pt(pts[1])
			x3, y3 := pt(pts[2])
			s.CurveTo(x1, y1, x2, y2, x3, y3)
			last = pts[2]
		case geompath.CmdClose:
			s.ClosePath()
		}
	}
}

func (e *Executor) opBeginText(*oplist.Args) error {
	cur := e.cur()
	cur.TextMatrix = matrix.Identity
	cur.TextMatrixScale = 1
	cur.X, cur.Y = 0, 0
	cur.LineX, cur.LineY = 0, 0
	return nil
}

func (e *Executor) opEndText(*oplist.Args) error {
	paths := e.pendingTextPaths
	e.pendingTextPaths = nil
	if len(paths) == 0 {
		e.s.BeginPath()
		return nil
	}
	if !e.contentVisible {
		return nil
	}

	s := e.s
	s.Save()
	s.BeginPath()
	for _, p := range paths {
		s.SetTransform(p.ctm)
		addGlyphPath(s, p.font, p.gid, p.x, p.y, p.size)
	}
	s.Restore()
	s.Clip(surface.NonZero)
	s.BeginPath()
	return nil
}

func (e *Executor) opSetCharSpacing(a *oplist.Args) error {
	v := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.cur().CharSpacing = v
	return nil
}

func (e *Executor) opSetWordSpacing(a *oplist.Args) error {
	v := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.cur().WordSpacing = v
	return nil
}

func (e *Executor) opSetHScale(a *oplist.Args) error {
	v := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.cur().TextHScale = v / 100
	return nil
}

func (e *Executor) opSetLeading(a *oplist.Args) error {
	v := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.cur().Leading = -v
	return nil
}

func (e *Executor) opSetFont(a *oplist.Args) error {
	id := a.String(0)
	size := a.Float(1)
	if a.Err != nil {
		return a.Err
	}
	return e.setFont(id, size)
}

// setFont selects a font from the object registries.  A negative size
// mirrors the glyphs.
func (e *Executor) setFont(id string, size float64) error {
	obj := e.getObject(id)
	if obj == nil {
		return oplist.Errorf(oplist.SetFont, "font %q is not available", id)
	}
	font, ok := obj.(*oplist.Font)
	if !ok {
		return oplist.Errorf(oplist.SetFont, "object %q is a %T, not a font", id, obj)
	}

	cur := e.cur()
	cur.Font = font
	cur.FontID = id
	cur.FontMatrix = font.Matrix()
	if cur.FontMatrix[0] == 0 || cur.FontMatrix[3] == 0 {
		e.log.Warn("invalid font matrix", "font", id)
	}
	cur.FontDirection = 1
	if size < 0 {
		size = -size
		cur.FontDirection = -1
	}
	cur.FontSize = size
	return nil
}

func (e *Executor) opSetTextRenderingMode(a *oplist.Args) error {
	mode := a.Int(0)
	if a.Err != nil {
		return a.Err
	}
	e.cur().TextRenderingMode = mode
	return nil
}

func (e *Executor) opSetTextRise(a *oplist.Args) error {
	v := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.cur().TextRise = v
	return nil
}

func (e *Executor) opMoveText(a *oplist.Args) error {
	x, y := a.Float(0), a.Float(1)
	if a.Err != nil {
		return a.Err
	}
	e.moveText(x, y)
	return nil
}

func (e *Executor) moveText(x, y float64) {
	cur := e.cur()
	cur.LineX += x
	cur.LineY += y
	cur.X, cur.Y = cur.LineX, cur.LineY
}

func (e *Executor) opSetLeadingMoveText(a *oplist.Args) error {
	x, y := a.Float(0), a.Float(1)
	if a.Err != nil {
		return a.Err
	}
	e.cur().Leading = y
	e.moveText(x, y)
	return nil
}

func (e *Executor) opSetTextMatrix(a *oplist.Args) error {
	m := a.Matrix(0)
	if a.Err != nil {
		return a.Err
	}
	cur := e.cur()
	cur.TextMatrix = m
	cur.TextMatrixScale = math.Hypot(m[0], m[1])
	cur.X, cur.Y = 0, 0
	cur.LineX, cur.LineY = 0, 0
	return nil
}

func (e *Executor) opNextLine(*oplist.Args) error {
	e.moveText(0, e.cur().Leading)
	return nil
}

func (e *Executor) opShowText(a *oplist.Args) error {
	items, ok := a.Value(0).([]oplist.TextItem)
	if !ok {
		return oplist.Errorf(a.Op, "expected text, got %T", a.Value(0))
	}
	return e.showText(items)
}

func (e *Executor) opNextLineShowText(a *oplist.Args) error {
	e.moveText(0, e.cur().Leading)
	return e.opShowText(a)
}

func (e *Executor) opNextLineSetSpacingShowText(a *oplist.Args) error {
	ws, cs := a.Float(0), a.Float(1)
	items, ok := a.Value(2).([]oplist.TextItem)
	if a.Err != nil {
		return a.Err
	}
	if !ok {
		return oplist.Errorf(a.Op, "expected text, got %T", a.Value(2))
	}
	cur := e.cur()
	cur.WordSpacing = ws
	cur.CharSpacing = cs
	e.moveText(0, cur.Leading)
	return e.showText(items)
}

// showText draws a sequence of glyphs and advances the text position.
func (e *Executor) showText(items []oplist.TextItem) error {
	cur := e.cur()
	font := cur.Font
	if font == nil {
		return oplist.Errorf(oplist.ShowText, "no font selected")
	}
	if font.Type3 {
		return e.showType3Text(items)
	}
	size := cur.FontSize
	if size == 0 {
		return nil
	}

	hscale := cur.TextHScale * cur.FontDirection
	spacingDir := -1.0
	if font.Vertical {
		spacingDir = 1
	}
	advScale := size * cur.FontMatrix[0]

	e.save()
	s := e.s
	s.Transform(cur.TextMatrix)
	s.Transform(affine.Translate(cur.X, cur.Y+cur.TextRise))
	if cur.FontDirection > 0 {
		s.Transform(affine.Scale(hscale, -1))
	} else {
		s.Transform(affine.Scale(hscale, 1))
	}
	e.stack.InvalidateTransform()
	ctm := s.CurrentTransform()

	mode := cur.TextRenderingMode & textModeMask
	addToPath := cur.TextRenderingMode&textAddToPath != 0

	if cur.PatternFill && (mode == textFill || mode == textFillStroke) {
		paint, err := e.patternPaint(cur.FillPattern, cur.PatternFillColor, gstate.PathFill)
		if err != nil {
			e.restore()
			return err
		}
		if paint == nil {
			if mode == textFillStroke {
				mode = textStroke
			} else {
				mode = textInvisible
			}
		} else {
			s.SetFillPaint(paint)
		}
	}
	if cur.PatternStroke && (mode == textStroke || mode == textFillStroke) {
		paint, err := e.patternPaint(cur.StrokePattern, cur.PatternStrokeColor, gstate.PathStroke)
		if err != nil {
			e.restore()
			return err
		}
		if paint != nil {
			s.SetStrokePaint(paint)
		}
	}

	lw := cur.LineWidth
	if scale := cur.TextMatrixScale; scale == 0 || lw == 0 {
		if mode == textStroke || mode == textFillStroke {
			sc := gstate.ScaleForStroking(ctm, 0)
			lw = max(sc[0], sc[1])
		}
	} else {
		lw /= scale
	}
	s.SetLineWidth(lw)
	s.SetAlpha(cur.FillAlpha)

	dflt := font.DefaultVMetrics
	x := 0.0
	for _, it := range items {
		g := it.Glyph
		if g == nil {
			x += spacingDir * it.Adjust * size / 1000
			continue
		}
		spacing := cur.CharSpacing
		if g.IsSpace {
			spacing += cur.WordSpacing
		}
		width := g.Width
		var gx, gy float64
		if font.Vertical {
			vm := g.VMetric
			vx := -width * 0.5 * advScale
			if len(vm) >= 3 {
				vx = -vm[1] * advScale
				width = -vm[0]
			} else {
				vm = dflt[:]
				width = -vm[0]
			}
			gx = vx
			gy = x + vm[2]*advScale
		} else {
			gx = x
		}

		if e.contentVisible && (g.IsInFont || font.MissingFile) {
			gid := font.GlyphID(g)
			if mode != textInvisible {
				s.BeginPath()
				addGlyphPath(s, font, gid, gx, gy, size)
				if mode == textFill || mode == textFillStroke {
					s.Fill(surface.NonZero)
				}
				if mode == textStroke || mode == textFillStroke {
					s.SetAlpha(cur.StrokeAlpha)
					s.Stroke()
					s.SetAlpha(cur.FillAlpha)
				}
				s.BeginPath()
			}
			if addToPath {
				e.pendingTextPaths = append(e.pendingTextPaths, textPath{
					ctm: ctm, font: font, gid: gid, x: gx, y: gy, size: size,
				})
			}
		}

		if font.Vertical {
			x += width*advScale - spacing*cur.FontDirection
		} else {
			x += width*advScale + spacing*cur.FontDirection
		}
	}

	if font.Vertical {
		cur.Y -= x
	} else {
		cur.X += x * hscale
	}
	if err := e.restore(); err != nil {
		return err
	}
	e.compose(rect.Rect{}, false)
	return nil
}

// showType3Text draws glyphs by running the glyph procedures of a Type 3
// font.
func (e *Executor) showType3Text(items []oplist.TextItem) error {
	cur := e.cur()
	font := cur.Font
	size := cur.FontSize
	if size == 0 || cur.TextRenderingMode == textInvisible {
		return nil
	}
	fm := cur.FontMatrix
	dir := cur.FontDirection
	hscale := cur.TextHScale * dir
	spacingDir := -1.0
	if font.Vertical {
		spacingDir = 1
	}

	e.save()
	s := e.s
	s.Transform(cur.TextMatrix)
	s.Transform(affine.Translate(cur.X, cur.Y))
	s.Transform(affine.Scale(hscale, dir))
	e.stack.InvalidateTransform()

	x := 0.0
	for _, it := range items {
		g := it.Glyph
		if g == nil {
			x += spacingDir * it.Adjust * size / 1000
			continue
		}
		ops := font.CharProcs[g.OperatorListID]
		if ops == nil {
			e.log.Warn("missing Type 3 glyph procedure", "glyph", g.OperatorListID)
			continue
		}
		if e.contentVisible {
			if err := e.runGlyphProc(g, ops, x, size, fm); err != nil {
				e.restore()
				return err
			}
		}
		spacing := cur.CharSpacing
		if g.IsSpace {
			spacing += cur.WordSpacing
		}
		x += affine.Apply(fm, vec.Vec2{X: g.Width}).X*size + spacing
	}

	if err := e.restore(); err != nil {
		return err
	}
	cur.X += x * hscale
	return nil
}

// runGlyphProc executes the display list of a Type 3 glyph at
// horizontal offset x.
func (e *Executor) runGlyphProc(g *oplist.Glyph, ops *oplist.List, x, size float64, fm matrix.Matrix) error {
	e.save()
	s := e.s
	s.Transform(affine.Translate(x, 0))
	s.Transform(affine.Scale(size, size))
	s.Transform(fm)
	e.stack.InvalidateTransform()

	prev := e.type3Glyph
	e.type3Glyph = g
	_, err := e.execute(ops, 0, nil, nil)
	e.type3Glyph = prev
	if rErr := e.restore(); err == nil {
		err = rErr
	}
	return err
}
