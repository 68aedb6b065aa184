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
	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

func (e *Executor) opSave(*oplist.Args) error {
	e.save()
	return nil
}

func (e *Executor) opRestore(*oplist.Args) error {
	return e.restore()
}

func (e *Executor) opTransform(a *oplist.Args) error {
	var m matrix.Matrix
	for i := range m {
		m[i] = a.Float(i)
	}
	if a.Err != nil {
		return a.Err
	}
	e.s.Transform(m)
	e.stack.InvalidateTransform()
	return nil
}

func (e *Executor) opSetLineWidth(a *oplist.Args) error {
	w := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.setLineWidth(w)
	return nil
}

func (e *Executor) setLineWidth(w float64) {
	e.stack.SetLineWidth(w)
	e.s.SetLineWidth(w)
}

func (e *Executor) opSetLineCap(a *oplist.Args) error {
	c := a.Int(0)
	if a.Err != nil {
		return a.Err
	}
	e.setLineCap(c)
	return nil
}

func (e *Executor) setLineCap(c int) {
	if c < 0 || c > int(surface.CapSquare) {
		e.log.Warn("invalid line cap", "value", c)
		return
	}
	e.cur().LineCap = surface.LineCap(c)
	e.s.SetLineCap(surface.LineCap(c))
}

func (e *Executor) opSetLineJoin(a *oplist.Args) error {
	j := a.Int(0)
	if a.Err != nil {
		return a.Err
	}
	e.setLineJoin(j)
	return nil
}

func (e *Executor) setLineJoin(j int) {
	if j < 0 || j > int(surface.JoinBevel) {
		e.log.Warn("invalid line join", "value", j)
		return
	}
	e.cur().LineJoin = surface.LineJoin(j)
	e.s.SetLineJoin(surface.LineJoin(j))
}

func (e *Executor) opSetMiterLimit(a *oplist.Args) error {
	l := a.Float(0)
	if a.Err != nil {
		return a.Err
	}
	e.setMiterLimit(l)
	return nil
}

func (e *Executor) setMiterLimit(l float64) {
	e.cur().MiterLimit = l
	e.s.SetMiterLimit(l)
}

func (e *Executor) opSetDash(a *oplist.Args) error {
	dash := a.Floats(0)
	phase := a.Float(1)
	if a.Err != nil {
		return a.Err
	}
	e.setDash(dash, phase)
	return nil
}

func (e *Executor) setDash(dash []float64, phase float64) {
	cur := e.cur()
	cur.Dash = append(cur.Dash[:0:0], dash...)
	cur.DashPhase = phase
	e.s.SetDash(cur.Dash, phase)
}

func (e *Executor) opNop(*oplist.Args) error {
	return nil
}

func (e *Executor) opSetGState(a *oplist.Args) error {
	entries, ok := a.Value(0).([]oplist.GStateEntry)
	if !ok {
		return oplist.Errorf(a.Op, "expected graphics state entries, got %T", a.Value(0))
	}
	cur := e.cur()
	for _, ent := range entries {
		ea := oplist.NewArgs(a.Op, []any{ent.Value})
		switch ent.Key {
		case "LW":
			e.setLineWidth(ea.Float(0))
		case "LC":
			e.setLineCap(ea.Int(0))
		case "LJ":
			e.setLineJoin(ea.Int(0))
		case "ML":
			e.setMiterLimit(ea.Float(0))
		case "D":
			d, ok := ent.Value.(oplist.Dash)
			if !ok {
				return oplist.Errorf(a.Op, "D: expected dash pattern, got %T", ent.Value)
			}
			e.setDash(d.Array, d.Phase)
		case "RI", "FL":
			// not used for rendering
		case "Font":
			ref, ok := ent.Value.(oplist.FontRef)
			if !ok {
				return oplist.Errorf(a.Op, "Font: expected font reference, got %T", ent.Value)
			}
			if err := e.setFont(ref.ID, ref.Size); err != nil {
				return err
			}
		case "CA":
			cur.StrokeAlpha = ea.Float(0)
		case "ca":
			cur.FillAlpha = ea.Float(0)
			e.s.SetAlpha(cur.FillAlpha)
		case "BM":
			e.setBlendMode(ea.String(0))
		case "SMask":
			if ea.Bool(0) && e.tempSMask != nil {
				cur.ActiveSMask = e.tempSMask
			} else {
				cur.ActiveSMask = nil
			}
			e.tempSMask = nil
			e.checkSMaskState()
		case "TR":
			switch tr := ent.Value.(type) {
			case nil:
				cur.TransferMaps = nil
			case *surface.TransferFilter:
				cur.TransferMaps = tr
			default:
				return oplist.Errorf(a.Op, "TR: expected transfer function, got %T", ent.Value)
			}
		default:
			e.log.Warn("unsupported graphics state entry", "key", ent.Key)
		}
		if ea.Err != nil {
			return oplist.Errorf(a.Op, "%s: %v", ent.Key, ea.Err)
		}
	}
	return nil
}

// setBlendMode accepts PDF blend mode names as well as the names of the
// compositing operators.
func (e *Executor) setBlendMode(name string) {
	op, ok := surface.BlendModeFromName(name)
	if !ok {
		for o := surface.SourceOver; o <= surface.Luminosity; o++ {
			if o.String() == name {
				op, ok = o, true
				break
			}
		}
	}
	if !ok {
		e.log.Warn("unsupported blend mode", "name", name)
	}
	e.cur().BlendMode = op
	if e.suspended == nil {
		e.s.SetCompositeOp(op)
	}
}

// Colors are given as components in the range 0, ..., 255.  Gray and CMYK
// values are converted to RGB without color management.
func colorArgs(a *oplist.Args, from, n int) surface.Color {
	switch n {
	case 1:
		g := a.Byte(from)
		return surface.Color{R: g, G: g, B: g}
	case 3:
		return surface.Color{R: a.Byte(from), G: a.Byte(from + 1), B: a.Byte(from + 2)}
	case 4:
		c, m, y, k := a.Byte(from), a.Byte(from+1), a.Byte(from+2), a.Byte(from+3)
		return surface.Color{R: cmykChannel(c, k), G: cmykChannel(m, k), B: cmykChannel(y, k)}
	}
	if a.Err == nil {
		a.Err = oplist.Errorf(a.Op, "expected 1, 3 or 4 color components, got %d", n)
	}
	return surface.Black
}

func cmykChannel(c, k uint8) uint8 {
	return 255 - uint8(min(int(c)+int(k), 255))
}

func (e *Executor) setFillColor(c surface.Color) {
	cur := e.cur()
	cur.FillColor = c
	cur.FillPattern = nil
	cur.PatternFill = false
	e.s.SetFillPaint(c)
}

func (e *Executor) setStrokeColor(c surface.Color) {
	cur := e.cur()
	cur.StrokeColor = c
	cur.StrokePattern = nil
	cur.PatternStroke = false
	e.s.SetStrokePaint(c)
}

func (e *Executor) opSetFillColor(a *oplist.Args) error {
	c := colorArgs(a, 0, a.Len())
	if a.Err != nil || e.ignoreColor {
		return a.Err
	}
	e.setFillColor(c)
	return nil
}

func (e *Executor) opSetStrokeColor(a *oplist.Args) error {
	c := colorArgs(a, 0, a.Len())
	if a.Err != nil || e.ignoreColor {
		return a.Err
	}
	e.setStrokeColor(c)
	return nil
}

// tilingRef is a tiling pattern together with the base transformation in
// effect when the pattern was selected.
type tilingRef struct {
	ir   *oplist.TilingIR
	base matrix.Matrix
}

// patternArg interprets the arguments of setFillColorN and
// setStrokeColorN.  If the arguments do not describe a pattern, ok is
// false.
func (e *Executor) patternArg(a *oplist.Args) (pat any, c surface.Color, ok bool, err error) {
	switch ir := a.Value(0).(type) {
	case *oplist.TilingIR:
		pat = &tilingRef{ir: ir, base: e.baseTransform}
		c = ir.Color
	case *oplist.ShadingIR:
		pat = ir
	default:
		return nil, surface.Color{}, false, nil
	}
	if a.Has(1) {
		col, isColor := a.Value(1).(surface.Color)
		if !isColor {
			return nil, c, false, oplist.Errorf(a.Op, "expected pattern color, got %T", a.Value(1))
		}
		c = col
	}
	return pat, c, true, nil
}

func (e *Executor) opSetFillColorN(a *oplist.Args) error {
	pat, c, ok, err := e.patternArg(a)
	if err != nil {
		return err
	}
	if !ok {
		return e.opSetFillColor(a)
	}
	if e.ignoreColor {
		return nil
	}
	cur := e.cur()
	cur.FillPattern = pat
	cur.PatternFillColor = c
	cur.PatternFill = true
	return nil
}

func (e *Executor) opSetStrokeColorN(a *oplist.Args) error {
	pat, c, ok, err := e.patternArg(a)
	if err != nil {
		return err
	}
	if !ok {
		return e.opSetStrokeColor(a)
	}
	if e.ignoreColor {
		return nil
	}
	cur := e.cur()
	cur.StrokePattern = pat
	cur.PatternStrokeColor = c
	cur.PatternStroke = true
	return nil
}

func (e *Executor) opBeginMarkedContent(*oplist.Args) error {
	e.pushMarkedContent(true)
	return nil
}

func (e *Executor) opBeginMarkedContentProps(a *oplist.Args) error {
	tag := a.String(0)
	if a.Err != nil {
		return a.Err
	}
	visible := true
	if props, ok := a.Value(1).(*oplist.MarkedContentProps); ok && props != nil && tag == "OC" {
		switch props.Type {
		case "OCG", "OCMD":
			visible = e.opt.isVisible(props.ID)
		}
	}
	e.pushMarkedContent(visible)
	return nil
}

func (e *Executor) pushMarkedContent(visible bool) {
	e.markedContent = append(e.markedContent, visible)
	e.contentVisible = e.contentVisible && visible
}

func (e *Executor) opEndMarkedContent(*oplist.Args) error {
	if n := len(e.markedContent); n > 0 {
		e.markedContent = e.markedContent[:n-1]
	}
	e.contentVisible = true
	for _, v := range e.markedContent {
		e.contentVisible = e.contentVisible && v
	}
	return nil
}

func (e *Executor) opPaintFormXObjectBegin(a *oplist.Args) error {
	m, hasMatrix := a.OptMatrix(0)
	bbox, hasBBox := a.OptRect(1)
	if a.Err != nil {
		return a.Err
	}

	e.save()
	e.baseTransformStack = append(e.baseTransformStack, e.baseTransform)
	if hasMatrix {
		e.s.Transform(m)
	}
	e.stack.InvalidateTransform()
	e.baseTransform = e.ctm()

	if hasBBox {
		e.clipRect(bbox)
	}
	return nil
}

func (e *Executor) opPaintFormXObjectEnd(*oplist.Args) error {
	if err := e.restore(); err != nil {
		return err
	}
	if n := len(e.baseTransformStack); n > 0 {
		e.baseTransform = e.baseTransformStack[n-1]
		e.baseTransformStack = e.baseTransformStack[:n-1]
	}
	return nil
}
