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
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

// clipMode records a clipping operation which takes effect when the
// current path is consumed.
type clipMode uint8

const (
	clipNone clipMode = iota
	clipNonZero
	clipEvenOdd
)

func (e *Executor) opConstructPath(a *oplist.Args) error {
	ops, ok := a.Value(0).([]oplist.OpCode)
	if !ok {
		return oplist.Errorf(a.Op, "expected path operators, got %T", a.Value(0))
	}
	coords := a.Floats(1)
	if a.Err != nil {
		return a.Err
	}
	return e.buildPath(ops, coords)
}

// opPathSegment handles the path construction opcodes which are not
// combined into a constructPath instruction.
func (e *Executor) opPathSegment(a *oplist.Args) error {
	coords := make([]float64, a.Len())
	for i := range coords {
		coords[i] = a.Float(i)
	}
	if a.Err != nil {
		return a.Err
	}
	return e.buildPath([]oplist.OpCode{a.Op}, coords)
}

// buildPath appends path segments to the current path, and updates the
// device space bounding box of the path.
//
// If the CTM is a pure scaling (possibly with a 90 degree rotation), the
// bounding box is accumulated in user space and transformed once at the
// end.
func (e *Executor) buildPath(ops []oplist.OpCode, coords []float64) error {
	s := e.s
	cur := e.cur()
	ctm := s.CurrentTransform()

	scaling := affine.IsScaling(ctm)
	var local *affine.MinMax
	if scaling {
		mm := affine.EmptyMinMax()
		local = &mm
	}
	addPoint := func(x, y float64) {
		if scaling {
			local.Add(vec.Vec2{X: x, Y: y})
		} else {
			cur.UpdatePathMinMax(ctm, x, y)
		}
	}

	x, y := cur.X, cur.Y
	j := 0
	for _, op := range ops {
		n := pathArgCount(op)
		if n < 0 {
			return oplist.Errorf(oplist.ConstructPath, "unexpected path operator %s", op)
		}
		if j+n > len(coords) {
			return oplist.Errorf(oplist.ConstructPath, "%s: not enough coordinates", op)
		}
		c := coords[j : j+n]
		j += n

		switch op {
		case oplist.Rectangle:
			x, y = c[0], c[1]
			xw, yh := x+c[2], y+c[3]
			s.MoveTo(x, y)
			if c[2] == 0 || c[3] == 0 {
				s.LineTo(xw, yh)
			} else {
				s.LineTo(xw, y)
				s.LineTo(xw, yh)
				s.LineTo(x, yh)
			}
			s.ClosePath()
			if scaling {
				local.Add(vec.Vec2{X: x, Y: y})
				local.Add(vec.Vec2{X: xw, Y: yh})
			} else {
				cur.UpdateRectMinMax(ctm, oplist.NormalizeRect(rect.Rect{LLx: x, LLy: y, URx: xw, URy: yh}))
			}
		case oplist.MoveTo:
			x, y = c[0], c[1]
			s.MoveTo(x, y)
			addPoint(x, y)
		case oplist.LineTo:
			x, y = c[0], c[1]
			s.LineTo(x, y)
			addPoint(x, y)
		case oplist.CurveTo:
			p0 := vec.Vec2{X: x, Y: y}
			x, y = c[4], c[5]
			s.CurveTo(c[0], c[1], c[2], c[3], x, y)
			cur.UpdateCurvePathMinMax(ctm, p0,
				vec.Vec2{X: c[0], Y: c[1]}, vec.Vec2{X: c[2], Y: c[3]}, vec.Vec2{X: x, Y: y}, local)
		case oplist.CurveTo2:
			p0 := vec.Vec2{X: x, Y: y}
			s.CurveTo(x, y, c[0], c[1], c[2], c[3])
			cur.UpdateCurvePathMinMax(ctm, p0,
				p0, vec.Vec2{X: c[0], Y: c[1]}, vec.Vec2{X: c[2], Y: c[3]}, local)
			x, y = c[2], c[3]
		case oplist.CurveTo3:
			p0 := vec.Vec2{X: x, Y: y}
			x, y = c[2], c[3]
			s.CurveTo(c[0], c[1], x, y, x, y)
			cur.UpdateCurvePathMinMax(ctm, p0,
				vec.Vec2{X: c[0], Y: c[1]}, vec.Vec2{X: x, Y: y}, vec.Vec2{X: x, Y: y}, local)
		case oplist.ClosePath:
			s.ClosePath()
		}
	}
	if scaling && !local.IsEmpty() {
		cur.UpdateScalingPathMinMax(ctm, *local)
	}
	cur.SetCurrentPoint(x, y)
	return nil
}

// pathArgCount returns the number of coordinates used by a path
// operator, or -1 if op does not construct a path.
func pathArgCount(op oplist.OpCode) int {
	switch op {
	case oplist.Rectangle:
		return 4
	case oplist.MoveTo, oplist.LineTo:
		return 2
	case oplist.CurveTo:
		return 6
	case oplist.CurveTo2, oplist.CurveTo3:
		return 4
	case oplist.ClosePath:
		return 0
	}
	return -1
}

func (e *Executor) opStroke(*oplist.Args) error {
	return e.stroke(true)
}

func (e *Executor) opCloseStroke(*oplist.Args) error {
	e.s.ClosePath()
	return e.stroke(true)
}

func (e *Executor) opFill(*oplist.Args) error {
	return e.fill(true)
}

func (e *Executor) opEOFill(*oplist.Args) error {
	e.pendingEOFill = true
	return e.fill(true)
}

func (e *Executor) opFillStroke(*oplist.Args) error {
	return e.fillStroke()
}

func (e *Executor) opEOFillStroke(*oplist.Args) error {
	e.pendingEOFill = true
	return e.fillStroke()
}

func (e *Executor) opCloseFillStroke(*oplist.Args) error {
	e.s.ClosePath()
	return e.fillStroke()
}

func (e *Executor) opCloseEOFillStroke(*oplist.Args) error {
	e.pendingEOFill = true
	e.s.ClosePath()
	return e.fillStroke()
}

func (e *Executor) opEndPath(*oplist.Args) error {
	e.consumePath(rect.Rect{}, false)
	return nil
}

func (e *Executor) opClip(*oplist.Args) error {
	e.pendingClip = clipNonZero
	return nil
}

func (e *Executor) opEOClip(*oplist.Args) error {
	e.pendingClip = clipEvenOdd
	return nil
}

func (e *Executor) fillStroke() error {
	if err := e.fill(false); err != nil {
		return err
	}
	if err := e.stroke(false); err != nil {
		return err
	}
	e.consumePath(rect.Rect{}, false)
	return nil
}

func (e *Executor) fill(consume bool) error {
	cur := e.cur()
	s := e.s
	rule := surface.NonZero
	if e.pendingEOFill {
		rule = surface.EvenOdd
	}
	e.pendingEOFill = false

	box, ok := cur.ClippedPathBoundingBox(gstate.PathFill, s.CurrentTransform())
	if e.contentVisible && ok {
		if cur.PatternFill {
			paint, err := e.patternPaint(cur.FillPattern, cur.PatternFillColor, gstate.PathFill)
			if err != nil {
				return err
			}
			if paint != nil {
				s.Save()
				s.SetFillPaint(paint)
				s.Fill(rule)
				s.Restore()
			}
		} else {
			s.Fill(rule)
		}
	}
	if consume {
		e.consumePath(box, true)
	}
	return nil
}

func (e *Executor) stroke(consume bool) error {
	cur := e.cur()
	s := e.s
	s.SetAlpha(cur.StrokeAlpha)
	if e.contentVisible {
		if cur.PatternStroke {
			paint, err := e.patternPaint(cur.StrokePattern, cur.PatternStrokeColor, gstate.PathStroke)
			if err != nil {
				s.SetAlpha(cur.FillAlpha)
				return err
			}
			if paint != nil {
				s.Save()
				s.SetStrokePaint(paint)
				e.rescaleAndStroke(false)
				s.Restore()
			}
		} else {
			e.rescaleAndStroke(true)
		}
	}
	if consume {
		box, _ := cur.ClippedPathBoundingBox(gstate.PathStroke, s.CurrentTransform())
		e.consumePath(box, true)
	}
	s.SetAlpha(cur.FillAlpha)
	return nil
}

// rescaleAndStroke strokes the current path, such that lines are at
// least one device pixel wide.
func (e *Executor) rescaleAndStroke(saveRestore bool) {
	s := e.s
	cur := e.cur()
	scale := e.stack.StrokeScale(s.CurrentTransform())

	lw := cur.LineWidth
	if lw == 0 {
		lw = 1
	}
	s.SetLineWidth(lw)
	if scale == [2]float64{1, 1} {
		s.Stroke()
		return
	}

	if saveRestore {
		s.Save()
	}
	s.Transform(affine.Scale(scale[0], scale[1]))
	if len(cur.Dash) > 0 {
		k := max(scale[0], scale[1])
		dash := make([]float64, len(cur.Dash))
		for i, d := range cur.Dash {
			dash[i] = d / k
		}
		s.SetDash(dash, cur.DashPhase/k)
	}
	s.Stroke()
	if saveRestore {
		s.Restore()
	}
}

// consumePath ends the current path.  A pending clip is applied;
// otherwise the painted area, given by the device space box, is composed
// with the active soft mask.  If ok is false, the whole surface is
// composed.
func (e *Executor) consumePath(box rect.Rect, ok bool) {
	cur := e.cur()
	wasEmpty := cur.EmptyClip
	if e.pendingClip != clipNone {
		cur.UpdateClipFromPath()
		if !wasEmpty {
			rule := surface.NonZero
			if e.pendingClip == clipEvenOdd {
				rule = surface.EvenOdd
			}
			e.s.Clip(rule)
		}
		e.pendingClip = clipNone
	} else {
		e.compose(box, ok)
	}
	cur.StartNewPathAndClipBox(cur.ClipBox)
	e.s.BeginPath()
}

// clipRect intersects the clipping region with a user space rectangle.
func (e *Executor) clipRect(r rect.Rect) {
	e.s.Rect(r.LLx, r.LLy, r.URx-r.LLx, r.URy-r.LLy)
	e.cur().UpdateRectMinMax(e.ctm(), r)
	e.pendingClip = clipNonZero
	e.consumePath(rect.Rect{}, false)
}

func (e *Executor) opClosePath(*oplist.Args) error {
	e.s.ClosePath()
	return nil
}
