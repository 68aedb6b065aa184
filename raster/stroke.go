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

package raster

import (
	"iter"
	"math"
	"slices"

	"honnef.co/go/curve"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/surface"
)

// strokeTolerance is the accuracy of the stroke outline in device pixels.
const strokeTolerance = 0.05

// Stroke implements the [surface.Surface] interface.
//
// The path is mapped back to the current user space, expanded into an
// outline there and then filled in device space.  This way, line widths
// and dash patterns follow the current transformation, including
// non-uniform scaling.
func (s *Surface) Stroke() {
	outline := s.strokeOutline(&s.path)
	if outline == nil {
		return
	}
	st := &s.state.style
	smp := newSampler(st.StrokePaint, s.state.ctm, st.Smoothing)
	s.paintPath(outline, surface.NonZero, smp)
}

// strokeOutline returns the outline of the stroked path p, in device
// coordinates.  The result is nil if the current transformation is
// singular.
func (s *Surface) strokeOutline(p *path.Data) *path.Data {
	ctm := s.state.ctm
	det := ctm[0]*ctm[3] - ctm[1]*ctm[2]
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil
	}
	inv := affine.Invert(ctm)
	st := &s.state.style

	scale, _ := affine.SingularValueScale(ctm)
	tol := strokeTolerance / scale

	var seq iter.Seq[curve.PathElement] = userElements(p, inv)
	if dashActive(st.Dash) {
		seq = curve.Dash(seq, st.DashPhase, st.Dash)
	}

	style := curve.Stroke{
		Width:      st.LineWidth,
		Join:       curveJoin(st.LineJoin),
		MiterLimit: st.MiterLimit,
		StartCap:   curveCap(st.LineCap),
		EndCap:     curveCap(st.LineCap),
	}
	stroked := curve.StrokePath(seq, style, curve.StrokeOpts{}, tol)

	res := &path.Data{}
	dev := func(p curve.Point) vec.Vec2 {
		return affine.Apply(ctm, vec.Vec2{X: p.X, Y: p.Y})
	}
	for el := range stroked {
		switch el.Kind {
		case curve.MoveToKind:
			res.Cmds = append(res.Cmds, path.CmdMoveTo)
			res.Coords = append(res.Coords, dev(el.P0))
		case curve.LineToKind:
			res.Cmds = append(res.Cmds, path.CmdLineTo)
			res.Coords = append(res.Coords, dev(el.P0))
		case curve.QuadToKind:
			res.Cmds = append(res.Cmds, path.CmdQuadTo)
			res.Coords = append(res.Coords, dev(el.P0), dev(el.P1))
		case curve.CubicToKind:
			res.Cmds = append(res.Cmds, path.CmdCubeTo)
			res.Coords = append(res.Coords, dev(el.P0), dev(el.P1), dev(el.P2))
		case curve.ClosePathKind:
			res.Cmds = append(res.Cmds, path.CmdClose)
		}
	}
	return res
}

// userElements converts a device space path into path elements in the
// user space given by the inverse transformation inv.
func userElements(p *path.Data, inv matrix.Matrix) iter.Seq[curve.PathElement] {
	pt := func(v vec.Vec2) curve.Point {
		u := affine.Apply(inv, v)
		return curve.Point{X: u.X, Y: u.Y}
	}
	var els []curve.PathElement
	k := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			els = append(els, curve.PathElement{Kind: curve.MoveToKind, P0: pt(p.Coords[k])})
			k++
		case path.CmdLineTo:
			els = append(els, curve.PathElement{Kind: curve.LineToKind, P0: pt(p.Coords[k])})
			k++
		case path.CmdQuadTo:
			els = append(els, curve.PathElement{
				Kind: curve.QuadToKind,
				P0:   pt(p.Coords[k]),
				P1:   pt(p.Coords[k+1]),
			})
			k += 2
		case path.CmdCubeTo:
			els = append(els, curve.PathElement{
				Kind: curve.CubicToKind,
				P0:   pt(p.Coords[k]),
				P1:   pt(p.Coords[k+1]),
				P2:   pt(p.Coords[k+2]),
			})
			k += 3
		case path.CmdClose:
			els = append(els, curve.PathElement{Kind: curve.ClosePathKind})
		}
	}
	return slices.Values(els)
}

// dashActive reports whether a dash array has at least one positive
// entry.  All other arrays draw solid lines.
func dashActive(dash []float64) bool {
	for _, d := range dash {
		if d > 0 {
			return true
		}
	}
	return false
}

func curveJoin(j surface.LineJoin) curve.Join {
	switch j {
	case surface.JoinRound:
		return curve.RoundJoin
	case surface.JoinBevel:
		return curve.BevelJoin
	}
	return curve.MiterJoin
}

func curveCap(c surface.LineCap) curve.Cap {
	switch c {
	case surface.CapRound:
		return curve.RoundCap
	case surface.CapSquare:
		return curve.SquareCap
	}
	return curve.ButtCap
}
