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
	"image"
	"math"
	"strconv"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

// groupFrame records the drawing target in effect before a transparency
// group was started.
type groupFrame struct {
	// skipped is set for groups inside invisible optional content.
	skipped bool

	parent     surface.Surface
	depth      int // stack depth inside the group
	base       matrix.Matrix
	smask      *oplist.SMaskIR
	offX, offY int
}

func (e *Executor) opBeginGroup(a *oplist.Args) error {
	g, ok := a.Value(0).(*oplist.GroupIR)
	if !ok || g == nil {
		return oplist.Errorf(a.Op, "expected group, got %T", a.Value(0))
	}
	if !e.contentVisible {
		e.save()
		e.groupStack = append(e.groupStack, &groupFrame{skipped: true, depth: e.stack.Depth()})
		return nil
	}
	if g.BBox == nil {
		return oplist.Errorf(a.Op, "group without bounding box")
	}

	e.save()
	if e.suspended != nil {
		e.endSMaskMode()
		e.cur().ActiveSMask = nil
	}
	if !g.Isolated {
		e.log.Warn("non-isolated group drawn as isolated")
	}
	if g.Knockout {
		e.log.Warn("knockout group drawn as non-knockout")
	}

	parent := e.s
	ctm := parent.CurrentTransform()
	m := ctm
	if g.Matrix != nil {
		m = affine.Transform(ctm, *g.Matrix)
	}
	bounds := affine.TransformRect(m, oplist.NormalizeRect(*g.BBox))
	bounds, ok = affine.Intersect(bounds, e.surfaceBox())
	if !ok || !isFiniteRect(bounds) {
		bounds = rect.Rect{}
	}
	offX := math.Floor(bounds.LLx)
	offY := math.Floor(bounds.LLy)
	w := max(int(math.Ceil(bounds.URx)-offX), 1)
	h := max(int(math.Ceil(bounds.URy)-offY), 1)

	cur := e.cur()
	cur.StartNewPathAndClipBox(rect.Rect{URx: float64(w), URy: float64(h)})

	name := "groupAt" + strconv.Itoa(e.groupLevel)
	if g.SMask != nil {
		name += "_smask_" + strconv.Itoa(e.smaskCounter%2)
		e.smaskCounter++
	}
	gs := e.pool.get(name, w, h)
	gs.SetTransform(affine.Transform(affine.Translate(-offX, -offY), ctm))
	st := parent.Style().Clone()
	st.Alpha = 1
	st.CompositeOp = surface.SourceOver
	gs.SetStyle(st)
	cur.FillAlpha = 1
	cur.StrokeAlpha = 1
	cur.BlendMode = surface.SourceOver

	e.groupStack = append(e.groupStack, &groupFrame{
		parent: parent,
		depth:  e.stack.Depth(),
		base:   e.baseTransform,
		smask:  g.SMask,
		offX:   int(offX),
		offY:   int(offY),
	})
	e.baseTransform = affine.Transform(affine.Translate(-offX, -offY), e.baseTransform)
	e.s = gs
	e.groupLevel++
	e.stack.InvalidateTransform()
	return nil
}

func (e *Executor) opEndGroup(a *oplist.Args) error {
	n := len(e.groupStack)
	if n == 0 {
		return &gstate.IllegalStateError{Op: "endGroup", Depth: e.stack.Depth()}
	}
	f := e.groupStack[n-1]

	// Unbalanced states inside the group are restored on the group surface.
	for e.stack.Depth() > f.depth {
		if err := e.restore(); err != nil {
			return err
		}
	}
	if f.skipped {
		e.groupStack = e.groupStack[:n-1]
		return e.restore()
	}
	e.endSMaskMode()
	gs := e.popGroup()

	if f.smask != nil {
		w, h := gs.Size()
		e.tempSMask = &softMask{
			img:        gs.ReadPixels(image.Rect(0, 0, w, h)),
			offX:       f.offX,
			offY:       f.offY,
			luminosity: f.smask.Subtype == "Luminosity",
			backdrop:   f.smask.Backdrop,
			transfer:   f.smask.TransferMap,
		}
		return e.restore()
	}

	if err := e.restore(); err != nil {
		return err
	}
	w, h := gs.Size()
	dst := rect.Rect{
		LLx: float64(f.offX), LLy: float64(f.offY),
		URx: float64(f.offX + w), URy: float64(f.offY + h),
	}
	s := e.s
	s.Save()
	s.SetTransform(matrix.Identity)
	s.SetSmoothing(false)
	s.DrawImage(gs.Image(), image.Rect(0, 0, w, h), dst)
	s.Restore()
	e.compose(dst, true)
	return nil
}

// popGroup removes the innermost group frame and makes the parent surface
// current again.  The group surface is returned.
func (e *Executor) popGroup() surface.Surface {
	n := len(e.groupStack)
	f := e.groupStack[n-1]
	e.groupStack = e.groupStack[:n-1]
	gs := e.s
	e.s = f.parent
	e.baseTransform = f.base
	e.groupLevel--
	e.stack.InvalidateTransform()
	return gs
}
