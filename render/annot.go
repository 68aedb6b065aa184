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

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

// annotFrame records an annotation which is being drawn.  If the
// annotation has its own canvas, parent is the surface in use before the
// annotation started.
type annotFrame struct {
	id     string
	parent surface.Surface
	depth  int
	own    bool
}

func (e *Executor) opBeginAnnotations(*oplist.Args) error {
	e.save()
	e.s.SetTransform(e.baseTransform)
	e.stack.InvalidateTransform()
	return nil
}

func (e *Executor) opEndAnnotations(*oplist.Args) error {
	return e.restore()
}

func (e *Executor) opBeginAnnotation(a *oplist.Args) error {
	id := a.String(0)
	r, hasRect := a.OptRect(1)
	tr := a.Matrix(2)
	m := a.Matrix(3)
	hasOwnCanvas := a.Bool(4)
	if a.Err != nil {
		return a.Err
	}
	if e.annot != nil {
		return &gstate.IllegalStateError{Op: "beginAnnotation", Depth: e.stack.Depth()}
	}

	e.save()
	e.endSMaskMode()
	frame := &annotFrame{id: id, parent: e.s}

	w, h := e.s.Size()
	if hasRect {
		width := r.URx - r.LLx
		height := r.URy - r.LLy
		if hasOwnCanvas && e.separateAnnots {
			tr[4] -= r.LLx
			tr[5] -= r.LLy
			sx, sy := affine.SingularValueScale(e.s.CurrentTransform())
			w = max(int(math.Ceil(width*sx)), 1)
			h = max(int(math.Ceil(height*sy)), 1)

			as := e.pool.get("annotation", w, h)
			as.SetTransform(matrix.Matrix{sx, 0, 0, -sy, 0, height * sy})
			e.s = as
			frame.own = true
		} else {
			e.s.SetStyle(surface.DefaultStyle())
			e.s.BeginPath()
			e.s.Rect(r.LLx, r.LLy, width, height)
			e.s.Clip(surface.NonZero)
			e.s.BeginPath()
		}
	}
	e.s.SetStyle(surface.DefaultStyle())

	e.stack.Current = gstate.NewState(w, h)
	if frame.own {
		// The state of the annotation surface is saved, so that all
		// changes can be undone before the snapshot is taken.
		e.s.Save()
	}
	frame.depth = e.stack.Depth()
	e.annot = frame

	e.s.Transform(tr)
	e.s.Transform(m)
	e.stack.InvalidateTransform()
	return nil
}

func (e *Executor) opEndAnnotation(*oplist.Args) error {
	f := e.annot
	if f == nil {
		return &gstate.IllegalStateError{Op: "endAnnotation", Depth: e.stack.Depth()}
	}
	for e.stack.Depth() > f.depth {
		if err := e.restore(); err != nil {
			return err
		}
	}
	e.endSMaskMode()
	e.annot = nil

	if f.own {
		as := e.s
		as.Restore()
		w, h := as.Size()
		e.annotCanvases[f.id] = as.ReadPixels(image.Rect(0, 0, w, h))
		e.s = f.parent
	}
	return e.restore()
}
