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
	"fmt"
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/shading"
	"seehuhn.de/go/pdfpaint/surface"
)

// devicePattern is a pattern rendered into an image.
type devicePattern struct {
	img image.Image

	// toDevice maps image pixels to device space.
	toDevice matrix.Matrix

	repeat bool
}

// paintFor returns the pattern as a paint, for use on a surface whose
// user space is mapped to device space by userToDevice.
func (p *devicePattern) paintFor(userToDevice matrix.Matrix) surface.Paint {
	return &surface.ImagePattern{
		Image:  p.img,
		Matrix: affine.Transform(affine.Invert(userToDevice), p.toDevice),
		Repeat: p.repeat,
	}
}

// patternPaint renders the pattern pat for filling or stroking the
// current path, and returns a paint for the current user space.  A nil
// paint means that nothing is painted.
func (e *Executor) patternPaint(pat any, c surface.Color, tp gstate.PathType) (surface.Paint, error) {
	p, err := e.devicePattern(pat, c, tp)
	if err != nil || p == nil {
		return nil, err
	}
	return p.paintFor(e.ctm()), nil
}

func (e *Executor) devicePattern(pat any, c surface.Color, tp gstate.PathType) (*devicePattern, error) {
	switch p := pat.(type) {
	case *tilingRef:
		return e.tilingPattern(p, c)
	case *oplist.ShadingIR:
		switch p.Kind {
		case oplist.ShadingAxial, oplist.ShadingRadial:
			return e.gradientPattern(p, tp), nil
		case oplist.ShadingMesh:
			return e.meshPattern(p, tp)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown pattern type %T", pat)
}

func gradientPaint(sh *oplist.ShadingIR) surface.Paint {
	switch sh.Kind {
	case oplist.ShadingAxial:
		return &surface.LinearGradient{
			X0: sh.P0.X, Y0: sh.P0.Y,
			X1: sh.P1.X, Y1: sh.P1.Y,
			Stops: sh.Stops,
		}
	case oplist.ShadingRadial:
		return &surface.RadialGradient{
			X0: sh.P0.X, Y0: sh.P0.Y, R0: sh.R0,
			X1: sh.P1.X, Y1: sh.P1.Y, R1: sh.R1,
			Stops: sh.Stops,
		}
	}
	return nil
}

// gradientPattern renders an axial or radial shading into a scratch
// surface covering the clipped bounding box of the current path.
func (e *Executor) gradientPattern(sh *oplist.ShadingIR, tp gstate.PathType) *devicePattern {
	cur := e.cur()
	box, ok := cur.ClippedPathBoundingBox(tp, e.ctm())
	switch {
	case ok:
	case cur.IsPathEmpty() && !cur.EmptyClip && isFiniteRect(cur.ClipBox):
		// text is painted without a path
		box = cur.ClipBox
	default:
		box = rect.Rect{}
	}
	w := pixelSize(box.URx - box.LLx)
	h := pixelSize(box.URy - box.LLy)

	tmp := e.pool.get("pattern", w, h)
	m := affine.Transform(affine.Translate(-box.LLx, -box.LLy), e.baseTransform)
	if sh.Matrix != nil {
		m = affine.Transform(m, *sh.Matrix)
	}
	tmp.SetTransform(m)
	if sh.BBox != nil {
		clipTo(tmp, *sh.BBox)
	}
	fillSurface(tmp, gradientPaint(sh))

	return &devicePattern{
		img:      tmp.Image(),
		toDevice: affine.Translate(box.LLx, box.LLy),
	}
}

// clipTo intersects the clipping region of s with a user space
// rectangle.  The current path is discarded.
func clipTo(s surface.Surface, r rect.Rect) {
	r = oplist.NormalizeRect(r)
	s.BeginPath()
	s.Rect(r.LLx, r.LLy, r.URx-r.LLx, r.URy-r.LLy)
	s.Clip(surface.NonZero)
	s.BeginPath()
}

// fillSurface paints all pixels of s, with the paint interpreted in the
// current user space of s.
func fillSurface(s surface.Surface, p surface.Paint) {
	w, h := s.Size()
	m := s.CurrentTransform()
	s.SetTransform(matrix.Identity)
	s.BeginPath()
	s.Rect(0, 0, float64(w), float64(h))
	s.SetTransform(m)
	s.SetFillPaint(p)
	s.Fill(surface.NonZero)
	s.BeginPath()
}

// pixelSize rounds a length up to whole pixels, with a minimum of 1.
func pixelSize(x float64) int {
	x = math.Ceil(x)
	if !(x >= 1) {
		return 1
	}
	if x > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(x)
}

type meshKey struct {
	ir          *oplist.ShadingIR
	sx, sy      float64
	shadingFill bool
}

// meshRaster rasterizes a mesh shading at the given scale.  For the
// shading fill operator the background color is not used.  For mesh
// patterns, pixels outside the bounding box of the shading are cleared.
func (e *Executor) meshRaster(sh *oplist.ShadingIR, sx, sy float64, shadingFill bool, op oplist.OpCode) (*shading.Raster, error) {
	key := meshKey{ir: sh, sx: sx, sy: sy, shadingFill: shadingFill}
	if r, ok := e.meshCache[key]; ok {
		return r, nil
	}

	src := sh
	if shadingFill && sh.Background != nil {
		cp := *sh
		cp.Background = nil
		src = &cp
	}
	r, err := shading.Rasterize(src, sx, sy, e.opt.MaxPatternSize)
	if err != nil {
		return nil, oplist.Errorf(op, "mesh shading: %v", err)
	}
	if !shadingFill && sh.BBox != nil {
		clearOutside(r, oplist.NormalizeRect(*sh.BBox))
	}
	e.meshCache[key] = r
	return r, nil
}

// clearOutside makes all pixels of r transparent whose centers lie
// outside the shading space rectangle box.
func clearOutside(r *shading.Raster, box rect.Rect) {
	img := r.Image
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		sy := r.OffsetY + (float64(y)+0.5)*r.ScaleY
		rowInside := sy >= box.LLy && sy <= box.URy
		for x := b.Min.X; x < b.Max.X; x++ {
			sx := r.OffsetX + (float64(x)+0.5)*r.ScaleX
			if rowInside && sx >= box.LLx && sx <= box.URx {
				continue
			}
			k := img.PixOffset(x, y)
			clear(img.Pix[k : k+4])
		}
	}
}

func (e *Executor) meshPattern(sh *oplist.ShadingIR, tp gstate.PathType) (*devicePattern, error) {
	sx, sy := affine.SingularValueScale(e.baseTransform)
	m := e.baseTransform
	if sh.Matrix != nil {
		msx, msy := affine.SingularValueScale(*sh.Matrix)
		sx *= msx
		sy *= msy
		m = affine.Transform(m, *sh.Matrix)
	}
	op := oplist.Fill
	if tp == gstate.PathStroke {
		op = oplist.Stroke
	}
	r, err := e.meshRaster(sh, sx, sy, false, op)
	if err != nil {
		return nil, err
	}
	return &devicePattern{
		img:      r.Image,
		toDevice: affine.Transform(m, r.Matrix()),
	}, nil
}

func (e *Executor) opShadingFill(a *oplist.Args) error {
	sh, ok := a.Value(0).(*oplist.ShadingIR)
	if !ok || sh == nil {
		return oplist.Errorf(a.Op, "expected shading, got %T", a.Value(0))
	}
	if !e.contentVisible {
		return nil
	}

	var paint surface.Paint
	switch sh.Kind {
	case oplist.ShadingAxial, oplist.ShadingRadial:
		paint = gradientPaint(sh)
	case oplist.ShadingMesh:
		sx, sy := affine.SingularValueScale(e.ctm())
		r, err := e.meshRaster(sh, sx, sy, true, a.Op)
		if err != nil {
			return err
		}
		paint = &surface.ImagePattern{Image: r.Image, Matrix: r.Matrix()}
	}

	e.save()
	cur := e.cur()
	if paint != nil && !cur.EmptyClip {
		s := e.s
		if sh.BBox != nil {
			clipTo(s, *sh.BBox)
		}
		r := e.inverseBox()
		s.SetFillPaint(paint)
		s.FillRect(r.LLx, r.LLy, r.URx-r.LLx, r.URy-r.LLy)
	}
	e.compose(cur.ClipBox, true)
	return e.restore()
}

// tilingPattern renders one tile of a tiling pattern.
//
// The tile is rendered at the resolution of the device, but no larger
// than MaxPatternSize or the size of the current surface.  If the
// bounding box of the pattern cell is larger than the step, the cell is
// rendered first and the parts beyond the step are folded into a tile of
// the step size.
func (e *Executor) tilingPattern(ref *tilingRef, c surface.Color) (*devicePattern, error) {
	ir := ref.ir
	xstep, ystep := math.Abs(ir.XStep), math.Abs(ir.YStep)
	if !(xstep > 0) || !(ystep > 0) {
		return nil, oplist.Errorf(oplist.SetFillColorN, "tiling pattern with step %g×%g", ir.XStep, ir.YStep)
	}
	bb := oplist.NormalizeRect(ir.BBox)
	width := bb.URx - bb.LLx
	height := bb.URy - bb.LLy

	msx, msy := affine.SingularValueScale(ir.Matrix)
	bsx, bsy := affine.SingularValueScale(ref.base)
	sx, sy := msx*bsx, msy*bsy

	cellW, cellH := width, height
	foldX := math.Ceil(xstep*sx) < math.Ceil(width*sx)
	foldY := math.Ceil(ystep*sy) < math.Ceil(height*sy)
	if !foldX {
		cellW = xstep
	}
	if !foldY {
		cellH = ystep
	}

	sw, sh := e.s.Size()
	tw, kx := e.sizeAndScale(cellW, sw, sx)
	th, ky := e.sizeAndScale(cellH, sh, sy)

	tile := e.pool.get("pattern", tw, th)
	tile.SetTransform(affine.Transform(
		affine.Translate(-kx*bb.LLx, -ky*bb.LLy), affine.Scale(kx, ky)))
	tile.Save()

	fill, stroke := c, c
	if ir.PaintType != 2 {
		fill, stroke = e.cur().FillColor, e.cur().StrokeColor
	}
	child := e.child(tile)
	child.setFillColor(fill)
	child.setStrokeColor(stroke)
	child.ignoreColor = ir.PaintType == 2
	child.clipRect(bb)
	child.baseTransform = tile.CurrentTransform()
	_, err := child.execute(ir.Ops, 0, nil, nil)
	child.EndDrawing()
	if err != nil {
		return nil, fmt.Errorf("tiling pattern: %w", err)
	}

	img := tile.Image()
	if foldX || foldY {
		cw, kx2 := e.sizeAndScale(xstep, sw, sx)
		ch, ky2 := e.sizeAndScale(ystep, sh, sy)
		if !foldX {
			cw, kx2 = tw, kx
		}
		if !foldY {
			ch, ky2 = th, ky
		}
		cell := e.pool.get("patternCell", cw, ch)
		cell.SetSmoothing(false)

		b := img.Bounds()
		ii, jj := 0, 0
		if foldX {
			ii = min(int(width/xstep), b.Dx()/cw)
		}
		if foldY {
			jj = min(int(height/ystep), b.Dy()/ch)
		}
		for i := 0; i <= ii; i++ {
			for j := 0; j <= jj; j++ {
				src := image.Rect(cw*i, ch*j, cw*(i+1), ch*(j+1)).Intersect(b)
				if src.Empty() {
					continue
				}
				dst := rect.Rect{
					LLx: float64(src.Min.X - cw*i), LLy: float64(src.Min.Y - ch*j),
					URx: float64(src.Max.X - cw*i), URy: float64(src.Max.Y - ch*j),
				}
				cell.DrawImage(img, src, dst)
			}
		}
		img = cell.Image()
		kx, ky = kx2, ky2
	}

	toDevice := affine.Transform(ref.base, ir.Matrix)
	toDevice = affine.Transform(toDevice, affine.Translate(bb.LLx, bb.LLy))
	toDevice = affine.Transform(toDevice, affine.Scale(1/kx, 1/ky))
	return &devicePattern{img: img, toDevice: toDevice, repeat: true}, nil
}

// sizeAndScale returns the size in pixels of a pattern tile covering
// step units at the given scale, and the scale adjusted to the rounded
// size.
func (e *Executor) sizeAndScale(step float64, realSize int, scale float64) (int, float64) {
	maxSize := float64(max(e.opt.MaxPatternSize, realSize))
	size := math.Ceil(step * scale)
	switch {
	case !(size < maxSize):
		size = maxSize
	case size < 1:
		size = 1
	}
	return int(size), size / step
}
