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
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/surface"
)

var (
	red   = surface.Color{R: 255}
	green = surface.Color{G: 255}
	blue  = surface.Color{B: 255}
)

func opaque(c surface.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func TestFillRectCoverage(t *testing.T) {
	s := New(10, 10)
	s.SetFillPaint(red)
	s.BeginPath()
	s.Rect(2, 2, 4.5, 3)
	s.Fill(surface.NonZero)

	img := s.RGBA()
	cases := []struct {
		x, y int
		want color.RGBA
	}{
		{1, 3, color.RGBA{}},
		{2, 2, color.RGBA{R: 255, A: 255}},
		{5, 4, color.RGBA{R: 255, A: 255}},
		{6, 3, color.RGBA{R: 128, A: 128}}, // half covered
		{7, 3, color.RGBA{}},
		{3, 5, color.RGBA{}},
	}
	for _, c := range cases {
		if got := img.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestEvenOdd(t *testing.T) {
	for _, rule := range []surface.FillRule{surface.NonZero, surface.EvenOdd} {
		s := New(10, 10)
		s.SetFillPaint(blue)
		s.BeginPath()
		s.Rect(0, 0, 10, 10)
		s.Rect(3, 3, 4, 4) // same orientation
		s.Fill(rule)

		center := s.RGBA().RGBAAt(5, 5)
		wantA := uint8(255)
		if rule == surface.EvenOdd {
			wantA = 0
		}
		if center.A != wantA {
			t.Errorf("%v: center alpha = %d, want %d", rule, center.A, wantA)
		}
		if edge := s.RGBA().RGBAAt(1, 1); edge != opaque(blue) {
			t.Errorf("%v: edge = %v", rule, edge)
		}
	}
}

func TestTransform(t *testing.T) {
	s := New(20, 20)
	s.Transform(matrix.Matrix{2, 0, 0, 2, 4, 0})
	s.SetFillPaint(green)
	s.FillRect(0, 0, 2, 2)

	img := s.RGBA()
	if got := img.RGBAAt(5, 1); got != opaque(green) {
		t.Errorf("inside = %v", got)
	}
	if got := img.RGBAAt(3, 1); got.A != 0 {
		t.Errorf("left of rect = %v", got)
	}
	if got := img.RGBAAt(8, 1); got.A != 0 {
		t.Errorf("right of rect = %v", got)
	}
}

func TestClip(t *testing.T) {
	s := New(10, 10)
	s.Save()
	s.BeginPath()
	s.Rect(0, 0, 5, 10)
	s.Clip(surface.NonZero)
	s.BeginPath()
	s.SetFillPaint(red)
	s.FillRect(0, 0, 10, 10)
	s.Restore()

	img := s.RGBA()
	if got := img.RGBAAt(2, 2); got != opaque(red) {
		t.Errorf("inside clip = %v", got)
	}
	if got := img.RGBAAt(7, 2); got.A != 0 {
		t.Errorf("outside clip = %v", got)
	}

	// the clip is gone after restore
	s.SetFillPaint(green)
	s.FillRect(0, 0, 10, 10)
	if got := img.RGBAAt(7, 2); got != opaque(green) {
		t.Errorf("after restore = %v", got)
	}
}

func TestClipIntersect(t *testing.T) {
	s := New(10, 10)
	s.Rect(0, 0, 6, 10)
	s.Clip(surface.NonZero)
	s.BeginPath()
	s.Rect(4, 0, 6, 10)
	s.Clip(surface.NonZero)
	s.BeginPath()
	s.FillRect(0, 0, 10, 10)

	for x := range 10 {
		got := s.RGBA().RGBAAt(x, 5).A
		want := uint8(0)
		if x == 4 || x == 5 {
			want = 255
		}
		if got != want {
			t.Errorf("x=%d: alpha %d, want %d", x, got, want)
		}
	}
}

func TestStrokeWidth(t *testing.T) {
	cases := []struct {
		width float64
		scale float64
		wantY []int // rows which are fully covered
	}{
		{2, 1, []int{9, 10}},
		{4, 1, []int{8, 9, 10, 11}},
		{1, 4, []int{8, 9, 10, 11}},
	}
	for _, c := range cases {
		s := New(40, 20)
		s.Transform(matrix.Matrix{c.scale, 0, 0, c.scale, 0, 0})
		s.SetLineWidth(c.width)
		s.SetStrokePaint(red)
		s.BeginPath()
		s.MoveTo(2/c.scale, 10/c.scale)
		s.LineTo(30/c.scale, 10/c.scale)
		s.Stroke()

		var got []int
		for y := range 20 {
			if s.RGBA().RGBAAt(15, y).A > 250 {
				got = append(got, y)
			}
		}
		if d := cmp.Diff(c.wantY, got); d != "" {
			t.Errorf("width %g, scale %g: %s", c.width, c.scale, d)
		}
	}
}

func TestDash(t *testing.T) {
	s := New(40, 10)
	s.SetLineWidth(2)
	s.SetDash([]float64{5}, 0) // repeated to [5 5]
	s.BeginPath()
	s.MoveTo(0, 5)
	s.LineTo(40, 5)
	s.Stroke()

	img := s.RGBA()
	for _, x := range []int{2, 12, 22, 32} {
		if img.RGBAAt(x, 5).A < 250 {
			t.Errorf("x=%d should be painted", x)
		}
	}
	for _, x := range []int{7, 17, 27, 37} {
		if img.RGBAAt(x, 5).A > 5 {
			t.Errorf("x=%d should be a gap", x)
		}
	}
}

func TestDrawImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, opaque(red))
	src.SetRGBA(1, 0, opaque(green))
	src.SetRGBA(0, 1, opaque(blue))
	src.SetRGBA(1, 1, color.RGBA{A: 255})

	s := New(10, 10)
	s.SetSmoothing(false)
	s.DrawImage(src, src.Bounds(), rect.Rect{LLx: 2, LLy: 2, URx: 6, URy: 6})

	img := s.RGBA()
	cases := []struct {
		x, y int
		want color.RGBA
	}{
		{2, 2, opaque(red)},
		{3, 3, opaque(red)},
		{4, 2, opaque(green)},
		{2, 5, opaque(blue)},
		{5, 5, color.RGBA{A: 255}},
		{1, 1, color.RGBA{}},
		{6, 6, color.RGBA{}},
	}
	for _, c := range cases {
		if got := img.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

// TestDrawImageSubRect copies parts of a larger image to the same device
// position, as used when compositing scratch layers.
func TestDrawImageSubRect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 12, 12))
	for y := range 12 {
		for x := range 12 {
			src.SetRGBA(x, y, color.RGBA{R: uint8(20 * x), G: uint8(20 * y), A: 255})
		}
	}

	cases := []image.Rectangle{
		image.Rect(3, 4, 9, 11),
		image.Rect(5, 1, 7, 8),
		image.Rect(0, 6, 12, 7),
		image.Rect(2, 2, 5, 5),
	}
	for _, r := range cases {
		s := New(12, 12)
		s.SetSmoothing(false)
		dst := rect.Rect{
			LLx: float64(r.Min.X), LLy: float64(r.Min.Y),
			URx: float64(r.Max.X), URy: float64(r.Max.Y),
		}
		s.DrawImage(src, r, dst)

		img := s.RGBA()
		for y := range 12 {
			for x := range 12 {
				want := color.RGBA{}
				if image.Pt(x, y).In(r) {
					want = src.RGBAAt(x, y)
				}
				if got := img.RGBAAt(x, y); got != want {
					t.Fatalf("%v: pixel (%d,%d) = %v, want %v", r, x, y, got, want)
				}
			}
		}
	}
}

func TestDrawImageFlipped(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.SetRGBA(0, 0, opaque(red))
	src.SetRGBA(0, 1, opaque(blue))

	// y axis pointing up, image rows drawn bottom to top
	s := New(4, 4)
	s.SetSmoothing(false)
	s.SetTransform(matrix.Matrix{1, 0, 0, -1, 0, 4})
	s.DrawImage(src, src.Bounds(), rect.Rect{LLx: 0, LLy: 4, URx: 4, URy: 0})

	img := s.RGBA()
	if got := img.RGBAAt(1, 0); got != opaque(red) {
		t.Errorf("top = %v", got)
	}
	if got := img.RGBAAt(1, 3); got != opaque(blue) {
		t.Errorf("bottom = %v", got)
	}
}

func TestLinearGradient(t *testing.T) {
	s := New(101, 1)
	s.SetFillPaint(&surface.LinearGradient{
		X0: 0.5, Y0: 0, X1: 100.5, Y1: 0,
		Stops: []surface.Stop{
			{Offset: 0, Color: surface.Color{R: 0}},
			{Offset: 1, Color: surface.Color{R: 200}},
		},
	})
	s.FillRect(0, 0, 101, 1)

	img := s.RGBA()
	for _, x := range []int{0, 25, 50, 100} {
		got := img.RGBAAt(x, 0)
		want := uint8(2 * x)
		if got.A != 255 || got.R != want {
			t.Errorf("x=%d: %v, want R=%d", x, got, want)
		}
	}
}

func TestRadialGradient(t *testing.T) {
	s := New(21, 21)
	s.SetFillPaint(&surface.RadialGradient{
		X0: 10.5, Y0: 10.5, R0: 0,
		X1: 10.5, Y1: 10.5, R1: 10,
		Stops: []surface.Stop{
			{Offset: 0, Color: surface.Color{G: 250}},
			{Offset: 1, Color: surface.Color{G: 0}},
		},
	})
	s.FillRect(0, 0, 21, 21)

	img := s.RGBA()
	if got := img.RGBAAt(10, 10).G; got != 250 {
		t.Errorf("center = %d", got)
	}
	if got := img.RGBAAt(15, 10).G; got != 125 {
		t.Errorf("half radius = %d", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("outside = %v", got)
	}
}

func TestImagePatternRepeat(t *testing.T) {
	tile := image.NewRGBA(image.Rect(0, 0, 2, 1))
	tile.SetRGBA(0, 0, opaque(red))
	tile.SetRGBA(1, 0, opaque(blue))

	s := New(8, 2)
	s.SetSmoothing(false)
	s.SetFillPaint(&surface.ImagePattern{
		Image:  tile,
		Matrix: matrix.Matrix{1, 0, 0, 1, 0, 0},
		Repeat: true,
	})
	s.FillRect(0, 0, 8, 2)
	for x := range 8 {
		want := opaque(red)
		if x%2 == 1 {
			want = opaque(blue)
		}
		if got := s.RGBA().RGBAAt(x, 1); got != want {
			t.Errorf("x=%d: %v", x, got)
		}
	}
}

func TestAlphaAndComposite(t *testing.T) {
	s := New(2, 1)
	s.SetFillPaint(red)
	s.FillRect(0, 0, 2, 1)

	s.SetAlpha(0.5)
	s.SetFillPaint(blue)
	s.FillRect(0, 0, 1, 1)
	if got := s.RGBA().RGBAAt(0, 0); got != (color.RGBA{R: 128, B: 128, A: 255}) {
		t.Errorf("half blue over red = %v", got)
	}

	s.SetAlpha(1)
	s.SetCompositeOp(surface.DestinationOut)
	s.FillRect(1, 0, 1, 1)
	if got := s.RGBA().RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("destination-out = %v", got)
	}
}

func TestMultiply(t *testing.T) {
	s := New(1, 1)
	s.SetFillPaint(surface.Color{R: 255, G: 128, B: 0})
	s.FillRect(0, 0, 1, 1)
	s.SetCompositeOp(surface.Multiply)
	s.SetFillPaint(surface.Color{R: 128, G: 255, B: 255})
	s.FillRect(0, 0, 1, 1)
	if got := s.RGBA().RGBAAt(0, 0); got != (color.RGBA{R: 128, G: 128, B: 0, A: 255}) {
		t.Errorf("multiply = %v", got)
	}
}

func TestPixels(t *testing.T) {
	s := New(4, 4)
	s.SetFillPaint(green)
	s.FillRect(1, 1, 2, 2)

	r := image.Rect(-1, -1, 3, 3)
	p := s.ReadPixels(r)
	if p.Bounds() != r {
		t.Fatalf("bounds = %v", p.Bounds())
	}
	if got := p.RGBAAt(-1, -1); got.A != 0 {
		t.Errorf("outside = %v", got)
	}
	if got := p.RGBAAt(1, 1); got != opaque(green) {
		t.Errorf("inside = %v", got)
	}

	t2 := New(4, 4)
	t2.WritePixels(p, image.Pt(1, 1))
	if got := t2.RGBA().RGBAAt(3, 3); got != opaque(green) {
		t.Errorf("written = %v", got)
	}
	if got := t2.RGBA().RGBAAt(1, 1); got.A != 0 {
		t.Errorf("written transparent = %v", got)
	}
}

func TestApplyFilter(t *testing.T) {
	s := New(2, 1)
	s.SetFillPaint(surface.Color{R: 255, G: 255, B: 255})
	s.FillRect(0, 0, 1, 1)
	s.ApplyFilter(&surface.LuminosityFilter{}, image.Rect(0, 0, 2, 1))

	if got := s.RGBA().RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("white = %v", got)
	}
	if got := s.RGBA().RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("transparent = %v", got)
	}
}

func TestClearRect(t *testing.T) {
	s := New(4, 1)
	s.FillRect(0, 0, 4, 1)
	s.ClearRect(1, 0, 2, 1)
	want := []uint8{255, 0, 0, 255}
	for x, a := range want {
		if got := s.RGBA().RGBAAt(x, 0).A; got != a {
			t.Errorf("x=%d: alpha %d, want %d", x, got, a)
		}
	}
}

func TestSingularTransform(t *testing.T) {
	s := New(4, 4)
	s.SetTransform(matrix.Matrix{0, 0, 0, 0, 1, 1})
	s.BeginPath()
	s.MoveTo(0, 0)
	s.LineTo(1, 1)
	s.Stroke()
	s.Rect(0, 0, 1, 1)
	s.Fill(surface.NonZero)

	s.SetTransform(matrix.Matrix{math.NaN(), 0, 0, 1, 0, 0})
	s.FillRect(0, 0, 2, 2)

	for _, v := range s.RGBA().Pix {
		if v != 0 {
			t.Fatal("singular transform painted pixels")
		}
	}
}

func TestMirror(t *testing.T) {
	scratch := New(4, 4)
	target := New(4, 4)
	m := &surface.Mirror{Surface: scratch, Target: target}

	m.Save()
	m.Transform(matrix.Matrix{1, 0, 0, 1, 1, 1})
	m.BeginPath()
	m.Rect(0, 0, 2, 2)
	m.Clip(surface.NonZero)
	m.FillRect(-1, -1, 4, 4)

	if scratch.RGBA().RGBAAt(1, 1).A != 255 {
		t.Error("scratch surface not painted")
	}
	if target.RGBA().RGBAAt(1, 1).A != 0 {
		t.Error("paint reached the target")
	}
	if d := cmp.Diff(scratch.CurrentTransform(), target.CurrentTransform()); d != "" {
		t.Error(d)
	}
	m.Restore()
	if target.CurrentTransform() != (matrix.Matrix{1, 0, 0, 1, 0, 0}) {
		t.Error("restore not mirrored")
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	a := f.NewSurface(2, 2)
	b := f.NewSurface(3, 3)
	if f.Live() != 2 {
		t.Fatalf("live = %d", f.Live())
	}
	f.Release(a)
	f.Release(a)
	if f.Live() != 1 {
		t.Errorf("live = %d", f.Live())
	}
	f.Release(b)
	if f.Live() != 0 {
		t.Errorf("live = %d", f.Live())
	}
}

func TestReset(t *testing.T) {
	s := New(2, 2)
	s.Transform(matrix.Matrix{2, 0, 0, 2, 0, 0})
	s.Save()
	s.FillRect(0, 0, 1, 1)
	s.Reset(3, 1)
	if w, h := s.Size(); w != 3 || h != 1 {
		t.Errorf("size = %d×%d", w, h)
	}
	for _, v := range s.RGBA().Pix {
		if v != 0 {
			t.Fatal("pixels not cleared")
		}
	}
	if s.CurrentTransform() != (matrix.Matrix{1, 0, 0, 1, 0, 0}) {
		t.Error("transform not reset")
	}
}
