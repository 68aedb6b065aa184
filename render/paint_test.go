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
	"bytes"
	"context"
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/sfnt"

	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/raster"
	"seehuhn.de/go/pdfpaint/registry"
	"seehuhn.de/go/pdfpaint/surface"
)

func diffPixels(t *testing.T, got, want *image.RGBA, tol int) {
	t.Helper()
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if a, b := got.RGBAAt(x, y), want.RGBAAt(x, y); !near(a, b, tol) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, a, b)
			}
		}
	}
}

func maskGroup(bbox *rect.Rect, subtype string) *oplist.GroupIR {
	return &oplist.GroupIR{
		BBox:     bbox,
		Isolated: true,
		SMask: &oplist.SMaskIR{
			Subtype:  subtype,
			Backdrop: &surface.Color{},
		},
	}
}

func TestLuminosityIdentity(t *testing.T) {
	bbox := &rect.Rect{URx: 20, URy: 20}
	mask := maskGroup(bbox, "Luminosity")

	// Edge pixels are rounded once more on the layer.
	cases := []struct {
		name string
		ctm  matrix.Matrix
		tol  int
	}{
		{"identity", matrix.Identity, 1},
		{"rotated", matrix.Matrix{0.8, 0.3, -0.3, 0.8, 5, 2}, 2},
		{"shifted", matrix.Matrix{1, 0, 0, 1, 0.5, 3.25}, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			paint := instrs(
				transformInstr(c.ctm),
				oplist.I(oplist.SetFillRGBColor, 200, 50, 0),
				rectFill(2, 2, 10, 10),
				oplist.I(oplist.SetFillRGBColor, 0, 100, 255),
				oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "ca", Value: 0.5}}),
				rectFill(6, 6, 10, 10),
			)

			want := render(t, 20, 20, oplist.Complete(instrs(
				oplist.I(oplist.Save), paint, oplist.I(oplist.Restore),
			)...), nil)

			masked := oplist.Complete(instrs(
				oplist.I(oplist.BeginGroup, mask),
				oplist.I(oplist.SetFillRGBColor, 255, 255, 255),
				rectFill(0, 0, 20, 20),
				oplist.I(oplist.EndGroup, mask),
				oplist.I(oplist.Save),
				oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "SMask", Value: true}}),
				paint,
				oplist.I(oplist.Restore),
			)...)
			got := render(t, 20, 20, masked, nil)

			diffPixels(t, got, want, c.tol)
		})
	}
}

func TestLuminosityMask(t *testing.T) {
	bbox := &rect.Rect{URx: 20, URy: 20}
	mask := maskGroup(bbox, "Luminosity")
	list := oplist.Complete(instrs(
		oplist.I(oplist.Save),
		oplist.I(oplist.BeginGroup, mask),
		oplist.I(oplist.SetFillRGBColor, 255, 255, 255),
		rectFill(0, 0, 10, 20),
		oplist.I(oplist.EndGroup, mask),
		oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "SMask", Value: true}}),
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		rectFill(0, 0, 20, 20),
		oplist.I(oplist.Restore),
		oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
		rectFill(0, 15, 20, 5),
	)...)
	img := render(t, 20, 20, list, nil)

	cases := []struct {
		x, y int
		want color.RGBA
	}{
		{5, 5, red},
		{15, 5, white},
		{5, 17, blue},
		{15, 17, blue}, // the mask ends with the restore
	}
	for _, c := range cases {
		if got := img.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestIsolatedGroupAlpha(t *testing.T) {
	bbox := &rect.Rect{URx: 20, URy: 20}
	group := &oplist.GroupIR{BBox: bbox, Isolated: true}
	list := oplist.Complete(instrs(
		oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "ca", Value: 0.5}}),
		oplist.I(oplist.BeginGroup, group),
		oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
		rectFill(0, 0, 15, 15),
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		rectFill(5, 5, 15, 15),
		oplist.I(oplist.EndGroup, group),
	)...)
	img := render(t, 20, 20, list, nil)

	// Inside the group both rectangles are opaque, so the blue one does
	// not shine through the red one.
	wantOverlap := color.RGBA{R: 255, G: 128, B: 128, A: 255}
	if got := img.RGBAAt(10, 10); !near(got, wantOverlap, 2) {
		t.Errorf("overlap = %v, want %v", got, wantOverlap)
	}
	wantBlue := color.RGBA{R: 128, G: 128, B: 255, A: 255}
	if got := img.RGBAAt(2, 2); !near(got, wantBlue, 2) {
		t.Errorf("blue part = %v, want %v", got, wantBlue)
	}
}

func TestGroupWarnings(t *testing.T) {
	cases := []struct {
		group *oplist.GroupIR
		want  []string
	}{
		{&oplist.GroupIR{Isolated: true}, nil},
		{&oplist.GroupIR{}, []string{"non-isolated group drawn as isolated"}},
		{&oplist.GroupIR{Isolated: true, Knockout: true}, []string{"knockout group drawn as non-knockout"}},
	}
	for i, c := range cases {
		c.group.BBox = &rect.Rect{URx: 10, URy: 10}
		h := &recordHandler{}
		list := oplist.Complete(instrs(
			oplist.I(oplist.BeginGroup, c.group),
			rectFill(0, 0, 5, 5),
			oplist.I(oplist.EndGroup, c.group),
		)...)
		render(t, 10, 10, list, &Options{Logger: slog.New(h)})

		var got []string
		for _, r := range h.records {
			if r.Level == slog.LevelWarn {
				got = append(got, r.Message)
			}
		}
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("%d: warnings (-want +got):\n%s", i, d)
		}
	}
}

// recordHandler collects log records.
type recordHandler struct {
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler { return h }

func TestGroupRestoresState(t *testing.T) {
	bbox := &rect.Rect{URx: 10, URy: 10}
	group := &oplist.GroupIR{BBox: bbox, Isolated: true}
	list := oplist.Complete(instrs(
		oplist.I(oplist.BeginGroup, group),
		oplist.I(oplist.Save),
		oplist.I(oplist.Transform, 2.0, 0.0, 0.0, 2.0, 0.0, 0.0),
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		oplist.I(oplist.EndGroup, group),
		rectFill(0, 0, 5, 5),
	)...)
	img := render(t, 10, 10, list, nil)

	// The unbalanced save inside the group is undone by the end of the
	// group.
	if got := img.RGBAAt(2, 2); got != (color.RGBA{A: 255}) {
		t.Errorf("pixel (2,2) = %v, want black", got)
	}
	if got := img.RGBAAt(7, 7); got != white {
		t.Errorf("pixel (7,7) = %v, want white", got)
	}
}

func TestHiddenGroup(t *testing.T) {
	bbox := &rect.Rect{URx: 10, URy: 10}
	group := &oplist.GroupIR{BBox: bbox, Isolated: true}
	cases := []struct {
		name string
		body []oplist.Instr
	}{
		{"balanced", instrs(
			oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
			rectFill(0, 0, 10, 10),
		)},
		{"unbalanced", instrs(
			oplist.I(oplist.Save),
			transformInstr(matrix.Matrix{2, 0, 0, 2, 0, 0}),
			oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
			rectFill(0, 0, 10, 10),
		)},
		{"color only", instrs(
			oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
			transformInstr(matrix.Matrix{1, 0, 0, 1, 3, 3}),
		)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			list := oplist.Complete(instrs(
				oplist.I(oplist.BeginMarkedContentProps, "OC", &oplist.MarkedContentProps{Type: "OCG", ID: "off"}),
				oplist.I(oplist.BeginGroup, group),
				c.body,
				oplist.I(oplist.EndGroup, group),
				oplist.I(oplist.EndMarkedContent),
				rectFill(0, 0, 5, 5),
			)...)
			opt := &Options{OptionalContent: func(id string) bool { return false }}
			img := render(t, 10, 10, list, opt)
			if got := img.RGBAAt(7, 7); got != white {
				t.Errorf("pixel (7,7) = %v, want white", got)
			}
			if got := img.RGBAAt(2, 2); got != (color.RGBA{A: 255}) {
				t.Errorf("pixel (2,2) = %v, want black", got)
			}
		})
	}
}

func TestTilingEqualsRepeat(t *testing.T) {
	cell := oplist.Complete(instrs(
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		rectFill(0, 0, 5, 5),
		oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
		rectFill(5, 5, 5, 5),
	)...)
	pat := &oplist.TilingIR{
		Ops:       cell,
		Matrix:    [6]float64{1, 0, 0, 1, 0, 0},
		BBox:      rect.Rect{URx: 10, URy: 10},
		XStep:     10,
		YStep:     10,
		PaintType: 1,
	}
	tiled := render(t, 40, 40, oplist.Complete(instrs(
		oplist.I(oplist.SetFillColorN, pat),
		rectFill(0, 0, 40, 40),
	)...), nil)

	var parts []any
	for y := 0.0; y < 40; y += 10 {
		for x := 0.0; x < 40; x += 10 {
			parts = append(parts,
				oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
				rectFill(x, y, 5, 5),
				oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
				rectFill(x+5, y+5, 5, 5),
			)
		}
	}
	repeated := render(t, 40, 40, oplist.Complete(instrs(parts...)...), nil)

	diffPixels(t, tiled, repeated, 2)
}

func TestUncoloredTiling(t *testing.T) {
	cell := oplist.Complete(instrs(
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0), // ignored
		rectFill(0, 0, 5, 10),
	)...)
	pat := &oplist.TilingIR{
		Ops:       cell,
		Matrix:    [6]float64{1, 0, 0, 1, 0, 0},
		BBox:      rect.Rect{URx: 10, URy: 10},
		XStep:     10,
		YStep:     10,
		PaintType: 2,
	}
	img := render(t, 20, 20, oplist.Complete(instrs(
		oplist.I(oplist.SetFillColorN, pat, surface.Color{G: 255}),
		rectFill(0, 0, 20, 20),
	)...), nil)
	for _, p := range []image.Point{{2, 2}, {12, 17}} {
		if got := img.RGBAAt(p.X, p.Y); !near(got, green, 1) {
			t.Errorf("pixel %v = %v, want %v", p, got, green)
		}
	}
	if got := img.RGBAAt(7, 7); got != white {
		t.Errorf("pixel (7,7) = %v, want white", got)
	}
}

func TestAxialShadingFill(t *testing.T) {
	sh := &oplist.ShadingIR{
		Kind: oplist.ShadingAxial,
		P1:   vec.Vec2{X: 20},
		Stops: []surface.Stop{
			{Offset: 0, Color: surface.Color{R: 255}},
			{Offset: 1, Color: surface.Color{B: 255}},
		},
	}
	img := render(t, 20, 4, oplist.Complete(oplist.I(oplist.ShadingFill, sh)), nil)
	left, right := img.RGBAAt(0, 1), img.RGBAAt(19, 1)
	if left.R < 230 || left.B > 25 {
		t.Errorf("left end = %v", left)
	}
	if right.B < 230 || right.R > 25 {
		t.Errorf("right end = %v", right)
	}
	mid := img.RGBAAt(10, 1)
	if !near(mid, color.RGBA{R: 128, B: 128, A: 255}, 15) {
		t.Errorf("middle = %v", mid)
	}
}

// quadImage is a 2×2 image with red, green, blue and white pixels.
func quadImage() *oplist.ImageData {
	return &oplist.ImageData{
		Width: 2, Height: 2, Kind: oplist.RGB24,
		Data: []byte{
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 255, 255, 255,
		},
	}
}

// checkerMask paints the top-left and bottom-right pixel.
func checkerMask(count int) *oplist.ImageMask {
	return &oplist.ImageMask{Width: 2, Height: 2, Data: []byte{0x40, 0x80}, Count: count}
}

func TestInlineImage(t *testing.T) {
	img := render(t, 10, 10, oplist.Complete(
		transformInstr(flipY(10, 10)),
		oplist.I(oplist.PaintInlineImageXObject, quadImage()),
	), nil)
	cases := []struct {
		x, y int
		want color.RGBA
	}{
		{2, 2, red}, {7, 2, green}, {2, 7, blue}, {7, 7, white},
	}
	for _, c := range cases {
		if got := img.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestImageFromRegistry(t *testing.T) {
	objs := registry.New()
	objs.Resolve("img", quadImage())
	e, target, f := newTestExecutor(20, 10, objs, nil)
	e.BeginDrawing(DrawParams{})
	list := oplist.Complete(
		oplist.I(oplist.Save),
		transformInstr(flipY(10, 10)),
		oplist.I(oplist.PaintImageXObject, "img"),
		oplist.I(oplist.Restore),
		oplist.I(oplist.Transform, 1.0, 0.0, 0.0, 1.0, 10.0, 0.0),
		transformInstr(flipY(10, 10)),
		oplist.I(oplist.PaintImageXObject, "missing"),
	)
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	e.EndDrawing()
	if f.Live() != 0 {
		t.Error("scratch surfaces leaked")
	}
	res := target.RGBA()
	if got := res.RGBAAt(7, 2); got != green {
		t.Errorf("image pixel = %v, want %v", got, green)
	}
	if got := res.RGBAAt(15, 5); got != white {
		t.Errorf("missing image painted: %v", got)
	}
}

func TestImageTransfer(t *testing.T) {
	invert := make([]uint8, 256)
	for i := range invert {
		invert[i] = uint8(255 - i)
	}
	tr := &surface.TransferFilter{R: invert, G: invert, B: invert}
	img := render(t, 10, 10, oplist.Complete(
		oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "TR", Value: tr}}),
		transformInstr(flipY(10, 10)),
		oplist.I(oplist.PaintInlineImageXObject, quadImage()),
	), nil)
	if got, want := img.RGBAAt(2, 2), (color.RGBA{G: 255, B: 255, A: 255}); got != want {
		t.Errorf("pixel (2,2) = %v, want %v", got, want)
	}
	if got, want := img.RGBAAt(7, 7), (color.RGBA{A: 255}); got != want {
		t.Errorf("pixel (7,7) = %v, want %v", got, want)
	}
}

func checkChecker(t *testing.T, img *image.RGBA, off int, c color.RGBA) {
	t.Helper()
	cases := []struct {
		x, y int
		want color.RGBA
	}{
		{2, 2, c}, {7, 2, white}, {2, 7, white}, {7, 7, c},
	}
	for _, tc := range cases {
		x := tc.x + off
		if got := img.RGBAAt(x, tc.y); got != tc.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", x, tc.y, got, tc.want)
		}
	}
}

func TestImageMask(t *testing.T) {
	for _, count := range []int{1, 2} {
		mask := checkerMask(count)
		img := render(t, 20, 10, oplist.Complete(
			oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
			oplist.I(oplist.Save),
			transformInstr(flipY(10, 10)),
			oplist.I(oplist.PaintImageMaskXObject, mask),
			oplist.I(oplist.Restore),
			oplist.I(oplist.Transform, 1.0, 0.0, 0.0, 1.0, 10.0, 0.0),
			transformInstr(flipY(10, 10)),
			oplist.I(oplist.PaintImageMaskXObject, mask),
		), nil)
		checkChecker(t, img, 0, red)
		checkChecker(t, img, 10, red)
	}
}

func TestImageMaskGroup(t *testing.T) {
	mask := checkerMask(1)
	img := render(t, 20, 10, oplist.Complete(
		oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
		oplist.I(oplist.PaintImageMaskXObjectGroup, []oplist.MaskPlacement{
			{Mask: mask, Transform: flipY(10, 10)},
			{Mask: mask, Transform: [6]float64{10, 0, 0, -10, 10, 10}},
		}),
	), nil)
	checkChecker(t, img, 0, blue)
	checkChecker(t, img, 10, blue)
}

func type3Font(width float64) (*oplist.Font, *oplist.Glyph) {
	proc := oplist.Complete(
		oplist.I(oplist.Save),
		oplist.I(oplist.Transform, 10.0, 0.0, 0.0, 10.0, 0.0, 0.0),
		oplist.I(oplist.PaintImageMaskXObject, checkerMask(1)),
		oplist.I(oplist.Restore),
	)
	g := &oplist.Glyph{Code: 'A', Unicode: "A", Width: width, IsInFont: true, OperatorListID: "A"}
	font := &oplist.Font{
		Name:       "T3",
		FontMatrix: [6]float64{0.1, 0, 0, 0.1, 0, 0},
		Type3:      true,
		CharProcs:  map[string]*oplist.List{"A": proc},
	}
	return font, g
}

func TestType3Text(t *testing.T) {
	for _, disable := range []bool{false, true} {
		font, g := type3Font(10)
		objs := registry.New()
		objs.Resolve("f1", font)

		e, target, f := newTestExecutor(20, 10, objs, &Options{DisableType3Compile: disable})
		e.BeginDrawing(DrawParams{})
		list := oplist.Complete(
			oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
			oplist.I(oplist.BeginText),
			oplist.I(oplist.SetFont, "f1", 10.0),
			oplist.I(oplist.SetTextMatrix, matrix.Matrix{1, 0, 0, -1, 0, 10}),
			oplist.I(oplist.ShowText, []oplist.TextItem{{Glyph: g}, {Glyph: g}}),
		)
		if _, err := e.Execute(list, 0, nil); err != nil {
			t.Fatal(err)
		}
		if x := e.cur().X; x != 20 {
			t.Errorf("disable=%t: text position %g, want 20", disable, x)
		}
		if _, err := e.Execute(oplist.Complete(oplist.I(oplist.EndText)), 0, nil); err != nil {
			t.Fatal(err)
		}
		e.EndDrawing()
		if f.Live() != 0 {
			t.Error("scratch surfaces leaked")
		}

		img := target.RGBA()
		checkChecker(t, img, 0, red)
		checkChecker(t, img, 10, red)
		if len(e.compiled) > 0 {
			t.Error("glyph cache not cleared")
		}
	}
}

func TestType3MissingGlyph(t *testing.T) {
	font, g := type3Font(10)
	other := &oplist.Glyph{Code: 'B', Width: 10, OperatorListID: "B"}
	objs := registry.New()
	objs.Resolve("f1", font)
	e, _, _ := newTestExecutor(20, 10, objs, nil)
	e.BeginDrawing(DrawParams{})
	defer e.EndDrawing()
	list := oplist.Complete(
		oplist.I(oplist.BeginText),
		oplist.I(oplist.SetFont, "f1", 10.0),
		oplist.I(oplist.ShowSpacedText, []oplist.TextItem{{Glyph: other}, {Glyph: g}, {Adjust: -500}}),
	)
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	// The missing glyph does not advance, the adjustment moves by
	// 500/1000 of the font size.
	if x := e.cur().X; x != 15 {
		t.Errorf("text position %g, want 15", x)
	}
}

func goRegular(t *testing.T) *oplist.Font {
	t.Helper()
	sf, err := sfnt.Read(bytes.NewReader(goregular.TTF))
	if err != nil {
		t.Fatal(err)
	}
	return &oplist.Font{Name: "GoRegular", Outlines: sf}
}

func darkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c := img.RGBAAt(x, y); c.R < 128 {
				n++
			}
		}
	}
	return n
}

func TestOutlineText(t *testing.T) {
	objs := registry.New()
	objs.Resolve("f1", goRegular(t))
	g := &oplist.Glyph{Code: 'I', Unicode: "I", Width: 500, IsInFont: true}

	e, target, _ := newTestExecutor(50, 40, objs, nil)
	e.BeginDrawing(DrawParams{})
	list := oplist.Complete(
		oplist.I(oplist.BeginText),
		oplist.I(oplist.SetFont, "f1", 20.0),
		oplist.I(oplist.SetTextMatrix, matrix.Matrix{1, 0, 0, -1, 10, 30}),
		oplist.I(oplist.ShowText, []oplist.TextItem{{Glyph: g}}),
	)
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	if x := e.cur().X; x != 10 {
		t.Errorf("text position %g, want 10", x)
	}
	e.EndDrawing()

	img := target.RGBA()
	if n := darkPixels(img, image.Rect(10, 14, 20, 31)); n < 10 {
		t.Errorf("glyph covers %d pixels", n)
	}
	if n := darkPixels(img, image.Rect(0, 32, 50, 40)); n != 0 {
		t.Errorf("%d pixels below the baseline", n)
	}
	if n := darkPixels(img, image.Rect(25, 0, 50, 40)); n != 0 {
		t.Errorf("%d pixels right of the glyph", n)
	}
}

func TestTextClip(t *testing.T) {
	objs := registry.New()
	objs.Resolve("f1", goRegular(t))
	g := &oplist.Glyph{Code: 'I', Unicode: "I", Width: 500, IsInFont: true}

	img := func() *image.RGBA {
		e, target, _ := newTestExecutor(50, 40, objs, nil)
		e.BeginDrawing(DrawParams{})
		list := oplist.Complete(instrs(
			oplist.I(oplist.BeginText),
			oplist.I(oplist.SetFont, "f1", 20.0),
			oplist.I(oplist.SetTextRenderingMode, 7),
			oplist.I(oplist.SetTextMatrix, matrix.Matrix{1, 0, 0, -1, 10, 30}),
			oplist.I(oplist.ShowText, []oplist.TextItem{{Glyph: g}}),
			oplist.I(oplist.EndText),
			oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
			rectFill(0, 0, 50, 40),
		)...)
		if _, err := e.Execute(list, 0, nil); err != nil {
			t.Fatal(err)
		}
		e.EndDrawing()
		return target.RGBA()
	}()

	if got := img.RGBAAt(40, 5); got != white {
		t.Errorf("pixel outside the clip = %v", got)
	}
	painted := 0
	for y := 14; y < 31; y++ {
		for x := 10; x < 20; x++ {
			if c := img.RGBAAt(x, y); c.G < 128 {
				painted++
			}
		}
	}
	if painted < 10 {
		t.Errorf("clip region covers %d pixels", painted)
	}
}

func TestRenderingModeInvisible(t *testing.T) {
	objs := registry.New()
	objs.Resolve("f1", goRegular(t))
	g := &oplist.Glyph{Code: 'I', Unicode: "I", Width: 500, IsInFont: true}
	e, target, _ := newTestExecutor(50, 40, objs, nil)
	e.BeginDrawing(DrawParams{})
	list := oplist.Complete(
		oplist.I(oplist.BeginText),
		oplist.I(oplist.SetFont, "f1", 20.0),
		oplist.I(oplist.SetTextRenderingMode, 3),
		oplist.I(oplist.SetTextMatrix, matrix.Matrix{1, 0, 0, -1, 10, 30}),
		oplist.I(oplist.ShowText, []oplist.TextItem{{Glyph: g}, {Glyph: g}}),
		oplist.I(oplist.EndText),
	)
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	if x := e.cur().X; x != 20 {
		t.Errorf("text position %g, want 20", x)
	}
	e.EndDrawing()
	if n := darkPixels(target.RGBA(), image.Rect(0, 0, 50, 40)); n != 0 {
		t.Errorf("invisible text painted %d pixels", n)
	}
}

func TestSetFontErrors(t *testing.T) {
	objs := registry.New()
	objs.Resolve("img", quadImage())
	e, _, _ := newTestExecutor(5, 5, objs, nil)
	e.BeginDrawing(DrawParams{})
	defer e.EndDrawing()
	for _, id := range []string{"img", "nothing"} {
		list := oplist.Complete(oplist.I(oplist.SetFont, id, 12.0))
		if _, err := e.Execute(list, 0, nil); err == nil {
			t.Errorf("font %q: no error", id)
		}
	}
}

func TestSeparateAnnotations(t *testing.T) {
	list := oplist.Complete(instrs(
		oplist.I(oplist.BeginAnnotations),
		oplist.I(oplist.BeginAnnotation, "a1", rect.Rect{URx: 10, URy: 10},
			matrix.Identity, matrix.Identity, true),
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		rectFill(0, 0, 10, 10),
		oplist.I(oplist.EndAnnotation),
		oplist.I(oplist.EndAnnotations),
	)...)
	list.SeparateAnnots = &oplist.SeparateAnnots{Canvas: true}

	q := &Queue{}
	target := raster.New(10, 10)
	f := raster.NewFactory()
	task := NewTask(target, f, list, nil, nil, DrawParams{}, &Options{Scheduler: q})
	task.Start()
	q.RunPending()
	if task.State() != StateDone {
		t.Fatalf("state %v, err %v", task.State(), task.Err())
	}

	canvases := task.AnnotationCanvases()
	c, ok := canvases["a1"]
	if !ok {
		t.Fatal("annotation canvas missing")
	}
	if got := c.RGBAAt(c.Bounds().Min.X+5, c.Bounds().Min.Y+5); got != red {
		t.Errorf("annotation pixel = %v, want %v", got, red)
	}
	if got := target.RGBA().RGBAAt(5, 5); got != white {
		t.Errorf("annotation drawn onto the page: %v", got)
	}
	if f.Live() != 0 {
		t.Error("scratch surfaces leaked")
	}
}
