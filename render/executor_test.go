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
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/raster"
	"seehuhn.de/go/pdfpaint/registry"
	"seehuhn.de/go/pdfpaint/surface"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// flipY maps a unit square with the y axis pointing up onto the device
// rectangle [0, w]×[0, h].
func flipY(w, h float64) matrix.Matrix {
	return matrix.Matrix{w, 0, 0, -h, 0, h}
}

func newTestExecutor(w, h int, objs *registry.Registry, opt *Options) (*Executor, *raster.Surface, *raster.Factory) {
	target := raster.New(w, h)
	f := raster.NewFactory()
	return NewExecutor(target, f, objs, nil, opt), target, f
}

// render draws list onto a new w×h surface with a white background.
func render(t *testing.T, w, h int, list *oplist.List, opt *Options) *image.RGBA {
	t.Helper()
	e, target, f := newTestExecutor(w, h, nil, opt)
	e.BeginDrawing(DrawParams{})
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	e.EndDrawing()
	if n := f.Live(); n != 0 {
		t.Errorf("%d scratch surfaces leaked", n)
	}
	return target.RGBA()
}

func near(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) bool {
		diff := int(x) - int(y)
		return diff >= -tol && diff <= tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func transformInstr(m matrix.Matrix) oplist.Instr {
	return oplist.I(oplist.Transform, m[0], m[1], m[2], m[3], m[4], m[5])
}

func rectFill(x, y, w, h float64) []oplist.Instr {
	return []oplist.Instr{
		oplist.I(oplist.Rectangle, x, y, w, h),
		oplist.I(oplist.Fill),
	}
}

func instrs(parts ...any) []oplist.Instr {
	var res []oplist.Instr
	for _, p := range parts {
		switch p := p.(type) {
		case oplist.Instr:
			res = append(res, p)
		case []oplist.Instr:
			res = append(res, p...)
		}
	}
	return res
}

func TestRedGreen(t *testing.T) {
	list := oplist.Complete(instrs(
		oplist.I(oplist.Save),
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		rectFill(0, 0, 10, 10),
		oplist.I(oplist.Restore),
		oplist.I(oplist.SetFillRGBColor, 0, 255, 0),
		rectFill(0, 0, 10, 10),
	)...)

	e, target, _ := newTestExecutor(10, 10, nil, nil)
	e.BeginDrawing(DrawParams{})
	before := e.cur().FillColor

	// stop right after the restore
	next, err := e.Execute(&oplist.List{Opcodes: list.Opcodes[:5], Args: list.Args[:5]}, 0, nil)
	if err != nil || next != 5 {
		t.Fatalf("Execute = %d, %v", next, err)
	}
	if after := e.cur().FillColor; after != before {
		t.Errorf("fill color after restore = %v, want %v", after, before)
	}

	if _, err := e.Execute(list, 5, nil); err != nil {
		t.Fatal(err)
	}
	e.EndDrawing()

	img := target.RGBA()
	for y := range 10 {
		for x := range 10 {
			if got := img.RGBAAt(x, y); got != green {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, green)
			}
		}
	}
}

func TestSaveRestoreState(t *testing.T) {
	e, _, _ := newTestExecutor(20, 20, nil, nil)
	e.BeginDrawing(DrawParams{})
	before := e.cur().Clone()

	list := oplist.Complete(
		oplist.I(oplist.Save),
		oplist.I(oplist.SetLineWidth, 7.0),
		oplist.I(oplist.SetLineCap, 1),
		oplist.I(oplist.SetDash, []float64{1, 2}, 0.5),
		oplist.I(oplist.SetFillRGBColor, 1, 2, 3),
		oplist.I(oplist.SetCharSpacing, 2.0),
		oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "CA", Value: 0.3}, {Key: "BM", Value: "Multiply"}}),
		oplist.I(oplist.Transform, 2.0, 0.0, 0.0, 2.0, 1.0, 1.0),
		oplist.I(oplist.Restore),
	)
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	after := e.cur()
	if d := cmp.Diff(before, after); d != "" {
		t.Errorf("state changed (-before +after):\n%s", d)
	}
	if ctm := e.ctm(); ctm != matrix.Identity {
		t.Errorf("CTM after restore = %v", ctm)
	}
	e.EndDrawing()
}

func TestClipMonotone(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	e, _, _ := newTestExecutor(100, 100, nil, nil)
	e.BeginDrawing(DrawParams{})
	defer e.EndDrawing()

	prev := e.cur().ClipBox
	for i := range 200 {
		x, y := rng.Float64()*120-10, rng.Float64()*120-10
		w, h := rng.Float64()*60, rng.Float64()*60
		clipOp := oplist.Clip
		if i%2 == 1 {
			clipOp = oplist.EOClip
		}
		var list *oplist.List
		if i%3 == 0 {
			m := [6]float64{1 + rng.Float64(), rng.Float64() - 0.5, rng.Float64() - 0.5, 1 + rng.Float64(), 0, 0}
			list = oplist.Complete(
				oplist.I(oplist.Transform, m[0], m[1], m[2], m[3], m[4], m[5]),
				oplist.I(oplist.Rectangle, x, y, w, h),
				oplist.I(clipOp),
				oplist.I(oplist.EndPath),
			)
		} else {
			list = oplist.Complete(
				oplist.I(oplist.Rectangle, x, y, w, h),
				oplist.I(clipOp),
				oplist.I(oplist.EndPath),
			)
		}
		if _, err := e.Execute(list, 0, nil); err != nil {
			t.Fatal(err)
		}
		cur := e.cur()
		if cur.EmptyClip {
			break
		}
		box := cur.ClipBox
		if box.LLx < prev.LLx || box.LLy < prev.LLy || box.URx > prev.URx || box.URy > prev.URy {
			t.Fatalf("step %d: clip box %v is not inside %v", i, box, prev)
		}
		prev = box
	}
}

// slicedTestList exercises paths, clipping, patterns, groups and
// transparency.
func slicedTestList() *oplist.List {
	axial := &oplist.ShadingIR{
		Kind: oplist.ShadingAxial,
		P0:   vec.Vec2{X: 20, Y: 0},
		P1:   vec.Vec2{X: 40, Y: 0},
		Stops: []surface.Stop{
			{Offset: 0, Color: surface.Color{R: 255}},
			{Offset: 1, Color: surface.Color{B: 255}},
		},
	}
	bbox := rect.Rect{URx: 40, URy: 40}
	group := &oplist.GroupIR{BBox: &bbox, Isolated: true}
	return oplist.Complete(instrs(
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		rectFill(0, 0, 20, 20),
		oplist.I(oplist.Save),
		oplist.I(oplist.Transform, 1.0, 0.0, 0.0, 1.0, 5.0, 5.0),
		oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
		rectFill(0, 0, 10, 10),
		oplist.I(oplist.Restore),
		oplist.I(oplist.SetStrokeRGBColor, 0, 128, 0),
		oplist.I(oplist.SetLineWidth, 2.0),
		oplist.I(oplist.ConstructPath,
			[]oplist.OpCode{oplist.MoveTo, oplist.LineTo, oplist.CurveTo},
			[]float64{0, 30, 40, 30, 40, 35, 20, 39, 0, 35}),
		oplist.I(oplist.Stroke),
		oplist.I(oplist.Save),
		oplist.I(oplist.Rectangle, 20.0, 0.0, 20.0, 20.0),
		oplist.I(oplist.Clip),
		oplist.I(oplist.EndPath),
		oplist.I(oplist.SetFillColorN, axial),
		rectFill(0, 0, 40, 40),
		oplist.I(oplist.Restore),
		oplist.I(oplist.SetGState, []oplist.GStateEntry{{Key: "ca", Value: 0.5}}),
		oplist.I(oplist.BeginGroup, group),
		oplist.I(oplist.SetFillRGBColor, 0, 0, 0),
		rectFill(10, 10, 20, 20),
		oplist.I(oplist.SetFillRGBColor, 255, 255, 0),
		rectFill(15, 15, 20, 20),
		oplist.I(oplist.EndGroup, group),
		oplist.I(oplist.SetFillGray, 128),
		rectFill(30, 0, 10, 10),
	)...)
}

func TestSlicedEqualsUnsliced(t *testing.T) {
	list := slicedTestList()
	want := render(t, 40, 40, list, nil)

	var now time.Time
	q := &Queue{}
	opt := &Options{
		StepsPerCheck: 3,
		TimeBudget:    time.Nanosecond,
		Clock: func() time.Time {
			now = now.Add(time.Millisecond)
			return now
		},
		Scheduler: q,
	}
	target := raster.New(40, 40)
	f := raster.NewFactory()
	task := NewTask(target, f, list, nil, nil, DrawParams{}, opt)
	task.Start()

	slices := 0
	for q.Len() > 0 {
		q.RunPending()
		slices++
	}
	if task.State() != StateDone {
		t.Fatalf("task state = %v, err = %v", task.State(), task.Err())
	}
	if slices == 0 {
		t.Error("task did not run")
	}
	select {
	case <-task.Done():
	default:
		t.Error("Done channel is not closed")
	}

	got := target.RGBA()
	if !cmp.Equal(got.Pix, want.Pix) {
		for y := range 40 {
			for x := range 40 {
				if a, b := got.RGBAAt(x, y), want.RGBAAt(x, y); a != b {
					t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, a, b)
				}
			}
		}
	}
	if n := f.Live(); n != 0 {
		t.Errorf("%d scratch surfaces leaked", n)
	}
}

func TestTimeSlicing(t *testing.T) {
	list := slicedTestList()

	var now time.Time
	conts := 0
	e, _, _ := newTestExecutor(40, 40, nil, &Options{
		StepsPerCheck: 3,
		TimeBudget:    time.Nanosecond,
		Clock: func() time.Time {
			now = now.Add(time.Millisecond)
			return now
		},
	})
	e.BeginDrawing(DrawParams{})
	next, err := e.Execute(list, 0, func() { conts++ })
	if err != nil {
		t.Fatal(err)
	}
	if next != 3 || conts != 1 {
		t.Errorf("Execute = %d with %d continuations, want 3 with 1", next, conts)
	}

	// Without a continuation, the whole list runs.
	next, err = e.Execute(list, next, nil)
	if err != nil || next != list.Len() {
		t.Errorf("Execute = %d, %v", next, err)
	}
	e.EndDrawing()
}

type breakStepper struct {
	points []int
	hits   []int
}

func (s *breakStepper) NextBreakPoint() int {
	if len(s.points) == 0 {
		return -1
	}
	return s.points[0]
}

func (s *breakStepper) BreakIt(i int, cont func()) {
	s.hits = append(s.hits, i)
	s.points = s.points[1:]
}

func TestStepper(t *testing.T) {
	list := slicedTestList()
	st := &breakStepper{points: []int{4, 9}}
	e, _, _ := newTestExecutor(40, 40, nil, &Options{Stepper: st})
	e.BeginDrawing(DrawParams{})
	defer e.EndDrawing()

	pos := 0
	for pos < list.Len() {
		next, err := e.Execute(list, pos, func() {})
		if err != nil {
			t.Fatal(err)
		}
		pos = next
	}
	if d := cmp.Diff([]int{4, 9}, st.hits); d != "" {
		t.Errorf("break points (-want +got):\n%s", d)
	}
}

func TestCancelReleasesSurfaces(t *testing.T) {
	list := slicedTestList()
	for k := 0; k < list.Len(); k += 3 {
		q := &Queue{}
		st := &breakStepper{points: []int{k}}
		target := raster.New(40, 40)
		f := raster.NewFactory()
		task := NewTask(target, f, list, nil, nil, DrawParams{Transparency: true},
			&Options{Scheduler: q, Stepper: st})
		task.Start()
		q.RunPending()

		task.Cancel()
		task.Cancel()
		if n := f.Live(); n != 0 {
			t.Errorf("cancel at %d: %d surfaces leaked", k, n)
		}
		if !errors.Is(task.Err(), ErrCancelled) {
			t.Errorf("cancel at %d: Err() = %v", k, task.Err())
		}
		if task.State() != StateCancelled {
			t.Errorf("cancel at %d: state %v", k, task.State())
		}
		select {
		case <-task.Done():
		default:
			t.Errorf("cancel at %d: Done channel is not closed", k)
		}

		// Continuations after the cancellation do nothing.
		task.OperatorListChanged()
		task.resume()
		if n := q.RunPending(); n != 0 {
			t.Errorf("cancel at %d: %d continuations ran", k, n)
		}
	}
}

func TestDependency(t *testing.T) {
	img := &oplist.ImageData{
		Width: 1, Height: 1, Kind: oplist.RGB24,
		Data: []byte{0, 0, 255},
	}
	list := oplist.Complete(
		oplist.I(oplist.Dependency, "img1"),
		transformInstr(flipY(10, 10)),
		oplist.I(oplist.PaintImageXObject, "img1"),
	)

	objs := registry.New()
	q := &Queue{}
	target := raster.New(10, 10)
	task := NewTask(target, raster.NewFactory(), list, objs, nil, DrawParams{}, &Options{Scheduler: q})
	task.Start()
	q.RunPending()

	if s := task.State(); s != StateSuspendedDependency {
		t.Fatalf("state = %v", s)
	}
	if id := task.WaitingFor(); id != "img1" {
		t.Errorf("waiting for %q", id)
	}
	if task.Next() != 0 {
		t.Errorf("next = %d", task.Next())
	}

	objs.Resolve("img1", img)
	q.RunPending()
	if s := task.State(); s != StateDone {
		t.Fatalf("state = %v, err = %v", s, task.Err())
	}
	if got := target.RGBA().RGBAAt(5, 5); got != blue {
		t.Errorf("pixel = %v, want %v", got, blue)
	}
}

func TestCancelWhileWaitingInsideGroup(t *testing.T) {
	img := &oplist.ImageData{
		Width: 1, Height: 1, Kind: oplist.RGB24,
		Data: []byte{0, 0, 255},
	}
	group := &oplist.GroupIR{BBox: &rect.Rect{URx: 10, URy: 10}, Isolated: true}
	list := oplist.Complete(
		oplist.I(oplist.BeginGroup, group),
		oplist.I(oplist.Dependency, "img1"),
		transformInstr(flipY(10, 10)),
		oplist.I(oplist.PaintImageXObject, "img1"),
		oplist.I(oplist.EndGroup, group),
	)

	objs := registry.New()
	q := &Queue{}
	target := raster.New(10, 10)
	f := raster.NewFactory()
	task := NewTask(target, f, list, objs, nil, DrawParams{Transparency: true}, &Options{Scheduler: q})
	task.Start()
	q.RunPending()

	if s := task.State(); s != StateSuspendedDependency {
		t.Fatalf("state = %v, err = %v", s, task.Err())
	}
	if task.Next() != 1 {
		t.Errorf("next = %d, want 1", task.Next())
	}
	if f.Live() == 0 {
		t.Fatal("no group surface while waiting")
	}

	task.Cancel()
	if n := f.Live(); n != 0 {
		t.Errorf("%d surfaces leaked", n)
	}
	if task.Next() != 1 {
		t.Errorf("next after cancel = %d, want 1", task.Next())
	}
	if !errors.Is(task.Err(), ErrCancelled) {
		t.Errorf("Err() = %v", task.Err())
	}

	// Resolving the object later must not resume the task.
	objs.Resolve("img1", img)
	q.RunPending()
	if s := task.State(); s != StateCancelled {
		t.Errorf("state = %v", s)
	}
	if task.Next() != 1 {
		t.Errorf("next after resolve = %d, want 1", task.Next())
	}
	if got := target.RGBA().RGBAAt(5, 5); got == blue {
		t.Error("image painted after cancel")
	}
}

func TestMissingDependencyWithoutContinuation(t *testing.T) {
	e, _, _ := newTestExecutor(10, 10, nil, nil)
	e.BeginDrawing(DrawParams{})
	defer e.EndDrawing()
	list := oplist.Complete(oplist.I(oplist.Dependency, "g_font"))
	if _, err := e.Execute(list, 0, nil); err == nil {
		t.Error("missing object not reported")
	}
}

func TestChunks(t *testing.T) {
	q := &Queue{}
	list := &oplist.List{}
	list.AppendChunk(&oplist.List{
		Opcodes: []oplist.OpCode{oplist.SetFillRGBColor},
		Args:    [][]any{{0.0, 255.0, 0.0}},
	})
	target := raster.New(10, 10)
	task := NewTask(target, raster.NewFactory(), list, nil, nil, DrawParams{}, &Options{Scheduler: q})
	task.Start()
	q.RunPending()
	if s := task.State(); s != StateSuspendedDependency {
		t.Fatalf("state after first chunk = %v", s)
	}

	list.AppendChunk(oplist.Complete(rectFill(0, 0, 10, 10)...))
	task.OperatorListChanged()
	q.RunPending()
	if s := task.State(); s != StateDone {
		t.Fatalf("state after last chunk = %v, err = %v", s, task.Err())
	}
	if got := target.RGBA().RGBAAt(3, 3); got != green {
		t.Errorf("pixel = %v, want %v", got, green)
	}
}

func TestFormatError(t *testing.T) {
	list := oplist.Complete(
		oplist.I(oplist.Save),
		oplist.I(oplist.SetLineCap, 1),
		oplist.I(oplist.SetLineWidth, "wide"),
		oplist.I(oplist.Restore),
	)
	q := &Queue{}
	f := raster.NewFactory()
	task := NewTask(raster.New(5, 5), f, list, nil, nil, DrawParams{}, &Options{Scheduler: q})
	task.Start()
	q.RunPending()

	if s := task.State(); s != StateFailed {
		t.Fatalf("state = %v", s)
	}
	var fe *oplist.FormatError
	if !errors.As(task.Err(), &fe) {
		t.Fatalf("error %v is not a FormatError", task.Err())
	}
	if fe.Op != oplist.SetLineWidth || fe.Index != 2 {
		t.Errorf("error at %s/%d, want setLineWidth/2", fe.Op, fe.Index)
	}
	if n := f.Live(); n != 0 {
		t.Errorf("%d surfaces leaked", n)
	}
}

func TestUnbalancedRestore(t *testing.T) {
	list := oplist.Complete(instrs(
		oplist.I(oplist.Restore),
		oplist.I(oplist.Restore),
		oplist.I(oplist.SetFillRGBColor, 0, 0, 255),
		rectFill(0, 0, 4, 4),
		oplist.I(oplist.Save),
		oplist.I(oplist.Save),
	)...)
	img := render(t, 4, 4, list, nil)
	if got := img.RGBAAt(1, 1); got != blue {
		t.Errorf("pixel = %v, want %v", got, blue)
	}
}

func TestOptionalContent(t *testing.T) {
	list := oplist.Complete(instrs(
		oplist.I(oplist.SetFillRGBColor, 255, 0, 0),
		oplist.I(oplist.BeginMarkedContentProps, "OC", &oplist.MarkedContentProps{Type: "OCG", ID: "hidden"}),
		rectFill(0, 0, 5, 10),
		oplist.I(oplist.EndMarkedContent),
		oplist.I(oplist.BeginMarkedContentProps, "OC", &oplist.MarkedContentProps{Type: "OCG", ID: "shown"}),
		rectFill(5, 0, 5, 10),
		oplist.I(oplist.EndMarkedContent),
	)...)
	opt := &Options{OptionalContent: func(id string) bool { return id != "hidden" }}
	img := render(t, 10, 10, list, opt)
	if got := img.RGBAAt(2, 5); got != white {
		t.Errorf("hidden content painted: %v", got)
	}
	if got := img.RGBAAt(7, 5); got != red {
		t.Errorf("visible content = %v, want %v", got, red)
	}
}

func TestViewportAndBackground(t *testing.T) {
	e, target, _ := newTestExecutor(20, 20, nil, nil)
	bg := surface.Color{R: 10, G: 20, B: 30}
	scale := affine.Scale(2, 2)
	e.BeginDrawing(DrawParams{
		Transform:  &scale,
		Viewport:   matrix.Matrix{1, 0, 0, -1, 0, 10},
		Background: &bg,
	})
	list := oplist.Complete(instrs(
		oplist.I(oplist.SetFillRGBColor, 0, 0, 0),
		rectFill(0, 0, 5, 5),
	)...)
	if _, err := e.Execute(list, 0, nil); err != nil {
		t.Fatal(err)
	}
	e.EndDrawing()

	img := target.RGBA()
	// user space (0,0)-(5,5) is device (0,10)-(10,20)
	if got := img.RGBAAt(5, 15); got != (color.RGBA{A: 255}) {
		t.Errorf("inside = %v", got)
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("background = %v", got)
	}
}

func TestStrokeHairline(t *testing.T) {
	list := oplist.Complete(
		oplist.I(oplist.Transform, 0.01, 0.0, 0.0, 0.01, 0.0, 0.0),
		oplist.I(oplist.SetLineWidth, 0.0),
		oplist.I(oplist.MoveTo, 0.0, 550.0),
		oplist.I(oplist.LineTo, 1000.0, 550.0),
		oplist.I(oplist.Stroke),
	)
	img := render(t, 10, 10, list, nil)
	dark := 0
	for x := range 10 {
		if c := img.RGBAAt(x, 5); c.R < 128 {
			dark++
		}
	}
	if dark < 8 {
		t.Errorf("hairline covers %d pixels", dark)
	}
}
