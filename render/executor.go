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

// Package render interprets display lists on a [surface.Surface].
//
// An [Executor] runs the instructions of an [oplist.List] one by one.
// Execution can stop before an instruction whose objects are not yet
// available, or when the time budget is used up, and can later be resumed
// at the same position.  A [Task] drives an executor through the whole
// list, using a [Scheduler] to run continuations.
package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/glyph"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/registry"
	"seehuhn.de/go/pdfpaint/shading"
	"seehuhn.de/go/pdfpaint/surface"
)

// Executor interprets display lists.
//
// An Executor is not safe for concurrent use.
type Executor struct {
	s       surface.Surface // the surface drawing operations go to
	target  surface.Surface
	factory surface.Factory

	objs, commonObjs *registry.Registry

	opt *Options
	log *slog.Logger

	stack *gstate.Stack
	pool  *scratchPool

	baseTransform      matrix.Matrix
	baseTransformStack []matrix.Matrix

	groupLevel   int
	groupStack   []*groupFrame
	smaskCounter int

	// tempSMask is the soft mask produced by the most recent soft mask
	// group.  It becomes active with the next setGState SMask entry.
	tempSMask *softMask

	// While a soft mask is active, suspended is the real surface and
	// layer collects the content which is masked.
	suspended surface.Surface
	layer     surface.Surface

	pendingClip      clipMode
	pendingEOFill    bool
	pendingTextPaths []textPath

	type3Glyph *oplist.Glyph
	compiled   map[*oplist.Glyph]*glyph.Outline

	markedContent  []bool
	contentVisible bool

	// ignoreColor is set while drawing an uncolored tiling pattern.
	ignoreColor bool

	meshCache map[meshKey]*shading.Raster
	maskCache map[maskKey]*cachedMask

	annot          *annotFrame
	annotCanvases  map[string]*image.RGBA
	separateAnnots bool

	// When drawing with a transparent backdrop, content goes to the
	// transparent scratch surface, which is composited onto composite at
	// the end.
	composite   surface.Surface
	transparent surface.Surface

	waitingFor string
	drawing    bool
}

// NewExecutor returns an executor which draws onto target.  Off-screen
// surfaces are allocated from factory.  Object ids starting with "g_" are
// looked up in commonObjs, all others in objs; nil registries are
// replaced by empty ones.
func NewExecutor(target surface.Surface, factory surface.Factory, objs, commonObjs *registry.Registry, opt *Options) *Executor {
	if objs == nil {
		objs = registry.New()
	}
	if commonObjs == nil {
		commonObjs = registry.New()
	}
	opt = opt.withDefaults()
	w, h := target.Size()
	return &Executor{
		s:              target,
		target:         target,
		factory:        factory,
		objs:           objs,
		commonObjs:     commonObjs,
		opt:            opt,
		log:            opt.Logger,
		stack:          gstate.NewStack(gstate.NewState(w, h)),
		pool:           newScratchPool(factory),
		baseTransform:  matrix.Identity,
		compiled:       make(map[*oplist.Glyph]*glyph.Outline),
		contentVisible: true,
		meshCache:      make(map[meshKey]*shading.Raster),
		maskCache:      make(map[maskKey]*cachedMask),
		annotCanvases:  make(map[string]*image.RGBA),
	}
}

// child returns an executor for the display list of a tiling pattern,
// drawing onto s.  The child shares the objects and options of e, but has
// its own graphics state, caches and scratch surfaces.
func (e *Executor) child(s surface.Surface) *Executor {
	w, h := s.Size()
	c := &Executor{
		s:              s,
		target:         s,
		factory:        e.factory,
		objs:           e.objs,
		commonObjs:     e.commonObjs,
		opt:            e.opt,
		log:            e.log,
		stack:          gstate.NewStack(gstate.NewState(w, h)),
		pool:           newScratchPool(e.factory),
		baseTransform:  s.CurrentTransform(),
		groupLevel:     e.groupLevel,
		compiled:       make(map[*oplist.Glyph]*glyph.Outline),
		contentVisible: true,
		meshCache:      make(map[meshKey]*shading.Raster),
		maskCache:      make(map[maskKey]*cachedMask),
		annotCanvases:  make(map[string]*image.RGBA),
		drawing:        true,
	}
	c.stack.SetFloor()
	return c
}

// DrawParams describe how a page is placed on the target surface.
type DrawParams struct {
	// Transform, if non-nil, is applied before the viewport
	// transformation.  This is used for output scaling.
	Transform *matrix.Matrix

	// Viewport maps PDF user space to target pixels.  The zero matrix
	// is treated as the identity.
	Viewport matrix.Matrix

	// Transparency selects a transparent backdrop for the page content.
	// The content is composited onto the background at the end.
	Transparency bool

	// Background is the color the target is filled with before drawing.
	// The default is white.
	Background *surface.Color

	// SeparateAnnotations makes annotations with their own canvas render
	// to separate images, see [Executor.AnnotationCanvases].
	SeparateAnnotations bool
}

// BeginDrawing prepares the target surface for a new page.
func (e *Executor) BeginDrawing(p DrawParams) {
	w, h := e.target.Size()

	bg := surface.Color{R: 255, G: 255, B: 255}
	if p.Background != nil {
		bg = *p.Background
	}
	t := e.target
	t.Save()
	t.SetTransform(matrix.Identity)
	t.SetAlpha(1)
	t.SetCompositeOp(surface.SourceOver)
	t.SetFillPaint(bg)
	t.FillRect(0, 0, float64(w), float64(h))
	t.Restore()

	e.s = e.target
	if p.Transparency {
		tr := e.pool.get("transparent", w, h)
		tr.SetTransform(e.target.CurrentTransform())
		e.composite = e.target
		e.transparent = tr
		e.s = tr
	}

	e.s.Save()
	e.s.SetStyle(surface.DefaultStyle())
	if p.Transform != nil {
		e.s.Transform(*p.Transform)
	}
	if p.Viewport != (matrix.Matrix{}) {
		e.s.Transform(p.Viewport)
	}
	e.baseTransform = e.s.CurrentTransform()
	e.separateAnnots = p.SeparateAnnotations

	e.stack.Reset(gstate.NewState(w, h))
	e.stack.SetFloor()
	e.contentVisible = true
	e.drawing = true
}

// EndDrawing finishes the current page: unbalanced states are restored,
// a transparent backdrop is composited onto the target and all scratch
// surfaces are released.  Calling EndDrawing more than once has no
// effect.
func (e *Executor) EndDrawing() {
	if !e.drawing {
		return
	}
	e.drawing = false

	e.unwind()
	e.s.Restore()

	if e.transparent != nil {
		w, h := e.composite.Size()
		c := e.composite
		c.Save()
		c.SetTransform(matrix.Identity)
		c.SetAlpha(1)
		c.SetCompositeOp(surface.SourceOver)
		c.SetSmoothing(false)
		c.DrawImage(e.transparent.Image(), image.Rect(0, 0, w, h),
			rect.Rect{URx: float64(w), URy: float64(h)})
		c.Restore()
		e.s = e.composite
		e.composite = nil
		e.transparent = nil
	}

	e.pool.clear()
	clear(e.compiled)
	clear(e.meshCache)
	clear(e.maskCache)
	e.tempSMask = nil
	e.pendingTextPaths = nil
	e.markedContent = nil
	e.contentVisible = true
}

// unwind pops all frames and states pushed since BeginDrawing.
func (e *Executor) unwind() {
	for {
		if a := e.annot; a != nil && e.stack.Depth() <= a.depth {
			e.endSMaskMode()
			e.s = a.parent
			e.annot = nil
			continue
		}
		if n := len(e.groupStack); n > 0 && e.groupStack[n-1].skipped && e.stack.Depth() <= e.groupStack[n-1].depth {
			e.groupStack = e.groupStack[:n-1]
			continue
		}
		if n := len(e.groupStack); n > 0 && !e.groupStack[n-1].skipped && e.stack.Depth() <= e.groupStack[n-1].depth {
			e.endSMaskMode()
			e.popGroup()
			continue
		}
		if e.stack.AtFloor() && e.suspended == nil {
			break
		}
		if err := e.restore(); err != nil {
			e.log.Warn("cannot restore graphics state", "error", err)
			break
		}
	}
	e.cur().ActiveSMask = nil
	e.baseTransformStack = e.baseTransformStack[:0]
}

// AnnotationCanvases returns the images of annotations which were drawn
// separately from the page, keyed by annotation id.
func (e *Executor) AnnotationCanvases() map[string]*image.RGBA {
	return e.annotCanvases
}

// Execute runs the instructions of list, starting at index start, and
// returns the index of the first instruction which was not run.
//
// If cont is nil, the list is run to the end and all referenced objects
// must be available.  Otherwise, execution stops when an object is
// missing, when the time budget is exceeded or at a breakpoint of the
// stepper.  In all these cases cont is arranged to be called once
// execution can continue.
func (e *Executor) Execute(list *oplist.List, start int, cont func()) (int, error) {
	return e.execute(list, start, cont, e.opt.Stepper)
}

func (e *Executor) execute(list *oplist.List, start int, cont func(), stepper Stepper) (int, error) {
	n := list.Len()
	i := start
	if i >= n {
		return i, nil
	}
	e.waitingFor = ""

	chunked := cont != nil && n-i > e.opt.StepsPerCheck
	var endTime time.Time
	if chunked {
		endTime = e.opt.Clock().Add(e.opt.TimeBudget)
	}
	breakAt := -1
	if stepper != nil {
		breakAt = stepper.NextBreakPoint()
	}

	steps := 0
	for {
		if stepper != nil && i == breakAt {
			stepper.BreakIt(i, cont)
			return i, nil
		}

		op := list.Opcodes[i]
		var args []any
		if i < len(list.Args) {
			args = list.Args[i]
		}
		if op == oplist.Dependency {
			ready, err := e.dependenciesReady(args, cont)
			if err != nil {
				return i, withIndex(err, i)
			}
			if !ready {
				return i, nil
			}
		} else if err := e.dispatch(op, args); err != nil {
			return i, withIndex(err, i)
		}

		i++
		if i == n {
			return i, nil
		}
		if chunked {
			steps++
			if steps >= e.opt.StepsPerCheck {
				if !e.opt.Clock().Before(endTime) {
					cont()
					return i, nil
				}
				steps = 0
			}
		}
	}
}

func (e *Executor) dispatch(op oplist.OpCode, vals []any) error {
	if !op.IsValid() {
		return oplist.Errorf(op, "unknown opcode")
	}
	h := handlers[op]
	if h == nil {
		e.log.Warn("unimplemented instruction", "op", op.String())
		return nil
	}
	return h(e, oplist.NewArgs(op, vals))
}

// dependenciesReady checks whether all objects listed in a dependency
// instruction are available.  If an object is missing and cont is
// non-nil, cont is registered to run once the object is resolved.
func (e *Executor) dependenciesReady(vals []any, cont func()) (bool, error) {
	for k, v := range vals {
		id, ok := v.(string)
		if !ok {
			return false, oplist.Errorf(oplist.Dependency, "argument %d: expected object id, got %T", k, v)
		}
		reg := e.registryFor(id)
		if cont == nil {
			if !reg.Has(id) {
				return false, fmt.Errorf("object %q is not available", id)
			}
			continue
		}
		if _, ok := reg.Get(id, cont); !ok {
			e.waitingFor = id
			return false, nil
		}
	}
	return true, nil
}

func (e *Executor) registryFor(id string) *registry.Registry {
	if strings.HasPrefix(id, "g_") {
		return e.commonObjs
	}
	return e.objs
}

// getObject returns a resolved object, or nil if the object is not
// available.
func (e *Executor) getObject(id string) any {
	data, ok := e.registryFor(id).Get(id, nil)
	if !ok {
		return nil
	}
	return data
}

func withIndex(err error, i int) error {
	var fe *oplist.FormatError
	if errors.As(err, &fe) && fe.Index < 0 {
		fe.Index = i
	}
	return err
}

func (e *Executor) cur() *gstate.State {
	return e.stack.Current
}

func (e *Executor) save() {
	if e.suspended != nil {
		e.syncSuspended()
	}
	e.s.Save()
	e.stack.Save()
}

// restore pops the graphics state.  At the floor of the stack, the
// instruction is ignored, except that soft mask mode is left.
func (e *Executor) restore() error {
	if e.stack.AtFloor() {
		e.endSMaskMode()
		return nil
	}
	if err := e.stack.Restore(); err != nil {
		return err
	}
	e.s.Restore()
	if e.suspended != nil {
		e.syncLayer()
	}
	e.checkSMaskState()
	e.pendingClip = clipNone
	return nil
}

func (e *Executor) ctm() matrix.Matrix {
	return e.s.CurrentTransform()
}

// surfaceBox is the device space rectangle covering the current surface.
func (e *Executor) surfaceBox() rect.Rect {
	w, h := e.s.Size()
	return rect.Rect{URx: float64(w), URy: float64(h)}
}

// inverseBox returns the user space bounding box of the whole surface.
// For singular transformations a very large box is used.
func (e *Executor) inverseBox() rect.Rect {
	inv := affine.Invert(e.ctm())
	r := affine.TransformRect(inv, e.surfaceBox())
	if !isFiniteRect(r) {
		return rect.Rect{LLx: -1e10, LLy: -1e10, URx: 1e10, URy: 1e10}
	}
	return r
}
