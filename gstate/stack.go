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

package gstate

import (
	"strconv"

	"seehuhn.de/go/geom/matrix"
)

// IllegalStateError indicates an operation which is not allowed in the
// current state of the interpreter.
type IllegalStateError struct {
	Op    string
	Depth int
}

func (err *IllegalStateError) Error() string {
	return "illegal state: " + err.Op + " at stack depth " + strconv.Itoa(err.Depth)
}

// Stack is the graphics state stack.
//
// The stack has a floor: the depth at which the current render task
// started.  States below the floor belong to the caller and cannot be
// restored by the task.
type Stack struct {
	Current *State

	saved []*State
	floor int

	strokeScale      [2]float64
	strokeScaleValid bool
}

// NewStack returns a stack with s as the current state.
func NewStack(s *State) *Stack {
	return &Stack{Current: s}
}

// Depth returns the number of saved states.
func (st *Stack) Depth() int {
	return len(st.saved)
}

// SetFloor marks the current depth as the floor of the stack.
func (st *Stack) SetFloor() {
	st.floor = len(st.saved)
}

// AtFloor reports whether the stack has no states which can be restored.
func (st *Stack) AtFloor() bool {
	return len(st.saved) <= st.floor
}

// Save pushes a copy of the current state.
func (st *Stack) Save() {
	st.saved = append(st.saved, st.Current)
	st.Current = st.Current.Clone()
	st.strokeScaleValid = false
}

// Restore pops the most recently saved state.
func (st *Stack) Restore() error {
	if st.AtFloor() {
		return &IllegalStateError{Op: "restore", Depth: len(st.saved)}
	}
	n := len(st.saved) - 1
	st.Current = st.saved[n]
	st.saved[n] = nil
	st.saved = st.saved[:n]
	st.strokeScaleValid = false
	return nil
}

// Reset discards all saved states and the floor.
func (st *Stack) Reset(s *State) {
	clear(st.saved)
	st.saved = st.saved[:0]
	st.floor = 0
	st.Current = s
	st.strokeScaleValid = false
}

// SetLineWidth sets the line width of the current state.
func (st *Stack) SetLineWidth(w float64) {
	st.Current.LineWidth = w
	st.strokeScaleValid = false
}

// InvalidateTransform must be called whenever the current transformation
// matrix changes.
func (st *Stack) InvalidateTransform() {
	st.strokeScaleValid = false
}

// StrokeScale returns [ScaleForStroking] for the given CTM and the line
// width of the current state.  The value is cached until the line width
// or the transformation changes.
func (st *Stack) StrokeScale(ctm matrix.Matrix) [2]float64 {
	if !st.strokeScaleValid {
		st.strokeScale = ScaleForStroking(ctm, st.Current.LineWidth)
		st.strokeScaleValid = true
	}
	return st.strokeScale
}

// CachedStrokeScale returns the cached stroke scale, if any.
func (st *Stack) CachedStrokeScale() (scale [2]float64, valid bool) {
	return st.strokeScale, st.strokeScaleValid
}
