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
	"strconv"
	"sync"

	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/registry"
	"seehuhn.de/go/pdfpaint/surface"
)

// ErrCancelled is returned by [Task.Err] after the task was cancelled.
var ErrCancelled = errors.New("rendering cancelled")

// TaskState describes the progress of a [Task].
type TaskState int

// These are the possible states of a task.
const (
	StateIdle TaskState = iota
	StateRunning

	// StateSuspendedDependency means that the task waits for an object
	// to be resolved, or for more instructions to be appended to the
	// list.
	StateSuspendedDependency

	// StateSuspendedBudget means that the task used up its time budget,
	// or was stopped by a stepper, and waits for the scheduler.
	StateSuspendedBudget

	StateDone
	StateCancelled
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSuspendedDependency:
		return "suspended (dependency)"
	case StateSuspendedBudget:
		return "suspended (budget)"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "TaskState(" + strconv.Itoa(int(s)) + ")"
}

func (s TaskState) finished() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// Task renders one display list onto a target surface.  The list may
// still grow while the task runs; the task finishes once the instructions
// of the last chunk have been executed.
//
// The methods of Task are safe for concurrent use.  Drawing itself
// happens in the continuations run by the scheduler.
type Task struct {
	exec   *Executor
	list   *oplist.List
	params DrawParams
	sched  Scheduler

	mu    sync.Mutex
	state TaskState
	next  int
	busy  bool
	again bool
	err   error
	done  chan struct{}
}

// NewTask creates a task which draws list onto target.  The task does
// nothing until Start is called.
func NewTask(target surface.Surface, factory surface.Factory, list *oplist.List,
	objs, commonObjs *registry.Registry, params DrawParams, opt *Options) *Task {
	exec := NewExecutor(target, factory, objs, commonObjs, opt)
	if sa := list.SeparateAnnots; sa != nil && sa.Canvas {
		params.SeparateAnnotations = true
	}
	return &Task{
		exec:   exec,
		list:   list,
		params: params,
		sched:  exec.opt.Scheduler,
		done:   make(chan struct{}),
	}
}

// Start begins drawing.  Calls after the first one have no effect.
func (t *Task) Start() {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return
	}
	t.exec.BeginDrawing(t.params)
	t.state = StateSuspendedBudget
	t.mu.Unlock()

	t.sched.Schedule(t.resume)
}

// OperatorListChanged must be called after instructions were appended to
// the list.
func (t *Task) OperatorListChanged() {
	t.mu.Lock()
	wake := t.state == StateSuspendedDependency || t.busy
	t.mu.Unlock()
	if wake {
		t.sched.Schedule(t.resume)
	}
}

func (t *Task) cont() {
	t.sched.Schedule(t.resume)
}

func (t *Task) resume() {
	t.mu.Lock()
	if t.busy {
		t.again = true
		t.mu.Unlock()
		return
	}
	if t.state == StateIdle || t.state.finished() {
		t.mu.Unlock()
		return
	}
	t.busy = true
	t.again = false
	t.state = StateRunning
	start := t.next
	t.mu.Unlock()

	next, err := t.exec.Execute(t.list, start, t.cont)

	t.mu.Lock()
	t.busy = false
	t.next = next
	reschedule := false
	switch {
	case t.state == StateCancelled:
		t.exec.EndDrawing()
	case err != nil:
		t.state = StateFailed
		t.err = err
		t.exec.EndDrawing()
		close(t.done)
	case next >= t.list.Len() && t.list.LastChunk:
		t.state = StateDone
		t.exec.EndDrawing()
		close(t.done)
	case next >= t.list.Len() || t.exec.waitingFor != "":
		t.state = StateSuspendedDependency
		reschedule = t.again
	default:
		t.state = StateSuspendedBudget
		reschedule = t.again
	}
	t.mu.Unlock()

	if reschedule {
		t.sched.Schedule(t.resume)
	}
}

// Cancel stops the task and releases all scratch surfaces.  Cancel can
// be called in any state; calls after the task has finished have no
// effect.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.finished() {
		return
	}
	t.state = StateCancelled
	t.err = ErrCancelled
	if !t.busy {
		t.exec.EndDrawing()
	}
	close(t.done)
}

// Done returns a channel which is closed when the task has finished,
// failed or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the error which stopped the task, or nil.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// State returns the current state of the task.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Next returns the index of the next instruction to be executed.
func (t *Task) Next() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// WaitingFor returns the id of the object the task waits for, if any.
func (t *Task) WaitingFor() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateSuspendedDependency {
		return ""
	}
	return t.exec.waitingFor
}

// AnnotationCanvases returns the separately drawn annotations.  The
// result is only complete once the task is done.
func (t *Task) AnnotationCanvases() map[string]*image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exec.AnnotationCanvases()
}
