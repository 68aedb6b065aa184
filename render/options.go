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
	"log/slog"
	"time"
)

// Options control the execution of display lists.
// A nil *Options is the same as a pointer to the zero value, and zero
// fields select the defaults given below.
type Options struct {
	// TimeBudget is the time an executor may run before it yields to the
	// scheduler.  The default is 15ms.
	TimeBudget time.Duration

	// StepsPerCheck is the number of instructions executed between two
	// reads of the clock.  The default is 10.
	StepsPerCheck int

	// Clock returns the current time.  The default is time.Now.
	Clock func() time.Time

	// MaxPatternSize limits the size of tiling pattern tiles and of
	// rasterized mesh shadings, unless the target surface is larger.
	// The default is 3000.
	MaxPatternSize int

	// MaxSizeToCompile is the largest width and height of a Type 3 glyph
	// bitmap which is converted into an outline.  The default is 1000.
	MaxSizeToCompile int

	// DisableType3Compile turns off the conversion of Type 3 glyph bitmaps
	// into outlines.  Glyphs are then always drawn as image masks.
	DisableType3Compile bool

	// SmoothingThreshold is the device scale of an image up to which image
	// smoothing is used.  Images enlarged by more than this are drawn with
	// sharp pixel edges.  The default is 96/72.
	SmoothingThreshold float64

	// Logger receives warnings about unsupported features.  By default,
	// nothing is logged.
	Logger *slog.Logger

	// Scheduler runs continuations of suspended tasks.  The default is
	// an [Immediate] scheduler.
	Scheduler Scheduler

	// Stepper, if set, can interrupt the execution at chosen
	// instructions.  This is used by debugging tools.
	Stepper Stepper

	// OptionalContent reports whether the optional content group or
	// membership dictionary with the given id is visible.  If nil, all
	// optional content is visible.
	OptionalContent func(id string) bool
}

// Stepper interrupts the execution of a display list at a breakpoint.
type Stepper interface {
	// NextBreakPoint returns the index of the next instruction before
	// which execution stops, or -1.
	NextBreakPoint() int

	// BreakIt is called when execution stops at instruction i.  The
	// stepper calls cont to resume the execution.
	BreakIt(i int, cont func())
}

const (
	defaultTimeBudget       = 15 * time.Millisecond
	defaultStepsPerCheck    = 10
	defaultMaxPatternSize   = 3000
	defaultMaxSizeToCompile = 1000
	defaultSmoothing        = 96.0 / 72.0
)

// withDefaults returns a copy of opt with all defaults filled in.
func (opt *Options) withDefaults() *Options {
	res := &Options{}
	if opt != nil {
		*res = *opt
	}
	if res.TimeBudget <= 0 {
		res.TimeBudget = defaultTimeBudget
	}
	if res.StepsPerCheck <= 0 {
		res.StepsPerCheck = defaultStepsPerCheck
	}
	if res.Clock == nil {
		res.Clock = time.Now
	}
	if res.MaxPatternSize <= 0 {
		res.MaxPatternSize = defaultMaxPatternSize
	}
	if res.MaxSizeToCompile <= 0 {
		res.MaxSizeToCompile = defaultMaxSizeToCompile
	}
	if res.SmoothingThreshold <= 0 {
		res.SmoothingThreshold = defaultSmoothing
	}
	if res.Logger == nil {
		res.Logger = newNopLogger()
	}
	if res.Scheduler == nil {
		res.Scheduler = &Immediate{}
	}
	return res
}

func (opt *Options) isVisible(id string) bool {
	if opt.OptionalContent == nil {
		return true
	}
	return opt.OptionalContent(id)
}
