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

// Pdfpaint renders a display list, given in JSON form, to a PNG image.
//
// Objects referenced by the list are read from a directory, one file per
// object, named after the object id with the extension ".json".  Fonts
// which cannot be found there are replaced by the Go Regular font.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/term"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/sfnt"

	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/raster"
	"seehuhn.de/go/pdfpaint/registry"
	"seehuhn.de/go/pdfpaint/render"
)

func main() {
	width := flag.Float64("width", 612, "page width in PDF units")
	height := flag.Float64("height", 792, "page height in PDF units")
	dpi := flag.Float64("dpi", 72.0, "DPI for rendering")
	objDir := flag.String("objects", "", "directory with the objects used by the list")
	transparent := flag.Bool("transparency", false, "draw onto a transparent backdrop first")
	verbose := flag.Bool("v", false, "log warnings to stderr")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Printf("Usage: %s [options] list.json output.png\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	err := run(flag.Arg(0), flag.Arg(1), *objDir, *width, *height, *dpi, *transparent, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfpaint: %v\n", err)
		os.Exit(1)
	}
}

func run(inName, outName, objDir string, width, height, dpi float64, transparent bool, logger *slog.Logger) error {
	data, err := os.ReadFile(inName)
	if err != nil {
		return err
	}
	list, err := oplist.DecodeJSON(data)
	if err != nil {
		return err
	}

	objs := registry.New()
	commonObjs := registry.New()
	if objDir != "" {
		err = loadObjects(objDir, objs, commonObjs)
		if err != nil {
			return err
		}
	}
	err = substituteFonts(list, objs, commonObjs, logger)
	if err != nil {
		return err
	}

	scale := dpi / 72
	w := int(math.Ceil(width * scale))
	h := int(math.Ceil(height * scale))
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid page size %gx%g", width, height)
	}

	target := raster.New(w, h)
	params := render.DrawParams{
		Viewport:     matrix.Matrix{scale, 0, 0, -scale, 0, height * scale},
		Transparency: transparent,
	}
	opt := &render.Options{Logger: logger}
	task := render.NewTask(target, raster.NewFactory(), list, objs, commonObjs, params, opt)
	task.Start()

	switch task.State() {
	case render.StateDone:
		// pass
	case render.StateSuspendedDependency:
		task.Cancel()
		if id := task.WaitingFor(); id != "" {
			return fmt.Errorf("object %q is missing", id)
		}
		return errors.New("display list is incomplete")
	default:
		if err := task.Err(); err != nil {
			return err
		}
		return fmt.Errorf("rendering stopped in state %s", task.State())
	}

	var out io.Writer
	if outName == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("refusing to write PNG data to a terminal")
		}
		out = os.Stdout
	} else {
		fd, err := os.Create(outName)
		if err != nil {
			return err
		}
		defer fd.Close()
		out = fd
	}
	return png.Encode(out, target.RGBA())
}

// loadObjects reads all object files from dir.  Objects with ids starting
// with "g_" are shared between pages and go into commonObjs.
func loadObjects(dir string, objs, commonObjs *registry.Registry) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	for _, fname := range files {
		id := strings.TrimSuffix(filepath.Base(fname), ".json")
		data, err := os.ReadFile(fname)
		if err != nil {
			return err
		}
		obj, err := oplist.DecodeObject(data)
		if err != nil {
			return fmt.Errorf("object %q: %w", id, err)
		}
		if strings.HasPrefix(id, "g_") {
			commonObjs.Resolve(id, obj)
		} else {
			objs.Resolve(id, obj)
		}
	}
	return nil
}

// substituteFonts resolves all fonts used by the list which are not in the
// registries to the Go Regular font.
func substituteFonts(list *oplist.List, objs, commonObjs *registry.Registry, logger *slog.Logger) error {
	var fallback *oplist.Font
	for i, op := range list.Opcodes {
		if op != oplist.SetFont || i >= len(list.Args) || len(list.Args[i]) == 0 {
			continue
		}
		id, ok := list.Args[i][0].(string)
		if !ok {
			continue
		}
		reg := objs
		if strings.HasPrefix(id, "g_") {
			reg = commonObjs
		}
		if reg.Has(id) {
			continue
		}
		if fallback == nil {
			sf, err := sfnt.Read(bytes.NewReader(goregular.TTF))
			if err != nil {
				return err
			}
			fallback = &oplist.Font{Name: "GoRegular", Outlines: sf, MissingFile: true}
		}
		if logger != nil {
			logger.Info("substituting font", "id", id)
		}
		reg.Resolve(id, fallback)
	}
	return nil
}
