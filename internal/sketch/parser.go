/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sketch parses a small plain-text stroke script and replays it
// onto a drawing surface. It exists for scripted drawing from the command
// line, where no pointer input is available.
package sketch

import (
	"bufio"
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"mangastudio/internal/canvas"
	"mangastudio/internal/domain"
)

// Parse parses a stroke script into a structured Sketch.
// Supported syntax (minimal):
// - Canvas declaration (must come first):
//   - "canvas WIDTHxHEIGHT" with an optional trailing scale, e.g.
//     "canvas 800x600 2" for a 2x device pixel ratio.
//
// - Commands, one per line:
//   - tool pen | tool eraser
//   - color #RRGGBB
//   - width N          (brush diameter in logical pixels)
//   - stroke x,y x,y ...  (a single point leaves a dot)
//   - clear
//
// - Notes: lines starting with ';' are ignored.
// Blank lines are ignored. Malformed lines are reported as errors and
// skipped; parsing continues.
func Parse(input string) (Sketch, []Error) {
	sk := Sketch{Scale: 1}
	var errs []Error

	reCanvas := regexp.MustCompile(`^(?i)canvas\s+(\d+)\s*x\s*(\d+)(?:\s+([0-9.]+))?$`)
	reColor := regexp.MustCompile(`^(?i)color\s+#([0-9a-f]{6})$`)
	rePoint := regexp.MustCompile(`^([0-9.+-]+),([0-9.+-]+)$`)

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	sawCanvas := false

	fail := func(format string, args ...any) {
		errs = append(errs, Error{Line: lineNo, Message: fmt.Sprintf(format, args...)})
	}

	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, ";") {
			continue
		}

		if m := reCanvas.FindStringSubmatch(trim); m != nil {
			if sawCanvas {
				fail("duplicate canvas declaration")
				continue
			}
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			if w <= 0 || h <= 0 {
				fail("canvas size must be positive")
				continue
			}
			sk.Width, sk.Height = w, h
			if m[3] != "" {
				s, err := strconv.ParseFloat(m[3], 64)
				if err != nil || s <= 0 {
					fail("invalid canvas scale %q", m[3])
					continue
				}
				sk.Scale = s
			}
			sawCanvas = true
			continue
		}

		if !sawCanvas {
			fail("canvas declaration must come first")
			continue
		}

		fields := strings.Fields(trim)
		switch strings.ToLower(fields[0]) {
		case "tool":
			if len(fields) != 2 {
				fail("tool needs exactly one argument")
				continue
			}
			t := canvas.Tool(strings.ToLower(fields[1]))
			if t != canvas.ToolPen && t != canvas.ToolEraser {
				fail("unknown tool %q", fields[1])
				continue
			}
			sk.Commands = append(sk.Commands, Command{Type: CmdTool, Tool: t, LineNo: lineNo})

		case "color":
			m := reColor.FindStringSubmatch(trim)
			if m == nil {
				fail("color needs a #RRGGBB value")
				continue
			}
			v, _ := strconv.ParseUint(m[1], 16, 32)
			c := color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
			sk.Commands = append(sk.Commands, Command{Type: CmdColor, Color: c, LineNo: lineNo})

		case "width":
			if len(fields) != 2 {
				fail("width needs exactly one argument")
				continue
			}
			w, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || w <= 0 {
				fail("width must be a positive number, got %q", fields[1])
				continue
			}
			sk.Commands = append(sk.Commands, Command{Type: CmdWidth, Width: w, LineNo: lineNo})

		case "stroke":
			if len(fields) < 2 {
				fail("stroke needs at least one point")
				continue
			}
			pts := make([]canvas.Pt, 0, len(fields)-1)
			ok := true
			for _, f := range fields[1:] {
				m := rePoint.FindStringSubmatch(f)
				if m == nil {
					fail("bad point %q, want x,y", f)
					ok = false
					break
				}
				x, errX := strconv.ParseFloat(m[1], 64)
				y, errY := strconv.ParseFloat(m[2], 64)
				if errX != nil || errY != nil {
					fail("bad point %q, want x,y", f)
					ok = false
					break
				}
				pts = append(pts, canvas.Pt{X: x, Y: y})
			}
			if !ok {
				continue
			}
			sk.Commands = append(sk.Commands, Command{Type: CmdStroke, Points: pts, LineNo: lineNo})

		case "clear":
			sk.Commands = append(sk.Commands, Command{Type: CmdClear, LineNo: lineNo})

		default:
			fail("unknown command %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Message: err.Error()})
	}
	if !sawCanvas {
		errs = append(errs, Error{Line: lineNo, Message: "script has no canvas declaration"})
	}
	return sk, errs
}

// Replay applies the sketch's commands to a fresh surface and returns it.
func Replay(sk Sketch) (*canvas.Surface, error) {
	s, err := canvas.NewSurface(canvas.Options{Width: sk.Width, Height: sk.Height, Scale: sk.Scale})
	if err != nil {
		return nil, err
	}
	for _, cmd := range sk.Commands {
		switch cmd.Type {
		case CmdTool:
			s.SetTool(cmd.Tool)
		case CmdColor:
			s.SetBrushColor(cmd.Color)
		case CmdWidth:
			s.SetBrushSize(cmd.Width)
		case CmdStroke:
			s.Begin(cmd.Points[0])
			for _, p := range cmd.Points[1:] {
				s.Extend(p)
			}
			s.End()
		case CmdClear:
			s.Clear()
		}
	}
	return s, nil
}

// Render parses and replays a script in one step and exports the result
// as a PNG payload. Parse errors abort before anything is drawn.
func Render(input string) (domain.ImagePayload, error) {
	sk, errs := Parse(input)
	if len(errs) > 0 {
		return domain.ImagePayload{}, fmt.Errorf("line %d: %s", errs[0].Line, errs[0].Message)
	}
	s, err := Replay(sk)
	if err != nil {
		return domain.ImagePayload{}, err
	}
	return s.Export()
}
