/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sketch

import (
	"image/color"

	"mangastudio/internal/canvas"
)

// Sketch is a parsed stroke script: a canvas declaration followed by a
// sequence of drawing commands in source order.

type Sketch struct {
	Width, Height int
	Scale         float64
	Commands      []Command
}

// CommandType indicates the kind of a script command.
// Tool:   "tool pen" or "tool eraser"
// Color:  "color #RRGGBB"
// Width:  "width N"
// Stroke: "stroke x,y x,y ..." (one or more points)
// Clear:  "clear"

type CommandType int

const (
	CmdTool CommandType = iota
	CmdColor
	CmdWidth
	CmdStroke
	CmdClear
)

// Command captures a single command. Only the fields relevant to its type
// are populated.
type Command struct {
	Type   CommandType
	Tool   canvas.Tool
	Color  color.RGBA
	Width  float64
	Points []canvas.Pt
	LineNo int // 1-based line number in the source
}

// Error represents a parse error with position context.

type Error struct {
	Line    int
	Message string
}
