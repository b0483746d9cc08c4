// log/stack.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// Callstack captures the caller's stack, stopping at the runtime and at
// main.main. The three innermost frames are the logging wrappers
// themselves and are skipped. Function names are reduced to
// package.Function; the module path prefix carries no information here.
func Callstack(fr []StackFrame) []StackFrame {
	var pcs [24]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	fr = fr[:0]
	for {
		frame, more := frames.Next()
		if frame.Function == "" || strings.HasPrefix(frame.Function, "runtime.") {
			break
		}

		fn := frame.Function
		if idx := strings.LastIndexByte(fn, '/'); idx != -1 {
			fn = fn[idx+1:]
		}
		fr = append(fr, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: fn,
		})

		if !more || frame.Function == "main.main" {
			break
		}
	}
	return fr
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}
