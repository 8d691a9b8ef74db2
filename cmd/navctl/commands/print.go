package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ "+format+"\n", a...)
}

func warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! "+format+"\n", a...)
}

func failure(w io.Writer, format string, a ...any) {
	red.Fprintf(w, "✗ "+format+"\n", a...)
}

func info(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, format+"\n", a...)
}

// commandColor picks a colour per motor command so a stream of status lines
// is readable at a glance.
func commandColor(c control.Command) *color.Color {
	switch c {
	case control.Stop:
		return red
	case control.Forward:
		return green
	case control.Left, control.Right:
		return cyan
	default:
		return yellow
	}
}

// statusLine prints one periodic cycle summary.
func statusLine(w io.Writer, st vehicle.Status) {
	mark := " "
	if st.Transmitted {
		mark = "*"
	}
	commandColor(st.Command).Fprintf(w, "[%6d] %c%s", st.Cycle, byte(st.Command), mark)
	fmt.Fprintf(w, " lane=%-7s light=%-6s scanner=%s ultrasonic=%s | %s\n",
		st.Lane, st.Light, st.Scanner, st.Ultrasonic, st.Distances)
}
