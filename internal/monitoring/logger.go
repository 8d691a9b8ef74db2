package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Level selects how many of the three log streams are enabled.
type Level int

const (
	LevelQuiet Level = iota // nothing
	LevelOps                // actionable warnings, errors, lifecycle
	LevelDiag               // plus day-to-day diagnostics
	LevelTrace              // plus per-frame and per-line telemetry
)

func (l Level) String() string {
	switch l {
	case LevelQuiet:
		return "quiet"
	case LevelOps:
		return "ops"
	case LevelDiag:
		return "diag"
	case LevelTrace:
		return "trace"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel accepts quiet, ops, diag or trace (also "info" for ops and
// "debug" for diag).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "off", "none":
		return LevelQuiet, nil
	case "ops", "info", "":
		return LevelOps, nil
	case "diag", "debug":
		return LevelDiag, nil
	case "trace":
		return LevelTrace, nil
	}
	return LevelOps, fmt.Errorf("unknown log level %q (want quiet, ops, diag or trace)", s)
}

// LogWriters holds the io.Writers for each logging stream. A nil writer
// disables that stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// WritersFor routes every stream enabled at level to w.
func WritersFor(level Level, w io.Writer) LogWriters {
	var out LogWriters
	if level >= LevelOps {
		out.Ops = w
	}
	if level >= LevelDiag {
		out.Diag = w
	}
	if level >= LevelTrace {
		out.Trace = w
	}
	return out
}

// SetLogWritersFunc is the SetLogWriters signature every package exposes.
type SetLogWritersFunc func(ops, diag, trace io.Writer)

// Install applies w to each package setter and points Logf at the ops
// stream.
func Install(w LogWriters, setters ...SetLogWritersFunc) {
	for _, set := range setters {
		set(w.Ops, w.Diag, w.Trace)
	}
	if w.Ops == nil {
		SetLogger(nil)
		return
	}
	SetLogger(log.New(w.Ops, "", log.LstdFlags|log.Lmicroseconds).Printf)
}
