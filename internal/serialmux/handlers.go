package serialmux

// LineDecoder consumes telemetry lines. It reports whether the line changed
// any reading.
type LineDecoder interface {
	Decode(line string) bool
}

// HandleLine routes one controller line. Telemetry goes to the decoder;
// diagnostics are logged. It returns the line's event type and whether the
// decoder accepted it.
func HandleLine(d LineDecoder, line string) (string, bool) {
	kind := ClassifyLine(line)
	switch kind {
	case EventTypeTelemetry, EventTypeLegacy:
		if d.Decode(line) {
			return kind, true
		}
		diagf("rejected %s line %q", kind, line)
	case EventTypeDiagnostic:
		diagf("controller: %s", line)
	}
	return kind, false
}
