package serialmux

import "strings"

const (
	EventTypeTelemetry  = "telemetry"
	EventTypeLegacy     = "legacy"
	EventTypeDiagnostic = "diagnostic"
	EventTypeEmpty      = "empty"
)

// ClassifyLine inspects a controller line and returns a simple event type
// token. Keyed lines ("F:25,FL:30") are telemetry, a bare number is a legacy
// front distance, and everything else is treated as a diagnostic message the
// firmware printed.
func ClassifyLine(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return EventTypeEmpty
	case strings.Contains(line, ":") && strings.Contains(line, ","):
		return EventTypeTelemetry
	case strings.Trim(line, "0123456789") == "":
		return EventTypeLegacy
	default:
		return EventTypeDiagnostic
	}
}
