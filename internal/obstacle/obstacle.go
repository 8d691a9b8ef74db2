// Package obstacle answers "is something in the forward danger zone" for the
// range scanner and for the forward ultrasonic triad.
package obstacle

import (
	"fmt"

	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
	"github.com/sukyun02/2026-autonomous-driving/internal/units"
)

// Report is the result of one detection. Nearest is in Unit and is 0 when
// nothing was found. Sensor names what produced Nearest and is only used in
// log messages.
type Report struct {
	Present bool           `json:"present"`
	Nearest int            `json:"nearest"`
	Unit    units.Distance `json:"unit"`
	Sensor  string         `json:"sensor,omitempty"`
}

func (r Report) String() string {
	if !r.Present {
		return "clear"
	}
	if r.Sensor != "" {
		return fmt.Sprintf("%s at %s", r.Sensor, units.Format(r.Nearest, r.Unit))
	}
	return "obstacle at " + units.Format(r.Nearest, r.Unit)
}

// ScannerZone is the forward danger zone for the range scanner.
type ScannerZone struct {
	Window     scan.Window
	DistanceMM int
}

// DefaultScannerZone is 350° to 10° through 0°, out to 500 mm.
var DefaultScannerZone = ScannerZone{
	Window:     scan.Window{MinAngle: 350, MaxAngle: 10},
	DistanceMM: 500,
}

// Contains reports whether p lies inside the zone.
func (z ScannerZone) Contains(p scan.Point) bool {
	return z.Window.Contains(p.Angle) && p.Distance > 0 && p.Distance < z.DistanceMM
}

// DetectScanner reports whether any point of snap lies inside zone.
func DetectScanner(snap scan.Snapshot, zone ScannerZone) Report {
	w := zone.Window
	hits := scan.AngleDistanceWindow(snap, w.MinAngle, w.MaxAngle, 0, zone.DistanceMM)
	r := Report{Present: len(hits) > 0, Unit: units.MM}
	if !r.Present {
		return r
	}
	// the nearest point in the angle window is inside the zone whenever any
	// point is
	nearest := scan.Nearest(snap, w.MinAngle, w.MaxAngle)
	r.Nearest = nearest.Distance
	r.Sensor = fmt.Sprintf("scanner %.1f°", nearest.Angle)
	return r
}

var forwardTriad = []ultrasonic.Sensor{ultrasonic.Front, ultrasonic.FrontLeft, ultrasonic.FrontRight}

// DetectUltrasonic checks the forward triad against safeMM, converted to
// centimetres to match the wire values. Failed readings (0) count as far
// away. On ties the label prefers F, then FL, then FR.
func DetectUltrasonic(frame ultrasonic.Frame, safeMM int) Report {
	safeCM := units.MillimetresToCentimetres(safeMM)

	nearestSensor := forwardTriad[0]
	nearest := frame.Normalized(nearestSensor)
	for _, s := range forwardTriad[1:] {
		if v := frame.Normalized(s); v < nearest {
			nearest, nearestSensor = v, s
		}
	}

	return Report{
		Present: nearest < safeCM,
		Nearest: nearest,
		Unit:    units.CM,
		Sensor:  nearestSensor.Key(),
	}
}
