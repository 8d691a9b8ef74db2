// Package viz serves read-only views of the control loop for the debug HTTP
// surface. Nothing here touches the loop itself; every handler works from
// the last published vehicle.Status.
package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
)

// Summary describes the distance distribution of one snapshot.
type Summary struct {
	Count    int     `json:"count"`
	InZone   int     `json:"in_zone"`
	MeanMM   float64 `json:"mean_mm"`
	StdDevMM float64 `json:"stddev_mm"`
	MinMM    float64 `json:"min_mm"`
	MedianMM float64 `json:"median_mm"`
	MaxMM    float64 `json:"max_mm"`
}

// Summarise computes distance statistics over points and counts how many
// fall inside zone. An empty input yields the zero Summary.
func Summarise(points []scan.Point, zone obstacle.ScannerZone) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	d := make([]float64, len(points))
	s := Summary{Count: len(points)}
	for i, p := range points {
		d[i] = float64(p.Distance)
		if zone.Contains(p) {
			s.InZone++
		}
	}
	s.MeanMM, s.StdDevMM = stat.MeanStdDev(d, nil)
	if math.IsNaN(s.StdDevMM) {
		// single sample
		s.StdDevMM = 0
	}
	s.MinMM = floats.Min(d)
	s.MaxMM = floats.Max(d)
	sort.Float64s(d)
	s.MedianMM = stat.Quantile(0.5, stat.Empirical, d, nil)
	return s
}

// polar converts a scanner point to the vehicle frame: +Y ahead, +X right,
// in millimetres.
func polar(p scan.Point) (x, y float64) {
	rad := p.Angle * math.Pi / 180
	return float64(p.Distance) * math.Sin(rad), float64(p.Distance) * math.Cos(rad)
}

// zoneOutline traces the danger wedge from the origin along its arc and
// back, stepping at most one degree at a time.
func zoneOutline(zone obstacle.ScannerZone) [][2]float64 {
	span := zone.Window.MaxAngle - zone.Window.MinAngle
	if span < 0 {
		span += 360
	}
	steps := int(math.Ceil(span))
	if steps < 1 {
		steps = 1
	}
	out := make([][2]float64, 0, steps+3)
	out = append(out, [2]float64{0, 0})
	for i := 0; i <= steps; i++ {
		a := zone.Window.MinAngle + span*float64(i)/float64(steps)
		x, y := polar(scan.Point{Angle: a, Distance: zone.DistanceMM})
		out = append(out, [2]float64{x, y})
	}
	out = append(out, [2]float64{0, 0})
	return out
}

// splitZone separates points inside the danger zone from the rest.
func splitZone(points []scan.Point, zone obstacle.ScannerZone) (inside, outside []scan.Point) {
	for _, p := range points {
		if zone.Contains(p) {
			inside = append(inside, p)
		} else {
			outside = append(outside, p)
		}
	}
	return inside, outside
}

// extent is the half-width of a square view holding every point and the
// zone, rounded up to the next 500 mm.
func extent(points []scan.Point, zone obstacle.ScannerZone) float64 {
	m := float64(zone.DistanceMM)
	for _, p := range points {
		if d := float64(p.Distance); d > m {
			m = d
		}
	}
	return math.Max(500, math.Ceil(m/500)*500)
}
