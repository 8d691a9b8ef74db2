package scan

// Window is an angular band in degrees. MinAngle > MaxAngle wraps through 0°.
type Window struct {
	MinAngle float64
	MaxAngle float64
}

// Wraps reports whether the window crosses 0°.
func (w Window) Wraps() bool {
	return w.MinAngle > w.MaxAngle
}

// Contains reports whether angle lies strictly inside the window.
func (w Window) Contains(angle float64) bool {
	if w.Wraps() {
		return angle < w.MaxAngle || angle > w.MinAngle
	}
	return angle < w.MaxAngle && angle > w.MinAngle
}

func inDistance(p Point, minDist, maxDist int) bool {
	return p.Distance < maxDist && p.Distance > minDist
}

func collect(s Snapshot, keep func(Point) bool) []Point {
	var out []Point
	for _, p := range s.points {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// AngleWindow returns the points whose angle lies strictly between minAngle
// and maxAngle, wrapping through 0° when minAngle > maxAngle.
func AngleWindow(s Snapshot, minAngle, maxAngle float64) []Point {
	w := Window{MinAngle: minAngle, MaxAngle: maxAngle}
	return collect(s, func(p Point) bool { return w.Contains(p.Angle) })
}

// DistanceWindow returns the points with minDist < distance < maxDist.
func DistanceWindow(s Snapshot, minDist, maxDist int) []Point {
	return collect(s, func(p Point) bool { return inDistance(p, minDist, maxDist) })
}

// AngleDistanceWindow returns the intersection of AngleWindow and
// DistanceWindow.
func AngleDistanceWindow(s Snapshot, minAngle, maxAngle float64, minDist, maxDist int) []Point {
	w := Window{MinAngle: minAngle, MaxAngle: maxAngle}
	return collect(s, func(p Point) bool {
		return w.Contains(p.Angle) && inDistance(p, minDist, maxDist)
	})
}

// Nearest returns the point with the smallest distance inside the angle
// window. When the window is empty it returns the zero Point, so a distance
// of 0 means "no data", not "touching".
func Nearest(s Snapshot, minAngle, maxAngle float64) Point {
	pts := AngleWindow(s, minAngle, maxAngle)
	if len(pts) == 0 {
		return Point{}
	}
	best := pts[0]
	for _, p := range pts[1:] {
		if p.Distance < best.Distance {
			best = p
		}
	}
	return best
}

// Farthest returns the point with the largest distance inside the angle
// window, or false when the window is empty.
func Farthest(s Snapshot, minAngle, maxAngle float64) (Point, bool) {
	pts := AngleWindow(s, minAngle, maxAngle)
	if len(pts) == 0 {
		return Point{}, false
	}
	best := pts[0]
	for _, p := range pts[1:] {
		if p.Distance > best.Distance {
			best = p
		}
	}
	return best, true
}
