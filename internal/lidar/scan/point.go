package scan

import "fmt"

// DefaultMinPoints is the number of valid points a revolution must exceed
// before it is emitted as a Snapshot.
const DefaultMinPoints = 10

// Point is a single range-scanner sample.
type Point struct {
	Angle    float64 // degrees in [0, 360)
	Distance int     // millimetres
	Quality  int
}

// Valid reports whether the sample carries a usable measurement. The
// scanner reports quality 0 or distance 0 when a ray produced no return.
func (p Point) Valid() bool {
	return p.Quality > 0 && p.Distance > 0
}

func (p Point) String() string {
	return fmt.Sprintf("(%.2f°, %dmm, q=%d)", p.Angle, p.Distance, p.Quality)
}

// Snapshot is one accumulated revolution of valid points. A Snapshot never
// changes after construction; Points returns a copy.
type Snapshot struct {
	Seq    int64 // revolution sequence number within the session
	points []Point
}

// NewSnapshot builds a Snapshot from the valid points in points. Invalid
// samples are dropped and the input slice is not retained.
func NewSnapshot(seq int64, points []Point) Snapshot {
	cp := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Valid() {
			cp = append(cp, p)
		}
	}
	return Snapshot{Seq: seq, points: cp}
}

// Points returns a copy of the snapshot's samples in arrival order.
func (s Snapshot) Points() []Point {
	cp := make([]Point, len(s.points))
	copy(cp, s.points)
	return cp
}

// Len returns the number of samples in the snapshot.
func (s Snapshot) Len() int {
	return len(s.points)
}

// Empty reports whether the snapshot holds no samples.
func (s Snapshot) Empty() bool {
	return len(s.points) == 0
}
