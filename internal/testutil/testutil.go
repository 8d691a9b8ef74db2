// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// LocalRequest creates a test HTTP request from a loopback address, which
// tsweb debug routes require.
func LocalRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// Point returns a valid scan point with full quality.
func Point(angle float64, distanceMM int) scan.Point {
	return scan.Point{Angle: angle, Distance: distanceMM, Quality: 15}
}

// ClearRevolution returns n valid points spread evenly around the scanner,
// all at distanceMM. With distanceMM above the danger distance nothing is
// in the forward zone.
func ClearRevolution(n, distanceMM int) []scan.Point {
	pts := make([]scan.Point, 0, n)
	for i := 0; i < n; i++ {
		// offset by half a step so no point sits on a window boundary
		angle := (float64(i) + 0.5) * 360 / float64(n)
		pts = append(pts, Point(angle, distanceMM))
	}
	return pts
}

// WithObstacle returns rev plus one point at angle and distanceMM.
func WithObstacle(rev []scan.Point, angle float64, distanceMM int) []scan.Point {
	out := append([]scan.Point(nil), rev...)
	return append(out, Point(angle, distanceMM))
}

// Snapshot wraps points in a snapshot.
func Snapshot(points []scan.Point) scan.Snapshot {
	return scan.NewSnapshot(1, points)
}

// RecordingSink is a control.CommandSink that remembers every command.
type RecordingSink struct {
	mu   sync.Mutex
	sent []control.Command
	Err  error
}

func (r *RecordingSink) Send(c control.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, c)
	return nil
}

// Sent returns a copy of the commands received so far.
func (r *RecordingSink) Sent() []control.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]control.Command(nil), r.sent...)
}

// Bytes renders the received commands as the wire bytes.
func (r *RecordingSink) Bytes() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, len(r.sent))
	for i, c := range r.sent {
		b[i] = byte(c)
	}
	return string(b)
}

// OrderLog records the order of events across fakes, e.g. "send S" then
// "close scanner".
type OrderLog struct {
	mu     sync.Mutex
	events []string
}

func (o *OrderLog) Add(event string) {
	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
}

func (o *OrderLog) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

// Closer records a close event in an OrderLog and returns Err.
type Closer struct {
	Name string
	Log  *OrderLog
	Err  error
}

func (c *Closer) Close() error {
	if c.Log != nil {
		c.Log.Add("close " + c.Name)
	}
	return c.Err
}
