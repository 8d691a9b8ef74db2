package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrTransient marks a device read error that only spoils the current
// revolution. Sources wrap recoverable failures with it; Stream logs them
// and moves on to the next revolution.
var ErrTransient = errors.New("transient scan error")

// Source yields raw revolutions from a range-scanner device. Each call
// blocks until one full revolution has been read. io.EOF ends the session.
type Source interface {
	NextRevolution(ctx context.Context) ([]Point, error)
}

// StreamStats counts what the stream has done with incoming revolutions.
type StreamStats struct {
	Emitted   int64 `json:"emitted"`   // snapshots handed to the caller
	Discarded int64 `json:"discarded"` // revolutions with too few valid points
	Transient int64 `json:"transient"` // revolutions lost to transient read errors
	Dropped   int64 `json:"dropped"`   // invalid or duplicate samples filtered out
}

// Stream converts device revolutions into Snapshots. It is pull-based and
// single-consumer: Next must not be called concurrently. Stream never stops
// the device; the owning control loop does that on shutdown.
type Stream struct {
	src       Source
	minPoints int
	seq       int64
	stats     StreamStats
}

// NewStream wraps src. A non-positive minPoints selects DefaultMinPoints.
func NewStream(src Source, minPoints int) *Stream {
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}
	return &Stream{src: src, minPoints: minPoints}
}

// MinPoints returns the configured minimum point count.
func (s *Stream) MinPoints() int {
	return s.minPoints
}

// Stats returns a copy of the stream counters. Like Next, it belongs to the
// consuming goroutine.
func (s *Stream) Stats() StreamStats {
	return s.stats
}

// Next blocks until a revolution with more than MinPoints valid samples is
// available and returns it as a Snapshot. Incomplete revolutions and
// transient read errors are skipped. io.EOF and device faults are returned
// unchanged so the caller can shut the device down.
func (s *Stream) Next(ctx context.Context) (Snapshot, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}

		raw, err := s.src.NextRevolution(ctx)
		if err != nil {
			if errors.Is(err, ErrTransient) {
				s.stats.Transient++
				opsf("revolution lost: %v", err)
				continue
			}
			if errors.Is(err, io.EOF) {
				diagf("scan source ended after %d snapshots", s.stats.Emitted)
				return Snapshot{}, io.EOF
			}
			return Snapshot{}, fmt.Errorf("read revolution: %w", err)
		}

		points := s.filter(raw)
		if len(points) <= s.minPoints {
			s.stats.Discarded++
			tracef("discarded revolution: %d valid points (need more than %d)", len(points), s.minPoints)
			continue
		}

		s.seq++
		s.stats.Emitted++
		tracef("snapshot %d: %d points", s.seq, len(points))
		return Snapshot{Seq: s.seq, points: points}, nil
	}
}

type sampleKey struct {
	angle    float64
	distance int
}

// filter drops invalid samples and exact repeats of a sample already seen
// in the same revolution, preserving arrival order.
func (s *Stream) filter(raw []Point) []Point {
	out := make([]Point, 0, len(raw))
	seen := make(map[sampleKey]struct{}, len(raw))
	for _, p := range raw {
		if !p.Valid() {
			s.stats.Dropped++
			continue
		}
		k := sampleKey{angle: p.Angle, distance: p.Distance}
		if _, dup := seen[k]; dup {
			s.stats.Dropped++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SliceSource replays fixed revolutions, then reports io.EOF. It backs the
// simulator and tests.
type SliceSource struct {
	Revolutions [][]Point
	Errs        []error // optional error per revolution index, returned instead of the data
	next        int
}

// NextRevolution implements Source.
func (s *SliceSource) NextRevolution(ctx context.Context) ([]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.Revolutions) {
		return nil, io.EOF
	}
	i := s.next
	s.next++
	if i < len(s.Errs) && s.Errs[i] != nil {
		return nil, s.Errs[i]
	}
	return s.Revolutions[i], nil
}
