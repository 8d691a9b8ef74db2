package sim

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
)

// BenchScanner is an endless scan.Source for running the full loop without
// a range scanner. Each revolution is the same far ring with one point
// straight ahead, paced at Period.
type BenchScanner struct {
	Period time.Duration
	// Limit, when positive, ends the source with io.EOF after that many
	// revolutions. Zero runs until cancelled.
	Limit int64

	ahead atomic.Int64
	count atomic.Int64
}

// NewBenchScanner returns a scanner reporting aheadMM straight ahead.
func NewBenchScanner(aheadMM int, period time.Duration) *BenchScanner {
	b := &BenchScanner{Period: period}
	b.ahead.Store(int64(aheadMM))
	return b
}

// SetAhead moves the point straight ahead. Safe to call from any goroutine.
func (b *BenchScanner) SetAhead(mm int) { b.ahead.Store(int64(mm)) }

// Revolutions returns how many revolutions have been produced.
func (b *BenchScanner) Revolutions() int64 { return b.count.Load() }

func (b *BenchScanner) NextRevolution(ctx context.Context) ([]scan.Point, error) {
	if b.Limit > 0 && b.count.Load() >= b.Limit {
		return nil, io.EOF
	}
	if b.Period > 0 {
		t := time.NewTimer(b.Period)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.count.Add(1)
	return revolution(int(b.ahead.Load())), nil
}

var _ scan.Source = (*BenchScanner)(nil)
