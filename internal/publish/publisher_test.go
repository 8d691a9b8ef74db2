package publish

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
	"github.com/sukyun02/2026-autonomous-driving/internal/units"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

// stubSource hands out whatever status was last set.
type stubSource struct {
	mu sync.Mutex
	st *vehicle.Status
}

func (s *stubSource) set(st vehicle.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = &st
}

func (s *stubSource) Status() (vehicle.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return vehicle.Status{}, false
	}
	return *s.st, true
}

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func cycle(n int64) vehicle.Status {
	return vehicle.Status{
		SessionID:  "s-1",
		Cycle:      n,
		At:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Lane:       control.LaneLeft,
		Light:      control.LightGreen,
		Scanner:    obstacle.Report{Unit: units.MM},
		Ultrasonic: obstacle.Report{Unit: units.CM},
		Distances:  ultrasonic.Frame{30, 40, 50, 60, 70, 80},
		Points:     []scan.Point{{Angle: 1, Distance: 900, Quality: 10}},
		Command:    control.Left,
		Rule:       control.RuleLaneLeft,
		Reason:     "following lane left",
	}
}

func TestPublishOnce_OnlyNewCycles(t *testing.T) {
	mr, rdb := setup(t)
	ctx := context.Background()
	src := &stubSource{}
	p := New(rdb, src, Options{})

	sent, err := p.PublishOnce(ctx)
	require.NoError(t, err)
	assert.False(t, sent, "nothing published before the first cycle")

	src.set(cycle(1))
	sent, err = p.PublishOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = p.PublishOnce(ctx)
	require.NoError(t, err)
	assert.False(t, sent, "same cycle is not republished")

	src.set(cycle(2))
	sent, err = p.PublishOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, int64(2), p.Published())

	raw, err := mr.Get(DefaultKey)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, float64(2), got["cycle"])
	assert.Equal(t, "L", got["command"])
	assert.NotContains(t, got, "Points", "raw points stay out of the message")
}

func TestPublishOnce_ReachesSubscribers(t *testing.T) {
	_, rdb := setup(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "nav:test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	src := &stubSource{}
	src.set(cycle(5))
	p := New(rdb, src, Options{Channel: "nav:test", Key: "nav:test:latest"})
	_, err = p.PublishOnce(ctx)
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var got vehicle.Status
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, int64(5), got.Cycle)
		assert.Equal(t, control.Left, got.Command)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestLatest(t *testing.T) {
	_, rdb := setup(t)
	ctx := context.Background()
	src := &stubSource{}
	src.set(cycle(9))
	_, err := New(rdb, src, Options{}).PublishOnce(ctx)
	require.NoError(t, err)

	st, err := Latest(ctx, rdb, "")
	require.NoError(t, err)
	want := cycle(9)
	want.Points = nil
	assert.Equal(t, want, st)

	_, err = Latest(ctx, rdb, "missing")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestPublishOnce_RedisDown(t *testing.T) {
	mr, rdb := setup(t)
	src := &stubSource{}
	src.set(cycle(1))
	p := New(rdb, src, Options{})

	mr.Close()
	sent, err := p.PublishOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, int64(1), p.Failures())
}

func TestRun_StopsOnCancel(t *testing.T) {
	mr, rdb := setup(t)
	src := &stubSource{}
	src.set(cycle(3))
	p := New(rdb, src, Options{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Published() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, mr.Exists(DefaultKey))
}
