// Package publish mirrors the control loop's latest Status into Redis so
// dashboards and other processes can follow the vehicle without touching
// the serial devices.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

const (
	DefaultChannel  = "nav:status"
	DefaultKey      = "nav:status"
	DefaultInterval = 200 * time.Millisecond
)

// StatusSource is satisfied by *vehicle.Session.
type StatusSource interface {
	Status() (vehicle.Status, bool)
}

type Options struct {
	// Channel receives one JSON message per new cycle.
	Channel string
	// Key always holds the most recently published message.
	Key      string
	Interval time.Duration
}

// Publisher polls a StatusSource and forwards cycles it has not seen.
// It only ever reads published Status values.
type Publisher struct {
	rdb  *redis.Client
	src  StatusSource
	opts Options

	lastSession string
	lastCycle   int64

	published atomic.Int64
	failures  atomic.Int64
}

func New(rdb *redis.Client, src StatusSource, opts Options) *Publisher {
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Publisher{rdb: rdb, src: src, opts: opts}
}

// Run publishes on every tick until ctx is done. Redis failures are logged
// and retried on the next tick; they never stop the vehicle.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		opsf("redis unreachable at start: %v", err)
	}
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			diagf("stopped after %d messages", p.published.Load())
			return nil
		case <-ticker.C:
			if _, err := p.PublishOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				opsf("%v", err)
			}
		}
	}
}

// PublishOnce forwards the latest Status if it is new. It reports whether a
// message was sent.
func (p *Publisher) PublishOnce(ctx context.Context) (bool, error) {
	st, ok := p.src.Status()
	if !ok {
		return false, nil
	}
	if st.SessionID == p.lastSession && st.Cycle == p.lastCycle {
		return false, nil
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("encode status: %w", err)
	}

	_, err = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.opts.Key, payload, 0)
		pipe.Publish(ctx, p.opts.Channel, payload)
		return nil
	})
	if err != nil {
		p.failures.Add(1)
		return false, fmt.Errorf("publish cycle %d: %w", st.Cycle, err)
	}

	p.lastSession, p.lastCycle = st.SessionID, st.Cycle
	p.published.Add(1)
	tracef("cycle %d -> %s", st.Cycle, p.opts.Channel)
	return true, nil
}

// Published returns how many messages have been sent.
func (p *Publisher) Published() int64 { return p.published.Load() }

// Failures returns how many publish attempts failed.
func (p *Publisher) Failures() int64 { return p.failures.Load() }

// Latest reads back the value stored under key, for tools that only want a
// snapshot.
func Latest(ctx context.Context, rdb *redis.Client, key string) (vehicle.Status, error) {
	if key == "" {
		key = DefaultKey
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return vehicle.Status{}, err
	}
	var st vehicle.Status
	if err := json.Unmarshal(raw, &st); err != nil {
		return vehicle.Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}
