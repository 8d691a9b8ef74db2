// Package vehicle runs the control loop: one scan snapshot in, one motor
// command out, per cycle.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sukyun02/2026-autonomous-driving/internal/config"
	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/perception"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
)

// ErrLinkClosed is returned when the motor controller telemetry
// subscription closes while the loop is running.
var ErrLinkClosed = errors.New("motor controller link closed")

// Config holds the values the loop reads each cycle.
type Config struct {
	Zone               obstacle.ScannerZone
	UltrasonicSafeMM   int
	MinScanPoints      int
	TrafficLight       bool
	DebugPrintInterval int
}

// ConfigFrom extracts the loop settings from a NavConfig.
func ConfigFrom(c *config.NavConfig) Config {
	return Config{
		Zone: obstacle.ScannerZone{
			Window:     scan.Window{MinAngle: c.GetObstacleAngleMin(), MaxAngle: c.GetObstacleAngleMax()},
			DistanceMM: c.GetObstacleDistanceMM(),
		},
		UltrasonicSafeMM:   c.GetUltrasonicSafeDistanceMM(),
		MinScanPoints:      c.GetMinScanPoints(),
		TrafficLight:       c.GetTrafficLightEnabled(),
		DebugPrintInterval: c.GetDebugPrintInterval(),
	}
}

// Deps are the devices and collaborators a Session owns. Scanner and Sink
// are required.
type Deps struct {
	SessionID string

	// Scanner yields revolutions. ScannerCloser, when set, is closed after
	// the final Stop.
	Scanner       scan.Source
	ScannerCloser io.Closer

	// Telemetry carries motor controller lines. A nil channel means no
	// ultrasonic input; every reading then stays at its initial value.
	Telemetry <-chan string
	Sink      control.CommandSink
	// Link, when set, is closed after the final Stop and ScannerCloser.
	Link io.Closer

	Lane  perception.LaneSource
	Light perception.TrafficLightSource

	Recorder Recorder
	// Report is called every DebugPrintInterval cycles. Defaults to a diag
	// log line.
	Report func(Status)

	Now func() time.Time
}

// Session is the control loop context. It is the only owner of the sticky
// ultrasonic frame and the previous command; other goroutines read the
// published Status.
type Session struct {
	id      string
	cfg     Config
	deps    Deps
	stream  *scan.Stream
	decoder *ultrasonic.Decoder
	tx      *control.Transmitter
	decide  control.Decider

	cycle  int64
	status atomic.Pointer[Status]

	closeOnce sync.Once
	closeErr  error
}

// New builds a Session. Nothing is sent until Run.
func New(cfg Config, deps Deps) *Session {
	if deps.SessionID == "" {
		deps.SessionID = uuid.NewString()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Report == nil {
		deps.Report = func(st Status) {
			diagf("cycle %d: %c %s | scanner %s | ultrasonic %s | %s",
				st.Cycle, byte(st.Command), st.Lane, st.Scanner, st.Ultrasonic, st.Distances)
		}
	}
	if cfg.DebugPrintInterval <= 0 {
		cfg.DebugPrintInterval = 10
	}
	return &Session{
		id:      deps.SessionID,
		cfg:     cfg,
		deps:    deps,
		stream:  scan.NewStream(deps.Scanner, cfg.MinScanPoints),
		decoder: ultrasonic.NewDecoder(),
		tx:      control.NewTransmitter(deps.Sink),
		decide:  control.DeciderFor(cfg.TrafficLight),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Status returns the most recent published cycle, if any.
func (s *Session) Status() (Status, bool) {
	p := s.status.Load()
	if p == nil {
		return Status{}, false
	}
	return *p, true
}

// StreamStats exposes the scan stream counters.
func (s *Session) StreamStats() scan.StreamStats { return s.stream.Stats() }

// Run sends an initial Stop and then runs cycles until ctx is cancelled, the
// scan stream ends, or a device fails. On every exit path it sends Stop and
// then releases the scanner and the serial link. Cancellation and the end
// of the stream return nil; device faults are returned wrapped.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := s.tx.Force(control.Stop); err != nil {
		return fmt.Errorf("initial stop: %w", err)
	}
	opsf("session %s started (traffic light %v)", s.id, s.cfg.TrafficLight)

	for {
		snap, err := s.stream.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			opsf("scan stream ended after %d cycles", s.cycle)
			return nil
		case ctx.Err() != nil:
			opsf("session %s cancelled after %d cycles", s.id, s.cycle)
			return nil
		default:
			return fmt.Errorf("range scanner: %w", err)
		}

		if err := s.Step(ctx, snap); err != nil {
			return err
		}
	}
}

// Step runs one cycle over snap: drain telemetry, detect, decide, transmit,
// publish. It is exported for the simulator and tests; Run is the normal
// entry point.
func (s *Session) Step(ctx context.Context, snap scan.Snapshot) error {
	if err := s.drainTelemetry(); err != nil {
		return err
	}

	frame := s.decoder.Frame()
	in := control.Inputs{
		Lane:       perception.ReadLane(ctx, s.deps.Lane),
		Scanner:    obstacle.DetectScanner(snap, s.cfg.Zone),
		Ultrasonic: obstacle.DetectUltrasonic(frame, s.cfg.UltrasonicSafeMM),
	}
	if s.cfg.TrafficLight {
		in.Light = perception.ReadLight(ctx, s.deps.Light)
	}
	d := s.decide(in)

	sent, err := s.tx.Transmit(d.Command)
	if err != nil {
		return fmt.Errorf("motor controller: %w", err)
	}

	s.cycle++
	st := &Status{
		SessionID:    s.id,
		Cycle:        s.cycle,
		At:           s.deps.Now(),
		Lane:         in.Lane,
		Light:        in.Light,
		Scanner:      in.Scanner,
		Ultrasonic:   in.Ultrasonic,
		Distances:    frame,
		Points:       snap.Points(),
		Stream:       s.stream.Stats(),
		Command:      d.Command,
		Rule:         d.Rule,
		Reason:       d.Reason,
		Transmitted:  sent,
		CommandsSent: s.tx.Sent(),
	}
	s.status.Store(st)
	tracef("cycle %d: %s", s.cycle, d)

	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.Record(*st); err != nil {
			opsf("journal: %v", err)
		}
	}
	if s.cycle%int64(s.cfg.DebugPrintInterval) == 0 {
		s.deps.Report(*st)
	}
	return nil
}

// drainTelemetry applies every line already buffered without waiting for
// more.
func (s *Session) drainTelemetry() error {
	if s.deps.Telemetry == nil {
		return nil
	}
	for {
		select {
		case line, ok := <-s.deps.Telemetry:
			if !ok {
				return ErrLinkClosed
			}
			serialmux.HandleLine(s.decoder, line)
		default:
			return nil
		}
	}
}

// Close sends a forced Stop and then releases the scanner and the serial
// link, in that order. Only the first call does anything; later calls
// return the same result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.tx.Force(control.Stop); err != nil {
			opsf("final stop failed: %v", err)
			errs = append(errs, fmt.Errorf("final stop: %w", err))
		}
		if s.deps.ScannerCloser != nil {
			if err := s.deps.ScannerCloser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("release range scanner: %w", err))
			}
		}
		if s.deps.Link != nil {
			if err := s.deps.Link.Close(); err != nil {
				errs = append(errs, fmt.Errorf("release motor controller: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		opsf("session %s closed: %d cycles, %d commands sent", s.id, s.cycle, s.tx.Sent())
	})
	return s.closeErr
}
