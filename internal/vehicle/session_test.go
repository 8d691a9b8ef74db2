package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukyun02/2026-autonomous-driving/internal/config"
	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/perception"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
	"github.com/sukyun02/2026-autonomous-driving/internal/testutil"
)

func testConfig() Config {
	return ConfigFrom(config.Empty())
}

func clearRevs(n int) [][]scan.Point {
	revs := make([][]scan.Point, n)
	for i := range revs {
		revs[i] = testutil.ClearRevolution(36, 2000)
	}
	return revs
}

// orderedSink logs each send into the shared OrderLog.
type orderedSink struct {
	testutil.RecordingSink
	log *testutil.OrderLog
}

func (o *orderedSink) Send(c control.Command) error {
	if err := o.RecordingSink.Send(c); err != nil {
		return err
	}
	o.log.Add("send " + string(rune(c)))
	return nil
}

type rig struct {
	log     *testutil.OrderLog
	sink    *orderedSink
	scanner *testutil.Closer
	link    *testutil.Closer
}

func newRig() *rig {
	log := &testutil.OrderLog{}
	return &rig{
		log:     log,
		sink:    &orderedSink{log: log},
		scanner: &testutil.Closer{Name: "scanner", Log: log},
		link:    &testutil.Closer{Name: "link", Log: log},
	}
}

func (r *rig) deps(src scan.Source) Deps {
	return Deps{
		SessionID:     "test-session",
		Scanner:       src,
		ScannerCloser: r.scanner,
		Sink:          r.sink,
		Link:          r.link,
		Lane:          perception.Static{Direction: control.LaneForward},
	}
}

func TestSession_StopThenReleaseOnStreamEnd(t *testing.T) {
	r := newRig()
	s := New(testConfig(), r.deps(&scan.SliceSource{Revolutions: clearRevs(3)}))

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []string{"send S", "send F", "send S", "close scanner", "close link"}, r.log.Events())
	st, ok := s.Status()
	require.True(t, ok)
	assert.Equal(t, int64(3), st.Cycle)
	assert.Equal(t, control.Forward, st.Command)
	assert.Equal(t, "test-session", st.SessionID)
}

func TestSession_ChangeSuppression(t *testing.T) {
	r := newRig()
	deps := r.deps(&scan.SliceSource{Revolutions: clearRevs(7)})
	deps.Lane = perception.NewScript(
		perception.Reading{Lane: control.LaneForward},
		perception.Reading{Lane: control.LaneForward},
		perception.Reading{Lane: control.LaneForward},
		perception.Reading{Lane: control.LaneLeft},
		perception.Reading{Lane: control.LaneLeft},
		perception.Reading{Lane: control.LaneNone},
		perception.Reading{Lane: control.LaneNone},
	)
	s := New(testConfig(), deps)

	require.NoError(t, s.Run(context.Background()))

	// initial S, then one byte per change, then the final S
	assert.Equal(t, "SFLSS", r.sink.Bytes())
}

func TestSession_UltrasonicTelemetryStops(t *testing.T) {
	r := newRig()
	lines := make(chan string, 4)
	lines <- "Arduino ready"
	lines <- "F:100,FL:15,FR:100,R:50,RL:50,RR:50"
	deps := r.deps(&scan.SliceSource{Revolutions: clearRevs(2)})
	deps.Telemetry = lines
	deps.Lane = perception.Static{Direction: control.LaneLeft}
	s := New(testConfig(), deps)

	require.NoError(t, s.Run(context.Background()))

	st, _ := s.Status()
	assert.Equal(t, control.Stop, st.Command)
	assert.Equal(t, control.RuleUltrasonicObstacle, st.Rule)
	assert.Equal(t, "FL", st.Ultrasonic.Sensor)
	assert.Equal(t, 15, st.Distances[1])
	// Stop was already the last command, so only the forced stops went out
	assert.Equal(t, "SS", r.sink.Bytes())
}

func TestSession_ScannerObstacleStops(t *testing.T) {
	r := newRig()
	rev := testutil.WithObstacle(testutil.ClearRevolution(36, 2000), 0, 300)
	s := New(testConfig(), r.deps(&scan.SliceSource{Revolutions: [][]scan.Point{rev}}))

	require.NoError(t, s.Run(context.Background()))

	st, _ := s.Status()
	assert.Equal(t, control.RuleScannerObstacle, st.Rule)
	assert.True(t, st.Scanner.Present)
	assert.Equal(t, 300, st.Scanner.Nearest)
}

func TestSession_TrafficLightVariant(t *testing.T) {
	r := newRig()
	deps := r.deps(&scan.SliceSource{Revolutions: clearRevs(2)})
	deps.Light = perception.Static{Light: control.LightRed}
	cfg := testConfig()

	s := New(cfg, deps)
	require.NoError(t, s.Run(context.Background()))
	st, _ := s.Status()
	assert.Equal(t, control.Forward, st.Command, "lights are ignored unless enabled")

	r = newRig()
	deps = r.deps(&scan.SliceSource{Revolutions: clearRevs(2)})
	deps.Light = perception.Static{Light: control.LightRed}
	cfg.TrafficLight = true
	s = New(cfg, deps)
	require.NoError(t, s.Run(context.Background()))
	st, _ = s.Status()
	assert.Equal(t, control.RuleRedLight, st.Rule)
	assert.Equal(t, control.LightRed, st.Light)
}

func TestSession_DeviceFaultStopsThenReleases(t *testing.T) {
	r := newRig()
	fault := errors.New("scanner unplugged")
	src := &scan.SliceSource{Revolutions: clearRevs(3), Errs: []error{nil, fault}}
	s := New(testConfig(), r.deps(src))

	err := s.Run(context.Background())

	assert.ErrorIs(t, err, fault)
	assert.Equal(t, []string{"send S", "send F", "send S", "close scanner", "close link"}, r.log.Events())
}

func TestSession_TransientErrorsAreSkipped(t *testing.T) {
	r := newRig()
	src := &scan.SliceSource{
		Revolutions: clearRevs(3),
		Errs:        []error{nil, scan.ErrTransient, nil},
	}
	s := New(testConfig(), r.deps(src))

	require.NoError(t, s.Run(context.Background()))
	st, _ := s.Status()
	assert.Equal(t, int64(2), st.Cycle)
	assert.Equal(t, int64(1), s.StreamStats().Transient)
}

// blockingSource returns one revolution and then blocks until cancelled.
type blockingSource struct {
	served chan struct{}
	done   bool
}

func (b *blockingSource) NextRevolution(ctx context.Context) ([]scan.Point, error) {
	if !b.done {
		b.done = true
		close(b.served)
		return testutil.ClearRevolution(36, 2000), nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSession_CancelStopsThenReleases(t *testing.T) {
	r := newRig()
	src := &blockingSource{served: make(chan struct{})}
	s := New(testConfig(), r.deps(src))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	<-src.served
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	events := r.log.Events()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, []string{"send S", "close scanner", "close link"}, events[len(events)-3:])
}

func TestSession_LinkClosed(t *testing.T) {
	r := newRig()
	lines := make(chan string)
	close(lines)
	deps := r.deps(&scan.SliceSource{Revolutions: clearRevs(2)})
	deps.Telemetry = lines
	s := New(testConfig(), deps)

	err := s.Run(context.Background())

	assert.ErrorIs(t, err, ErrLinkClosed)
	assert.Equal(t, []string{"send S", "send S", "close scanner", "close link"}, r.log.Events())
}

func TestSession_SinkFailure(t *testing.T) {
	r := newRig()
	r.sink.Err = errors.New("write failed")
	s := New(testConfig(), r.deps(&scan.SliceSource{Revolutions: clearRevs(1)}))

	err := s.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial stop")
	assert.Contains(t, err.Error(), "final stop")
	assert.Equal(t, []string{"close scanner", "close link"}, r.log.Events(), "devices are released even when the stop fails")
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	r := newRig()
	r.link.Err = errors.New("busy")
	s := New(testConfig(), r.deps(&scan.SliceSource{}))

	err1 := s.Close()
	err2 := s.Close()

	assert.ErrorIs(t, err1, r.link.Err)
	assert.Equal(t, err1, err2)
	assert.Equal(t, "S", r.sink.Bytes())
}

func TestSession_RecorderAndReport(t *testing.T) {
	r := newRig()
	var recorded []int64
	var reported []int64
	deps := r.deps(&scan.SliceSource{Revolutions: clearRevs(5)})
	deps.Recorder = RecorderFunc(func(st Status) error {
		recorded = append(recorded, st.Cycle)
		if st.Cycle == 3 {
			return errors.New("disk full")
		}
		return nil
	})
	deps.Report = func(st Status) { reported = append(reported, st.Cycle) }
	cfg := testConfig()
	cfg.DebugPrintInterval = 2

	s := New(cfg, deps)
	require.NoError(t, s.Run(context.Background()), "journal failures never stop the vehicle")

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, recorded)
	assert.Equal(t, []int64{2, 4}, reported)
}

func TestSession_StatusBeforeFirstCycle(t *testing.T) {
	s := New(testConfig(), Deps{Scanner: &scan.SliceSource{}, Sink: &testutil.RecordingSink{}})

	_, ok := s.Status()
	assert.False(t, ok)
	assert.NotEmpty(t, s.ID(), "a session id is generated when none is given")
}

func TestSession_SmallRevolutionsAreNotCycles(t *testing.T) {
	r := newRig()
	revs := [][]scan.Point{
		testutil.ClearRevolution(10, 2000),
		testutil.ClearRevolution(11, 2000),
	}
	s := New(testConfig(), r.deps(&scan.SliceSource{Revolutions: revs}))

	require.NoError(t, s.Run(context.Background()))
	st, _ := s.Status()
	assert.Equal(t, int64(1), st.Cycle)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Empty())

	assert.Equal(t, obstacle.DefaultScannerZone, cfg.Zone)
	assert.Equal(t, 200, cfg.UltrasonicSafeMM)
	assert.Equal(t, 10, cfg.MinScanPoints)
	assert.Equal(t, 10, cfg.DebugPrintInterval)
	assert.False(t, cfg.TrafficLight)
}

// gatedSource serves one revolution, then waits for gate before serving
// the rest.
type gatedSource struct {
	served int
	gate   <-chan struct{}
}

func (g *gatedSource) NextRevolution(ctx context.Context) ([]scan.Point, error) {
	if g.served > 0 {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.served++
	return testutil.ClearRevolution(36, 2000), nil
}

func TestSession_SerialDisconnectMidRunStopsThenReleases(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	port.BlockReads = true
	link := serialmux.NewSerialMux(port)
	_, lines := link.Subscribe()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		_ = link.Monitor(context.Background())
	}()

	r := newRig()
	deps := r.deps(&gatedSource{gate: monitorDone})
	deps.Telemetry = lines
	s := New(testConfig(), deps)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	// unplug the controller while the session is driving
	require.Eventually(t, func() bool {
		st, ok := s.Status()
		return ok && st.Cycle == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, port.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrLinkClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("session kept driving after the serial link was lost")
	}
	assert.Equal(t, []string{"send S", "send F", "send S", "close scanner", "close link"}, r.log.Events())
}
