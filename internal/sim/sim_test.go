package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukyun02/2026-autonomous-driving/internal/config"
	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/perception"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

func TestBuiltinScenariosPass(t *testing.T) {
	cfg := vehicle.ConfigFrom(config.Empty())

	results, err := Run(context.Background(), cfg, Builtin())
	require.NoError(t, err)
	require.Len(t, results, 8)

	for _, r := range results {
		assert.True(t, r.Pass, r.String())
		assert.NotEmpty(t, r.Reason)
	}
	assert.Equal(t, 8, Passed(results))
}

func TestTrafficLightScenariosPass(t *testing.T) {
	cfg := vehicle.ConfigFrom(config.Empty())

	results, err := Run(context.Background(), cfg, TrafficLightScenarios())
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Pass, r.String())
	}
}

func TestRunScenario_WireBytes(t *testing.T) {
	cfg := vehicle.ConfigFrom(config.Empty())

	r, err := RunScenario(context.Background(), cfg, Builtin()[0])
	require.NoError(t, err)
	// start stop, one forward despite five cycles, final stop
	assert.Equal(t, "SFS", r.Wire)

	r, err = RunScenario(context.Background(), cfg, Builtin()[3])
	require.NoError(t, err)
	assert.Equal(t, "SS", r.Wire)
}

func TestRunScenario_Mismatch(t *testing.T) {
	cfg := vehicle.ConfigFrom(config.Empty())
	sc := Builtin()[0]
	sc.Expect = control.Left

	r, err := RunScenario(context.Background(), cfg, sc)
	require.NoError(t, err)
	assert.False(t, r.Pass)
	assert.Contains(t, r.String(), "FAIL")
}

func TestRunScenario_ThresholdFromConfig(t *testing.T) {
	// a tighter scanner zone lets the 300 mm obstacle through
	cfg := vehicle.ConfigFrom(config.Empty())
	cfg.Zone.DistanceMM = 250
	sc := Builtin()[3]

	r, err := RunScenario(context.Background(), cfg, sc)
	require.NoError(t, err)
	assert.Equal(t, control.Forward, r.Got)
}

func TestRevolutionIsAValidSnapshot(t *testing.T) {
	assert.Greater(t, len(revolution(1000)), 10)
}

func TestBenchScanner_DrivesASession(t *testing.T) {
	bench := NewBenchScanner(1000, 0)
	bench.Limit = 6

	var sent []control.Command
	s := vehicle.New(vehicle.ConfigFrom(config.Empty()), vehicle.Deps{
		Scanner: bench,
		Sink: control.SinkFunc(func(c control.Command) error {
			sent = append(sent, c)
			if len(sent) == 2 {
				// an obstacle appears once the vehicle is moving
				bench.SetAhead(200)
			}
			return nil
		}),
		Lane:   perception.Static{Direction: control.LaneForward},
		Report: func(vehicle.Status) {},
	})
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, int64(6), bench.Revolutions())
	assert.Equal(t, []control.Command{control.Stop, control.Forward, control.Stop, control.Stop}, sent)
}

func TestBenchScanner_Cancel(t *testing.T) {
	bench := NewBenchScanner(1000, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := bench.NextRevolution(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
